// Package storage holds the authoritative pin document. Every backend reads
// and writes the whole set; serialization of access is the caller's job.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

type Store interface {
	// Load returns the stored pins. A document that cannot be parsed yields
	// an error wrapping common.ErrCorruptStore.
	Load(ctx context.Context) ([]models.Pin, error)
	// Save replaces the stored pins. Readers see either the old or the new set.
	Save(ctx context.Context, pins []models.Pin) error
	Close() error
}

func decodeDocument(b []byte) ([]models.Pin, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var pins []models.Pin
	if err := json.Unmarshal(b, &pins); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptStore, err)
	}
	return pins, nil
}

func encodeDocument(pins []models.Pin) ([]byte, error) {
	if pins == nil {
		pins = []models.Pin{}
	}
	return json.MarshalIndent(pins, "", "  ")
}
