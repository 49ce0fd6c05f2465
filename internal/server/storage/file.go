package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/pinsync/internal/filex"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

// FileStore keeps the document in one JSON file, replaced atomically on Save.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load(context.Context) ([]models.Pin, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return decodeDocument(b)
}

func (s *FileStore) Save(_ context.Context, pins []models.Pin) error {
	b, err := encodeDocument(pins)
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
