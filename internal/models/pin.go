// Package models defines the pin record shared by the client and the
// authoritative server.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/pinsync/internal/common"
)

// LatLng is the marker position. The sync layer carries it unmodified.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Pin is the unit of synchronization.
type Pin struct {
	// ID is immutable once created.
	ID string `json:"id"`

	// Owner identifies the client that created the pin. Used for display only.
	Owner string `json:"owner"`

	// Position is a pointer so that a missing position can be told apart from (0,0).
	Position *LatLng `json:"position"`

	// Updated is the Unix time in milliseconds of the last mutation. It is the
	// only ordering signal used by merge.
	Updated int64 `json:"updated"`

	// Visible=false marks the pin as a tombstone.
	Visible bool `json:"visible"`

	// PendingSync is local-only and never transmitted.
	PendingSync bool `json:"-"`

	// SyncedAt is the local Unix time in milliseconds at which the authority
	// last confirmed this copy, by push acknowledgement or by adopt. Zero if
	// never confirmed. Local-only.
	SyncedAt int64 `json:"-"`
}

// Validate rejects pins that must never enter a store.
func (p *Pin) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil pin", common.ErrInvalidPin)
	}
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", common.ErrInvalidPin)
	}
	if p.Owner == "" {
		return fmt.Errorf("%w: missing owner", common.ErrInvalidPin)
	}
	if p.Position == nil {
		return fmt.Errorf("%w: missing position", common.ErrInvalidPin)
	}
	return nil
}

// Clone returns a deep copy.
func (p Pin) Clone() Pin {
	if p.Position != nil {
		pos := *p.Position
		p.Position = &pos
	}
	return p
}

// UpdatedAt converts the Updated stamp to a time.Time.
func (p Pin) UpdatedAt() time.Time {
	return time.UnixMilli(p.Updated).UTC()
}

// NextStamp returns the stamp a client must apply when mutating a pin whose
// previous stamp is prev. The result never goes backwards even when the wall
// clock does.
func NextStamp(now time.Time, prev int64) int64 {
	ts := now.UnixMilli()
	if ts <= prev {
		return prev + 1
	}
	return ts
}
