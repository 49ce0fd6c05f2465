// Package identity supplies the client id stamped into the owner field of
// new pins. The sync core depends only on Provider so that a verified
// identity can replace the generated one later.
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pinsync/internal/client/repositories/metadata"
)

type Provider interface {
	ClientID(ctx context.Context) (string, error)
}

// Static returns a configuration-supplied id.
type Static string

func (s Static) ClientID(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty client id")
	}
	return string(s), nil
}

// Stored generates a random id on first use and persists it in the metadata table.
type Stored struct {
	repo metadata.Repository

	mu     sync.Mutex
	cached string
}

func NewStored(repo metadata.Repository) *Stored {
	return &Stored{repo: repo}
}

func (s *Stored) ClientID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	v, err := s.repo.Get(ctx, metadata.KeyClientID)
	if err != nil {
		return "", err
	}
	if len(v) > 0 {
		s.cached = string(v)
		return s.cached, nil
	}

	id := uuid.NewString()
	if err := s.repo.Set(ctx, metadata.KeyClientID, []byte(id)); err != nil {
		return "", err
	}
	s.cached = id
	return id, nil
}
