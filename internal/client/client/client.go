package client

import (
	"context"

	"github.com/dmitrijs2005/pinsync/internal/models"
)

type Client interface {
	// Push upserts one pin on the authority. Safe to repeat.
	Push(ctx context.Context, p models.Pin) error
	// Pull returns the authoritative pin set.
	Pull(ctx context.Context) ([]models.Pin, error)
	Ping(ctx context.Context) error
	// Subscribe calls fn for every pin the authority accepts until ctx is
	// done or the connection drops.
	Subscribe(ctx context.Context, fn func(models.Pin)) error
}
