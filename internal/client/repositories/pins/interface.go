package pins

import (
	"context"

	"github.com/dmitrijs2005/pinsync/internal/models"
)

// Repository is single-writer-per-key; writers to distinct ids do not block
// each other beyond what the database does.
type Repository interface {
	// Get returns (nil, nil) when the id is unknown.
	Get(ctx context.Context, id string) (*models.Pin, error)
	Put(ctx context.Context, p *models.Pin) error
	// Scan returns the pins matching keep, evaluated on a snapshot taken at call time.
	// A nil keep matches everything.
	Scan(ctx context.Context, keep func(models.Pin) bool) ([]models.Pin, error)
	Delete(ctx context.Context, id string) error
	// Update runs fn on the current copy (nil when unknown) and stores what
	// fn returns, atomically with respect to other writers of this store.
	// A nil result leaves the record untouched.
	Update(ctx context.Context, id string, fn func(cur *models.Pin) (*models.Pin, error)) (*models.Pin, error)
}
