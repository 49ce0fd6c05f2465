// Package queue is the Pending Queue: a lazy view over the Local Store that
// yields pins with unpushed changes. It owns no storage of its own.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pinsync/internal/client/repositories/pins"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

type Queue struct {
	store pins.Repository
	now   func() time.Time
}

type Option func(*Queue)

// WithClock overrides the clock used to stamp SyncedAt.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

func New(store pins.Repository, opts ...Option) *Queue {
	q := &Queue{store: store, now: time.Now}
	for _, o := range opts {
		o(q)
	}
	return q
}

// ListPending returns every pin with PendingSync set.
func (q *Queue) ListPending(ctx context.Context) ([]models.Pin, error) {
	return q.store.Scan(ctx, func(p models.Pin) bool { return p.PendingSync })
}

// MarkSynced clears PendingSync after the authority acknowledged pushed.
// A pin mutated again while the push was in flight carries a newer stamp
// and stays pending. A cleared pin records the acknowledgement time in
// SyncedAt. Reports whether the flag was cleared.
func (q *Queue) MarkSynced(ctx context.Context, pushed models.Pin) (bool, error) {
	got, err := q.store.Update(ctx, pushed.ID, func(cur *models.Pin) (*models.Pin, error) {
		if cur == nil || !cur.PendingSync || cur.Updated != pushed.Updated {
			return nil, nil
		}
		cur.PendingSync = false
		cur.SyncedAt = q.now().UnixMilli()
		return cur, nil
	})
	if err != nil {
		return false, fmt.Errorf("mark synced: %w", err)
	}
	return got != nil, nil
}

// Purge deletes local tombstones that the authority already has.
func (q *Queue) Purge(ctx context.Context) (int, error) {
	dead, err := q.store.Scan(ctx, func(p models.Pin) bool { return !p.Visible && !p.PendingSync })
	if err != nil {
		return 0, err
	}
	for _, p := range dead {
		if err := q.store.Delete(ctx, p.ID); err != nil {
			return 0, fmt.Errorf("purge: %w", err)
		}
	}
	return len(dead), nil
}
