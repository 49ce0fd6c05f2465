package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pinsync/internal/client/repositories/pins"
	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/dmitrijs2005/pinsync/internal/logging"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

// Publisher receives every pin adopted into the Local Store.
type Publisher interface {
	Publish(ctx context.Context, p models.Pin)
}

type Resolver struct {
	store pins.Repository
	pub   Publisher
	log   logging.Logger
	now   func() time.Time
}

type Option func(*Resolver)

// WithClock overrides the clock used to stamp SyncedAt on adopt.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(store pins.Repository, pub Publisher, log logging.Logger, opts ...Option) *Resolver {
	r := &Resolver{store: store, pub: pub, log: log, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Merge applies Decide for a single remote pin. Conflicts and anomalies are
// logged and returned wrapped in common.ErrMergeConflict and
// common.ErrIntegrityAnomaly; the store is left unchanged for both.
func (r *Resolver) Merge(ctx context.Context, remote models.Pin) (Decision, error) {
	if err := remote.Validate(); err != nil {
		return Keep, err
	}

	var (
		d     Decision
		local models.Pin
	)
	adopted, err := r.store.Update(ctx, remote.ID, func(cur *models.Pin) (*models.Pin, error) {
		d = Decide(remote, cur)
		if cur != nil {
			local = *cur
		}
		if d != Adopt {
			return nil, nil
		}
		p := remote.Clone()
		p.PendingSync = false
		p.SyncedAt = r.now().UnixMilli()
		return &p, nil
	})
	if err != nil {
		return d, err
	}

	switch d {
	case Adopt:
		r.pub.Publish(ctx, *adopted)

	case Conflict:
		r.log.Warn(ctx, "merge conflict: remote changed while local edit is unpushed",
			"id", remote.ID, "local_updated", local.Updated, "remote_updated", remote.Updated)
		return d, fmt.Errorf("%w: pin %s local=%d remote=%d", common.ErrMergeConflict, remote.ID, local.Updated, remote.Updated)

	case Anomaly:
		r.log.Error(ctx, "integrity anomaly: remote older than synced local copy",
			"id", remote.ID, "local_updated", local.Updated, "remote_updated", remote.Updated)
		return d, fmt.Errorf("%w: pin %s local=%d remote=%d", common.ErrIntegrityAnomaly, remote.ID, local.Updated, remote.Updated)
	}
	return d, nil
}

// Report summarizes a Reconcile pass.
type Report struct {
	Adopted   int
	Kept      int
	Conflicts int
	Anomalies int
	Hidden    int
}

// Reconcile merges a full pull whose request was sent at pulledAt. Locally
// visible, already synced pins that the authority no longer lists were
// deleted elsewhere; they are hidden locally and published so sessions drop
// them. Pending pins are left alone, and so are pins confirmed at or after
// pulledAt: the listing may predate their push or adopt.
//
// Only storage errors abort the pass.
func (r *Resolver) Reconcile(ctx context.Context, remote []models.Pin, pulledAt time.Time) (Report, error) {
	var rep Report
	seen := make(map[string]struct{}, len(remote))

	for _, p := range remote {
		seen[p.ID] = struct{}{}

		d, err := r.Merge(ctx, p)
		switch {
		case errors.Is(err, common.ErrMergeConflict):
			rep.Conflicts++
			continue
		case errors.Is(err, common.ErrIntegrityAnomaly):
			rep.Anomalies++
			continue
		case errors.Is(err, common.ErrInvalidPin):
			r.log.Warn(ctx, "skipping invalid remote pin", "id", p.ID, "error", err)
			continue
		case err != nil:
			return rep, err
		}

		if d == Adopt {
			rep.Adopted++
		} else {
			rep.Kept++
		}
	}

	cutoff := pulledAt.UnixMilli()
	stale := func(p *models.Pin) bool {
		if !p.Visible || p.PendingSync || p.SyncedAt >= cutoff {
			return false
		}
		_, ok := seen[p.ID]
		return !ok
	}

	gone, err := r.store.Scan(ctx, func(p models.Pin) bool { return stale(&p) })
	if err != nil {
		return rep, err
	}
	for _, g := range gone {
		hidden, err := r.store.Update(ctx, g.ID, func(cur *models.Pin) (*models.Pin, error) {
			if cur == nil || !stale(cur) {
				return nil, nil
			}
			cur.Visible = false
			return cur, nil
		})
		if err != nil {
			return rep, err
		}
		if hidden != nil {
			r.pub.Publish(ctx, *hidden)
			rep.Hidden++
		}
	}

	return rep, nil
}
