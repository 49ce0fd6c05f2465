package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/pinsync/internal/client/client"
	"github.com/dmitrijs2005/pinsync/internal/client/merge"
	"github.com/dmitrijs2005/pinsync/internal/client/queue"
	"github.com/dmitrijs2005/pinsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pinsync/internal/client/scheduler"
	"github.com/dmitrijs2005/pinsync/internal/logging"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

const defaultPushBatch = 50

// Syncer performs the push and pull round trips for the scheduler.
type Syncer struct {
	client   client.Client
	queue    *queue.Queue
	resolver *merge.Resolver
	meta     metadata.Repository
	log      logging.Logger
	batch    int
	now      func() time.Time
}

var _ scheduler.Runner = (*Syncer)(nil)

func NewSyncer(c client.Client, q *queue.Queue, r *merge.Resolver, meta metadata.Repository, log logging.Logger) *Syncer {
	return &Syncer{client: c, queue: q, resolver: r, meta: meta, log: log, batch: defaultPushBatch, now: time.Now}
}

// Push sends up to one batch of pending pins. A transport failure aborts the
// run and leaves the rest pending. A pin the server rejects stays pending and
// the run reports an error once the batch is done.
func (s *Syncer) Push(ctx context.Context) (bool, error) {
	pending, err := s.queue.ListPending(ctx)
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return false, nil
	}

	batch := pending
	if len(batch) > s.batch {
		batch = batch[:s.batch]
	}

	var rejected error
	synced := 0
	for _, p := range batch {
		if err := s.client.Push(ctx, p); err != nil {
			if errors.Is(err, client.ErrRejected) {
				s.log.Error(ctx, "server rejected pin", "id", p.ID, "error", err)
				rejected = err
				continue
			}
			return false, err
		}
		ok, err := s.queue.MarkSynced(ctx, p)
		if err != nil {
			return false, err
		}
		if ok {
			synced++
		}
	}
	if rejected != nil {
		return false, rejected
	}

	left, err := s.queue.ListPending(ctx)
	if err != nil {
		return false, err
	}
	s.log.Info(ctx, "pushed pins", "sent", len(batch), "synced", synced, "pending", len(left))
	return len(left) > 0, nil
}

// Pull fetches the authoritative set and reconciles the Local Store with it.
func (s *Syncer) Pull(ctx context.Context) error {
	pulledAt := s.now()
	remote, err := s.client.Pull(ctx)
	if err != nil {
		return err
	}

	rep, err := s.resolver.Reconcile(ctx, remote, pulledAt)
	if err != nil {
		return err
	}
	purged, err := s.queue.Purge(ctx)
	if err != nil {
		return err
	}

	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.meta.Set(ctx, metadata.KeyLastPull, []byte(stamp)); err != nil {
		return err
	}

	s.log.Info(ctx, "pulled pins",
		"remote", len(remote), "adopted", rep.Adopted, "kept", rep.Kept,
		"conflicts", rep.Conflicts, "anomalies", rep.Anomalies, "hidden", rep.Hidden, "purged", purged)
	return nil
}

// Pending returns the number of pins waiting to be pushed.
func (s *Syncer) Pending(ctx context.Context) (int, error) {
	pending, err := s.queue.ListPending(ctx)
	return len(pending), err
}

// LastPull returns the time of the last successful pull, zero if none.
func (s *Syncer) LastPull(ctx context.Context) (time.Time, error) {
	v, err := s.meta.Get(ctx, metadata.KeyLastPull)
	if err != nil || len(v) == 0 {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

// Listen merges live pins pushed by the server until ctx is done,
// reconnecting with capped exponential backoff.
func (s *Syncer) Listen(ctx context.Context) {
	b := newListenBackoff()
	for {
		err := s.client.Subscribe(ctx, func(p models.Pin) {
			b = newListenBackoff()
			if _, err := s.resolver.Merge(ctx, p); err != nil {
				s.log.Debug(ctx, "live pin not applied", "id", p.ID, "error", err)
			}
		})
		if ctx.Err() != nil {
			return
		}

		delay, _ := b.Next()
		s.log.Debug(ctx, "live updates disconnected", "error", err, "retry_in", delay.String())

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func newListenBackoff() retry.Backoff {
	return retry.WithCappedDuration(30*time.Second, retry.NewExponential(500*time.Millisecond))
}
