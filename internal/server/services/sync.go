// Package services contains server-side business logic. SyncService owns the
// authoritative pin set: one worker goroutine applies every read and write,
// so callers never observe a half-applied upsert.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/dmitrijs2005/pinsync/internal/logging"
	"github.com/dmitrijs2005/pinsync/internal/models"
	"github.com/dmitrijs2005/pinsync/internal/server/storage"
)

// Publisher receives every upsert the service accepted.
type Publisher interface {
	Publish(ctx context.Context, p models.Pin)
}

type opKind int

const (
	opUpsert opKind = iota
	opList
)

type command struct {
	ctx   context.Context
	kind  opKind
	pin   models.Pin
	reply chan result
}

type result struct {
	pins []models.Pin
	err  error
}

// SyncService serializes access to the authoritative store.
type SyncService struct {
	store  storage.Store
	pub    Publisher
	logger logging.Logger

	cmds chan command
	done chan struct{}
}

// NewSyncService wires the service. Nothing is applied until Run is started.
func NewSyncService(store storage.Store, pub Publisher, l logging.Logger) *SyncService {
	return &SyncService{
		store:  store,
		pub:    pub,
		logger: l.With("module", "sync_service"),
		cmds:   make(chan command),
		done:   make(chan struct{}),
	}
}

// Run consumes commands until ctx is cancelled. After it returns every call
// fails with common.ErrServiceStopped.
func (s *SyncService) Run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.cmds:
			var r result
			switch cmd.kind {
			case opUpsert:
				r.err = s.applyUpsert(cmd.ctx, cmd.pin)
			case opList:
				r.pins, r.err = s.listVisible(cmd.ctx)
			}
			cmd.reply <- r
		}
	}
}

// Upsert inserts, replaces or removes p depending on what is stored:
// absent and visible inserts, present and visible replaces, present and
// hidden removes. Hiding an unknown id changes nothing.
func (s *SyncService) Upsert(ctx context.Context, p models.Pin) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.submit(ctx, command{kind: opUpsert, pin: p.Clone()})
	return err
}

// ListVisible returns the stored pins that are visible.
func (s *SyncService) ListVisible(ctx context.Context) ([]models.Pin, error) {
	return s.submit(ctx, command{kind: opList})
}

func (s *SyncService) submit(ctx context.Context, cmd command) ([]models.Pin, error) {
	cmd.ctx = ctx
	cmd.reply = make(chan result, 1)

	select {
	case s.cmds <- cmd:
	case <-s.done:
		return nil, common.ErrServiceStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-cmd.reply:
		return r.pins, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *SyncService) load(ctx context.Context) ([]models.Pin, error) {
	pins, err := s.store.Load(ctx)
	if errors.Is(err, common.ErrCorruptStore) {
		s.logger.Error(ctx, "authoritative store is corrupt, continuing with an empty set", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pins: %w", err)
	}
	return pins, nil
}

func (s *SyncService) applyUpsert(ctx context.Context, p models.Pin) error {
	pins, err := s.load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range pins {
		if pins[i].ID == p.ID {
			idx = i
			break
		}
	}

	switch {
	case idx < 0 && !p.Visible:
		s.logger.Debug(ctx, "hide of unknown pin ignored", "id", p.ID)
		return nil
	case idx < 0:
		pins = append(pins, p)
	case p.Visible:
		pins[idx] = p
	default:
		pins = append(pins[:idx], pins[idx+1:]...)
	}

	if err := s.store.Save(ctx, pins); err != nil {
		return fmt.Errorf("save pins: %w", err)
	}

	s.logger.Info(ctx, "pin accepted", "id", p.ID, "updated", p.Updated, "visible", p.Visible)
	if s.pub != nil {
		s.pub.Publish(ctx, p.Clone())
	}
	return nil
}

func (s *SyncService) listVisible(ctx context.Context) ([]models.Pin, error) {
	pins, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Pin, 0, len(pins))
	for _, p := range pins {
		if p.Visible {
			out = append(out, p)
		}
	}
	return out, nil
}
