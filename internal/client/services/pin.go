package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pinsync/internal/client/identity"
	"github.com/dmitrijs2005/pinsync/internal/client/repositories/pins"
	"github.com/dmitrijs2005/pinsync/internal/client/scheduler"
	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

// PinService is the local interface consumed by the UI layer. Mutations
// never touch the network: they land in the Local Store flagged pending,
// notify sessions and request a background push.
type PinService interface {
	CreateOrUpdate(ctx context.Context, p models.Pin) (models.Pin, error)
	Create(ctx context.Context, pos models.LatLng) (models.Pin, error)
	Move(ctx context.Context, id string, pos models.LatLng) (models.Pin, error)
	Hide(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (models.Pin, error)
	List(ctx context.Context) ([]models.Pin, error)
	Subscribe() (<-chan models.Pin, func())
}

type Notifier interface {
	Publish(ctx context.Context, p models.Pin)
	Subscribe() (<-chan models.Pin, func())
}

type Requester interface {
	Request(d scheduler.Direction)
}

type pinService struct {
	store pins.Repository
	ident identity.Provider
	notes Notifier
	sched Requester
	now   func() time.Time
}

type Option func(*pinService)

// WithClock overrides the wall clock used to stamp mutations.
func WithClock(now func() time.Time) Option {
	return func(s *pinService) { s.now = now }
}

func NewPinService(store pins.Repository, ident identity.Provider, notes Notifier, sched Requester, opts ...Option) PinService {
	s := &pinService{store: store, ident: ident, notes: notes, sched: sched, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *pinService) CreateOrUpdate(ctx context.Context, in models.Pin) (models.Pin, error) {
	if in.Owner == "" {
		owner, err := s.ident.ClientID(ctx)
		if err != nil {
			return models.Pin{}, fmt.Errorf("client id: %w", err)
		}
		in.Owner = owner
	}
	if err := in.Validate(); err != nil {
		return models.Pin{}, err
	}

	return s.mutate(ctx, in.ID, func(cur *models.Pin) (*models.Pin, error) {
		p := in.Clone()
		var prev int64
		if cur != nil {
			prev = cur.Updated
			p.Owner = cur.Owner
		}
		p.Updated = models.NextStamp(s.now(), prev)
		p.PendingSync = true
		return &p, nil
	})
}

func (s *pinService) Create(ctx context.Context, pos models.LatLng) (models.Pin, error) {
	return s.CreateOrUpdate(ctx, models.Pin{ID: uuid.NewString(), Position: &pos, Visible: true})
}

func (s *pinService) Move(ctx context.Context, id string, pos models.LatLng) (models.Pin, error) {
	return s.mutate(ctx, id, func(cur *models.Pin) (*models.Pin, error) {
		if cur == nil || !cur.Visible {
			return nil, fmt.Errorf("pin %s: %w", id, common.ErrNotFound)
		}
		cur.Position = &pos
		cur.Updated = models.NextStamp(s.now(), cur.Updated)
		cur.PendingSync = true
		return cur, nil
	})
}

func (s *pinService) Hide(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, func(cur *models.Pin) (*models.Pin, error) {
		if cur == nil || !cur.Visible {
			return nil, fmt.Errorf("pin %s: %w", id, common.ErrNotFound)
		}
		cur.Visible = false
		cur.Updated = models.NextStamp(s.now(), cur.Updated)
		cur.PendingSync = true
		return cur, nil
	})
	return err
}

func (s *pinService) mutate(ctx context.Context, id string, fn func(cur *models.Pin) (*models.Pin, error)) (models.Pin, error) {
	p, err := s.store.Update(ctx, id, fn)
	if err != nil {
		return models.Pin{}, err
	}
	s.notes.Publish(ctx, *p)
	s.sched.Request(scheduler.Push)
	return *p, nil
}

func (s *pinService) Get(ctx context.Context, id string) (models.Pin, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Pin{}, err
	}
	if p == nil {
		return models.Pin{}, fmt.Errorf("pin %s: %w", id, common.ErrNotFound)
	}
	return *p, nil
}

func (s *pinService) List(ctx context.Context) ([]models.Pin, error) {
	return s.store.Scan(ctx, func(p models.Pin) bool { return p.Visible })
}

func (s *pinService) Subscribe() (<-chan models.Pin, func()) {
	return s.notes.Subscribe()
}
