package pins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/pinsync/internal/dbx"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

// SQLiteRepository serializes writes through mu; the database is owned by
// one client process.
type SQLiteRepository struct {
	db dbx.DBTX
	mu sync.Mutex
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, owner, has_position, lat, lng, updated, visible, pending, synced_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPin(s rowScanner) (models.Pin, error) {
	var (
		p           models.Pin
		hasPosition bool
		lat, lng    float64
	)
	if err := s.Scan(&p.ID, &p.Owner, &hasPosition, &lat, &lng, &p.Updated, &p.Visible, &p.PendingSync, &p.SyncedAt); err != nil {
		return models.Pin{}, err
	}
	if hasPosition {
		p.Position = &models.LatLng{Lat: lat, Lng: lng}
	}
	return p, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Pin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM pins WHERE id = ?`, id)
	p, err := scanPin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pin[%s]: %w", id, err)
	}
	return &p, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, p *models.Pin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.put(ctx, p)
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, fn func(cur *models.Pin) (*models.Pin, error)) (*models.Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(cur)
	if err != nil || next == nil {
		return nil, err
	}
	if next.ID != id {
		return nil, fmt.Errorf("update pin[%s]: id changed to %q", id, next.ID)
	}
	if err := r.put(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (r *SQLiteRepository) put(ctx context.Context, p *models.Pin) error {
	var lat, lng float64
	hasPosition := p.Position != nil
	if hasPosition {
		lat, lng = p.Position.Lat, p.Position.Lng
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pins (id, owner, has_position, lat, lng, updated, visible, pending, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner        = excluded.owner,
			has_position = excluded.has_position,
			lat          = excluded.lat,
			lng          = excluded.lng,
			updated      = excluded.updated,
			visible      = excluded.visible,
			pending      = excluded.pending,
			synced_at    = excluded.synced_at
	`, p.ID, p.Owner, hasPosition, lat, lng, p.Updated, p.Visible, p.PendingSync, p.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to put pin[%s]: %w", p.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Scan(ctx context.Context, keep func(models.Pin) bool) ([]models.Pin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM pins ORDER BY updated, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pins: %w", err)
	}
	defer rows.Close()

	var all []models.Pin
	for rows.Next() {
		p, err := scanPin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pin row: %w", err)
		}
		all = append(all, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pin rows: %w", err)
	}

	if keep == nil {
		return all, nil
	}
	out := all[:0]
	for _, p := range all {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `DELETE FROM pins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pin[%s]: %w", id, err)
	}
	return nil
}
