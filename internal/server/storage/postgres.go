package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/pinsync/internal/dbx"
	"github.com/dmitrijs2005/pinsync/internal/models"
	"github.com/dmitrijs2005/pinsync/internal/server/migrations"
)

// PostgresStore keeps one row per pin and rewrites the table inside a
// single transaction on Save.
type PostgresStore struct {
	db *sql.DB
}

// runMigrations is a seam for tests.
var runMigrations = func(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Migrations)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// OpenPostgres connects through the pgx stdlib driver and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(ctx, db)
}

func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]models.Pin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, owner, lat, lng, updated, visible FROM pins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load pins: %w", err)
	}
	defer rows.Close()

	var out []models.Pin
	for rows.Next() {
		var (
			p   models.Pin
			pos models.LatLng
		)
		if err := rows.Scan(&p.ID, &p.Owner, &pos.Lat, &pos.Lng, &p.Updated, &p.Visible); err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		p.Position = &pos
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pins: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, pins []models.Pin) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pins`); err != nil {
			return fmt.Errorf("failed to clear pins: %w", err)
		}
		for _, p := range pins {
			var pos models.LatLng
			if p.Position != nil {
				pos = *p.Position
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pins (id, owner, lat, lng, updated, visible) VALUES ($1, $2, $3, $4, $5, $6)`,
				p.ID, p.Owner, pos.Lat, pos.Lng, p.Updated, p.Visible,
			); err != nil {
				return fmt.Errorf("failed to insert pin[%s]: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
