package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bitebook/backend/internal/domain"
)

// db is satisfied by *pgxpool.Pool and pgx.Tx, so tests can run inside a
// transaction that is rolled back afterwards.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const placeColumns = `id, name, cuisine, category, location_text, influence_text, notes,
	rating, website, social_media, provider_id, full_address, is_permanently_closed,
	visited, opening_hours, created_at, last_updated_at`

// PostgresStore persists places in Postgres
type PostgresStore struct {
	db   db
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection or transaction
func NewPostgresStore(db db) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects a pool to dsn and optionally migrates the schema
func OpenPostgres(ctx context.Context, dsn string, migrate bool) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store.OpenPostgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store.OpenPostgres: ping: %w", err)
	}

	if migrate {
		sqlDB := stdlib.OpenDBFromPool(pool)
		_, err := Migrate(ctx, DriverPostgres, sqlDB)
		sqlDB.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &PostgresStore{db: pool, pool: pool}, nil
}

// FindByID retrieves a place by primary key
func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	q := `SELECT ` + placeColumns + ` FROM places WHERE id = @id`

	p, err := scanPlace(s.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("store.PostgresStore.FindByID: %w", err)
	}
	return p, nil
}

// FindAll returns every place ordered by creation time
func (s *PostgresStore) FindAll(ctx context.Context) ([]domain.Place, error) {
	q := `SELECT ` + placeColumns + ` FROM places ORDER BY created_at, id`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store.PostgresStore.FindAll: %w", err)
	}
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("store.PostgresStore.FindAll: scan: %w", err)
		}
		places = append(places, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.PostgresStore.FindAll: rows: %w", err)
	}
	return places, nil
}

// Save upserts the full place row
func (s *PostgresStore) Save(ctx context.Context, place *domain.Place) (*domain.Place, error) {
	if place == nil {
		return nil, fmt.Errorf("store.PostgresStore.Save: %w: nil place", domain.ErrInvalidArgument)
	}
	hours, err := encodeHours(place.OpeningHours)
	if err != nil {
		return nil, fmt.Errorf("store.PostgresStore.Save: %w", err)
	}

	q := `
		INSERT INTO places (` + placeColumns + `)
		VALUES (@id, @name, @cuisine, @category, @location_text, @influence_text, @notes,
		        @rating, @website, @social_media, @provider_id, @full_address, @is_permanently_closed,
		        @visited, @opening_hours::jsonb, @created_at, @last_updated_at)
		ON CONFLICT (id) DO UPDATE SET
		    name                  = EXCLUDED.name,
		    cuisine               = EXCLUDED.cuisine,
		    category              = EXCLUDED.category,
		    location_text         = EXCLUDED.location_text,
		    influence_text        = EXCLUDED.influence_text,
		    notes                 = EXCLUDED.notes,
		    rating                = EXCLUDED.rating,
		    website               = EXCLUDED.website,
		    social_media          = EXCLUDED.social_media,
		    provider_id           = EXCLUDED.provider_id,
		    full_address          = EXCLUDED.full_address,
		    is_permanently_closed = EXCLUDED.is_permanently_closed,
		    visited               = EXCLUDED.visited,
		    opening_hours         = EXCLUDED.opening_hours,
		    last_updated_at       = EXCLUDED.last_updated_at
		RETURNING ` + placeColumns

	args := pgx.NamedArgs{
		"id":                    place.ID,
		"name":                  place.Name,
		"cuisine":               place.Cuisine,
		"category":              categoryValue(place.Category), // nil becomes NULL
		"location_text":         place.LocationText,
		"influence_text":        place.InfluenceText,
		"notes":                 place.Notes,
		"rating":                place.Rating,
		"website":               place.Website,
		"social_media":          place.SocialMedia,
		"provider_id":           place.ProviderID,
		"full_address":          place.FullAddress,
		"is_permanently_closed": place.IsPermanentlyClosed,
		"visited":               place.Visited,
		"opening_hours":         hours,
		"created_at":            place.CreatedAt,
		"last_updated_at":       place.LastUpdatedAt,
	}

	saved, err := scanPlace(s.db.QueryRow(ctx, q, args))
	if err != nil {
		return nil, fmt.Errorf("store.PostgresStore.Save: %w", err)
	}
	return saved, nil
}

// DeleteByID removes a place. Missing rows are not an error.
func (s *PostgresStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM places WHERE id = @id`, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("store.PostgresStore.DeleteByID: %w", err)
	}
	return nil
}

// Close releases the pool when the store owns one
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlace(s scanner) (*domain.Place, error) {
	var (
		p        domain.Place
		id       pgtype.UUID
		category *string
		hours    []byte
		created  time.Time
		updated  time.Time
	)

	err := s.Scan(&id, &p.Name, &p.Cuisine, &category, &p.LocationText, &p.InfluenceText, &p.Notes,
		&p.Rating, &p.Website, &p.SocialMedia, &p.ProviderID, &p.FullAddress, &p.IsPermanentlyClosed,
		&p.Visited, &hours, &created, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	p.ID = uuid.UUID(id.Bytes)
	p.Category = categoryPtr(category)
	p.CreatedAt = created.UTC()
	p.LastUpdatedAt = updated.UTC()
	if p.OpeningHours, err = decodeHours(hours); err != nil {
		return nil, err
	}
	return &p, nil
}
