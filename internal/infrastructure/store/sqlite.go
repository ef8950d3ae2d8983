package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bitebook/backend/internal/domain"
)

// timestamps are stored as fixed-width UTC text so they sort lexically
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists places in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path
func OpenSQLite(ctx context.Context, path string, migrate bool) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store.OpenSQLite: %w: empty path", domain.ErrInvalidArgument)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if migrate {
		if _, err := Migrate(ctx, DriverSQLite, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for migrations
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// FindByID retrieves a place by primary key
func (s *SQLiteStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+placeColumns+` FROM places WHERE id = ?`, id.String())
	p, err := scanSQLitePlace(row)
	if err != nil {
		return nil, fmt.Errorf("store.SQLiteStore.FindByID: %w", err)
	}
	return p, nil
}

// FindAll returns every place ordered by creation time
func (s *SQLiteStore) FindAll(ctx context.Context) ([]domain.Place, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+placeColumns+` FROM places ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("store.SQLiteStore.FindAll: %w", err)
	}
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		p, err := scanSQLitePlace(rows)
		if err != nil {
			return nil, fmt.Errorf("store.SQLiteStore.FindAll: scan: %w", err)
		}
		places = append(places, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.SQLiteStore.FindAll: rows: %w", err)
	}
	return places, nil
}

// Save upserts the full place row
func (s *SQLiteStore) Save(ctx context.Context, place *domain.Place) (*domain.Place, error) {
	if place == nil {
		return nil, fmt.Errorf("store.SQLiteStore.Save: %w: nil place", domain.ErrInvalidArgument)
	}
	hours, err := encodeHours(place.OpeningHours)
	if err != nil {
		return nil, fmt.Errorf("store.SQLiteStore.Save: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO places (`+placeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    name                  = excluded.name,
		    cuisine               = excluded.cuisine,
		    category              = excluded.category,
		    location_text         = excluded.location_text,
		    influence_text        = excluded.influence_text,
		    notes                 = excluded.notes,
		    rating                = excluded.rating,
		    website               = excluded.website,
		    social_media          = excluded.social_media,
		    provider_id           = excluded.provider_id,
		    full_address          = excluded.full_address,
		    is_permanently_closed = excluded.is_permanently_closed,
		    visited               = excluded.visited,
		    opening_hours         = excluded.opening_hours,
		    last_updated_at       = excluded.last_updated_at`,
		place.ID.String(),
		place.Name,
		place.Cuisine,
		categoryValue(place.Category),
		place.LocationText,
		place.InfluenceText,
		place.Notes,
		place.Rating,
		place.Website,
		place.SocialMedia,
		place.ProviderID,
		place.FullAddress,
		place.IsPermanentlyClosed,
		place.Visited,
		hours,
		place.CreatedAt.UTC().Format(sqliteTimeFormat),
		place.LastUpdatedAt.UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("store.SQLiteStore.Save: %w", err)
	}
	return s.FindByID(ctx, place.ID)
}

// DeleteByID removes a place. Missing rows are not an error.
func (s *SQLiteStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM places WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("store.SQLiteStore.DeleteByID: %w", err)
	}
	return nil
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanSQLitePlace(s scanner) (*domain.Place, error) {
	var (
		p        domain.Place
		id       string
		category sql.NullString
		rating   sql.NullFloat64
		provider sql.NullString
		closed   sql.NullBool
		visited  sql.NullBool
		hours    sql.NullString
		created  string
		updated  string
	)

	err := s.Scan(&id, &p.Name, &p.Cuisine, &category, &p.LocationText, &p.InfluenceText, &p.Notes,
		&rating, &p.Website, &p.SocialMedia, &provider, &p.FullAddress, &closed,
		&visited, &hours, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id %q: %w", id, err)
	}
	if category.Valid {
		p.Category = categoryPtr(&category.String)
	}
	if rating.Valid {
		p.Rating = &rating.Float64
	}
	if provider.Valid {
		p.ProviderID = &provider.String
	}
	if closed.Valid {
		p.IsPermanentlyClosed = &closed.Bool
	}
	if visited.Valid {
		p.Visited = &visited.Bool
	}
	if hours.Valid {
		if p.OpeningHours, err = decodeHours([]byte(hours.String)); err != nil {
			return nil, err
		}
	}
	if p.CreatedAt, err = time.Parse(sqliteTimeFormat, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.LastUpdatedAt, err = time.Parse(sqliteTimeFormat, updated); err != nil {
		return nil, fmt.Errorf("parse last_updated_at: %w", err)
	}
	return &p, nil
}
