// Package store contains place persistence. Each backend implements
// domain.PlaceRepository; Open picks one from configuration.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bitebook/backend/internal/domain"
)

// Drivers accepted by Open
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects and configures the place store
type Config struct {
	Driver string
	DSN    string
	// AutoMigrate applies pending migrations when the store is opened
	AutoMigrate bool
}

// Store is a PlaceRepository that owns a connection
type Store interface {
	domain.PlaceRepository
	Close() error
}

// Open connects to the configured backend
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Driver) {
	case "", DriverMemory:
		logger.Info("using in-memory place store")
		return NewMemoryStore(), nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, cfg.DSN, cfg.AutoMigrate)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to postgres place store")
		return s, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.DSN, cfg.AutoMigrate)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite place store", zap.String("path", cfg.DSN))
		return s, nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func encodeHours(hours map[string][]domain.OpeningPeriod) (*string, error) {
	if hours == nil {
		return nil, nil
	}
	b, err := json.Marshal(hours)
	if err != nil {
		return nil, fmt.Errorf("encode opening hours: %w", err)
	}
	s := string(b)
	return &s, nil
}

func decodeHours(raw []byte) (map[string][]domain.OpeningPeriod, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var hours map[string][]domain.OpeningPeriod
	if err := json.Unmarshal(raw, &hours); err != nil {
		return nil, fmt.Errorf("decode opening hours: %w", err)
	}
	return hours, nil
}

func categoryValue(c *domain.Category) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func categoryPtr(s *string) *domain.Category {
	if s == nil || *s == "" {
		return nil
	}
	c := domain.Category(*s)
	return &c
}
