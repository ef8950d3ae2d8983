package domain

import (
	"context"

	"github.com/google/uuid"
)

// Cache names used by the enrichment layer
const (
	CachePlaces       = "places"
	CachePlaceDetails = "placeDetails"
)

// CacheRepository defines the interface for named, best-effort caches.
// TTL and capacity are properties of the implementation.
type CacheRepository interface {
	Get(ctx context.Context, cache, key string) (any, error)
	Set(ctx context.Context, cache, key string, value any) error
	Delete(ctx context.Context, cache, key string) error
}

// PlaceProvider defines the interface for the external place-information service
type PlaceProvider interface {
	FetchByID(ctx context.Context, providerID string) (*ProviderDetails, error)
	SearchByName(ctx context.Context, text string) ([]ProviderDetails, error)
}

// PlaceRepository defines the interface for place persistence
type PlaceRepository interface {
	// FindByID returns ErrNotFound when no place has the given id.
	FindByID(ctx context.Context, id uuid.UUID) (*Place, error)
	FindAll(ctx context.Context) ([]Place, error)
	// Save inserts or fully replaces the place.
	Save(ctx context.Context, place *Place) (*Place, error)
	// DeleteByID is a no-op when the place does not exist.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}
