package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a caller-supplied value cannot be parsed
	// (malformed id, unknown category, bad visited flag)
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a place does not exist in the store
	ErrNotFound = errors.New("not found")

	// ErrNoProviderMatch is returned when a name search yields no results.
	// It wraps ErrNotFound so callers can treat both the same way.
	ErrNoProviderMatch = fmt.Errorf("%w: no matching external record", ErrNotFound)

	// ErrProviderUnavailable is returned when a provider request fails
	ErrProviderUnavailable = errors.New("place provider unavailable")

	// ErrProviderUnauthenticated is returned when no provider API key is configured
	ErrProviderUnauthenticated = errors.New("place provider credential not configured")

	// ErrMalformedSchedule is returned when provider opening hours reference an unknown weekday
	ErrMalformedSchedule = errors.New("malformed opening hours schedule")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
