package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bitebook/backend/internal/domain"
	"github.com/bitebook/backend/internal/infrastructure/places"
	"github.com/bitebook/backend/internal/metrics"
)

// closedMarker is the business-status substring that marks a venue as closed
const closedMarker = "CLOSED"

// PlaceServiceConfig holds configuration for the place service
type PlaceServiceConfig struct {
	// EnrichOnAdd fetches provider details before the first persist when a
	// provider id is supplied on creation
	EnrichOnAdd bool
	// OverwriteClosedStatus lets provider business status replace a stored
	// closure flag. When false only an unknown flag is filled in.
	OverwriteClosedStatus bool
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// PlaceService orchestrates place CRUD and provider enrichment with caching
type PlaceService struct {
	store    domain.PlaceRepository
	cache    domain.CacheRepository
	provider domain.PlaceProvider
	config   PlaceServiceConfig
	flight   singleflight.Group
	locks    *keyLock
	logger   *zap.Logger
}

// NewPlaceService creates a new place service with dependencies
func NewPlaceService(
	store domain.PlaceRepository,
	cache domain.CacheRepository,
	provider domain.PlaceProvider,
	config PlaceServiceConfig,
	logger *zap.Logger,
) *PlaceService {
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PlaceService{
		store:    store,
		cache:    cache,
		provider: provider,
		config:   config,
		locks:    newKeyLock(),
		logger:   logger.Named("places"),
	}
}

// GetPlace returns the place enriched with live provider data.
// Flow: places cache -> store -> provider details (cached) -> merge -> cache -> return.
// Concurrent calls for the same id share one enrichment.
func (s *PlaceService) GetPlace(ctx context.Context, rawID string) (*domain.Place, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cachedPlace(ctx, id); ok {
		return cached, nil
	}

	key := id.String()
	for attempt := 0; ; attempt++ {
		ch := s.flight.DoChan(key, func() (any, error) {
			return s.enrich(ctx, id)
		})

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("usecase.PlaceService.GetPlace: %w", ctx.Err())
		case res := <-ch:
			if res.Err != nil {
				// the shared flight ran on another caller's context; retry once on ours
				if attempt == 0 && ctx.Err() == nil && isContextError(res.Err) {
					continue
				}
				return nil, res.Err
			}
			return res.Val.(*domain.Place).Clone(), nil
		}
	}
}

// enrich loads the place, resolves provider details and returns the merged copy
func (s *PlaceService) enrich(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	place, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase.PlaceService.GetPlace: %w", err)
	}

	var details *domain.ProviderDetails
	if place.HasProviderID() {
		details, err = s.detailsByProviderID(ctx, *place.ProviderID)
	} else {
		place, details, err = s.resolveIdentity(ctx, place)
	}
	if err != nil {
		return nil, fmt.Errorf("usecase.PlaceService.GetPlace: %w", err)
	}

	enriched := place.Clone()
	s.mergeContact(enriched, details)
	s.applyClosure(enriched, details.BusinessStatus)
	if details.Schedule != nil {
		hours, err := places.NormalizeOpeningHours(details.Schedule)
		if err != nil {
			return nil, fmt.Errorf("usecase.PlaceService.GetPlace: %w", err)
		}
		enriched.OpeningHours = hours
	}

	s.putCache(ctx, domain.CachePlaces, id.String(), enriched.Clone())
	return enriched, nil
}

// detailsByProviderID reads placeDetails[providerID], fetching on a miss
func (s *PlaceService) detailsByProviderID(ctx context.Context, providerID string) (*domain.ProviderDetails, error) {
	if cached, ok := s.cachedDetails(ctx, providerID); ok {
		return cached, nil
	}

	details, err := s.provider.FetchByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	s.putCache(ctx, domain.CachePlaceDetails, providerID, details.Clone())
	return details, nil
}

// resolveIdentity finds the provider record for a place that has no provider id
// by searching its name, then durably records the match. The search result is
// cached under the place id until the write succeeds so a failed persist does
// not cost a second search.
func (s *PlaceService) resolveIdentity(ctx context.Context, place *domain.Place) (*domain.Place, *domain.ProviderDetails, error) {
	key := place.ID.String()

	details, ok := s.cachedDetails(ctx, key)
	if !ok {
		results, err := s.provider.SearchByName(ctx, place.Name)
		if err != nil {
			return nil, nil, err
		}
		if len(results) == 0 || results[0].ProviderID == "" {
			return nil, nil, fmt.Errorf("%w for %q", domain.ErrNoProviderMatch, place.Name)
		}
		details = &results[0]
		s.putCache(ctx, domain.CachePlaceDetails, key, details.Clone())
	}

	resolved, err := s.persistIdentity(ctx, place.ID, details)
	if err != nil {
		return nil, nil, err
	}

	s.evictCache(ctx, domain.CachePlaceDetails, key)
	metrics.IdentityResolutions.Inc()
	s.logger.Info("resolved provider identity",
		zap.String("place_id", key),
		zap.String("provider_id", details.ProviderID))
	return resolved, details, nil
}

// persistIdentity re-reads the place under its lock and writes the provider
// identity in a single save.
func (s *PlaceService) persistIdentity(ctx context.Context, id uuid.UUID, details *domain.ProviderDetails) (*domain.Place, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !current.HasProviderID() {
		providerID := details.ProviderID
		current.ProviderID = &providerID
	}
	s.mergeContact(current, details)
	s.applyClosure(current, details.BusinessStatus)
	current.LastUpdatedAt = s.config.Now().UTC()

	saved, err := s.store.Save(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("persist provider identity: %w", err)
	}
	return saved, nil
}

// mergeContact copies address and website. Empty provider values never
// clear what is already stored.
func (s *PlaceService) mergeContact(place *domain.Place, details *domain.ProviderDetails) {
	if details.FormattedAddress != "" {
		place.FullAddress = details.FormattedAddress
	}
	if details.Website != "" {
		place.Website = details.Website
	}
}

// applyClosure derives the closure flag from the provider business status
func (s *PlaceService) applyClosure(place *domain.Place, status string) {
	if status == "" {
		return
	}
	if place.IsPermanentlyClosed != nil && !s.config.OverwriteClosedStatus {
		return
	}
	closed := strings.Contains(status, closedMarker)
	place.IsPermanentlyClosed = &closed
}

// AddPlace validates the request, optionally enriches it and persists a new place
func (s *PlaceService) AddPlace(ctx context.Context, req *domain.AddPlaceRequest) (*domain.Place, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", domain.ErrInvalidArgument)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	category, err := ParseCategory(req.Type)
	if err != nil {
		return nil, err
	}
	visited, err := ParseVisited(req.Visited)
	if err != nil {
		return nil, err
	}

	now := s.config.Now().UTC()
	place := &domain.Place{
		ID:            uuid.New(),
		Name:          name,
		Cuisine:       strings.TrimSpace(req.Cuisine),
		Category:      category,
		LocationText:  strings.TrimSpace(req.Location),
		InfluenceText: strings.TrimSpace(req.Influence),
		Notes:         req.Notes,
		Rating:        req.Rating,
		Website:       strings.TrimSpace(req.Website),
		SocialMedia:   strings.TrimSpace(req.SocialMedia),
		Visited:       visited,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if providerID := strings.TrimSpace(req.ProviderID); providerID != "" {
		place.ProviderID = &providerID
		if s.config.EnrichOnAdd {
			if err := s.enrichNew(ctx, place, providerID); err != nil {
				return nil, fmt.Errorf("usecase.PlaceService.AddPlace: %w", err)
			}
		}
	}

	saved, err := s.store.Save(ctx, place)
	if err != nil {
		return nil, fmt.Errorf("usecase.PlaceService.AddPlace: %w", err)
	}

	s.logger.Info("place added", zap.String("place_id", saved.ID.String()), zap.String("name", saved.Name))
	return saved, nil
}

// enrichNew fills a not-yet-persisted place from the provider. Opening hours
// are only taken for venues that are not closed.
func (s *PlaceService) enrichNew(ctx context.Context, place *domain.Place, providerID string) error {
	details, err := s.provider.FetchByID(ctx, providerID)
	if err != nil {
		return err
	}

	s.applyClosure(place, details.BusinessStatus)
	s.mergeContact(place, details)
	closed := place.IsPermanentlyClosed != nil && *place.IsPermanentlyClosed
	if !closed && details.Schedule != nil {
		hours, err := places.NormalizeOpeningHours(details.Schedule)
		if err != nil {
			return err
		}
		place.OpeningHours = hours
	}

	s.putCache(ctx, domain.CachePlaceDetails, providerID, details.Clone())
	return nil
}

// UpdatePlace replaces rating and notes and marks the place visited
func (s *PlaceService) UpdatePlace(ctx context.Context, rawID string, req *domain.UpdatePlaceRequest) (*domain.Place, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &domain.UpdatePlaceRequest{}
	}

	unlock := s.locks.Lock(id.String())
	defer unlock()

	place, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase.PlaceService.UpdatePlace: %w", err)
	}

	visited := true
	place.Rating = req.Rating
	place.Notes = req.Notes
	place.Visited = &visited
	place.LastUpdatedAt = s.config.Now().UTC()

	saved, err := s.store.Save(ctx, place)
	if err != nil {
		return nil, fmt.Errorf("usecase.PlaceService.UpdatePlace: %w", err)
	}

	s.evictCache(ctx, domain.CachePlaces, id.String())
	return saved, nil
}

// DeletePlace removes the place. Unknown ids are not an error.
func (s *PlaceService) DeletePlace(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("usecase.PlaceService.DeletePlace: %w", err)
	}
	s.evictCache(ctx, domain.CachePlaces, id.String())
	return nil
}

// ResolveFailure records why a single pending place could not be resolved
type ResolveFailure struct {
	PlaceID uuid.UUID
	Err     error
}

// ResolveError reports the places a resolution pass could not resolve
type ResolveError struct {
	Failures []ResolveFailure
}

func (e *ResolveError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, fmt.Sprintf("%s: %v", f.PlaceID, f.Err))
	}
	return fmt.Sprintf("%d places not resolved: %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *ResolveError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// ResolvePending enriches every stored place whose provider identity is still
// unknown. It keeps going past individual failures, which are returned as a
// *ResolveError alongside the number of places resolved.
func (s *PlaceService) ResolvePending(ctx context.Context) (int, error) {
	all, err := s.store.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("usecase.PlaceService.ResolvePending: %w", err)
	}

	var (
		resolved int
		failures []ResolveFailure
	)
	for _, p := range all {
		if p.HasProviderID() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return resolved, fmt.Errorf("usecase.PlaceService.ResolvePending: %w", err)
		}

		// a cached snapshot would skip the store and provider entirely
		s.evictCache(ctx, domain.CachePlaces, p.ID.String())
		if _, err := s.GetPlace(ctx, p.ID.String()); err != nil {
			s.logger.Warn("pending place not resolved", zap.String("place_id", p.ID.String()), zap.Error(err))
			failures = append(failures, ResolveFailure{PlaceID: p.ID, Err: err})
			continue
		}
		resolved++
	}

	if len(failures) > 0 {
		return resolved, &ResolveError{Failures: failures}
	}
	return resolved, nil
}

func (s *PlaceService) cachedPlace(ctx context.Context, id uuid.UUID) (*domain.Place, bool) {
	value, ok := s.getCache(ctx, domain.CachePlaces, id.String())
	if !ok {
		return nil, false
	}
	place, ok := value.(*domain.Place)
	if !ok || place == nil {
		return nil, false
	}
	return place.Clone(), true
}

func (s *PlaceService) cachedDetails(ctx context.Context, key string) (*domain.ProviderDetails, bool) {
	value, ok := s.getCache(ctx, domain.CachePlaceDetails, key)
	if !ok {
		return nil, false
	}
	details, ok := value.(*domain.ProviderDetails)
	if !ok || details == nil {
		return nil, false
	}
	return details.Clone(), true
}

// getCache treats every cache failure as a miss
func (s *PlaceService) getCache(ctx context.Context, name, key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, err := s.cache.Get(ctx, name, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.String("cache", name), zap.String("key", key), zap.Error(err))
		}
		metrics.CacheLookups.WithLabelValues(name, "miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues(name, "hit").Inc()
	return value, true
}

func (s *PlaceService) putCache(ctx context.Context, name, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, name, key, value); err != nil {
		s.logger.Warn("cache write failed", zap.String("cache", name), zap.String("key", key), zap.Error(err))
	}
}

func (s *PlaceService) evictCache(ctx context.Context, name, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, name, key); err != nil {
		s.logger.Warn("cache evict failed", zap.String("cache", name), zap.String("key", key), zap.Error(err))
	}
}

// ParseCategory parses free-text category input. Blank input means no category.
func ParseCategory(raw string) (*domain.Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	c := domain.Category(strings.ToUpper(raw))
	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidArgument, raw)
	}
	return &c, nil
}

// ParseVisited parses a free-text visited flag. Blank input means unknown.
func ParseVisited(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: visited must be true or false, got %q", domain.ErrInvalidArgument, raw)
	}
	return &v, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid place id %q", domain.ErrInvalidArgument, raw)
	}
	return id, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
