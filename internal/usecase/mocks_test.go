package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bitebook/backend/internal/domain"
)

// MockPlaceRepository is an in-memory domain.PlaceRepository with error injection
type MockPlaceRepository struct {
	mu        sync.Mutex
	places    map[uuid.UUID]*domain.Place
	findError error
	saveError error
	saveCalls int
}

func NewMockPlaceRepository(places ...*domain.Place) *MockPlaceRepository {
	m := &MockPlaceRepository{places: make(map[uuid.UUID]*domain.Place)}
	for _, p := range places {
		m.places[p.ID] = p.Clone()
	}
	return m
}

func (m *MockPlaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findError != nil {
		return nil, m.findError
	}
	p, ok := m.places[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MockPlaceRepository) FindAll(ctx context.Context) ([]domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findError != nil {
		return nil, m.findError
	}
	out := make([]domain.Place, 0, len(m.places))
	for _, p := range m.places {
		out = append(out, *p.Clone())
	}
	return out, nil
}

func (m *MockPlaceRepository) Save(ctx context.Context, place *domain.Place) (*domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveError != nil {
		return nil, m.saveError
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.places[place.ID] = place.Clone()
	return place.Clone(), nil
}

func (m *MockPlaceRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.places, id)
	return nil
}

func (m *MockPlaceRepository) stored(id uuid.UUID) *domain.Place {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.places[id].Clone()
}

func (m *MockPlaceRepository) saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu          sync.Mutex
	data        map[string]any
	getError    error
	setError    error
	deleteError error
	deleted     []string
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string]any)}
}

func cacheKey(cache, key string) string { return cache + "/" + key }

func (m *MockCacheRepository) Get(ctx context.Context, cache, key string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[cacheKey(cache, key)]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, cache, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setError != nil {
		return m.setError
	}
	m.data[cacheKey(cache, key)] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, cache, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, cacheKey(cache, key))
	if m.deleteError != nil {
		return m.deleteError
	}
	delete(m.data, cacheKey(cache, key))
	return nil
}

func (m *MockCacheRepository) has(cache, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[cacheKey(cache, key)]
	return ok
}

func (m *MockCacheRepository) wasDeleted(cache, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.deleted {
		if k == cacheKey(cache, key) {
			return true
		}
	}
	return false
}

// StubProvider is a domain.PlaceProvider that counts calls
type StubProvider struct {
	details     map[string]*domain.ProviderDetails
	fetchError  error
	results     []domain.ProviderDetails
	searchError error
	// searchFn overrides results/searchError when set
	searchFn func(ctx context.Context, call int32, text string) ([]domain.ProviderDetails, error)

	fetchCalls  int32
	searchCalls int32
}

func NewStubProvider() *StubProvider {
	return &StubProvider{details: make(map[string]*domain.ProviderDetails)}
}

func (p *StubProvider) FetchByID(ctx context.Context, providerID string) (*domain.ProviderDetails, error) {
	atomic.AddInt32(&p.fetchCalls, 1)
	if p.fetchError != nil {
		return nil, p.fetchError
	}
	d, ok := p.details[providerID]
	if !ok {
		return nil, domain.ErrNoProviderMatch
	}
	return d.Clone(), nil
}

func (p *StubProvider) SearchByName(ctx context.Context, text string) ([]domain.ProviderDetails, error) {
	call := atomic.AddInt32(&p.searchCalls, 1)
	if p.searchFn != nil {
		return p.searchFn(ctx, call, text)
	}
	if p.searchError != nil {
		return nil, p.searchError
	}
	out := make([]domain.ProviderDetails, len(p.results))
	for i := range p.results {
		out[i] = *p.results[i].Clone()
	}
	return out, nil
}

func (p *StubProvider) fetches() int32  { return atomic.LoadInt32(&p.fetchCalls) }
func (p *StubProvider) searches() int32 { return atomic.LoadInt32(&p.searchCalls) }

// blockUntilDone mimics the provider client's behaviour when the caller's
// context ends mid-request
func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, ctx.Err())
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func ptr[T any](v T) *T { return &v }
