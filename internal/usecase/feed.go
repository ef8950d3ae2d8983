package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitebook/backend/internal/domain"
)

// FeedAll selects every place regardless of category
const FeedAll = "ALL"

// FeedService answers list queries over the stored places
type FeedService struct {
	store domain.PlaceRepository
}

// NewFeedService creates a new feed service
func NewFeedService(store domain.PlaceRepository) *FeedService {
	return &FeedService{store: store}
}

// GetFeed returns places matching category and, when set, the visited flag.
// "ALL" (any case) returns everything unfiltered. Other categories must match
// an enum name exactly.
func (s *FeedService) GetFeed(ctx context.Context, category string, visited *bool) ([]domain.Place, error) {
	everything := strings.EqualFold(category, FeedAll)
	want := domain.Category(category)
	if !everything && !want.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidArgument, category)
	}

	all, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase.FeedService.GetFeed: %w", err)
	}
	if everything {
		return all, nil
	}

	feed := make([]domain.Place, 0, len(all))
	for _, p := range all {
		if p.Category == nil || *p.Category != want {
			continue
		}
		if visited != nil && (p.Visited == nil || *p.Visited != *visited) {
			continue
		}
		feed = append(feed, p)
	}
	return feed, nil
}
