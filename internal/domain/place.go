package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category is the closed set of place kinds a user can track
type Category string

const (
	CategoryRestaurant Category = "RESTAURANT"
	CategoryBar        Category = "BAR"
	CategoryCafe       Category = "CAFE"
)

// Categories lists every valid category in display order
var Categories = []Category{CategoryRestaurant, CategoryBar, CategoryCafe}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Weekdays indexes weekday names by the provider's day number (0 = Sunday)
var Weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// OpeningPeriod is a single open interval within a day.
// A zero close time marks a period with no reported closing time.
type OpeningPeriod struct {
	OpenHour    int `json:"openHour"`
	OpenMinute  int `json:"openMinute"`
	CloseHour   int `json:"closeHour"`
	CloseMinute int `json:"closeMinute"`
}

// Place is a user-tracked venue
type Place struct {
	ID                  uuid.UUID                  `json:"id"`
	Name                string                     `json:"name"`
	Cuisine             string                     `json:"cuisine,omitempty"`
	Category            *Category                  `json:"category,omitempty"`
	LocationText        string                     `json:"location,omitempty"`
	InfluenceText       string                     `json:"influence,omitempty"`
	Notes               string                     `json:"notes,omitempty"`
	Rating              *float64                   `json:"rating,omitempty"`
	Website             string                     `json:"website,omitempty"`
	SocialMedia         string                     `json:"socialMedia,omitempty"`
	ProviderID          *string                    `json:"providerId,omitempty"`
	FullAddress         string                     `json:"fullAddress,omitempty"`
	IsPermanentlyClosed *bool                      `json:"isPermanentlyClosed,omitempty"`
	Visited             *bool                      `json:"visited,omitempty"`
	OpeningHours        map[string][]OpeningPeriod `json:"openingHours"`
	CreatedAt           time.Time                  `json:"createdAt"`
	LastUpdatedAt       time.Time                  `json:"lastUpdatedAt"`
}

// HasProviderID reports whether the place's provider identity has been resolved
func (p *Place) HasProviderID() bool {
	return p.ProviderID != nil && *p.ProviderID != ""
}

// Clone returns a deep copy so cached snapshots are never shared with callers
func (p *Place) Clone() *Place {
	if p == nil {
		return nil
	}
	c := *p
	c.Category = clonePtr(p.Category)
	c.Rating = clonePtr(p.Rating)
	c.ProviderID = clonePtr(p.ProviderID)
	c.IsPermanentlyClosed = clonePtr(p.IsPermanentlyClosed)
	c.Visited = clonePtr(p.Visited)
	c.OpeningHours = CloneOpeningHours(p.OpeningHours)
	return &c
}

// CloneOpeningHours deep-copies an opening hours map
func CloneOpeningHours(hours map[string][]OpeningPeriod) map[string][]OpeningPeriod {
	if hours == nil {
		return nil
	}
	out := make(map[string][]OpeningPeriod, len(hours))
	for day, periods := range hours {
		out[day] = append([]OpeningPeriod(nil), periods...)
	}
	return out
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// AddPlaceRequest is the free-text payload used to create a place
type AddPlaceRequest struct {
	Name        string   `json:"name"`
	Cuisine     string   `json:"cuisine,omitempty"`
	Type        string   `json:"type,omitempty"`
	Location    string   `json:"location,omitempty"`
	Influence   string   `json:"influence,omitempty"`
	Visited     string   `json:"visited,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Website     string   `json:"website,omitempty"`
	SocialMedia string   `json:"socialMedia,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ProviderID  string   `json:"providerId,omitempty"`
}

// UpdatePlaceRequest carries the user-editable fields of a visited place
type UpdatePlaceRequest struct {
	Rating *float64 `json:"rating,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}
