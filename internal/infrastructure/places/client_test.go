package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitebook/backend/internal/domain"
)

func newTestClient(t *testing.T, server *httptest.Server, apiKey string) *Client {
	t.Helper()
	client := NewClient(Config{
		APIKey:    apiKey,
		BaseURL:   server.URL + "/v1/places",
		SearchURL: server.URL + "/v1/places:searchText",
	}, nil)
	client.backoffBase = time.Millisecond
	return client
}

func samplePlace() placeResponse {
	return placeResponse{
		ID:                  "ChIJ-sample",
		DisplayName:         &localizedText{Text: "Chat Thai"},
		FormattedAddress:    "20 Campbell St, Haymarket NSW 2000",
		NationalPhoneNumber: "(02) 9211 1808",
		WebsiteURI:          "https://chatthai.com.au",
		BusinessStatus:      "OPERATIONAL",
		Types:               []string{"thai_restaurant", "restaurant"},
		RegularOpeningHours: &openingHoursResponse{
			Periods: []periodResponse{
				{Open: &pointResponse{Day: 1, Hour: 11}, Close: &pointResponse{Day: 1, Hour: 22}},
			},
		},
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{APIKey: " test-api-key "}, nil)

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultSearchURL, client.searchURL)
	assert.Equal(t, DefaultMaxAttempts, client.maxAttempts)
	assert.Equal(t, DefaultConnectTimeout+DefaultReadTimeout, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
}

func TestExponentialBackoff(t *testing.T) {
	client := NewClient(Config{}, nil)

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, client.exponentialBackoff(tt.attempt))
		})
	}
}

func TestFetchByID_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/places/ChIJ-sample", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "regularOpeningHours")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(samplePlace())
	}))
	defer server.Close()

	client := newTestClient(t, server, "test-api-key")

	details, err := client.FetchByID(context.Background(), "ChIJ-sample")

	require.NoError(t, err)
	assert.Equal(t, "ChIJ-sample", details.ProviderID)
	assert.Equal(t, "Chat Thai", details.Name)
	assert.Equal(t, "20 Campbell St, Haymarket NSW 2000", details.FormattedAddress)
	assert.Equal(t, "https://chatthai.com.au", details.Website)
	assert.Equal(t, "OPERATIONAL", details.BusinessStatus)
	require.NotNil(t, details.Schedule)
	assert.Len(t, details.Schedule.Periods, 1)
}

func TestFetchByID_NoAPIKey(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := newTestClient(t, server, "")

	_, err := client.FetchByID(context.Background(), "ChIJ-sample")
	assert.ErrorIs(t, err, domain.ErrProviderUnauthenticated)

	_, err = client.SearchByName(context.Background(), "Chat Thai")
	assert.ErrorIs(t, err, domain.ErrProviderUnauthenticated)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no request may be sent without a key")
}

func TestFetchByID_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server, "test-api-key")

	result, err := client.FetchByID(context.Background(), "missing")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchByID_Forbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server, "bad-key")

	_, err := client.FetchByID(context.Background(), "ChIJ-sample")
	assert.ErrorIs(t, err, domain.ErrProviderUnauthenticated)
}

func TestFetchByID_ServerError_Retries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(samplePlace())
	}))
	defer server.Close()

	client := newTestClient(t, server, "test-api-key")

	details, err := client.FetchByID(context.Background(), "ChIJ-sample")

	require.NoError(t, err)
	assert.Equal(t, "ChIJ-sample", details.ProviderID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestFetchByID_ServerError_GivesUp(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server, "test-api-key")

	_, err := client.FetchByID(context.Background(), "ChIJ-sample")

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, int32(DefaultMaxAttempts), atomic.LoadInt32(&attempts))
}

func TestFetchByID_BadRequestNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid id"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, "test-api-key")

	_, err := client.FetchByID(context.Background(), "bad id")

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestFetchByID_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, server, "test-api-key")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.FetchByID(ctx, "ChIJ-sample")

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second, "cancellation should abort the call promptly")
}

func TestSearchByName_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/places:searchText", r.URL.Path)
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.id")

		var body searchTextRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Chat Thai Sydney", body.TextQuery)

		second := samplePlace()
		second.ID = "ChIJ-second"
		json.NewEncoder(w).Encode(searchTextResponse{Places: []placeResponse{samplePlace(), second}})
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:       "test-api-key",
		SearchURL:    server.URL + "/v1/places:searchText",
		SearchSuffix: "Sydney",
	}, nil)

	results, err := client.SearchByName(context.Background(), "Chat Thai")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ChIJ-sample", results[0].ProviderID)
	assert.Equal(t, "ChIJ-second", results[1].ProviderID)
}

func TestSearchByName_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, "test-api-key")

	results, err := client.SearchByName(context.Background(), "nowhere")

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchByName_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{invalid`))
	}))
	defer server.Close()

	client := newTestClient(t, server, "test-api-key")

	_, err := client.SearchByName(context.Background(), "Chat Thai")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
