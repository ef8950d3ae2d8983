package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bitebook/backend/internal/domain"
	"github.com/bitebook/backend/internal/usecase"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// PlaceUsecase is the place orchestration surface the handlers need
type PlaceUsecase interface {
	GetPlace(ctx context.Context, id string) (*domain.Place, error)
	AddPlace(ctx context.Context, req *domain.AddPlaceRequest) (*domain.Place, error)
	UpdatePlace(ctx context.Context, id string, req *domain.UpdatePlaceRequest) (*domain.Place, error)
	DeletePlace(ctx context.Context, id string) error
	ResolvePending(ctx context.Context) (int, error)
}

// FeedUsecase lists places
type FeedUsecase interface {
	GetFeed(ctx context.Context, category string, visited *bool) ([]domain.Place, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	places PlaceUsecase
	feed   FeedUsecase
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(places PlaceUsecase, feed FeedUsecase, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{places: places, feed: feed, logger: logger.Named("http")}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "bitebook-backend",
		"version": Version,
	})
}

// GetFeed handles GET /places/feed?type=&visited=
func (h *Handler) GetFeed(c *gin.Context) {
	category := c.DefaultQuery("type", usecase.FeedAll)

	var visited *bool
	if raw := strings.TrimSpace(c.Query("visited")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "visited must be true or false"})
			return
		}
		visited = &v
	}

	places, err := h.feed.GetFeed(c.Request.Context(), category, visited)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, places)
}

// GetPlace handles GET /places/place/:id
func (h *Handler) GetPlace(c *gin.Context) {
	place, err := h.places.GetPlace(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// AddPlace handles POST /places/add
func (h *Handler) AddPlace(c *gin.Context) {
	var req domain.AddPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	place, err := h.places.AddPlace(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, place)
}

// UpdatePlace handles POST /places/update/:id
func (h *Handler) UpdatePlace(c *gin.Context) {
	var req domain.UpdatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	place, err := h.places.UpdatePlace(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// DeletePlace handles PUT /places/delete/:id
func (h *Handler) DeletePlace(c *gin.Context) {
	if err := h.places.DeletePlace(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResolvePending handles POST /places/resolve. Places that could not be
// resolved are reported in the body rather than failing the request.
func (h *Handler) ResolvePending(c *gin.Context) {
	resolved, err := h.places.ResolvePending(c.Request.Context())

	var partial *usecase.ResolveError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"resolved": resolved, "failed": []gin.H{}})
	case errors.As(err, &partial):
		failed := make([]gin.H, 0, len(partial.Failures))
		for _, f := range partial.Failures {
			failed = append(failed, gin.H{"id": f.PlaceID, "error": f.Err.Error()})
		}
		c.JSON(http.StatusOK, gin.H{"resolved": resolved, "failed": failed})
	default:
		h.respondError(c, err)
	}
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProviderUnauthenticated):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrMalformedSchedule):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
