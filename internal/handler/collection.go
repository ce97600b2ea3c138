package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/models"

	"github.com/gin-gonic/gin"
)

// CollectionHandler handles collection lookup and map listing requests
type CollectionHandler struct {
	service CollectionService
}

// CollectionService interface for dependency injection
type CollectionService interface {
	GetCollection(ctx context.Context, id string) (models.Record, error)
	ListCollections(ctx context.Context, bounds geo.Bounds, limit, offset int) (models.MarkerPage, error)
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(svc CollectionService) *CollectionHandler {
	return &CollectionHandler{service: svc}
}

// GetCollection handles GET /api/collection/:id requests
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	rec, err := h.service.GetCollection(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, rec)
	case errors.Is(err, models.ErrInvalidQuery):
		abortDetail(c, http.StatusBadRequest, "collection id is required")
	case errors.Is(err, models.ErrCollectionNotFound):
		abortDetail(c, http.StatusNotFound, "Collection not found")
	default:
		abortInternal(c, err)
	}
}

// ListCollections handles GET /api/collections requests
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	var (
		bounds geo.Bounds
		err    error
	)
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"minLat", &bounds.MinLat},
		{"maxLat", &bounds.MaxLat},
		{"minLng", &bounds.MinLng},
		{"maxLng", &bounds.MaxLng},
	} {
		if *p.dst, err = queryFloat(c, p.name); err != nil {
			abortDetail(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		abortDetail(c, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		abortDetail(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.ListCollections(c.Request.Context(), bounds, limit, offset)
	if err != nil {
		if errors.Is(err, models.ErrInvalidQuery) {
			abortDetail(c, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "service: "))
			return
		}
		abortInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func queryFloat(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("missing required query parameter '%s'", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for query parameter '%s'", name)
	}
	return v, nil
}

// queryInt parses an optional non-negative integer parameter; absent means 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("query parameter '%s' must be a non-negative integer", name)
	}
	return v, nil
}
