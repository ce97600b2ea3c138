package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/metrics"
	"planttracker-api/internal/models"

	"github.com/rs/zerolog"
)

const (
	// DefaultPageLimit is the page size used when a request does not set one.
	DefaultPageLimit = 200
	// MaxPageLimit caps the page size a request may ask for.
	MaxPageLimit = 1000

	generationKey = "planttracker:dataset:generation"
)

// CollectionRepository is the read side of the collection store
type CollectionRepository interface {
	FindCollection(ctx context.Context, code string) (*models.CollectionDetail, error)
	ListMarkers(ctx context.Context, b geo.Bounds, limit, offset int) ([]models.Marker, int, error)
}

// Cache stores serialized detail records. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// PageLimits bounds the pagination window
type PageLimits struct {
	Default int
	Max     int
}

// CollectionService contains the lookup and map listing logic
type CollectionService struct {
	repo     CollectionRepository
	cache    Cache
	cacheTTL time.Duration
	limits   PageLimits
}

// NewCollectionService creates a new collection service. cache may be nil.
func NewCollectionService(repo CollectionRepository, cache Cache, cacheTTL time.Duration, limits PageLimits) *CollectionService {
	if limits.Default <= 0 {
		limits.Default = DefaultPageLimit
	}
	if limits.Max <= 0 {
		limits.Max = MaxPageLimit
	}
	if limits.Default > limits.Max {
		limits.Default = limits.Max
	}
	return &CollectionService{repo: repo, cache: cache, cacheTTL: cacheTTL, limits: limits}
}

// GetCollection returns the full record for a collection code
func (s *CollectionService) GetCollection(ctx context.Context, id string) (models.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("service: %w: collection id cannot be empty", models.ErrInvalidQuery)
	}

	key := s.cacheKey(ctx, id)
	if rec, ok := s.cached(ctx, key); ok {
		return rec, nil
	}

	detail, err := s.repo.FindCollection(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to find collection: %w", err)
	}

	rec := detail.Record()
	s.store(ctx, key, rec)
	return rec, nil
}

// ListCollections returns the markers inside bounds for one pagination window.
// A zero limit selects the default page size; larger limits are capped.
func (s *CollectionService) ListCollections(ctx context.Context, bounds geo.Bounds, limit, offset int) (models.MarkerPage, error) {
	if err := bounds.Validate(); err != nil {
		return models.MarkerPage{}, fmt.Errorf("service: %w: %v", models.ErrInvalidQuery, err)
	}
	if limit < 0 || offset < 0 {
		return models.MarkerPage{}, fmt.Errorf("service: %w: limit and offset must be non-negative", models.ErrInvalidQuery)
	}
	if limit == 0 {
		limit = s.limits.Default
	}
	if limit > s.limits.Max {
		limit = s.limits.Max
	}

	markers, total, err := s.repo.ListMarkers(ctx, bounds, limit, offset)
	if err != nil {
		return models.MarkerPage{}, fmt.Errorf("service: failed to list markers: %w", err)
	}
	if markers == nil {
		markers = []models.Marker{}
	}

	return models.MarkerPage{Items: markers, Total: total, Limit: limit, Offset: offset}, nil
}

// cacheKey scopes the detail key to the current dataset generation so that an
// upload invalidates every cached record at once.
func (s *CollectionService) cacheKey(ctx context.Context, id string) string {
	if s.cache == nil {
		return ""
	}
	gen := "0"
	if b, found, err := s.cache.Get(ctx, generationKey); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("cache generation lookup failed")
		return ""
	} else if found {
		gen = string(b)
	}
	return fmt.Sprintf("planttracker:collection:%s:%s", gen, id)
}

func (s *CollectionService) cached(ctx context.Context, key string) (models.Record, bool) {
	if key == "" {
		return nil, false
	}
	b, found, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		return nil, false
	}
	if !found {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	var rec models.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return rec, true
}

func (s *CollectionService) store(ctx context.Context, key string, rec models.Record) {
	if key == "" {
		return
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, s.cacheTTL); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache store failed")
	}
}
