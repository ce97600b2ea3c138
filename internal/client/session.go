package client

import (
	"context"
	"errors"
	"sync"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/models"
)

// PageSize is the number of markers a map view requests per page.
const PageSize = 200

var (
	// ErrStale is returned for a response that was overtaken by a newer request.
	// The session state is left untouched.
	ErrStale = errors.New("client: response superseded by a newer request")
	// ErrNoBounds is returned when paging before any viewport was set.
	ErrNoBounds = errors.New("client: no map bounds set")
	// ErrNoPage is returned when paging past either end of the result set.
	ErrNoPage = errors.New("client: no such page")
)

// MarkerLister is the part of Client a MapSession needs.
type MarkerLister interface {
	ListCollections(ctx context.Context, b geo.Bounds, limit, offset int) (models.MarkerPage, error)
}

// MapSession holds the state of one map view: the current viewport, the
// pagination window and the last page shown. It is safe for concurrent use.
//
// Every fetch is numbered. Only the response to the most recently issued
// fetch may update the state; older responses resolve with ErrStale.
type MapSession struct {
	lister MarkerLister
	limit  int

	mu        sync.Mutex
	seq       uint64
	bounds    geo.Bounds
	hasBounds bool
	offset    int
	page      models.MarkerPage
}

// NewMapSession creates a session that fetches pages of PageSize markers.
func NewMapSession(lister MarkerLister) *MapSession {
	return &MapSession{
		lister: lister,
		limit:  PageSize,
		page:   emptyPage(PageSize),
	}
}

// SetBounds moves the viewport and fetches its first page. The previous
// page is dropped at once, so paging always restarts at offset 0 even when
// this fetch fails or is overtaken.
func (s *MapSession) SetBounds(ctx context.Context, b geo.Bounds) (models.MarkerPage, error) {
	s.mu.Lock()
	s.bounds = b
	s.hasBounds = true
	s.offset = 0
	s.page = emptyPage(s.limit)
	seq := s.issue()
	s.mu.Unlock()
	return s.fetch(ctx, seq, b, 0)
}

// Reload fetches the current page of the current viewport again.
func (s *MapSession) Reload(ctx context.Context) (models.MarkerPage, error) {
	s.mu.Lock()
	if !s.hasBounds {
		s.mu.Unlock()
		return models.MarkerPage{}, ErrNoBounds
	}
	b, offset := s.bounds, s.offset
	seq := s.issue()
	s.mu.Unlock()
	return s.fetch(ctx, seq, b, offset)
}

// NextPage fetches the page after the current one.
func (s *MapSession) NextPage(ctx context.Context) (models.MarkerPage, error) {
	s.mu.Lock()
	if !s.hasBounds {
		s.mu.Unlock()
		return models.MarkerPage{}, ErrNoBounds
	}
	next := s.offset + s.limit
	if next >= s.page.Total {
		s.mu.Unlock()
		return models.MarkerPage{}, ErrNoPage
	}
	b := s.bounds
	seq := s.issue()
	s.mu.Unlock()
	return s.fetch(ctx, seq, b, next)
}

// PrevPage fetches the page before the current one.
func (s *MapSession) PrevPage(ctx context.Context) (models.MarkerPage, error) {
	s.mu.Lock()
	if !s.hasBounds {
		s.mu.Unlock()
		return models.MarkerPage{}, ErrNoBounds
	}
	if s.offset == 0 {
		s.mu.Unlock()
		return models.MarkerPage{}, ErrNoPage
	}
	prev := max(s.offset-s.limit, 0)
	b := s.bounds
	seq := s.issue()
	s.mu.Unlock()
	return s.fetch(ctx, seq, b, prev)
}

// Page returns the last page accepted by the session.
func (s *MapSession) Page() models.MarkerPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Offset returns the offset of the last accepted page.
func (s *MapSession) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// issue numbers a new fetch. Callers hold s.mu.
func (s *MapSession) issue() uint64 {
	s.seq++
	return s.seq
}

func (s *MapSession) fetch(ctx context.Context, seq uint64, b geo.Bounds, offset int) (models.MarkerPage, error) {
	page, err := s.lister.ListCollections(ctx, b, s.limit, offset)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return models.MarkerPage{}, ErrStale
	}
	if err != nil {
		return models.MarkerPage{}, err
	}
	s.offset = offset
	s.page = page
	return page, nil
}

func emptyPage(limit int) models.MarkerPage {
	return models.MarkerPage{Items: []models.Marker{}, Limit: limit}
}

// MarkerFromRecord projects a full collection record to a map marker. It
// reports false when the record has no usable position.
func MarkerFromRecord(rec models.Record) (models.Marker, bool) {
	pos, ok := geo.FromRecord(rec)
	if !ok {
		return models.Marker{}, false
	}
	id, _ := rec[models.FieldCollectionCode].(string)
	return models.Marker{
		ID:            id,
		CommonName:    stringField(rec, models.FieldCommonName),
		Latitude:      pos.Lat,
		Longitude:     pos.Lng,
		County:        stringField(rec, models.FieldCounty),
		DateCollected: stringField(rec, models.FieldDateCollected),
	}, true
}

func stringField(rec models.Record, key string) *string {
	if s, ok := rec[key].(string); ok {
		return &s
	}
	return nil
}
