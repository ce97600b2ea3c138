package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listCall struct {
	bounds geo.Bounds
	limit  int
	offset int
}

// fakeLister answers each call with a page whose Offset echoes the request.
// When gate is set, calls block until the test releases them.
type fakeLister struct {
	mu    sync.Mutex
	total int
	err   error
	calls []listCall
	gate  map[int]chan struct{}
}

func (f *fakeLister) ListCollections(ctx context.Context, b geo.Bounds, limit, offset int) (models.MarkerPage, error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, listCall{b, limit, offset})
	gate := f.gate[n]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return models.MarkerPage{}, f.err
	}
	return models.MarkerPage{Items: []models.Marker{}, Total: f.total, Limit: limit, Offset: offset}, nil
}

func TestMapSession_Paging(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{total: 450}
	s := NewMapSession(lister)

	_, err := s.NextPage(ctx)
	assert.ErrorIs(t, err, ErrNoBounds)

	page, err := s.SetBounds(ctx, ohio)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, PageSize, page.Limit)

	_, err = s.PrevPage(ctx)
	assert.ErrorIs(t, err, ErrNoPage)

	page, err = s.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, page.Offset)

	page, err = s.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 400, page.Offset)

	_, err = s.NextPage(ctx)
	assert.ErrorIs(t, err, ErrNoPage)
	assert.Equal(t, 400, s.Offset())

	page, err = s.PrevPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, page.Offset)
}

func TestMapSession_SetBoundsRestartsAtFirstPage(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{total: 1000}
	s := NewMapSession(lister)

	_, err := s.SetBounds(ctx, ohio)
	require.NoError(t, err)
	_, err = s.NextPage(ctx)
	require.NoError(t, err)
	_, err = s.NextPage(ctx)
	require.NoError(t, err)
	require.Equal(t, 400, s.Offset())

	panned := geo.Bounds{MinLat: 39, MaxLat: 41, MinLng: -84, MaxLng: -82}
	page, err := s.SetBounds(ctx, panned)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, 0, s.Offset())

	last := lister.calls[len(lister.calls)-1]
	assert.Equal(t, listCall{panned, PageSize, 0}, last)
}

func TestMapSession_DiscardsStaleResponse(t *testing.T) {
	ctx := context.Background()
	first := make(chan struct{})
	lister := &fakeLister{total: 10, gate: map[int]chan struct{}{0: first}}
	s := NewMapSession(lister)

	older := geo.Bounds{MinLat: 0, MaxLat: 1, MinLng: 0, MaxLng: 1}
	newer := geo.Bounds{MinLat: 2, MaxLat: 3, MinLng: 2, MaxLng: 3}

	done := make(chan error, 1)
	go func() {
		_, err := s.SetBounds(ctx, older)
		done <- err
	}()

	// Wait until the first request is in flight before issuing the second.
	require.Eventually(t, func() bool {
		lister.mu.Lock()
		defer lister.mu.Unlock()
		return len(lister.calls) == 1
	}, time.Second, time.Millisecond)

	page, err := s.SetBounds(ctx, newer)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)

	close(first)
	assert.ErrorIs(t, <-done, ErrStale)

	assert.Equal(t, page, s.Page())
}

func TestMapSession_ErrorKeepsState(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{total: 500}
	s := NewMapSession(lister)

	_, err := s.SetBounds(ctx, ohio)
	require.NoError(t, err)

	lister.err = assert.AnError
	_, err = s.NextPage(ctx)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, s.Offset())
	assert.Equal(t, 500, s.Page().Total)
}

func TestMapSession_FailedSetBoundsRestartsAtFirstPage(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{total: 1000}
	s := NewMapSession(lister)

	_, err := s.SetBounds(ctx, ohio)
	require.NoError(t, err)
	_, err = s.NextPage(ctx)
	require.NoError(t, err)
	_, err = s.NextPage(ctx)
	require.NoError(t, err)
	require.Equal(t, 400, s.Offset())

	panned := geo.Bounds{MinLat: 39, MaxLat: 41, MinLng: -84, MaxLng: -82}
	lister.err = assert.AnError
	_, err = s.SetBounds(ctx, panned)
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, 0, s.Offset())
	assert.Equal(t, 0, s.Page().Total)
	assert.Empty(t, s.Page().Items)

	calls := len(lister.calls)
	_, err = s.NextPage(ctx)
	assert.ErrorIs(t, err, ErrNoPage)
	assert.Len(t, lister.calls, calls, "no request may combine the new bounds with the old offset")

	lister.err = nil
	page, err := s.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, listCall{panned, PageSize, 0}, lister.calls[len(lister.calls)-1])
}

func TestMapSession_SetBoundsOvertakesNextPage(t *testing.T) {
	ctx := context.Background()
	nextGate := make(chan struct{})
	lister := &fakeLister{total: 1000, gate: map[int]chan struct{}{1: nextGate}}
	s := NewMapSession(lister)

	_, err := s.SetBounds(ctx, ohio)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.NextPage(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool {
		lister.mu.Lock()
		defer lister.mu.Unlock()
		return len(lister.calls) == 2
	}, time.Second, time.Millisecond)

	panned := geo.Bounds{MinLat: 39, MaxLat: 41, MinLng: -84, MaxLng: -82}
	page, err := s.SetBounds(ctx, panned)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Offset)

	close(nextGate)
	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, 0, s.Offset())

	page, err = s.NextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, page.Offset)
	assert.Equal(t, listCall{panned, PageSize, 200}, lister.calls[len(lister.calls)-1])
}

func TestMapSession_Reload(t *testing.T) {
	_, err := NewMapSession(&fakeLister{}).Reload(context.Background())
	assert.ErrorIs(t, err, ErrNoBounds)
}

func TestMarkerFromRecord(t *testing.T) {
	name := "Common Milkweed"
	county := "Franklin"

	tests := []struct {
		name     string
		rec      models.Record
		expected models.Marker
		ok       bool
	}{
		{
			name: "numeric position",
			rec: models.Record{
				models.FieldCollectionCode: "C-001",
				models.FieldCommonName:     name,
				models.FieldCounty:         county,
				models.FieldDateCollected:  nil,
				models.FieldLatitude:       40.0,
				models.FieldLongitude:      -83.0,
			},
			expected: models.Marker{ID: "C-001", CommonName: &name, County: &county, Latitude: 40, Longitude: -83},
			ok:       true,
		},
		{
			name: "combined coordinate string",
			rec: models.Record{
				models.FieldCollectionCode: "C-002",
				models.FieldCords:          `40° 0' 0" N 83° 0' 0" W`,
			},
			expected: models.Marker{ID: "C-002", Latitude: 40, Longitude: -83},
			ok:       true,
		},
		{
			name: "single coordinate token",
			rec: models.Record{
				models.FieldCollectionCode: "C-003",
				models.FieldCords:          `40° 0' 0"`,
			},
			ok: false,
		},
		{
			name: "out of range",
			rec: models.Record{
				models.FieldCollectionCode: "C-004",
				models.FieldLatitude:       95.0,
				models.FieldLongitude:      10.0,
			},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := MarkerFromRecord(tt.rec)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected.ID, m.ID)
				assert.Equal(t, tt.expected.CommonName, m.CommonName)
				assert.Equal(t, tt.expected.County, m.County)
				assert.Nil(t, m.DateCollected)
				assert.InDelta(t, tt.expected.Latitude, m.Latitude, 1e-9)
				assert.InDelta(t, tt.expected.Longitude, m.Longitude, 1e-9)
			}
		})
	}
}
