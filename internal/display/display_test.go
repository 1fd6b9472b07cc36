package display

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentisweep/internal/histogram"
	"github.com/spacesedan/sentisweep/internal/models"
	"github.com/spacesedan/sentisweep/internal/store"
)

type stubStore struct {
	records map[int64]models.AggregateRecord
	err     error
	reads   int
}

func (s *stubStore) Insert(context.Context, string, histogram.Counts) (int64, error) {
	panic("display adapter must never insert")
}

func (s *stubStore) GetByID(_ context.Context, id int64) (models.AggregateRecord, error) {
	s.reads++
	if s.err != nil {
		return models.AggregateRecord{}, s.err
	}
	rec, ok := s.records[id]
	if !ok {
		return models.AggregateRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *stubStore) Close() error { return nil }

type mapCache struct {
	views map[int64]View
}

func (m *mapCache) Get(_ context.Context, id int64) (View, bool) {
	v, ok := m.views[id]
	return v, ok
}

func (m *mapCache) Set(_ context.Context, v View) {
	m.views[v.ID] = v
}

func TestGetDisplay(t *testing.T) {
	bins := histogram.Counts{}
	bins[1] = 2
	bins[5] = 1
	bins[9] = 4
	st := &stubStore{records: map[int64]models.AggregateRecord{
		7: {ID: 7, ProjectTitle: "release week", Bins: bins},
	}}

	v, err := NewAdapter(st, nil).GetDisplay(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), v.ID)
	assert.Equal(t, "release week", v.ProjectTitle)
	assert.Equal(t, int64(7), v.Total)
	assert.Len(t, v.Bins, histogram.NumBuckets)
	assert.Equal(t, int64(2), v.Bins["-0.8"])
	assert.Equal(t, int64(1), v.Bins["0.0"])
	assert.Equal(t, int64(4), v.Bins["+0.8"])
	assert.Equal(t, int64(0), v.Bins["+1.0"])
}

func TestGetDisplayNotFound(t *testing.T) {
	st := &stubStore{records: map[int64]models.AggregateRecord{}}

	_, err := NewAdapter(st, nil).GetDisplay(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetDisplayStorageErrorIsNotNotFound(t *testing.T) {
	st := &stubStore{err: errors.New("pool exhausted")}

	_, err := NewAdapter(st, nil).GetDisplay(context.Background(), 42)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestGetDisplayUsesCache(t *testing.T) {
	st := &stubStore{records: map[int64]models.AggregateRecord{
		3: {ID: 3, ProjectTitle: "cached", Bins: histogram.Counts{0, 0, 0, 0, 0, 1}},
	}}
	cache := &mapCache{views: make(map[int64]View)}
	a := NewAdapter(st, cache)
	ctx := context.Background()

	first, err := a.GetDisplay(ctx, 3)
	require.NoError(t, err)
	second, err := a.GetDisplay(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, st.reads, "second read served from cache")
}

func TestGetDisplayNotFoundIsNotCached(t *testing.T) {
	st := &stubStore{records: map[int64]models.AggregateRecord{}}
	cache := &mapCache{views: make(map[int64]View)}
	a := NewAdapter(st, cache)

	_, err := a.GetDisplay(context.Background(), 9)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, cache.views)
}
