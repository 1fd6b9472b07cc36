package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentisweep/internal/histogram"
	"github.com/spacesedan/sentisweep/internal/store"
)

func openTestStore(t *testing.T) store.AggregateStore {
	t.Helper()

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "sentisweep.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGetByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bins := histogram.Counts{1, 0, 0, 0, 0, 2, 0, 0, 0, 0, 3}
	id, err := s.Insert(ctx, "launch feedback", bins)
	require.NoError(t, err)
	require.Positive(t, id)

	rec, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "launch feedback", rec.ProjectTitle)
	assert.Equal(t, bins, rec.Bins)
	assert.Equal(t, int64(6), rec.Bins.Total())
}

func TestGetByIDUnknownID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsertAssignsDistinctIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var (
		mu  sync.Mutex
		ids = make(map[int64]bool)
		wg  sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Insert(ctx, "concurrent", histogram.Counts{})
			assert.NoError(t, err)

			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 8, "every insert yields a unique id")
}
