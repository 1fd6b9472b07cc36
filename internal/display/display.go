// Package display resolves stored aggregates into the shape an
// embeddable chart consumes: the project title plus the 11 bucket
// counts keyed by their score labels.
package display

import (
	"context"

	"github.com/spacesedan/sentisweep/internal/histogram"
	"github.com/spacesedan/sentisweep/internal/models"
	"github.com/spacesedan/sentisweep/internal/store"
)

// View is the embeddable representation of one aggregate record.
type View struct {
	ID           int64            `json:"id"`
	ProjectTitle string           `json:"project_title"`
	Bins         map[string]int64 `json:"bins"`
	Total        int64            `json:"total"`
}

// Cache is an optional read-through cache for views. Records are
// immutable after insert, so cached views never go stale. A Cache must
// never fail a read: errors degrade to a miss.
type Cache interface {
	Get(ctx context.Context, id int64) (View, bool)
	Set(ctx context.Context, v View)
}

// Adapter is a pure read-through over the aggregate store. Lookups have
// no side effects on the record; an unknown id surfaces as
// store.ErrNotFound, distinct from transient storage failures.
type Adapter struct {
	store store.AggregateStore
	cache Cache
}

// NewAdapter wraps st, consulting cache first when it is non-nil.
func NewAdapter(st store.AggregateStore, cache Cache) *Adapter {
	return &Adapter{store: st, cache: cache}
}

// GetDisplay resolves id into its display view.
func (a *Adapter) GetDisplay(ctx context.Context, id int64) (View, error) {
	if a.cache != nil {
		if v, ok := a.cache.Get(ctx, id); ok {
			return v, nil
		}
	}

	rec, err := a.store.GetByID(ctx, id)
	if err != nil {
		return View{}, err
	}

	v := viewFor(rec)
	if a.cache != nil {
		a.cache.Set(ctx, v)
	}
	return v, nil
}

func viewFor(rec models.AggregateRecord) View {
	bins := make(map[string]int64, histogram.NumBuckets)
	for i, label := range histogram.Labels {
		bins[label] = rec.Bins[i]
	}
	return View{
		ID:           rec.ID,
		ProjectTitle: rec.ProjectTitle,
		Bins:         bins,
		Total:        rec.Bins.Total(),
	}
}
