// Package store defines the durable contract for completed histograms.
// Two interchangeable backends implement it: an embedded SQLite file
// for single-node deployments and a PostgreSQL pool for multi-instance
// deployments. Callers observe identical semantics from both.
package store

import (
	"context"
	"errors"

	"github.com/spacesedan/sentisweep/internal/histogram"
	"github.com/spacesedan/sentisweep/internal/models"
)

// ErrNotFound reports a lookup for an id that was never assigned. It is
// distinct from transient storage failures so callers can answer 404
// instead of 500.
var ErrNotFound = errors.New("aggregate record not found")

// AggregateStore is the two-operation persistence contract. Insert must
// be atomic and safe under concurrent calls, with every call yielding a
// distinct store-assigned id. There is no update or delete.
type AggregateStore interface {
	Insert(ctx context.Context, projectTitle string, bins histogram.Counts) (int64, error)
	GetByID(ctx context.Context, id int64) (models.AggregateRecord, error)
	Close() error
}

// BucketColumns returns the quoted per-bucket column names, one per
// histogram label, in bucket order. Both SQL backends use these so the
// persisted row shape is identical across them.
func BucketColumns() []string {
	cols := make([]string, histogram.NumBuckets)
	for i, label := range histogram.Labels {
		cols[i] = `"` + label + `"`
	}
	return cols
}
