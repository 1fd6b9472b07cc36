package models

import "github.com/spacesedan/sentisweep/internal/histogram"

// AggregateRecord is the durable unit produced by one ingestion run: a
// project title plus the completed 11-bucket histogram. Records are
// immutable once inserted and are never deleted.
type AggregateRecord struct {
	ID           int64            `json:"id"`
	ProjectTitle string           `json:"project_title"`
	Bins         histogram.Counts `json:"bins"`
}
