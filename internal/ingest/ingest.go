// Package ingest drives one CSV upload from byte stream to persisted
// aggregate: rows are parsed incrementally, normalized, redacted,
// scored and binned one at a time, so memory stays bounded no matter
// how large the upload is. Nothing is written to the store until the
// stream completes, which makes abandoning a run mid-stream safe.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spacesedan/sentisweep/internal/histogram"
	"github.com/spacesedan/sentisweep/internal/redact"
)

const (
	DefaultTextColumn   = "post"
	DefaultProjectTitle = "New Analysis"
)

// ErrStorage marks an ingestion failure that happened while persisting
// a completed histogram, as opposed to reading or parsing the stream.
var ErrStorage = errors.New("aggregate storage failure")

// Scorer maps redacted post text to a compound polarity in [-1, 1].
// Empty input must score 0 without error.
type Scorer interface {
	Score(text string) float64
}

// Inserter is the slice of the aggregate store the engine needs.
type Inserter interface {
	Insert(ctx context.Context, projectTitle string, bins histogram.Counts) (int64, error)
}

// Options configures one ingestion run. Zero values fall back to the
// package defaults.
type Options struct {
	TextColumn   string
	ProjectTitle string
}

func (o Options) withDefaults() Options {
	if o.TextColumn == "" {
		o.TextColumn = DefaultTextColumn
	}
	if o.ProjectTitle == "" {
		o.ProjectTitle = DefaultProjectTitle
	}
	return o
}

// Result reports the persisted aggregate of a completed run.
type Result struct {
	ID   int64
	Bins histogram.Counts
}

// Engine runs ingestion pipelines against an injected scorer and store.
// A single Engine is shared by concurrent runs; each run owns its own
// counter state, so no synchronization happens outside the store.
type Engine struct {
	scorer Scorer
	store  Inserter
}

func NewEngine(scorer Scorer, store Inserter) *Engine {
	return &Engine{scorer: scorer, store: store}
}

// Run streams CSV content from r, scores every row of the configured
// text column, and persists the finished histogram in a single insert.
// The first record is the header; a row missing the text column still
// counts and lands in the neutral bucket, and so does a blank input
// line, since an empty post is still a post. A malformed individual row
// is counted as neutral rather than aborting the run; an unreadable
// stream aborts the run with nothing persisted.
func (e *Engine) Run(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	opts = opts.withDefaults()
	column := normalizeColumn(opts.TextColumn)

	blanks := newBlankLineCounter(r)
	cr := csv.NewReader(blanks)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return Result{}, fmt.Errorf("reading CSV header: %w", err)
	}

	var bins histogram.Counts
	for {
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("ingestion abandoned: %w", ctx.Err())
		default:
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// one bad row does not sink the dataset
				slog.Warn("[Ingest] Counting malformed row as neutral",
					slog.Int("line", parseErr.Line),
					slog.String("error", parseErr.Err.Error()))
				bins.Add(0)
				continue
			}
			return Result{}, fmt.Errorf("reading CSV row: %w", err)
		}

		row := NormalizeRow(header, record)
		bins.Add(e.scorer.Score(redact.Redact(row[column])))
	}

	// the csv reader drops blank lines before they ever become records;
	// add them back as neutral rows so the total matches the input
	bins[histogram.Bin(0)] += blanks.count()

	id, err := e.store.Insert(ctx, opts.ProjectTitle, bins)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	slog.Info("[Ingest] Dataset aggregated",
		slog.Int64("id", id),
		slog.Int64("rows", bins.Total()),
		slog.String("project_title", opts.ProjectTitle))

	return Result{ID: id, Bins: bins}, nil
}

// blankLineCounter passes bytes through untouched while counting blank
// input lines, which encoding/csv silently skips instead of surfacing
// as records. Newlines inside quoted fields belong to a record and are
// ignored, as are blank lines before the first content line (they
// precede the header, so they cannot be data rows). A run reads the
// count only after the stream is exhausted.
type blankLineCounter struct {
	r           io.Reader
	inQuotes    bool
	lineEmpty   bool
	seenContent bool
	blanks      int64
}

func newBlankLineCounter(r io.Reader) *blankLineCounter {
	return &blankLineCounter{r: r, lineEmpty: true}
}

func (b *blankLineCounter) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	for _, c := range p[:n] {
		if b.inQuotes {
			if c == '"' {
				b.inQuotes = false
			}
			continue
		}
		switch c {
		case '"':
			b.inQuotes = true
			b.lineEmpty = false
			b.seenContent = true
		case '\n':
			if b.lineEmpty && b.seenContent {
				b.blanks++
			}
			b.lineEmpty = true
		case '\r':
		default:
			b.lineEmpty = false
			b.seenContent = true
		}
	}
	return n, err
}

func (b *blankLineCounter) count() int64 {
	return b.blanks
}

// RunFile ingests the spooled upload at path and removes the file once
// the aggregate has been persisted. On failure the spool file is left
// in place for diagnosis. A failed removal is logged, never escalated;
// it does not affect the persisted record.
func (e *Engine) RunFile(ctx context.Context, path string, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening upload file: %w", err)
	}

	res, err := e.Run(ctx, f, opts)
	f.Close()
	if err != nil {
		return Result{}, err
	}

	if err := os.Remove(path); err != nil {
		slog.Warn("[Ingest] Failed to remove upload spool file",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
	return res, nil
}
