package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/spacesedan/sentisweep/internal/histogram"
	"github.com/spacesedan/sentisweep/internal/models"
	"github.com/spacesedan/sentisweep/internal/store"
)

// sqliteStore implements store.AggregateStore on an embedded SQLite
// file. Intended for single-node and dev deployments.
type sqliteStore struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path with WAL mode
// enabled and the aggregates table in place.
func Open(ctx context.Context, path string) (store.AggregateStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// single writer connection; SQLite serializes writes anyway and
	// this avoids SQLITE_BUSY under concurrent ingestion runs
	db.SetMaxOpenConns(1)

	// WAL keeps concurrent ingestion inserts from blocking reads
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS aggregates (\n")
	b.WriteString("\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n")
	b.WriteString("\tproject_title TEXT NOT NULL")
	for _, col := range store.BucketColumns() {
		b.WriteString(",\n\t" + col + " INTEGER NOT NULL DEFAULT 0")
	}
	b.WriteString("\n);")

	_, err := db.ExecContext(ctx, b.String())
	return err
}

func (s *sqliteStore) Insert(ctx context.Context, projectTitle string, bins histogram.Counts) (int64, error) {
	cols := store.BucketColumns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", histogram.NumBuckets+1), ", ")

	query := fmt.Sprintf("INSERT INTO aggregates (project_title, %s) VALUES (%s)",
		strings.Join(cols, ", "), placeholders)

	args := make([]any, 0, histogram.NumBuckets+1)
	args = append(args, projectTitle)
	for _, n := range bins {
		args = append(args, n)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("[SQLiteStore] insert failed: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("[SQLiteStore] resolving inserted id: %w", err)
	}
	return id, nil
}

func (s *sqliteStore) GetByID(ctx context.Context, id int64) (models.AggregateRecord, error) {
	query := fmt.Sprintf("SELECT project_title, %s FROM aggregates WHERE id = ?",
		strings.Join(store.BucketColumns(), ", "))

	rec := models.AggregateRecord{ID: id}
	dest := make([]any, 0, histogram.NumBuckets+1)
	dest = append(dest, &rec.ProjectTitle)
	for i := range rec.Bins {
		dest = append(dest, &rec.Bins[i])
	}

	err := s.db.QueryRowContext(ctx, query, id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AggregateRecord{}, store.ErrNotFound
	}
	if err != nil {
		return models.AggregateRecord{}, fmt.Errorf("[SQLiteStore] lookup failed: %w", err)
	}
	return rec, nil
}
