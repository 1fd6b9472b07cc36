package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spacesedan/sentisweep/internal/histogram"
	"github.com/spacesedan/sentisweep/internal/models"
	"github.com/spacesedan/sentisweep/internal/store"
)

// pgStore implements store.AggregateStore on a PostgreSQL pool for
// multi-instance deployments. The pool is owned by the store and closed
// with it.
type pgStore struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL at dsn, verifies the connection, and
// ensures the aggregates table exists.
func Open(ctx context.Context, dsn string) (store.AggregateStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("[PostgresStore] failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("[PostgresStore] failed to ping PostgreSQL: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("[PostgresStore] Connected to PostgreSQL successfully")
	return &pgStore{pool: pool}, nil
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS aggregates (\n")
	b.WriteString("\tid BIGSERIAL PRIMARY KEY,\n")
	b.WriteString("\tproject_title TEXT NOT NULL")
	for _, col := range store.BucketColumns() {
		b.WriteString(",\n\t" + col + " BIGINT NOT NULL DEFAULT 0")
	}
	b.WriteString("\n);")

	if _, err := pool.Exec(ctx, b.String()); err != nil {
		return fmt.Errorf("[PostgresStore] creating schema: %w", err)
	}
	return nil
}

func (s *pgStore) Insert(ctx context.Context, projectTitle string, bins histogram.Counts) (int64, error) {
	placeholders := make([]string, 0, histogram.NumBuckets+1)
	for i := 0; i < histogram.NumBuckets+1; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	query := fmt.Sprintf("INSERT INTO aggregates (project_title, %s) VALUES (%s) RETURNING id",
		strings.Join(store.BucketColumns(), ", "), strings.Join(placeholders, ", "))

	args := make([]any, 0, histogram.NumBuckets+1)
	args = append(args, projectTitle)
	for _, n := range bins {
		args = append(args, n)
	}

	var id int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("[PostgresStore] insert failed: %w", err)
	}
	return id, nil
}

func (s *pgStore) GetByID(ctx context.Context, id int64) (models.AggregateRecord, error) {
	query := fmt.Sprintf("SELECT project_title, %s FROM aggregates WHERE id = $1",
		strings.Join(store.BucketColumns(), ", "))

	rec := models.AggregateRecord{ID: id}
	dest := make([]any, 0, histogram.NumBuckets+1)
	dest = append(dest, &rec.ProjectTitle)
	for i := range rec.Bins {
		dest = append(dest, &rec.Bins[i])
	}

	err := s.pool.QueryRow(ctx, query, id).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AggregateRecord{}, store.ErrNotFound
	}
	if err != nil {
		return models.AggregateRecord{}, fmt.Errorf("[PostgresStore] lookup failed: %w", err)
	}
	return rec, nil
}
