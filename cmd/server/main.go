package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/sentisweep/config"
	"github.com/spacesedan/sentisweep/internal/api"
	"github.com/spacesedan/sentisweep/internal/display"
	"github.com/spacesedan/sentisweep/internal/ingest"
	"github.com/spacesedan/sentisweep/internal/logging"
	"github.com/spacesedan/sentisweep/internal/sentiment"
	"github.com/spacesedan/sentisweep/internal/store"
	"github.com/spacesedan/sentisweep/internal/store/postgres"
	"github.com/spacesedan/sentisweep/internal/store/sqlite"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to open aggregate store",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer st.Close()

	var cache display.Cache
	if cfg.ValkeyAddress != "" {
		vc, err := display.NewValkeyCache(cfg.ValkeyAddress, cfg.ValkeyPassword, cfg.ValkeyTLS)
		if err != nil {
			slog.Error("[Main] Failed to connect to Valkey",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer vc.Close()
		cache = vc
	}

	engine := ingest.NewEngine(sentiment.NewAnalyzer(), st)
	displayAdapter := display.NewAdapter(st, cache)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           api.NewRouter(engine, displayAdapter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("[Main] Server listening",
			slog.String("address", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] Server failed",
				slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("[Main] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("[Main] Forced shutdown",
			slog.String("error", err.Error()))
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.AggregateStore, error) {
	if cfg.DatabaseURL != "" {
		return postgres.Open(ctx, cfg.DatabaseURL)
	}

	slog.Info("[Main] Using embedded SQLite store",
		slog.String("path", cfg.SQLitePath))
	return sqlite.Open(ctx, cfg.SQLitePath)
}
