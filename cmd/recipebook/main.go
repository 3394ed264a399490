package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"recipebook/internal/adapter/api"
	adapthttp "recipebook/internal/adapter/http"
	"recipebook/internal/adapter/memory"
	"recipebook/internal/adapter/postgres"
	"recipebook/internal/adapter/redisstore"
	"recipebook/internal/adapter/sealed"
	"recipebook/internal/app"
	"recipebook/internal/config"
	"recipebook/internal/domain"
)

// janitorInterval is how often stale buckets are removed.
const janitorInterval = time.Hour

// staleDeleter is a store whose buckets do not expire on their own.
type staleDeleter interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	client := api.New(cfg.APIURL, &http.Client{Timeout: cfg.APITimeout})

	h := adapthttp.New(adapthttp.Services{
		Sessions: app.NewSessions(store, client, log),
		Catalog:  app.NewCatalogService(client, log),
		Likes:    app.NewLikeService(client, cfg.LoginPath, log),
		Shopping: app.NewShoppingService(client, log),
		Account:  app.NewAccountService(client, log),
	}, adapthttp.Options{
		CSRFKey:             cfg.CSRFKey,
		CookieSecure:        cfg.CookieSecure,
		AllowedOrigins:      cfg.AllowedOrigins,
		LoginPath:           cfg.LoginPath,
		ExpiryCheckInterval: cfg.ExpiryCheckInterval,
		LoginRate:           cfg.LoginRate,
		LoginBurst:          cfg.LoginBurst,
		Logger:              log,
	}).Handler()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("api", cfg.APIURL), zap.String("storage", cfg.StorageDriver))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStorage opens the configured per-browser store, sealing values when a
// storage key is set.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.Storage, io.Closer, error) {
	var (
		store  domain.Storage
		closer io.Closer = io.NopCloser(nil)
	)

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		go janitor(ctx, db, janitorInterval, cfg.StorageTTL, log)
		store, closer = db, db
	case config.DriverRedis:
		rs, err := redisstore.Open(ctx, cfg.RedisURL, cfg.StorageTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis open: %w", err)
		}
		store, closer = rs, rs
	default:
		mem := memory.New()
		go janitor(ctx, mem, janitorInterval, cfg.StorageTTL, log)
		store = mem
	}

	if cfg.StorageKey != "" {
		key, err := sealed.ParseKey(cfg.StorageKey)
		if err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
		store = sealed.New(store, key)
	}
	return store, closer, nil
}

// janitor removes buckets untouched for longer than ttl, every interval.
func janitor(ctx context.Context, db staleDeleter, interval, ttl time.Duration, log *zap.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := db.DeleteStale(ctx, now.Add(-ttl))
			if err != nil {
				log.Warn("delete stale storage", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("deleted stale storage", zap.Int64("buckets", n))
			}
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
