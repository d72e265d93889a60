// Package catalogrunner wires the catalog service: snapshot store, cache,
// upstream client, HTTP API and the background refresh queue.
package catalogrunner

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bellebook/catalog/internal/api"
	"github.com/bellebook/catalog/internal/api/handlers"
	"github.com/bellebook/catalog/internal/cache"
	"github.com/bellebook/catalog/internal/diag"
	"github.com/bellebook/catalog/internal/domain"
	"github.com/bellebook/catalog/internal/refresh"
	"github.com/bellebook/catalog/internal/repository/postgres"
	"github.com/bellebook/catalog/internal/repository/sqlite"
	"github.com/bellebook/catalog/internal/service"
	"github.com/bellebook/catalog/internal/upstream"
	"github.com/bellebook/catalog/pkg/logging"
	"github.com/bellebook/catalog/runner"
)

// CatalogRunner runs the listing API with its background refresh
type CatalogRunner struct {
	cfg     *runner.Config
	log     *logging.Logger
	db      *sql.DB
	cache   cache.Cache
	catalog *service.Catalog
	srv     *http.Server
	refresh *refresh.Runner
}

// New creates a new CatalogRunner
func New(cfg *runner.Config, log *logging.Logger) (runner.Runner, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var repo domain.ServiceRepository
	if isPostgres(cfg.Dsn) {
		repo = postgres.NewServiceRepository(db)
	} else {
		repo = sqlite.NewServiceRepository(db)
	}

	c, err := openCache(cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	reporter := diag.NewReporter(log)
	client := upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamToken, reporter)
	catalog := service.NewCatalog(repo, client, c, reporter, log)

	serviceHandler := handlers.NewServiceHandler(catalog)
	healthHandler := handlers.NewHealthHandler(client)

	router := api.NewRouter(serviceHandler, healthHandler, log)
	handler := router.Setup(cfg.APIToken)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	r := &CatalogRunner{
		cfg:     cfg,
		log:     log,
		db:      db,
		cache:   c,
		catalog: catalog,
		srv:     srv,
	}

	// The refresh queue needs Redis. Without it the snapshot only updates
	// on startup and through cache-miss fetches.
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		r.refresh, err = refresh.New(&refresh.Config{
			RedisURL:  cfg.RedisURL,
			RedisAddr: cfg.RedisAddr,
			Password:  cfg.RedisPass,
			DB:        cfg.RedisDB,
			Interval:  cfg.SyncInterval,
		}, catalog, log)
		if err != nil {
			db.Close()
			c.Close()
			return nil, err
		}
	} else {
		log.Warn("no Redis configured, periodic snapshot refresh disabled")
	}

	return r, nil
}

// Run starts the API server and the background refresh
func (r *CatalogRunner) Run(ctx context.Context) error {
	if r.cfg.SyncOnStart {
		syncCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		if err := r.catalog.Sync(syncCtx); err != nil {
			// the snapshot keeps serving whatever it had before
			r.log.Warn("initial snapshot sync failed", "err", err)
		}
		cancel()
	}

	egroup, ctx := errgroup.WithContext(ctx)

	if r.refresh != nil {
		egroup.Go(func() error {
			return r.refresh.Run(ctx)
		})
	}

	egroup.Go(func() error {
		return r.startServer(ctx)
	})

	return egroup.Wait()
}

// Close cleans up resources
func (r *CatalogRunner) Close(_ context.Context) error {
	if r.cache != nil {
		_ = r.cache.Close()
	}

	if r.db != nil {
		return r.db.Close()
	}

	return nil
}

func (r *CatalogRunner) startServer(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := r.srv.Shutdown(shutdownCtx); err != nil {
			r.log.Error("error shutting down server", "err", err)
		}
	}()

	r.log.Info("catalog API server starting",
		"addr", r.cfg.Addr,
		"upstream", r.cfg.UpstreamURL,
	)

	err := r.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func openDatabase(cfg *runner.Config) (*sql.DB, error) {
	if isPostgres(cfg.Dsn) {
		db, err := postgres.OpenConnection(cfg.Dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := postgres.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return db, nil
	}

	dsn := cfg.Dsn
	if dsn == "" {
		if err := os.MkdirAll(cfg.DataFolder, os.ModePerm); err != nil {
			return nil, err
		}
		dsn = filepath.Join(cfg.DataFolder, "catalog.db")
	}

	db, err := sqlite.OpenConnection(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := sqlite.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func openCache(cfg *runner.Config, log *logging.Logger) (cache.Cache, error) {
	switch {
	case cfg.RedisURL != "":
		return cache.NewRedisCacheFromURL(cfg.RedisURL)
	case cfg.RedisAddr != "":
		return cache.NewRedisCache(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
	default:
		log.Warn("no Redis configured, using in-process cache")
		return cache.NewMemoryCache(), nil
	}
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
