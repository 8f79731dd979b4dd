// Package server initializes and runs the aexpo server: it opens the
// database, applies migrations, selects the media backend, wires the
// services behind the HTTP API and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/temten/aexpo/internal/filex"
	"github.com/temten/aexpo/internal/logging"
	"github.com/temten/aexpo/internal/server/auth"
	"github.com/temten/aexpo/internal/server/config"
	"github.com/temten/aexpo/internal/server/httpapi"
	"github.com/temten/aexpo/internal/server/media"
	"github.com/temten/aexpo/internal/server/repositories/repomanager"
	"github.com/temten/aexpo/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	api           *httpapi.API
	localMediaDir string
}

// newMediaStore builds the store for the configured backend. Exactly one
// backend is active; the local backend returns its resolved directory so
// the router can serve it statically.
func newMediaStore(ctx context.Context, cfg *config.Config) (media.Store, string, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendInline:
		return media.NewInlineStore(), "", nil
	case config.MediaBackendS3:
		store, err := media.NewS3Store(ctx, media.S3Params{
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			PublicURL:    cfg.S3PublicURL,
		})
		return store, "", err
	case config.MediaBackendLocal:
		dir, err := filex.EnsureSubdDir(cfg.LocalMediaDir)
		if err != nil {
			return nil, "", err
		}
		store, err := media.NewLocalStore(dir)
		return store, dir, err
	default:
		return nil, "", fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, localMediaDir, err := newMediaStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media backend init error: %w", err)
	}
	mm := media.NewManager(store, logger)

	issuer, err := auth.NewTokenIssuer(cfg.SecretKey, cfg.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}

	accounts := services.NewAccountService(db, rm, mm, issuer, cfg)
	posts := services.NewPostService(db, rm, mm, cfg)
	api := httpapi.NewAPI(accounts, posts, logger)

	return &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		api:           api,
		localMediaDir: localMediaDir,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or
// a termination signal arrives, then drains in-flight requests.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Router(app.localMediaDir),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddrHTTP, "media_backend", app.config.MediaBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	return app.db.Close()
}
