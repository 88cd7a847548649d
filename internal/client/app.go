package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// shutdownTimeout bounds the engine teardown on exit.
const shutdownTimeout = 10 * time.Second

// App is the headless client runtime: it runs an engine, logs its change
// and failure streams and exposes its metrics.
type App struct {
	engine         *Engine
	metricsAddress string

	logger *logger.Logger
}

// NewApp opens an engine from cfg.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	engine, err := Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &App{
		engine:         engine,
		metricsAddress: cfg.Metrics.Address,
		logger:         log,
	}, nil
}

// Run starts the engine and blocks until ctx ends. The engine is shut down
// on every exit path.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		err = errors.Join(err, a.engine.Shutdown(shutdownCtx))
	}()

	if err = a.engine.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logChanges(gctx)
		return nil
	})
	g.Go(func() error {
		a.logEvents(gctx)
		return nil
	})
	g.Go(func() error {
		a.initialSync(gctx)
		return nil
	})
	if a.metricsAddress != "" {
		g.Go(func() error {
			return a.serveMetrics(gctx)
		})
	}

	return g.Wait()
}

func (a *App) initialSync(ctx context.Context) {
	if err := a.engine.ForceSync().Wait(ctx); err != nil && ctx.Err() == nil {
		a.logger.Warn().Err(err).Str("func", "App.initialSync").Msg("initial sync failed")
		return
	}
	pending, _ := a.engine.PendingCount(ctx)
	a.logger.Info().Str("func", "App.initialSync").Int("pending", pending).Msg("initial sync finished")
}

func (a *App) logChanges(ctx context.Context) {
	for ev := range a.engine.Changes(ctx) {
		entry := a.logger.Info().
			Str("func", "App.logChanges").
			Str("kind", string(ev.Kind)).
			Str("collection", ev.Collection).
			Str("entity_id", ev.EntityID)
		if ev.Record != nil {
			entry = entry.Int64("revision", ev.Record.Revision).Bool("speculative", ev.Record.Speculative)
		}
		entry.Msg("entity changed")
	}
}

func (a *App) logEvents(ctx context.Context) {
	for ev := range a.engine.Events(ctx) {
		entry := a.logger.Warn()
		if ev.Kind == models.EventRecovered {
			entry = a.logger.Info()
		}
		entry.Err(ev.Err).
			Str("func", "App.logEvents").
			Str("kind", string(ev.Kind)).
			Int64("seq", ev.Seq).
			Str("collection", ev.Collection).
			Str("entity_id", ev.EntityID).
			Msg("sync engine event")
	}
}

func (a *App) serveMetrics(ctx context.Context) error {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Method(http.MethodGet, "/metrics", a.engine.Metrics().Handler())

	srv := &http.Server{
		Addr:              a.metricsAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info().Str("func", "App.serveMetrics").Str("address", a.metricsAddress).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
