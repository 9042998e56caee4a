// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/cloudconsole/internal/activity"
	"github.com/matthewbaird/cloudconsole/internal/config"
	"github.com/matthewbaird/cloudconsole/internal/console"
	"github.com/matthewbaird/cloudconsole/internal/eventbus"
	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/handler"
	"github.com/matthewbaird/cloudconsole/internal/schema"
	"github.com/matthewbaird/cloudconsole/internal/store"
	"github.com/matthewbaird/cloudconsole/internal/wire"
)

// App holds the wired console components.
type App struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *schema.Registry
	bus      *eventbus.Bus
	activity *activity.MemoryStore
	manager  *form.Manager
	page     *console.Page
	dialogs  *handler.Dialogs
}

// New wires the console around s. A configured schema override is loaded
// before any dialog can open.
func New(cfg config.Config, s store.Store, logger *slog.Logger) (*App, error) {
	registry, err := schema.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("loading provider schemas: %w", err)
	}
	if cfg.Schema.OverrideFile != "" {
		if err := registry.ReloadFile(cfg.Schema.OverrideFile); err != nil {
			return nil, fmt.Errorf("loading schema override: %w", err)
		}
		logger.Info("schema override loaded", "file", cfg.Schema.OverrideFile, "providers", registry.Names())
	}

	bus := eventbus.New(cfg.Events.BufferSize, logger)
	act := activity.NewMemoryStore(cfg.Events.ActivityCapacity)
	bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	bus.Subscribe("activity", activity.NewIndexer(act, logger))

	page := console.NewPage(s, bus, logger)
	manager := form.NewManager(cfg.Session.MaxAge, cfg.Session.IdleTimeout, logger)
	loader := store.DelayedLoader{Store: s, MaxDelay: cfg.Loader.MaxDelay}

	return &App{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		bus:      bus,
		activity: act,
		manager:  manager,
		page:     page,
		dialogs:  handler.NewDialogs(manager, registry, loader, page, logger),
	}, nil
}

// Router registers every route.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handler.RequestLogger(a.logger))
	r.Use(handler.Recovery(a.logger))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// --- Pages ---
	pages := handler.NewPages(a.page, a.dialogs, a.activity, a.registry, a.cfg.Masked(), a.logger)
	r.Get("/", pages.Root)
	r.Get("/cloudmgmt", pages.CloudMgmt)
	r.Post("/cloudmgmt/dialogs", pages.OpenDialog)
	r.Get("/cloudmgmt/dialogs/{id}", pages.ShowDialog)
	r.Post("/cloudmgmt/dialogs/{id}", pages.PostDialog)
	r.Get("/security", pages.Security)
	r.Get("/properties", pages.Properties)
	r.Get("/settings", pages.Settings)

	r.Route("/v1", func(r chi.Router) {
		// --- CloudService ---
		ch := handler.NewCloudHandler(a.page, a.logger)
		r.Get("/clouds", ch.ListClouds)
		r.Get("/clouds/{id}", ch.GetCloud)

		// --- ProviderService ---
		ph := handler.NewProviderHandler(a.registry)
		r.Get("/providers", ph.ListProviders)
		r.Get("/providers/{name}", ph.GetProvider)

		// --- DialogService ---
		dh := handler.NewDialogHandler(a.dialogs, a.logger)
		r.Post("/dialogs", dh.OpenDialog)
		r.Handle("/dialogs/ws", wire.NewHandler(a.dialogs, a.logger))
		r.Get("/dialogs/{id}", dh.GetDialog)
		r.Post("/dialogs/{id}/events", dh.PostEvent)
		r.Delete("/dialogs/{id}", dh.CloseDialog)

		// --- ActivityService ---
		ah := handler.NewActivityHandler(a.activity, a.logger)
		r.Get("/activity", ah.HandleRecent)
		r.Get("/activity/clouds/{id}", ah.HandleGetCloudActivity)
		r.Get("/activity/summary/{id}", ah.HandleGetSignalSummary)
		r.Post("/activity/search", ah.HandleSearchActivity)
	})
	return r
}

// Run starts the event bus, session cleanup, the optional schema watcher and
// the HTTP server, and shuts them down when ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.bus.Start(ctx)
	defer a.bus.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.manager.Run(ctx, a.cfg.Session.CleanupInterval)
		return nil
	})
	if a.cfg.Schema.Watch {
		g.Go(func() error {
			return schema.Watch(ctx, a.cfg.Schema.OverrideFile, a.registry, a.logger)
		})
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: a.Router(),
	}
	g.Go(func() error {
		a.logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer done()
		a.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
