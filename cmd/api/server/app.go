package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/config"
	"github.com/b0ase/cashboard/infra"
	"github.com/b0ase/cashboard/metrics"
	"github.com/b0ase/cashboard/plugin"
	"github.com/b0ase/cashboard/store"
	"github.com/b0ase/cashboard/workspace"
)

const shutdownTimeout = 5 * time.Second

// App is the wired service: store, sessions, HTTP router and the import
// watcher.
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	closer   io.Closer
	Store    *store.CanvasStore
	Metrics  *metrics.Metrics
	Sessions *workspace.Manager
	Queue    *infra.MemQueue
	Handler  http.Handler
}

// NewApp opens the configured store backend and wires the sessions onto it.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	kv, closer, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	m := metrics.New()
	cs := store.NewCanvasStore(kv, store.WithLogger(log), store.WithMetrics(m))
	bus := plugin.Fanout{plugin.LogBus{Log: log}, plugin.MetricsBus{M: m}}
	mgr := workspace.NewManager(m,
		workspace.WithStore(cs),
		workspace.WithBus(bus),
		workspace.WithLogger(log),
		workspace.WithCatalog(catalog.Builtin()),
	)
	a := &App{
		cfg:      cfg,
		log:      log,
		closer:   closer,
		Store:    cs,
		Metrics:  m,
		Sessions: mgr,
		Queue:    infra.NewMemQueue(),
	}
	a.Handler = NewRouter(Deps{Sessions: mgr, Store: cs, Metrics: m, Logger: log})
	return a, nil
}

func (a *App) Close() error { return a.closer.Close() }

// ImportFile reads path and imports it into the default session.
func (a *App) ImportFile(ctx context.Context, j infra.Job) error {
	b, err := os.ReadFile(j.Path)
	if err != nil {
		return err
	}
	w := a.Sessions.Default(ctx)
	format, err := w.ImportBytes(ctx, b)
	if err != nil {
		return err
	}
	a.log.Info("imported file",
		zap.String("job", j.ID),
		zap.String("path", j.Path),
		zap.String("format", format),
		zap.String("session", w.ID()),
	)
	return nil
}

// Run serves HTTP and, when watch is set, imports files dropped into the
// import directory. It returns when ctx is done or a component fails.
func (a *App) Run(ctx context.Context, watch bool) error {
	var w *infra.Watcher
	if watch {
		dir := a.cfg.ImportDir()
		if err := infra.EnsureDir(dir); err != nil {
			return err
		}
		var err error
		w, err = infra.NewWatcher(dir, a.cfg.Watch.Patterns, a.Queue, infra.WithWatchLogger(a.log))
		if err != nil {
			return err
		}
	}

	srv := &http.Server{Addr: a.cfg.Addr(), Handler: a.Handler}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if w != nil {
		g.Go(func() error {
			if _, err := w.Scan(gctx); err != nil {
				a.log.Warn("initial import scan", zap.Error(err))
			}
			return w.Run(gctx)
		})
		g.Go(func() error {
			err := infra.Consume(gctx, a.Queue, a.ImportFile, func(j infra.Job, err error) {
				a.log.Warn("import failed", zap.String("path", j.Path), zap.Error(err))
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}
