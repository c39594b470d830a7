package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/solewatch/solewatch/internal/adapter/fetch"
	"github.com/solewatch/solewatch/internal/adapter/notify"
	"github.com/solewatch/solewatch/internal/adapter/scrape"
	"github.com/solewatch/solewatch/internal/adapter/store"
	"github.com/solewatch/solewatch/internal/config"
	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/logger"
	"github.com/solewatch/solewatch/pkg/eventbus"
)

// Application wires the stores, the fetch session, the notifier and the
// scraper supervisor together and owns their lifecycle.
type Application struct {
	cfg    *config.Config
	logger logger.StyledLogger

	fs         afero.Fs
	shops      *store.Shops
	urls       *store.ProductURLs
	settings   *store.Settings
	messengers *store.Messengers
	session    *fetch.Session
	notifier   *notify.Webhook

	bus    *eventbus.Bus[domain.ScrapeEvent]
	events *eventbus.WorkerPool[domain.ScrapeEvent]
	stats  *scrapeStats

	supervisor *Supervisor
	watcher    *Watcher
}

// New builds the full dependency graph. Stores open lazily, so the only
// thing that can fail here is creating the data directory.
func New(cfg *config.Config, log logger.StyledLogger) (*Application, error) {
	fs := afero.NewOsFs()

	if err := fs.MkdirAll(cfg.Store.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %q: %w", cfg.Store.DataDir, err)
	}

	shops := store.NewShops(store.OpenDocument(fs, cfg.Store.ShopsPath()), log)
	urls := store.NewProductURLs(fs, cfg.Store.ProductURLsPath(), log)
	proxies := store.NewProxies(fs, cfg.Store.ProxiesPath(), log)
	agents := store.NewUserAgents(fs, cfg.Store.UserAgentsPath())
	settings := store.NewSettings(store.OpenDocument(fs, cfg.Store.ConfigPath()), log)
	messengers := store.NewMessengers(store.OpenDocument(fs, cfg.Store.MessengersPath()))

	session := fetch.NewSession(proxies, agents, log)
	notifier := notify.NewWebhook(messengers, session, log)

	bus := eventbus.New[domain.ScrapeEvent](cfg.Events.BufferSize)
	events := eventbus.NewWorkerPool(bus, cfg.Events.Workers, cfg.Events.QueueSize)

	supervisor := NewSupervisor(shops, urls, scrape.DriverDeps{
		Repo:     shops,
		Requests: session,
		Settings: settings,
		Notifier: notifier,
		Events:   events,
		Logger:   log,
	}, log)

	app := &Application{
		cfg:        cfg,
		logger:     log,
		fs:         fs,
		shops:      shops,
		urls:       urls,
		settings:   settings,
		messengers: messengers,
		session:    session,
		notifier:   notifier,
		bus:        bus,
		events:     events,
		stats:      newScrapeStats(),
		supervisor: supervisor,
	}

	if cfg.Watcher.Enabled {
		app.watcher = NewWatcher(cfg.Store.ProductURLsPath(), cfg.Watcher.Debounce, supervisor.Reload, log)
	}

	return app, nil
}

// Start reconciles the shop table against the product URL file, then brings
// up the scrapers and the file watcher. A startup notice goes out on the
// log webhook, best effort.
func (a *Application) Start(ctx context.Context) error {
	a.logger.Info("Starting solewatch", "data_dir", a.cfg.Store.DataDir)

	if err := a.shops.UpdateFromProductURLs(ctx, a.urls); err != nil {
		a.sendError(ctx, "Startup failed: "+err.Error())
		return fmt.Errorf("failed to reconcile shops: %w", err)
	}

	a.stats.run(a.bus.Subscribe(context.Background()))

	if err := a.supervisor.Start(ctx); err != nil {
		a.sendError(ctx, "Startup failed: "+err.Error())
		return fmt.Errorf("failed to start scrapers: %w", err)
	}

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.logger.Warn("File watcher unavailable, live reload disabled", "error", err)
			a.watcher = nil
		}
	}

	count := a.supervisor.DriverCount()
	a.logger.InfoWithCount("Solewatch started, watching shops", count)
	a.sendLog(ctx, fmt.Sprintf("Started watching %d shops", count))

	return nil
}

// Stop winds the application down inside the configured shutdown window:
// watcher first so no reload races the teardown, then the scrapers, then
// the event pipeline, then the HTTP session.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.App.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping solewatch")

	if a.watcher != nil {
		a.watcher.Stop()
	}

	if err := a.supervisor.Stop(shutdownCtx); err != nil {
		a.logger.Error("Failed to stop scrapers cleanly", "error", err)
	}

	a.sendLog(shutdownCtx, "Solewatch shutting down")

	a.events.Shutdown()
	a.stats.stop()
	a.logger.Info("Scrape counters",
		"iterations", a.stats.iterations.Load(),
		"shop_updates", a.stats.shopUpdates.Load(),
		"product_changes", a.stats.productChanges.Load(),
		"fetch_failures", a.stats.fetchFailures.Load(),
		"reconciles", a.stats.reconciles.Load())
	a.bus.Shutdown()

	a.session.Close()

	a.logger.Info("Solewatch stopped")

	return nil
}

func (a *Application) sendLog(ctx context.Context, msg string) {
	if err := a.notifier.SendLog(ctx, msg); err != nil {
		a.logger.Debug("Log notification not delivered", "error", err)
	}
}

func (a *Application) sendError(ctx context.Context, msg string) {
	if err := a.notifier.SendError(ctx, msg); err != nil {
		a.logger.Debug("Error notification not delivered", "error", err)
	}
}

// scrapeStats tallies bus events for the shutdown report.
type scrapeStats struct {
	iterations     atomic.Int64
	shopUpdates    atomic.Int64
	productChanges atomic.Int64
	fetchFailures  atomic.Int64
	reconciles     atomic.Int64

	unsubscribe func()
	done        chan struct{}
}

func newScrapeStats() *scrapeStats {
	return &scrapeStats{done: make(chan struct{})}
}

func (s *scrapeStats) run(events <-chan domain.ScrapeEvent, unsubscribe func()) {
	s.unsubscribe = unsubscribe

	go func() {
		defer close(s.done)

		for event := range events {
			switch event.Kind {
			case domain.EventIterationCompleted:
				s.iterations.Add(1)
			case domain.EventShopUpdated:
				s.shopUpdates.Add(1)
			case domain.EventProductChanged:
				s.productChanges.Add(1)
			case domain.EventFetchFailed:
				s.fetchFailures.Add(1)
			case domain.EventReconcileCompleted:
				s.reconciles.Add(1)
			}
		}
	}()
}

// stop ends the subscription and waits for the tally goroutine, so the
// counters are settled when the caller reads them.
func (s *scrapeStats) stop() {
	if s.unsubscribe == nil {
		return
	}

	s.unsubscribe()
	<-s.done
}
