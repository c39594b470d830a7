package app

import (
	"context"
	"sync"
	"time"

	"github.com/solewatch/solewatch/internal/adapter/scrape"
	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
)

// Supervisor owns the running driver set, one driver per shop. Start, Stop
// and Reload serialize on the supervisor mutex; drivers themselves run free.
type Supervisor struct {
	repo   ports.ShopRepository
	urls   ports.ProductURLSource
	deps   scrape.DriverDeps
	logger logger.StyledLogger

	mu        sync.Mutex
	drivers   map[string]*runningDriver
	runCtx    context.Context
	runCancel context.CancelFunc
	started   bool
}

// runningDriver pairs a driver with the channel its loop goroutine closes on
// exit.
type runningDriver struct {
	driver *scrape.Driver
	done   chan struct{}
}

func NewSupervisor(repo ports.ShopRepository, urls ports.ProductURLSource, deps scrape.DriverDeps, log logger.StyledLogger) *Supervisor {
	return &Supervisor{
		repo:    repo,
		urls:    urls,
		deps:    deps,
		logger:  log,
		drivers: make(map[string]*runningDriver),
	}
}

// Start builds drivers for every stored shop and launches their scrape
// loops. Shops without a registered scraper are skipped with a warning.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	shops, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}

	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.started = true

	for _, driver := range scrape.NewDrivers(s.runCtx, shops, s.deps) {
		s.launchLocked(driver)
	}

	s.logger.InfoWithCount("Started scrapers", len(s.drivers))

	return nil
}

// Stop flags every driver, then waits for the loops to drain. When the
// context expires first the run context is cancelled so in-flight requests
// abort instead of running out their own budgets.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()
		return nil
	}

	s.started = false

	running := make([]*runningDriver, 0, len(s.drivers))
	for _, r := range s.drivers {
		running = append(running, r)
	}

	s.drivers = make(map[string]*runningDriver)
	runCancel := s.runCancel
	s.mu.Unlock()

	for _, r := range running {
		r.driver.Stop()
	}

	drained := make(chan struct{})
	go func() {
		for _, r := range running {
			<-r.done
		}
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		s.logger.Warn("Drivers still busy at shutdown deadline, cancelling")
		runCancel()
		<-drained
	}

	runCancel()
	s.logger.Info("All scrapers stopped")

	return nil
}

// Reload re-reconciles the shops table against the product URL file and
// brings the driver set in line: drivers for vanished shops stop, shops with
// a changed product set get a fresh driver, untouched shops keep scraping
// uninterrupted.
func (s *Supervisor) Reload(ctx context.Context) error {
	if err := s.repo.UpdateFromProductURLs(ctx, s.urls); err != nil {
		return err
	}

	shops, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}

	s.publish(domain.ScrapeEvent{Kind: domain.EventReconcileCompleted})

	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()
		return nil
	}

	wanted := make(map[string]*domain.Shop, len(shops))
	for _, shop := range shops {
		wanted[shop.URL] = shop
	}

	var victims []*runningDriver

	for url, r := range s.drivers {
		if shop, ok := wanted[url]; ok && sameProducts(r.driver.Shop(), shop) {
			delete(wanted, url)
			continue
		}

		victims = append(victims, r)
		delete(s.drivers, url)

		s.logger.InfoWithShop("Stopping scraper, watch list changed", r.driver.Shop().URL)
	}
	s.mu.Unlock()

	// Wait the victims out before replacing them: a stale driver committing
	// after its replacement started would overwrite the reconciled record.
	for _, victim := range victims {
		victim.driver.Stop()
	}

	for _, victim := range victims {
		select {
		case <-victim.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	fresh := make([]*domain.Shop, 0, len(wanted))
	for _, shop := range shops {
		if _, ok := wanted[shop.URL]; ok {
			fresh = append(fresh, shop)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	if len(fresh) > 0 {
		for _, driver := range scrape.NewDrivers(s.runCtx, fresh, s.deps) {
			s.launchLocked(driver)
		}
	}

	s.logger.InfoWithCount("Reload complete, scrapers running", len(s.drivers))

	return nil
}

// DriverCount reports how many scrape loops are running.
func (s *Supervisor) DriverCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.drivers)
}

func (s *Supervisor) launchLocked(driver *scrape.Driver) {
	url := driver.Shop().URL

	if _, ok := s.drivers[url]; ok {
		return
	}

	running := &runningDriver{driver: driver, done: make(chan struct{})}
	s.drivers[url] = running
	ctx := s.runCtx

	go func() {
		defer close(running.done)
		driver.LoopRun(ctx)
	}()
}

func (s *Supervisor) publish(event domain.ScrapeEvent) {
	if s.deps.Events == nil {
		return
	}

	event.Timestamp = time.Now()
	s.deps.Events.PublishAsync(event)
}

// sameProducts reports whether both shops watch the same product URL set.
func sameProducts(a, b *domain.Shop) bool {
	if len(a.Products) != len(b.Products) {
		return false
	}

	urls := make(map[string]struct{}, len(a.Products))
	for _, p := range a.Products {
		urls[p.URL] = struct{}{}
	}

	for _, p := range b.Products {
		if _, ok := urls[p.URL]; !ok {
			return false
		}
	}

	return true
}
