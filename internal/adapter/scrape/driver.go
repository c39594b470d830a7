package scrape

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
	"github.com/solewatch/solewatch/internal/util"
	"github.com/solewatch/solewatch/pkg/eventbus"
	"github.com/solewatch/solewatch/pkg/format"
)

// Driver scrapes one shop on a loop: fetch the shop page and every product
// page, extract, diff against the persisted snapshot, commit and notify.
// Each driver owns its shop aggregate, its request handle and its pacing;
// drivers never share state with each other.
type Driver struct {
	shop      *domain.Shop
	extractor ports.Extractor
	repo      ports.ShopRepository
	request   ports.Fetcher
	notifier  ports.Notifier
	events    *eventbus.WorkerPool[domain.ScrapeEvent]
	logger    logger.StyledLogger

	iterFrom float64
	iterTo   float64
	iterStep float64

	failCount atomic.Int32

	// shop name mirror for log lines, kept outside stateMu so logging
	// inside a locked section can never wedge the scan
	labelValue atomic.Value

	// Product hooks write disjoint fields of their own product and may run
	// in parallel on the read side. A commit marshals the whole shop and
	// needs it quiescent, so commits and shop-level writes take the write
	// side.
	stateMu sync.RWMutex

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Run scrapes the shop once. The shop page and all product pages travel
// concurrently. Returns the number of failed fetch or extraction steps in
// this pass.
func (d *Driver) Run(ctx context.Context) int {
	d.failCount.Store(0)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.scanShop(gctx)
		return nil
	})

	g.Go(func() error {
		d.scanProducts(gctx)
		return nil
	})

	_ = g.Wait()

	fails := int(d.failCount.Load())

	icon := "🔹"
	if fails > 0 {
		icon = "🔸"
	}

	d.logger.InfoWithShop(icon+"Scan completed", d.label(), "fails", fails, "url", d.shop.URL)

	return fails
}

// LoopRun scrapes until Stop or context cancellation. A running iteration
// always finishes; the stop flag is read between iterations and the
// inter-tick pause ends early on Stop.
func (d *Driver) LoopRun(ctx context.Context) {
	d.logger.Debug("Scrape loop entered", "url", d.shop.URL)

	for iteration := 1; ; iteration++ {
		start := time.Now()
		d.logger.InfoWithShop("Starting iteration", d.label(), "url", d.shop.URL, "last_scan", format.ScanStamp(d.shop.LastScanStamp))

		fails := d.Run(ctx)
		duration := time.Since(start)

		d.logger.InfoWithShop(fmt.Sprintf("🔹Iteration %d done", iteration), d.label(), "took", format.Seconds(duration))
		d.publish(domain.ScrapeEvent{
			Kind:      domain.EventIterationCompleted,
			Iteration: iteration,
			Fails:     fails,
			Duration:  duration,
		})

		if d.stopped(ctx) {
			d.logger.InfoWithShop("🚫 Scraper cancelled, exiting loop", d.label())
			return
		}

		pause := util.RandomSteppedDuration(d.iterFrom, d.iterTo, d.iterStep)
		d.logger.InfoWithShop("Waiting before running scraper again", d.label(), "wait", format.Seconds(pause))

		if !d.pause(ctx, pause) {
			d.logger.InfoWithShop("🚫 Scraper cancelled, exiting loop", d.label())
			return
		}
	}
}

// Stop ends the loop after the current iteration. Safe to call more than
// once and from any goroutine.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
}

// Shop returns the shop this driver scrapes.
func (d *Driver) Shop() *domain.Shop {
	return d.shop
}

func (d *Driver) scanShop(ctx context.Context) {
	d.logger.Debug("Request shop", "url", d.shop.URL)

	page, err := d.request.Fetch(ctx, d.shop.URL)
	if err != nil {
		d.failCount.Add(1)
		d.logger.WarnWithShop("Shop fetch failed", d.label(), "url", d.shop.URL, "error", err)
		d.publish(domain.ScrapeEvent{Kind: domain.EventFetchFailed, URL: d.shop.URL})

		return
	}

	if len(page.Body) == 0 {
		return
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		d.failCount.Add(1)
		d.logger.WarnWithShop("Shop page did not parse", d.label(), "url", d.shop.URL, "error", err)

		return
	}

	d.stateMu.Lock()
	changed := d.applyShopName(doc)
	d.shop.SetLastScanNow()
	d.stateMu.Unlock()

	if changed {
		d.commit(ctx, domain.ScrapeEvent{Kind: domain.EventShopUpdated, URL: d.shop.URL})
	}
}

// applyShopName fills the shop name on first sight, an existing name is
// never overwritten. Caller holds the write side.
func (d *Driver) applyShopName(doc *goquery.Document) bool {
	name, err := d.extractor.ShopName(doc)
	if err != nil {
		d.failCount.Add(1)
		d.logger.WarnWithShop("Failed parsing shop name", d.label(), "url", d.shop.URL, "error", err)

		return false
	}

	changed := d.shop.SetNameIfEmpty(name)
	if changed {
		d.labelValue.Store(d.shop.Name)
	} else {
		d.logger.Debug("Shop name exists, won't overwrite", "name", d.shop.Name, "url", d.shop.URL)
	}

	return changed
}

func (d *Driver) scanProducts(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	for _, product := range d.shop.Products {
		g.Go(func() error {
			d.scanProduct(gctx, product)
			return nil
		})
	}

	_ = g.Wait()
}

func (d *Driver) scanProduct(ctx context.Context, product *domain.Product) {
	d.logger.Debug("Request product", "url", product.URL)

	page, err := d.request.Fetch(ctx, product.URL)
	if err != nil {
		d.failCount.Add(1)
		d.logger.WarnWithShop("Product fetch failed", d.label(), "url", product.URL, "error", err)
		d.publish(domain.ScrapeEvent{Kind: domain.EventFetchFailed, URL: product.URL})

		return
	}

	if len(page.Body) == 0 {
		return
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		d.failCount.Add(1)
		d.logger.WarnWithShop("Product page did not parse", d.label(), "url", product.URL, "error", err)

		return
	}

	d.stateMu.RLock()
	changed := d.extract(doc, product)
	product.SetLastScanNow()
	d.stateMu.RUnlock()

	d.logger.Debug("Completed product", "url", product.URL)

	if !changed {
		return
	}

	if !d.commit(ctx, domain.ScrapeEvent{Kind: domain.EventProductChanged, URL: product.URL}) {
		return
	}

	if err := d.notifier.SendProduct(ctx, product, d.shop); err != nil {
		d.logger.WarnWithShop("Product notification failed", d.label(), "url", product.URL, "error", err)
	}
}

// extract runs all product hooks concurrently and reports whether any of
// them saw a change. A failed hook counts one fail and never aborts the
// others.
func (d *Driver) extract(doc *goquery.Document, product *domain.Product) bool {
	type hook struct {
		name string
		fn   func(*goquery.Document, *domain.Product) (bool, error)
	}

	hooks := []hook{
		{name: "name", fn: d.extractor.ProductName},
		{name: "sizes", fn: d.extractor.ProductSizes},
		{name: "price", fn: d.extractor.ProductPrice},
		{name: "thumb", fn: d.extractor.ProductThumb},
		{name: "release time", fn: d.extractor.ProductReleaseTime},
	}

	results := make([]bool, len(hooks))

	var wg sync.WaitGroup

	for i, h := range hooks {
		wg.Add(1)

		go func() {
			defer wg.Done()

			changed, err := h.fn(doc, product)
			if err != nil {
				d.failCount.Add(1)
				d.logger.WarnWithShop("Failed extracting product "+h.name, d.label(), "url", product.URL, "error", err)

				return
			}

			results[i] = changed
		}()
	}

	wg.Wait()

	for _, changed := range results {
		if changed {
			return true
		}
	}

	return false
}

// commit persists the shop aggregate. Reports success so callers can skip
// notifications for a snapshot that never landed.
func (d *Driver) commit(ctx context.Context, event domain.ScrapeEvent) bool {
	d.stateMu.Lock()
	err := d.repo.Update(ctx, d.shop)
	d.stateMu.Unlock()

	if err != nil {
		d.failCount.Add(1)
		d.logger.ErrorWithShop("Persisting shop failed", d.label(), "url", d.shop.URL, "error", err)

		return false
	}

	d.publish(event)

	return true
}

func (d *Driver) publish(event domain.ScrapeEvent) {
	if d.events == nil {
		return
	}

	event.Timestamp = time.Now()
	event.ShopURL = d.shop.URL
	event.ShopName = d.label()

	d.events.PublishAsync(event)
}

// label names the shop in logs, falling back to the URL until the first
// scan fills the name.
func (d *Driver) label() string {
	if name, ok := d.labelValue.Load().(string); ok && name != "" {
		return name
	}

	return d.shop.URL
}

func (d *Driver) stopped(ctx context.Context) bool {
	select {
	case <-d.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (d *Driver) pause(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-d.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}
