package scrape

import (
	"context"
	"fmt"
	"sync"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
	"github.com/solewatch/solewatch/pkg/eventbus"
)

// ExtractorFactory builds one storefront's extractor.
type ExtractorFactory func(log logger.StyledLogger) ports.Extractor

type registration struct {
	url     string
	factory ExtractorFactory
}

var (
	registryMu    sync.RWMutex
	registrations []registration
)

// Register adds a storefront factory under its base URL. The site files
// register themselves at init, tests may add throwaway storefronts on top.
func Register(url string, factory ExtractorFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registrations = append(registrations, registration{url: url, factory: factory})
}

// ForShop picks the extractor registered for the shop's URL. Zero or more
// than one registration is a lookup failure, a shop must map to exactly one
// storefront.
func ForShop(shop *domain.Shop, log logger.StyledLogger) (ports.Extractor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var matches []registration

	for _, reg := range registrations {
		if reg.url == shop.URL {
			matches = append(matches, reg)
		}
	}

	switch {
	case len(matches) == 0:
		return nil, domain.NewLookupError("registered scraper", shop.URL, nil)
	case len(matches) > 1:
		return nil, domain.NewLookupError("single scraper", shop.URL, fmt.Errorf("%d candidates registered", len(matches)))
	}

	return matches[0].factory(log), nil
}

// DriverDeps carries everything the drivers of one supervisor share.
type DriverDeps struct {
	Repo     ports.ShopRepository
	Requests ports.RequestFactory
	Settings ports.SettingsSource
	Notifier ports.Notifier
	Events   *eventbus.WorkerPool[domain.ScrapeEvent]
	Logger   logger.StyledLogger
}

// NewDriver binds a shop to its extractor, with pacing and request settings
// resolved from the config store under the storefront URL.
func NewDriver(ctx context.Context, shop *domain.Shop, extractor ports.Extractor, deps DriverDeps) *Driver {
	settings := deps.Settings.ScraperSettingsByURL(ctx, extractor.URL())
	from, to, step := settings.IterSleep()

	driver := &Driver{
		shop:      shop,
		extractor: extractor,
		repo:      deps.Repo,
		request:   deps.Requests.NewRequest(settings.FetchSettings()),
		notifier:  deps.Notifier,
		events:    deps.Events,
		logger:    deps.Logger,
		iterFrom:  from,
		iterTo:    to,
		iterStep:  step,
		stopCh:    make(chan struct{}),
	}

	driver.labelValue.Store(shop.Name)

	return driver
}

// NewDrivers builds one driver per shop with a registered extractor. Shops
// without one are skipped with a warning, the rest still get their drivers.
func NewDrivers(ctx context.Context, shops []*domain.Shop, deps DriverDeps) []*Driver {
	if len(shops) == 0 {
		deps.Logger.Warn("No shops to scrape, driver set stays empty")
		return nil
	}

	drivers := make([]*Driver, 0, len(shops))

	for _, shop := range shops {
		extractor, err := ForShop(shop, deps.Logger)
		if err != nil {
			deps.Logger.Warn("Skipping shop without scraper", "url", shop.URL, "error", err)
			continue
		}

		drivers = append(drivers, NewDriver(ctx, shop, extractor, deps))
	}

	return drivers
}
