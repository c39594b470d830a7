package ports

import (
	"context"

	"github.com/solewatch/solewatch/internal/core/domain"
)

// ShopRepository is the single writer for the shops table. Implementations
// serialize mutations so concurrent drivers cannot interleave partial
// updates.
type ShopRepository interface {
	GetAll(ctx context.Context) ([]*domain.Shop, error)
	SetAll(ctx context.Context, shops []*domain.Shop) error
	Update(ctx context.Context, shop *domain.Shop) error
	FindByUID(ctx context.Context, uid string) (*domain.Shop, error)
	FindByName(ctx context.Context, name string) ([]*domain.Shop, error)
	UpdateFromProductURLs(ctx context.Context, source ProductURLSource) error
}

// ProductURLSource lists the watched product pages.
type ProductURLSource interface {
	GetAll(ctx context.Context) ([]*domain.Product, error)
	CreateShops(ctx context.Context) ([]*domain.Shop, error)
}

// ProxySource hands out forward proxies for request attempts.
type ProxySource interface {
	GetAll(ctx context.Context) ([]*domain.Proxy, error)
	Add(ctx context.Context, proxy *domain.Proxy) error
	Random(ctx context.Context) (*domain.Proxy, error)
}

// UserAgentSource hands out user agent strings for request attempts.
type UserAgentSource interface {
	GetAll(ctx context.Context) ([]string, error)
	Add(ctx context.Context, agent string) error
	Random(ctx context.Context) (string, error)
}

// SettingsSource reads runtime settings from the config store. Lookups fall
// back along byURL → common → rescue and always return something usable.
type SettingsSource interface {
	LoggerSettings(ctx context.Context) domain.LoggerSettings
	ScraperSettings(ctx context.Context) domain.ScraperSettings
	ScraperSettingsByURL(ctx context.Context, url string) domain.ScraperSettings
}

// MessengerSource reads webhook routing and message configs.
type MessengerSource interface {
	WebhookEndpoint(ctx context.Context) (string, error)
	ProductMessageSettings(ctx context.Context) (domain.MessengerSettings, error)
	LogMessageSettings(ctx context.Context) (domain.MessengerSettings, error)
	ErrorMessageSettings(ctx context.Context) (domain.MessengerSettings, error)
}
