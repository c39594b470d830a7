package ports

import (
	"context"

	"github.com/solewatch/solewatch/internal/core/domain"
)

// Notifier posts fire-and-forget webhook messages. Failures are returned
// for logging but must never stall or abort a scrape iteration.
type Notifier interface {
	SendProduct(ctx context.Context, product *domain.Product, shop *domain.Shop) error
	SendLog(ctx context.Context, msg string) error
	SendError(ctx context.Context, msg string) error
}
