package domain

import "time"

// ScrapeEventKind labels what a driver just observed.
type ScrapeEventKind string

const (
	EventIterationCompleted ScrapeEventKind = "iteration_completed"
	EventShopUpdated        ScrapeEventKind = "shop_updated"
	EventProductChanged     ScrapeEventKind = "product_changed"
	EventFetchFailed        ScrapeEventKind = "fetch_failed"
	EventReconcileCompleted ScrapeEventKind = "reconcile_completed"
)

// ScrapeEvent is published on the internal bus as drivers work. Consumers
// must not mutate it.
type ScrapeEvent struct {
	Timestamp time.Time
	Kind      ScrapeEventKind
	ShopURL   string
	ShopName  string
	URL       string
	Iteration int
	Fails     int
	Duration  time.Duration
}
