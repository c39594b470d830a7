package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Size is one purchasable variant of a product. Everything besides the EU
// size string is optional; most shops expose only a subset.
type Size struct {
	UID          string     `json:"uid"`
	SizeEU       string     `json:"sizeEU"`
	Price        *float64   `json:"price"`
	URL          *string    `json:"url"`
	URLAddToCart *string    `json:"urlAddToCart"`
	IsInStock    StockState `json:"isInStock"`
}

func NewSize(sizeEU string, state StockState) *Size {
	return &Size{
		UID:       uuid.NewString(),
		SizeEU:    sizeEU,
		IsInStock: state,
	}
}

// Product is one watched page of a shop. All date fields are UTC UNIX
// stamps.
type Product struct {
	UID              string   `json:"uid"`
	Name             string   `json:"name"`
	URL              string   `json:"url"`
	BasePrice        *float64 `json:"basePrice"`
	Currency         *string  `json:"currency"`
	Sizes            []*Size  `json:"sizes"`
	URLThumb         *string  `json:"urlThumb"`
	ReleaseDateStamp *float64 `json:"releaseDateStamp"`
	LastScanStamp    float64  `json:"lastScanStamp"`
}

func NewProduct(url string) *Product {
	return &Product{
		UID:   uuid.NewString(),
		URL:   url,
		Sizes: make([]*Size, 0),
	}
}

// FindSize returns the stored size with the given EU size string, or nil.
// The returned pointer shares state with the product.
func (p *Product) FindSize(sizeEU string) *Size {
	for _, s := range p.Sizes {
		if s.SizeEU == sizeEU {
			return s
		}
	}
	return nil
}

func (p *Product) AddSize(size *Size) {
	if size == nil {
		return
	}
	p.Sizes = append(p.Sizes, size)
}

// ApplySize merges one scraped size observation into the product. The
// product counts as changed when the size is new, or when a size that was
// not known to be in stock now is. The stored stock flag is always
// overwritten with the observation.
func (p *Product) ApplySize(sizeEU string, inStock bool) bool {
	changed := false

	size := p.FindSize(sizeEU)
	if size == nil {
		size = NewSize(sizeEU, StockUnknown)
		p.AddSize(size)
		changed = true
	}

	if size.IsInStock != StockIn && inStock {
		changed = true
	}

	size.IsInStock = StockStateOf(inStock)
	return changed
}

// SetName records a scraped product name. Reports whether the product
// changed.
func (p *Product) SetName(name string) bool {
	if p.Name == "" || p.Name != name {
		p.Name = name
		return true
	}
	return false
}

// SetPrice records a scraped price with its currency. Reports whether the
// product changed. A stored price of zero counts as not scraped yet.
func (p *Product) SetPrice(price float64, currency string) bool {
	if p.BasePrice == nil || *p.BasePrice == 0 || *p.BasePrice != price {
		p.BasePrice = &price
		p.Currency = &currency
		return true
	}
	return false
}

// SetThumbURL records a scraped preview image URL. Reports whether the
// product changed.
func (p *Product) SetThumbURL(url string) bool {
	if p.URLThumb == nil || *p.URLThumb == "" || *p.URLThumb != url {
		p.URLThumb = &url
		return true
	}
	return false
}

// PriceWithCurrency renders the price for humans, falling back to "unknown"
// while no price has been scraped yet.
func (p *Product) PriceWithCurrency() string {
	switch {
	case p.BasePrice == nil || *p.BasePrice == 0:
		return "unknown"
	case p.Currency != nil && *p.Currency != "":
		return fmt.Sprintf("%.2f %s", *p.BasePrice, *p.Currency)
	default:
		return fmt.Sprintf("%.2f [UNKNOWN CURRENCY]", *p.BasePrice)
	}
}

// InStockSizes lists the EU size strings currently marked in stock, in
// stored order.
func (p *Product) InStockSizes() []string {
	sizes := make([]string, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		if s.IsInStock.InStock() {
			sizes = append(sizes, s.SizeEU)
		}
	}
	return sizes
}

// SetReleaseTime stores the product release moment as a UTC UNIX stamp.
func (p *Product) SetReleaseTime(t time.Time) {
	stamp := float64(t.UTC().Unix())
	p.ReleaseDateStamp = &stamp
}

func (p *Product) InvalidateReleaseDate() {
	p.ReleaseDateStamp = nil
}

// ReleaseTime reports the stored release moment in UTC, when one is known.
func (p *Product) ReleaseTime() (time.Time, bool) {
	if p.ReleaseDateStamp == nil || *p.ReleaseDateStamp == 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(*p.ReleaseDateStamp), 0).UTC(), true
}

func (p *Product) SetLastScanNow() {
	p.LastScanStamp = nowStamp()
}

func nowStamp() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
