package ports

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/solewatch/solewatch/internal/core/domain"
)

// Extractor knows how to read one storefront's HTML. Hooks report whether
// they changed the product; errors count as parse failures and never abort
// a scan.
type Extractor interface {
	// URL is the storefront base URL the extractor is registered for.
	URL() string

	ShopName(doc *goquery.Document) (string, error)
	ProductName(doc *goquery.Document, product *domain.Product) (bool, error)
	ProductSizes(doc *goquery.Document, product *domain.Product) (bool, error)
	ProductPrice(doc *goquery.Document, product *domain.Product) (bool, error)
	ProductThumb(doc *goquery.Document, product *domain.Product) (bool, error)
	ProductReleaseTime(doc *goquery.Document, product *domain.Product) (bool, error)
}
