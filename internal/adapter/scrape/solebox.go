package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
)

const soleboxURL = "https://www.solebox.com"

func init() {
	Register(soleboxURL, func(log logger.StyledLogger) ports.Extractor {
		return &Solebox{logger: log}
	})
}

// Solebox reads solebox.com product pages. Product details ride a GTM JSON
// attribute, sizes are swatch spans with sold-out modifier classes.
type Solebox struct {
	logger logger.StyledLogger
}

func (s *Solebox) URL() string { return soleboxURL }

func (s *Solebox) ShopName(doc *goquery.Document) (string, error) {
	return titleShopName(doc)
}

func (s *Solebox) ProductName(doc *goquery.Document, product *domain.Product) (bool, error) {
	details, found := doc.Find("div.js-product-details").First().Attr("data-gtm")
	if !found {
		return false, errNoMatches
	}

	name := gjson.Get(details, "name").String()
	if name == "" {
		return false, errNoMatches
	}

	s.logger.Debug("Found product name", "name", name, "url", product.URL)

	return product.SetName(name), nil
}

func (s *Solebox) ProductSizes(doc *goquery.Document, product *domain.Product) (bool, error) {
	scraped := make(map[string]bool)

	doc.Find("span.js-size-value").Each(func(_ int, span *goquery.Selection) {
		size := strings.TrimSpace(span.Text())
		if size == "" {
			return
		}

		soldOut := span.HasClass("b-swatch-value--in-store-only") ||
			span.HasClass("b-swatch-value--sold-out")

		scraped[size] = scraped[size] || !soldOut
	})

	if len(scraped) == 0 {
		return false, errNoMatches
	}

	return applySizes(product, scraped), nil
}

func (s *Solebox) ProductPrice(doc *goquery.Document, product *domain.Product) (bool, error) {
	display := doc.Find("div.b-pdp-product-info-section span.b-product-tile-price-item").First().Text()

	price, currency, err := splitPriceAndCurrency(display)
	if err != nil {
		return false, err
	}

	s.logger.Debug("Extracted product price and currency", "url", product.URL)

	return product.SetPrice(price, currency), nil
}

func (s *Solebox) ProductThumb(doc *goquery.Document, product *domain.Product) (bool, error) {
	item := doc.Find("div.b-pdp-product-preview-wrapper div.b-pdp-carousel-item").First()

	thumb, found := item.Find("div").First().Attr("data-default-src")
	if !found || thumb == "" {
		return false, errNoMatches
	}

	return product.SetThumbURL(thumb), nil
}

func (s *Solebox) ProductReleaseTime(doc *goquery.Document, product *domain.Product) (bool, error) {
	return false, nil
}
