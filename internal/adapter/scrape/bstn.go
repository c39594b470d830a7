package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
)

const bstnURL = "https://www.bstn.com"

func init() {
	Register(bstnURL, func(log logger.StyledLogger) ports.Extractor {
		return &Bstn{logger: log}
	})
}

// Bstn reads bstn.com product pages. Sizes live in an option dropdown where
// an empty class attribute marks availability, prices in itemprop metas.
type Bstn struct {
	logger logger.StyledLogger
}

func (b *Bstn) URL() string { return bstnURL }

func (b *Bstn) ShopName(doc *goquery.Document) (string, error) {
	return titleShopName(doc)
}

func (b *Bstn) ProductName(doc *goquery.Document, product *domain.Product) (bool, error) {
	name := strings.TrimSpace(doc.Find("div#detailRight span.productname").First().Text())
	if name == "" {
		return false, errNoMatches
	}

	b.logger.Debug("Found product name", "name", name, "url", product.URL)

	return product.SetName(name), nil
}

func (b *Bstn) ProductSizes(doc *goquery.Document, product *domain.Product) (bool, error) {
	scraped, err := optionDropdownSizes(doc.Find("div.edd-dropdown.clear").First())
	if err != nil {
		return false, err
	}

	return applySizes(product, scraped), nil
}

func (b *Bstn) ProductPrice(doc *goquery.Document, product *domain.Product) (bool, error) {
	box := doc.Find("div.buybox div.price").First()

	priceRaw, foundPrice := box.Find(`meta[itemprop="price"]`).First().Attr("content")
	currency, foundCurrency := box.Find(`meta[itemprop="pricecurrency"]`).First().Attr("content")

	if !foundPrice || !foundCurrency {
		return false, errNoMatches
	}

	price, err := parsePrice(priceRaw)
	if err != nil {
		return false, err
	}

	b.logger.Debug("Extracted product price and currency", "url", product.URL)

	return product.SetPrice(price, currency), nil
}

func (b *Bstn) ProductThumb(doc *goquery.Document, product *domain.Product) (bool, error) {
	thumb, found := doc.Find("li.thumbnail-1 div.wrap img").First().Attr("src")
	if !found || thumb == "" {
		return false, errNoMatches
	}

	return product.SetThumbURL(thumb), nil
}

func (b *Bstn) ProductReleaseTime(doc *goquery.Document, product *domain.Product) (bool, error) {
	return false, nil
}
