package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
	"github.com/solewatch/solewatch/internal/util"
)

const sneakAvenueURL = "https://www.sneak-a-venue.de"

func init() {
	Register(sneakAvenueURL, func(log logger.StyledLogger) ports.Extractor {
		return &SneakAvenue{logger: log}
	})
}

// SneakAvenue reads sneak-a-venue.de product pages. The markup follows the
// same shop system as BSTN, except thumbnails come as relative paths.
type SneakAvenue struct {
	logger logger.StyledLogger
}

func (s *SneakAvenue) URL() string { return sneakAvenueURL }

func (s *SneakAvenue) ShopName(doc *goquery.Document) (string, error) {
	return titleShopName(doc)
}

func (s *SneakAvenue) ProductName(doc *goquery.Document, product *domain.Product) (bool, error) {
	name := strings.TrimSpace(doc.Find("div#detailRight span.productname").First().Text())
	if name == "" {
		return false, errNoMatches
	}

	s.logger.Debug("Found product name", "name", name, "url", product.URL)

	return product.SetName(name), nil
}

func (s *SneakAvenue) ProductSizes(doc *goquery.Document, product *domain.Product) (bool, error) {
	scraped, err := optionDropdownSizes(doc.Find("div.selectVariants.clear").First())
	if err != nil {
		return false, err
	}

	return applySizes(product, scraped), nil
}

func (s *SneakAvenue) ProductPrice(doc *goquery.Document, product *domain.Product) (bool, error) {
	box := doc.Find("div.buybox div.price").First()

	priceRaw, foundPrice := box.Find(`meta[itemprop="price"]`).First().Attr("content")
	currency, foundCurrency := box.Find(`meta[itemprop="priceCurrency"]`).First().Attr("content")

	if !foundPrice || !foundCurrency {
		return false, errNoMatches
	}

	price, err := parsePrice(priceRaw)
	if err != nil {
		return false, err
	}

	s.logger.Debug("Extracted product price and currency", "url", product.URL)

	return product.SetPrice(price, currency), nil
}

// ProductThumb resolves the relative image path against the shop base URL
// before comparing, the stored thumb is always absolute.
func (s *SneakAvenue) ProductThumb(doc *goquery.Document, product *domain.Product) (bool, error) {
	thumb, found := doc.Find("div.thumbnail-1 div.wrap img").First().Attr("src")
	if !found || thumb == "" {
		return false, errNoMatches
	}

	return product.SetThumbURL(util.ResolveURLPath(sneakAvenueURL, thumb)), nil
}

func (s *SneakAvenue) ProductReleaseTime(doc *goquery.Document, product *domain.Product) (bool, error) {
	return false, nil
}
