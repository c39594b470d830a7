package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
)

const footdistrictURL = "https://footdistrict.com"

const (
	sizeConfigMarker  = "new Product.Config"
	addToCartMarker   = "fbq('track', 'AddToCart'"
	releaseDateMarker = "var countDownDate"
	sizeNotAvailable  = "Not available"
	sizeAttributeID   = "134"
)

var (
	// the size config rides inline JS like
	// var spConfig = new Product.Config({"attributes":{"134":{...}}});
	configJSONPattern = regexp.MustCompile(`[^{]*({.*\})`)

	// size labels look like "37 * Not available" or "39.5"
	sizeNumberPattern = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)

	trackValuePattern    = regexp.MustCompile(`value:\s+(.*?)[,\n]`)
	trackCurrencyPattern = regexp.MustCompile(`currency:\s+(.*?)[,\n]`)

	releaseDatePattern = regexp.MustCompile(
		`[0-9]{4}-(0[1-9]|1[0-2])-(0[1-9]|[1-2][0-9]|3[0-1]) (2[0-3]|[01][0-9]):[0-5][0-9]:[0-5][0-9]`)
)

func init() {
	Register(footdistrictURL, func(log logger.StyledLogger) ports.Extractor {
		return &Footdistrict{logger: log}
	})
}

// Footdistrict reads footdistrict.com product pages. Sizes and prices hide
// in inline javascript rather than the markup, so the hooks fish script
// blocks by marker and pull the data out with regexes.
type Footdistrict struct {
	logger logger.StyledLogger
}

func (f *Footdistrict) URL() string { return footdistrictURL }

func (f *Footdistrict) ShopName(doc *goquery.Document) (string, error) {
	return titleShopName(doc)
}

func (f *Footdistrict) ProductName(doc *goquery.Document, product *domain.Product) (bool, error) {
	name := strings.TrimSpace(doc.Find("div.product-shop div.product-name").First().Text())
	if name == "" {
		return false, errNoMatches
	}

	f.logger.Debug("Found product name", "name", name, "url", product.URL)

	return product.SetName(name), nil
}

// ProductSizes walks the option labels of the size config JSON in their
// listed order. A label carrying the not-available marker counts as out of
// stock.
func (f *Footdistrict) ProductSizes(doc *goquery.Document, product *domain.Product) (bool, error) {
	code, found := scriptWithText(doc, sizeConfigMarker)
	if !found {
		return false, errNoMatches
	}

	match := configJSONPattern.FindStringSubmatch(code)
	if match == nil || match[1] == "" {
		return false, errNoMatches
	}

	options := gjson.Get(match[1], "attributes."+sizeAttributeID+".options")
	if !options.IsArray() {
		return false, errNoMatches
	}

	type scrapedSize struct {
		size    string
		inStock bool
	}

	var sizes []scrapedSize

	options.ForEach(func(_, item gjson.Result) bool {
		label := item.Get("label").String()
		if label == "" {
			return true
		}

		size := sizeNumberPattern.FindString(label)
		if size == "" {
			return true
		}

		sizes = append(sizes, scrapedSize{
			size:    size,
			inStock: !strings.Contains(label, sizeNotAvailable),
		})

		return true
	})

	if len(sizes) == 0 {
		return false, errNoMatches
	}

	f.logger.Debug("Processed sizes from JS code", "count", len(sizes), "url", product.URL)

	changed := false

	for _, s := range sizes {
		if product.ApplySize(s.size, s.inStock) {
			changed = true
		}
	}

	return changed, nil
}

func (f *Footdistrict) ProductPrice(doc *goquery.Document, product *domain.Product) (bool, error) {
	code, found := scriptWithText(doc, addToCartMarker)
	if !found {
		return false, errNoMatches
	}

	priceMatch := trackValuePattern.FindStringSubmatch(code)
	currencyMatch := trackCurrencyPattern.FindStringSubmatch(code)

	if priceMatch == nil || currencyMatch == nil {
		return false, errNoMatches
	}

	price, err := parsePrice(strings.Trim(priceMatch[1], "'"))
	if err != nil {
		return false, err
	}

	f.logger.Debug("Extracted product price and currency from JS code", "url", product.URL)

	return product.SetPrice(price, strings.Trim(currencyMatch[1], "'")), nil
}

func (f *Footdistrict) ProductThumb(doc *goquery.Document, product *domain.Product) (bool, error) {
	views := doc.Find("div.product-img-box div.more-views.mobilehidden").First()

	thumb, found := views.Find("a").First().Attr("href")
	if !found || thumb == "" {
		return false, errNoMatches
	}

	return product.SetThumbURL(thumb), nil
}

// ProductReleaseTime only observes. Release countdowns are rare, a missing
// script is routine and never counts as a failure, and a found date is
// logged without touching the product.
func (f *Footdistrict) ProductReleaseTime(doc *goquery.Document, product *domain.Product) (bool, error) {
	code, found := scriptWithText(doc, releaseDateMarker)
	if !found {
		f.logger.Debug("No JS code with release date found", "url", product.URL)
		return false, nil
	}

	if date := releaseDatePattern.FindString(code); date != "" {
		f.logger.Debug("Found release date in JS code", "date", date, "url", product.URL)
	}

	return false, nil
}
