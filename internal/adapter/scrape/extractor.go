package scrape

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/solewatch/solewatch/internal/core/domain"
)

var errNoMatches = errors.New("no matches in HTML tree")

// priceWithCurrencyPattern splits strings like "98,55 €" into price and
// currency.
var priceWithCurrencyPattern = regexp.MustCompile(`([0-9.,]+)\s+([^0-9]+)`)

// titleShopName reads the page title, the shop-name rule every storefront
// shares. The caller only applies it when the shop is still unnamed.
func titleShopName(doc *goquery.Document) (string, error) {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return "", errNoMatches
	}

	return title, nil
}

// parsePrice reads a decimal price that may carry a comma separator.
func parsePrice(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
}

// splitPriceAndCurrency takes a combined display string like "98,55 €".
func splitPriceAndCurrency(raw string) (float64, string, error) {
	match := priceWithCurrencyPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return 0, "", errNoMatches
	}

	price, err := parsePrice(match[1])
	if err != nil {
		return 0, "", err
	}

	return price, match[2], nil
}

// applySizes walks the scraped size set in sorted order and reports whether
// any size was new or restocked. A size listed twice counts as in stock when
// any of its occurrences is.
func applySizes(product *domain.Product, scraped map[string]bool) bool {
	sizes := make([]string, 0, len(scraped))
	for size := range scraped {
		sizes = append(sizes, size)
	}

	sort.Strings(sizes)

	changed := false

	for _, size := range sizes {
		if product.ApplySize(size, scraped[size]) {
			changed = true
		}
	}

	return changed
}

// optionDropdownSizes reads size options where an empty class attribute
// means in stock, any other class means sold out and a missing class
// attribute marks decoration like a headline entry.
func optionDropdownSizes(dropdown *goquery.Selection) (map[string]bool, error) {
	scraped := make(map[string]bool)

	dropdown.Find("option").Each(func(_ int, option *goquery.Selection) {
		class, found := option.Attr("class")
		if !found {
			return
		}

		size := strings.Trim(strings.TrimSpace(option.Text()), "()")
		if size == "" {
			return
		}

		scraped[size] = scraped[size] || class == ""
	})

	if len(scraped) == 0 {
		return nil, errNoMatches
	}

	return scraped, nil
}

// scriptWithText returns the content of the first javascript block whose
// text contains the marker.
func scriptWithText(doc *goquery.Document, marker string) (string, bool) {
	var code string
	var found bool

	doc.Find(`script[type="text/javascript"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		text := script.Text()
		if strings.Contains(text, marker) {
			code = text
			found = true

			return false
		}

		return true
	})

	return code, found
}
