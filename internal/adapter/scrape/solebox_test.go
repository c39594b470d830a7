package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/logger"
)

func createTestLogger() logger.StyledLogger {
	log, _, _ := logger.New(&logger.Config{})
	return logger.NewPlainStyledLogger(log)
}

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return doc
}

const soleboxProductFixture = `<html>
<head><title>  Solebox | KangaROOS Coil R1 OG  </title></head>
<body>
<div class="js-product-details" data-gtm='{"id":"01234688","name":"KangaROOS Coil R1 OG","brand":"KangaROOS"}'></div>
<div class="b-pdp-product-preview-wrapper">
  <div class="b-pdp-carousel-item"><div data-default-src="https://cdn.solebox.com/img/coil-r1-1.jpg"></div></div>
  <div class="b-pdp-carousel-item"><div data-default-src="https://cdn.solebox.com/img/coil-r1-2.jpg"></div></div>
</div>
<div class="b-pdp-product-info-section">
  <span class="b-product-tile-price-item">
    98,55 €
  </span>
</div>
<div class="b-size-container">
  <span class="js-size-value">42</span>
  <span class="js-size-value b-swatch-value--sold-out">43</span>
  <span class="js-size-value b-swatch-value--in-store-only">44</span>
  <span class="js-size-value">46</span>
</div>
</body>
</html>`

func TestSoleboxShopName(t *testing.T) {
	extractor := &Solebox{logger: createTestLogger()}
	doc := docFromHTML(t, soleboxProductFixture)

	name, err := extractor.ShopName(doc)

	require.NoError(t, err)
	assert.Equal(t, "Solebox | KangaROOS Coil R1 OG", name)
}

func TestSoleboxProductName(t *testing.T) {
	extractor := &Solebox{logger: createTestLogger()}
	doc := docFromHTML(t, soleboxProductFixture)
	product := domain.NewProduct("https://www.solebox.com/p/coil-r1.html")

	changed, err := extractor.ProductName(doc, product)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "KangaROOS Coil R1 OG", product.Name)

	changed, err = extractor.ProductName(doc, product)

	require.NoError(t, err)
	assert.False(t, changed, "unchanged name must not report a change")
}

func TestSoleboxProductSizes(t *testing.T) {
	extractor := &Solebox{logger: createTestLogger()}
	doc := docFromHTML(t, soleboxProductFixture)
	product := domain.NewProduct("https://www.solebox.com/p/coil-r1.html")

	changed, err := extractor.ProductSizes(doc, product)

	require.NoError(t, err)
	assert.True(t, changed, "every size is new on the first scan")
	require.Len(t, product.Sizes, 4)

	assert.Equal(t, []string{"42", "46"}, product.InStockSizes())
	assert.Equal(t, domain.StockOut, product.FindSize("43").IsInStock)
	assert.Equal(t, domain.StockOut, product.FindSize("44").IsInStock, "in-store-only counts as sold out")

	changed, err = extractor.ProductSizes(doc, product)

	require.NoError(t, err)
	assert.False(t, changed, "same availability is no change")
}

func TestSoleboxProductSizesRestock(t *testing.T) {
	extractor := &Solebox{logger: createTestLogger()}
	product := domain.NewProduct("https://www.solebox.com/p/coil-r1.html")

	_, err := extractor.ProductSizes(docFromHTML(t, soleboxProductFixture), product)
	require.NoError(t, err)

	restocked := strings.Replace(soleboxProductFixture,
		`<span class="js-size-value b-swatch-value--sold-out">43</span>`,
		`<span class="js-size-value">43</span>`, 1)

	changed, err := extractor.ProductSizes(docFromHTML(t, restocked), product)

	require.NoError(t, err)
	assert.True(t, changed, "sold out to in stock is a restock")
	assert.Equal(t, domain.StockIn, product.FindSize("43").IsInStock)

	soldOutAgain, err := extractor.ProductSizes(docFromHTML(t, soleboxProductFixture), product)

	require.NoError(t, err)
	assert.False(t, soldOutAgain, "in stock to sold out is recorded but not a change")
	assert.Equal(t, domain.StockOut, product.FindSize("43").IsInStock)
}

func TestSoleboxProductPrice(t *testing.T) {
	extractor := &Solebox{logger: createTestLogger()}
	doc := docFromHTML(t, soleboxProductFixture)
	product := domain.NewProduct("https://www.solebox.com/p/coil-r1.html")

	changed, err := extractor.ProductPrice(doc, product)

	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, product.BasePrice)
	assert.InDelta(t, 98.55, *product.BasePrice, 0.001)
	require.NotNil(t, product.Currency)
	assert.Equal(t, "€", *product.Currency)

	changed, err = extractor.ProductPrice(doc, product)

	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSoleboxProductThumb(t *testing.T) {
	extractor := &Solebox{logger: createTestLogger()}
	doc := docFromHTML(t, soleboxProductFixture)
	product := domain.NewProduct("https://www.solebox.com/p/coil-r1.html")

	changed, err := extractor.ProductThumb(doc, product)

	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, product.URLThumb)
	assert.Equal(t, "https://cdn.solebox.com/img/coil-r1-1.jpg", *product.URLThumb, "first carousel item wins")
}

func TestSoleboxMissingNodes(t *testing.T) {
	extractor := &Solebox{logger: createTestLogger()}
	doc := docFromHTML(t, `<html><head></head><body><p>maintenance</p></body></html>`)
	product := domain.NewProduct("https://www.solebox.com/p/coil-r1.html")

	_, err := extractor.ShopName(doc)
	assert.ErrorIs(t, err, errNoMatches)

	changed, err := extractor.ProductName(doc, product)
	assert.ErrorIs(t, err, errNoMatches)
	assert.False(t, changed)

	changed, err = extractor.ProductSizes(doc, product)
	assert.ErrorIs(t, err, errNoMatches)
	assert.False(t, changed)

	changed, err = extractor.ProductPrice(doc, product)
	assert.ErrorIs(t, err, errNoMatches)
	assert.False(t, changed)

	changed, err = extractor.ProductThumb(doc, product)
	assert.ErrorIs(t, err, errNoMatches)
	assert.False(t, changed)

	assert.Empty(t, product.Sizes)
	assert.Empty(t, product.Name)
}

func TestSoleboxReleaseTimeIsNoop(t *testing.T) {
	extractor := &Solebox{logger: createTestLogger()}
	doc := docFromHTML(t, soleboxProductFixture)
	product := domain.NewProduct("https://www.solebox.com/p/coil-r1.html")

	changed, err := extractor.ProductReleaseTime(doc, product)

	require.NoError(t, err)
	assert.False(t, changed)
}
