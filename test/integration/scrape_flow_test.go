package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/solewatch/solewatch/internal/adapter/fetch"
	"github.com/solewatch/solewatch/internal/adapter/notify"
	"github.com/solewatch/solewatch/internal/adapter/scrape"
	"github.com/solewatch/solewatch/internal/adapter/store"
	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
)

var errNoMarkup = errors.New("no matches in storefront markup")

// storefront serves a two-product sneaker shop over HTTP. The markup is
// rendered from mutable stock state so a test can flip a size between sold
// out and in stock across scrape passes.
type storefront struct {
	mu             sync.Mutex
	alphaRestocked bool
}

type sizeRow struct {
	eu    string
	stock string
}

func (s *storefront) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<!doctype html><html><head><title>Integration Kicks</title></head><body><p>Fresh pairs daily.</p></body></html>`)
	})

	mux.HandleFunc("/p/alpha", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		stock43 := "no"
		if s.alphaRestocked {
			stock43 = "yes"
		}
		s.mu.Unlock()

		fmt.Fprint(w, productPage("Alpha Runner", "129.95", "https://cdn.integration-kicks.test/alpha.jpg",
			[]sizeRow{{"42", "yes"}, {"43", stock43}}))
	})

	mux.HandleFunc("/p/beta", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage("Beta Court", "89.90", "https://cdn.integration-kicks.test/beta.jpg",
			[]sizeRow{{"44", "yes"}}))
	})

	return mux
}

func (s *storefront) restockAlpha() {
	s.mu.Lock()
	s.alphaRestocked = true
	s.mu.Unlock()
}

func productPage(name, price, thumb string, sizes []sizeRow) string {
	var b strings.Builder

	b.WriteString(`<!doctype html><html><head><title>Integration Kicks</title></head><body>`)
	fmt.Fprintf(&b, `<h1 class="product-name">%s</h1>`, name)
	fmt.Fprintf(&b, `<span class="product-price" data-currency="EUR">%s</span>`, price)
	fmt.Fprintf(&b, `<img id="product-thumb" src="%s"/>`, thumb)
	b.WriteString(`<ul class="product-sizes">`)

	for _, row := range sizes {
		fmt.Fprintf(&b, `<li class="size" data-stock="%s">%s</li>`, row.stock, row.eu)
	}

	b.WriteString(`</ul></body></html>`)

	return b.String()
}

// webhookRecorder captures webhook executions the way a Discord relay would
// receive them.
type webhookRecorder struct {
	mu     sync.Mutex
	paths  []string
	bodies []string
}

func (w *webhookRecorder) handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		w.mu.Lock()
		w.paths = append(w.paths, r.URL.Path)
		w.bodies = append(w.bodies, string(body))
		w.mu.Unlock()

		rw.WriteHeader(http.StatusNoContent)
	})
}

func (w *webhookRecorder) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.bodies)
}

func (w *webhookRecorder) requestPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]string(nil), w.paths...)
}

func (w *webhookRecorder) embedTitles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	titles := make([]string, 0, len(w.bodies))
	for _, body := range w.bodies {
		titles = append(titles, gjson.Get(body, "embeds.0.title").String())
	}

	return titles
}

func (w *webhookRecorder) lastBody() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.bodies) == 0 {
		return ""
	}

	return w.bodies[len(w.bodies)-1]
}

// storefrontExtractor reads the fixture storefront markup. It stands in for
// the site files, which register themselves the same way at init.
type storefrontExtractor struct {
	url string
}

func (e *storefrontExtractor) URL() string { return e.url }

func (e *storefrontExtractor) ShopName(doc *goquery.Document) (string, error) {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return "", errNoMarkup
	}

	return title, nil
}

func (e *storefrontExtractor) ProductName(doc *goquery.Document, product *domain.Product) (bool, error) {
	name := strings.TrimSpace(doc.Find("h1.product-name").First().Text())
	if name == "" {
		return false, errNoMarkup
	}

	return product.SetName(name), nil
}

func (e *storefrontExtractor) ProductSizes(doc *goquery.Document, product *domain.Product) (bool, error) {
	changed := false
	found := false

	doc.Find("li.size").Each(func(_ int, li *goquery.Selection) {
		size := strings.TrimSpace(li.Text())
		if size == "" {
			return
		}

		found = true

		if product.ApplySize(size, li.AttrOr("data-stock", "no") == "yes") {
			changed = true
		}
	})

	if !found {
		return false, errNoMarkup
	}

	return changed, nil
}

func (e *storefrontExtractor) ProductPrice(doc *goquery.Document, product *domain.Product) (bool, error) {
	node := doc.Find("span.product-price").First()

	raw := strings.TrimSpace(node.Text())
	if raw == "" {
		return false, errNoMarkup
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false, err
	}

	return product.SetPrice(price, node.AttrOr("data-currency", "")), nil
}

func (e *storefrontExtractor) ProductThumb(doc *goquery.Document, product *domain.Product) (bool, error) {
	thumb, ok := doc.Find("img#product-thumb").First().Attr("src")
	if !ok || thumb == "" {
		return false, errNoMarkup
	}

	return product.SetThumbURL(thumb), nil
}

func (e *storefrontExtractor) ProductReleaseTime(doc *goquery.Document, product *domain.Product) (bool, error) {
	return false, nil
}

func newTestLogger() logger.StyledLogger {
	log, _, _ := logger.New(&logger.Config{})
	return logger.NewPlainStyledLogger(log)
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func configFixture(shopURL string) string {
	return fmt.Sprintf(`{
  "Config": [
    {"scraperCommon": {
      "iterSleepFromScnds": 1, "iterSleepToScnds": 2, "iterSleepSteps": 0.5,
      "fetchTimeoutScnds": 5, "fetchMaxRetries": 0, "fetchUseRandomProxy": false,
      "postTimeoutScnds": 5, "postMaxRetries": 0, "postUseRandomProxies": false}},
    {"scraperByUrl": {%q: {
      "iterSleepFromScnds": 1, "iterSleepToScnds": 2, "iterSleepSteps": 0.5,
      "fetchTimeoutScnds": 5, "fetchMaxRetries": 0, "fetchUseRandomProxy": false,
      "postTimeoutScnds": 5, "postMaxRetries": 0, "postUseRandomProxies": false}}}
  ]
}`, shopURL)
}

func messengersFixture(endpoint string) string {
	return fmt.Sprintf(`{
  "Discord": [
    {"apiType": "webhook", "apiEndpoint": %q},
    {"configName": "product-msg-config", "user": "800123", "token": "product-token",
      "timeout": 5, "maxRetries": 0, "useRandomProxy": false, "username": "Solewatch"},
    {"configName": "log-msg-config", "user": "800124", "token": "log-token",
      "timeout": 5, "maxRetries": 0, "useRandomProxy": false, "username": "Solewatch Logs"},
    {"configName": "error-msg-config", "user": "800125", "token": "error-token",
      "timeout": 5, "maxRetries": 0, "useRandomProxy": false, "username": "Solewatch Errors"}
  ]
}`, endpoint+"/api/webhooks")
}

func rereadShop(t *testing.T, ctx context.Context, shops *store.Shops, url string) *domain.Shop {
	t.Helper()

	stored, err := shops.GetAll(ctx)
	require.NoError(t, err)

	for _, shop := range stored {
		if shop.URL == url {
			return shop
		}
	}

	t.Fatalf("no shop stored for %s", url)

	return nil
}

// TestScrapeFlowPersistsAndNotifies drives one scraper against a live
// storefront over real HTTP: reconcile shops from the watch list, scrape,
// diff, persist the snapshot and deliver webhook notifications. It then
// restocks a size and verifies the diff fires exactly one more
// notification, and that a replacement scraper built from the persisted
// snapshot resumes silently.
func TestScrapeFlowPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()

	shopFront := &storefront{}
	shopServer := httptest.NewServer(shopFront.handler())
	defer shopServer.Close()

	hooks := &webhookRecorder{}
	hookServer := httptest.NewServer(hooks.handler())
	defer hookServer.Close()

	scrape.Register(shopServer.URL, func(log logger.StyledLogger) ports.Extractor {
		return &storefrontExtractor{url: shopServer.URL}
	})

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/ProductsURLs.txt", shopServer.URL+"/p/alpha\n"+shopServer.URL+"/p/beta\n")
	writeFile(t, fs, "/data/UserAgents.txt", "Mozilla/5.0 (X11; Linux x86_64) Solewatch/1.0\n")
	writeFile(t, fs, "/data/Config.json", configFixture(shopServer.URL))
	writeFile(t, fs, "/data/Messengers.json", messengersFixture(hookServer.URL))

	log := newTestLogger()
	shops := store.NewShops(store.OpenDocument(fs, "/data/Shops.json"), log)
	urls := store.NewProductURLs(fs, "/data/ProductsURLs.txt", log)
	settings := store.NewSettings(store.OpenDocument(fs, "/data/Config.json"), log)
	messengers := store.NewMessengers(store.OpenDocument(fs, "/data/Messengers.json"))

	session := fetch.NewSession(
		store.NewProxies(fs, "/data/Proxies.txt", log),
		store.NewUserAgents(fs, "/data/UserAgents.txt"),
		log,
	)
	defer session.Close()

	deps := scrape.DriverDeps{
		Repo:     shops,
		Requests: session,
		Settings: settings,
		Notifier: notify.NewWebhook(messengers, session, log),
		Logger:   log,
	}

	require.NoError(t, shops.UpdateFromProductURLs(ctx, urls))

	watched, err := shops.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, watched, 1)

	drivers := scrape.NewDrivers(ctx, watched, deps)
	require.Len(t, drivers, 1)
	driver := drivers[0]

	// First pass: everything is new, both products commit and notify.
	assert.Equal(t, 0, driver.Run(ctx), "first scrape pass should not fail")

	shop := rereadShop(t, ctx, shops, shopServer.URL)
	assert.Equal(t, "Integration Kicks", shop.Name)

	alpha := shop.FindProduct(shopServer.URL + "/p/alpha")
	require.NotNil(t, alpha)
	assert.Equal(t, "Alpha Runner", alpha.Name)
	assert.Equal(t, "129.95 EUR", alpha.PriceWithCurrency())
	assert.Equal(t, []string{"42"}, alpha.InStockSizes())
	require.NotNil(t, alpha.URLThumb)
	assert.Equal(t, "https://cdn.integration-kicks.test/alpha.jpg", *alpha.URLThumb)

	beta := shop.FindProduct(shopServer.URL + "/p/beta")
	require.NotNil(t, beta)
	assert.Equal(t, "Beta Court", beta.Name)
	assert.Equal(t, "89.90 EUR", beta.PriceWithCurrency())
	assert.Equal(t, []string{"44"}, beta.InStockSizes())

	assert.Equal(t, 2, hooks.count(), "both new products should notify")
	assert.ElementsMatch(t, []string{"Alpha Runner", "Beta Court"}, hooks.embedTitles())

	for _, path := range hooks.requestPaths() {
		assert.Equal(t, "/api/webhooks/800123/product-token", path)
	}

	// Second pass over identical pages: the diff suppresses everything.
	assert.Equal(t, 0, driver.Run(ctx))
	assert.Equal(t, 2, hooks.count(), "an unchanged snapshot must stay silent")

	// Restock one size; only that product notifies again.
	shopFront.restockAlpha()
	assert.Equal(t, 0, driver.Run(ctx))
	require.Equal(t, 3, hooks.count(), "a restocked size should fire exactly one notification")

	restock := hooks.lastBody()
	assert.Equal(t, "Alpha Runner", gjson.Get(restock, "embeds.0.title").String())
	assert.Equal(t, "Integration Kicks", gjson.Get(restock, "embeds.0.description").String())
	assert.Contains(t, gjson.Get(restock, `embeds.0.fields.#(name=="Sizes").value`).String(), "43")
	assert.Equal(t, "Solewatch", gjson.Get(restock, "username").String())

	reread := rereadShop(t, ctx, shops, shopServer.URL)
	alphaAfter := reread.FindProduct(shopServer.URL + "/p/alpha")
	require.NotNil(t, alphaAfter)
	assert.Equal(t, []string{"42", "43"}, alphaAfter.InStockSizes())
	assert.Equal(t, alpha.UID, alphaAfter.UID, "product identity should survive commits")

	// A replacement scraper built from the persisted snapshot resumes
	// without re-announcing anything.
	replacements := scrape.NewDrivers(ctx, []*domain.Shop{reread}, deps)
	require.Len(t, replacements, 1)
	assert.Equal(t, 0, replacements[0].Run(ctx))
	assert.Equal(t, 3, hooks.count(), "a restarted scraper must not repeat notifications")
}
