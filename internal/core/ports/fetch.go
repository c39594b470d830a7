package ports

import (
	"context"

	"github.com/solewatch/solewatch/internal/core/domain"
)

// Fetcher is a request handle bound to one settings set. Every attempt draws
// a fresh user agent, and a fresh proxy when the settings ask for one, and
// the handle walks its retry budget before giving up on a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Page, error)
}

// RequestFactory builds request handles. All handles share one session so
// the process keeps a single connection pool.
type RequestFactory interface {
	NewRequest(settings domain.RequestSettings) Fetcher
}

// Page is a fetched response with its final status.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (p *Page) Text() string {
	if p == nil {
		return ""
	}

	return string(p.Body)
}
