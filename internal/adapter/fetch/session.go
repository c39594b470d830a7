package fetch

import (
	"bytes"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/solewatch/solewatch/internal/core/constants"
	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
	"github.com/solewatch/solewatch/internal/logger"
	"github.com/solewatch/solewatch/internal/util"
	"github.com/solewatch/solewatch/pkg/pool"
)

const (
	dialTimeout         = 30 * time.Second
	keepAliveInterval   = 30 * time.Second
	maxIdleConns        = 100
	maxIdleConnsPerHost = 8
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
)

// proxyContextKey carries the proxy picked for a single attempt through the
// request context, where the shared transport resolves it.
type proxyContextKey struct{}

// Session owns the process-wide HTTP client. Every request handle built from
// it shares the same transport, so no matter how many scrapers and
// messengers run there is exactly one connection pool. Per-attempt proxies
// ride the request context instead of per-proxy transports.
type Session struct {
	client     *http.Client
	transport  *http.Transport
	proxies    ports.ProxySource
	userAgents ports.UserAgentSource
	buffers    *pool.Pool[*bytes.Buffer]
	logger     logger.StyledLogger
}

func NewSession(proxies ports.ProxySource, userAgents ports.UserAgentSource, log logger.StyledLogger) *Session {
	transport := &http.Transport{
		Proxy: proxyFromContext,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: keepAliveInterval,
		}).DialContext,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
	}

	buffers, _ := pool.NewLitePool(func() *bytes.Buffer {
		return new(bytes.Buffer)
	})

	return &Session{
		client:     &http.Client{Transport: transport},
		transport:  transport,
		proxies:    proxies,
		userAgents: userAgents,
		buffers:    buffers,
		logger:     log,
	}
}

func proxyFromContext(req *http.Request) (*url.URL, error) {
	if proxy, ok := req.Context().Value(proxyContextKey{}).(*url.URL); ok {
		return proxy, nil
	}

	return nil, nil
}

// NewRequest builds a request handle bound to the given settings. A timeout
// of zero or less falls back to the default so a broken config entry cannot
// produce calls that never expire.
func (s *Session) NewRequest(settings domain.RequestSettings) ports.Fetcher {
	timeout := settings.Timeout
	if timeout <= 0 {
		s.logger.Warn("Request timeout not usable, falling back",
			"configured", settings.Timeout.String(),
			"fallback", constants.DefaultRequestTimeout.String())
		timeout = constants.DefaultRequestTimeout
	}

	maxRetries := settings.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Request{
		session:        s,
		timeout:        timeout,
		maxRetries:     maxRetries,
		useRandomProxy: settings.UseRandomProxy,
		sleep:          util.Sleep,
		retryPause:     retryPause,
	}
}

// Close releases idle connections. In-flight requests finish on their own
// deadlines.
func (s *Session) Close() {
	s.transport.CloseIdleConnections()
}

// retryPause is the stepped-random backoff between attempts after a bad
// status or a timeout.
func retryPause() time.Duration {
	return util.RandomSteppedDuration(constants.RetryPauseMinSeconds, constants.RetryPauseMaxSeconds, constants.RetryPauseStep)
}
