package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solewatch/solewatch/internal/core/constants"
	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/logger"
)

func createTestLogger() logger.StyledLogger {
	log, _, _ := logger.New(&logger.Config{})
	return logger.NewPlainStyledLogger(log)
}

type stubAgents struct {
	agents []string
	next   atomic.Int64
}

func (s *stubAgents) GetAll(ctx context.Context) ([]string, error) { return s.agents, nil }

func (s *stubAgents) Add(ctx context.Context, agent string) error { return nil }

func (s *stubAgents) Random(ctx context.Context) (string, error) {
	if len(s.agents) == 0 {
		return "", domain.NewLookupError("user agents", "stub", nil)
	}

	n := s.next.Add(1) - 1

	return s.agents[int(n)%len(s.agents)], nil
}

type stubProxies struct {
	proxies []*domain.Proxy
}

func (s *stubProxies) GetAll(ctx context.Context) ([]*domain.Proxy, error) { return s.proxies, nil }

func (s *stubProxies) Add(ctx context.Context, proxy *domain.Proxy) error { return nil }

func (s *stubProxies) Random(ctx context.Context) (*domain.Proxy, error) {
	if len(s.proxies) == 0 {
		return nil, domain.NewLookupError("proxies", "stub", nil)
	}

	return s.proxies[0], nil
}

type testHarness struct {
	session    *Session
	sleeps     atomic.Int64
	sleepTotal atomic.Int64
}

func newTestHarness(agents *stubAgents, proxies *stubProxies) *testHarness {
	return &testHarness{
		session: NewSession(proxies, agents, createTestLogger()),
	}
}

// request builds a handle whose pauses are recorded instead of slept.
func (h *testHarness) request(settings domain.RequestSettings) *Request {
	req := h.session.NewRequest(settings).(*Request)
	req.sleep = func(ctx context.Context, d time.Duration) bool {
		h.sleeps.Add(1)
		h.sleepTotal.Add(int64(d))

		return ctx.Err() == nil
	}

	return req
}

func defaultSettings() domain.RequestSettings {
	return domain.RequestSettings{
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	}
}

func TestFetchReturnsPageOnOK(t *testing.T) {
	var gotAgent atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><title>Shop</title></html>"))
	}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	page, err := harness.request(defaultSettings()).Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, server.URL, page.URL)
	assert.Contains(t, page.Text(), "<title>Shop</title>")
	assert.Equal(t, "agent-one/1.0", gotAgent.Load())
	assert.Zero(t, harness.sleeps.Load())
}

func TestFetchRetriesUntilBudgetExhausted(t *testing.T) {
	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	settings := domain.RequestSettings{Timeout: 2 * time.Second, MaxRetries: 2}

	page, err := harness.request(settings).Fetch(context.Background(), server.URL)

	require.Error(t, err)
	assert.Nil(t, page)

	var connErr *domain.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 3, connErr.Attempts)
	assert.Equal(t, server.URL, connErr.URL)

	assert.EqualValues(t, 3, hits.Load(), "initial call plus two retries")
	assert.EqualValues(t, 3, harness.sleeps.Load(), "every failed attempt pauses before the next")

	total := time.Duration(harness.sleepTotal.Load())
	assert.GreaterOrEqual(t, total, 3*time.Second, "three pauses of at least a second each")
	assert.LessOrEqual(t, total, 9*time.Second, "three pauses of at most three seconds each")
}

func TestFetchZeroBudgetStopsAfterOneAttempt(t *testing.T) {
	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	settings := domain.RequestSettings{Timeout: 2 * time.Second, MaxRetries: 0}

	_, err := harness.request(settings).Fetch(context.Background(), server.URL)

	var connErr *domain.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 1, connErr.Attempts)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchRecoversWithinBudget(t *testing.T) {
	var hits atomic.Int64
	agents := make(chan string, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0", "agent-two/2.0"}}, &stubProxies{})
	defer harness.session.Close()

	page, err := harness.request(defaultSettings()).Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "recovered", page.Text())
	assert.EqualValues(t, 2, hits.Load())

	// identity rotates between attempts
	assert.Equal(t, "agent-one/1.0", <-agents)
	assert.Equal(t, "agent-two/2.0", <-agents)
}

func TestFetchEmptyUserAgentPoolFailsFast(t *testing.T) {
	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{}, &stubProxies{})
	defer harness.session.Close()

	_, err := harness.request(defaultSettings()).Fetch(context.Background(), server.URL)

	var lookupErr *domain.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Zero(t, hits.Load(), "no wire call without an identity")
	assert.Zero(t, harness.sleeps.Load(), "pool exhaustion is not retried")
}

func TestFetchEmptyProxyPoolFailsFast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	settings := domain.RequestSettings{Timeout: 2 * time.Second, MaxRetries: 2, UseRandomProxy: true}

	_, err := harness.request(settings).Fetch(context.Background(), server.URL)

	var lookupErr *domain.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Zero(t, harness.sleeps.Load())
}

func TestFetchTimeoutWalksRetryBudget(t *testing.T) {
	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	settings := domain.RequestSettings{Timeout: 25 * time.Millisecond, MaxRetries: 1}

	_, err := harness.request(settings).Fetch(context.Background(), server.URL)

	var connErr *domain.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 2, connErr.Attempts)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchCancelledContextStopsRetrying(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := harness.request(defaultSettings())
	req.sleep = func(ctx context.Context, d time.Duration) bool {
		cancel()
		return false
	}

	_, err := req.Fetch(ctx, server.URL)

	require.Error(t, err)

	var connErr *domain.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 1, connErr.Attempts)
}

func TestZeroTimeoutFallsBackToDefault(t *testing.T) {
	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	req := harness.session.NewRequest(domain.RequestSettings{Timeout: 0, MaxRetries: 1}).(*Request)

	assert.Equal(t, constants.DefaultRequestTimeout, req.timeout)
}

func TestPostRequiresHeadersAndBody(t *testing.T) {
	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	req := harness.request(defaultSettings())

	_, err := req.Post(context.Background(), "http://example.com", nil, []byte("{}"))
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = req.Post(context.Background(), "http://example.com", map[string]string{"Content-Type": "application/json"}, nil)
	require.ErrorAs(t, err, &validationErr)
}

func TestPostSendsPayloadAndAcceptsNoContent(t *testing.T) {
	type captured struct {
		contentType string
		body        string
	}

	got := make(chan captured, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- captured{contentType: r.Header.Get("Content-Type"), body: string(body)}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	headers := map[string]string{"Content-Type": "application/json"}

	page, err := harness.request(defaultSettings()).Post(context.Background(), server.URL, headers, []byte(`{"content":"hi"}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, page.StatusCode)

	sent := <-got
	assert.Equal(t, "application/json", sent.contentType)
	assert.JSONEq(t, `{"content":"hi"}`, sent.body)
}

func TestPostRetriesBadStatus(t *testing.T) {
	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	harness := newTestHarness(&stubAgents{agents: []string{"agent-one/1.0"}}, &stubProxies{})
	defer harness.session.Close()

	headers := map[string]string{"Content-Type": "application/json"}

	page, err := harness.request(defaultSettings()).Post(context.Background(), server.URL, headers, []byte(`{}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.EqualValues(t, 2, hits.Load())
	assert.EqualValues(t, 1, harness.sleeps.Load())
}
