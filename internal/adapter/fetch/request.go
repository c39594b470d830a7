package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/solewatch/solewatch/internal/core/constants"
	"github.com/solewatch/solewatch/internal/core/domain"
	"github.com/solewatch/solewatch/internal/core/ports"
)

// Request is a handle bound to one settings set, reused across calls. Each
// attempt draws a fresh user agent, and a fresh proxy when enabled, so a
// blocked identity never sticks across retries.
//
// Attempt outcomes drive the retry walk: an accepted status returns, a bad
// status or a timeout retries after a stepped-random pause, a proxy-layer
// failure retries after a short flat pause, anything else gives up at once.
// The budget admits the initial call plus maxRetries retries.
type Request struct {
	session        *Session
	timeout        time.Duration
	maxRetries     int
	useRandomProxy bool

	// swapped out in tests to keep retry walks instant
	sleep      func(ctx context.Context, d time.Duration) bool
	retryPause func() time.Duration
}

type attemptOutcome int

const (
	outcomeAccepted attemptOutcome = iota
	outcomeBadStatus
	outcomeTimeout
	outcomeProxyFailure
	outcomeFatal
)

func (r *Request) Fetch(ctx context.Context, rawURL string) (*ports.Page, error) {
	return r.do(ctx, rawURL, func(attemptCtx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	}, nil, acceptFetch)
}

// Post sends a raw payload. Headers and body are both required.
func (r *Request) Post(ctx context.Context, rawURL string, headers map[string]string, body []byte) (*ports.Page, error) {
	if len(headers) == 0 {
		return nil, domain.NewValidationError("headers", headers, "post request needs headers")
	}

	if len(body) == 0 {
		return nil, domain.NewValidationError("body", "", "post request needs a payload")
	}

	return r.do(ctx, rawURL, func(attemptCtx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(attemptCtx, http.MethodPost, rawURL, bytes.NewReader(body))
	}, headers, acceptPost)
}

func acceptFetch(status int) bool {
	return status == http.StatusOK
}

func acceptPost(status int) bool {
	return status == http.StatusOK || status == http.StatusNoContent
}

type buildFunc func(attemptCtx context.Context) (*http.Request, error)

func (r *Request) do(ctx context.Context, rawURL string, build buildFunc, headers map[string]string, accepted func(int) bool) (*ports.Page, error) {
	var lastErr error

	for attempt := 1; ; attempt++ {
		tries := attempt - 1
		if tries > r.maxRetries {
			err := domain.NewConnectionError(rawURL, tries, lastErr)
			r.session.logger.Error("Still failed after retries, giving up URL", "url", rawURL, "tries", tries)

			return nil, err
		}

		page, outcome, err := r.attempt(ctx, rawURL, build, headers, accepted)

		switch outcome {
		case outcomeAccepted:
			return page, nil

		case outcomeBadStatus:
			lastErr = err
			r.session.logger.Warn("Fetch got denied, retrying with new identity", "url", rawURL, "attempt", attempt, "error", err)
			if !r.sleep(ctx, r.retryPause()) {
				return nil, domain.NewConnectionError(rawURL, attempt, ctx.Err())
			}

		case outcomeTimeout:
			lastErr = err
			r.session.logger.Warn("Fetch timed out, retrying with new identity", "url", rawURL, "attempt", attempt, "timeout", r.timeout.String())
			if !r.sleep(ctx, r.retryPause()) {
				return nil, domain.NewConnectionError(rawURL, attempt, ctx.Err())
			}

		case outcomeProxyFailure:
			lastErr = err
			r.session.logger.Warn("Proxy connection failed, retrying with new proxy", "url", rawURL, "attempt", attempt, "error", err)
			if !r.sleep(ctx, constants.ProxyRetryPause) {
				return nil, domain.NewConnectionError(rawURL, attempt, ctx.Err())
			}

		case outcomeFatal:
			return nil, err
		}
	}
}

// attempt runs one wire call with a fresh identity and its own deadline.
func (r *Request) attempt(ctx context.Context, rawURL string, build buildFunc, headers map[string]string, accepted func(int) bool) (*ports.Page, attemptOutcome, error) {
	userAgent, err := r.session.userAgents.Random(ctx)
	if err != nil {
		return nil, outcomeFatal, fmt.Errorf("drawing user agent for %s: %w", rawURL, err)
	}

	attemptCtx := ctx

	if r.useRandomProxy {
		proxyURL, err := r.drawProxy(ctx)
		if err != nil {
			return nil, outcomeFatal, fmt.Errorf("drawing proxy for %s: %w", rawURL, err)
		}

		attemptCtx = context.WithValue(attemptCtx, proxyContextKey{}, proxyURL)
	}

	attemptCtx, cancel := context.WithTimeout(attemptCtx, r.timeout)
	defer cancel()

	req, err := build(attemptCtx)
	if err != nil {
		return nil, outcomeFatal, domain.NewConnectionError(rawURL, 0, err)
	}

	req.Header.Set("User-Agent", userAgent)
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := r.session.client.Do(req)
	if err != nil {
		switch classifyError(err) {
		case failureProxy:
			return nil, outcomeProxyFailure, err
		case failureTimeout:
			return nil, outcomeTimeout, err
		default:
			return nil, outcomeFatal, domain.NewConnectionError(rawURL, 0, err)
		}
	}
	defer resp.Body.Close()

	if !accepted(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 32*1024))

		return nil, outcomeBadStatus, fmt.Errorf("http status %d", resp.StatusCode)
	}

	body, err := r.readBody(resp.Body)
	if err != nil {
		if classifyError(err) == failureTimeout {
			return nil, outcomeTimeout, err
		}

		return nil, outcomeFatal, domain.NewConnectionError(rawURL, 0, err)
	}

	return &ports.Page{URL: rawURL, StatusCode: resp.StatusCode, Body: body}, outcomeAccepted, nil
}

func (r *Request) drawProxy(ctx context.Context) (*url.URL, error) {
	proxy, err := r.session.proxies.Random(ctx)
	if err != nil {
		return nil, err
	}

	endpoint, err := proxy.ForRequest()
	if err != nil {
		return nil, err
	}

	return url.Parse(endpoint)
}

// readBody drains the response through a pooled buffer and hands back a
// private copy, the buffer goes straight back to the pool.
func (r *Request) readBody(body io.Reader) ([]byte, error) {
	buf := r.session.buffers.Get()
	defer r.session.buffers.Put(buf)

	buf.Reset()

	if _, err := buf.ReadFrom(body); err != nil {
		return nil, err
	}

	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())

	return data, nil
}
