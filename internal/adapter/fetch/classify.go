package fetch

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
)

// failureKind buckets transport errors the way the retry walk treats them.
type failureKind int

const (
	failureFatal failureKind = iota
	failureTimeout
	failureProxy
)

// classifyError sorts an attempt error into its retry bucket. Proxy dial
// failures surface as an OpError with op "proxyconnect"; a proxy refusing
// the CONNECT only carries the marker in its message, so the text check
// backs up the typed one. Proxy checks run first, a timeout while dialing
// the proxy rotates the proxy instead of waiting out the long backoff.
func classifyError(err error) failureKind {
	if err == nil {
		return failureFatal
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "proxyconnect" {
		return failureProxy
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && strings.Contains(urlErr.Err.Error(), "proxyconnect") {
		return failureProxy
	}

	if errors.Is(err, context.Canceled) {
		return failureFatal
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureTimeout
	}

	return failureFatal
}
