package util

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Netloc returns the authority component (host[:port]) of a URL. The scheme
// must be present; a URL like "solebox.com/a" parses as a relative path and
// has no authority.
func Netloc(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", rawURL, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no authority component in %q", rawURL)
	}
	return parsed.Host, nil
}

// BaseURL reduces a URL to scheme://host[:port], the identity key a shop is
// reconciled under.
func BaseURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", rawURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("no scheme or authority in %q", rawURL)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

// ResolveURLPath resolves a path or absolute URL against a base URL.
// If pathOrURL already carries a scheme it is returned as-is; otherwise it is
// joined onto the base URL's path. url.ResolveReference is avoided on purpose:
// it treats a leading "/" as an absolute reference and discards any path
// prefix the base may carry.
func ResolveURLPath(baseURL, pathOrURL string) string {
	if baseURL == "" {
		return pathOrURL
	}
	if pathOrURL == "" {
		return baseURL
	}

	if parsed, err := url.Parse(pathOrURL); err == nil && parsed.IsAbs() {
		return pathOrURL
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return pathOrURL
	}

	base.Path = path.Join(base.Path, pathOrURL)
	return base.String()
}
