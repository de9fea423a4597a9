package registry

import (
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/leadspider/leadspider/internal/netutil"
	"github.com/leadspider/leadspider/stringset"
)

// URLRegistry remembers canonicalised URLs across extraction passes so that a
// retried pass does not emit the same entity twice.
type URLRegistry struct {
	once   sync.Once
	filter *stringset.StringFilter
}

func NewURLRegistry() *URLRegistry {
	return &URLRegistry{}
}

func (r *URLRegistry) ensure() {
	r.once.Do(func() {
		r.filter = stringset.NewStringFilter()
	})
}

// Duplicate records raw and reports whether it was already present.
func (r *URLRegistry) Duplicate(raw string) bool {
	key := canonicalKey(raw)
	if key == "" {
		return false
	}
	r.ensure()
	return r.filter.Duplicate(key)
}

// Seen reports whether raw was recorded without recording it.
func (r *URLRegistry) Seen(raw string) bool {
	key := canonicalKey(raw)
	if key == "" {
		return false
	}
	r.ensure()
	return r.filter.Seen(key)
}

func (r *URLRegistry) Len() int {
	r.ensure()
	return r.filter.Len()
}

func canonicalKey(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	parsed.Fragment = ""
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = normalizeHost(parsed)
	parsed.Path = normalizePath(parsed.Path)
	if parsed.RawQuery != "" {
		parsed.RawQuery = netutil.NormalizeQuery(parsed.RawQuery)
	}
	return parsed.String()
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean(p)
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}
	return clean
}

func normalizeHost(u *url.URL) string {
	if u == nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" {
		return host
	}
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		return host
	}
	return host + ":" + port
}
