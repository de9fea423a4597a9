package netutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveHref(t *testing.T) {
	base, _ := url.Parse("https://www.producthunt.com/products/acme")

	got, ok := ResolveHref(base, "/r/abc123")
	assert.True(t, ok)
	assert.Equal(t, "https://www.producthunt.com/r/abc123", got)

	got, ok = ResolveHref(base, "//acme.io/pricing#plans")
	assert.True(t, ok)
	assert.Equal(t, "https://acme.io/pricing", got)

	for _, candidate := range []string{"", "#top", "mailto:hi@acme.io", "javascript:void(0)", "/logo.png", "ftp://acme.io"} {
		_, ok := ResolveHref(base, candidate)
		assert.False(t, ok, "candidate %q should be rejected", candidate)
	}
}

func TestHostHelpers(t *testing.T) {
	assert.Equal(t, "acme.io", Hostname("https://WWW.Acme.io/path"))
	assert.Equal(t, "acme.io", Hostname("acme.io"))
	assert.Equal(t, "acme.co.uk", RegistrableDomain("app.acme.co.uk"))
	assert.True(t, HostMatches("blog.medium.com", []string{"medium.com"}))
	assert.False(t, HostMatches("notmedium.com", []string{"medium.com"}))
	assert.True(t, SameSite("https://app.acme.io/login", "https://acme.io"))
	assert.False(t, SameSite("https://acme.io", "https://acme.com"))
	assert.Equal(t, "https://acme.io", Origin("https://acme.io/about?x=1"))
	assert.Equal(t, "https://acme.io", EnsureScheme("acme.io"))
}

func TestStripTracking(t *testing.T) {
	got := StripTracking("https://acme.io/?utm_source=producthunt&ref=ph&b=2&a=1#hero")
	assert.Equal(t, "https://acme.io/?a=1&b=2", got)
}
