package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLRegistryCanonicalisesEntityURLs(t *testing.T) {
	reg := NewURLRegistry()

	assert.False(t, reg.Duplicate("https://www.producthunt.com/products/acme?utm_source=feed"))
	assert.True(t, reg.Duplicate("HTTPS://www.ProductHunt.com:443/products/acme/"), "host case, default port and trailing slash should collapse")
	assert.True(t, reg.Duplicate("https://www.producthunt.com/products/acme#reviews"))
	assert.False(t, reg.Duplicate("https://www.producthunt.com/products/other"))
	assert.Equal(t, 2, reg.Len())
}

func TestURLRegistrySeen(t *testing.T) {
	reg := NewURLRegistry()
	assert.False(t, reg.Seen("https://example.com/products/a"))
	assert.False(t, reg.Seen("https://example.com/products/a"), "Seen must not record")
	reg.Duplicate("https://example.com/products/a")
	assert.True(t, reg.Seen("https://example.com/products/a"))
	assert.False(t, reg.Duplicate(""))
}
