package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want ErrorKind
	}{
		"hard timeout":  {fmt.Errorf("wrap: %w", ErrHardTimeout), KindTimeout},
		"deadline":      {context.DeadlineExceeded, KindTimeout},
		"refused":       {errors.New("navigation failed: net::ERR_CONNECTION_REFUSED"), KindConnectionRefused},
		"dns":           {errors.New("navigation failed: net::ERR_NAME_NOT_RESOLVED"), KindDNS},
		"aborted":       {errors.New("net::ERR_ABORTED"), KindAborted},
		"tls":           {errors.New("net::ERR_CERT_AUTHORITY_INVALID"), KindTLS},
		"generic":       {errors.New("something odd"), KindNavigation},
		"wrapped typed": {&NavigationError{URL: "https://x", Kind: KindDNS, Err: errors.New("x")}, KindDNS},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyError(tc.err))
		})
	}
	assert.Equal(t, ErrorKind(""), ClassifyError(nil))
}

func TestWaitStrategyEscalate(t *testing.T) {
	assert.Equal(t, WaitNetworkAlmostIdle, WaitDOMContentLoaded.Escalate(1))
	assert.Equal(t, WaitNetworkIdle, WaitDOMContentLoaded.Escalate(5))
	assert.Equal(t, "network-idle", WaitNetworkIdle.String())
}

func TestDecodeResultAcceptsStringifiedPayloads(t *testing.T) {
	var direct []string
	assert.NoError(t, DecodeResult([]byte(`["a","b"]`), &direct))
	assert.Equal(t, []string{"a", "b"}, direct)

	var wrapped map[string]int
	assert.NoError(t, DecodeResult([]byte(`"{\"height\":1200}"`), &wrapped))
	assert.Equal(t, 1200, wrapped["height"])

	var text string
	assert.NoError(t, DecodeResult([]byte(`"hello"`), &text))
	assert.Equal(t, "hello", text)

	var untouched []string
	assert.NoError(t, DecodeResult([]byte("null"), &untouched))
	assert.Nil(t, untouched)
}

func TestTextFromHTMLDropsScripts(t *testing.T) {
	text := TextFromHTML(`<html><body><h1>Acme</h1><script>var x = "hidden@acme.io"</script><p>Reach  us</p></body></html>`)
	assert.Equal(t, "Acme\nReach us", text)
}
