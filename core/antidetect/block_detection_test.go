package antidetect

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlockCaptcha(t *testing.T) {
	html := `<html><body><div class="cf-turnstile" data-sitekey="x"></div><p>Verify you are human</p></body></html>`
	signals := DetectBlock(html, "Verify you are human")
	assert.True(t, signals.Captcha)
	assert.True(t, signals.Any())
}

func TestDetectBlockRateLimitOnlyOnShortPages(t *testing.T) {
	short := DetectBlock("<p>Too many requests</p>", "Too many requests")
	assert.True(t, short.RateLimited)

	long := strings.Repeat("An article about API rate limit design. ", 100)
	assert.False(t, DetectBlock("<article>"+long+"</article>", long).RateLimited)
}

func TestDetectBlockCleanPage(t *testing.T) {
	signals := DetectBlock(`<html><body><h1>Acme</h1></body></html>`, "Acme")
	assert.False(t, signals.Any())
	assert.Empty(t, signals.Vendor)
}

func TestRetryConfigDelay(t *testing.T) {
	rc := RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 3 * time.Second}
	assert.Zero(t, rc.Delay(0))
	assert.Equal(t, time.Second, rc.Delay(1))
	assert.Equal(t, 2*time.Second, rc.Delay(2))
	assert.Equal(t, 3*time.Second, rc.Delay(5))
	assert.Equal(t, 1, RetryConfig{}.Attempts())
}

func TestUserAgentExtraHeadersSkipBrowserManaged(t *testing.T) {
	ua := GetUserAgentByPlatform("linux")
	assert.Contains(t, ua.UserAgent, "Linux")
	headers := ua.ExtraHeaders()
	assert.Contains(t, headers, "Accept-Language")
	assert.NotContains(t, headers, "Sec-Fetch-Mode")
	assert.NotContains(t, headers, "Accept-Encoding")
	assert.Equal(t, "en-US,en;q=0.9", ua.AcceptLanguage())
}
