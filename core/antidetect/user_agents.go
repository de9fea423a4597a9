package antidetect

import (
	"strings"
)

// BrowserUserAgent is a user agent with the headers a real browser sends alongside it.
type BrowserUserAgent struct {
	UserAgent string
	Platform  string
	Headers   map[string]string
	Viewport  Viewport
}

// Viewport is a window size consistent with the user agent's platform.
type Viewport struct {
	Width  int
	Height int
}

const chromeAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"

// ChromiumUserAgents lists profiles that match the Chromium engine rod drives.
// Non-Chromium identities would contradict the engine fingerprint.
var ChromiumUserAgents = []BrowserUserAgent{
	{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Platform:  "Windows",
		Viewport:  Viewport{Width: 1920, Height: 1080},
		Headers: map[string]string{
			"Accept":                    chromeAccept,
			"Accept-Language":           "en-US,en;q=0.9",
			"Accept-Encoding":           "gzip, deflate, br",
			"Sec-Ch-Ua":                 `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
			"Sec-Ch-Ua-Mobile":          "?0",
			"Sec-Ch-Ua-Platform":        `"Windows"`,
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Upgrade-Insecure-Requests": "1",
		},
	},
	{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Platform:  "macOS",
		Viewport:  Viewport{Width: 1440, Height: 900},
		Headers: map[string]string{
			"Accept":                    chromeAccept,
			"Accept-Language":           "en-US,en;q=0.9",
			"Accept-Encoding":           "gzip, deflate, br",
			"Sec-Ch-Ua":                 `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
			"Sec-Ch-Ua-Mobile":          "?0",
			"Sec-Ch-Ua-Platform":        `"macOS"`,
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Upgrade-Insecure-Requests": "1",
		},
	},
	{
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Platform:  "Linux",
		Viewport:  Viewport{Width: 1366, Height: 768},
		Headers: map[string]string{
			"Accept":                    chromeAccept,
			"Accept-Language":           "en-US,en;q=0.9",
			"Accept-Encoding":           "gzip, deflate, br",
			"Sec-Ch-Ua":                 `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
			"Sec-Ch-Ua-Mobile":          "?0",
			"Sec-Ch-Ua-Platform":        `"Linux"`,
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Upgrade-Insecure-Requests": "1",
		},
	},
	{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
		Platform:  "Windows",
		Viewport:  Viewport{Width: 1536, Height: 864},
		Headers: map[string]string{
			"Accept":                    chromeAccept,
			"Accept-Language":           "en-US,en;q=0.9",
			"Accept-Encoding":           "gzip, deflate, br",
			"Sec-Ch-Ua":                 `"Not/A)Brand";v="8", "Chromium";v="126", "Microsoft Edge";v="126"`,
			"Sec-Ch-Ua-Mobile":          "?0",
			"Sec-Ch-Ua-Platform":        `"Windows"`,
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Upgrade-Insecure-Requests": "1",
		},
	},
}

// browserManagedHeaders are computed by the browser per request; overriding
// them globally would make subresource requests look wrong.
var browserManagedHeaders = map[string]struct{}{
	"accept-encoding": {},
	"sec-fetch-dest":  {},
	"sec-fetch-mode":  {},
	"sec-fetch-site":  {},
	"sec-fetch-user":  {},
	"accept":          {},
}

// GetRandomUserAgent returns a random Chromium profile.
func GetRandomUserAgent() BrowserUserAgent {
	return ChromiumUserAgents[randInt63n(int64(len(ChromiumUserAgents)))]
}

// GetUserAgentByPlatform returns the first profile for platform, or a random one.
func GetUserAgentByPlatform(platform string) BrowserUserAgent {
	for _, ua := range ChromiumUserAgents {
		if strings.EqualFold(ua.Platform, platform) {
			return ua
		}
	}
	return GetRandomUserAgent()
}

// ExtraHeaders returns the headers safe to install as page-wide overrides.
func (b BrowserUserAgent) ExtraHeaders() map[string]string {
	out := make(map[string]string, len(b.Headers))
	for k, v := range b.Headers {
		if _, managed := browserManagedHeaders[strings.ToLower(k)]; managed {
			continue
		}
		out[k] = v
	}
	return out
}

// AcceptLanguage returns the profile's Accept-Language value.
func (b BrowserUserAgent) AcceptLanguage() string {
	if v, ok := b.Headers["Accept-Language"]; ok {
		return v
	}
	return "en-US,en;q=0.9"
}
