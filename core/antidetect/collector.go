package antidetect

import (
	"strings"

	"github.com/gocolly/colly/v2"
)

// Feedback receives the outcome of a request so pacing can adapt.
type Feedback interface {
	RecordFailure()
	RecordSuccess()
}

// ApplyToCollyCollector dresses a colly collector with the same identity the
// browser uses and reports blocked responses to fb (which may be nil).
func ApplyToCollyCollector(collector *colly.Collector, ua BrowserUserAgent, fb Feedback) {
	collector.UserAgent = ua.UserAgent

	collector.OnRequest(func(r *colly.Request) {
		for header, value := range ua.Headers {
			// Go's transport only decompresses what it negotiated itself.
			if strings.EqualFold(header, "accept-encoding") {
				continue
			}
			r.Headers.Set(header, value)
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		if fb == nil {
			return
		}
		signals := DetectBlock(string(r.Body), "")
		if signals.Captcha || r.StatusCode == 429 || r.StatusCode == 403 {
			fb.RecordFailure()
			return
		}
		fb.RecordSuccess()
	})

	collector.OnError(func(r *colly.Response, _ error) {
		if fb != nil && r != nil && (r.StatusCode == 429 || r.StatusCode >= 500) {
			fb.RecordFailure()
		}
	})
}
