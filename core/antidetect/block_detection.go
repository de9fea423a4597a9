package antidetect

import (
	"regexp"
	"strings"
)

// BlockSignals summarises anti-automation markers found on a rendered page.
// They are advisory: callers log them and keep extracting.
type BlockSignals struct {
	Captcha     bool
	Blocked     bool
	RateLimited bool
	Vendor      string
	Reason      string
}

// Any reports whether any signal fired.
func (s BlockSignals) Any() bool {
	return s.Captcha || s.Blocked || s.RateLimited
}

// WAFSignature recognises a protection vendor from rendered markup.
type WAFSignature struct {
	Name      string
	BodyRegex *regexp.Regexp
}

var wafSignatures = []WAFSignature{
	{Name: "Cloudflare", BodyRegex: regexp.MustCompile(`(?i)cf-error-details|cf-browser-verification|cf-challenge|attention required! \| cloudflare|ray id:`)},
	{Name: "Akamai", BodyRegex: regexp.MustCompile(`(?i)reference #\d+\.\w+\.\d+\.\w+|akamai`)},
	{Name: "Incapsula", BodyRegex: regexp.MustCompile(`(?i)incapsula incident id|_incapsula_resource`)},
	{Name: "Sucuri", BodyRegex: regexp.MustCompile(`(?i)sucuri website firewall|blocked by sucuri`)},
	{Name: "PerimeterX", BodyRegex: regexp.MustCompile(`(?i)px-captcha|_pxhd|perimeterx`)},
	{Name: "DataDome", BodyRegex: regexp.MustCompile(`(?i)datadome|dd_captcha`)},
	{Name: "AWS WAF", BodyRegex: regexp.MustCompile(`(?i)awswaf|aws-waf-token`)},
}

var (
	captchaPatterns = []string{
		"g-recaptcha",
		"recaptcha/api.js",
		"h-captcha",
		"hcaptcha.com",
		"cf-turnstile",
		"challenges.cloudflare.com",
		"verify you are human",
		"are you a robot",
		"complete the security check",
		"checking your browser",
		"please wait while we check your browser",
	}
	blockPatterns = []string{
		"access denied",
		"you have been blocked",
		"request blocked",
		"forbidden",
		"unusual traffic",
		"automated queries",
	}
	rateLimitPatterns = []string{
		"rate limit",
		"too many requests",
		"request limit exceeded",
		"quota exceeded",
		"throttled",
		"slow down",
	}
)

// DetectBlock inspects rendered HTML and visible text for CAPTCHA, block and
// rate-limit markers. Block and rate-limit phrases are only trusted on short
// pages: long content pages mention "forbidden" or "rate limit" legitimately.
func DetectBlock(html, text string) BlockSignals {
	var signals BlockSignals
	lowerHTML := strings.ToLower(html)
	lowerText := strings.ToLower(text)

	for _, sig := range wafSignatures {
		if sig.BodyRegex.MatchString(html) {
			signals.Vendor = sig.Name
			break
		}
	}

	for _, pattern := range captchaPatterns {
		if strings.Contains(lowerHTML, pattern) {
			signals.Captcha = true
			signals.Reason = pattern
			break
		}
	}

	if len(strings.TrimSpace(lowerText)) > 2000 {
		return signals
	}

	for _, pattern := range blockPatterns {
		if strings.Contains(lowerText, pattern) {
			signals.Blocked = true
			if signals.Reason == "" {
				signals.Reason = pattern
			}
			break
		}
	}
	for _, pattern := range rateLimitPatterns {
		if strings.Contains(lowerText, pattern) {
			signals.RateLimited = true
			if signals.Reason == "" {
				signals.Reason = pattern
			}
			break
		}
	}
	if signals.Vendor != "" && !signals.Captcha && (strings.Contains(lowerText, "ray id") || strings.Contains(lowerText, "incident id")) {
		signals.Blocked = true
	}
	return signals
}
