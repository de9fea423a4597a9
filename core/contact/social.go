package contact

import (
	"net/url"
	"strings"

	"github.com/leadspider/leadspider/internal/netutil"
)

var (
	twitterDomains  = []string{"twitter.com", "x.com"}
	linkedInDomains = []string{"linkedin.com"}

	reservedTwitterPaths = map[string]struct{}{
		"share": {}, "intent": {}, "home": {}, "search": {}, "hashtag": {}, "i": {}, "login": {},
		"signup": {}, "explore": {}, "settings": {}, "privacy": {}, "tos": {}, "status": {},
		"messages": {}, "notifications": {},
	}
)

// IsTwitterURL reports whether raw points at twitter.com or x.com.
func IsTwitterURL(raw string) bool {
	return netutil.HostMatches(netutil.Hostname(raw), twitterDomains)
}

// IsLinkedInURL reports whether raw points at linkedin.com.
func IsLinkedInURL(raw string) bool {
	return netutil.HostMatches(netutil.Hostname(raw), linkedInDomains)
}

// TwitterHandle extracts the handle from a Twitter/X link: the trailing path
// segment, without "@". Status links yield their author. Segments containing a
// dot, equal to the bare domain or naming a reserved route are rejected.
func TwitterHandle(href string) string {
	href = strings.TrimSpace(href)
	if !IsTwitterURL(href) {
		return ""
	}
	parsed, err := url.Parse(netutil.EnsureScheme(href))
	if err != nil {
		return ""
	}
	var segments []string
	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return ""
	}
	if _, reserved := reservedTwitterPaths[strings.ToLower(segments[0])]; reserved {
		return ""
	}
	handle := segments[len(segments)-1]
	if len(segments) > 1 && strings.EqualFold(segments[1], "status") {
		handle = segments[0]
	}
	handle = strings.TrimPrefix(handle, "@")
	if handle == "" || strings.Contains(handle, ".") {
		return ""
	}
	lower := strings.ToLower(handle)
	for _, d := range twitterDomains {
		if lower == d || lower == strings.TrimSuffix(d, ".com") {
			return ""
		}
	}
	if _, reserved := reservedTwitterPaths[lower]; reserved {
		return ""
	}
	return handle
}

// CleanLinkedIn returns the LinkedIn URL without tracking parameters.
func CleanLinkedIn(href string) string {
	if !IsLinkedInURL(href) {
		return ""
	}
	parsed, err := url.Parse(netutil.EnsureScheme(strings.TrimSpace(href)))
	if err != nil {
		return ""
	}
	if strings.Trim(parsed.Path, "/") == "" {
		return ""
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

func ignoredHandle(handle string, ignore []string) bool {
	for _, h := range ignore {
		if strings.EqualFold(handle, h) {
			return true
		}
	}
	return false
}
