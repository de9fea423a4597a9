package netutil

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	trackingParamPrefixes = []string{"utm_", "mc_", "pk_"}
	trackingParams        = map[string]struct{}{
		"ref": {}, "ref_src": {}, "fbclid": {}, "gclid": {}, "msclkid": {}, "igshid": {}, "via": {},
	}

	fileExtensionExclusions = map[string]struct{}{
		".zip": {}, ".dmg": {}, ".gz": {}, ".tar": {}, ".exe": {}, ".pdf": {},
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {}, ".webp": {}, ".ico": {},
		".woff": {}, ".woff2": {}, ".ttf": {}, ".css": {}, ".js": {}, ".mp4": {}, ".mp3": {},
	}
)

// ResolveHref resolves candidate against base and drops links that cannot be
// navigated to (script/data/mail links, static assets).
func ResolveHref(base *url.URL, candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || strings.HasPrefix(candidate, "#") {
		return "", false
	}

	lower := strings.ToLower(candidate)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "tel:") {
		return "", false
	}

	if strings.HasPrefix(candidate, "//") {
		if base != nil {
			candidate = base.Scheme + ":" + candidate
		} else {
			candidate = "https:" + candidate
		}
	}

	candidate = strings.Trim(candidate, "\"'<>[](){} ")
	if candidate == "" {
		return "", false
	}

	var resolved *url.URL
	var err error
	if base != nil {
		resolved, err = base.Parse(candidate)
	} else {
		resolved, err = url.Parse(candidate)
	}
	if err != nil || resolved.Host == "" {
		return "", false
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}

	resolved.Fragment = ""
	if ext := strings.ToLower(path.Ext(resolved.Path)); ext != "" {
		if _, ok := fileExtensionExclusions[ext]; ok {
			return "", false
		}
	}
	return resolved.String(), true
}

// EnsureScheme prefixes bare domains with https://.
func EnsureScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}

// Hostname returns the lower-cased host of raw without a leading "www.".
func Hostname(raw string) string {
	parsed, err := url.Parse(EnsureScheme(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// RegistrableDomain returns the eTLD+1 of host, or host itself when the public
// suffix list cannot decide.
func RegistrableDomain(host string) string {
	host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// HostMatches reports whether host equals one of domains or is a subdomain of it.
func HostMatches(host string, domains []string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if host == "" {
		return false
	}
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// SameSite reports whether both URLs share a registrable domain.
func SameSite(a, b string) bool {
	ha, hb := Hostname(a), Hostname(b)
	if ha == "" || hb == "" {
		return false
	}
	return RegistrableDomain(ha) == RegistrableDomain(hb)
}

// Origin returns scheme://host of raw.
func Origin(raw string) string {
	parsed, err := url.Parse(EnsureScheme(raw))
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// StripTracking removes campaign parameters and fragments and sorts what is left.
func StripTracking(raw string) string {
	if raw == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.Fragment = ""
	if parsed.RawQuery != "" {
		parsed.RawQuery = NormalizeQuery(parsed.RawQuery)
	}
	return parsed.String()
}

// NormalizeQuery sorts keys and values, dedupes values and drops tracking keys.
func NormalizeQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		if isTrackingParam(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		vals := values[k]
		sort.Strings(vals)
		vals = dedupeSortedStrings(vals)
		escapedKey := url.QueryEscape(k)
		if len(vals) == 0 {
			appendQueryComponent(&builder, escapedKey, "")
			continue
		}
		for _, v := range vals {
			appendQueryComponent(&builder, escapedKey, url.QueryEscape(v))
		}
	}

	return builder.String()
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if _, ok := trackingParams[key]; ok {
		return true
	}
	for _, prefix := range trackingParamPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func appendQueryComponent(builder *strings.Builder, key, value string) {
	if builder.Len() > 0 {
		builder.WriteByte('&')
	}
	builder.WriteString(key)
	if value != "" {
		builder.WriteByte('=')
		builder.WriteString(value)
	}
}

func dedupeSortedStrings(values []string) []string {
	if len(values) < 2 {
		return values
	}
	deduped := make([]string, 0, len(values))
	var last string
	for i, v := range values {
		if i > 0 && v == last {
			continue
		}
		deduped = append(deduped, v)
		last = v
	}
	return deduped
}
