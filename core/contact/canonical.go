package contact

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadspider/leadspider/internal/netutil"
)

// refineCanonical picks the site's own idea of its home URL: a header link to
// the root, the canonical link, og:url, a url meta tag, and finally the page
// origin. A result on a generic hosting domain is kept only when the header
// mentions it often enough; otherwise rejected is set.
func (e *Engine) refineCanonical(doc *goquery.Document, base *url.URL) (canonical string, rejected bool) {
	if base == nil {
		return "", false
	}
	candidates := []string{e.headerHomeLink(doc, base)}
	candidates = append(candidates,
		doc.Find(`link[rel="canonical"]`).First().AttrOr("href", ""),
		doc.Find(`meta[property="og:url"]`).First().AttrOr("content", ""),
		doc.Find(`meta[name="url"], meta[itemprop="url"], meta[name="twitter:url"]`).First().AttrOr("content", ""),
		base.String(),
	)

	for _, raw := range candidates {
		resolved, ok := netutil.ResolveHref(base, raw)
		if !ok {
			continue
		}
		canonical = resolved
		break
	}
	if canonical == "" {
		return "", false
	}

	host := netutil.Hostname(canonical)
	if netutil.HostMatches(host, e.opts.GenericDomains) {
		if e.headerMentions(doc, host) < e.opts.HeaderCorroboration {
			return "", true
		}
		return netutil.StripTracking(canonical), false
	}
	return netutil.Origin(canonical), false
}

// headerHomeLink is a header link to the root of the page's own site, a logo
// or "home" link first. Links leaving the site are never a home link.
func (e *Engine) headerHomeLink(doc *goquery.Document, base *url.URL) string {
	home, fallback := "", ""
	e.opts.Header.Scope(doc.Selection).Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		resolved, ok := netutil.ResolveHref(base, a.AttrOr("href", ""))
		if !ok || !netutil.SameSite(resolved, base.String()) {
			return true
		}
		parsed, err := url.Parse(resolved)
		if err != nil || strings.Trim(parsed.Path, "/") != "" {
			return true
		}
		class := strings.ToLower(a.AttrOr("class", "") + " " + a.AttrOr("aria-label", ""))
		isLogo := strings.Contains(class, "logo") || strings.Contains(class, "brand") || a.Find("img, svg").Length() > 0
		if isLogo || strings.EqualFold(strings.TrimSpace(a.Text()), "home") {
			home = resolved
			return false
		}
		if fallback == "" {
			fallback = resolved
		}
		return true
	})
	if home == "" {
		return fallback
	}
	return home
}
