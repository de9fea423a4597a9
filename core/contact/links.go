package contact

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadspider/leadspider/internal/netutil"
)

// linkScan walks anchors once and classifies each by href, text and inner
// markup.
type linkScan struct {
	emails   []string
	twitter  string
	linkedIn string
	contact  string
}

func (e *Engine) scanLinks(scope *goquery.Selection, base *url.URL) linkScan {
	var scan linkScan
	anchors := scope.Find("a[href]").AddSelection(scope.Filter("a[href]"))
	anchors.Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		text := strings.TrimSpace(a.Text())
		lowerHref := strings.ToLower(href)

		if strings.HasPrefix(lowerHref, "mailto:") {
			addr := strings.TrimPrefix(href[len("mailto:"):], "//")
			if i := strings.IndexAny(addr, "?#"); i >= 0 {
				addr = addr[:i]
			}
			if unescaped, err := url.QueryUnescape(addr); err == nil {
				addr = unescaped
			}
			if email := e.emails.Clean(addr); email != "" {
				scan.emails = append(scan.emails, email)
			}
			return
		}

		for _, email := range e.emails.Extract(text) {
			scan.emails = append(scan.emails, email)
		}

		resolved, ok := netutil.ResolveHref(base, href)
		if !ok {
			return
		}
		switch {
		case IsTwitterURL(resolved):
			if scan.twitter == "" {
				if handle := TwitterHandle(resolved); handle != "" && !ignoredHandle(handle, e.opts.IgnoreHandles) {
					scan.twitter = handle
				}
			}
		case IsLinkedInURL(resolved):
			if scan.linkedIn == "" {
				scan.linkedIn = CleanLinkedIn(resolved)
			}
		case scan.contact == "" && base != nil && netutil.SameSite(resolved, base.String()):
			if e.isContactLink(resolved, text, a) {
				scan.contact = resolved
			}
		}
	})
	return scan
}

func (s linkScan) bundle(f emailFilter) Bundle {
	return Bundle{
		Email:          f.Best(s.emails),
		Twitter:        s.twitter,
		LinkedIn:       s.linkedIn,
		ContactPageURL: s.contact,
	}
}

func (e *Engine) isContactLink(resolved, text string, a *goquery.Selection) bool {
	parsed, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	label := strings.ToLower(text + " " + a.AttrOr("aria-label", "") + " " + a.AttrOr("title", ""))
	for _, kw := range e.opts.ContactKeywords {
		slug := strings.ReplaceAll(kw, " ", "-")
		if strings.Contains(path, slug) || strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

// findContactPage returns the same-site link that best looks like a contact
// page. Earlier keywords take priority over later ones.
func (e *Engine) findContactPage(doc *goquery.Document, base *url.URL) string {
	if base == nil {
		return ""
	}
	type candidate struct {
		url  string
		text string
		path string
	}
	var candidates []candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		resolved, ok := netutil.ResolveHref(base, a.AttrOr("href", ""))
		if !ok || !netutil.SameSite(resolved, base.String()) {
			return
		}
		parsed, err := url.Parse(resolved)
		if err != nil || strings.Trim(parsed.Path, "/") == "" {
			return
		}
		if strings.TrimRight(resolved, "/") == strings.TrimRight(base.String(), "/") {
			return
		}
		candidates = append(candidates, candidate{
			url:  resolved,
			text: strings.ToLower(strings.TrimSpace(a.Text()) + " " + a.AttrOr("aria-label", "")),
			path: strings.ToLower(parsed.Path),
		})
	})
	for _, kw := range e.opts.ContactKeywords {
		slug := strings.ReplaceAll(kw, " ", "-")
		for _, c := range candidates {
			if strings.Contains(c.path, slug) || strings.Contains(c.text, kw) {
				return c.url
			}
		}
	}
	return ""
}

// headerMentions counts header/nav links to domain plus textual mentions of it
// inside those regions.
func (e *Engine) headerMentions(doc *goquery.Document, domain string) int {
	if domain == "" {
		return 0
	}
	count := 0
	e.opts.Header.Scope(doc.Selection).Each(func(_ int, region *goquery.Selection) {
		region.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			if netutil.HostMatches(netutil.Hostname(a.AttrOr("href", "")), []string{domain}) {
				count++
			}
		})
		count += strings.Count(strings.ToLower(region.Text()), domain)
	})
	return count
}
