package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadspider/leadspider/internal/cascade"
	"github.com/leadspider/leadspider/internal/netutil"
)

const (
	strategyVisitCTA   = "visit-cta"
	strategyRedirect   = "redirect"
	strategyGetItCTA   = "get-it-cta"
	strategyShortest   = "shortest-external"
	strategyTextDomain = "text-domain"
	strategyEmail      = "email-domain"
)

const maxRedirectFollows = 2

var (
	websitePhrase = regexp.MustCompile(`(?i)(?:website|visit us at|official site)\s*[:\-]?\s*((?:https?://)?(?:[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?\.)+[a-z]{2,}(?:/[^\s"'<>]*)?)`)
	emailAddress  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@((?:[a-zA-Z0-9\-]+\.)+[a-zA-Z]{2,})`)
)

// discoverWebsite runs the website cascade; the first strategy that yields a
// URL wins and later strategies never run.
func (r *Resolver) discoverWebsite(ctx context.Context, page *entityPage) cascade.Outcome[string] {
	return cascade.First(ctx,
		cascade.Strategy[string]{Name: strategyVisitCTA, Run: func(context.Context) (string, error) {
			return r.ctaLink(page, r.cfg.VisitLabels), nil
		}},
		cascade.Strategy[string]{Name: strategyRedirect, Run: func(ctx context.Context) (string, error) {
			return r.followRedirect(ctx, page)
		}},
		cascade.Strategy[string]{Name: strategyGetItCTA, Run: func(context.Context) (string, error) {
			return r.ctaLink(page, r.cfg.GetItLabels), nil
		}},
		cascade.Strategy[string]{Name: strategyShortest, Run: func(context.Context) (string, error) {
			return r.shortestExternal(page), nil
		}},
		cascade.Strategy[string]{Name: strategyTextDomain, Run: func(context.Context) (string, error) {
			return r.textDomain(page), nil
		}},
		cascade.Strategy[string]{Name: strategyEmail, Run: func(context.Context) (string, error) {
			return r.emailDomain(page), nil
		}},
	)
}

func linkLabel(a *goquery.Selection) string {
	label := a.Text() + " " + a.AttrOr("aria-label", "") + " " + a.AttrOr("title", "")
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

// candidate resolves href and accepts it only when it leaves the listing site
// for a host that could be a product's own site.
func (r *Resolver) candidate(page *entityPage, href string) (string, bool) {
	resolved, ok := netutil.ResolveHref(page.base, href)
	if !ok {
		return "", false
	}
	host := netutil.Hostname(resolved)
	if host == "" || r.excludedHost(page, host) || netutil.HostMatches(host, r.cfg.NonProductDomains) {
		return "", false
	}
	return netutil.StripTracking(resolved), true
}

func (r *Resolver) excludedHost(page *entityPage, host string) bool {
	if netutil.HostMatches(host, r.cfg.ExcludedDomains) {
		return true
	}
	return page.listingHost != "" && netutil.SameSite(host, page.listingHost)
}

func (r *Resolver) ctaLink(page *entityPage, labels []string) string {
	found := ""
	page.doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		label := linkLabel(a)
		if label == "" || !hasLabel(label, labels) {
			return true
		}
		if site, ok := r.candidate(page, a.AttrOr("href", "")); ok {
			found = site
			return false
		}
		return true
	})
	return found
}

// hasLabel matches a label that equals or starts with one of labels.
func hasLabel(label string, labels []string) bool {
	for _, l := range labels {
		if label == l || strings.HasPrefix(label, l+" ") {
			return true
		}
	}
	return false
}

func (r *Resolver) redirectLinks(page *entityPage) []string {
	var out []string
	seen := map[string]struct{}{}
	page.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		resolved, ok := netutil.ResolveHref(page.base, a.AttrOr("href", ""))
		if !ok || !netutil.SameSite(resolved, page.base.String()) {
			return
		}
		for _, marker := range r.cfg.RedirectMarkers {
			if strings.Contains(resolved, marker) {
				if _, dup := seen[resolved]; !dup {
					seen[resolved] = struct{}{}
					out = append(out, resolved)
				}
				return
			}
		}
	})
	return out
}

func (r *Resolver) followRedirect(ctx context.Context, page *entityPage) (string, error) {
	links := r.redirectLinks(page)
	if len(links) > maxRedirectFollows {
		links = links[:maxRedirectFollows]
	}
	var errs []error
	for _, link := range links {
		final, err := r.nav.FinalURL(ctx, link)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		host := netutil.Hostname(final)
		if host == "" || r.excludedHost(page, host) || netutil.HostMatches(host, r.cfg.PlaceholderDomains) {
			continue
		}
		return netutil.StripTracking(final), nil
	}
	return "", errors.Join(errs...)
}

// shortestExternal picks the shortest outbound link; a short URL is usually a
// site root rather than a deep page.
func (r *Resolver) shortestExternal(page *entityPage) string {
	best := ""
	page.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		site, ok := r.candidate(page, a.AttrOr("href", ""))
		if !ok {
			return
		}
		if best == "" || len(site) < len(best) {
			best = site
		}
	})
	return best
}

func bareDomainPattern(productTLDs []string) *regexp.Regexp {
	tlds := make([]string, 0, len(productTLDs))
	for _, tld := range productTLDs {
		tlds = append(tlds, regexp.QuoteMeta(strings.TrimPrefix(strings.ToLower(tld), ".")))
	}
	return regexp.MustCompile(`(?i)\b((?:[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?\.)+(?:` + strings.Join(tlds, "|") + `))\b`)
}

// textDomain reads the website from the visible description: explicit
// phrasing first, then bare domains on product-like TLDs.
func (r *Resolver) textDomain(page *entityPage) string {
	for _, m := range websitePhrase.FindAllStringSubmatch(page.text, -1) {
		if site := r.acceptTextDomain(page, m[1]); site != "" {
			return site
		}
	}
	text := page.text
	for _, loc := range r.bareDomain.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		if start > 0 && (text[start-1] == '@' || text[start-1] == '.') {
			continue
		}
		if end < len(text) && text[end] == '@' {
			continue
		}
		if site := r.acceptTextDomain(page, text[start:end]); site != "" {
			return site
		}
	}
	return ""
}

func (r *Resolver) acceptTextDomain(page *entityPage, raw string) string {
	raw = strings.TrimRight(raw, ".,;:)")
	site := netutil.EnsureScheme(raw)
	host := netutil.Hostname(site)
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	if r.excludedHost(page, host) || netutil.HostMatches(host, r.cfg.NonProductDomains) {
		return ""
	}
	if netutil.HostMatches(host, r.cfg.FalsePositiveDomains) && !r.corroborated(page, host) {
		r.log.WithField("domain", host).Debug("uncorroborated false-positive domain, skipping")
		return ""
	}
	return netutil.StripTracking(site)
}

// corroborated reports whether host is mentioned often enough in the text or
// linked from the header area.
func (r *Resolver) corroborated(page *entityPage, host string) bool {
	if strings.Count(strings.ToLower(page.text), host) >= r.cfg.TextCorroboration {
		return true
	}
	links := 0
	page.doc.Find(`header a[href], nav a[href], [role="banner"] a[href], [role="navigation"] a[href]`).Each(func(_ int, a *goquery.Selection) {
		if netutil.HostMatches(netutil.Hostname(a.AttrOr("href", "")), []string{host}) {
			links++
		}
	})
	return links >= r.cfg.HeaderCorroboration
}

// emailDomain derives a site from a business email address on the page.
func (r *Resolver) emailDomain(page *entityPage) string {
	var sources []string
	page.doc.Find(`a[href^="mailto:"], a[href^="MAILTO:"]`).Each(func(_ int, a *goquery.Selection) {
		sources = append(sources, strings.TrimPrefix(strings.TrimPrefix(a.AttrOr("href", ""), "mailto:"), "MAILTO:"))
	})
	sources = append(sources, page.text)
	for _, src := range sources {
		for _, m := range emailAddress.FindAllStringSubmatch(src, -1) {
			domain := strings.ToLower(m[1])
			if netutil.HostMatches(domain, r.cfg.FreeMailDomains) ||
				netutil.HostMatches(domain, r.cfg.PlaceholderDomains) ||
				r.excludedHost(page, domain) {
				continue
			}
			return fmt.Sprintf("https://%s", domain)
		}
	}
	return ""
}
