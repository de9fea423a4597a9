package contact

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/leadspider/leadspider/internal/netutil"
	sitemap "github.com/oxffaa/gopher-parse-sitemap"
)

var errFound = errors.New("found")

const maxChildSitemaps = 3

// contactFromSitemap looks for a contact-like URL in the site's sitemap.xml.
func (e *Engine) contactFromSitemap(ctx context.Context, base *url.URL) string {
	if e.static == nil || base == nil {
		return ""
	}
	root := netutil.Origin(base.String()) + "/sitemap.xml"
	body, err := e.static.Fetch(ctx, root)
	if err != nil {
		e.log.WithField("url", root).Debugf("sitemap unavailable: %v", err)
		return ""
	}
	if found := e.contactFromURLSet(body, base); found != "" {
		return found
	}

	var children []string
	_ = sitemap.ParseIndex(strings.NewReader(body), func(entry sitemap.IndexEntry) error {
		if loc := strings.TrimSpace(entry.GetLocation()); loc != "" {
			children = append(children, loc)
		}
		if len(children) >= maxChildSitemaps {
			return errFound
		}
		return nil
	})
	for _, child := range children {
		if !netutil.SameSite(child, base.String()) {
			continue
		}
		body, err := e.static.Fetch(ctx, child)
		if err != nil {
			continue
		}
		if found := e.contactFromURLSet(body, base); found != "" {
			return found
		}
	}
	return ""
}

func (e *Engine) contactFromURLSet(body string, base *url.URL) string {
	var locations []string
	_ = sitemap.Parse(strings.NewReader(body), func(entry sitemap.Entry) error {
		loc := strings.TrimSpace(entry.GetLocation())
		if loc != "" && netutil.SameSite(loc, base.String()) {
			locations = append(locations, loc)
		}
		return nil
	})
	for _, kw := range e.opts.ContactKeywords {
		slug := strings.ReplaceAll(kw, " ", "-")
		for _, loc := range locations {
			parsed, err := url.Parse(loc)
			if err != nil {
				continue
			}
			if strings.Contains(strings.ToLower(parsed.Path), slug) {
				return loc
			}
		}
	}
	return ""
}
