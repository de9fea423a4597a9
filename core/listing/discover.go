// Package listing finds entity links on a lazily loaded listing page.
package listing

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadspider/leadspider/core/antidetect"
	"github.com/leadspider/leadspider/core/browser"
	"github.com/leadspider/leadspider/internal/cascade"
	"github.com/leadspider/leadspider/internal/netutil"
	"github.com/sirupsen/logrus"
)

// Entity is one listed item. SourceURL is its identity.
type Entity struct {
	Name      string `json:"name"`
	SourceURL string `json:"source_url"`
}

// Opener opens rendered pages. *browser.Navigator satisfies it.
type Opener interface {
	Open(ctx context.Context, url string, opts browser.OpenOptions) (*browser.RenderedPage, error)
}

// Config tunes discovery.
type Config struct {
	EntityPathPrefix string
	StableRounds     int
	MaxScrolls       int
	MinExpected      int
	ScrollPause      time.Duration
	Logger           logrus.FieldLogger
}

func DefaultConfig() Config {
	return Config{
		EntityPathPrefix: "/products/",
		StableRounds:     3,
		MaxScrolls:       50,
		MinExpected:      20,
		ScrollPause:      1500 * time.Millisecond,
	}
}

// Discoverer loads a listing page, scrolls it until it stops growing and
// collects entity links.
type Discoverer struct {
	nav Opener
	cfg Config
	log logrus.FieldLogger
}

func NewDiscoverer(nav Opener, cfg Config) *Discoverer {
	def := DefaultConfig()
	if cfg.EntityPathPrefix == "" {
		cfg.EntityPathPrefix = def.EntityPathPrefix
	}
	if !strings.HasPrefix(cfg.EntityPathPrefix, "/") {
		cfg.EntityPathPrefix = "/" + cfg.EntityPathPrefix
	}
	if !strings.HasSuffix(cfg.EntityPathPrefix, "/") {
		cfg.EntityPathPrefix += "/"
	}
	if cfg.StableRounds <= 0 {
		cfg.StableRounds = def.StableRounds
	}
	if cfg.MaxScrolls <= 0 {
		cfg.MaxScrolls = def.MaxScrolls
	}
	if cfg.MinExpected < 0 {
		cfg.MinExpected = 0
	}
	if cfg.ScrollPause < 0 {
		cfg.ScrollPause = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Discoverer{nav: nav, cfg: cfg, log: logger}
}

const heightScript = `() => Math.max(
	document.body ? document.body.scrollHeight : 0,
	document.documentElement ? document.documentElement.scrollHeight : 0
)`

const scrollBottomScript = `() => {
	window.scrollTo(0, Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement.scrollHeight));
	return true;
}`

// domLinksScript lists links containing the entity prefix together with the
// nearest heading of their card.
const domLinksScript = `(prefix) => {
	const out = [];
	document.querySelectorAll("a[href]").forEach((a) => {
		if (!a.href || a.href.indexOf(prefix) === -1) return;
		let name = "";
		const own = a.querySelector("h1,h2,h3,h4,[class*='name'],[class*='title']");
		if (own) name = own.innerText;
		if (!name) {
			const card = a.closest("article,li,section,[class*='card'],[class*='item'],div");
			const heading = card ? card.querySelector("h1,h2,h3,h4") : null;
			if (heading) name = heading.innerText;
		}
		if (!name) name = a.innerText || a.getAttribute("aria-label") || a.title || "";
		out.push({ href: a.href, name: name.trim().slice(0, 200) });
	});
	return out;
}`

type domLink struct {
	Href string `json:"href"`
	Name string `json:"name"`
}

// Discover performs a fresh load of listingURL and returns up to maxItems
// entities (0 means no limit) in first-seen order.
func (d *Discoverer) Discover(ctx context.Context, listingURL string, maxItems int) ([]Entity, error) {
	rp, err := d.nav.Open(ctx, listingURL, browser.OpenOptions{Wait: browser.WaitDOMContentLoaded})
	if err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}
	defer rp.Close()

	if rp.Signals.Any() {
		d.log.WithFields(logrus.Fields{"url": listingURL, "reason": rp.Signals.Reason}).Warn("listing page looks protected, extracting anyway")
	}

	scrolls, err := d.scroll(ctx, rp.Page)
	if err != nil {
		d.log.WithField("url", listingURL).Debugf("scrolling stopped early: %v", err)
	}
	if err := rp.Refresh(ctx); err != nil {
		d.log.WithField("url", listingURL).Debugf("refresh after scroll: %v", err)
	}

	base, err := url.Parse(cascade.FirstNonEmpty(rp.FinalURL, listingURL))
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	set := newEntitySet()
	d.fromHTML(rp.HTML, base, set)
	primary := set.Len()
	if primary < d.cfg.MinExpected {
		if err := d.fromDOM(ctx, rp.Page, base, set); err != nil {
			d.log.WithField("url", listingURL).Debugf("dom link scan: %v", err)
		}
	}

	entities := set.Entities()
	if maxItems > 0 && len(entities) > maxItems {
		entities = entities[:maxItems]
	}
	d.log.WithFields(logrus.Fields{
		"url":      listingURL,
		"scrolls":  scrolls,
		"primary":  primary,
		"entities": len(entities),
	}).Info("listing discovered")
	return entities, nil
}

// scroll scrolls to the bottom until the height is unchanged for StableRounds
// consecutive rounds or MaxScrolls is reached. It returns the scrolls made.
func (d *Discoverer) scroll(ctx context.Context, page browser.Page) (int, error) {
	var prev float64
	if err := browser.EvaluateInto(ctx, page, heightScript, &prev); err != nil {
		return 0, err
	}
	stable := 0
	scrolls := 0
	for scrolls < d.cfg.MaxScrolls {
		if _, err := page.Evaluate(ctx, scrollBottomScript); err != nil {
			return scrolls, err
		}
		scrolls++
		if err := antidetect.SleepContext(ctx, antidetect.ScrollPause(d.cfg.ScrollPause)); err != nil {
			return scrolls, err
		}
		var height float64
		if err := browser.EvaluateInto(ctx, page, heightScript, &height); err != nil {
			return scrolls, err
		}
		if height == prev {
			stable++
			if stable >= d.cfg.StableRounds {
				break
			}
			continue
		}
		stable = 0
		prev = height
	}
	return scrolls, nil
}

func (d *Discoverer) fromHTML(html string, base *url.URL, set *entitySet) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		sourceURL, slug, ok := d.entityURL(base, a.AttrOr("href", ""))
		if !ok {
			return
		}
		set.Add(sourceURL, cardName(a), slug)
	})
}

func (d *Discoverer) fromDOM(ctx context.Context, page browser.Page, base *url.URL, set *entitySet) error {
	var links []domLink
	if err := browser.EvaluateInto(ctx, page, domLinksScript, &links, d.cfg.EntityPathPrefix); err != nil {
		return err
	}
	for _, link := range links {
		sourceURL, slug, ok := d.entityURL(base, link.Href)
		if !ok {
			continue
		}
		set.Add(sourceURL, cleanName(link.Name), slug)
	}
	return nil
}

// entityURL normalises href to scheme://host/<prefix><slug> when it points at
// an entity on the listing site.
func (d *Discoverer) entityURL(base *url.URL, href string) (string, string, bool) {
	resolved, ok := netutil.ResolveHref(base, href)
	if !ok {
		return "", "", false
	}
	parsed, err := url.Parse(resolved)
	if err != nil || !netutil.SameSite(resolved, base.String()) {
		return "", "", false
	}
	if !strings.HasPrefix(parsed.Path, d.cfg.EntityPathPrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(parsed.Path, d.cfg.EntityPathPrefix)
	slug, _, _ := strings.Cut(rest, "/")
	if slug == "" {
		return "", "", false
	}
	return parsed.Scheme + "://" + parsed.Host + d.cfg.EntityPathPrefix + slug, slug, true
}

func cardName(a *goquery.Selection) string {
	if heading := a.Find("h1, h2, h3, h4, [class*='name'], [class*='title']").First(); heading.Length() > 0 {
		if name := cleanName(heading.Text()); name != "" {
			return name
		}
	}
	if name := cleanName(a.Text()); name != "" {
		return name
	}
	if name := cleanName(a.AttrOr("aria-label", "")); name != "" {
		return name
	}
	if name := cleanName(a.Find("img[alt]").First().AttrOr("alt", "")); name != "" {
		return name
	}
	if card := a.Closest("article, li, [class*='card'], [class*='item']"); card.Length() > 0 {
		return cleanName(card.Find("h1, h2, h3, h4").First().Text())
	}
	return ""
}

const maxNameRunes = 120

func cleanName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if runes := []rune(name); len(runes) > maxNameRunes {
		name = strings.TrimSpace(string(runes[:maxNameRunes]))
	}
	return name
}

func slugName(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
