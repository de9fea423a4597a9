package contact

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadspider/leadspider/core/antidetect"
	"github.com/leadspider/leadspider/core/browser"
	"github.com/leadspider/leadspider/internal/cascade"
	"github.com/leadspider/leadspider/internal/netutil"
	"github.com/sirupsen/logrus"
)

// Navigator opens rendered pages. *browser.Navigator satisfies it.
type Navigator interface {
	Open(ctx context.Context, url string, opts browser.OpenOptions) (*browser.RenderedPage, error)
}

// Engine extracts contact information in profile mode and website mode.
type Engine struct {
	nav    Navigator
	static Fetcher
	opts   Options
	emails emailFilter
	log    logrus.FieldLogger
}

// NewEngine builds an Engine. static may be nil to disable the static
// fallback and sitemap lookups.
func NewEngine(nav Navigator, static Fetcher, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		nav:    nav,
		static: static,
		opts:   opts,
		emails: newEmailFilter(opts),
		log:    opts.Logger,
	}
}

// step runs one heuristic and turns errors and panics into a logged
// ExtractionError so the remaining steps still run.
func (e *Engine) step(name, pageURL string, fn func() error) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		err = fn()
	}()
	if err != nil {
		extractErr := &ExtractionError{Step: name, URL: pageURL, Err: err}
		e.log.WithFields(logrus.Fields{"url": pageURL, "stage": name}).Debug(extractErr.Error())
	}
}

func parseDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func pageBase(rp *browser.RenderedPage) *url.URL {
	raw := rp.FinalURL
	if raw == "" {
		raw = rp.URL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return parsed
}

// ExtractFromProfile reads a person's profile page: links first, then the
// static visible text, then the live page text.
func (e *Engine) ExtractFromProfile(ctx context.Context, profileURL string) ProfileContact {
	var out ProfileContact
	rp, err := e.nav.Open(ctx, profileURL, browser.OpenOptions{Wait: browser.WaitDOMContentLoaded})
	if err != nil {
		e.log.WithFields(logrus.Fields{"url": profileURL, "error_class": browser.ClassifyError(err)}).Warn("profile unavailable")
		return out
	}
	defer rp.Close()

	doc, err := parseDocument(rp.HTML)
	if err != nil {
		e.log.WithField("url", profileURL).Debugf("parse profile: %v", err)
		return out
	}
	base := pageBase(rp)

	// Site chrome carries the listing site's own accounts.
	content := doc.Selection.Clone()
	content.Find(`header, footer, nav, [role="banner"], [role="contentinfo"]`).Remove()

	e.step("profile-links", profileURL, func() error {
		found := e.scanLinks(content, base).bundle(e.emails)
		out.Email = found.Email
		out.Twitter = found.Twitter
		out.LinkedIn = found.LinkedIn
		return nil
	})
	if out.Email == "" {
		e.step("profile-text", profileURL, func() error {
			if found := e.emails.Extract(browser.VisibleText(content)); len(found) > 0 {
				out.Email = found[0]
			}
			return nil
		})
	}
	if out.Email == "" {
		e.step("profile-live-text", profileURL, func() error {
			text, err := rp.Page.Text(ctx)
			if err != nil {
				return err
			}
			if found := e.emails.Extract(text); len(found) > 0 {
				out.Email = found[0]
			}
			return nil
		})
	}
	return out
}

// ExtractFromWebsite gathers a product site's contact bundle from three
// sources: a dedicated contact page, the initial render and a render after
// scrolling to the footer. Per field, the contact page wins over the footer
// pass, which wins over the initial render.
func (e *Engine) ExtractFromWebsite(ctx context.Context, siteURL string) WebsiteContacts {
	return e.extractFromWebsite(ctx, siteURL, browser.OpenOptions{Wait: browser.WaitDOMContentLoaded})
}

// ExtractFromWebsiteWithWait is ExtractFromWebsite with caller-chosen wait
// strategy and settle time, used to retry a site whose first pass came back
// empty.
func (e *Engine) ExtractFromWebsiteWithWait(ctx context.Context, siteURL string, opts browser.OpenOptions) WebsiteContacts {
	return e.extractFromWebsite(ctx, siteURL, opts)
}

func (e *Engine) extractFromWebsite(ctx context.Context, siteURL string, opts browser.OpenOptions) WebsiteContacts {
	var result WebsiteContacts

	rp, err := e.nav.Open(ctx, siteURL, opts)
	if err != nil {
		result.Failure = browser.ClassifyError(err)
		e.log.WithFields(logrus.Fields{"url": siteURL, "error_class": result.Failure}).Warn("website unavailable")
		return e.staticFallback(ctx, siteURL, result)
	}

	base := pageBase(rp)
	var initial, footer Bundle
	var contactURL string
	func() {
		defer rp.Close()
		doc, err := parseDocument(rp.HTML)
		if err != nil {
			e.log.WithField("url", siteURL).Debugf("parse website: %v", err)
			return
		}
		initial = e.extractPage(ctx, rp.Page, doc, rp.Text, base)
		result.CanonicalURL, result.Rejected = e.refineCanonical(doc, base)
		contactURL = cascade.FirstNonEmpty(e.findContactPage(doc, base), initial.ContactPageURL)
		footer = e.footerPass(ctx, rp, doc, base)
	}()

	if contactURL == "" && e.opts.UseSitemap {
		contactURL = e.contactFromSitemap(ctx, base)
	}

	var contactPage Bundle
	if contactURL != "" {
		contactPage = e.extractContactPage(ctx, contactURL)
	}

	result.Bundle = Merge(contactPage, footer, initial)
	return result
}

func (e *Engine) extractContactPage(ctx context.Context, contactURL string) Bundle {
	rp, err := e.nav.Open(ctx, contactURL, browser.OpenOptions{Wait: browser.WaitDOMContentLoaded, Attempts: 2})
	if err != nil {
		return Bundle{ContactPageURL: contactURL}
	}
	defer rp.Close()
	doc, err := parseDocument(rp.HTML)
	if err != nil {
		return Bundle{ContactPageURL: contactURL}
	}
	b := e.extractPage(ctx, rp.Page, doc, rp.Text, pageBase(rp))
	b.ContactPageURL = contactURL
	return b
}

// footerPass scrolls the page in steps so lazy footers render, then extracts
// again. An unchanged DOM is not re-extracted.
func (e *Engine) footerPass(ctx context.Context, rp *browser.RenderedPage, initial *goquery.Document, base *url.URL) Bundle {
	var out Bundle
	e.step("footer-scroll", rp.URL, func() error {
		steps := e.opts.ScrollSteps
		for i := 1; i <= steps; i++ {
			if err := e.scrollStep(ctx, rp.Page, i, steps); err != nil {
				return err
			}
			if e.opts.ScrollPause > 0 {
				if err := antidetect.SleepContext(ctx, antidetect.ScrollPause(e.opts.ScrollPause)); err != nil {
					return err
				}
			}
		}
		if err := rp.Refresh(ctx); err != nil {
			return err
		}
		doc, err := parseDocument(rp.HTML)
		if err != nil {
			return err
		}
		if domSignature(initial) == domSignature(doc) {
			return nil
		}
		out = e.extractPage(ctx, rp.Page, doc, rp.Text, base)
		return nil
	})
	return out
}

// extractPage runs the layered per-page heuristics. page may be nil when the
// markup came from a static fetch.
func (e *Engine) extractPage(ctx context.Context, page browser.Page, doc *goquery.Document, text string, base *url.URL) Bundle {
	var b Bundle
	pageURL := ""
	if base != nil {
		pageURL = base.String()
	}

	e.step("scoped-links", pageURL, func() error {
		scope := e.opts.Footer.Scope(doc.Selection)
		if scope.Length() == 0 {
			scope = doc.Selection
		}
		b = e.scanLinks(scope, base).bundle(e.emails)
		return nil
	})

	if b.Email == "" {
		e.step("email-candidates", pageURL, func() error {
			if page == nil {
				b.Email = e.emails.Best(e.staticEmailCandidates(doc))
				return nil
			}
			email, err := e.domEmail(ctx, page)
			b.Email = email
			return err
		})
	}

	if page != nil && (b.Twitter == "" || b.LinkedIn == "") {
		e.step("social-icons", pageURL, func() error {
			twitter, linkedIn, err := e.domSocial(ctx, page)
			b.Twitter = cascade.FirstNonEmpty(b.Twitter, twitter)
			b.LinkedIn = cascade.FirstNonEmpty(b.LinkedIn, linkedIn)
			return err
		})
	}

	if !b.HasContact() {
		e.step("page-wide", pageURL, func() error {
			var wide Bundle
			if page == nil {
				wide = e.scanLinks(doc.Selection, base).bundle(e.emails)
				if wide.Email == "" {
					wide.Email = e.emails.Best(e.emails.Extract(text))
				}
			} else {
				var err error
				if wide, err = e.domPageWide(ctx, page); err != nil {
					return err
				}
			}
			b = Merge(b, wide)
			return nil
		})
	}

	if b.Email == "" && base != nil {
		e.step("synthesized-email", pageURL, func() error {
			domain := netutil.RegistrableDomain(base.Hostname())
			b.Email = e.emails.synthesize(domain, text, e.opts.SynthesizedLocalParts)
			return nil
		})
	}
	return b
}

// staticFallback extracts what it can from unrendered markup after the browser
// gave up on the site.
func (e *Engine) staticFallback(ctx context.Context, siteURL string, result WebsiteContacts) WebsiteContacts {
	if e.static == nil {
		return result
	}
	html, err := e.static.Fetch(ctx, siteURL)
	if err != nil {
		e.log.WithField("url", siteURL).Debugf("static fallback failed: %v", err)
		return result
	}
	doc, err := parseDocument(html)
	if err != nil {
		return result
	}
	base, err := url.Parse(siteURL)
	if err != nil {
		return result
	}
	result.Static = true
	result.Bundle = e.extractPage(ctx, nil, doc, browser.VisibleText(doc.Selection), base)
	result.CanonicalURL, result.Rejected = e.refineCanonical(doc, base)
	if result.Bundle.ContactPageURL == "" {
		result.Bundle.ContactPageURL = e.findContactPage(doc, base)
	}
	return result
}
