// Package product resolves one listed entity: its own website, the people
// behind it and their contact details.
package product

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadspider/leadspider/core/antidetect"
	"github.com/leadspider/leadspider/core/browser"
	"github.com/leadspider/leadspider/core/contact"
	"github.com/leadspider/leadspider/core/listing"
	"github.com/leadspider/leadspider/internal/netutil"
	"github.com/sirupsen/logrus"
)

// Contact is one person associated with an entity.
type Contact struct {
	Name             string `json:"name"`
	ProfileURL       string `json:"profile_url"`
	Email            string `json:"email"`
	Twitter          string `json:"twitter"`
	LinkedIn         string `json:"linkedin"`
	IsConfirmedMaker bool   `json:"is_confirmed_maker"`
}

// Details is everything resolved for one entity.
type Details struct {
	CanonicalWebsite string         `json:"canonical_website"`
	Contacts         []Contact      `json:"contacts"`
	Site             contact.Bundle `json:"site"`
	// WebsiteStrategy names the cascade step that found the website.
	WebsiteStrategy string `json:"website_strategy,omitempty"`
}

// Navigator is the part of *browser.Navigator the resolver needs.
type Navigator interface {
	Open(ctx context.Context, url string, opts browser.OpenOptions) (*browser.RenderedPage, error)
	FinalURL(ctx context.Context, url string) (string, error)
}

// ContactExtractor is the part of *contact.Engine the resolver needs.
type ContactExtractor interface {
	ExtractFromProfile(ctx context.Context, profileURL string) contact.ProfileContact
	ExtractFromWebsite(ctx context.Context, siteURL string) contact.WebsiteContacts
	ExtractFromWebsiteWithWait(ctx context.Context, siteURL string, opts browser.OpenOptions) contact.WebsiteContacts
}

// Pacer delays outbound requests. *antidetect.AdaptiveLimiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Resolver implements the per-entity pipeline.
type Resolver struct {
	nav      Navigator
	contacts ContactExtractor
	pacer    Pacer
	cfg      Config
	log      logrus.FieldLogger

	bareDomain *regexp.Regexp
}

func NewResolver(nav Navigator, contacts ContactExtractor, pacer Pacer, cfg Config) *Resolver {
	cfg = cfg.withDefaults()
	return &Resolver{
		nav:        nav,
		contacts:   contacts,
		pacer:      pacer,
		cfg:        cfg,
		log:        cfg.Logger,
		bareDomain: bareDomainPattern(cfg.ProductTLDs),
	}
}

// entityPage is the static snapshot of an entity page the heuristics read.
type entityPage struct {
	doc         *goquery.Document
	text        string
	base        *url.URL
	listingHost string
}

// Resolve never panics and always returns usable Details; on failure they are
// empty and the error says why.
func (r *Resolver) Resolve(ctx context.Context, entity listing.Entity) (details Details, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			details, err = Details{}, fmt.Errorf("resolve %s: panic: %v", entity.SourceURL, rec)
		}
	}()

	page, err := r.load(ctx, entity.SourceURL)
	if err != nil {
		return Details{}, err
	}

	outcome := r.discoverWebsite(ctx, page)
	for name, stratErr := range outcome.Errors {
		r.log.WithFields(logrus.Fields{"url": entity.SourceURL, "stage": name}).Debugf("website strategy failed: %v", stratErr)
	}
	details.CanonicalWebsite = outcome.Value
	details.WebsiteStrategy = outcome.Strategy

	for _, maker := range r.discoverMakers(page) {
		if err := r.pace(ctx); err != nil {
			return details, err
		}
		found := r.contacts.ExtractFromProfile(ctx, maker.ProfileURL)
		maker.Email = found.Email
		maker.Twitter = found.Twitter
		maker.LinkedIn = found.LinkedIn
		details.Contacts = append(details.Contacts, maker)
	}

	if details.CanonicalWebsite != "" {
		if err := r.pace(ctx); err != nil {
			return details, err
		}
		site := r.websiteContacts(ctx, details.CanonicalWebsite)
		details.Site = site.Bundle
		switch {
		case site.Rejected:
			r.log.WithField("url", details.CanonicalWebsite).Info("website resolved to a generic host, discarding")
			details.CanonicalWebsite = ""
		case site.CanonicalURL != "":
			details.CanonicalWebsite = site.CanonicalURL
		}
	}
	return details, nil
}

func (r *Resolver) load(ctx context.Context, sourceURL string) (*entityPage, error) {
	rp, err := r.nav.Open(ctx, sourceURL, browser.OpenOptions{Wait: browser.WaitDOMContentLoaded})
	if err != nil {
		return nil, fmt.Errorf("open entity: %w", err)
	}
	defer rp.Close()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rp.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse entity %s: %w", sourceURL, err)
	}
	base, err := url.Parse(rp.FinalURL)
	if err != nil || base.Host == "" {
		if base, err = url.Parse(sourceURL); err != nil {
			return nil, fmt.Errorf("parse entity url: %w", err)
		}
	}
	text := rp.Text
	if text == "" {
		text = browser.VisibleText(doc.Selection)
	}
	source, _ := url.Parse(sourceURL)
	listingHost := base.Hostname()
	if source != nil && source.Hostname() != "" {
		listingHost = source.Hostname()
	}
	return &entityPage{doc: doc, text: text, base: base, listingHost: netutil.Hostname(listingHost)}, nil
}

func (r *Resolver) pace(ctx context.Context) error {
	if r.pacer == nil {
		return ctx.Err()
	}
	return r.pacer.Wait(ctx)
}

// websiteContacts runs website mode, retrying an entirely empty bundle after
// WebsiteRetryDelay*attempt with a stricter wait and a longer settle time.
func (r *Resolver) websiteContacts(ctx context.Context, site string) contact.WebsiteContacts {
	var result contact.WebsiteContacts
	for attempt := 0; attempt <= r.cfg.WebsiteRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.WebsiteRetryDelay * time.Duration(attempt)
			r.log.WithFields(logrus.Fields{"url": site, "attempt": attempt + 1}).Debugf("empty website bundle, retrying in %s", delay)
			if err := antidetect.SleepContext(ctx, delay); err != nil {
				return result
			}
		}
		if attempt == 0 {
			result = r.contacts.ExtractFromWebsite(ctx, site)
		} else {
			result = r.contacts.ExtractFromWebsiteWithWait(ctx, site, r.retryOpenOptions(attempt))
		}
		if !result.Bundle.Empty() || result.Rejected {
			return result
		}
	}
	return result
}

// retryOpenOptions starts a retry on a stricter wait strategy and settles
// longer after load on every attempt.
func (r *Resolver) retryOpenOptions(attempt int) browser.OpenOptions {
	return browser.OpenOptions{
		Wait:          browser.WaitDOMContentLoaded.Escalate(attempt),
		Stabilization: r.cfg.WebsiteRetrySettle * time.Duration(attempt),
	}
}
