package contact

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Matcher selects page regions by tag, ARIA role or id/class token. The same
// matcher drives goquery scans and in-page scripts.
type Matcher struct {
	Tags   []string `json:"tags"`
	Roles  []string `json:"roles"`
	Tokens []string `json:"tokens"`
}

// Match reports whether sel's first node is part of the region.
func (m Matcher) Match(sel *goquery.Selection) bool {
	node := sel.Get(0)
	if node == nil {
		return false
	}
	tag := strings.ToLower(node.Data)
	for _, t := range m.Tags {
		if tag == t {
			return true
		}
	}
	if role, ok := sel.Attr("role"); ok {
		role = strings.ToLower(role)
		for _, r := range m.Roles {
			if role == r {
				return true
			}
		}
	}
	id, _ := sel.Attr("id")
	class, _ := sel.Attr("class")
	idClass := strings.ToLower(id + " " + class)
	if strings.TrimSpace(idClass) == "" {
		return false
	}
	for _, token := range m.Tokens {
		if strings.Contains(idClass, token) {
			return true
		}
	}
	return false
}

// Scope returns the outermost matching regions under root.
func (m Matcher) Scope(root *goquery.Selection) *goquery.Selection {
	matched := root.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return m.Match(s)
	})
	return matched.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered("*").FilterFunction(func(_ int, p *goquery.Selection) bool {
			return m.Match(p)
		}).Length() == 0
	})
}

func (m Matcher) scriptArg() map[string][]string {
	return map[string][]string{"tags": m.Tags, "roles": m.Roles, "tokens": m.Tokens}
}

var defaultEmailTLDs = []string{
	"com", "net", "org", "io", "ai", "co", "app", "dev", "so", "xyz", "tech", "me", "us", "uk", "ca",
	"de", "fr", "es", "it", "nl", "se", "no", "dk", "fi", "pl", "ch", "at", "be", "au", "nz", "in",
	"jp", "cn", "kr", "br", "mx", "ar", "cl", "ru", "ua", "ie", "pt", "gr", "cz", "hu", "ro", "il",
	"za", "sg", "hk", "tw", "id", "my", "ph", "vn", "th", "tr", "eu", "info", "biz", "pro", "tv",
	"cc", "ly", "gg", "im", "is", "ee", "lt", "lv", "sk", "si", "hr", "rs", "bg", "edu", "gov",
	"store", "shop", "online", "site", "website", "cloud", "digital", "agency", "studio", "design",
	"media", "news", "blog", "live", "life", "world", "today", "space", "tools", "systems",
	"solutions", "software", "network", "email", "company", "team", "works", "group", "global",
	"ventures", "capital", "finance", "health", "care", "help", "chat", "social", "page", "link",
	"one", "zone", "fm", "to", "sh", "ws", "la", "ac", "gl", "vc", "gs", "ms", "nu", "run", "build",
	"new", "inc", "ltd", "llc", "ooo", "art", "club", "fun", "games", "money", "pay", "audio", "video",
}

// Options configures the extraction heuristics.
type Options struct {
	EmailTLDs             []string
	FreeMailDomains       []string
	PlaceholderDomains    []string
	CanonicalLocalParts   []string
	SynthesizedLocalParts []string
	ContactKeywords       []string
	GenericDomains        []string
	IgnoreHandles         []string
	Footer                Matcher
	Header                Matcher
	HeaderCorroboration   int
	MaxEmailLength        int
	ScrollSteps           int
	ScrollPause           time.Duration
	UseSitemap            bool
	Logger                logrus.FieldLogger
}

// DefaultOptions returns the stock heuristics.
func DefaultOptions() Options {
	return Options{
		EmailTLDs: defaultEmailTLDs,
		FreeMailDomains: []string{
			"gmail.com", "googlemail.com", "yahoo.com", "hotmail.com", "outlook.com", "live.com",
			"icloud.com", "me.com", "aol.com", "proton.me", "protonmail.com", "gmx.com", "mail.com",
			"yandex.com", "zoho.com", "hey.com",
		},
		PlaceholderDomains: []string{
			"example.com", "example.org", "example.net", "domain.com", "email.com", "yourdomain.com",
			"yoursite.com", "company.com", "mysite.com", "sentry.io", "wixpress.com", "test.com",
		},
		CanonicalLocalParts:   []string{"contact", "info", "hello", "support", "sales", "team"},
		SynthesizedLocalParts: []string{"contact", "info", "hello", "support"},
		ContactKeywords:       []string{"contact", "get in touch", "reach us", "support", "about"},
		GenericDomains: []string{
			"linktr.ee", "notion.site", "carrd.co", "wixsite.com", "squarespace.com", "webflow.io",
			"framer.website", "super.site", "bio.link", "beacons.ai", "github.io", "vercel.app",
			"netlify.app", "herokuapp.com",
		},
		IgnoreHandles: []string{"producthunt"},
		Footer: Matcher{
			Tags:   []string{"footer"},
			Roles:  []string{"contentinfo"},
			Tokens: []string{"footer", "contact", "social", "site-info", "bottom", "copyright", "colophon", "connect", "follow"},
		},
		Header: Matcher{
			Tags:   []string{"header", "nav"},
			Roles:  []string{"banner", "navigation"},
			Tokens: []string{"header", "navbar", "nav-", "topbar", "masthead", "menu"},
		},
		HeaderCorroboration: 2,
		MaxEmailLength:      80,
		ScrollSteps:         4,
		ScrollPause:         700 * time.Millisecond,
		UseSitemap:          true,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if len(o.EmailTLDs) == 0 {
		o.EmailTLDs = def.EmailTLDs
	}
	if o.FreeMailDomains == nil {
		o.FreeMailDomains = def.FreeMailDomains
	}
	if o.PlaceholderDomains == nil {
		o.PlaceholderDomains = def.PlaceholderDomains
	}
	if len(o.CanonicalLocalParts) == 0 {
		o.CanonicalLocalParts = def.CanonicalLocalParts
	}
	if len(o.SynthesizedLocalParts) == 0 {
		o.SynthesizedLocalParts = def.SynthesizedLocalParts
	}
	if len(o.ContactKeywords) == 0 {
		o.ContactKeywords = def.ContactKeywords
	}
	if o.GenericDomains == nil {
		o.GenericDomains = def.GenericDomains
	}
	if o.IgnoreHandles == nil {
		o.IgnoreHandles = def.IgnoreHandles
	}
	if len(o.Footer.Tags)+len(o.Footer.Roles)+len(o.Footer.Tokens) == 0 {
		o.Footer = def.Footer
	}
	if len(o.Header.Tags)+len(o.Header.Roles)+len(o.Header.Tokens) == 0 {
		o.Header = def.Header
	}
	if o.HeaderCorroboration <= 0 {
		o.HeaderCorroboration = def.HeaderCorroboration
	}
	if o.MaxEmailLength <= 0 {
		o.MaxEmailLength = def.MaxEmailLength
	}
	if o.ScrollSteps <= 0 {
		o.ScrollSteps = def.ScrollSteps
	}
	if o.ScrollPause < 0 {
		o.ScrollPause = 0
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}
