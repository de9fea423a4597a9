package product

import (
	"time"

	"github.com/leadspider/leadspider/core/contact"
	"github.com/sirupsen/logrus"
)

// Config holds the resolver heuristics. Domain lists match subdomains too.
type Config struct {
	// ExcludedDomains are the listing platform's own redirect and
	// link-shortener hosts. The entity's host is always excluded.
	ExcludedDomains []string
	// RedirectMarkers identify same-site outbound redirect paths.
	RedirectMarkers []string
	// PlaceholderDomains reject a followed redirect.
	PlaceholderDomains []string
	// NonProductDomains are social, media and code-hosting sites.
	NonProductDomains []string
	VisitLabels       []string
	GetItLabels       []string
	ProductTLDs       []string
	// FalsePositiveDomains are often named in descriptions without being the
	// product's site; they need corroboration.
	FalsePositiveDomains []string
	TextCorroboration    int
	HeaderCorroboration  int
	FreeMailDomains      []string

	ProfilePathPrefix string
	TeamHeadings      []string
	MakerLabels       []string
	MaxMakers         int

	WebsiteRetries    int
	WebsiteRetryDelay time.Duration
	// WebsiteRetrySettle is added to the post-load settle time per retry.
	WebsiteRetrySettle time.Duration

	Logger logrus.FieldLogger
}

func DefaultConfig() Config {
	return Config{
		ExcludedDomains: []string{
			"producthunt.com", "ph.live", "bit.ly", "t.co", "lnkd.in", "buff.ly", "ow.ly",
			"tinyurl.com", "rebrand.ly", "goo.gl",
		},
		RedirectMarkers:    []string{"/r/"},
		PlaceholderDomains: []string{"example.com", "example.org", "localhost", "about:blank", "google.com"},
		NonProductDomains: []string{
			"twitter.com", "x.com", "facebook.com", "fb.com", "instagram.com", "linkedin.com",
			"youtube.com", "youtu.be", "tiktok.com", "reddit.com", "pinterest.com", "medium.com",
			"substack.com", "discord.gg", "discord.com", "t.me", "telegram.me", "threads.net",
			"github.com", "gitlab.com", "bitbucket.org", "npmjs.com", "pypi.org", "vimeo.com",
			"loom.com", "dribbble.com", "behance.net", "gravatar.com", "imgix.net",
			"cloudinary.com", "amazonaws.com", "googleapis.com", "gstatic.com", "cloudfront.net",
			"w3.org", "schema.org", "apple.com", "play.google.com", "chromewebstore.google.com",
		},
		VisitLabels:  []string{"visit website", "visit site", "visit", "website", "go to website"},
		GetItLabels:  []string{"get it", "get started", "try it", "try", "download", "sign up", "install"},
		ProductTLDs:  []string{"com", "io", "ai", "app", "co", "dev", "so", "xyz", "tech", "net", "org", "tools"},
		FalsePositiveDomains: []string{
			"chatgpt.com", "openai.com", "notion.so", "figma.com", "slack.com", "stripe.com",
			"shopify.com", "zapier.com", "vercel.com", "framer.com", "webflow.com",
		},
		TextCorroboration:   3,
		HeaderCorroboration: 2,
		FreeMailDomains:     contact.DefaultOptions().FreeMailDomains,
		ProfilePathPrefix:   "/@",
		TeamHeadings:        []string{"meet the team", "meet the makers", "the team", "team", "makers", "founders"},
		MakerLabels:         []string{"maker"},
		MaxMakers:           5,
		WebsiteRetries:      2,
		WebsiteRetryDelay:   5 * time.Second,
		WebsiteRetrySettle:  2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ExcludedDomains == nil {
		c.ExcludedDomains = def.ExcludedDomains
	}
	if len(c.RedirectMarkers) == 0 {
		c.RedirectMarkers = def.RedirectMarkers
	}
	if c.PlaceholderDomains == nil {
		c.PlaceholderDomains = def.PlaceholderDomains
	}
	if c.NonProductDomains == nil {
		c.NonProductDomains = def.NonProductDomains
	}
	if len(c.VisitLabels) == 0 {
		c.VisitLabels = def.VisitLabels
	}
	if len(c.GetItLabels) == 0 {
		c.GetItLabels = def.GetItLabels
	}
	if len(c.ProductTLDs) == 0 {
		c.ProductTLDs = def.ProductTLDs
	}
	if c.FalsePositiveDomains == nil {
		c.FalsePositiveDomains = def.FalsePositiveDomains
	}
	if c.TextCorroboration <= 0 {
		c.TextCorroboration = def.TextCorroboration
	}
	if c.HeaderCorroboration <= 0 {
		c.HeaderCorroboration = def.HeaderCorroboration
	}
	if c.FreeMailDomains == nil {
		c.FreeMailDomains = def.FreeMailDomains
	}
	if c.ProfilePathPrefix == "" {
		c.ProfilePathPrefix = def.ProfilePathPrefix
	}
	if len(c.TeamHeadings) == 0 {
		c.TeamHeadings = def.TeamHeadings
	}
	if len(c.MakerLabels) == 0 {
		c.MakerLabels = def.MakerLabels
	}
	if c.MaxMakers <= 0 {
		c.MaxMakers = def.MaxMakers
	}
	if c.WebsiteRetries < 0 {
		c.WebsiteRetries = 0
	}
	if c.WebsiteRetryDelay < 0 {
		c.WebsiteRetryDelay = 0
	}
	if c.WebsiteRetrySettle < 0 {
		c.WebsiteRetrySettle = 0
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}
