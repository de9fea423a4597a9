package contact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadspider/leadspider/core/antidetect"
	"github.com/leadspider/leadspider/core/browser"
	"github.com/leadspider/leadspider/core/browser/browsertest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher map[string]string

func (s stubFetcher) Fetch(_ context.Context, target string) (string, error) {
	body, ok := s[target]
	if !ok {
		return "", errors.New("not found")
	}
	return body, nil
}

func newTestEngine(t *testing.T, session *browsertest.Session, static Fetcher) *Engine {
	t.Helper()
	logger, _ := test.NewNullLogger()
	nav := browser.NewNavigator(session, browser.NavigatorConfig{
		Timeout: 2 * time.Second,
		Retry:   antidetect.RetryConfig{MaxAttempts: 1},
		Logger:  logger,
	})
	opts := DefaultOptions()
	opts.ScrollPause = 0
	opts.UseSitemap = false
	opts.Logger = logger
	return NewEngine(nav, static, opts)
}

func mustDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestCleanEmail(t *testing.T) {
	tlds := tldSet(defaultEmailTLDs)
	cases := map[string]string{
		"contact@example.com<br/>Visit": "contact@example.com",
		"hello@acme.comVisit":           "hello@acme.com",
		"mailto:Info@Acme.io":           "info@acme.io",
		"team@acme.io.":                 "team@acme.io",
		"sales@acme.co.uk":              "sales@acme.co.uk",
		"not-an-email":                  "",
		"broken@":                       "",
	}
	for raw, want := range cases {
		if got := CleanEmail(raw, tlds); got != want {
			t.Fatalf("CleanEmail(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestEmailFilterRejectsNoise(t *testing.T) {
	f := newEmailFilter(DefaultOptions().withDefaults())
	got := f.Extract("Reach hello@acme.io or you@example.com, logo@2x.png, HELLO@acme.io")
	assert.Equal(t, []string{"hello@acme.io"}, got)
}

func TestEmailFilterBestPrefersBusinessRoleAddress(t *testing.T) {
	f := newEmailFilter(DefaultOptions().withDefaults())
	best := f.Best([]string{"founder@gmail.com", "jane@acme.io", "contact@acme.io"})
	assert.Equal(t, "contact@acme.io", best)
	assert.Equal(t, "jane@acme.io", f.Best([]string{"founder@gmail.com", "jane@acme.io"}))
	assert.Empty(t, f.Best(nil))
}

func TestTwitterHandle(t *testing.T) {
	cases := map[string]string{
		"https://x.com/acme_io?ref=ph":          "acme_io",
		"https://x.com/":                        "",
		"https://twitter.com/@acmehq/":          "acmehq",
		"https://twitter.com/acmehq/status/123": "acmehq",
		"https://twitter.com/intent/tweet":      "",
		"https://twitter.com/x.com":             "",
		"https://twitter.com/twitter":           "",
		"https://example.com/acme":              "",
	}
	for href, want := range cases {
		assert.Equal(t, want, TwitterHandle(href), href)
	}
}

func TestCleanLinkedIn(t *testing.T) {
	assert.Equal(t, "https://www.linkedin.com/company/acme",
		CleanLinkedIn("https://www.linkedin.com/company/acme?trk=ph#about"))
	assert.Empty(t, CleanLinkedIn("https://www.linkedin.com/"))
	assert.Empty(t, CleanLinkedIn("https://acme.io/linkedin"))
}

func TestMergePrecedence(t *testing.T) {
	contactPage := Bundle{Email: "contact@acme.io"}
	footer := Bundle{Email: "footer@acme.io", Twitter: "acme"}
	initial := Bundle{Email: "initial@acme.io", Twitter: "old", LinkedIn: "https://linkedin.com/company/acme"}

	merged := Merge(contactPage, footer, initial)
	assert.Equal(t, "contact@acme.io", merged.Email)
	assert.Equal(t, "acme", merged.Twitter)
	assert.Equal(t, "https://linkedin.com/company/acme", merged.LinkedIn)
	assert.True(t, Merge().Empty())
}

func TestFooterScopeIsOutermost(t *testing.T) {
	doc := mustDoc(t, `<body><div class="site-footer"><div class="social-links"><a href="#">x</a></div></div><main class="content"></main></body>`)
	scope := DefaultOptions().Footer.Scope(doc.Selection)
	require.Equal(t, 1, scope.Length())
	assert.Equal(t, "site-footer", scope.AttrOr("class", ""))
}

func TestRefineCanonicalPrefersHeaderHomeLink(t *testing.T) {
	e := newTestEngine(t, browsertest.NewSession(), nil)
	doc := mustDoc(t, `<html><head><link rel="canonical" href="https://other.io/landing"></head>
<body><header><a class="logo" href="https://acme.io/?utm_source=ph"><img src="/l.png"></a></header></body></html>`)
	base, _ := url.Parse("https://app.acme.io/welcome")

	canonical, rejected := e.refineCanonical(doc, base)
	assert.False(t, rejected)
	assert.Equal(t, "https://acme.io", canonical)
}

func TestRefineCanonicalIgnoresForeignRootIcons(t *testing.T) {
	e := newTestEngine(t, browsertest.NewSession(), nil)
	doc := mustDoc(t, `<html><body><nav><a href="https://github.com"><svg></svg></a><a href="/pricing">Pricing</a></nav></body></html>`)
	base, _ := url.Parse("https://acme.io/")

	canonical, rejected := e.refineCanonical(doc, base)
	assert.False(t, rejected)
	assert.Equal(t, "https://acme.io", canonical)
}

func TestRefineCanonicalPrefersLogoOverPlainRootLink(t *testing.T) {
	e := newTestEngine(t, browsertest.NewSession(), nil)
	doc := mustDoc(t, `<html><body><header>
<a href="https://github.com/"><svg></svg></a>
<a href="https://docs.acme.io/">Docs</a>
<a class="brand" href="https://www.acme.io/"><img src="/l.png"></a>
</header></body></html>`)
	base, _ := url.Parse("https://acme.io/blog/launch")

	canonical, _ := e.refineCanonical(doc, base)
	assert.Equal(t, "https://www.acme.io", canonical)
}

func TestRefineCanonicalFallsBackToCanonicalLink(t *testing.T) {
	e := newTestEngine(t, browsertest.NewSession(), nil)
	doc := mustDoc(t, `<html><head><link rel="canonical" href="/home"></head><body></body></html>`)
	base, _ := url.Parse("https://acme.io/pricing")

	canonical, rejected := e.refineCanonical(doc, base)
	assert.False(t, rejected)
	assert.Equal(t, "https://acme.io", canonical)
}

func TestRefineCanonicalGenericDomain(t *testing.T) {
	e := newTestEngine(t, browsertest.NewSession(), nil)
	base, _ := url.Parse("https://acme.notion.site/")

	bare := mustDoc(t, `<html><body><main>Acme docs</main></body></html>`)
	canonical, rejected := e.refineCanonical(bare, base)
	assert.True(t, rejected)
	assert.Empty(t, canonical)

	corroborated := mustDoc(t, `<html><body><header>
<a href="https://acme.notion.site/about">About</a>
<a href="https://acme.notion.site/pricing">Pricing</a>
</header></body></html>`)
	canonical, rejected = e.refineCanonical(corroborated, base)
	assert.False(t, rejected)
	assert.Contains(t, canonical, "acme.notion.site")
}

func TestExtractFromProfile(t *testing.T) {
	session := browsertest.NewSession()
	session.AddHTML("https://hunt.example/@jane", `<html><body>
<header><a href="https://twitter.com/producthunt">Follow us</a></header>
<main>
  <h1>Jane Dev</h1>
  <a href="https://twitter.com/janedev">Twitter</a>
  <a href="https://www.linkedin.com/in/jane?trk=public">LinkedIn</a>
  <p>Say hi at jane@janedev.com</p>
</main>
<footer><a href="mailto:support@hunt.example">Support</a></footer>
</body></html>`)
	e := newTestEngine(t, session, nil)

	got := e.ExtractFromProfile(context.Background(), "https://hunt.example/@jane")
	assert.Equal(t, "janedev", got.Twitter)
	assert.Equal(t, "https://www.linkedin.com/in/jane", got.LinkedIn)
	assert.Equal(t, "jane@janedev.com", got.Email)
	assert.Zero(t, session.Leaked())
}

func TestExtractFromProfileUnavailable(t *testing.T) {
	session := browsertest.NewSession()
	e := newTestEngine(t, session, nil)

	got := e.ExtractFromProfile(context.Background(), "https://hunt.example/@ghost")
	assert.Equal(t, ProfileContact{}, got)
	assert.Eventually(t, func() bool { return session.Leaked() == 0 }, time.Second, 10*time.Millisecond)
}

func TestExtractFromWebsiteMergesContactPage(t *testing.T) {
	session := browsertest.NewSession()
	session.Add("https://acme.io/", browsertest.Fixture{
		HTML: `<html><body>
<header><a class="logo" href="/">Acme</a><nav><a href="/pricing">Pricing</a><a href="/contact">Contact</a></nav></header>
<main><h1>Acme</h1></main>
<footer>
  <a href="https://twitter.com/acmehq">Twitter</a>
  <a href="https://www.linkedin.com/company/acme?trk=x">LinkedIn</a>
</footer>
</body></html>`,
	})
	session.AddHTML("https://acme.io/contact", `<html><body><main><a href="mailto:hello@acme.io">Email us</a></main></body></html>`)
	e := newTestEngine(t, session, nil)

	got := e.ExtractFromWebsite(context.Background(), "https://acme.io/")
	assert.Equal(t, "hello@acme.io", got.Bundle.Email)
	assert.Equal(t, "acmehq", got.Bundle.Twitter)
	assert.Equal(t, "https://www.linkedin.com/company/acme", got.Bundle.LinkedIn)
	assert.Equal(t, "https://acme.io/contact", got.Bundle.ContactPageURL)
	assert.Equal(t, "https://acme.io", got.CanonicalURL)
	assert.False(t, got.Rejected)
	assert.False(t, got.Static)
	assert.Equal(t, 1, session.VisitCount("https://acme.io/contact"))
	assert.Zero(t, session.Leaked())
}

func TestExtractFromWebsiteUsesScriptSignals(t *testing.T) {
	session := browsertest.NewSession()
	session.Add("https://spa.dev/", browsertest.Fixture{
		HTML: `<html><body><div id="root"><button class="icon-twitter"></button></div></body></html>`,
		Eval: browsertest.ScriptContains(map[string]any{
			"data-email": []string{"Questions? Write to team@spa.dev<br/>"},
			"twitter:":   map[string][]string{"twitter": {"https://x.com/spadev"}, "linkedin": {}},
		}),
	})
	e := newTestEngine(t, session, nil)

	got := e.ExtractFromWebsite(context.Background(), "https://spa.dev/")
	assert.Equal(t, "team@spa.dev", got.Bundle.Email)
	assert.Equal(t, "spadev", got.Bundle.Twitter)
}

func TestExtractFromWebsiteSynthesizedEmailNeedsVisibleText(t *testing.T) {
	session := browsertest.NewSession()
	session.AddHTML("https://synth.io/", `<html><body><p>Drop a line: contact [at] synth.io or contact@synth.io</p></body></html>`)
	session.AddHTML("https://quiet.io/", `<html><body><p>We build quiet software.</p></body></html>`)
	e := newTestEngine(t, session, nil)

	found := e.ExtractFromWebsite(context.Background(), "https://synth.io/")
	assert.Equal(t, "contact@synth.io", found.Bundle.Email)

	missing := e.ExtractFromWebsite(context.Background(), "https://quiet.io/")
	assert.Empty(t, missing.Bundle.Email)
	assert.True(t, missing.Bundle.Empty())
}

func TestExtractFromWebsiteStaticFallback(t *testing.T) {
	session := browsertest.NewSession()
	static := stubFetcher{
		"https://down.dev/": `<html><body><footer>
<a href="mailto:team@down.dev">Mail</a>
<a href="https://twitter.com/downdev">Twitter</a>
<a href="/contact-us">Contact us</a>
</footer></body></html>`,
	}
	e := newTestEngine(t, session, static)

	got := e.ExtractFromWebsite(context.Background(), "https://down.dev/")
	assert.True(t, got.Static)
	assert.Equal(t, browser.KindDNS, got.Failure)
	assert.Equal(t, "team@down.dev", got.Bundle.Email)
	assert.Equal(t, "downdev", got.Bundle.Twitter)
	assert.Equal(t, "https://down.dev/contact-us", got.Bundle.ContactPageURL)
	assert.Eventually(t, func() bool { return session.Leaked() == 0 }, time.Second, 10*time.Millisecond)
}

func TestExtractFromWebsiteTotalOnFailure(t *testing.T) {
	session := browsertest.NewSession()
	e := newTestEngine(t, session, nil)

	got := e.ExtractFromWebsite(context.Background(), "https://gone.dev/")
	assert.True(t, got.Bundle.Empty())
	assert.NotEmpty(t, got.Failure)
}

func TestStepRecoversPanics(t *testing.T) {
	e := newTestEngine(t, browsertest.NewSession(), nil)
	ran := false
	e.step("boom", "https://acme.io", func() error { panic("bad selector") })
	e.step("next", "https://acme.io", func() error {
		ran = true
		return nil
	})
	assert.True(t, ran)
}

func TestDOMSignature(t *testing.T) {
	a := mustDoc(t, `<body><main><a href="/a">A</a></main></body>`)
	b := mustDoc(t, `<body><main><a href="/a">A</a></main></body>`)
	c := mustDoc(t, `<body><main><a href="/a">A</a></main><footer><a href="mailto:x@y.io">mail</a></footer></body>`)
	assert.Equal(t, domSignature(a), domSignature(b))
	assert.NotEqual(t, domSignature(a), domSignature(c))
}

func TestStaticFetcherAndSitemap(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/pricing</loc></url>
  <url><loc>%[1]s/company/contact</loc></url>
</urlset>`, srv.URL)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>hello</p></body></html>`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	fetcher := NewStaticFetcher(StaticConfig{Timeout: 5 * time.Second})
	body, err := fetcher.Fetch(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	assert.Contains(t, body, "hello")

	e := newTestEngine(t, browsertest.NewSession(), fetcher)
	base, _ := url.Parse(srv.URL + "/")
	assert.Equal(t, srv.URL+"/company/contact", e.contactFromSitemap(context.Background(), base))
}
