package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/leadspider/leadspider/core/antidetect"
)

// Fetcher retrieves raw HTML without rendering it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StaticConfig configures StaticFetcher.
type StaticConfig struct {
	Timeout     time.Duration
	MaxBodySize int
	UserAgent   antidetect.BrowserUserAgent
	Feedback    antidetect.Feedback
}

// StaticFetcher fetches pages with colly when the browser cannot load them.
type StaticFetcher struct {
	cfg StaticConfig
}

func NewStaticFetcher(cfg StaticConfig) *StaticFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 4 << 20
	}
	if cfg.UserAgent.UserAgent == "" {
		cfg.UserAgent = antidetect.GetRandomUserAgent()
	}
	return &StaticFetcher{cfg: cfg}
}

var errCancelled = errors.New("fetch cancelled")

func (f *StaticFetcher) Fetch(ctx context.Context, target string) (string, error) {
	c := colly.NewCollector(colly.MaxBodySize(f.cfg.MaxBodySize), colly.AllowURLRevisit())
	c.SetRequestTimeout(f.cfg.Timeout)
	antidetect.ApplyToCollyCollector(c, f.cfg.UserAgent, f.cfg.Feedback)

	var (
		mu       sync.Mutex
		body     string
		status   int
		fetchErr error
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		mu.Lock()
		defer mu.Unlock()
		body = string(r.Body)
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		fetchErr = err
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(target); err != nil {
		if ctx.Err() != nil {
			return "", errCancelled
		}
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if fetchErr != nil {
		return "", fmt.Errorf("fetch %s: status %d: %w", target, status, fetchErr)
	}
	return body, nil
}

// staticEmailCandidates mirrors emailCandidatesScript over parsed markup.
func (e *Engine) staticEmailCandidates(doc *goquery.Document) []string {
	var blobs []string
	e.opts.Footer.Scope(doc.Selection).Each(func(_ int, s *goquery.Selection) {
		blobs = append(blobs, s.Text())
	})
	doc.Find("[data-email], [data-mail], [data-contact]").Each(func(_ int, s *goquery.Selection) {
		blobs = append(blobs, s.AttrOr("data-email", ""), s.AttrOr("data-mail", ""), s.AttrOr("data-contact", ""))
	})
	doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
		blobs = append(blobs, s.Text())
	})
	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		blobs = append(blobs, s.AttrOr("content", ""))
	})
	var candidates []string
	for _, blob := range blobs {
		if strings.TrimSpace(blob) == "" {
			continue
		}
		candidates = append(candidates, e.emails.Extract(blob)...)
	}
	return candidates
}
