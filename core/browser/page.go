// Package browser drives a headless Chromium instance behind a narrow page
// capability so the extraction code can be exercised against fakes.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
)

// WaitStrategy is the readiness condition a navigation waits for, from the
// most lenient to the strictest.
type WaitStrategy int

const (
	WaitDOMContentLoaded WaitStrategy = iota
	WaitNetworkAlmostIdle
	WaitNetworkIdle
)

func (w WaitStrategy) String() string {
	switch w {
	case WaitDOMContentLoaded:
		return "domcontentloaded"
	case WaitNetworkAlmostIdle:
		return "network-almost-idle"
	case WaitNetworkIdle:
		return "network-idle"
	default:
		return fmt.Sprintf("wait(%d)", int(w))
	}
}

// Escalate returns the next stricter strategy, saturating at WaitNetworkIdle.
func (w WaitStrategy) Escalate(steps int) WaitStrategy {
	next := int(w) + steps
	if next > int(WaitNetworkIdle) {
		next = int(WaitNetworkIdle)
	}
	if next < int(WaitDOMContentLoaded) {
		next = int(WaitDOMContentLoaded)
	}
	return WaitStrategy(next)
}

// Page is everything the extraction code may do with a browser tab.
type Page interface {
	Navigate(ctx context.Context, url string, wait WaitStrategy) error
	HTML(ctx context.Context) (string, error)
	Text(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	// Evaluate runs js (a function expression) with args and returns the
	// JSON encoding of its result.
	Evaluate(ctx context.Context, js string, args ...any) ([]byte, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Session hands out fresh pages.
type Session interface {
	OpenPage(ctx context.Context) (Page, error)
	Close() error
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeResult unmarshals an Evaluate payload into dst. Scripts may return
// either a value or a JSON.stringify'd value; both are accepted.
func DecodeResult(raw []byte, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("undefined")) {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return fmt.Errorf("decode string payload: %w", err)
		}
		trimmed := strings.TrimSpace(inner)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			raw = []byte(trimmed)
		} else {
			if s, ok := dst.(*string); ok {
				*s = inner
				return nil
			}
			raw = []byte(trimmed)
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// EvaluateInto runs js on page and decodes the result into dst.
func EvaluateInto(ctx context.Context, page Page, js string, dst any, args ...any) error {
	raw, err := page.Evaluate(ctx, js, args...)
	if err != nil {
		return err
	}
	return DecodeResult(raw, dst)
}

// TextFromHTML approximates the visible text of a document: scripts, styles and
// templates are dropped and block boundaries become newlines.
func TextFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return VisibleText(doc.Selection)
}

var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "li": {}, "tr": {}, "section": {}, "article": {}, "header": {},
	"footer": {}, "nav": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {}, "ul": {}, "ol": {},
}

// VisibleText renders the text of sel without touching the underlying document.
func VisibleText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style, noscript, template, svg").Remove()
	clone.Find("*").Each(func(_ int, s *goquery.Selection) {
		if node := s.Get(0); node != nil {
			if _, ok := blockTags[node.Data]; ok {
				s.AppendHtml("\n")
			}
		}
	})
	lines := strings.Split(clone.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
