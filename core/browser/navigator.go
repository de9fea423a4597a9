package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/leadspider/leadspider/core/antidetect"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
)

const hardTimerGrace = 5 * time.Second

// NavigatorConfig tunes navigation retries and timeouts.
type NavigatorConfig struct {
	Timeout            time.Duration
	StabilizationDelay time.Duration
	Retry              antidetect.RetryConfig
	DebugDir           string
	Logger             logrus.FieldLogger
	Feedback           antidetect.Feedback
}

// OpenOptions override the navigator defaults for one URL.
type OpenOptions struct {
	Wait          WaitStrategy
	Timeout       time.Duration
	Attempts      int
	Stabilization time.Duration
}

// RenderedPage is a loaded page plus a snapshot of its markup. The caller owns
// it and must Close it.
type RenderedPage struct {
	Page     Page
	URL      string
	FinalURL string
	HTML     string
	Text     string
	Signals  antidetect.BlockSignals
	Attempts int
	Wait     WaitStrategy

	readTimeout time.Duration
}

// Refresh re-reads the markup and visible text from the live page.
func (r *RenderedPage) Refresh(ctx context.Context) error {
	timeout := r.readTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	readCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	html, err := r.Page.HTML(readCtx)
	if err != nil {
		return fmt.Errorf("read html %s: %w", r.URL, err)
	}
	text, err := r.Page.Text(readCtx)
	if err != nil {
		text = TextFromHTML(html)
	}
	r.HTML, r.Text = html, text
	return nil
}

func (r *RenderedPage) Close() error {
	if r == nil || r.Page == nil {
		return nil
	}
	return r.Page.Close()
}

// Navigator loads pages with escalating wait strategies, retries and a hard
// timeout per attempt.
type Navigator struct {
	session Session
	cfg     NavigatorConfig
	log     logrus.FieldLogger
}

func NewNavigator(session Session, cfg NavigatorConfig) *Navigator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = antidetect.DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Navigator{session: session, cfg: cfg, log: logger}
}

// Open loads url and returns the rendered page. Attempt k waits for
// opts.Wait escalated k times. Every page opened by a failed attempt is closed.
func (n *Navigator) Open(ctx context.Context, url string, opts OpenOptions) (*RenderedPage, error) {
	attempts := n.cfg.Retry.Attempts()
	if opts.Attempts > 0 {
		attempts = opts.Attempts
	}
	timeout := n.cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	stabilization := n.cfg.StabilizationDelay
	if opts.Stabilization > 0 {
		stabilization = opts.Stabilization
	}

	var lastErr error
	tried := 0
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := antidetect.SleepContext(ctx, n.cfg.Retry.Delay(attempt)); err != nil {
				lastErr = err
				break
			}
		}
		tried++
		wait := opts.Wait.Escalate(attempt)
		rp, err := n.attempt(ctx, url, wait, timeout, stabilization)
		if err == nil {
			rp.Attempts = attempt + 1
			n.report(ctx, rp)
			return rp, nil
		}
		lastErr = err
		n.log.WithFields(logrus.Fields{
			"url":         url,
			"attempt":     attempt + 1,
			"wait":        wait.String(),
			"error_class": ClassifyError(err),
		}).Debugf("navigation attempt failed: %v", err)
		if ctx.Err() != nil {
			break
		}
	}

	if n.cfg.Feedback != nil {
		n.cfg.Feedback.RecordFailure()
	}
	navErr := &NavigationError{URL: url, Kind: ClassifyError(lastErr), Attempts: tried, Err: lastErr}
	n.log.WithFields(logrus.Fields{"url": url, "error_class": navErr.Kind, "attempts": tried}).Warn("navigation failed")
	return nil, navErr
}

func (n *Navigator) attempt(ctx context.Context, url string, wait WaitStrategy, timeout, stabilization time.Duration) (*RenderedPage, error) {
	page, err := n.session.OpenPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	done := make(chan error, 1)
	go func() {
		done <- page.Navigate(navCtx, url, wait)
	}()

	hard := time.NewTimer(timeout + hardTimerGrace)
	defer hard.Stop()

	select {
	case err = <-done:
	case <-hard.C:
		err = ErrHardTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}
	cancel()
	if err != nil {
		// A hung engine may also hang Close; never block the pass on it.
		go func() { _ = page.Close() }()
		return nil, err
	}

	if stabilization > 0 {
		if err := antidetect.SleepContext(ctx, stabilization); err != nil {
			_ = page.Close()
			return nil, err
		}
	}

	rp := &RenderedPage{Page: page, URL: url, Wait: wait, readTimeout: timeout}
	if err := rp.Refresh(ctx); err != nil {
		_ = page.Close()
		return nil, err
	}
	readCtx, cancelRead := context.WithTimeout(ctx, timeout)
	defer cancelRead()
	if final, err := page.URL(readCtx); err == nil && final != "" && final != "about:blank" {
		rp.FinalURL = final
	} else {
		rp.FinalURL = url
	}
	rp.Signals = antidetect.DetectBlock(rp.HTML, rp.Text)
	return rp, nil
}

func (n *Navigator) report(ctx context.Context, rp *RenderedPage) {
	if !rp.Signals.Any() {
		if n.cfg.Feedback != nil {
			n.cfg.Feedback.RecordSuccess()
		}
		return
	}
	if n.cfg.Feedback != nil {
		n.cfg.Feedback.RecordFailure()
	}
	entry := n.log.WithFields(logrus.Fields{
		"url":          rp.URL,
		"captcha":      rp.Signals.Captcha,
		"blocked":      rp.Signals.Blocked,
		"rate_limited": rp.Signals.RateLimited,
		"vendor":       rp.Signals.Vendor,
	})
	entry.Warnf("page looks protected (%s), continuing", rp.Signals.Reason)
	if n.cfg.DebugDir == "" {
		return
	}
	if path, err := n.saveScreenshot(ctx, rp); err != nil {
		entry.Debugf("screenshot failed: %v", err)
	} else {
		entry.Infof("saved screenshot to %s", path)
	}
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (n *Navigator) saveScreenshot(ctx context.Context, rp *RenderedPage) (string, error) {
	dir, err := homedir.Expand(n.cfg.DebugDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	shotCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()
	data, err := rp.Page.Screenshot(shotCtx)
	if err != nil {
		return "", err
	}
	name := strings.Trim(unsafeFileChars.ReplaceAllString(rp.URL, "_"), "_")
	if len(name) > 120 {
		name = name[:120]
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%d.png", name, time.Now().Unix()))
	return path, os.WriteFile(path, data, 0o644)
}

// Visit opens url, hands the page to fn and closes it on every path.
func (n *Navigator) Visit(ctx context.Context, url string, opts OpenOptions, fn func(*RenderedPage) error) error {
	rp, err := n.Open(ctx, url, opts)
	if err != nil {
		return err
	}
	defer rp.Close()
	return fn(rp)
}

// FinalURL loads url in its own page and returns where it ended up.
func (n *Navigator) FinalURL(ctx context.Context, url string) (string, error) {
	var final string
	err := n.Visit(ctx, url, OpenOptions{Wait: WaitDOMContentLoaded, Attempts: 2}, func(rp *RenderedPage) error {
		final = rp.FinalURL
		return nil
	})
	return final, err
}
