package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leadspider/leadspider/core/antidetect"
	"github.com/leadspider/leadspider/core/browser"
	"github.com/leadspider/leadspider/core/browser/browsertest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFeedback struct{ failures, successes int }

func (c *countingFeedback) RecordFailure() { c.failures++ }
func (c *countingFeedback) RecordSuccess() { c.successes++ }

func newNavigator(session browser.Session, fb antidetect.Feedback) *browser.Navigator {
	logger, _ := test.NewNullLogger()
	return browser.NewNavigator(session, browser.NavigatorConfig{
		Timeout:  200 * time.Millisecond,
		Retry:    antidetect.RetryConfig{MaxAttempts: 3},
		Logger:   logger,
		Feedback: fb,
	})
}

func TestNavigatorRetriesAndClosesFailedPages(t *testing.T) {
	session := browsertest.NewSession().
		AddHTML("https://acme.io", "<html><body><h1>Acme</h1></body></html>").
		FailFirst("https://acme.io", 2)
	fb := &countingFeedback{}
	nav := newNavigator(session, fb)

	rp, err := nav.Open(context.Background(), "https://acme.io", browser.OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, rp.Attempts)
	assert.Equal(t, browser.WaitNetworkIdle, rp.Wait, "third attempt should use the strictest strategy")
	assert.Equal(t, []browser.WaitStrategy{
		browser.WaitDOMContentLoaded, browser.WaitNetworkAlmostIdle, browser.WaitNetworkIdle,
	}, session.Waits())
	assert.Equal(t, "Acme", rp.Text)
	assert.Equal(t, 1, fb.successes)
	require.NoError(t, rp.Close())

	assert.Eventually(t, func() bool { return session.Leaked() == 0 }, time.Second, 10*time.Millisecond)
}

func TestNavigatorReturnsClassifiedError(t *testing.T) {
	session := browsertest.NewSession()
	fb := &countingFeedback{}
	nav := newNavigator(session, fb)

	_, err := nav.Open(context.Background(), "https://missing.example", browser.OpenOptions{Attempts: 2})
	require.Error(t, err)
	var navErr *browser.NavigationError
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, browser.KindDNS, navErr.Kind)
	assert.Equal(t, 2, navErr.Attempts)
	assert.Equal(t, 1, fb.failures)
}

func TestNavigatorHardTimeoutOnHang(t *testing.T) {
	session := browsertest.NewSession().Add("https://slow.example", browsertest.Fixture{Hang: true})
	nav := newNavigator(session, nil)

	start := time.Now()
	_, err := nav.Open(context.Background(), "https://slow.example", browser.OpenOptions{Attempts: 1, Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, browser.KindTimeout, browser.ClassifyError(err))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Eventually(t, func() bool { return session.Leaked() == 0 }, time.Second, 10*time.Millisecond)
}

func TestNavigatorFlagsCaptchaButContinues(t *testing.T) {
	session := browsertest.NewSession().
		AddHTML("https://guarded.example", `<html><body><div class="g-recaptcha"></div><p>Pricing</p></body></html>`)
	fb := &countingFeedback{}
	nav := newNavigator(session, fb)

	err := nav.Visit(context.Background(), "https://guarded.example", browser.OpenOptions{}, func(rp *browser.RenderedPage) error {
		assert.True(t, rp.Signals.Captcha)
		assert.Contains(t, rp.HTML, "Pricing")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fb.failures)
	assert.Equal(t, 0, session.Leaked())
}

func TestNavigatorVisitClosesOnCallbackError(t *testing.T) {
	session := browsertest.NewSession().AddHTML("https://acme.io", "<p>x</p>")
	nav := newNavigator(session, nil)
	boom := errors.New("boom")
	err := nav.Visit(context.Background(), "https://acme.io", browser.OpenOptions{}, func(*browser.RenderedPage) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, session.Leaked())
}

func TestNavigatorFinalURL(t *testing.T) {
	session := browsertest.NewSession().Add("https://www.producthunt.com/r/abc", browsertest.Fixture{
		HTML:     "<p>redirected</p>",
		FinalURL: "https://acme.io/?ref=producthunt",
	})
	nav := newNavigator(session, nil)
	final, err := nav.FinalURL(context.Background(), "https://www.producthunt.com/r/abc")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.io/?ref=producthunt", final)
}
