package browser

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/leadspider/leadspider/core/antidetect"
	"github.com/sirupsen/logrus"
	"github.com/ysmood/gson"
)

// RodConfig configures the Chromium instance behind RodSession.
type RodConfig struct {
	Headless     bool
	Stealth      bool
	InitScripts  []string
	Cookies      string
	CookieDomain string
	// UserAgent pins a profile; the zero value picks a random Chromium profile per page.
	UserAgent antidetect.BrowserUserAgent
	Logger    logrus.FieldLogger
}

func resolveBrowserBinary(ctx context.Context, logger logrus.FieldLogger) (string, error) {
	if candidate := strings.TrimSpace(os.Getenv("ROD_BROWSER")); candidate != "" {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else {
			logger.Warnf("ROD_BROWSER points to %s but cannot be used: %v", candidate, err)
		}
	}

	if bin, has := launcher.LookPath(); has {
		if _, err := os.Stat(bin); err == nil {
			return bin, nil
		}
	}

	browser := launcher.NewBrowser()
	if ctx != nil {
		browser.Context = ctx
	}
	browser.Logger = log.New(io.Discard, "", 0)

	path, err := browser.Get()
	if err != nil {
		return "", err
	}

	logger.Infof("Downloaded Chromium to %s", path)
	return path, nil
}

// RodSession is a Session backed by a single rod-controlled Chromium process.
type RodSession struct {
	cfg         RodConfig
	log         logrus.FieldLogger
	launcher    *launcher.Launcher
	browser     *rod.Browser
	initScripts []string
	closeOnce   sync.Once
}

// NewRodSession launches Chromium and connects to it.
func NewRodSession(ctx context.Context, cfg RodConfig) (*RodSession, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	scripts, err := loadInitScripts(cfg.InitScripts)
	if err != nil {
		return nil, err
	}

	launch := launcher.New().Leakless(false).NoSandbox(true).Headless(cfg.Headless)
	launch = launch.Set("disable-gpu", "1").Set("disable-blink-features", "AutomationControlled")

	binaryPath, err := resolveBrowserBinary(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("resolve browser binary: %w", err)
	}
	if binaryPath != "" {
		logger.Debugf("Using Chromium binary %s", binaryPath)
		launch = launch.Bin(binaryPath)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		launch.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &RodSession{
		cfg:         cfg,
		log:         logger,
		launcher:    launch,
		browser:     browser,
		initScripts: scripts,
	}, nil
}

func loadInitScripts(paths []string) ([]string, error) {
	scripts := make([]string, 0, len(paths))
	for _, scriptPath := range paths {
		if scriptPath == "" {
			continue
		}
		absPath, err := filepath.Abs(scriptPath)
		if err != nil {
			return nil, fmt.Errorf("resolve init script path: %w", err)
		}
		content, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("read init script %s: %w", scriptPath, err)
		}
		scripts = append(scripts, string(content))
	}
	return scripts, nil
}

// OpenPage creates a new tab dressed with a consistent browser identity.
func (s *RodSession) OpenPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := s.preparePage(page); err != nil {
		_ = page.Close()
		return nil, err
	}
	return &rodPage{page: page}, nil
}

func (s *RodSession) preparePage(page *rod.Page) error {
	if s.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			return fmt.Errorf("inject stealth script: %w", err)
		}
	}
	for i, script := range s.initScripts {
		if _, err := page.EvalOnNewDocument(script); err != nil {
			return fmt.Errorf("inject init script %d: %w", i, err)
		}
	}

	ua := s.cfg.UserAgent
	if ua.UserAgent == "" {
		ua = antidetect.GetRandomUserAgent()
	}
	if err := (proto.NetworkSetUserAgentOverride{
		UserAgent:      ua.UserAgent,
		AcceptLanguage: ua.AcceptLanguage(),
	}).Call(page); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}

	headers := proto.NetworkHeaders{}
	for k, v := range ua.ExtraHeaders() {
		headers[k] = gson.New(v)
	}
	if len(headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(page); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
	}

	if ua.Viewport.Width > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             ua.Viewport.Width,
			Height:            ua.Viewport.Height,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
	}

	if cookies := parseCookies(s.cfg.Cookies, s.cfg.CookieDomain); len(cookies) > 0 {
		if err := page.SetCookies(cookies); err != nil {
			return fmt.Errorf("set cookies: %w", err)
		}
	}
	return nil
}

func parseCookies(raw, domain string) []*proto.NetworkCookieParam {
	if strings.TrimSpace(raw) == "" || strings.TrimSpace(domain) == "" {
		return nil
	}
	var cookies []*proto.NetworkCookieParam
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &proto.NetworkCookieParam{
			Name:   strings.TrimSpace(name),
			Value:  strings.TrimSpace(value),
			Domain: domain,
			Path:   "/",
		})
	}
	return cookies
}

// Close shuts the browser down. It is safe to call more than once.
func (s *RodSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.browser != nil {
			err = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
		}
	})
	return err
}

type rodPage struct {
	page *rod.Page
}

func lifecycleEvent(wait WaitStrategy) proto.PageLifecycleEventName {
	switch wait {
	case WaitNetworkAlmostIdle:
		return proto.PageLifecycleEventNameNetworkAlmostIdle
	case WaitNetworkIdle:
		return proto.PageLifecycleEventNameNetworkIdle
	default:
		return proto.PageLifecycleEventNameDOMContentLoaded
	}
}

func (p *rodPage) Navigate(ctx context.Context, url string, wait WaitStrategy) error {
	page := p.page.Context(ctx)
	waitFor := page.WaitNavigation(lifecycleEvent(wait))
	if err := page.Navigate(url); err != nil {
		return err
	}
	waitFor()
	return ctx.Err()
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) Text(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) Evaluate(ctx context.Context, js string, args ...any) ([]byte, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, err
	}
	return []byte(res.Value.JSON("", "")), nil
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(true, nil)
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
