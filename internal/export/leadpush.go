package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/leadspider/leadspider/core"
	"github.com/leadspider/leadspider/core/antidetect"
	"github.com/leadspider/leadspider/internal/config"
	"github.com/leadspider/leadspider/stringset"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// LeadPushConfig addresses a campaign on a lead API.
type LeadPushConfig struct {
	URL        string
	Token      string
	CampaignID string
	// RatePerSecond caps request throughput; 0 means 2/s.
	RatePerSecond float64
	Timeout       time.Duration
	Retry         antidetect.RetryConfig
	Logger        logrus.FieldLogger
}

// Lead is the body pushed for one record.
type Lead struct {
	CampaignID   string            `json:"campaign_id"`
	Email        string            `json:"email"`
	FirstName    string            `json:"first_name,omitempty"`
	LastName     string            `json:"last_name,omitempty"`
	CompanyName  string            `json:"company_name"`
	Website      string            `json:"website,omitempty"`
	CustomFields map[string]string `json:"custom_variables,omitempty"`
}

// LeadPushSink posts every record that carries an email, once per address.
type LeadPushSink struct {
	http *resty.Client
	cfg  LeadPushConfig
	log  logrus.FieldLogger
}

func NewLeadPushSink(cfg LeadPushConfig) (*LeadPushSink, error) {
	switch {
	case strings.TrimSpace(cfg.Token) == "":
		return nil, &config.ConfigurationError{Field: config.EnvLeadPushToken, Err: errors.New("missing bearer token")}
	case strings.TrimSpace(cfg.CampaignID) == "":
		return nil, &config.ConfigurationError{Field: "lead_push_campaign", Err: errors.New("missing campaign id")}
	case strings.TrimSpace(cfg.URL) == "":
		return nil, &config.ConfigurationError{Field: "lead_push_url", Err: errors.New("missing endpoint")}
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = antidetect.DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	httpClient := resty.New()
	httpClient.SetTimeout(cfg.Timeout)
	httpClient.SetTransport(antidetect.NewRetryRoundTripper(nil, cfg.Retry))
	httpClient.SetAuthToken(cfg.Token)
	httpClient.SetHeader("Content-Type", "application/json")
	httpClient.SetHeader("User-Agent", core.CLIName+"/"+core.VERSION)
	httpClient.JSONMarshal = jsoniter.Marshal
	httpClient.JSONUnmarshal = jsoniter.Unmarshal

	burst := int(cfg.RatePerSecond)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	return &LeadPushSink{http: httpClient, cfg: cfg, log: logger}, nil
}

func (s *LeadPushSink) Name() string { return "lead-push" }

func (s *LeadPushSink) Write(ctx context.Context, records []core.OutputRecord) error {
	pushed := stringset.NewStringFilter()
	var errs []error
	sent := 0
	for _, rec := range records {
		lead, ok := s.leadFor(rec)
		if !ok || pushed.Duplicate(lead.Email) {
			continue
		}
		resp, err := s.http.R().SetContext(ctx).SetBody(lead).Post(s.cfg.URL)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Join(append(errs, ctx.Err())...)
			}
			errs = append(errs, fmt.Errorf("push %s: %w", lead.Email, err))
			continue
		}
		if resp.IsError() {
			errs = append(errs, fmt.Errorf("push %s: status %d: %s", lead.Email, resp.StatusCode(), strings.TrimSpace(resp.String())))
			continue
		}
		sent++
	}
	s.log.WithFields(logrus.Fields{"sent": sent, "failed": len(errs)}).Info("lead push finished")
	return errors.Join(errs...)
}

// leadFor prefers the maker's own address over the site address.
func (s *LeadPushSink) leadFor(rec core.OutputRecord) (Lead, bool) {
	email := rec.MakerEmail
	if email == "" {
		email = rec.SiteEmail
	}
	if email == "" {
		return Lead{}, false
	}
	first, last := splitName(rec.MakerName)
	custom := map[string]string{"product_url": rec.ProductURL}
	if rec.MakerTwitter != "" {
		custom["twitter"] = rec.MakerTwitter
	} else if rec.SiteTwitter != "" {
		custom["twitter"] = rec.SiteTwitter
	}
	if rec.MakerLinkedIn != "" {
		custom["linkedin"] = rec.MakerLinkedIn
	}
	return Lead{
		CampaignID:   s.cfg.CampaignID,
		Email:        email,
		FirstName:    first,
		LastName:     last,
		CompanyName:  rec.ProductName,
		Website:      rec.ProductWebsite,
		CustomFields: custom,
	}, true
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
