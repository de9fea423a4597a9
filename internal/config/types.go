package config

import (
	"fmt"
	"time"
)

// Config is the full run configuration. Durations are stored in the unit of
// the matching flag so a config file reads the same as a command line.
type Config struct {
	ListingURL        string `json:"listing_url" validate:"required,url"`
	EntityPathPrefix  string `json:"entity_path_prefix" validate:"required"`
	ProfilePathPrefix string `json:"profile_path_prefix" validate:"required"`
	MaxItems          int    `json:"max_items" validate:"gte=0"`
	MaxMakers         int    `json:"max_makers" validate:"gte=1,lte=50"`
	MaxPasses         int    `json:"max_passes" validate:"gte=1"`
	// RetryCooldown is in seconds.
	RetryCooldown int `json:"retry_cooldown" validate:"gte=0"`

	// Timeout is the per-navigation ceiling in seconds.
	Timeout int `json:"timeout" validate:"gte=5,lte=600"`
	Retries int `json:"retries" validate:"gte=1,lte=10"`
	// Stabilization is in milliseconds.
	Stabilization int `json:"stabilization" validate:"gte=0"`
	// BaseDelay is the limiter base delay in milliseconds.
	BaseDelay int `json:"base_delay" validate:"gte=0"`
	// MaxDelay is the limiter ceiling in seconds.
	MaxDelay int `json:"max_delay" validate:"gte=1"`

	ShowBrowser           bool     `json:"show_browser"`
	DisableStealth        bool     `json:"disable_stealth"`
	DisableSitemap        bool     `json:"disable_sitemap"`
	DisableStaticFallback bool     `json:"disable_static_fallback"`
	InitScripts           []string `json:"init_scripts"`
	Cookie                string   `json:"cookie"`
	DebugDir              string   `json:"debug_dir"`

	Output string `json:"output" validate:"required"`
	CSV    string `json:"csv"`

	ExcludedDomains      []string `json:"excluded_domains"`
	FalsePositiveDomains []string `json:"false_positive_domains"`

	LeadPush         bool    `json:"lead_push"`
	LeadPushURL      string  `json:"lead_push_url" validate:"omitempty,url"`
	LeadPushToken    string  `json:"-"`
	LeadPushCampaign string  `json:"lead_push_campaign"`
	LeadPushRate     float64 `json:"lead_push_rate" validate:"gte=0"`
}

// RuntimeOptions are process-level switches that never come from a file.
type RuntimeOptions struct {
	ConfigFile string
	Debug      bool
	Verbose    bool
	Quiet      bool
}

// Defaults returns the values used for flags and for fields a config file
// leaves unset.
func Defaults() Config {
	return Config{
		ListingURL:        "https://www.producthunt.com/",
		EntityPathPrefix:  "/products/",
		ProfilePathPrefix: "/@",
		MaxItems:          0,
		MaxMakers:         5,
		MaxPasses:         3,
		RetryCooldown:     300,
		Timeout:           45,
		Retries:           3,
		Stabilization:     800,
		BaseDelay:         2000,
		MaxDelay:          90,
		Output:            "leads.jsonl",
		LeadPushRate:      2,
	}
}

func (c Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) StabilizationDelay() time.Duration {
	return time.Duration(c.Stabilization) * time.Millisecond
}

func (c Config) Cooldown() time.Duration {
	return time.Duration(c.RetryCooldown) * time.Second
}

func (c Config) LimiterBaseDelay() time.Duration {
	return time.Duration(c.BaseDelay) * time.Millisecond
}

func (c Config) LimiterMaxDelay() time.Duration {
	return time.Duration(c.MaxDelay) * time.Second
}

// ConfigurationError is a fatal startup fault: a bad value or a missing
// credential for an enabled collaborator.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
