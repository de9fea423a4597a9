package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/titanous/json5"
)

const (
	EnvLeadPushToken    = "LEADPUSH_TOKEN"
	EnvLeadPushCampaign = "LEADPUSH_CAMPAIGN"
	EnvLeadPushURL      = "LEADPUSH_URL"
)

type Loader struct {
	cmd *cobra.Command
	// EnvFiles are loaded with godotenv before reading the environment.
	// Missing files are ignored.
	EnvFiles []string
}

func NewLoader(cmd *cobra.Command) Loader {
	return Loader{cmd: cmd, EnvFiles: []string{".env"}}
}

// Load resolves the configuration: defaults, then the config file, then
// flags set on the command line, then the environment for secrets.
func (l Loader) Load() (Config, RuntimeOptions, error) {
	flags := l.cmd.Flags()
	cfg := Defaults()
	var runtime RuntimeOptions

	getBool := func(name string) (bool, error) {
		v, err := flags.GetBool(name)
		if err != nil {
			return false, fmt.Errorf("get bool %s: %w", name, err)
		}
		return v, nil
	}
	getString := func(name string) (string, error) {
		v, err := flags.GetString(name)
		if err != nil {
			return "", fmt.Errorf("get string %s: %w", name, err)
		}
		return v, nil
	}

	var err error
	if runtime.ConfigFile, err = getString("config"); err != nil {
		return cfg, runtime, err
	}
	if runtime.Debug, err = getBool("debug"); err != nil {
		return cfg, runtime, err
	}
	if runtime.Verbose, err = getBool("verbose"); err != nil {
		return cfg, runtime, err
	}
	if runtime.Quiet, err = getBool("quiet"); err != nil {
		return cfg, runtime, err
	}

	if runtime.ConfigFile != "" {
		fileCfg, err := ReadFile(runtime.ConfigFile)
		if err != nil {
			return cfg, runtime, err
		}
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return cfg, runtime, fmt.Errorf("merge config file: %w", err)
		}
	}

	if err := l.applyFlags(&cfg); err != nil {
		return cfg, runtime, err
	}

	for _, file := range l.EnvFiles {
		_ = godotenv.Load(file)
	}
	applyEnv(&cfg)

	if err := expandPaths(&cfg); err != nil {
		return cfg, runtime, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, runtime, err
	}
	return cfg, runtime, nil
}

// applyFlags copies flags set on the command line over cfg.
func (l Loader) applyFlags(cfg *Config) error {
	flags := l.cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err != nil || !flags.Changed(name) {
			return
		}
		if applyErr := apply(); applyErr != nil {
			err = fmt.Errorf("get %s: %w", name, applyErr)
		}
	}
	str := func(name string, dst *string) {
		set(name, func() (e error) { *dst, e = flags.GetString(name); return })
	}
	num := func(name string, dst *int) {
		set(name, func() (e error) { *dst, e = flags.GetInt(name); return })
	}
	flag := func(name string, dst *bool) {
		set(name, func() (e error) { *dst, e = flags.GetBool(name); return })
	}
	list := func(name string, dst *[]string) {
		set(name, func() (e error) { *dst, e = flags.GetStringSlice(name); return })
	}

	str("listing", &cfg.ListingURL)
	str("entity-prefix", &cfg.EntityPathPrefix)
	str("profile-prefix", &cfg.ProfilePathPrefix)
	num("max-items", &cfg.MaxItems)
	num("max-makers", &cfg.MaxMakers)
	num("passes", &cfg.MaxPasses)
	num("retry-cooldown", &cfg.RetryCooldown)
	num("timeout", &cfg.Timeout)
	num("retries", &cfg.Retries)
	num("stabilization", &cfg.Stabilization)
	num("base-delay", &cfg.BaseDelay)
	num("max-delay", &cfg.MaxDelay)
	flag("show-browser", &cfg.ShowBrowser)
	flag("no-stealth", &cfg.DisableStealth)
	flag("no-sitemap", &cfg.DisableSitemap)
	flag("no-static-fallback", &cfg.DisableStaticFallback)
	list("init-script", &cfg.InitScripts)
	str("cookie", &cfg.Cookie)
	str("debug-dir", &cfg.DebugDir)
	str("output", &cfg.Output)
	str("csv", &cfg.CSV)
	list("exclude-domain", &cfg.ExcludedDomains)
	list("false-positive-domain", &cfg.FalsePositiveDomains)
	flag("lead-push", &cfg.LeadPush)
	str("lead-push-url", &cfg.LeadPushURL)
	str("lead-push-campaign", &cfg.LeadPushCampaign)
	set("lead-push-rate", func() (e error) { cfg.LeadPushRate, e = flags.GetFloat64("lead-push-rate"); return })
	return err
}

// ReadFile decodes a JSON5 config file.
func ReadFile(path string) (Config, error) {
	var out Config
	expanded, err := homedir.Expand(path)
	if err != nil {
		return out, &ConfigurationError{Field: "config", Err: err}
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return out, &ConfigurationError{Field: "config", Err: err}
	}
	if err := json5.Unmarshal(data, &out); err != nil {
		return out, &ConfigurationError{Field: "config", Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	return out, nil
}

func applyEnv(cfg *Config) {
	cfg.LeadPushToken = strings.TrimSpace(os.Getenv(EnvLeadPushToken))
	if v := strings.TrimSpace(os.Getenv(EnvLeadPushCampaign)); v != "" && cfg.LeadPushCampaign == "" {
		cfg.LeadPushCampaign = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLeadPushURL)); v != "" && cfg.LeadPushURL == "" {
		cfg.LeadPushURL = v
	}
}

func expandPaths(cfg *Config) error {
	paths := []*string{&cfg.Output, &cfg.CSV, &cfg.DebugDir}
	for i := range cfg.InitScripts {
		paths = append(paths, &cfg.InitScripts[i])
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return &ConfigurationError{Field: *p, Err: err}
		}
		*p = expanded
	}
	return nil
}

var validate = validator.New()

// Validate checks value ranges and the credentials of enabled collaborators.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigurationError{Field: fe.Field(), Err: fmt.Errorf("failed %q check (value %v)", fe.Tag(), fe.Value())}
		}
		return &ConfigurationError{Err: err}
	}
	if cfg.LeadPush {
		switch {
		case cfg.LeadPushToken == "":
			return &ConfigurationError{Field: EnvLeadPushToken, Err: errors.New("lead push enabled without a token")}
		case cfg.LeadPushCampaign == "":
			return &ConfigurationError{Field: "lead_push_campaign", Err: errors.New("lead push enabled without a campaign id")}
		case cfg.LeadPushURL == "":
			return &ConfigurationError{Field: "lead_push_url", Err: errors.New("lead push enabled without an endpoint")}
		}
	}
	return nil
}
