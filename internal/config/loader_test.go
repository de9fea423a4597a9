package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func load(t *testing.T, args ...string) (Config, RuntimeOptions, error) {
	t.Helper()
	loader := NewLoader(newCommand(t, args...))
	loader.EnvFiles = nil
	return loader.Load()
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvLeadPushToken, "")
	cfg, runtime, err := load(t)
	require.NoError(t, err)

	def := Defaults()
	assert.Equal(t, def.ListingURL, cfg.ListingURL)
	assert.Equal(t, def.MaxMakers, cfg.MaxMakers)
	assert.Equal(t, 45*time.Second, cfg.NavigationTimeout())
	assert.False(t, runtime.Debug)
	assert.Empty(t, runtime.ConfigFile)
}

func TestLoadFileThenFlags(t *testing.T) {
	t.Setenv(EnvLeadPushToken, "")
	path := filepath.Join(t.TempDir(), "leads.json5")
	content := `{
  // comments and trailing commas are fine
  listing_url: "https://hunt.example/leaderboard",
  max_makers: 2,
  timeout: 30,
  show_browser: true,
  excluded_domains: ["bit.ly"],
}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to seed config: %v", err)
	}

	cfg, runtime, err := load(t, "--config", path, "--max-makers", "4", "--debug")
	require.NoError(t, err)
	assert.Equal(t, path, runtime.ConfigFile)
	assert.True(t, runtime.Debug)
	assert.Equal(t, "https://hunt.example/leaderboard", cfg.ListingURL)
	assert.Equal(t, 4, cfg.MaxMakers, "flag given on the command line wins")
	assert.Equal(t, 30, cfg.Timeout)
	assert.True(t, cfg.ShowBrowser)
	assert.Equal(t, []string{"bit.ly"}, cfg.ExcludedDomains)
	assert.Equal(t, Defaults().Retries, cfg.Retries, "unset fields keep defaults")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv(EnvLeadPushToken, "")
	_, _, err := load(t, "--max-makers", "0")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "MaxMakers", cfgErr.Field)

	_, _, err = load(t, "--listing", "not a url")
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "ListingURL", cfgErr.Field)
}

func TestLoadLeadPushNeedsCredentials(t *testing.T) {
	t.Setenv(EnvLeadPushToken, "")
	t.Setenv(EnvLeadPushCampaign, "")
	_, _, err := load(t, "--lead-push", "--lead-push-url", "https://leads.example/api")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, EnvLeadPushToken, cfgErr.Field)

	t.Setenv(EnvLeadPushToken, "secret")
	t.Setenv(EnvLeadPushCampaign, "camp-1")
	cfg, _, err := load(t, "--lead-push", "--lead-push-url", "https://leads.example/api")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.LeadPushToken)
	assert.Equal(t, "camp-1", cfg.LeadPushCampaign)
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(EnvLeadPushToken, "")
	os.Unsetenv(EnvLeadPushToken)
	t.Setenv(EnvLeadPushCampaign, "")
	os.Unsetenv(EnvLeadPushCampaign)
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("LEADPUSH_TOKEN=from-file\nLEADPUSH_CAMPAIGN=camp-env\n"), 0o600); err != nil {
		t.Fatalf("failed to seed env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv(EnvLeadPushToken)
		os.Unsetenv(EnvLeadPushCampaign)
	})

	loader := NewLoader(newCommand(t, "--lead-push", "--lead-push-url", "https://leads.example/api"))
	loader.EnvFiles = []string{envFile}
	cfg, _, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.LeadPushToken)
	assert.Equal(t, "camp-env", cfg.LeadPushCampaign)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json5"))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "config", cfgErr.Field)
}
