package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leadspider/leadspider/core"
	"github.com/leadspider/leadspider/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	errs  []error
	calls int
}

func (r *scriptedRunner) RunPass(context.Context) ([]core.OutputRecord, error) {
	i := r.calls
	r.calls++
	if i < len(r.errs) {
		return nil, r.errs[i]
	}
	return []core.OutputRecord{{ProductName: "Acme"}}, nil
}

func TestRunPassesRetriesAfterCooldown(t *testing.T) {
	runner := &scriptedRunner{errs: []error{errors.New("listing down")}}
	err := runPasses(context.Background(), runner, 3, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestRunPassesGivesUp(t *testing.T) {
	boom := errors.New("listing down")
	runner := &scriptedRunner{errs: []error{boom, boom}}
	err := runPasses(context.Background(), runner, 2, time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, runner.calls)
}

func TestRunPassesStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &scriptedRunner{errs: []error{context.Canceled}}
	err := runPasses(ctx, runner, 3, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runner.calls)
}

func TestBuildSinksRequiresLeadPushCredentials(t *testing.T) {
	cfg := config.Defaults()
	cfg.LeadPush = true
	cfg.LeadPushURL = "https://leads.example/api"
	_, err := buildSinks(cfg)
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	cfg.LeadPush = false
	cfg.CSV = "leads.csv"
	sinks, err := buildSinks(cfg)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, "csv", sinks[0].Name())
}

func TestVersionFlagPrintsExamples(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.Contains(renderExamples(), core.CLIName+" -v"))
}
