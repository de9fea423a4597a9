package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/leadspider/leadspider/core"
	"github.com/leadspider/leadspider/core/antidetect"
	"github.com/leadspider/leadspider/core/browser"
	"github.com/leadspider/leadspider/core/contact"
	"github.com/leadspider/leadspider/core/listing"
	"github.com/leadspider/leadspider/core/product"
	"github.com/leadspider/leadspider/internal/config"
	"github.com/leadspider/leadspider/internal/export"
	"github.com/leadspider/leadspider/internal/logging"
	"github.com/spf13/cobra"
)

const exportTimeout = 2 * time.Minute

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   core.CLIName,
		Short: "Lead extraction from JavaScript-rendered listing sites",
		Long:  fmt.Sprintf("Lead extraction from JavaScript-rendered listing sites - %s by %s", core.VERSION, core.AUTHOR),
		RunE:  runRoot,
	}
	config.RegisterFlags(cmd.Flags())
	cmd.SilenceUsage = true
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	if showVersion, err := cmd.Flags().GetBool("version"); err == nil && showVersion {
		fmt.Printf("Version: %s\n", core.VERSION)
		fmt.Println(renderExamples())
		return nil
	}

	cfg, runtime, err := config.NewLoader(cmd).Load()
	if err != nil {
		return err
	}
	logging.Configure(core.Logger, logging.Options{Debug: runtime.Debug, Verbose: runtime.Verbose, Quiet: runtime.Quiet})

	runID := uuid.New().String()
	log := core.Logger.WithField("run_id", runID)

	sinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := core.NewRunStats()
	startTime := time.Now()
	watchRun(ctx, cancel, stats, startTime, runtime.Quiet)

	limiter := antidetect.NewAdaptiveLimiter(limiterConfig(cfg))

	session, err := browser.NewRodSession(ctx, browser.RodConfig{
		Headless:     !cfg.ShowBrowser,
		Stealth:      !cfg.DisableStealth,
		InitScripts:  cfg.InitScripts,
		Cookies:      cfg.Cookie,
		CookieDomain: hostOf(cfg.ListingURL),
		Logger:       core.Logger,
	})
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer session.Close()

	retry := antidetect.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Retries
	nav := browser.NewNavigator(session, browser.NavigatorConfig{
		Timeout:            cfg.NavigationTimeout(),
		StabilizationDelay: cfg.StabilizationDelay(),
		Retry:              retry,
		DebugDir:           cfg.DebugDir,
		Logger:             core.Logger,
		Feedback:           limiter,
	})

	var static contact.Fetcher
	if !cfg.DisableStaticFallback {
		static = contact.NewStaticFetcher(contact.StaticConfig{Timeout: cfg.NavigationTimeout() / 2})
	}
	contactOpts := contact.DefaultOptions()
	contactOpts.UseSitemap = !cfg.DisableSitemap
	contactOpts.Logger = core.Logger
	extractor := contact.NewEngine(nav, static, contactOpts)

	productCfg := product.DefaultConfig()
	productCfg.MaxMakers = cfg.MaxMakers
	productCfg.ProfilePathPrefix = cfg.ProfilePathPrefix
	productCfg.ExcludedDomains = append(productCfg.ExcludedDomains, cfg.ExcludedDomains...)
	productCfg.FalsePositiveDomains = append(productCfg.FalsePositiveDomains, cfg.FalsePositiveDomains...)
	productCfg.Logger = core.Logger
	resolver := product.NewResolver(nav, extractor, limiter, productCfg)

	listingCfg := listing.DefaultConfig()
	listingCfg.EntityPathPrefix = cfg.EntityPathPrefix
	listingCfg.Logger = core.Logger
	discoverer := listing.NewDiscoverer(nav, listingCfg)

	out, err := core.NewOutputPath(cfg.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	engine := core.NewEngine(discoverer, resolver, limiter, core.EngineConfig{
		ListingURL: cfg.ListingURL,
		MaxItems:   cfg.MaxItems,
		RunID:      runID,
		Date:       startTime.Format(core.DateLayout),
		Output:     out,
		Stats:      stats,
		Logger:     core.Logger,
	})

	runErr := runPasses(ctx, engine, cfg.MaxPasses, cfg.Cooldown())
	if runErr != nil {
		log.Errorf("run ended early: %v", runErr)
	}

	records := engine.Records()
	exportCtx, exportCancel := context.WithTimeout(context.Background(), exportTimeout)
	defer exportCancel()
	if err := export.WriteAll(exportCtx, sinks, records); err != nil {
		log.Errorf("export: %v", err)
	}

	elapsed := time.Since(startTime)
	if !runtime.Quiet {
		core.WriteSummary(os.Stdout, stats, elapsed, records)
	}
	log.Infof("Done in %s.", elapsed.Round(time.Second))
	return runErr
}

// passRunner is the part of *core.Engine the pass loop drives.
type passRunner interface {
	RunPass(ctx context.Context) ([]core.OutputRecord, error)
}

// runPasses retries a failed pass after cooldown, up to passes attempts.
// Entities emitted by a failed pass are not emitted again.
func runPasses(ctx context.Context, runner passRunner, passes int, cooldown time.Duration) error {
	if passes <= 0 {
		passes = 1
	}
	var lastErr error
	for pass := 1; pass <= passes; pass++ {
		records, err := runner.RunPass(ctx)
		entry := core.Logger.WithField("pass", pass)
		if err == nil {
			entry.Infof("pass complete, %d records", len(records))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		entry.Errorf("pass failed after %d records: %v", len(records), err)
		if pass < passes {
			entry.Warnf("retrying in %s", cooldown)
			if err := antidetect.SleepContext(ctx, cooldown); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%d passes failed: %w", passes, lastErr)
}

// watchRun cancels the run on SIGINT/SIGTERM and logs periodic stats.
func watchRun(ctx context.Context, cancel context.CancelFunc, stats *core.RunStats, startTime time.Time, quiet bool) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		ticker := time.NewTicker(core.DefaultStatsInterval)
		defer ticker.Stop()

		for {
			select {
			case sig := <-sigChan:
				core.Logger.Warnf("Received signal %s, shutting down...", sig)
				cancel()
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !quiet {
					elapsed := time.Since(startTime).Round(time.Second)
					core.Logger.Infof("Stats [%s]: Found: %d, Processed: %d, Records: %d, Errors: %d, Rate: %.2f/min",
						elapsed, stats.GetEntitiesFound(), stats.GetProcessed(), stats.GetRecords(), stats.GetErrors(), stats.GetRate(elapsed))
				}
			}
		}
	}()
}

func limiterConfig(cfg config.Config) antidetect.LimiterConfig {
	lc := antidetect.DefaultLimiterConfig()
	lc.BaseDelay = cfg.LimiterBaseDelay()
	lc.MaxDelay = cfg.LimiterMaxDelay()
	return lc
}

func buildSinks(cfg config.Config) ([]export.Sink, error) {
	var sinks []export.Sink
	if cfg.CSV != "" {
		sinks = append(sinks, export.NewCSVSink(cfg.CSV))
	}
	if cfg.LeadPush {
		sink, err := export.NewLeadPushSink(export.LeadPushConfig{
			URL:           cfg.LeadPushURL,
			Token:         cfg.LeadPushToken,
			CampaignID:    cfg.LeadPushCampaign,
			RatePerSecond: cfg.LeadPushRate,
			Logger:        core.Logger,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func renderExamples() string {
	h := "\n\nExamples Command:\n"
	h += core.CLIName + ` -v` + "\n"
	h += core.CLIName + ` -s "https://www.producthunt.com/leaderboard/daily/2026/10/17" -n 40 -m 3 -o leads.jsonl` + "\n"
	h += core.CLIName + ` -c leadspider.json5 --csv exports/leads.csv` + "\n"
	h += `LEADPUSH_TOKEN=... ` + core.CLIName + ` --lead-push --lead-push-url https://leads.example/api --lead-push-campaign camp-1` + "\n"
	return h
}
