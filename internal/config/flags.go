package config

import "github.com/spf13/pflag"

// RegisterFlags declares every configuration flag with its default.
func RegisterFlags(flags *pflag.FlagSet) {
	def := Defaults()

	flags.StringP("config", "c", "", "JSON5 config file; flags given on the command line override it")
	flags.StringP("listing", "s", def.ListingURL, "Listing page to extract entities from")
	flags.String("entity-prefix", def.EntityPathPrefix, "Path prefix of entity pages on the listing site")
	flags.String("profile-prefix", def.ProfilePathPrefix, "Path prefix of person profiles on the listing site")
	flags.IntP("max-items", "n", def.MaxItems, "Maximum entities per pass (0 = all discovered)")
	flags.IntP("max-makers", "m", def.MaxMakers, "Maximum contacts resolved per entity")
	flags.Int("passes", def.MaxPasses, "Passes attempted when a pass fails")
	flags.Int("retry-cooldown", def.RetryCooldown, "Cooldown before retrying a failed pass (second)")

	flags.IntP("timeout", "t", def.Timeout, "Navigation timeout (second)")
	flags.Int("retries", def.Retries, "Navigation attempts per page, each with a stricter wait")
	flags.Int("stabilization", def.Stabilization, "Extra wait after load before reading the page (millisecond)")
	flags.Int("base-delay", def.BaseDelay, "Base delay between requests to the listing site (millisecond)")
	flags.Int("max-delay", def.MaxDelay, "Ceiling of the adaptive delay (second)")

	flags.Bool("show-browser", def.ShowBrowser, "Run Chromium with a visible window")
	flags.Bool("no-stealth", def.DisableStealth, "Do not inject the stealth script")
	flags.Bool("no-sitemap", def.DisableSitemap, "Do not consult sitemap.xml for contact pages")
	flags.Bool("no-static-fallback", def.DisableStaticFallback, "Do not retry unreachable websites without the browser")
	flags.StringSlice("init-script", def.InitScripts, "Inject JavaScript files into every page before navigation")
	flags.String("cookie", def.Cookie, "Cookie to use on the listing site (testA=a; testB=b)")
	flags.String("debug-dir", def.DebugDir, "Save screenshots of failed or blocked pages here")

	flags.StringP("output", "o", def.Output, "JSON lines output file (appended, deduplicated)")
	flags.String("csv", def.CSV, "Also export the run to this CSV file")
	flags.StringSlice("exclude-domain", def.ExcludedDomains, "Extra domains never taken as an entity website")
	flags.StringSlice("false-positive-domain", def.FalsePositiveDomains, "Extra domains accepted only when corroborated")

	flags.Bool("lead-push", def.LeadPush, "Push records with an email to the lead API (needs LEADPUSH_TOKEN)")
	flags.String("lead-push-url", def.LeadPushURL, "Lead API endpoint")
	flags.String("lead-push-campaign", def.LeadPushCampaign, "Lead API campaign id (or LEADPUSH_CAMPAIGN)")
	flags.Float64("lead-push-rate", def.LeadPushRate, "Lead API requests per second")

	flags.Bool("debug", false, "Turn on debug mode")
	flags.BoolP("verbose", "v", false, "Turn on verbose")
	flags.BoolP("quiet", "q", false, "Suppress all logging")
	flags.Bool("version", false, "Check version")

	flags.SortFlags = false
}
