package core

import "time"

const (
	CLIName = "leadspider"
	AUTHOR  = "leadspider contributors"
	VERSION = "v0.3.0"
)

const (
	DefaultListingURL    = "https://www.producthunt.com/"
	DefaultOutputFile    = "leads.jsonl"
	DefaultMaxPasses     = 3
	DefaultRetryCooldown = 5 * time.Minute
	DefaultStatsInterval = 30 * time.Second

	// DateLayout formats the run-scoped extraction date.
	DateLayout = "2006-01-02"
)
