package core

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteSummary renders the end-of-run counters and one row per entity.
func WriteSummary(w io.Writer, stats *RunStats, elapsed time.Duration, records []OutputRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Run summary")
	t.AppendHeader(table.Row{"Passes", "Found", "Processed", "Skipped", "Errors", "Records", "Websites", "With email", "Per min", "Elapsed"})
	t.AppendRow(table.Row{
		stats.GetPasses(),
		stats.GetEntitiesFound(),
		stats.GetProcessed(),
		stats.GetSkipped(),
		stats.GetErrors(),
		stats.GetRecords(),
		stats.GetWebsites(),
		stats.GetEmails(),
		fmt.Sprintf("%.2f", stats.GetRate(elapsed)),
		elapsed.Round(time.Second).String(),
	})
	t.Render()

	if len(records) == 0 {
		return
	}

	p := table.NewWriter()
	p.SetOutputMirror(w)
	p.SetStyle(table.StyleRounded)
	p.AppendHeader(table.Row{"Product", "Website", "Makers", "Confirmed", "Emails"})
	for _, row := range summarize(records) {
		p.AppendRow(table.Row{row.name, row.website, row.makers, row.confirmed, row.emails})
	}
	p.Render()
}

type productRow struct {
	name      string
	website   string
	makers    int
	confirmed int
	emails    int
}

// summarize groups records by product, keeping first-seen order.
func summarize(records []OutputRecord) []productRow {
	index := make(map[string]int)
	var rows []productRow
	for _, r := range records {
		i, ok := index[r.ProductURL]
		if !ok {
			i = len(rows)
			index[r.ProductURL] = i
			rows = append(rows, productRow{name: r.ProductName, website: r.ProductWebsite})
			if r.SiteEmail != "" {
				rows[i].emails++
			}
		}
		if r.MakerProfileURL != "" {
			rows[i].makers++
			if r.IsConfirmedMaker {
				rows[i].confirmed++
			}
		}
		if r.MakerEmail != "" {
			rows[i].emails++
		}
	}
	return rows
}
