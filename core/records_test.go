package core

import (
	"bytes"
	"testing"
	"time"

	"github.com/leadspider/leadspider/core/contact"
	"github.com/leadspider/leadspider/core/listing"
	"github.com/leadspider/leadspider/core/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRecordsZeroContactsYieldsPlaceholder(t *testing.T) {
	entity := listing.Entity{Name: "Acme", SourceURL: "https://hunt.example/products/acme"}
	details := product.Details{
		CanonicalWebsite: "https://acme.io",
		Site:             contact.Bundle{Email: "hello@acme.io", ContactPageURL: "https://acme.io/contact"},
	}

	records := BuildRecords(entity, details, "2026-10-18", "run")
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "Acme", rec.ProductName)
	assert.Equal(t, "https://acme.io", rec.ProductWebsite)
	assert.Equal(t, "hello@acme.io", rec.SiteEmail)
	assert.Equal(t, "https://acme.io/contact", rec.ContactPageURL)
	assert.Empty(t, rec.MakerName)
	assert.Empty(t, rec.MakerEmail)
	assert.False(t, rec.IsConfirmedMaker)
}

func TestBuildRecordsKeepsContactOrder(t *testing.T) {
	entity := listing.Entity{Name: "Acme", SourceURL: "https://hunt.example/products/acme"}
	details := product.Details{
		CanonicalWebsite: "https://acme.io",
		Contacts: []product.Contact{
			{Name: "Jane", ProfileURL: "https://hunt.example/@jane", IsConfirmedMaker: true},
			{Name: "Bob", ProfileURL: "https://hunt.example/@bob"},
		},
	}

	records := BuildRecords(entity, details, "2026-10-18", "run")
	require.Len(t, records, 2)
	assert.Equal(t, "Jane", records[0].MakerName)
	assert.Equal(t, "Bob", records[1].MakerName)
	assert.Equal(t, records[0].ProductWebsite, records[1].ProductWebsite)
	assert.NotEqual(t, records[0].Key(), records[1].Key())
}

func TestBuildRecordsFallsBackToURLForName(t *testing.T) {
	records := BuildRecords(listing.Entity{SourceURL: "https://hunt.example/products/x"}, product.Details{}, "d", "r")
	require.Len(t, records, 1)
	assert.Equal(t, "https://hunt.example/products/x", records[0].ProductName)
}

func TestRowMatchesColumns(t *testing.T) {
	row := OutputRecord{ProductName: "Acme", IsConfirmedMaker: true}.Row()
	require.Len(t, row, len(RecordColumns))
	assert.Equal(t, "Acme", row[0])
	assert.Equal(t, "true", row[8])
}

func TestWriteSummaryGroupsByProduct(t *testing.T) {
	stats := NewRunStats()
	stats.IncrementPasses()
	records := []OutputRecord{
		{ProductName: "Acme", ProductURL: "a", MakerProfileURL: "j", IsConfirmedMaker: true, MakerEmail: "j@acme.io", SiteEmail: "hello@acme.io"},
		{ProductName: "Acme", ProductURL: "a", MakerProfileURL: "b", SiteEmail: "hello@acme.io"},
		{ProductName: "Lonely", ProductURL: "l"},
	}
	rows := summarize(records)
	require.Len(t, rows, 2)
	assert.Equal(t, productRow{name: "Acme", makers: 2, confirmed: 1, emails: 2}, rows[0])
	assert.Equal(t, productRow{name: "Lonely"}, rows[1])

	var buf bytes.Buffer
	WriteSummary(&buf, stats, time.Minute, records)
	assert.Contains(t, buf.String(), "Lonely")
}

func TestRunStatsRate(t *testing.T) {
	stats := NewRunStats()
	stats.IncrementProcessed()
	stats.IncrementProcessed()
	assert.InDelta(t, 1.0, stats.GetRate(2*time.Minute), 0.001)
	assert.Zero(t, stats.GetRate(0))
}
