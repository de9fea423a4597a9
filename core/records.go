package core

import (
	"strconv"

	"github.com/leadspider/leadspider/core/listing"
	"github.com/leadspider/leadspider/core/product"
)

// OutputRecord is one entity joined with one of its contacts (or with no
// contact at all) and the entity's site-level contact bundle.
type OutputRecord struct {
	ProductName      string `json:"product_name"`
	ProductURL       string `json:"product_url"`
	ProductWebsite   string `json:"product_website"`
	MakerName        string `json:"maker_name"`
	MakerProfileURL  string `json:"maker_profile_url"`
	MakerEmail       string `json:"maker_email"`
	MakerTwitter     string `json:"maker_twitter"`
	MakerLinkedIn    string `json:"maker_linkedin"`
	IsConfirmedMaker bool   `json:"is_confirmed_maker"`
	SiteEmail        string `json:"site_email"`
	SiteTwitter      string `json:"site_twitter"`
	SiteLinkedIn     string `json:"site_linkedin"`
	ContactPageURL   string `json:"contact_page_url"`
	ExtractedDate    string `json:"extracted_date"`
	RunID            string `json:"run_id"`
}

// RecordColumns are the column names of OutputRecord.Row, in order.
var RecordColumns = []string{
	"product_name", "product_url", "product_website",
	"maker_name", "maker_profile_url", "maker_email", "maker_twitter", "maker_linkedin", "is_confirmed_maker",
	"site_email", "site_twitter", "site_linkedin", "contact_page_url",
	"extracted_date", "run_id",
}

// Row flattens the record for tabular sinks.
func (r OutputRecord) Row() []string {
	return []string{
		r.ProductName, r.ProductURL, r.ProductWebsite,
		r.MakerName, r.MakerProfileURL, r.MakerEmail, r.MakerTwitter, r.MakerLinkedIn, strconv.FormatBool(r.IsConfirmedMaker),
		r.SiteEmail, r.SiteTwitter, r.SiteLinkedIn, r.ContactPageURL,
		r.ExtractedDate, r.RunID,
	}
}

// Key identifies a record for deduplication: one row per entity and maker.
func (r OutputRecord) Key() string {
	return r.ProductURL + "|" + r.MakerProfileURL
}

// HasContact reports whether any email or social field is set.
func (r OutputRecord) HasContact() bool {
	return r.MakerEmail != "" || r.MakerTwitter != "" || r.MakerLinkedIn != "" ||
		r.SiteEmail != "" || r.SiteTwitter != "" || r.SiteLinkedIn != ""
}

// BuildRecords flattens one resolved entity. Contacts keep their resolved
// order; an entity without contacts yields exactly one record.
func BuildRecords(entity listing.Entity, details product.Details, date, runID string) []OutputRecord {
	name := entity.Name
	if name == "" {
		name = entity.SourceURL
	}
	base := OutputRecord{
		ProductName:    name,
		ProductURL:     entity.SourceURL,
		ProductWebsite: details.CanonicalWebsite,
		SiteEmail:      details.Site.Email,
		SiteTwitter:    details.Site.Twitter,
		SiteLinkedIn:   details.Site.LinkedIn,
		ContactPageURL: details.Site.ContactPageURL,
		ExtractedDate:  date,
		RunID:          runID,
	}
	if len(details.Contacts) == 0 {
		return []OutputRecord{base}
	}
	records := make([]OutputRecord, 0, len(details.Contacts))
	for _, c := range details.Contacts {
		rec := base
		rec.MakerName = c.Name
		rec.MakerProfileURL = c.ProfileURL
		rec.MakerEmail = c.Email
		rec.MakerTwitter = c.Twitter
		rec.MakerLinkedIn = c.LinkedIn
		rec.IsConfirmedMaker = c.IsConfirmedMaker
		records = append(records, rec)
	}
	return records
}
