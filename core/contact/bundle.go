// Package contact recovers emails, social handles and contact pages from
// person profiles and product websites.
package contact

import (
	"fmt"

	"github.com/leadspider/leadspider/core/browser"
	"github.com/leadspider/leadspider/internal/cascade"
)

// Bundle is the contact information found for a site. Empty fields mean
// nothing was found.
type Bundle struct {
	Email          string `json:"email"`
	Twitter        string `json:"twitter"`
	LinkedIn       string `json:"linkedin"`
	ContactPageURL string `json:"contact_page_url"`
}

// Empty reports whether no field is set.
func (b Bundle) Empty() bool {
	return b.Email == "" && b.Twitter == "" && b.LinkedIn == "" && b.ContactPageURL == ""
}

// HasContact reports whether an email or social handle is set.
func (b Bundle) HasContact() bool {
	return b.Email != "" || b.Twitter != "" || b.LinkedIn != ""
}

// Merge combines bundles field by field; earlier bundles win.
func Merge(bundles ...Bundle) Bundle {
	var out Bundle
	for _, b := range bundles {
		out.Email = cascade.FirstNonEmpty(out.Email, b.Email)
		out.Twitter = cascade.FirstNonEmpty(out.Twitter, b.Twitter)
		out.LinkedIn = cascade.FirstNonEmpty(out.LinkedIn, b.LinkedIn)
		out.ContactPageURL = cascade.FirstNonEmpty(out.ContactPageURL, b.ContactPageURL)
	}
	return out
}

// ProfileContact is what a person's profile page yields.
type ProfileContact struct {
	Email    string
	Twitter  string
	LinkedIn string
}

// WebsiteContacts is the result of website mode.
type WebsiteContacts struct {
	Bundle Bundle
	// CanonicalURL is the refined site URL, empty when nothing better was found.
	CanonicalURL string
	// Rejected is set when the site resolved to a generic hosting domain
	// without corroboration.
	Rejected bool
	// Failure classifies a hard navigation failure. Diagnostics only.
	Failure browser.ErrorKind
	// Static is set when the bundle came from the static fallback fetch.
	Static bool
}

// ExtractionError wraps a failure inside one heuristic step.
type ExtractionError struct {
	Step string
	URL  string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s on %s: %v", e.Step, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
