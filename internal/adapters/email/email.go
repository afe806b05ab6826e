// Package email is the outbound mail sink for scrape error reports and
// saved-search digests. Delivery failures are the caller's to swallow; this
// package only reports them.
package email

import "context"

// Report kinds for DataError
const (
	KindLinkDiscovery = "link-discovery"
	KindTableParsing  = "table-parsing"
)

// DataErrorReport describes a pipeline failure worth an operator email
type DataErrorReport struct {
	Kind       string // KindLinkDiscovery or KindTableParsing
	Err        error
	Date       string // list date affected, when known
	URL        string
	HTMLSample string // truncated to 2KB by the caller
	Context    string
}

// DigestMatch is one hearing row inside a digest section
type DigestMatch struct {
	CaseName      string
	DateFormatted string
	Time          string
	Venue         string
	HearingType   string
	Judge         string
}

// DigestSearch is one saved search and its current matches
type DigestSearch struct {
	Text    string
	Matches []DigestMatch
}

// Digest is a per-user saved-search notification email
type Digest struct {
	UserEmail string
	UserName  string
	Searches  []DigestSearch
	BaseURL   string
}

// Port is the sink contract the pipeline and matcher dispatch through
type Port interface {
	DataError(ctx context.Context, r DataErrorReport) error
	SavedSearchDigest(ctx context.Context, d Digest) error
}
