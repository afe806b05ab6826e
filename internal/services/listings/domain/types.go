// Package domain holds the core types and ports for the listings pipeline
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Divisions of the Court of Appeal
const (
	DivisionCriminal = "Criminal"
	DivisionCivil    = "Civil"
)

// Run kinds
const (
	RunKindScheduled = "scheduled"
	RunKindStartup   = "startup"
	RunKindManual    = "manual"
)

// Run statuses
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// DateFormat is the canonical calendar-date form for list_date
const DateFormat = "2006-01-02"

// Key is the identity of a hearing. Two rows sharing a Key are the same
// hearing, possibly updated.
type Key struct {
	ListDate   string // DateFormat
	CaseNumber string
	Time       string
}

// Hearing is the canonical row shape shared by the parser, sync engine, and
// store. Venue and Judge are pointers because an inheritable column with no
// prior value is genuinely absent, not empty.
type Hearing struct {
	ID                    uuid.UUID
	ListDate              time.Time // calendar date, midnight Europe/London
	CaseNumber            string
	Time                  string // as published, e.g. "10:30am", "2pm"
	HearingDatetime       time.Time
	Venue                 *string
	Judge                 *string
	CaseDetails           string
	HearingType           string
	AdditionalInformation string
	Division              string
	SourceURL             string
	ScrapedAt             time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Key derives the identity key
func (h Hearing) Key() Key {
	return Key{
		ListDate:   h.ListDate.Format(DateFormat),
		CaseNumber: h.CaseNumber,
		Time:       h.Time,
	}
}

// DiscoveredLink is one cause-list page found on the summary page
type DiscoveredLink struct {
	URL        string
	LinkText   string
	TargetDate time.Time // calendar date, midnight Europe/London
	Division   string
}

// RunStats accumulates per-run counters persisted on scrape_runs
type RunStats struct {
	LinksDiscovered   int
	LinksProcessed    int
	RecordsAdded      int
	RecordsUpdated    int
	RecordsDeleted    int
	SummaryPageStatus int
}

// SyncResult is the outcome of reconciling one list_date
type SyncResult struct {
	ListDate  time.Time
	Added     int
	Updated   int
	Deleted   int
	Duplicate int
	Err       error
}

// RunReport is what a full pipeline run produced
type RunReport struct {
	RunID   uuid.UUID
	Status  string
	Stats   RunStats
	Results []SyncResult
}

// ScrapeRun is a persisted run history row
type ScrapeRun struct {
	ID          uuid.UUID
	Kind        string
	Status      string
	SummaryURL  string
	StartedAt   time.Time
	CompletedAt *time.Time
	DurationMS  *int
	RunStats
	ErrorMessage *string
	ErrorDetails *string
}
