package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Fetcher retrieves an HTML document. Retry and status classification live
// behind this seam.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PipelinePort runs the ingestion pipeline once, end to end
type PipelinePort interface {
	RunOnce(ctx context.Context, kind string) (*RunReport, error)
}

// Notifier is invoked after a run with at least one successful sync
type Notifier interface {
	MatchAndDispatch(ctx context.Context, now time.Time) error
}

// StorageRepo is the typed store surface the pipeline uses. A binder yields
// one per queryer so sync work stays inside a single transaction.
type StorageRepo interface {
	// Hearings scoped by list_date
	HearingsByListDate(ctx context.Context, listDate time.Time) ([]Hearing, error)
	InsertHearings(ctx context.Context, rows []Hearing) error
	UpdateHearing(ctx context.Context, id uuid.UUID, row Hearing) error
	DeleteHearings(ctx context.Context, ids []uuid.UUID) error

	// Scrape history
	StartRun(ctx context.Context, kind, summaryURL string, startedAt time.Time) (uuid.UUID, error)
	CompleteRun(ctx context.Context, id uuid.UUID, stats RunStats, completedAt time.Time) error
	FailRun(ctx context.Context, id uuid.UUID, stats RunStats, completedAt time.Time, message, details string) error
	LastSuccessfulStartedAt(ctx context.Context) (*time.Time, error)
	ListRuns(ctx context.Context, limit int) ([]ScrapeRun, error)
}
