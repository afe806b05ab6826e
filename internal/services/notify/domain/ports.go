package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	listdom "causelist/internal/services/listings/domain"
)

// StorageRepo is the store surface the matcher needs
type StorageRepo interface {
	// EnabledSearches returns enabled searches joined to users that are
	// active, not soft-deleted, and have email notifications on
	EnabledSearches(ctx context.Context) ([]SearchWithUser, error)

	// MatchHearings runs one search over the given list dates: database
	// text match over the descriptive fields or a case-number substring.
	// Ordered list_date asc, hearing_datetime asc, capped at 100.
	MatchHearings(ctx context.Context, searchText string, dates []time.Time) ([]listdom.Hearing, error)

	// NotificationCountSince counts a user's dispatched digests after the cutoff
	NotificationCountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// InsertNotification appends a dispatch log row
	InsertNotification(ctx context.Context, e NotificationEntry) error
}
