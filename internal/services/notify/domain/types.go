// Package domain holds the saved-search notification types and ports
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SavedSearch is a user's stored search text
type SavedSearch struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	SearchText string
	Enabled    bool
	CreatedAt  time.Time
}

// SearchWithUser is one enabled search joined to its notifiable owner
type SearchWithUser struct {
	SearchID   uuid.UUID
	SearchText string
	UserID     uuid.UUID
	UserEmail  string
	UserName   string
}

// NotificationEntry is a dispatched-digest log row, kept only for the
// sliding-window rate limit
type NotificationEntry struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	SentAt          time.Time
	MatchCount      int
	SearchesMatched int
}
