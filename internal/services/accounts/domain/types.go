// Package domain defines the core types and interfaces for the accounts service
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account statuses; every user carries exactly one
const (
	StatusPending     = "pending"
	StatusActive      = "active"
	StatusDeactivated = "deactivated"
)

// User is one registered account
type User struct {
	ID                        uuid.UUID  `json:"id"`
	Email                     string     `json:"email"`
	DisplayName               string     `json:"display_name"`
	Status                    string     `json:"status"`
	EmailNotificationsEnabled bool       `json:"email_notifications_enabled"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
	DeletedAt                 *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the soft-delete sentinel is set
func (u User) Deleted() bool { return u.DeletedAt != nil }

// StatusChange is one append-only history row
type StatusChange struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Reason    string    `json:"reason"`
	ChangedAt time.Time `json:"changed_at"`
}

// SavedSearch is one saved search owned by a user
type SavedSearch struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	SearchText string    `json:"search_text"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ResetToken is a pending password reset; only the hash is stored
type ResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
