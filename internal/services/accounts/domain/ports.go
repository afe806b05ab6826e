package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewUser carries the fields needed to create an account
type NewUser struct {
	Email        string
	DisplayName  string
	PasswordHash string
}

// Repo abstracts account persistence
type Repo interface {
	CreateUser(ctx context.Context, nu NewUser, at time.Time) (User, error)
	UserByID(ctx context.Context, id uuid.UUID) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	PasswordHash(ctx context.Context, id uuid.UUID) (string, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	ListUsers(ctx context.Context, includeDeleted bool) ([]User, error)

	// ChangeStatus flips users.status_id and appends the history row in one call.
	// Callers run it inside a transaction.
	ChangeStatus(ctx context.Context, id uuid.UUID, status, changedBy, reason string, at time.Time) error
	StatusHistory(ctx context.Context, id uuid.UUID) ([]StatusChange, error)
	SoftDeleteUser(ctx context.Context, id uuid.UUID, at time.Time) error

	AssignRole(ctx context.Context, userID uuid.UUID, role string) error
	UserRoles(ctx context.Context, userID uuid.UUID) ([]string, error)

	CreateResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (ResetToken, error)
	// ConsumeResetToken marks the token used and returns its owner.
	// Expired, unknown, and already-used tokens all fail.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (uuid.UUID, error)

	CreateSavedSearch(ctx context.Context, userID uuid.UUID, text string) (SavedSearch, error)
	SavedSearches(ctx context.Context, userID uuid.UUID) ([]SavedSearch, error)
	CountSavedSearches(ctx context.Context, userID uuid.UUID) (int, error)
	UpdateSavedSearch(ctx context.Context, id, userID uuid.UUID, text string, enabled bool) (SavedSearch, error)
	DeleteSavedSearch(ctx context.Context, id, userID uuid.UUID) error
}
