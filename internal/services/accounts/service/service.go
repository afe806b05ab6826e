// Package service provides the accounts service implementation
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"causelist/internal/modkit/repokit"
	"causelist/internal/platform/errors"
	"causelist/internal/services/accounts/domain"
)

// Config for the accounts service
type Config struct {
	// Saved search text bounds and per-user cap
	SearchMinLen     int
	SearchMaxLen     int
	SearchMaxPerUser int

	// ResetTokenTTL bounds how long a password reset stays valid
	ResetTokenTTL time.Duration
}

// Service implements account management
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.Repo]
	Cfg    Config

	now func() time.Time
}

// New constructs the accounts service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], cfg Config) *Service {
	if db == nil {
		panic("accounts.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("accounts.Service requires a non nil Repo binder")
	}
	if cfg.SearchMinLen <= 0 {
		cfg.SearchMinLen = 3
	}
	if cfg.SearchMaxLen <= 0 {
		cfg.SearchMaxLen = 100
	}
	if cfg.SearchMaxPerUser <= 0 {
		cfg.SearchMaxPerUser = 10
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	return &Service{DB: db, Binder: binder, Cfg: cfg, now: time.Now}
}

// Register creates a new pending account
func (s *Service) Register(ctx context.Context, email, displayName, password string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, errors.InvalidArgf("a valid email is required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return domain.User{}, errors.InvalidArgf("display name is required")
	}
	if len(password) < 8 {
		return domain.User{}, errors.InvalidArgf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, errors.Wrap(err, errors.ErrorCodeUnknown, "hash password")
	}

	var u domain.User
	err = s.DB.Tx(ctx, func(q repokit.Queryer) error {
		u, err = s.Binder.Bind(q).CreateUser(ctx, domain.NewUser{
			Email:        email,
			DisplayName:  displayName,
			PasswordHash: string(hash),
		}, s.now().UTC())
		return err
	})
	return u, err
}

// Approve moves a pending account to active
func (s *Service) Approve(ctx context.Context, id uuid.UUID, changedBy, reason string) (domain.User, error) {
	return s.transition(ctx, id, domain.StatusActive, changedBy, reason, domain.StatusPending, domain.StatusDeactivated)
}

// Deactivate disables an active account
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, changedBy, reason string) (domain.User, error) {
	return s.transition(ctx, id, domain.StatusDeactivated, changedBy, reason, domain.StatusActive, domain.StatusPending)
}

// transition changes status through the audit path; allowed names the
// acceptable current statuses
func (s *Service) transition(ctx context.Context, id uuid.UUID, to, changedBy, reason string, allowed ...string) (domain.User, error) {
	if changedBy == "" {
		changedBy = "system"
	}
	var u domain.User
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		cur, err := r.UserByID(ctx, id)
		if err != nil {
			return err
		}
		if cur.Deleted() {
			return errors.NotFoundf("user %s not found", id)
		}
		ok := false
		for _, a := range allowed {
			if cur.Status == a {
				ok = true
				break
			}
		}
		if !ok {
			return errors.Conflictf("cannot move user from %s to %s", cur.Status, to)
		}
		if err := r.ChangeStatus(ctx, id, to, changedBy, reason, s.now().UTC()); err != nil {
			return err
		}
		u, err = r.UserByID(ctx, id)
		return err
	})
	return u, err
}

// Delete soft-deletes an account; the row stays for the audit trail
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).SoftDeleteUser(ctx, id, s.now().UTC())
	})
}

// UserByID loads one account
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.Binder.Bind(s.DB).UserByID(ctx, id)
}

// UserByEmail loads one account by email
func (s *Service) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.Binder.Bind(s.DB).UserByEmail(ctx, email)
}

// ListUsers returns accounts, optionally including soft-deleted ones
func (s *Service) ListUsers(ctx context.Context, includeDeleted bool) ([]domain.User, error) {
	return s.Binder.Bind(s.DB).ListUsers(ctx, includeDeleted)
}

// StatusHistory returns the audit trail for one account, oldest first
func (s *Service) StatusHistory(ctx context.Context, id uuid.UUID) ([]domain.StatusChange, error) {
	return s.Binder.Bind(s.DB).StatusHistory(ctx, id)
}

// AssignRole grants a role to a user
func (s *Service) AssignRole(ctx context.Context, id uuid.UUID, role string) error {
	return s.Binder.Bind(s.DB).AssignRole(ctx, id, role)
}

// UserRoles lists a user's role names
func (s *Service) UserRoles(ctx context.Context, id uuid.UUID) ([]string, error) {
	return s.Binder.Bind(s.DB).UserRoles(ctx, id)
}

// VerifyPassword checks credentials for an active, non-deleted account
func (s *Service) VerifyPassword(ctx context.Context, email, password string) (domain.User, error) {
	r := s.Binder.Bind(s.DB)
	u, err := r.UserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, errors.Unauthorizedf("invalid credentials")
	}
	if u.Deleted() || u.Status != domain.StatusActive {
		return domain.User{}, errors.Unauthorizedf("invalid credentials")
	}
	hash, err := r.PasswordHash(ctx, u.ID)
	if err != nil {
		return domain.User{}, errors.Unauthorizedf("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return domain.User{}, errors.Unauthorizedf("invalid credentials")
	}
	return u, nil
}

// CreatePasswordReset mints a reset token for the account behind email.
// The raw token is returned once; only its hash is stored
func (s *Service) CreatePasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.Binder.Bind(s.DB).UserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u.Deleted() {
		return "", errors.NotFoundf("user %s not found", email)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, errors.ErrorCodeUnknown, "generate reset token")
	}
	token := hex.EncodeToString(raw)

	expires := s.now().UTC().Add(s.Cfg.ResetTokenTTL)
	if _, err := s.Binder.Bind(s.DB).CreateResetToken(ctx, u.ID, hashToken(token), expires); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumePasswordReset redeems a reset token and sets the new password
func (s *Service) ConsumePasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.InvalidArgf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, errors.ErrorCodeUnknown, "hash password")
	}
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		userID, err := r.ConsumeResetToken(ctx, hashToken(token), s.now().UTC())
		if err != nil {
			return err
		}
		return r.SetPasswordHash(ctx, userID, string(hash))
	})
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateSavedSearch validates and stores a new saved search
func (s *Service) CreateSavedSearch(ctx context.Context, userID uuid.UUID, text string) (domain.SavedSearch, error) {
	text, err := s.validSearchText(text)
	if err != nil {
		return domain.SavedSearch{}, err
	}

	var ss domain.SavedSearch
	err = s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		n, err := r.CountSavedSearches(ctx, userID)
		if err != nil {
			return err
		}
		if n >= s.Cfg.SearchMaxPerUser {
			return errors.Conflictf("saved search limit of %d reached", s.Cfg.SearchMaxPerUser)
		}
		ss, err = r.CreateSavedSearch(ctx, userID, text)
		return err
	})
	return ss, err
}

// SavedSearches lists a user's saved searches, oldest first
func (s *Service) SavedSearches(ctx context.Context, userID uuid.UUID) ([]domain.SavedSearch, error) {
	return s.Binder.Bind(s.DB).SavedSearches(ctx, userID)
}

// UpdateSavedSearch edits a saved search owned by userID
func (s *Service) UpdateSavedSearch(ctx context.Context, id, userID uuid.UUID, text string, enabled bool) (domain.SavedSearch, error) {
	text, err := s.validSearchText(text)
	if err != nil {
		return domain.SavedSearch{}, err
	}
	return s.Binder.Bind(s.DB).UpdateSavedSearch(ctx, id, userID, text, enabled)
}

// DeleteSavedSearch removes a saved search owned by userID
func (s *Service) DeleteSavedSearch(ctx context.Context, id, userID uuid.UUID) error {
	return s.Binder.Bind(s.DB).DeleteSavedSearch(ctx, id, userID)
}

func (s *Service) validSearchText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) < s.Cfg.SearchMinLen {
		return "", errors.InvalidArgf("search text must be at least %d characters", s.Cfg.SearchMinLen)
	}
	if len(text) > s.Cfg.SearchMaxLen {
		return "", errors.InvalidArgf("search text must be at most %d characters", s.Cfg.SearchMaxLen)
	}
	return text, nil
}
