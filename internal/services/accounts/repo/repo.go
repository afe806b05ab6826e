// Package repo provides Postgres bindings for the accounts domain
package repo

import (
	"context"
	stdsql "database/sql"
	stderrs "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"causelist/internal/modkit/repokit"
	"causelist/internal/platform/errors"
	"causelist/internal/services/accounts/domain"
)

func isNoRows(err error) bool {
	return stderrs.Is(err, pgx.ErrNoRows) || stderrs.Is(err, stdsql.ErrNoRows)
}

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// Compile-time assertion: pg implements domain.Repo
var _ domain.Repo = (*pg)(nil)

// NewPG returns a Postgres binder for the accounts repo
func NewPG() repokit.Binder[domain.Repo] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.Repo { return &pg{q: q} }

const userCols = `u.id, u.email, u.display_name, st.name, u.email_notifications_enabled,
	u.created_at, u.updated_at, u.deleted_at`

const userFrom = `FROM users u JOIN account_statuses st ON st.id = u.status_id`

func scanUser(row repokit.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.Status, &u.EmailNotificationsEnabled,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	return u, err
}

// CreateUser implements domain.Repo; new accounts start pending
func (s *pg) CreateUser(ctx context.Context, nu domain.NewUser, at time.Time) (domain.User, error) {
	id := uuid.New()
	if _, err := s.q.Exec(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, status_id,
			email_notifications_enabled, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4,
			(SELECT id FROM account_statuses WHERE name = $5), TRUE, $6, $6)`,
		id, nu.Email, nu.DisplayName, nu.PasswordHash, domain.StatusPending, at,
	); err != nil {
		if errors.IsDuplicateKey(err) {
			return domain.User{}, errors.DuplicateKeyf("email %s already registered", nu.Email)
		}
		return domain.User{}, errors.FromPostgres(err, "create user")
	}
	if _, err := s.q.Exec(ctx, `
		INSERT INTO user_status_history (id, user_id, status_id, changed_by, reason, changed_at)
		VALUES ($1, $2, (SELECT id FROM account_statuses WHERE name = $3), 'system', 'registered', $4)`,
		uuid.New(), id, domain.StatusPending, at,
	); err != nil {
		return domain.User{}, errors.FromPostgres(err, "record initial status")
	}
	return s.UserByID(ctx, id)
}

// UserByID implements domain.Repo
func (s *pg) UserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, `SELECT `+userCols+` `+userFrom+` WHERE u.id = $1`, id))
	if err != nil {
		return domain.User{}, userErr(err, id.String())
	}
	return u, nil
}

// UserByEmail implements domain.Repo
func (s *pg) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, `SELECT `+userCols+` `+userFrom+` WHERE u.email = lower($1)`, email))
	if err != nil {
		return domain.User{}, userErr(err, email)
	}
	return u, nil
}

func userErr(err error, who string) error {
	if isNoRows(err) {
		return errors.NotFoundf("user %s not found", who)
	}
	return errors.FromPostgres(err, "load user")
}

// PasswordHash implements domain.Repo
func (s *pg) PasswordHash(ctx context.Context, id uuid.UUID) (string, error) {
	var hash string
	if err := s.q.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash); err != nil {
		return "", userErr(err, id.String())
	}
	return hash, nil
}

// SetPasswordHash implements domain.Repo
func (s *pg) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := s.q.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return errors.FromPostgres(err, "set password hash")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFoundf("user %s not found", id)
	}
	return nil
}

// ListUsers implements domain.Repo
func (s *pg) ListUsers(ctx context.Context, includeDeleted bool) ([]domain.User, error) {
	sql := `SELECT ` + userCols + ` ` + userFrom
	if !includeDeleted {
		sql += ` WHERE u.deleted_at IS NULL`
	}
	sql += ` ORDER BY u.created_at ASC`

	rows, err := s.q.Query(ctx, sql)
	if err != nil {
		return nil, errors.FromPostgres(err, "list users")
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.FromPostgres(err, "scan user")
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ChangeStatus implements domain.Repo; the history append and the status flip
// travel together so the audit trail can never drift from the user row
func (s *pg) ChangeStatus(ctx context.Context, id uuid.UUID, status, changedBy, reason string, at time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE users
		SET status_id = (SELECT id FROM account_statuses WHERE name = $2), updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL`,
		id, status, at,
	)
	if err != nil {
		return errors.FromPostgres(err, "change status")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFoundf("user %s not found", id)
	}
	if _, err := s.q.Exec(ctx, `
		INSERT INTO user_status_history (id, user_id, status_id, changed_by, reason, changed_at)
		VALUES ($1, $2, (SELECT id FROM account_statuses WHERE name = $3), $4, $5, $6)`,
		uuid.New(), id, status, changedBy, reason, at,
	); err != nil {
		return errors.FromPostgres(err, "record status change")
	}
	return nil
}

// StatusHistory implements domain.Repo; oldest first
func (s *pg) StatusHistory(ctx context.Context, id uuid.UUID) ([]domain.StatusChange, error) {
	rows, err := s.q.Query(ctx, `
		SELECT h.id, h.user_id, st.name, h.changed_by, h.reason, h.changed_at
		FROM user_status_history h
		JOIN account_statuses st ON st.id = h.status_id
		WHERE h.user_id = $1
		ORDER BY h.changed_at ASC, h.id ASC`,
		id,
	)
	if err != nil {
		return nil, errors.FromPostgres(err, "load status history")
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var c domain.StatusChange
		if err := rows.Scan(&c.ID, &c.UserID, &c.Status, &c.ChangedBy, &c.Reason, &c.ChangedAt); err != nil {
			return nil, errors.FromPostgres(err, "scan status change")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SoftDeleteUser implements domain.Repo
func (s *pg) SoftDeleteUser(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, at,
	)
	if err != nil {
		return errors.FromPostgres(err, "soft delete user")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFoundf("user %s not found", id)
	}
	return nil
}

// AssignRole implements domain.Repo; assigning twice is a no-op
func (s *pg) AssignRole(ctx context.Context, userID uuid.UUID, role string) error {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, r.id FROM roles r WHERE r.name = $2
		ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID, role,
	)
	if err != nil {
		return errors.FromPostgres(err, "assign role")
	}
	if tag.RowsAffected() == 0 {
		// either the role name is unknown or the grant already exists;
		// only the former is an error
		var n int
		if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE name = $1`, role).Scan(&n); err != nil {
			return errors.FromPostgres(err, "assign role")
		}
		if n == 0 {
			return errors.NotFoundf("role %s not found", role)
		}
	}
	return nil
}

// UserRoles implements domain.Repo
func (s *pg) UserRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.q.Query(ctx, `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name ASC`,
		userID,
	)
	if err != nil {
		return nil, errors.FromPostgres(err, "load user roles")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.FromPostgres(err, "scan role")
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// CreateResetToken implements domain.Repo
func (s *pg) CreateResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (domain.ResetToken, error) {
	t := domain.ResetToken{ID: uuid.New(), UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	if err := s.q.QueryRow(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt,
	).Scan(&t.CreatedAt); err != nil {
		return domain.ResetToken{}, errors.FromPostgres(err, "create reset token")
	}
	return t, nil
}

// ConsumeResetToken implements domain.Repo; single use, enforced by used_at IS NULL
func (s *pg) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.q.QueryRow(ctx, `
		UPDATE password_reset_tokens
		SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING user_id`,
		tokenHash, now,
	).Scan(&userID)
	if err != nil {
		if isNoRows(err) {
			return uuid.Nil, errors.InvalidArgf("reset token is invalid or expired")
		}
		return uuid.Nil, errors.FromPostgres(err, "consume reset token")
	}
	return userID, nil
}

// CreateSavedSearch implements domain.Repo
func (s *pg) CreateSavedSearch(ctx context.Context, userID uuid.UUID, text string) (domain.SavedSearch, error) {
	ss := domain.SavedSearch{ID: uuid.New(), UserID: userID, SearchText: text, Enabled: true}
	if err := s.q.QueryRow(ctx, `
		INSERT INTO saved_searches (id, user_id, search_text, enabled)
		VALUES ($1, $2, $3, TRUE)
		RETURNING created_at, updated_at`,
		ss.ID, ss.UserID, ss.SearchText,
	).Scan(&ss.CreatedAt, &ss.UpdatedAt); err != nil {
		return domain.SavedSearch{}, errors.FromPostgres(err, "create saved search")
	}
	return ss, nil
}

// SavedSearches implements domain.Repo; oldest first
func (s *pg) SavedSearches(ctx context.Context, userID uuid.UUID) ([]domain.SavedSearch, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, search_text, enabled, created_at, updated_at
		FROM saved_searches
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, errors.FromPostgres(err, "list saved searches")
	}
	defer rows.Close()

	var out []domain.SavedSearch
	for rows.Next() {
		var ss domain.SavedSearch
		if err := rows.Scan(&ss.ID, &ss.UserID, &ss.SearchText, &ss.Enabled, &ss.CreatedAt, &ss.UpdatedAt); err != nil {
			return nil, errors.FromPostgres(err, "scan saved search")
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// CountSavedSearches implements domain.Repo
func (s *pg) CountSavedSearches(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM saved_searches WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, errors.FromPostgres(err, "count saved searches")
	}
	return n, nil
}

// UpdateSavedSearch implements domain.Repo; scoped to the owner
func (s *pg) UpdateSavedSearch(ctx context.Context, id, userID uuid.UUID, text string, enabled bool) (domain.SavedSearch, error) {
	ss := domain.SavedSearch{ID: id, UserID: userID, SearchText: text, Enabled: enabled}
	err := s.q.QueryRow(ctx, `
		UPDATE saved_searches
		SET search_text = $3, enabled = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at`,
		id, userID, text, enabled,
	).Scan(&ss.CreatedAt, &ss.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.SavedSearch{}, errors.NotFoundf("saved search %s not found", id)
		}
		return domain.SavedSearch{}, errors.FromPostgres(err, "update saved search")
	}
	return ss, nil
}

// DeleteSavedSearch implements domain.Repo
func (s *pg) DeleteSavedSearch(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM saved_searches WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.FromPostgres(err, "delete saved search")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFoundf("saved search %s not found", id)
	}
	return nil
}
