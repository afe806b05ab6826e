// Package repo provides the Postgres repository for notification matching
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"causelist/internal/modkit/repokit"
	"causelist/internal/platform/errors"
	listdom "causelist/internal/services/listings/domain"
	"causelist/internal/services/notify/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a repo binder for Postgres
func NewPG() repokit.Binder[domain.StorageRepo] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.StorageRepo { return &pg{q: q} }

// EnabledSearches implements domain.StorageRepo
func (s *pg) EnabledSearches(ctx context.Context) ([]domain.SearchWithUser, error) {
	rows, err := s.q.Query(ctx, `
		SELECT ss.id, ss.search_text, u.id, u.email, u.display_name
		FROM saved_searches ss
		JOIN users u ON u.id = ss.user_id
		JOIN account_statuses st ON st.id = u.status_id
		WHERE ss.enabled
			AND st.name = 'active'
			AND u.deleted_at IS NULL
			AND u.email_notifications_enabled
		ORDER BY u.id, ss.created_at`,
	)
	if err != nil {
		return nil, errors.FromPostgres(err, "load enabled saved searches")
	}
	defer rows.Close()

	var out []domain.SearchWithUser
	for rows.Next() {
		var r domain.SearchWithUser
		if err := rows.Scan(&r.SearchID, &r.SearchText, &r.UserID, &r.UserEmail, &r.UserName); err != nil {
			return nil, errors.FromPostgres(err, "scan saved search")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MatchHearings implements domain.StorageRepo
func (s *pg) MatchHearings(
	ctx context.Context,
	searchText string,
	dates []time.Time,
) ([]listdom.Hearing, error) {
	dateStrs := make([]string, 0, len(dates))
	for _, d := range dates {
		dateStrs = append(dateStrs, d.Format(listdom.DateFormat))
	}

	rows, err := s.q.Query(ctx, `
		SELECT id, list_date, case_number, time, hearing_datetime, venue, judge,
			case_details, hearing_type, additional_information, division, source_url,
			scraped_at, created_at, updated_at
		FROM hearings
		WHERE list_date = ANY($1)
			AND (
				search_vector @@ websearch_to_tsquery('english', $2)
				OR case_number ILIKE '%' || $2 || '%'
			)
		ORDER BY list_date ASC, hearing_datetime ASC
		LIMIT 100`,
		dateStrs, searchText,
	)
	if err != nil {
		return nil, errors.FromPostgres(err, "match hearings")
	}
	defer rows.Close()

	var out []listdom.Hearing
	for rows.Next() {
		var h listdom.Hearing
		if err := rows.Scan(
			&h.ID, &h.ListDate, &h.CaseNumber, &h.Time, &h.HearingDatetime,
			&h.Venue, &h.Judge, &h.CaseDetails, &h.HearingType, &h.AdditionalInformation,
			&h.Division, &h.SourceURL, &h.ScrapedAt, &h.CreatedAt, &h.UpdatedAt,
		); err != nil {
			return nil, errors.FromPostgres(err, "scan matched hearing")
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// NotificationCountSince implements domain.StorageRepo
func (s *pg) NotificationCountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM search_notifications
		WHERE user_id = $1 AND sent_at > $2`,
		userID, since,
	).Scan(&n)
	if err != nil {
		return 0, errors.FromPostgres(err, "count notifications in window")
	}
	return n, nil
}

// InsertNotification implements domain.StorageRepo
func (s *pg) InsertNotification(ctx context.Context, e domain.NotificationEntry) error {
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO search_notifications (id, user_id, sent_at, match_count, searches_matched)
		VALUES ($1, $2, $3, $4, $5)`,
		id, e.UserID, e.SentAt, e.MatchCount, e.SearchesMatched,
	)
	if err != nil {
		return errors.FromPostgres(err, "insert notification log")
	}
	return nil
}
