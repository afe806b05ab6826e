// Package repo provides the Postgres repository for the listings pipeline
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"causelist/internal/modkit/repokit"
	"causelist/internal/platform/errors"
	"causelist/internal/services/listings/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a repo binder for Postgres
func NewPG() repokit.Binder[domain.StorageRepo] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) domain.StorageRepo { return &pg{q: q} }

const hearingCols = `id, list_date, case_number, time, hearing_datetime, venue, judge,
	case_details, hearing_type, additional_information, division, source_url,
	scraped_at, created_at, updated_at`

// HearingsByListDate implements domain.StorageRepo
func (s *pg) HearingsByListDate(ctx context.Context, listDate time.Time) ([]domain.Hearing, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+hearingCols+`
		FROM hearings
		WHERE list_date = $1
		ORDER BY hearing_datetime, case_number`,
		listDate.Format(domain.DateFormat),
	)
	if err != nil {
		return nil, errors.FromPostgres(err, "load hearings by list_date")
	}
	defer rows.Close()

	var out []domain.Hearing
	for rows.Next() {
		h, err := scanHearing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHearing(r repokit.Row) (domain.Hearing, error) {
	var h domain.Hearing
	err := r.Scan(
		&h.ID, &h.ListDate, &h.CaseNumber, &h.Time, &h.HearingDatetime,
		&h.Venue, &h.Judge, &h.CaseDetails, &h.HearingType, &h.AdditionalInformation,
		&h.Division, &h.SourceURL, &h.ScrapedAt, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return domain.Hearing{}, errors.FromPostgres(err, "scan hearing")
	}
	return h, nil
}

// InsertHearings implements domain.StorageRepo
func (s *pg) InsertHearings(ctx context.Context, xs []domain.Hearing) error {
	if len(xs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO hearings
		(id, list_date, case_number, time, hearing_datetime, venue, judge,
		case_details, hearing_type, additional_information, division, source_url, scraped_at) VALUES `)

	args := make([]any, 0, len(xs)*13)
	for i, h := range xs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*13 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base, base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9, base+10, base+11, base+12)

		id := h.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		args = append(args,
			id, h.ListDate.Format(domain.DateFormat), h.CaseNumber, h.Time, h.HearingDatetime,
			h.Venue, h.Judge, h.CaseDetails, h.HearingType, h.AdditionalInformation,
			h.Division, h.SourceURL, h.ScrapedAt,
		)
	}
	if _, err := s.q.Exec(ctx, sb.String(), args...); err != nil {
		return errors.FromPostgres(err, "insert hearings")
	}
	return nil
}

// UpdateHearing implements domain.StorageRepo
func (s *pg) UpdateHearing(ctx context.Context, id uuid.UUID, h domain.Hearing) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE hearings SET
			hearing_datetime = $2,
			venue = $3,
			judge = $4,
			case_details = $5,
			hearing_type = $6,
			additional_information = $7,
			source_url = $8,
			scraped_at = $9,
			updated_at = now()
		WHERE id = $1`,
		id, h.HearingDatetime, h.Venue, h.Judge,
		h.CaseDetails, h.HearingType, h.AdditionalInformation,
		h.SourceURL, h.ScrapedAt,
	)
	if err != nil {
		return errors.FromPostgres(err, "update hearing")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFoundf("hearing %s not found", id)
	}
	return nil
}

// DeleteHearings implements domain.StorageRepo
func (s *pg) DeleteHearings(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.q.Exec(ctx, `DELETE FROM hearings WHERE id = ANY($1)`, ids); err != nil {
		return errors.FromPostgres(err, "delete hearings")
	}
	return nil
}

// StartRun implements domain.StorageRepo. The row is inserted optimistically
// with status success; only FailRun flips it.
func (s *pg) StartRun(ctx context.Context, kind, summaryURL string, startedAt time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.q.Exec(ctx, `
		INSERT INTO scrape_runs (id, kind, status, summary_url, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, kind, domain.RunStatusSuccess, summaryURL, startedAt,
	)
	if err != nil {
		return uuid.Nil, errors.FromPostgres(err, "start scrape run")
	}
	return id, nil
}

// CompleteRun implements domain.StorageRepo
func (s *pg) CompleteRun(ctx context.Context, id uuid.UUID, st domain.RunStats, completedAt time.Time) error {
	return s.finishRun(ctx, id, st, completedAt, "", "")
}

// FailRun implements domain.StorageRepo
func (s *pg) FailRun(
	ctx context.Context,
	id uuid.UUID,
	st domain.RunStats,
	completedAt time.Time,
	message, details string,
) error {
	return s.finishRun(ctx, id, st, completedAt, message, details)
}

func (s *pg) finishRun(
	ctx context.Context,
	id uuid.UUID,
	st domain.RunStats,
	completedAt time.Time,
	message, details string,
) error {
	status := domain.RunStatusSuccess
	var msg, det *string
	if message != "" {
		status = domain.RunStatusFailed
		msg = &message
		if details != "" {
			det = &details
		}
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE scrape_runs SET
			status = $2,
			completed_at = $3,
			duration_ms = (EXTRACT(EPOCH FROM ($3::timestamptz - started_at)) * 1000)::int,
			links_discovered = $4,
			links_processed = $5,
			records_added = $6,
			records_updated = $7,
			records_deleted = $8,
			summary_page_status = $9,
			error_message = $10,
			error_details = $11
		WHERE id = $1 AND completed_at IS NULL`,
		id, status, completedAt,
		st.LinksDiscovered, st.LinksProcessed,
		st.RecordsAdded, st.RecordsUpdated, st.RecordsDeleted,
		st.SummaryPageStatus, msg, det,
	)
	if err != nil {
		return errors.FromPostgres(err, "finish scrape run")
	}
	if tag.RowsAffected() == 0 {
		return errors.Conflictf("scrape run %s already terminal", id)
	}
	return nil
}

// LastSuccessfulStartedAt implements domain.StorageRepo. Only completed runs
// count; the optimistic start row does not.
func (s *pg) LastSuccessfulStartedAt(ctx context.Context) (*time.Time, error) {
	rows, err := s.q.Query(ctx, `
		SELECT started_at
		FROM scrape_runs
		WHERE status = $1 AND completed_at IS NOT NULL
		ORDER BY started_at DESC
		LIMIT 1`,
		domain.RunStatusSuccess,
	)
	if err != nil {
		return nil, errors.FromPostgres(err, "query last successful run")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var t time.Time
	if err := rows.Scan(&t); err != nil {
		return nil, errors.FromPostgres(err, "scan last successful run")
	}
	return &t, rows.Err()
}

// ListRuns implements domain.StorageRepo
func (s *pg) ListRuns(ctx context.Context, limit int) ([]domain.ScrapeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.q.Query(ctx, `
		SELECT id, kind, status, summary_url, started_at, completed_at, duration_ms,
			links_discovered, links_processed, records_added, records_updated,
			records_deleted, summary_page_status, error_message, error_details
		FROM scrape_runs
		ORDER BY started_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, errors.FromPostgres(err, "list scrape runs")
	}
	defer rows.Close()

	var out []domain.ScrapeRun
	for rows.Next() {
		var r domain.ScrapeRun
		if err := rows.Scan(
			&r.ID, &r.Kind, &r.Status, &r.SummaryURL, &r.StartedAt, &r.CompletedAt, &r.DurationMS,
			&r.LinksDiscovered, &r.LinksProcessed, &r.RecordsAdded, &r.RecordsUpdated,
			&r.RecordsDeleted, &r.SummaryPageStatus, &r.ErrorMessage, &r.ErrorDetails,
		); err != nil {
			return nil, errors.FromPostgres(err, "scan scrape run")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
