// Package repo provides the hearings read-API repository
package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"causelist/internal/modkit/repokit"
	"causelist/internal/platform/errors"
	listdom "causelist/internal/services/listings/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Query is the normalized filter set; the service validates before binding
type Query struct {
	Limit      int
	Offset     int
	Date       string
	DateFrom   string
	DateTo     string
	CaseNumber string
	Division   string
	Search     string
	SortBy     string // hearing_datetime, case_number, created_at
	SortOrder  string // asc, desc
}

// DateRow is one dates-aggregate row
type DateRow struct {
	Date     string
	Division string
	Count    int
}

// Storage defines the hearings read repository
type Storage interface {
	List(ctx context.Context, q Query) ([]listdom.Hearing, int, error)
	ByID(ctx context.Context, id uuid.UUID) (listdom.Hearing, error)
	Dates(ctx context.Context, limit int) ([]DateRow, error)
}

const hearingCols = `id, list_date, case_number, time, hearing_datetime, venue, judge,
	case_details, hearing_type, additional_information, division, source_url,
	scraped_at, created_at, updated_at`

// sortColumns guards ORDER BY against anything not explicitly allowed
var sortColumns = map[string]string{
	"hearing_datetime": "hearing_datetime",
	"case_number":      "case_number",
	"created_at":       "created_at",
}

// List implements Storage
func (s *pg) List(ctx context.Context, q Query) ([]listdom.Hearing, int, error) {
	var where strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	where.WriteString("WHERE 1=1\n")
	if q.Date != "" {
		where.WriteString("  AND list_date = " + arg(q.Date) + "\n")
	}
	if q.DateFrom != "" {
		where.WriteString("  AND list_date >= " + arg(q.DateFrom) + "\n")
	}
	if q.DateTo != "" {
		where.WriteString("  AND list_date <= " + arg(q.DateTo) + "\n")
	}
	if q.CaseNumber != "" {
		where.WriteString("  AND case_number ILIKE '%' || " + arg(q.CaseNumber) + " || '%'\n")
	}
	if q.Division != "" {
		where.WriteString("  AND division = " + arg(q.Division) + "\n")
	}
	if q.Search != "" {
		where.WriteString("  AND (search_vector @@ websearch_to_tsquery('english', " + arg(q.Search) + ")" +
			" OR case_number ILIKE '%' || " + arg(q.Search) + " || '%')\n")
	}

	var total int
	if err := s.q.QueryRow(ctx, "SELECT COUNT(*) FROM hearings\n"+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, errors.FromPostgres(err, "count hearings")
	}

	sortCol, ok := sortColumns[q.SortBy]
	if !ok {
		sortCol = "hearing_datetime"
	}
	dir := "ASC"
	if strings.EqualFold(q.SortOrder, "desc") {
		dir = "DESC"
	}

	sql := "SELECT " + hearingCols + " FROM hearings\n" + where.String() +
		"ORDER BY " + sortCol + " " + dir + ", id ASC\n" +
		"LIMIT " + arg(q.Limit) + " OFFSET " + arg(q.Offset)

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, errors.FromPostgres(err, "list hearings")
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
			return nil, 0, errors.FromPostgres(err, "scan hearing")
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}

// ByID implements Storage
func (s *pg) ByID(ctx context.Context, id uuid.UUID) (listdom.Hearing, error) {
	rows, err := s.q.Query(ctx, "SELECT "+hearingCols+" FROM hearings WHERE id = $1", id)
	if err != nil {
		return listdom.Hearing{}, errors.FromPostgres(err, "load hearing")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return listdom.Hearing{}, errors.FromPostgres(err, "load hearing")
		}
		return listdom.Hearing{}, errors.NotFoundf("hearing %s not found", id)
	}
	var h listdom.Hearing
	if err := rows.Scan(
		&h.ID, &h.ListDate, &h.CaseNumber, &h.Time, &h.HearingDatetime,
		&h.Venue, &h.Judge, &h.CaseDetails, &h.HearingType, &h.AdditionalInformation,
		&h.Division, &h.SourceURL, &h.ScrapedAt, &h.CreatedAt, &h.UpdatedAt,
	); err != nil {
		return listdom.Hearing{}, errors.FromPostgres(err, "scan hearing")
	}
	return h, nil
}

// Dates implements Storage
func (s *pg) Dates(ctx context.Context, limit int) ([]DateRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := s.q.Query(ctx, `
		SELECT list_date::text, division, COUNT(*) AS hearings
		FROM hearings
		GROUP BY list_date, division
		ORDER BY list_date DESC, division ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, errors.FromPostgres(err, "aggregate dates")
	}
	defer rows.Close()

	var out []DateRow
	for rows.Next() {
		var r DateRow
		if err := rows.Scan(&r.Date, &r.Division, &r.Count); err != nil {
			return nil, errors.FromPostgres(err, "scan date row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
