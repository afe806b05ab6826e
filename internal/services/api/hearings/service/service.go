// Package service provides the hearings read API service
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"causelist/internal/modkit/repokit"
	"causelist/internal/platform/errors"
	"causelist/internal/services/api/hearings/domain"
	"causelist/internal/services/api/hearings/repo"
	listdom "causelist/internal/services/listings/domain"
)

// Config for the hearings service
type Config struct {
	// DefaultLimit applies when the caller omits limit; hard cap is 100
	DefaultLimit int
}

// Service answers the read API queries
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	Cfg    Config
}

// New constructs the hearings service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], cfg Config) *Service {
	if db == nil {
		panic("hearings.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("hearings.Service requires a non nil Repo binder")
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > 100 {
		cfg.DefaultLimit = 25
	}
	return &Service{DB: db, Binder: binder, Cfg: cfg}
}

// List returns a filtered, paged set of hearings
func (s *Service) List(ctx context.Context, in domain.ListInput) (domain.ListResult, error) {
	q, err := s.normalize(in)
	if err != nil {
		return domain.ListResult{}, err
	}

	rows, total, err := s.Binder.Bind(s.DB).List(ctx, q)
	if err != nil {
		return domain.ListResult{}, err
	}

	out := domain.ListResult{
		Data:       make([]domain.Hearing, 0, len(rows)),
		Pagination: domain.Pagination{Limit: q.Limit, Offset: q.Offset, Total: total},
	}
	for _, h := range rows {
		out.Data = append(out.Data, toDTO(h))
	}
	return out, nil
}

// ByID returns one hearing or a not-found error
func (s *Service) ByID(ctx context.Context, id string) (domain.Hearing, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.Hearing{}, errors.NotFoundf("hearing %s not found", id)
	}
	h, err := s.Binder.Bind(s.DB).ByID(ctx, uid)
	if err != nil {
		return domain.Hearing{}, err
	}
	return toDTO(h), nil
}

// Dates returns the per-date, per-division counts, newest first
func (s *Service) Dates(ctx context.Context) ([]domain.DateCount, error) {
	rows, err := s.Binder.Bind(s.DB).Dates(ctx, 100)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DateCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.DateCount{Date: r.Date, Division: r.Division, Count: r.Count})
	}
	return out, nil
}

// normalize validates filters and applies paging defaults
func (s *Service) normalize(in domain.ListInput) (repo.Query, error) {
	q := repo.Query{
		Limit:      in.Limit,
		Offset:     in.Offset,
		CaseNumber: in.CaseNumber,
		Division:   in.Division,
		Search:     in.Search,
		SortBy:     in.SortBy,
		SortOrder:  in.SortOrder,
	}
	if q.Limit <= 0 {
		q.Limit = s.Cfg.DefaultLimit
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	for _, d := range []struct {
		name  string
		value string
		dst   *string
	}{
		{"date", in.Date, &q.Date},
		{"dateFrom", in.DateFrom, &q.DateFrom},
		{"dateTo", in.DateTo, &q.DateTo},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(listdom.DateFormat, d.value); err != nil {
			return repo.Query{}, errors.InvalidArgf("%s must be YYYY-MM-DD", d.name)
		}
		*d.dst = d.value
	}

	switch q.SortBy {
	case "", "hearing_datetime", "case_number", "created_at":
	default:
		return repo.Query{}, errors.InvalidArgf("sortBy must be one of hearing_datetime, case_number, created_at")
	}
	switch q.SortOrder {
	case "", "asc", "desc":
	default:
		return repo.Query{}, errors.InvalidArgf("sortOrder must be asc or desc")
	}
	return q, nil
}

func toDTO(h listdom.Hearing) domain.Hearing {
	return domain.Hearing{
		ID:                    h.ID.String(),
		ListDate:              h.ListDate.Format(listdom.DateFormat),
		CaseNumber:            h.CaseNumber,
		Time:                  h.Time,
		HearingDatetime:       h.HearingDatetime.UTC().Format(time.RFC3339),
		Venue:                 h.Venue,
		Judge:                 h.Judge,
		CaseDetails:           h.CaseDetails,
		HearingType:           h.HearingType,
		AdditionalInformation: h.AdditionalInformation,
		Division:              h.Division,
		SourceURL:             h.SourceURL,
		ScrapedAt:             h.ScrapedAt.UTC().Format(time.RFC3339),
	}
}
