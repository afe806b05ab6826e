// Package service runs the ingestion pipeline: discover, fetch, parse, sync
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"causelist/internal/adapters/email"
	"causelist/internal/adapters/fetch"
	"causelist/internal/modkit/repokit"
	"causelist/internal/platform/logger"
	"causelist/internal/services/listings/discovery"
	"causelist/internal/services/listings/domain"
	"causelist/internal/services/listings/parser"
)

const htmlSampleMax = 2048

// Config for the pipeline
type Config struct {
	SummaryURL   string
	Division     string
	AllowedHosts []string
}

// Service implements domain.PipelinePort
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Fetch  domain.Fetcher
	Email  email.Port
	Cfg    Config

	// Notifier is optional; wired by the module after the notify service exists
	Notifier domain.Notifier

	now func() time.Time
}

// New constructs the pipeline service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	fetcher domain.Fetcher,
	sink email.Port,
	cfg Config,
) *Service {
	if db == nil {
		panic("listings.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("listings.Service requires a non nil Repo binder")
	}
	if fetcher == nil {
		panic("listings.Service requires a fetcher")
	}
	if sink == nil {
		panic("listings.Service requires an email sink")
	}
	if cfg.Division == "" {
		cfg.Division = domain.DivisionCriminal
	}
	return &Service{DB: db, Binder: binder, Fetch: fetcher, Email: sink, Cfg: cfg, now: time.Now}
}

// RunOnce executes the pipeline end to end. Per-date step failures do not
// abort the run; they mark it failed while other dates still process. The
// returned error is non-nil only when the run could not process anything.
func (s *Service) RunOnce(ctx context.Context, kind string) (*domain.RunReport, error) {
	startedAt := s.now()
	l := logger.C(ctx).With().Str("component", "pipeline").Str("kind", kind).Logger()
	ctx = l.WithContext(ctx)
	l.Info().Str("summary_url", s.Cfg.SummaryURL).Msg("scrape run starting")

	repo := s.Binder.Bind(s.DB)
	runID, err := repo.StartRun(ctx, kind, s.Cfg.SummaryURL, startedAt)
	if err != nil {
		return nil, err
	}
	report := &domain.RunReport{RunID: runID, Status: domain.RunStatusSuccess}

	body, err := s.Fetch.Fetch(ctx, s.Cfg.SummaryURL)
	if err != nil {
		report.Stats.SummaryPageStatus = statusOf(err)
		s.reportDataError(ctx, email.DataErrorReport{
			Kind:    email.KindLinkDiscovery,
			Err:     err,
			URL:     s.Cfg.SummaryURL,
			Context: "fetching summary page",
		})
		return s.finish(ctx, report, startedAt, fmt.Sprintf("summary page fetch failed: %v", err)), err
	}
	report.Stats.SummaryPageStatus = http.StatusOK

	links, err := discovery.FindLinks(ctx, body, startedAt, discovery.Options{
		Division:     s.Cfg.Division,
		BaseURL:      s.Cfg.SummaryURL,
		AllowedHosts: s.Cfg.AllowedHosts,
	})
	if err != nil {
		s.reportDataError(ctx, email.DataErrorReport{
			Kind:       email.KindLinkDiscovery,
			Err:        err,
			URL:        s.Cfg.SummaryURL,
			HTMLSample: sample(body),
			Context:    "parsing summary page",
		})
		return s.finish(ctx, report, startedAt, fmt.Sprintf("link discovery failed: %v", err)), err
	}
	report.Stats.LinksDiscovered = len(links)

	var stepErrs []string
	for _, link := range links {
		if ctx.Err() != nil {
			stepErrs = append(stepErrs, fmt.Sprintf("%s: %v", link.TargetDate.Format(domain.DateFormat), ctx.Err()))
			break
		}
		res := s.processLink(ctx, link)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			stepErrs = append(stepErrs, fmt.Sprintf("%s: %v", link.TargetDate.Format(domain.DateFormat), res.Err))
			continue
		}
		report.Stats.LinksProcessed++
		report.Stats.RecordsAdded += res.Added
		report.Stats.RecordsUpdated += res.Updated
		report.Stats.RecordsDeleted += res.Deleted
	}

	if report.Stats.LinksProcessed > 0 && s.Notifier != nil {
		if err := s.Notifier.MatchAndDispatch(ctx, s.now()); err != nil {
			l.Error().Err(err).Msg("notification matching failed")
		}
	}

	var failMsg string
	if len(stepErrs) > 0 {
		failMsg = strings.Join(stepErrs, "; ")
	}
	return s.finish(ctx, report, startedAt, failMsg), nil
}

// processLink runs fetch, parse, and sync for one discovered cause list
func (s *Service) processLink(ctx context.Context, link domain.DiscoveredLink) domain.SyncResult {
	res := domain.SyncResult{ListDate: link.TargetDate}
	l := logger.C(ctx).With().Str("list_date", link.TargetDate.Format(domain.DateFormat)).Logger()

	body, err := s.Fetch.Fetch(ctx, link.URL)
	if err != nil {
		l.Error().Str("url", link.URL).Err(err).Msg("cause list fetch failed")
		res.Err = err
		return res
	}

	rows, err := parser.Parse(ctx, body, link.TargetDate, link.URL, link.Division, s.now())
	if err != nil {
		l.Error().Str("url", link.URL).Err(err).Msg("cause list parse failed")
		if parser.IsFatal(err) {
			s.reportDataError(ctx, email.DataErrorReport{
				Kind:       email.KindTableParsing,
				Err:        err,
				Date:       link.TargetDate.Format(domain.DateFormat),
				URL:        link.URL,
				HTMLSample: sample(body),
			})
		}
		res.Err = err
		return res
	}

	err = s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var syncErr error
		res, syncErr = syncListDate(ctx, s.Binder.Bind(q), link.TargetDate, rows)
		return syncErr
	})
	if err != nil {
		res.Err = err
	}
	return res
}

// finish records the terminal scrape_runs transition and seals the report
func (s *Service) finish(
	ctx context.Context,
	report *domain.RunReport,
	startedAt time.Time,
	failMsg string,
) *domain.RunReport {
	completedAt := s.now()
	repo := s.Binder.Bind(s.DB)
	l := logger.C(ctx)

	if failMsg != "" {
		report.Status = domain.RunStatusFailed
		details := failMsg
		if len(report.Results) > 0 {
			details = fmt.Sprintf("%s (processed %d of %d links)",
				failMsg, report.Stats.LinksProcessed, report.Stats.LinksDiscovered)
		}
		if err := repo.FailRun(ctx, report.RunID, report.Stats, completedAt, failMsg, details); err != nil {
			l.Error().Err(err).Msg("recording failed scrape run")
		}
	} else {
		if err := repo.CompleteRun(ctx, report.RunID, report.Stats, completedAt); err != nil {
			l.Error().Err(err).Msg("recording completed scrape run")
		}
	}

	l.Info().
		Str("status", report.Status).
		Int("links", report.Stats.LinksDiscovered).
		Int("processed", report.Stats.LinksProcessed).
		Int("added", report.Stats.RecordsAdded).
		Int("updated", report.Stats.RecordsUpdated).
		Int("deleted", report.Stats.RecordsDeleted).
		Dur("took", completedAt.Sub(startedAt)).
		Msg("scrape run finished")
	return report
}

// reportDataError dispatches an operator report; failures never fail the run
func (s *Service) reportDataError(ctx context.Context, r email.DataErrorReport) {
	if err := s.Email.DataError(ctx, r); err != nil {
		logger.C(ctx).Error().Err(err).Str("kind", r.Kind).Msg("error report dispatch failed")
	}
}

func statusOf(err error) int {
	var se *fetch.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func sample(body []byte) string {
	if len(body) <= htmlSampleMax {
		return string(body)
	}
	return string(body[:htmlSampleMax])
}
