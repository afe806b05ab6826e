// Package service implements the saved-search notification matcher
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"causelist/internal/adapters/email"
	"causelist/internal/modkit/repokit"
	"causelist/internal/platform/logger"
	listdom "causelist/internal/services/listings/domain"
	"causelist/internal/services/notify/domain"
)

// Config for the matcher
type Config struct {
	// MaxPerWindow caps digests per user inside WindowHours
	MaxPerWindow int
	WindowHours  int

	// BaseURL links the digest back to the archive UI
	BaseURL string
}

// Service implements listings' Notifier port
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Email  email.Port
	Cfg    Config
}

// New constructs the matcher
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	sink email.Port,
	cfg Config,
) *Service {
	if db == nil {
		panic("notify.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("notify.Service requires a non nil Repo binder")
	}
	if sink == nil {
		panic("notify.Service requires an email sink")
	}
	if cfg.MaxPerWindow <= 0 {
		cfg.MaxPerWindow = 1
	}
	if cfg.WindowHours <= 0 {
		cfg.WindowHours = 24
	}
	return &Service{DB: db, Binder: binder, Email: sink, Cfg: cfg}
}

// MatchAndDispatch runs every enabled saved search over today and tomorrow's
// hearings and sends at most one digest per user, subject to the sliding
// window rate limit. Dispatch failures are logged and swallowed; they never
// fail the caller's run.
func (s *Service) MatchAndDispatch(ctx context.Context, now time.Time) error {
	l := logger.C(ctx).With().Str("component", "notify").Logger()
	repo := s.Binder.Bind(s.DB)

	searches, err := repo.EnabledSearches(ctx)
	if err != nil {
		return err
	}
	if len(searches) == 0 {
		return nil
	}

	today := listdom.DateAt(now)
	dates := []time.Time{today, today.AddDate(0, 0, 1)}
	windowStart := now.Add(-time.Duration(s.Cfg.WindowHours) * time.Hour)

	byUser := groupByUser(searches)
	var dispatched int
	for _, user := range byUser {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ul := l.With().Str("user_id", user.id.String()).Logger()

		sent, err := repo.NotificationCountSince(ctx, user.id, windowStart)
		if err != nil {
			ul.Error().Err(err).Msg("rate limit lookup failed, skipping user")
			continue
		}
		if sent >= s.Cfg.MaxPerWindow {
			ul.Debug().Int("sent", sent).Int("cap", s.Cfg.MaxPerWindow).Msg("rate limited, skipping user")
			continue
		}

		digest, total := s.buildDigest(ctx, repo, user, dates)
		if len(digest.Searches) == 0 {
			continue
		}

		if err := s.Email.SavedSearchDigest(ctx, digest); err != nil {
			ul.Error().Err(err).Msg("digest dispatch failed")
			continue
		}
		if err := repo.InsertNotification(ctx, domain.NotificationEntry{
			UserID:          user.id,
			SentAt:          now,
			MatchCount:      total,
			SearchesMatched: len(digest.Searches),
		}); err != nil {
			ul.Error().Err(err).Msg("notification log insert failed")
			continue
		}
		dispatched++
	}

	l.Info().Int("users", len(byUser)).Int("dispatched", dispatched).Msg("notification matching complete")
	return nil
}

type userSearches struct {
	id       uuid.UUID
	email    string
	name     string
	searches []domain.SearchWithUser
}

// groupByUser keeps first-seen user order so dispatch is deterministic
func groupByUser(rows []domain.SearchWithUser) []*userSearches {
	byID := map[uuid.UUID]*userSearches{}
	var order []*userSearches
	for _, r := range rows {
		u, ok := byID[r.UserID]
		if !ok {
			u = &userSearches{id: r.UserID, email: r.UserEmail, name: r.UserName}
			byID[r.UserID] = u
			order = append(order, u)
		}
		u.searches = append(u.searches, r)
	}
	return order
}

// buildDigest runs each of the user's searches and drops the empty ones
func (s *Service) buildDigest(
	ctx context.Context,
	repo domain.StorageRepo,
	user *userSearches,
	dates []time.Time,
) (email.Digest, int) {
	d := email.Digest{
		UserEmail: user.email,
		UserName:  user.name,
		BaseURL:   s.Cfg.BaseURL,
	}
	var total int
	for _, sr := range user.searches {
		matches, err := repo.MatchHearings(ctx, sr.SearchText, dates)
		if err != nil {
			logger.C(ctx).Error().
				Str("search_id", sr.SearchID.String()).
				Err(err).
				Msg("search query failed, skipping search")
			continue
		}
		if len(matches) == 0 {
			continue
		}
		total += len(matches)
		d.Searches = append(d.Searches, email.DigestSearch{
			Text:    sr.SearchText,
			Matches: digestMatches(matches),
		})
	}
	return d, total
}

func digestMatches(hs []listdom.Hearing) []email.DigestMatch {
	out := make([]email.DigestMatch, 0, len(hs))
	for _, h := range hs {
		out = append(out, email.DigestMatch{
			CaseName:      h.CaseDetails,
			DateFormatted: h.ListDate.Format("Monday 2 January 2006"),
			Time:          h.Time,
			Venue:         strOf(h.Venue),
			HearingType:   h.HearingType,
			Judge:         strOf(h.Judge),
		})
	}
	return out
}

func strOf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
