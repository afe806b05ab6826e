package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"causelist/internal/platform/logger"
	"causelist/internal/services/listings/domain"
)

// dedupLastWins collapses rows sharing an identity key. The last occurrence
// wins; surviving rows keep first-seen order.
func dedupLastWins(rows []domain.Hearing) ([]domain.Hearing, int) {
	byKey := make(map[domain.Key]domain.Hearing, len(rows))
	var order []domain.Key
	for _, r := range rows {
		k := r.Key()
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = r
	}
	out := make([]domain.Hearing, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out, len(rows) - len(out)
}

func norm(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// changed compares the mutable fields of two rows sharing an identity key.
// nil and empty string are the same value; strings compare trimmed; instants
// compare as absolute time.
func changed(existing, incoming domain.Hearing) bool {
	if norm(existing.Venue) != norm(incoming.Venue) {
		return true
	}
	if norm(existing.Judge) != norm(incoming.Judge) {
		return true
	}
	if strings.TrimSpace(existing.CaseDetails) != strings.TrimSpace(incoming.CaseDetails) {
		return true
	}
	if strings.TrimSpace(existing.HearingType) != strings.TrimSpace(incoming.HearingType) {
		return true
	}
	if strings.TrimSpace(existing.AdditionalInformation) != strings.TrimSpace(incoming.AdditionalInformation) {
		return true
	}
	return !existing.HearingDatetime.UTC().Equal(incoming.HearingDatetime.UTC())
}

// syncListDate reconciles parsed rows against the stored rows for one
// list_date. It must run inside a transaction: after it returns nil the
// stored set for that date equals the deduplicated input, and no other date
// is touched.
func syncListDate(
	ctx context.Context,
	repo domain.StorageRepo,
	listDate time.Time,
	rows []domain.Hearing,
) (domain.SyncResult, error) {
	res := domain.SyncResult{ListDate: listDate}
	l := logger.C(ctx).With().
		Str("component", "sync").
		Str("list_date", listDate.Format(domain.DateFormat)).
		Logger()

	deduped, dupes := dedupLastWins(rows)
	res.Duplicate = dupes
	if dupes > 0 {
		l.Warn().Int("duplicates", dupes).Msg("duplicate identity keys in parsed rows, last wins")
	}

	existing, err := repo.HearingsByListDate(ctx, listDate)
	if err != nil {
		return res, err
	}
	byKey := make(map[domain.Key]domain.Hearing, len(existing))
	for _, e := range existing {
		byKey[e.Key()] = e
	}

	var adds []domain.Hearing
	type upd struct {
		id  uuid.UUID
		row domain.Hearing
	}
	var updates []upd
	incoming := make(map[domain.Key]bool, len(deduped))

	for _, in := range deduped {
		k := in.Key()
		incoming[k] = true
		ex, ok := byKey[k]
		if !ok {
			adds = append(adds, in)
			continue
		}
		if changed(ex, in) {
			updates = append(updates, upd{id: ex.ID, row: in})
		}
	}

	var deleteIDs []uuid.UUID
	for _, e := range existing {
		if !incoming[e.Key()] {
			deleteIDs = append(deleteIDs, e.ID)
		}
	}

	if err := repo.InsertHearings(ctx, adds); err != nil {
		return res, err
	}
	for _, u := range updates {
		if err := repo.UpdateHearing(ctx, u.id, u.row); err != nil {
			return res, err
		}
	}
	if err := repo.DeleteHearings(ctx, deleteIDs); err != nil {
		return res, err
	}

	res.Added = len(adds)
	res.Updated = len(updates)
	res.Deleted = len(deleteIDs)
	l.Info().
		Int("added", res.Added).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Msg("list date reconciled")
	return res, nil
}
