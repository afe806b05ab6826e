package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"causelist/internal/services/listings/domain"
)

func mkHearing(listDate time.Time, caseNo, timeStr string, details string) domain.Hearing {
	dt, _ := domain.CombineDateTime(listDate, timeStr)
	return domain.Hearing{
		ListDate:        listDate,
		CaseNumber:      caseNo,
		Time:            timeStr,
		HearingDatetime: dt,
		CaseDetails:     details,
		Division:        domain.DivisionCriminal,
	}
}

func TestDedupLastWins(t *testing.T) {
	t.Parallel()

	d := domain.DateAt(fixedNow)
	rows := []domain.Hearing{
		mkHearing(d, "202512345 A 1", "10am", "first"),
		mkHearing(d, "202512346 A 1", "11am", "other"),
		mkHearing(d, "202512345 A 1", "10am", "last"),
	}
	out, dupes := dedupLastWins(rows)
	if dupes != 1 {
		t.Fatalf("dupes = %d, want 1", dupes)
	}
	if len(out) != 2 {
		t.Fatalf("out = %d rows, want 2", len(out))
	}
	if out[0].CaseDetails != "last" {
		t.Fatalf("last occurrence must win, got %q", out[0].CaseDetails)
	}
	if out[1].CaseNumber != "202512346 A 1" {
		t.Fatalf("first-seen order lost: %+v", out)
	}
}

func TestSync_TotalityPerListDate(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	ctx := context.Background()
	today := domain.DateAt(fixedNow)
	other := today.AddDate(0, 0, 1)

	// rows for another date must never mutate
	_ = repo.InsertHearings(ctx, []domain.Hearing{
		mkHearing(other, "202512999 Z 1", "9am", "untouched"),
	})
	_ = repo.InsertHearings(ctx, []domain.Hearing{
		mkHearing(today, "202512345 A 1", "10am", "old"),
		mkHearing(today, "202512300 A 2", "3pm", "gone"),
	})

	input := []domain.Hearing{
		mkHearing(today, "202512345 A 1", "10am", "new"),
		mkHearing(today, "202512400 A 3", "1pm", "added"),
	}
	res, err := syncListDate(ctx, repo, today, input)
	if err != nil {
		t.Fatalf("syncListDate: %v", err)
	}
	if res.Added != 1 || res.Updated != 1 || res.Deleted != 1 {
		t.Fatalf("result = %+v", res)
	}

	stored := repo.byDate(today.Format(domain.DateFormat))
	if len(stored) != 2 {
		t.Fatalf("stored = %d rows, want exactly the input set", len(stored))
	}
	byKey := map[domain.Key]domain.Hearing{}
	for _, h := range stored {
		byKey[h.Key()] = h
	}
	for _, in := range input {
		got, ok := byKey[in.Key()]
		if !ok {
			t.Fatalf("missing key %+v after sync", in.Key())
		}
		if got.CaseDetails != in.CaseDetails {
			t.Fatalf("key %+v details = %q, want %q", in.Key(), got.CaseDetails, in.CaseDetails)
		}
	}
	if len(repo.byDate(other.Format(domain.DateFormat))) != 1 {
		t.Fatalf("other date mutated")
	}
}

func TestSync_NormalizedComparisonSkipsNoopUpdates(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	ctx := context.Background()
	today := domain.DateAt(fixedNow)

	venue := "Court 5 "
	stored := mkHearing(today, "202512345 A 1", "10am", " R v A ")
	stored.ID = uuid.New()
	stored.Venue = &venue
	_ = repo.InsertHearings(ctx, []domain.Hearing{stored})

	trimmed := "Court 5"
	in := mkHearing(today, "202512345 A 1", "10am", "R v A")
	in.Venue = &trimmed
	// same instant expressed in UTC instead of London
	in.HearingDatetime = in.HearingDatetime.UTC()

	res, err := syncListDate(ctx, repo, today, []domain.Hearing{in})
	if err != nil {
		t.Fatalf("syncListDate: %v", err)
	}
	if res.Added != 0 || res.Updated != 0 || res.Deleted != 0 {
		t.Fatalf("normalized-equal rows must not update: %+v", res)
	}
}

func TestSync_NilAndEmptyVenueAreEqual(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	ctx := context.Background()
	today := domain.DateAt(fixedNow)

	empty := ""
	stored := mkHearing(today, "202512345 A 1", "10am", "x")
	stored.ID = uuid.New()
	stored.Venue = &empty
	_ = repo.InsertHearings(ctx, []domain.Hearing{stored})

	in := mkHearing(today, "202512345 A 1", "10am", "x")
	in.Venue = nil

	res, err := syncListDate(ctx, repo, today, []domain.Hearing{in})
	if err != nil {
		t.Fatalf("syncListDate: %v", err)
	}
	if res.Updated != 0 {
		t.Fatalf("nil vs empty venue must compare equal: %+v", res)
	}
}

func TestSync_EmptyInputDeletesEverything(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	ctx := context.Background()
	today := domain.DateAt(fixedNow)
	_ = repo.InsertHearings(ctx, []domain.Hearing{
		mkHearing(today, "202512345 A 1", "10am", "a"),
		mkHearing(today, "202512346 A 1", "11am", "b"),
	})

	res, err := syncListDate(ctx, repo, today, nil)
	if err != nil {
		t.Fatalf("syncListDate: %v", err)
	}
	if res.Deleted != 2 || res.Added != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(repo.byDate(today.Format(domain.DateFormat))) != 0 {
		t.Fatalf("rows remain after empty-input sync")
	}
}
