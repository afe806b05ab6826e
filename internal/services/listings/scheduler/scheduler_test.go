package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"causelist/internal/modkit/repokit"
	"causelist/internal/services/listings/domain"
)

// fakePipeline records invocations and can block to simulate a long run
type fakePipeline struct {
	mu    sync.Mutex
	calls []string
	block chan struct{} // when set, RunOnce waits until closed
}

func (f *fakePipeline) RunOnce(_ context.Context, kind string) (*domain.RunReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, kind)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return &domain.RunReport{Status: domain.RunStatusSuccess}, nil
}

func (f *fakePipeline) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePipeline) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeHistory only answers LastSuccessfulStartedAt
type fakeHistory struct {
	mu     sync.Mutex
	lastOK *time.Time
}

func (f *fakeHistory) LastSuccessfulStartedAt(context.Context) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOK, nil
}

func (f *fakeHistory) HearingsByListDate(context.Context, time.Time) ([]domain.Hearing, error) {
	return nil, nil
}
func (f *fakeHistory) InsertHearings(context.Context, []domain.Hearing) error     { return nil }
func (f *fakeHistory) UpdateHearing(context.Context, uuid.UUID, domain.Hearing) error {
	return nil
}
func (f *fakeHistory) DeleteHearings(context.Context, []uuid.UUID) error { return nil }
func (f *fakeHistory) StartRun(context.Context, string, string, time.Time) (uuid.UUID, error) {
	return uuid.New(), nil
}
func (f *fakeHistory) CompleteRun(context.Context, uuid.UUID, domain.RunStats, time.Time) error {
	return nil
}
func (f *fakeHistory) FailRun(
	context.Context, uuid.UUID, domain.RunStats, time.Time, string, string,
) error {
	return nil
}
func (f *fakeHistory) ListRuns(context.Context, int) ([]domain.ScrapeRun, error) { return nil, nil }

type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (fakeTx) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (f fakeTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error   { return fn(f) }

type fakeBinder struct{ r *fakeHistory }

func (b fakeBinder) Bind(repokit.Queryer) domain.StorageRepo { return b.r }

func newScheduler(p *fakePipeline, h *fakeHistory, cfg Config) (*Scheduler, chan time.Time) {
	tick := make(chan time.Time)
	s := New(p, fakeTx{}, fakeBinder{r: h}, cfg)
	s.tickC = tick
	return s, tick
}

// tickAndSettle delivers a tick and waits for any spawned run to register
func tickAndSettle(t *testing.T, tick chan time.Time, now time.Time) {
	t.Helper()
	tick <- now
	time.Sleep(20 * time.Millisecond)
}

func TestScheduler_LeaderGating(t *testing.T) {
	t.Parallel()

	p := &fakePipeline{}
	s, _ := newScheduler(p, &fakeHistory{}, Config{AppInstance: 1, OnStartup: true})
	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	if p.count() != 0 {
		t.Fatalf("non-leader ran %d times", p.count())
	}
	s.Stop(context.Background())
}

func TestScheduler_StartupRun(t *testing.T) {
	t.Parallel()

	p := &fakePipeline{}
	s, _ := newScheduler(p, &fakeHistory{}, Config{OnStartup: true, Interval: time.Hour})
	s.Start(context.Background())
	defer s.Stop(context.Background())

	deadline := time.After(time.Second)
	for p.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("startup run never happened")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	if kinds := p.kinds(); kinds[0] != domain.RunKindStartup {
		t.Fatalf("first run kind = %s, want startup", kinds[0])
	}
}

func TestScheduler_TickRunsWhenDue(t *testing.T) {
	t.Parallel()

	p := &fakePipeline{}
	h := &fakeHistory{}
	s, tick := newScheduler(p, h, Config{Interval: 30 * time.Minute})
	now := time.Date(2026, time.August, 24, 10, 0, 0, 0, domain.London())
	s.now = func() time.Time { return now }
	s.Start(context.Background())
	defer s.Stop(context.Background())

	tickAndSettle(t, tick, now)
	if p.count() != 1 {
		t.Fatalf("runs = %d, want 1", p.count())
	}
	if p.kinds()[0] != domain.RunKindScheduled {
		t.Fatalf("kind = %s", p.kinds()[0])
	}
}

func TestScheduler_MinIntervalSkips(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 24, 10, 0, 0, 0, domain.London())
	recent := now.Add(-10 * time.Minute)
	p := &fakePipeline{}
	h := &fakeHistory{lastOK: &recent}
	s, tick := newScheduler(p, h, Config{Interval: 30 * time.Minute})
	s.now = func() time.Time { return now }
	s.Start(context.Background())
	defer s.Stop(context.Background())

	tickAndSettle(t, tick, now)
	if p.count() != 0 {
		t.Fatalf("run began before the minimum interval elapsed")
	}

	old := now.Add(-31 * time.Minute)
	h.mu.Lock()
	h.lastOK = &old
	h.mu.Unlock()
	tickAndSettle(t, tick, now)
	if p.count() != 1 {
		t.Fatalf("runs = %d, want 1 once interval elapsed", p.count())
	}
}

func TestScheduler_WindowGating(t *testing.T) {
	t.Parallel()

	p := &fakePipeline{}
	s, tick := newScheduler(p, &fakeHistory{}, Config{
		WindowEnabled:   true,
		WindowStartHour: 8,
		WindowEndHour:   18,
	})
	outside := time.Date(2026, time.August, 24, 22, 0, 0, 0, domain.London())
	s.now = func() time.Time { return outside }
	s.Start(context.Background())
	defer s.Stop(context.Background())

	tickAndSettle(t, tick, outside)
	if p.count() != 0 {
		t.Fatalf("ran outside the window")
	}

	edge := time.Date(2026, time.August, 24, 18, 0, 0, 0, domain.London())
	s.now = func() time.Time { return edge }
	tickAndSettle(t, tick, edge)
	if p.count() != 0 {
		t.Fatalf("end hour is exclusive; must not run at 18:00")
	}

	inside := time.Date(2026, time.August, 24, 8, 0, 0, 0, domain.London())
	s.now = func() time.Time { return inside }
	tickAndSettle(t, tick, inside)
	if p.count() != 1 {
		t.Fatalf("runs = %d, want 1 inside window", p.count())
	}
}

func TestScheduler_NonReentrant(t *testing.T) {
	t.Parallel()

	p := &fakePipeline{block: make(chan struct{})}
	s, tick := newScheduler(p, &fakeHistory{}, Config{})
	now := time.Date(2026, time.August, 24, 10, 0, 0, 0, domain.London())
	s.now = func() time.Time { return now }
	s.Start(context.Background())

	tickAndSettle(t, tick, now)
	if !s.InProgress() {
		t.Fatalf("run should be in progress")
	}
	// ticks during the run are dropped
	tickAndSettle(t, tick, now)
	tickAndSettle(t, tick, now)
	if p.count() != 1 {
		t.Fatalf("runs = %d, want 1 while first still in progress", p.count())
	}

	close(p.block)
	s.Stop(context.Background())
	if p.count() != 1 {
		t.Fatalf("runs = %d after drain, want 1", p.count())
	}
}

func TestScheduler_StopDrainTimeout(t *testing.T) {
	t.Parallel()

	p := &fakePipeline{block: make(chan struct{})}
	s, tick := newScheduler(p, &fakeHistory{}, Config{DrainTimeout: 50 * time.Millisecond})
	now := time.Date(2026, time.August, 24, 10, 0, 0, 0, domain.London())
	s.now = func() time.Time { return now }
	s.Start(context.Background())

	tickAndSettle(t, tick, now)
	start := time.Now()
	s.Stop(context.Background())
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Stop blocked %v past the drain bound", elapsed)
	}
	close(p.block)
}

func TestScheduler_NoRunsAfterStop(t *testing.T) {
	t.Parallel()

	p := &fakePipeline{}
	s, tick := newScheduler(p, &fakeHistory{}, Config{})
	now := time.Date(2026, time.August, 24, 10, 0, 0, 0, domain.London())
	s.now = func() time.Time { return now }
	s.Start(context.Background())
	s.Stop(context.Background())

	select {
	case tick <- now:
		t.Fatalf("loop still consuming ticks after Stop")
	case <-time.After(50 * time.Millisecond):
	}
	if p.count() != 0 {
		t.Fatalf("runs = %d after stop, want 0", p.count())
	}
}
