// Package scheduler drives the ingestion pipeline on the leader instance
package scheduler

import (
	"context"
	"sync"
	"time"

	"causelist/internal/modkit/repokit"
	"causelist/internal/platform/logger"
	"causelist/internal/services/listings/domain"
)

// Config for the scheduler
type Config struct {
	// AppInstance gates leadership; only instance 0 schedules runs
	AppInstance int

	// Interval is the minimum time between successful run starts
	Interval time.Duration

	// OnStartup triggers one immediate run before the periodic loop
	OnStartup bool

	// Window restricts runs to local hours [StartHour, EndHour)
	WindowEnabled   bool
	WindowStartHour int
	WindowEndHour   int

	// DrainTimeout bounds the shutdown wait for an in-progress run
	DrainTimeout time.Duration
}

// Scheduler owns the periodic loop. It is strictly serial: a tick that
// arrives while a run is in progress is dropped with a log.
type Scheduler struct {
	pipeline domain.PipelinePort
	db       repokit.TxRunner
	binder   repokit.Binder[domain.StorageRepo]
	cfg      Config

	mu         sync.Mutex
	started    bool
	draining   bool
	inProgress bool

	cancelLoop context.CancelFunc
	wg         sync.WaitGroup

	// seams for tests
	now   func() time.Time
	tickC <-chan time.Time
}

// New constructs a Scheduler
func New(
	pipeline domain.PipelinePort,
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	cfg Config,
) *Scheduler {
	if pipeline == nil {
		panic("scheduler requires a pipeline")
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 60 * time.Second
	}
	return &Scheduler{
		pipeline: pipeline,
		db:       db,
		binder:   binder,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start begins the loop. On non-leader instances it is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	l := logger.C(ctx).With().Str("component", "scheduler").Logger()
	if s.cfg.AppInstance != 0 {
		l.Info().Int("app_instance", s.cfg.AppInstance).Msg("not the leader, scheduler idle")
		return
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancelLoop = cancel
	s.mu.Unlock()

	l.Info().
		Dur("interval", s.cfg.Interval).
		Bool("on_startup", s.cfg.OnStartup).
		Bool("window", s.cfg.WindowEnabled).
		Msg("scheduler starting")

	if s.cfg.OnStartup {
		s.beginRun(loopCtx, domain.RunKindStartup)
	}

	s.wg.Add(1)
	go s.loop(loopCtx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	tickC := s.tickC
	if tickC == nil {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		tickC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tickC:
			s.onTick(ctx)
		}
	}
}

// onTick decides whether this minute begins a run
func (s *Scheduler) onTick(ctx context.Context) {
	l := logger.C(ctx).With().Str("component", "scheduler").Logger()

	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	if s.inProgress {
		s.mu.Unlock()
		l.Info().Msg("tick dropped, run in progress")
		return
	}
	s.mu.Unlock()

	now := s.now()
	if !s.withinWindow(now) {
		return
	}
	due, err := s.shouldScrape(ctx, now)
	if err != nil {
		l.Error().Err(err).Msg("could not determine last successful run, skipping tick")
		return
	}
	if !due {
		return
	}
	s.beginRun(ctx, domain.RunKindScheduled)
}

// withinWindow checks the optional [start, end) local-hour window
func (s *Scheduler) withinWindow(now time.Time) bool {
	if !s.cfg.WindowEnabled {
		return true
	}
	h := now.In(domain.London()).Hour()
	return h >= s.cfg.WindowStartHour && h < s.cfg.WindowEndHour
}

// shouldScrape reports whether the minimum interval since the last
// successful run has elapsed
func (s *Scheduler) shouldScrape(ctx context.Context, now time.Time) (bool, error) {
	if s.cfg.Interval <= 0 {
		return true, nil
	}
	last, err := s.binder.Bind(s.db).LastSuccessfulStartedAt(ctx)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	return now.Sub(*last) >= s.cfg.Interval, nil
}

// beginRun claims the in-progress flag and runs the pipeline in its own
// goroutine so ticks keep flowing (and being dropped) during a run
func (s *Scheduler) beginRun(ctx context.Context, kind string) {
	s.mu.Lock()
	if s.inProgress || s.draining {
		s.mu.Unlock()
		return
	}
	s.inProgress = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer func() {
			s.mu.Lock()
			s.inProgress = false
			s.mu.Unlock()
			s.wg.Done()
		}()
		if _, err := s.pipeline.RunOnce(ctx, kind); err != nil {
			logger.C(ctx).Error().Err(err).Str("kind", kind).Msg("scrape run failed")
		}
	}()
}

// Stop drains the scheduler: no new runs begin, in-flight work is canceled,
// and we wait up to DrainTimeout before giving up
func (s *Scheduler) Stop(ctx context.Context) {
	l := logger.C(ctx).With().Str("component", "scheduler").Logger()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.draining = true
	cancel := s.cancelLoop
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		l.Info().Msg("scheduler drained")
	case <-time.After(s.cfg.DrainTimeout):
		l.Warn().Dur("timeout", s.cfg.DrainTimeout).Msg("scheduler drain timed out, shutting down anyway")
	}
}

// InProgress reports whether a run is currently executing
func (s *Scheduler) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress
}
