// Package module wires the listings pipeline, scheduler, and adapters
package module

import (
	"context"

	"causelist/internal/adapters/email"
	"causelist/internal/adapters/fetch"
	"causelist/internal/modkit"
	phttp "causelist/internal/platform/net/http"
	"causelist/internal/services/listings/domain"
	"causelist/internal/services/listings/repo"
	"causelist/internal/services/listings/scheduler"
	"causelist/internal/services/listings/service"
)

// Ports exposed by the listings module
type Ports struct {
	Pipeline domain.PipelinePort
	Email    email.Port
}

// Module owns the pipeline and its scheduler
type Module struct {
	deps  modkit.Deps
	ports Ports
	svc   *service.Service
	sched *scheduler.Scheduler
}

// New constructs the listings module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	fetcher := fetch.New(fetch.Options{
		UserAgent: opts.UserAgent,
		Timeout:   opts.RequestTimeout,
	})

	var sink email.Port
	if opts.SMTPHost != "" {
		sink = email.NewSMTP(email.SMTPOptions{
			Host:    opts.SMTPHost,
			Port:    opts.SMTPPort,
			From:    opts.EmailFrom,
			ErrorTo: opts.EmailErrTo,
		})
	} else {
		sink = email.NewLogSink()
	}

	binder := repo.NewPG()
	svc := service.New(deps.PG, binder, fetcher, sink, service.Config{
		SummaryURL:   opts.SummaryURL,
		Division:     opts.Division,
		AllowedHosts: opts.AllowedHosts,
	})

	sched := scheduler.New(svc, deps.PG, binder, scheduler.Config{
		AppInstance:     opts.AppInstance,
		Interval:        opts.Interval,
		OnStartup:       opts.OnStartup,
		WindowEnabled:   opts.WindowEnabled,
		WindowStartHour: opts.WindowStartHour,
		WindowEndHour:   opts.WindowEndHour,
	})

	m := &Module{deps: deps, svc: svc, sched: sched}
	m.ports = Ports{Pipeline: svc, Email: sink}
	return m
}

// SetNotifier wires the matcher in after the notify module is built
func (m *Module) SetNotifier(n domain.Notifier) { m.svc.Notifier = n }

// StartScheduler begins the periodic loop on the leader
func (m *Module) StartScheduler(ctx context.Context) { m.sched.Start(ctx) }

// StopScheduler drains the loop
func (m *Module) StopScheduler(ctx context.Context) { m.sched.Stop(ctx) }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "listings" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the pipeline has no HTTP surface
func (m *Module) MountRoutes(r phttp.Router) {}
