// Package module wires the notification matcher
package module

import (
	"causelist/internal/adapters/email"
	"causelist/internal/modkit"
	phttp "causelist/internal/platform/net/http"
	listdom "causelist/internal/services/listings/domain"
	"causelist/internal/services/notify/repo"
	"causelist/internal/services/notify/service"
)

// Ports exposed by the notify module
type Ports struct {
	Notifier listdom.Notifier
}

// Module implements the notify service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the notify module. The email sink is shared with the
// listings module so both speak through the same relay.
func New(deps modkit.Deps, sink email.Port) *Module {
	opts := FromConfig(deps.Cfg)

	svc := service.New(deps.PG, repo.NewPG(), sink, service.Config{
		MaxPerWindow: opts.MaxPerWindow,
		WindowHours:  opts.WindowHours,
		BaseURL:      opts.BaseURL,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Notifier: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "notify" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the matcher has no HTTP surface
func (m *Module) MountRoutes(r phttp.Router) {}
