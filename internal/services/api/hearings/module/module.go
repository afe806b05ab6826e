// Package module wires hearings into the API using modkit
package module

import (
	"net/http"

	modkit "causelist/internal/modkit"
	"causelist/internal/modkit/httpkit"
	str "causelist/internal/platform/strings"
	hearingshttp "causelist/internal/services/api/hearings/http"
	hearingsrepo "causelist/internal/services/api/hearings/repo"
	hearingssvc "causelist/internal/services/api/hearings/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports any

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *hearingssvc.Service
}

// New constructs a hearings module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("hearings"), modkit.WithPrefix("/hearings")}, opts...)...)

	o := FromConfig(deps.Cfg)
	svc := hearingssvc.New(deps.PG, hearingsrepo.NewPG(), hearingssvc.Config{
		DefaultLimit: o.RecordsPerPage,
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = svc

	external := b.Register
	m.register = func(r httpkit.Router) {
		hearingshttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
