// Package module wires the scan service into the API using modkit
package module

import (
	"net/http"

	"scanhub/internal/modkit"
	"scanhub/internal/modkit/httpkit"
	"scanhub/internal/platform/net/middleware"
	shttp "scanhub/internal/services/scan/http"
	"scanhub/internal/services/scan/repo"
	"scanhub/internal/services/scan/service"
	streamdom "scanhub/internal/services/stream/domain"
)

// Ports declares the injected cross module port(s)
type Ports struct {
	Publisher streamdom.PublisherPort
}

// Module implements the scan service module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *service.Service
}

// New constructs the scan module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	cfg := FromConfig(deps.Cfg)
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("scan"),
		modkit.WithMiddlewares(middleware.Timeout(cfg.RequestTimeout)),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}

	svc := service.New(deps.PG, repo.NewPG(), service.Options{
		Publisher: injected.Publisher,
		Mirror:    deps.CH,
		Log:       deps.Log,
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		shttp.Register(r, m.svc, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	mount := func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	}
	if m.prefix == "" {
		r.Group(mount)
		return
	}
	r.Route(m.prefix, mount)
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.svc }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }
