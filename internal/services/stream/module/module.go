// Package module wires the event stream hub into the API using modkit
package module

import (
	"net/http"

	"scanhub/internal/modkit"
	"scanhub/internal/modkit/httpkit"
	sthttp "scanhub/internal/services/stream/http"
	"scanhub/internal/services/stream/hub"
)

// Module implements the stream service module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	hub *hub.Hub
}

// New constructs the stream module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	cfg := FromConfig(deps.Cfg)
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("stream"),
	}, opts...)...)

	h := hub.New(hub.Options{
		Buffer: cfg.Buffer,
		Log:    deps.Log,
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		hub:       h,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		sthttp.Register(r, m.hub, deps.Log)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Hub exposes the broadcaster for cross module wiring
func (m *Module) Hub() *hub.Hub { return m.hub }

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

// Ports satisfies modkit.Module; the hub is the publisher port
func (m *Module) Ports() any { return m.hub }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }
