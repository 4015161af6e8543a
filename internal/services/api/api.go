// Package api composes the service modules onto one router
package api

import (
	"scanhub/internal/modkit"
	"scanhub/internal/modkit/httpkit"
	"scanhub/internal/modkit/module"
	"scanhub/internal/modkit/swaggerkit"
	"scanhub/internal/platform/config"
	phttp "scanhub/internal/platform/net/http"
	scanmod "scanhub/internal/services/scan/module"
	streamdom "scanhub/internal/services/stream/domain"
	streammod "scanhub/internal/services/stream/module"
)

// Options holds API composition settings
type Options struct {
	SwaggerOn  bool
	ProfilerOn bool

	// TokensCSV is "user:token" pairs accepted as bearer credentials
	TokensCSV []string
}

// FromConfig reads CORE_API_* values from process config
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("CORE_API_")
	return Options{
		SwaggerOn:  ac.MayBool("SWAGGER", false),
		ProfilerOn: ac.MayBool("PPROF", false),
		TokensCSV:  ac.MayCSV("TOKENS", nil),
	}
}

// Mount builds the modules, wires their cross module ports and mounts
// everything under /api/v1
func Mount(r httpkit.Router, deps modkit.Deps) {
	opts := FromConfig(deps.Cfg)

	// the stream module first: the scan module publishes through its hub
	streamMod := streammod.New(deps)
	module.Register(streamMod.Name(), streamMod.Ports())

	pub := module.MustPortsOf[streamdom.PublisherPort](streamMod)
	scanMod := scanmod.New(deps, modkit.WithPorts(scanmod.Ports{Publisher: pub}))
	module.Register(scanMod.Name(), scanMod.Ports())

	stack := append(httpkit.CommonStack(), httpkit.Auth(newTokenAuth(opts.TokensCSV, deps.Log)))
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		scanMod.MountRoutes(api)
		streamMod.MountRoutes(api)
	})

	swaggerkit.Mount(r, opts.SwaggerOn)
	phttp.MountProfiler(r, "/debug", opts.ProfilerOn)
}
