package modkit

import (
	phttp "scanhub/internal/platform/net/http"
)

// Module is the common surface for API modules that mount routes and expose ports
type Module interface {
	// MountRoutes attaches the module's endpoints to the router seam
	MountRoutes(r phttp.Router)
	// Ports returns the module's port bundle for cross module wiring
	Ports() any

	// Name returns the module name
	Name() string
}

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
