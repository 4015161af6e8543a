// Package module defines the minimal contract for a modkit module
package module

import (
	phttp "scanhub/internal/platform/net/http"
)

// Module is the minimal contract used by modkit
// kept as a sibling so modules exporting their own ports avoid import knots
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
