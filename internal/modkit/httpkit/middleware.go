package httpkit

import (
	"compress/flate"
	"net/http"

	phttp "scanhub/internal/platform/net/http"
	"scanhub/internal/platform/net/middleware"
)

// CommonStack returns the baseline per scope middleware slice
// no request timeout here: the event stream endpoints hold their
// response open, so timeouts are applied per module instead
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLog,

		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.RedirectSlashes(),
	}
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}
