// Package http provides http transport for the scan module
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"scanhub/internal/modkit/httpkit"
	pnet "scanhub/internal/platform/net"
	"scanhub/internal/services/scan/domain"
)

// Register mounts the scan and session routes
func Register(r httpkit.Router, resolver domain.ResolverPort, sessions domain.SessionPort) {
	h := &handlers{resolver: resolver, sessions: sessions}
	httpkit.PostJSON[domain.ScanInput](r, "/scan", h.scan)
	httpkit.PostJSON[domain.StartSessionInput](r, "/sessions/start", h.startSession)
	httpkit.Post(r, "/sessions/{id}/end", h.endSession)
	httpkit.Get(r, "/sessions/{id}", h.getSession)
}

type handlers struct {
	resolver domain.ResolverPort
	sessions domain.SessionPort
}

// @Summary Submit a barcode scan
// @Tags scan
// @Accept json
// @Produce json
// @Param payload body domain.ScanInput true "Scan"
// @Success 200 {object} domain.ScanResult "resolved"
// @Router /scan [post]
func (h *handlers) scan(r *stdhttp.Request, in domain.ScanInput) (any, error) {
	if in.DeviceID == "" {
		in.DeviceID = pnet.DeviceID(r.Context())
	}
	return h.resolver.Resolve(r.Context(), in)
}

// @Summary Start a scan session
// @Tags sessions
// @Accept json
// @Produce json
// @Param payload body domain.StartSessionInput true "Start"
// @Success 200 {object} domain.Session "started"
// @Router /sessions/start [post]
func (h *handlers) startSession(r *stdhttp.Request, in domain.StartSessionInput) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.sessions.Start(r.Context(), actor, in)
}

// @Summary End a scan session
// @Tags sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "completed"
// @Failure 409 {object} httpkit.Envelope "already completed"
// @Router /sessions/{id}/end [post]
func (h *handlers) endSession(r *stdhttp.Request) (any, error) {
	actor, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.sessions.End(r.Context(), chi.URLParam(r, "id"), actor)
}

// @Summary Fetch a scan session
// @Tags sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "session"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /sessions/{id} [get]
func (h *handlers) getSession(r *stdhttp.Request) (any, error) {
	return h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
}
