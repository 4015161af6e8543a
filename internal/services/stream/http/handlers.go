// Package http provides the long lived stream transports for the hub
package http

import (
	"encoding/json"
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"scanhub/internal/modkit/httpkit"
	perr "scanhub/internal/platform/errors"
	"scanhub/internal/platform/logger"
	phttp "scanhub/internal/platform/net/http"
	"scanhub/internal/services/stream/hub"
)

// Register mounts the event stream routes
// the bearer credential is validated once at stream open by the auth
// middleware on this scope; after that the connection just flows
func Register(r httpkit.Router, h *hub.Hub, log logger.Logger) {
	hd := &handlers{hub: h, log: log}
	r.Get("/jobs/{jobID}/events", hd.stream)
	r.Get("/jobs/{jobID}/events/ws", hd.streamWS)
}

type handlers struct {
	hub *hub.Hub
	log logger.Logger
}

// @Summary Stream scan events for a job as NDJSON
// @Tags stream
// @Produce json
// @Param jobID path string true "job id"
// @Success 200 {string} string "newline delimited JSON frames"
// @Router /jobs/{jobID}/events [get]
func (h *handlers) stream(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	jobID := chi.URLParam(r, "jobID")

	flusher, ok := w.(stdhttp.Flusher)
	if !ok {
		phttp.RespondError(w, r, perr.Unavailablef("streaming unsupported by transport"))
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(stdhttp.StatusOK)

	sub := h.hub.Subscribe(jobID)
	defer sub.Close()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			// transport gone; deregister promptly instead of waiting
			// for the next failed write
			return
		case f, open := <-sub.Frames():
			if !open {
				return
			}
			if err := enc.Encode(f); err != nil {
				h.log.Debug().Err(err).Str("job_id", jobID).Msg("stream write failed")
				return
			}
			flusher.Flush()
		}
	}
}
