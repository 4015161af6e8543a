package http

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"scanhub/internal/services/stream/hub"
)

const (
	// writeWait bounds a single frame write so a hung peer cannot stall the pump
	writeWait = 10 * time.Second

	// pongWait is how long we tolerate a silent peer
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*stdhttp.Request) bool { return true },
}

// @Summary Stream scan events for a job over WebSocket
// @Tags stream
// @Param jobID path string true "job id"
// @Router /jobs/{jobID}/events/ws [get]
func (h *handlers) streamWS(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	jobID := chi.URLParam(r, "jobID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("job_id", jobID).Msg("ws upgrade failed")
		return
	}

	sub := h.hub.Subscribe(jobID)
	go h.writePump(conn, sub)
	h.readPump(conn, sub)
}

// writePump owns all writes on conn: frames from the hub plus pings
func (h *handlers) writePump(conn *websocket.Conn, sub *hub.Handle) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case f, open := <-sub.Frames():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; its job is noticing the close
// so the hub deregisters without waiting for a failed publish
func (h *handlers) readPump(conn *websocket.Conn, sub *hub.Handle) {
	defer func() {
		sub.Close()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
