// Package domain defines the event stream frame shapes and ports
package domain

import "time"

// Frame types on the wire
const (
	FrameConnected     = "connected"
	FrameScanSuccess   = "scan_success"
	FrameScanError     = "scan_error"
	FrameScanCancelled = "scan_cancelled"
	FrameSessionEnded  = "session_ended"
)

// Frame is one newline delimited JSON event on the stream
// append only; a frame is never mutated after publish
type Frame struct {
	Type      string    `json:"type"`
	Barcode   string    `json:"barcode,omitempty"`
	JobID     string    `json:"jobId,omitempty"`
	ScanID    string    `json:"scanId,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Connected is the synthetic first frame every new subscriber receives,
// so clients can tell "stream open, no events yet" from "never opened"
func Connected(at time.Time) Frame {
	return Frame{Type: FrameConnected, Timestamp: at}
}
