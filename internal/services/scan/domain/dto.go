package domain

// ScanInput is the scan submission payload
// barcode length is judged by the resolver, not the binder, so a too
// short value still comes back as a success=false result
type ScanInput struct {
	Barcode   string `json:"barcode" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	JobID     string `json:"job_id,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`
	Action    string `json:"action,omitempty" validate:"omitempty,oneof=scan cancel"`
}

// ScanResult is what the caller gets back for one submission
// state and validation rejections come back success=false with a
// human readable message, never as a thrown error
type ScanResult struct {
	Success bool         `json:"success"`
	ScanID  string       `json:"scan_id,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Outcome *ScanOutcome `json:"outcome,omitempty"`
}

// StartSessionInput starts a new scan session
type StartSessionInput struct {
	JobID string `json:"job_id,omitempty"`
}
