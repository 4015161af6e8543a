// Package domain defines the scan session types, DTOs and ports
package domain

import "time"

// SessionStatus is the resolver state machine position
type SessionStatus string

// Session states; Idle is initial, Completed is terminal
const (
	StatusIdle       SessionStatus = "idle"
	StatusContextSet SessionStatus = "context_set"
	StatusActive     SessionStatus = "active"
	StatusCompleted  SessionStatus = "completed"
)

// OutcomeType classifies one resolved scan
type OutcomeType string

// Outcome types
const (
	OutcomeSuccess   OutcomeType = "success"
	OutcomeError     OutcomeType = "error"
	OutcomeCancelled OutcomeType = "cancelled"
)

// SupplierContext is a context entity; scanning its barcode points the
// session's active context at it
type SupplierContext struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Barcode string `json:"barcode"`
}

// Material is an item entity counted under the active context
type Material struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Barcode string `json:"barcode"`
}

// Session is one scan session record
// exactly one context is current at a time, setting a new one replaces it
type Session struct {
	ID               string        `json:"id"`
	CreatedBy        string        `json:"created_by"`
	JobID            string        `json:"job_id,omitempty"`
	Status           SessionStatus `json:"status"`
	ActiveSupplierID *string       `json:"active_supplier_id,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// ScanOutcome is the append only record of resolving one scan attempt
type ScanOutcome struct {
	OutcomeID string      `json:"outcome_id"`
	SessionID string      `json:"session_id"`
	JobID     string      `json:"job_id,omitempty"`
	Barcode   string      `json:"barcode"`
	Type      OutcomeType `json:"type"`
	Entity    string      `json:"entity,omitempty"`
	Message   string      `json:"message"`
	DeviceID  string      `json:"device_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
