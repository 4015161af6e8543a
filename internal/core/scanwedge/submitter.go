package scanwedge

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"
)

// DefaultDedupWindow is the trailing dedup window for repeated tokens
// configured independently of the classifier flush window
const DefaultDedupWindow = 500 * time.Millisecond

// Actions a submission can carry
const (
	ActionScan   = "scan"
	ActionCancel = "cancel"
)

// Submission is one resolved token plus its session context
type Submission struct {
	Barcode    string    `json:"barcode"`
	SessionID  string    `json:"session_id,omitempty"`
	JobID      string    `json:"job_id,omitempty"`
	DeviceID   string    `json:"device_id"`
	Action     string    `json:"action"`
	CapturedAt time.Time `json:"captured_at"`
}

// Result is what the resolver reports back for one submission
type Result struct {
	Success bool   `json:"success"`
	ScanID  string `json:"scan_id,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ResolverPort is the submitter's view of the session resolver
type ResolverPort interface {
	Resolve(ctx context.Context, sub Submission) (Result, error)
}

// SubmitterConfig parameterizes the dedup window
type SubmitterConfig struct {
	DedupWindow time.Duration
}

// Submitter deduplicates tokens and forwards them with session context
// dedup state is per device and needs no cross device coordination
type Submitter struct {
	cfg      SubmitterConfig
	resolver ResolverPort

	SessionID string
	JobID     string
	DeviceID  string

	mu        sync.Mutex
	lastValue string
	lastAt    time.Time

	now func() time.Time
}

// NewSubmitter builds a submitter over resolver
func NewSubmitter(resolver ResolverPort, cfg SubmitterConfig) *Submitter {
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}
	return &Submitter{
		cfg:      cfg,
		resolver: resolver,
		DeviceID: DeriveDeviceID(),
		now:      time.Now,
	}
}

// Submit forwards tok to the resolver unless it repeats the previous value
// within the dedup window; ok is false when the duplicate was dropped.
// Guards against scanners that emit the same code via both the change
// path and the terminator path
func (s *Submitter) Submit(ctx context.Context, tok Token) (Result, bool) {
	return s.submit(ctx, tok, ActionScan)
}

// Cancel asks the resolver to reverse a prior increment of barcode
// always explicit, re scanning a code never cancels it
func (s *Submitter) Cancel(ctx context.Context, barcode string) Result {
	res, _ := s.submit(ctx, Token{Value: barcode, CapturedAt: s.now()}, ActionCancel)
	return res
}

func (s *Submitter) submit(ctx context.Context, tok Token, action string) (Result, bool) {
	now := s.now()

	if action == ActionScan {
		s.mu.Lock()
		dup := tok.Value == s.lastValue && now.Sub(s.lastAt) <= s.cfg.DedupWindow
		if !dup {
			s.lastValue = tok.Value
			s.lastAt = now
		}
		s.mu.Unlock()
		if dup {
			return Result{}, false
		}
	}

	sub := Submission{
		Barcode:    tok.Value,
		SessionID:  s.SessionID,
		JobID:      s.JobID,
		DeviceID:   s.DeviceID,
		Action:     action,
		CapturedAt: tok.CapturedAt,
	}

	res, err := s.resolver.Resolve(ctx, sub)
	if err != nil {
		// transport failure surfaces as an error result, never a panic
		// past the caller; retry is the caller's call
		return Result{
			Success: false,
			Message: "scan could not be submitted",
			Error:   err.Error(),
		}, true
	}
	return res, true
}

// DeriveDeviceID returns a stable per device identifier, preferring the
// hostname and falling back to a generic platform descriptor
func DeriveDeviceID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return runtime.GOOS + "-" + runtime.GOARCH
}
