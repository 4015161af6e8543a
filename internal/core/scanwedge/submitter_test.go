package scanwedge

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeResolver struct {
	calls []Submission
	res   Result
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, sub Submission) (Result, error) {
	f.calls = append(f.calls, sub)
	return f.res, f.err
}

func newTestSubmitter(r ResolverPort) (*Submitter, *time.Time) {
	s := NewSubmitter(r, SubmitterConfig{DedupWindow: 500 * time.Millisecond})
	now := time.Now()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestSubmitterDedupWindow(t *testing.T) {
	r := &fakeResolver{res: Result{Success: true, ScanID: "s1"}}
	s, now := newTestSubmitter(r)

	tok := Token{Value: "DR-0001", CapturedAt: *now}
	if _, ok := s.Submit(context.Background(), tok); !ok {
		t.Fatal("first submission must reach the resolver")
	}

	*now = now.Add(100 * time.Millisecond)
	if _, ok := s.Submit(context.Background(), tok); ok {
		t.Fatal("duplicate inside the window must be dropped")
	}
	if len(r.calls) != 1 {
		t.Fatalf("resolver calls = %d, want 1", len(r.calls))
	}

	*now = now.Add(time.Second)
	if _, ok := s.Submit(context.Background(), tok); !ok {
		t.Fatal("resubmission outside the window must go through")
	}
	if len(r.calls) != 2 {
		t.Fatalf("resolver calls = %d, want 2", len(r.calls))
	}
}

func TestSubmitterDistinctValuesNotDeduped(t *testing.T) {
	r := &fakeResolver{res: Result{Success: true}}
	s, now := newTestSubmitter(r)

	s.Submit(context.Background(), Token{Value: "AAA-1", CapturedAt: *now})
	s.Submit(context.Background(), Token{Value: "BBB-2", CapturedAt: *now})
	if len(r.calls) != 2 {
		t.Fatalf("resolver calls = %d, want 2", len(r.calls))
	}
}

func TestSubmitterAttachesContext(t *testing.T) {
	r := &fakeResolver{res: Result{Success: true}}
	s, now := newTestSubmitter(r)
	s.SessionID = "sess-7"
	s.JobID = "42"
	s.DeviceID = "floor-tablet-3"

	s.Submit(context.Background(), Token{Value: "DR-0001", CapturedAt: *now})

	sub := r.calls[0]
	if sub.SessionID != "sess-7" || sub.JobID != "42" || sub.DeviceID != "floor-tablet-3" {
		t.Fatalf("context not attached: %+v", sub)
	}
	if sub.Action != ActionScan {
		t.Fatalf("action = %q, want %q", sub.Action, ActionScan)
	}
}

func TestSubmitterTransportFailureBecomesErrorResult(t *testing.T) {
	r := &fakeResolver{err: errors.New("connection refused")}
	s, now := newTestSubmitter(r)
	_ = now

	res, ok := s.Submit(context.Background(), Token{Value: "DR-0001", CapturedAt: *now})
	if !ok {
		t.Fatal("transport failure is not a dedup drop")
	}
	if res.Success {
		t.Fatal("expected a failed result")
	}
	if res.Error == "" {
		t.Fatal("expected the raw error text on the result")
	}
}

func TestSubmitterCancelBypassesDedup(t *testing.T) {
	r := &fakeResolver{res: Result{Success: true}}
	s, now := newTestSubmitter(r)

	s.Submit(context.Background(), Token{Value: "DR-0001", CapturedAt: *now})
	s.Cancel(context.Background(), "DR-0001")

	if len(r.calls) != 2 {
		t.Fatalf("resolver calls = %d, want 2; cancel must always go through", len(r.calls))
	}
	if r.calls[1].Action != ActionCancel {
		t.Fatalf("action = %q, want %q", r.calls[1].Action, ActionCancel)
	}
}

func TestDeriveDeviceIDNonEmpty(t *testing.T) {
	if DeriveDeviceID() == "" {
		t.Fatal("device id must never be empty")
	}
}
