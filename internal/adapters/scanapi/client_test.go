package scanapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"scanhub/internal/core/scanwedge"
	pnet "scanhub/internal/platform/net"
	phttp "scanhub/internal/platform/net/http"
	"scanhub/internal/services/scan/domain"
	scanhttp "scanhub/internal/services/scan/http"
)

type fakeResolver struct {
	last domain.ScanInput
	res  domain.ScanResult
}

func (f *fakeResolver) Resolve(_ context.Context, in domain.ScanInput) (domain.ScanResult, error) {
	f.last = in
	return f.res, nil
}

type fakeSessions struct {
	endedID string
}

func (f *fakeSessions) Start(
	_ context.Context,
	createdBy string,
	in domain.StartSessionInput,
) (domain.Session, error) {
	return domain.Session{ID: "sess-9", CreatedBy: createdBy, JobID: in.JobID, Status: domain.StatusIdle}, nil
}

func (f *fakeSessions) End(_ context.Context, id, _ string) (domain.Session, error) {
	f.endedID = id
	return domain.Session{ID: id, Status: domain.StatusCompleted}, nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (domain.Session, error) {
	return domain.Session{ID: id}, nil
}

type captured struct {
	authz  string
	device string
}

// newAPIServer hosts the real scan handlers under /api/v1, the route the
// client targets, recording auth headers as the middleware would see them
func newAPIServer(t *testing.T, fr *fakeResolver, fs *fakeSessions, got *captured) *httptest.Server {
	t.Helper()
	mux := chi.NewMux()
	mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got.authz = r.Header.Get("Authorization")
			got.device = r.Header.Get("X-Device-ID")
			next.ServeHTTP(w, r.WithContext(pnet.WithUser(r.Context(), "operator-1")))
		})
	})
	api := chi.NewMux()
	scanhttp.Register(phttp.AdaptChi(api), fr, fs)
	mux.Mount("/api/v1", api)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestClientResolveOverHTTP(t *testing.T) {
	fr := &fakeResolver{res: domain.ScanResult{Success: true, ScanID: "s1", Message: "counted: Acetone"}}
	var got captured
	ts := newAPIServer(t, fr, &fakeSessions{}, &got)

	c := New(Options{BaseURL: ts.URL, Token: "tok-1"})
	res, err := c.Resolve(context.Background(), scanwedge.Submission{
		Barcode:    "MAT-1",
		SessionID:  "sess-1",
		JobID:      "42",
		DeviceID:   "scanner-7",
		Action:     scanwedge.ActionScan,
		CapturedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Success || res.ScanID != "s1" || res.Message != "counted: Acetone" {
		t.Fatalf("result = %+v", res)
	}
	if fr.last.Barcode != "MAT-1" || fr.last.SessionID != "sess-1" ||
		fr.last.JobID != "42" || fr.last.Action != "scan" {
		t.Fatalf("server saw %+v", fr.last)
	}
	if got.authz != "Bearer tok-1" || got.device != "scanner-7" {
		t.Fatalf("headers authz=%q device=%q", got.authz, got.device)
	}
}

// the submitter wired over the HTTP client is the full device pipeline;
// its dedup and transport-failure semantics must hold across the wire
func TestSubmitterOverHTTPClient(t *testing.T) {
	fr := &fakeResolver{res: domain.ScanResult{Success: true, ScanID: "s1"}}
	ts := newAPIServer(t, fr, &fakeSessions{}, &captured{})

	sub := scanwedge.NewSubmitter(New(Options{BaseURL: ts.URL}), scanwedge.SubmitterConfig{})
	sub.SessionID = "sess-1"
	sub.DeviceID = "scanner-7"

	res, ok := sub.Submit(context.Background(), scanwedge.Token{Value: "MAT-1", CapturedAt: time.Now()})
	if !ok || !res.Success || res.ScanID != "s1" {
		t.Fatalf("submit = %+v ok=%v", res, ok)
	}
	if fr.last.DeviceID != "scanner-7" {
		t.Fatalf("device id not forwarded: %+v", fr.last)
	}

	// duplicate within the window is dropped before any request
	fr.last = domain.ScanInput{}
	if _, ok := sub.Submit(context.Background(), scanwedge.Token{Value: "MAT-1", CapturedAt: time.Now()}); ok {
		t.Fatal("duplicate not dropped")
	}
	if fr.last.Barcode != "" {
		t.Fatalf("duplicate reached the server: %+v", fr.last)
	}
}

func TestSubmitterSurvivesTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close() // connection refused from here on

	sub := scanwedge.NewSubmitter(New(Options{BaseURL: ts.URL}), scanwedge.SubmitterConfig{})
	sub.SessionID = "sess-1"

	res, ok := sub.Submit(context.Background(), scanwedge.Token{Value: "MAT-1", CapturedAt: time.Now()})
	if !ok {
		t.Fatal("transport failure must not be swallowed as a duplicate")
	}
	if res.Success || res.Message != "scan could not be submitted" || res.Error == "" {
		t.Fatalf("result = %+v", res)
	}
}

func TestClientSessionLifecycle(t *testing.T) {
	fs := &fakeSessions{}
	ts := newAPIServer(t, &fakeResolver{}, fs, &captured{})

	c := New(Options{BaseURL: ts.URL})
	id, err := c.StartSession(context.Background(), "42")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if id != "sess-9" {
		t.Fatalf("session id = %q", id)
	}
	if err := c.EndSession(context.Background(), id); err != nil {
		t.Fatalf("end: %v", err)
	}
	if fs.endedID != "sess-9" {
		t.Fatalf("ended id = %q", fs.endedID)
	}
}
