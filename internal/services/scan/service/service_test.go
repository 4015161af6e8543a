package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"scanhub/internal/modkit/repokit"
	perr "scanhub/internal/platform/errors"
	ptime "scanhub/internal/platform/time"
	"scanhub/internal/services/scan/domain"
	"scanhub/internal/services/scan/repo"
	streamdom "scanhub/internal/services/stream/domain"
)

// fakeTx satisfies repokit.TxRunner without a database; every "transaction"
// just runs fn against the fake storage
type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	panic("unused")
}
func (fakeTx) Query(context.Context, string, ...any) (repokit.Rows, error) { panic("unused") }
func (fakeTx) QueryRow(context.Context, string, ...any) repokit.Row       { panic("unused") }
func (fakeTx) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error {
	return fn(fakeTx{})
}

type fakeStore struct {
	suppliers map[string]domain.SupplierContext // by barcode
	materials map[string]domain.Material        // by barcode
	sessions  map[string]*domain.Session
	counts    map[string]int // session|supplier|material
	scanLog   []domain.ScanOutcome

	failAppend error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		suppliers: map[string]domain.SupplierContext{},
		materials: map[string]domain.Material{},
		sessions:  map[string]*domain.Session{},
		counts:    map[string]int{},
	}
}

func countKey(sess, sup, mat string) string { return sess + "|" + sup + "|" + mat }

func (f *fakeStore) SupplierByBarcode(_ context.Context, barcode string) (domain.SupplierContext, error) {
	if s, ok := f.suppliers[barcode]; ok {
		return s, nil
	}
	return domain.SupplierContext{}, perr.NotFoundf("no supplier for barcode %q", barcode)
}

func (f *fakeStore) MaterialByBarcode(_ context.Context, barcode string) (domain.Material, error) {
	if m, ok := f.materials[barcode]; ok {
		return m, nil
	}
	return domain.Material{}, perr.NotFoundf("no material for barcode %q", barcode)
}

func (f *fakeStore) SessionByID(_ context.Context, id string) (domain.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return *s, nil
	}
	return domain.Session{}, perr.NotFoundf("session %q not found", id)
}

func (f *fakeStore) InsertSession(_ context.Context, s domain.Session) error {
	cp := s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) SetActiveSupplier(
	_ context.Context,
	sessionID, supplierID string,
	status domain.SessionStatus,
) error {
	s := f.sessions[sessionID]
	s.ActiveSupplierID = &supplierID
	s.Status = status
	return nil
}

func (f *fakeStore) MarkSessionStatus(_ context.Context, sessionID string, status domain.SessionStatus) error {
	f.sessions[sessionID].Status = status
	return nil
}

func (f *fakeStore) CompleteSession(
	_ context.Context,
	sessionID, actor string,
	at time.Time,
) (domain.Session, error) {
	s, ok := f.sessions[sessionID]
	if !ok || s.CreatedBy != actor || s.Status == domain.StatusCompleted {
		return domain.Session{}, perr.Statef("session not found or already completed")
	}
	s.Status = domain.StatusCompleted
	s.CompletedAt = ptime.Ptr(at)
	return *s, nil
}

func (f *fakeStore) IncrementCount(_ context.Context, sessionID, supplierID, materialID string) error {
	f.counts[countKey(sessionID, supplierID, materialID)]++
	return nil
}

func (f *fakeStore) DecrementCount(
	_ context.Context,
	sessionID, supplierID, materialID string,
) (bool, error) {
	k := countKey(sessionID, supplierID, materialID)
	if f.counts[k] <= 0 {
		return false, nil
	}
	f.counts[k]--
	return true, nil
}

func (f *fakeStore) CountFor(_ context.Context, sessionID, supplierID, materialID string) (int, error) {
	return f.counts[countKey(sessionID, supplierID, materialID)], nil
}

func (f *fakeStore) AppendScanLog(_ context.Context, o domain.ScanOutcome) error {
	if f.failAppend != nil {
		return f.failAppend
	}
	f.scanLog = append(f.scanLog, o)
	return nil
}

type fakePublisher struct {
	frames []streamdom.Frame
	keys   []string
}

func (f *fakePublisher) Publish(key string, fr streamdom.Frame) {
	f.keys = append(f.keys, key)
	f.frames = append(f.frames, fr)
}

func newTestService(st *fakeStore) (*Service, *fakePublisher) {
	pub := &fakePublisher{}
	binder := repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage { return st })
	svc := New(fakeTx{}, binder, Options{Publisher: pub, Log: zerolog.Nop()})
	return svc, pub
}

func seedSession(st *fakeStore, id string) {
	st.sessions[id] = &domain.Session{
		ID:        id,
		CreatedBy: "user-1",
		Status:    domain.StatusIdle,
		StartedAt: time.Now(),
	}
}

func TestResolveCountingRequiresContext(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "sess-1")
	st.materials["MAT-1"] = domain.Material{ID: "m1", Name: "Acetone", Barcode: "MAT-1"}
	svc, _ := newTestService(st)

	res, err := svc.Resolve(context.Background(), domain.ScanInput{
		Barcode: "MAT-1", SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatal("counting with no context must fail")
	}
	if res.Message != "no supplier set" {
		t.Fatalf("message = %q", res.Message)
	}
	if n, _ := st.CountFor(context.Background(), "sess-1", "s1", "m1"); n != 0 {
		t.Fatalf("counter must be unchanged, got %d", n)
	}
	if st.sessions["sess-1"].Status != domain.StatusIdle {
		t.Fatal("state must be unchanged on a rejected scan")
	}
}

func TestResolveContextReplacesContext(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "sess-1")
	st.suppliers["SUP-A"] = domain.SupplierContext{ID: "sa", Name: "Alpha", Barcode: "SUP-A"}
	st.suppliers["SUP-B"] = domain.SupplierContext{ID: "sb", Name: "Beta", Barcode: "SUP-B"}
	st.materials["MAT-1"] = domain.Material{ID: "m1", Name: "Acetone", Barcode: "MAT-1"}
	svc, _ := newTestService(st)

	ctx := context.Background()
	in := domain.ScanInput{SessionID: "sess-1"}

	in.Barcode = "SUP-A"
	if res, _ := svc.Resolve(ctx, in); !res.Success {
		t.Fatalf("context scan failed: %+v", res)
	}
	in.Barcode = "SUP-B"
	if res, _ := svc.Resolve(ctx, in); !res.Success {
		t.Fatalf("context scan failed: %+v", res)
	}

	in.Barcode = "MAT-1"
	if res, _ := svc.Resolve(ctx, in); !res.Success {
		t.Fatalf("counting scan failed: %+v", res)
	}

	if n, _ := st.CountFor(ctx, "sess-1", "sb", "m1"); n != 1 {
		t.Fatalf("count under B = %d, want 1", n)
	}
	if n, _ := st.CountFor(ctx, "sess-1", "sa", "m1"); n != 0 {
		t.Fatalf("count under A = %d, want 0; only B is active", n)
	}
	if st.sessions["sess-1"].Status != domain.StatusActive {
		t.Fatalf("status = %q, want active", st.sessions["sess-1"].Status)
	}
}

func TestResolveUnknownBarcode(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "sess-1")
	svc, pub := newTestService(st)

	res, err := svc.Resolve(context.Background(), domain.ScanInput{
		Barcode: "NOPE-404", SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Message != "unknown barcode" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(pub.frames) != 1 || pub.frames[0].Type != streamdom.FrameScanError {
		t.Fatalf("expected a scan_error frame, got %+v", pub.frames)
	}
}

func TestResolveShortBarcodeRejectedWithoutStorage(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "sess-1")
	svc, pub := newTestService(st)

	res, err := svc.Resolve(context.Background(), domain.ScanInput{
		Barcode: "DR", SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Message != "barcode too short" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(st.scanLog) != 0 || len(pub.frames) != 0 {
		t.Fatalf("short barcode must not touch storage or broadcast (log=%d frames=%d)",
			len(st.scanLog), len(pub.frames))
	}
}

func TestResolveCancelReversesOneIncrement(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "sess-1")
	st.suppliers["SUP-A"] = domain.SupplierContext{ID: "sa", Name: "Alpha", Barcode: "SUP-A"}
	st.materials["MAT-1"] = domain.Material{ID: "m1", Name: "Acetone", Barcode: "MAT-1"}
	svc, pub := newTestService(st)
	ctx := context.Background()

	svc.Resolve(ctx, domain.ScanInput{Barcode: "SUP-A", SessionID: "sess-1"})
	svc.Resolve(ctx, domain.ScanInput{Barcode: "MAT-1", SessionID: "sess-1"})
	svc.Resolve(ctx, domain.ScanInput{Barcode: "MAT-1", SessionID: "sess-1"})

	res, err := svc.Resolve(ctx, domain.ScanInput{
		Barcode: "MAT-1", SessionID: "sess-1", Action: "cancel",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Outcome.Type != domain.OutcomeCancelled {
		t.Fatalf("expected a cancelled outcome, got %+v", res)
	}
	if n, _ := st.CountFor(ctx, "sess-1", "sa", "m1"); n != 1 {
		t.Fatalf("count = %d, want 1 after cancelling one of two", n)
	}
	last := pub.frames[len(pub.frames)-1]
	if last.Type != streamdom.FrameScanCancelled {
		t.Fatalf("frame type = %q, want scan_cancelled", last.Type)
	}
}

func TestResolveCancelWithNothingCounted(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "sess-1")
	st.suppliers["SUP-A"] = domain.SupplierContext{ID: "sa", Name: "Alpha", Barcode: "SUP-A"}
	st.materials["MAT-1"] = domain.Material{ID: "m1", Name: "Acetone", Barcode: "MAT-1"}
	svc, _ := newTestService(st)
	ctx := context.Background()

	svc.Resolve(ctx, domain.ScanInput{Barcode: "SUP-A", SessionID: "sess-1"})
	res, _ := svc.Resolve(ctx, domain.ScanInput{
		Barcode: "MAT-1", SessionID: "sess-1", Action: "cancel",
	})
	if res.Success || res.Message != "nothing to cancel" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolveOnCompletedSession(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "sess-1")
	st.sessions["sess-1"].Status = domain.StatusCompleted
	svc, _ := newTestService(st)

	res, err := svc.Resolve(context.Background(), domain.ScanInput{
		Barcode: "ANY-123", SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Message != "session already completed" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolveMissingSessionIsRequestError(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st)

	_, err := svc.Resolve(context.Background(), domain.ScanInput{
		Barcode: "ANY-123", SessionID: "ghost",
	})
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolvePersistenceFailureNotSilentlySuccessful(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "sess-1")
	st.suppliers["SUP-A"] = domain.SupplierContext{ID: "sa", Name: "Alpha", Barcode: "SUP-A"}
	st.failAppend = perr.DBf("insert failed")
	svc, pub := newTestService(st)

	res, err := svc.Resolve(context.Background(), domain.ScanInput{
		Barcode: "SUP-A", SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("persistence failures surface on the result, got error %v", err)
	}
	if res.Success {
		t.Fatal("a failed write must never read as success")
	}
	if res.Error == "" {
		t.Fatal("expected the failure text on the result")
	}
	if len(pub.frames) != 0 {
		t.Fatal("nothing may be broadcast for an uncommitted mutation")
	}
}

func TestResolveScanLogged(t *testing.T) {
	st := newFakeStore()
	seedSession(st, "sess-1")
	svc, _ := newTestService(st)

	svc.Resolve(context.Background(), domain.ScanInput{Barcode: "NOPE-404", SessionID: "sess-1"})
	if len(st.scanLog) != 1 {
		t.Fatalf("scan log entries = %d, want 1; error outcomes are logged too", len(st.scanLog))
	}
	if st.scanLog[0].Type != domain.OutcomeError {
		t.Fatalf("logged type = %q, want error", st.scanLog[0].Type)
	}
}

func TestSessionLifecycle(t *testing.T) {
	st := newFakeStore()
	svc, pub := newTestService(st)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "user-1", domain.StartSessionInput{JobID: "42"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.Status != domain.StatusIdle || sess.CreatedBy != "user-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	ended, err := svc.End(ctx, sess.ID, "user-1")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != domain.StatusCompleted || ended.CompletedAt == nil {
		t.Fatalf("unexpected ended session: %+v", ended)
	}
	if len(pub.frames) != 1 || pub.frames[0].Type != streamdom.FrameSessionEnded {
		t.Fatalf("expected a session_ended frame, got %+v", pub.frames)
	}
	if pub.keys[0] != "42" {
		t.Fatalf("frame key = %q, want the job id", pub.keys[0])
	}

	if _, err := svc.End(ctx, sess.ID, "user-1"); !perr.IsCode(err, perr.ErrorCodeState) {
		t.Fatalf("ending twice must be a state error, got %v", err)
	}
}

func TestEndSessionOwnerChecked(t *testing.T) {
	st := newFakeStore()
	svc, _ := newTestService(st)
	ctx := context.Background()

	sess, _ := svc.Start(ctx, "user-1", domain.StartSessionInput{})
	if _, err := svc.End(ctx, sess.ID, "someone-else"); !perr.IsCode(err, perr.ErrorCodeState) {
		t.Fatalf("foreign actor must not end the session, got %v", err)
	}
}
