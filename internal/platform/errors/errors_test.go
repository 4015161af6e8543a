package errors

import (
	stderrs "errors"
	"net/http"
	"testing"
)

func TestCodeOfWrapped(t *testing.T) {
	base := Statef("session already completed")
	wrapped := Wrap(base, ErrorCodeDB, "complete session")

	if CodeOf(wrapped) != ErrorCodeDB {
		t.Fatalf("outermost code wins, got %v", CodeOf(wrapped))
	}
	if !stderrs.Is(wrapped, base) {
		t.Fatal("wrapping must preserve the chain")
	}
}

func TestStateMapsToConflict(t *testing.T) {
	if got := HTTPStatus(Statef("no supplier set")); got != http.StatusConflict {
		t.Fatalf("status = %d, want 409", got)
	}
}

func TestRootUnwrapsToCause(t *testing.T) {
	cause := stderrs.New("connection refused")
	err := Wrapf(cause, ErrorCodeUnavailable, "resolver call")
	if Root(err) != cause {
		t.Fatalf("root = %v", Root(err))
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(Unavailablef("downstream gone")) {
		t.Fatal("transport errors are retryable")
	}
	if Retryable(Validationf("bad input")) {
		t.Fatal("validation errors are not retryable")
	}
}

func TestWithField(t *testing.T) {
	err := WithField(Validationf("too short"), "barcode")
	e, ok := As(err)
	if !ok || e.Field() != "barcode" {
		t.Fatalf("field = %+v", e)
	}
}

func TestWireFromPlainError(t *testing.T) {
	w := WireFrom(stderrs.New("boom"))
	if w.Code != ErrorCodeUnknown {
		t.Fatalf("code = %v, want unknown", w.Code)
	}
}
