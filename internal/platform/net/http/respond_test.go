package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	perr "scanhub/internal/platform/errors"
)

func doHandle(t *testing.T, fn func(*stdhttp.Request) Response) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodGet, "/", nil)
	Handle(fn)(rr, req)

	var env Envelope
	if rr.Code != stdhttp.StatusNoContent {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("bad envelope %q: %v", rr.Body.String(), err)
		}
	}
	return rr, env
}

func TestHandleOK(t *testing.T) {
	rr, env := doHandle(t, func(*stdhttp.Request) Response {
		return OK(map[string]string{"hello": "world"})
	})
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if env.StatusCode != stdhttp.StatusOK || env.Data == nil {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestHandleNoContent(t *testing.T) {
	rr, _ := doHandle(t, func(*stdhttp.Request) Response { return NoContent() })
	if rr.Code != stdhttp.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("204 must have an empty body, got %q", rr.Body.String())
	}
}

func TestHandleErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", perr.NotFoundf("session %q not found", "x"), stdhttp.StatusNotFound},
		{"state", perr.Statef("already completed"), stdhttp.StatusConflict},
		{"validation", perr.Validationf("barcode too short"), stdhttp.StatusBadRequest},
		{"unauthorized", perr.Unauthorizedf("missing bearer token"), stdhttp.StatusUnauthorized},
		{"db", perr.DBf("insert failed"), stdhttp.StatusInternalServerError},
		{"unavailable", perr.Unavailablef("downstream gone"), stdhttp.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, env := doHandle(t, func(*stdhttp.Request) Response { return Error(tc.err) })
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if env.Error == "" {
				t.Fatal("expected an error message on the envelope")
			}
		})
	}
}
