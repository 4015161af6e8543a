package hub

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"scanhub/internal/services/stream/domain"
)

func newTestHub(buffer int) *Hub {
	return New(Options{Buffer: buffer, Log: zerolog.Nop()})
}

func recvFrame(t *testing.T, h *Handle) domain.Frame {
	t.Helper()
	select {
	case f, ok := <-h.Frames():
		if !ok {
			t.Fatal("frames channel closed")
		}
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return domain.Frame{}
}

func TestSubscribeConnectedFirst(t *testing.T) {
	h := newTestHub(4)
	hd := h.Subscribe("42")
	defer hd.Close()

	h.Publish("42", domain.Frame{Type: domain.FrameScanSuccess, Barcode: "DR-0001", JobID: "42"})

	first := recvFrame(t, hd)
	if first.Type != domain.FrameConnected {
		t.Fatalf("first frame = %q, want connected", first.Type)
	}
	second := recvFrame(t, hd)
	if second.Type != domain.FrameScanSuccess || second.Barcode != "DR-0001" {
		t.Fatalf("second frame = %+v, want the scan_success", second)
	}
}

func TestPublishReachesOnlyMatchingKey(t *testing.T) {
	h := newTestHub(4)
	a1 := h.Subscribe("jobA")
	a2 := h.Subscribe("jobA")
	b := h.Subscribe("jobB")
	defer a1.Close()
	defer a2.Close()
	defer b.Close()

	recvFrame(t, a1) // connected
	recvFrame(t, a2)
	recvFrame(t, b)

	h.Publish("jobA", domain.Frame{Type: domain.FrameScanSuccess, ScanID: "s1"})

	if f := recvFrame(t, a1); f.ScanID != "s1" {
		t.Fatalf("a1 got %+v", f)
	}
	if f := recvFrame(t, a2); f.ScanID != "s1" {
		t.Fatalf("a2 got %+v", f)
	}
	select {
	case f := <-b.Frames():
		t.Fatalf("jobB listener must not receive jobA frames, got %+v", f)
	default:
	}
}

func TestPublishOrderPreservedPerKey(t *testing.T) {
	h := newTestHub(8)
	hd := h.Subscribe("42")
	defer hd.Close()
	recvFrame(t, hd) // connected

	for _, id := range []string{"s1", "s2", "s3"} {
		h.Publish("42", domain.Frame{Type: domain.FrameScanSuccess, ScanID: id})
	}
	for _, want := range []string{"s1", "s2", "s3"} {
		if f := recvFrame(t, hd); f.ScanID != want {
			t.Fatalf("got %q, want %q", f.ScanID, want)
		}
	}
}

func TestCloseDeregistersAndDeletesEmptyKey(t *testing.T) {
	h := newTestHub(4)
	hd := h.Subscribe("42")
	other := h.Subscribe("42")

	hd.Close()
	if h.Listeners("42") != 1 {
		t.Fatalf("listeners = %d, want 1", h.Listeners("42"))
	}

	// publishing after a close must not error or deliver to the closed handle
	h.Publish("42", domain.Frame{Type: domain.FrameScanSuccess, ScanID: "s1"})
	recvFrame(t, other) // connected
	if f := recvFrame(t, other); f.ScanID != "s1" {
		t.Fatalf("surviving listener got %+v", f)
	}

	other.Close()
	if h.Keys() != 0 {
		t.Fatalf("keys = %d, want 0 once the last listener is gone", h.Keys())
	}

	// closing twice is safe
	hd.Close()
}

func TestPublishWithNoListenersDrops(t *testing.T) {
	h := newTestHub(4)
	h.Publish("nobody", domain.Frame{Type: domain.FrameScanSuccess})
	if h.Keys() != 0 {
		t.Fatal("publishing to an unwatched key must not create index entries")
	}
}

func TestSlowListenerDropped(t *testing.T) {
	h := newTestHub(2)
	slow := h.Subscribe("42")
	fast := h.Subscribe("42")

	// drain fast, leave slow's buffer to fill (connected frame occupies one slot)
	recvFrame(t, fast)

	h.Publish("42", domain.Frame{ScanID: "s1"})
	h.Publish("42", domain.Frame{ScanID: "s2"}) // overflows slow

	if h.Listeners("42") != 1 {
		t.Fatalf("listeners = %d, want 1 after dropping the slow handle", h.Listeners("42"))
	}

	// the fast listener keeps receiving
	if f := recvFrame(t, fast); f.ScanID != "s1" {
		t.Fatalf("fast got %+v", f)
	}
	_ = slow
}
