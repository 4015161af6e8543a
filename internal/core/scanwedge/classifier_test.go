package scanwedge

import (
	"testing"
	"time"
)

func feedString(t *testing.T, c *Classifier, s string, start time.Time, gap time.Duration) time.Time {
	t.Helper()
	at := start
	for _, r := range s {
		if tok, ok := c.Feed(KeyEvent{Rune: r, At: at}); ok {
			t.Fatalf("unexpected token %q mid sequence", tok.Value)
		}
		at = at.Add(gap)
	}
	return at
}

func TestClassifierEnterTerminatedBurst(t *testing.T) {
	c := NewClassifier(Config{})
	start := time.Now()
	at := feedString(t, c, "DR-0001", start, 10*time.Millisecond)

	tok, ok := c.Feed(KeyEvent{Enter: true, At: at})
	if !ok {
		t.Fatal("expected a token on enter")
	}
	if tok.Value != "DR-0001" {
		t.Fatalf("token = %q, want DR-0001", tok.Value)
	}
	if c.Pending() {
		t.Fatal("buffer must be empty after emission")
	}
}

func TestClassifierTerminatorRuneExcluded(t *testing.T) {
	c := NewClassifier(Config{})
	start := time.Now()
	at := feedString(t, c, "SUP-9", start, 5*time.Millisecond)

	tok, ok := c.Feed(KeyEvent{Rune: '\\', At: at})
	if !ok {
		t.Fatal("expected a token on trailing backslash")
	}
	if tok.Value != "SUP-9" {
		t.Fatalf("token = %q, want SUP-9 without the terminator", tok.Value)
	}
}

func TestClassifierGapRestartsBuffer(t *testing.T) {
	c := NewClassifier(Config{GapThreshold: 100 * time.Millisecond})
	start := time.Now()
	at := feedString(t, c, "ABC", start, 10*time.Millisecond)

	// a human sized pause, then more characters
	at = at.Add(500 * time.Millisecond)
	at = feedString(t, c, "DEF", at, 10*time.Millisecond)

	tok, ok := c.Feed(KeyEvent{Enter: true, At: at})
	if !ok {
		t.Fatal("expected a token")
	}
	if tok.Value == "ABCDEF" {
		t.Fatal("pre gap characters must not survive into the token")
	}
	if tok.Value != "DEF" {
		t.Fatalf("token = %q, want DEF", tok.Value)
	}
}

func TestClassifierMinLength(t *testing.T) {
	cases := []struct {
		name  string
		value string
		enter bool
	}{
		{"short via enter", "AB", true},
		{"short via flush", "XY", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(Config{})
			start := time.Now()
			at := feedString(t, c, tc.value, start, 10*time.Millisecond)

			if tc.enter {
				if tok, ok := c.Feed(KeyEvent{Enter: true, At: at}); ok {
					t.Fatalf("short token %q must not be emitted", tok.Value)
				}
			} else {
				if tok, ok := c.Flush(at.Add(time.Second)); ok {
					t.Fatalf("short token %q must not be emitted", tok.Value)
				}
			}
			if c.Pending() {
				t.Fatal("buffer must be cleared after discard")
			}
		})
	}
}

func TestClassifierInactivityFlush(t *testing.T) {
	c := NewClassifier(Config{FlushAfter: 300 * time.Millisecond})
	start := time.Now()
	at := feedString(t, c, "MAT-77", start, 10*time.Millisecond)

	deadline, ok := c.FlushDeadline()
	if !ok {
		t.Fatal("expected a flush deadline while buffered")
	}

	// a premature tick must not split the burst
	if _, ok := c.Flush(deadline.Add(-time.Millisecond)); ok {
		t.Fatal("flush before the deadline must be a no-op")
	}

	tok, ok := c.Flush(deadline.Add(time.Millisecond))
	if !ok {
		t.Fatal("expected a token after the inactivity window")
	}
	if tok.Value != "MAT-77" {
		t.Fatalf("token = %q, want MAT-77", tok.Value)
	}
	if _, ok := c.FlushDeadline(); ok {
		t.Fatal("no deadline expected with an empty buffer")
	}
	_ = at
}

func TestClassifierBuffersAcrossEmissions(t *testing.T) {
	c := NewClassifier(Config{})
	start := time.Now()

	at := feedString(t, c, "AAA-1", start, 5*time.Millisecond)
	if _, ok := c.Feed(KeyEvent{Enter: true, At: at}); !ok {
		t.Fatal("expected first token")
	}

	at = at.Add(50 * time.Millisecond)
	at = feedString(t, c, "BBB-2", at, 5*time.Millisecond)
	tok, ok := c.Feed(KeyEvent{Enter: true, At: at})
	if !ok {
		t.Fatal("expected second token")
	}
	if tok.Value != "BBB-2" {
		t.Fatalf("token = %q, want BBB-2", tok.Value)
	}
}
