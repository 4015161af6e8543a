// Package scanwedge turns raw keystroke streams from keyboard wedge scanners
// into discrete barcode tokens and carries them to the resolver
package scanwedge

import "time"

// Defaults for Config fields left zero
const (
	DefaultGapThreshold = 100 * time.Millisecond
	DefaultFlushAfter   = 300 * time.Millisecond
	DefaultMinLength    = 3
)

// Config parameterizes one classifier instance
// the observed scanner fleet differs on thresholds and terminator conventions,
// so all of them are knobs
type Config struct {
	// GapThreshold is the max inter key gap inside one scanner burst
	// a larger gap discards the buffer and restarts it
	GapThreshold time.Duration

	// FlushAfter is the inactivity window after which a terminatorless
	// buffer is flushed as a token
	FlushAfter time.Duration

	// MinLength drops shorter buffers silently on flush
	MinLength int

	// Terminators close the buffer when seen; never included in the token
	// nil means CR, LF and trailing backslash
	Terminators []rune
}

func (c Config) withDefaults() Config {
	if c.GapThreshold <= 0 {
		c.GapThreshold = DefaultGapThreshold
	}
	if c.FlushAfter <= 0 {
		c.FlushAfter = DefaultFlushAfter
	}
	if c.MinLength <= 0 {
		c.MinLength = DefaultMinLength
	}
	if c.Terminators == nil {
		c.Terminators = []rune{'\r', '\n', '\\'}
	}
	return c
}

// KeyEvent is one timestamped key press from the capture surface
type KeyEvent struct {
	Rune rune
	// Enter marks the enter key, which terminates regardless of Terminators
	Enter bool
	At    time.Time
}

// Token is a fully assembled barcode value
// immutable once emitted
type Token struct {
	Value      string
	CapturedAt time.Time
}

// Classifier owns the rolling buffer for one capture surface
// state is explicit so several surfaces can coexist in one process;
// not safe for concurrent use, callers feed from a single loop
type Classifier struct {
	cfg  Config
	buf  []rune
	last time.Time
}

// NewClassifier builds a classifier with cfg, filling zero fields with defaults
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg.withDefaults()}
}

// Feed consumes one key event and reports a completed token when a
// terminator closes the buffer
func (c *Classifier) Feed(ev KeyEvent) (Token, bool) {
	if ev.Enter {
		return c.emit(ev.At)
	}
	for _, t := range c.cfg.Terminators {
		if ev.Rune == t {
			return c.emit(ev.At)
		}
	}

	// a slow gap means a human typing, not a scanner burst;
	// restart the buffer with the new character
	if len(c.buf) > 0 && ev.At.Sub(c.last) > c.cfg.GapThreshold {
		c.buf = c.buf[:0]
	}
	c.buf = append(c.buf, ev.Rune)
	c.last = ev.At
	return Token{}, false
}

// FlushDeadline reports when the inactivity flush is due
// ok is false while the buffer is empty
func (c *Classifier) FlushDeadline() (time.Time, bool) {
	if len(c.buf) == 0 {
		return time.Time{}, false
	}
	return c.last.Add(c.cfg.FlushAfter), true
}

// Flush emits the buffer as a token when the inactivity window has
// elapsed at now; early calls are a no-op so a stale timer cannot
// split an in-progress burst
func (c *Classifier) Flush(now time.Time) (Token, bool) {
	if len(c.buf) == 0 {
		return Token{}, false
	}
	if now.Before(c.last.Add(c.cfg.FlushAfter)) {
		return Token{}, false
	}
	return c.emit(now)
}

// Pending reports whether any characters are buffered
func (c *Classifier) Pending() bool { return len(c.buf) > 0 }

// emit closes the buffer; sub minimum buffers are discarded silently
// the buffer is always cleared so the next scan starts empty
func (c *Classifier) emit(at time.Time) (Token, bool) {
	defer func() {
		c.buf = c.buf[:0]
		c.last = time.Time{}
	}()
	if len(c.buf) < c.cfg.MinLength {
		return Token{}, false
	}
	return Token{Value: string(c.buf), CapturedAt: at}, true
}
