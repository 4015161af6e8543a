package scanwedge

import (
	"context"
	"sync"
	"time"
)

// Defaults for GuardianConfig fields left zero
const (
	DefaultFocusTick      = 500 * time.Millisecond
	DefaultRestoreDelay   = 100 * time.Millisecond
	defaultPokeBufferSize = 8
)

// Surface is the capture surface the guardian keeps focused
// implementations wrap whatever input element the host UI exposes
type Surface interface {
	HasFocus() bool
	Focus()
	Blur()
	SetEditable(editable bool)
}

// GuardianConfig parameterizes the focus keeper
type GuardianConfig struct {
	// Tick is the periodic focus check interval
	Tick time.Duration

	// SuppressKeyboard toggles editability around programmatic focus so
	// touch devices do not raise a soft keyboard
	SuppressKeyboard bool

	// RestoreDelay is how long the surface stays non editable after focus
	RestoreDelay time.Duration
}

func (c GuardianConfig) withDefaults() GuardianConfig {
	if c.Tick <= 0 {
		c.Tick = DefaultFocusTick
	}
	if c.RestoreDelay <= 0 {
		c.RestoreDelay = DefaultRestoreDelay
	}
	return c
}

// Guardian keeps a Surface focused while scanning is active
// liveness only: a missed refocus is a capture gap, never an error
type Guardian struct {
	cfg     GuardianConfig
	surface Surface

	mu      sync.Mutex
	active  bool
	restore *time.Timer

	pokes chan struct{}

	// after is a seam over time.AfterFunc for deterministic tests
	after func(d time.Duration, fn func()) *time.Timer
}

// NewGuardian builds a guardian over surface
func NewGuardian(surface Surface, cfg GuardianConfig) *Guardian {
	return &Guardian{
		cfg:     cfg.withDefaults(),
		surface: surface,
		pokes:   make(chan struct{}, defaultPokeBufferSize),
		after:   time.AfterFunc,
	}
}

// Activate starts fighting for focus
func (g *Guardian) Activate() {
	g.mu.Lock()
	g.active = true
	g.mu.Unlock()
	g.Poke()
}

// Deactivate stops fighting for focus and releases it so other
// controls become usable
func (g *Guardian) Deactivate() {
	g.mu.Lock()
	g.active = false
	if g.restore != nil {
		g.restore.Stop()
		g.restore = nil
		g.surface.SetEditable(true)
	}
	g.mu.Unlock()
	g.surface.Blur()
}

// Poke requests an immediate focus check, called on external
// focus, touch and click events; never blocks
func (g *Guardian) Poke() {
	select {
	case g.pokes <- struct{}{}:
	default:
	}
}

// Check performs one focus check
func (g *Guardian) Check() {
	g.mu.Lock()
	active := g.active
	g.mu.Unlock()
	if !active || g.surface.HasFocus() {
		return
	}
	g.focus()
}

// Run drives periodic checks and pokes until ctx is cancelled
// pending restore timers are stopped on exit, nothing fires after teardown
func (g *Guardian) Run(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			g.mu.Lock()
			if g.restore != nil {
				g.restore.Stop()
				g.restore = nil
			}
			g.mu.Unlock()
			return
		case <-ticker.C:
			g.Check()
		case <-g.pokes:
			g.Check()
		}
	}
}

func (g *Guardian) focus() {
	if !g.cfg.SuppressKeyboard {
		g.surface.Focus()
		return
	}
	// non editable around focus keeps the soft keyboard down,
	// editability comes back shortly after
	g.surface.SetEditable(false)
	g.surface.Focus()
	g.mu.Lock()
	if g.restore != nil {
		g.restore.Stop()
	}
	g.restore = g.after(g.cfg.RestoreDelay, func() {
		g.surface.SetEditable(true)
	})
	g.mu.Unlock()
}
