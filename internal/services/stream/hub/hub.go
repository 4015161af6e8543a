// Package hub implements the in process broadcaster for scan outcome frames
package hub

import (
	"sync"
	"time"

	"scanhub/internal/platform/logger"
	"scanhub/internal/services/stream/domain"
)

// DefaultBuffer is the per subscriber frame buffer
// a subscriber that falls this far behind is dropped
const DefaultBuffer = 16

// Handle is one live subscription
// owned by the hub; callers read Frames and call Close when the
// underlying connection goes away
type Handle struct {
	key    string
	frames chan domain.Frame
	hub    *Hub
	once   sync.Once
}

// Frames is the subscriber's receive channel; closed on deregistration
func (h *Handle) Frames() <-chan domain.Frame { return h.frames }

// Key returns the subscription key
func (h *Handle) Key() string { return h.key }

// Close deregisters the handle; safe to call more than once
func (h *Handle) Close() { h.hub.unsubscribe(h) }

// Options configures a Hub
type Options struct {
	// Buffer is the per subscriber channel capacity, DefaultBuffer when zero
	Buffer int

	Log logger.Logger
}

// Hub maps keys to their live subscribers and fans frames out
// safe for concurrent publish, subscribe and unsubscribe
type Hub struct {
	mu     sync.Mutex
	subs   map[string][]*Handle
	buffer int
	log    logger.Logger

	now func() time.Time
}

// New constructs a Hub
func New(opts Options) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string][]*Handle),
		buffer: opts.Buffer,
		log:    opts.Log,
		now:    time.Now,
	}
}

// Subscribe registers a new listener for key
// the synthetic connected frame is queued before registration, so it is
// always the first frame and precedes any concurrent publish
func (h *Hub) Subscribe(key string) *Handle {
	hd := &Handle{
		key:    key,
		frames: make(chan domain.Frame, h.buffer),
		hub:    h,
	}
	hd.frames <- domain.Connected(h.now().UTC())

	h.mu.Lock()
	h.subs[key] = append(h.subs[key], hd)
	n := len(h.subs[key])
	h.mu.Unlock()

	h.log.Debug().Str("key", key).Int("listeners", n).Msg("stream subscribe")
	return hd
}

// Publish delivers f to every listener on key, in subscribe order
// delivery is best effort: no listeners means a drop, and a listener
// whose buffer is full is deregistered rather than blocked on
func (h *Hub) Publish(key string, f domain.Frame) {
	var dropped []*Handle

	h.mu.Lock()
	for _, hd := range h.subs[key] {
		select {
		case hd.frames <- f:
		default:
			dropped = append(dropped, hd)
		}
	}
	h.mu.Unlock()

	for _, hd := range dropped {
		h.log.Warn().Str("key", key).Msg("slow stream listener dropped")
		h.unsubscribe(hd)
	}
}

// Listeners reports the number of live subscriptions for key
func (h *Hub) Listeners(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key])
}

// Keys reports the number of keys currently indexed
func (h *Hub) Keys() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// unsubscribe removes hd from the index, deleting the key entry once its
// last listener is gone so the index never grows for unwatched keys
func (h *Hub) unsubscribe(hd *Handle) {
	h.mu.Lock()
	list := h.subs[hd.key]
	for i, x := range list {
		if x == hd {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(h.subs, hd.key)
	} else {
		h.subs[hd.key] = list
	}
	h.mu.Unlock()

	hd.once.Do(func() { close(hd.frames) })
}
