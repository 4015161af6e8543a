package pg

import (
	"context"
	"strings"
	"time"

	"scanhub/internal/platform/logger"
)

// QueryEvent describes one sql round trip for instrumentation
type QueryEvent struct {
	Kind    string // exec, query, query_row, tx
	SQL     string
	Args    []any
	Err     error
	Elapsed time.Duration
}

// QueryTracer receives a QueryEvent per statement
type QueryTracer interface {
	Emit(ctx context.Context, ev QueryEvent)
}

// Tracer is the default QueryTracer that logs via zerolog
type Tracer struct {
	log logger.Logger
}

// NewTracer builds a Tracer over log
func NewTracer(log logger.Logger) *Tracer { return &Tracer{log: log} }

// Emit logs the event; failures at error, everything else at debug
func (t *Tracer) Emit(ctx context.Context, ev QueryEvent) {
	if t == nil {
		return
	}
	e := t.log.Debug()
	if ev.Err != nil && ctx.Err() == nil {
		e = t.log.Error().Err(ev.Err)
	}
	e.Str("kind", ev.Kind).
		Str("sql", compact(ev.SQL)).
		Int("args", len(ev.Args)).
		Dur("elapsed", ev.Elapsed).
		Msg("pg query")
}

// compact collapses runs of whitespace so multiline sql logs on one line
func compact(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
