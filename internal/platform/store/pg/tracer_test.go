package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"select 1", "select 1"},
		{"  select   1  ", "select 1"},
		{"SELECT\t*\nFROM\r\tdrum_counts WHERE  qty >  0", "SELECT * FROM drum_counts WHERE qty > 0"},
		{"", ""},
	}
	for i, c := range cases {
		if got := compact(c.in); got != c.want {
			t.Fatalf("case %d: compact(%q) = %q, want %q", i, c.in, got, c.want)
		}
	}
}

func TestTracerEmitLevelsAndFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	// built the same way the store opener builds it: a component child
	// derived off an existing zerolog.Logger value
	zl := zerolog.New(&buf)
	tr := NewTracer(zl.With().Str("component", "pg").Logger())

	type logLine struct {
		Level     string `json:"level"`
		Kind      string `json:"kind"`
		SQL       string `json:"sql"`
		Args      int    `json:"args"`
		Error     string `json:"error"`
		Component string `json:"component"`
		Message   string `json:"message"`
	}
	decode := func(t *testing.T) logLine {
		t.Helper()
		var ll logLine
		if err := json.Unmarshal(buf.Bytes(), &ll); err != nil {
			t.Fatalf("decode log line: %v (line %q)", err, buf.String())
		}
		return ll
	}

	// happy path logs at debug with compacted sql
	tr.Emit(context.Background(), QueryEvent{
		Kind: "query",
		SQL:  "SELECT *\n  FROM scan_log\n  WHERE id = $1",
		Args: []any{"abc"},
	})
	ll := decode(t)
	if ll.Level != "debug" {
		t.Fatalf("level = %q, want debug", ll.Level)
	}
	if ll.SQL != "SELECT * FROM scan_log WHERE id = $1" {
		t.Fatalf("sql = %q", ll.SQL)
	}
	if ll.Kind != "query" || ll.Args != 1 {
		t.Fatalf("kind/args = %q/%d", ll.Kind, ll.Args)
	}
	if ll.Component != "pg" {
		t.Fatalf("component = %q, want pg", ll.Component)
	}

	// failures log at error
	buf.Reset()
	tr.Emit(context.Background(), QueryEvent{Kind: "exec", SQL: "DELETE FROM x", Err: errors.New("boom")})
	ll = decode(t)
	if ll.Level != "error" || ll.Error != "boom" {
		t.Fatalf("level/error = %q/%q, want error/boom", ll.Level, ll.Error)
	}

	// a cancelled context demotes the failure back to debug noise
	buf.Reset()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr.Emit(ctx, QueryEvent{Kind: "exec", SQL: "DELETE FROM x", Err: context.Canceled})
	ll = decode(t)
	if ll.Level != "debug" {
		t.Fatalf("level after cancel = %q, want debug", ll.Level)
	}
}
