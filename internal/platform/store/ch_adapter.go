package store

import (
	"context"

	"scanhub/internal/platform/store/ch"
)

// clickhouseAdapter satisfies Clickhouse over the native ch client
type clickhouseAdapter struct {
	ch *ch.CH
}

func (a *clickhouseAdapter) Insert(ctx context.Context, table string, rows [][]any) error {
	return a.ch.Insert(ctx, table, rows)
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := a.ch.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{rows}, nil
}

func (a *clickhouseAdapter) Ping(ctx context.Context) error { return a.ch.Ping(ctx) }

func (a *clickhouseAdapter) Close() error { return a.ch.Close() }

// chRows adapts the driver rows, which close with an error, to the store seam
type chRows struct{ rows ch.Rows }

func (r chRows) Next() bool             { return r.rows.Next() }
func (r chRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r chRows) Err() error             { return r.rows.Err() }
func (r chRows) Close()                 { _ = r.rows.Close() }
func (r chRows) Columns() []string      { return r.rows.Columns() }
