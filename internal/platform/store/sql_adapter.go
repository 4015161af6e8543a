package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"scanhub/internal/platform/store/pg"
)

// pgAdapter satisfies TxRunner over the pgx pool and traces every statement
type pgAdapter struct {
	client *pg.PG
	tracer pg.QueryTracer
}

func (a *pgAdapter) emit(ctx context.Context, kind, sql string, args []any, err error, start time.Time) {
	if a.tracer == nil {
		return
	}
	a.tracer.Emit(ctx, pg.QueryEvent{
		Kind:    kind,
		SQL:     sql,
		Args:    args,
		Err:     err,
		Elapsed: time.Since(start),
	})
}

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	tag, err := a.client.Pool().Exec(ctx, sql, args...)
	a.emit(ctx, "exec", sql, args, err, start)
	if err != nil {
		return nil, err
	}
	return commandTag{tag}, nil
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rows, err := a.client.Pool().Query(ctx, sql, args...)
	a.emit(ctx, "query", sql, args, err, start)
	if err != nil {
		return nil, err
	}
	return rowsAdapter{rows}, nil
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	row := a.client.Pool().QueryRow(ctx, sql, args...)
	a.emit(ctx, "query_row", sql, args, nil, start)
	return row
}

// Tx runs fn inside a transaction; fn returning error rolls back
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	start := time.Now()
	tx, err := a.client.Pool().Begin(ctx)
	if err != nil {
		a.emit(ctx, "tx", "BEGIN", nil, err, start)
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txQuerier{tx: tx, parent: a}); err != nil {
		a.emit(ctx, "tx", "ROLLBACK", nil, err, start)
		return err
	}

	err = tx.Commit(ctx)
	a.emit(ctx, "tx", "COMMIT", nil, err, start)
	return err
}

// Close releases the underlying pool
func (a *pgAdapter) Close() error { return a.client.Close() }

// Ping checks connectivity for Guard
func (a *pgAdapter) Ping(ctx context.Context) error { return a.client.Ping(ctx) }

// txQuerier routes RowQuerier calls through an open transaction
type txQuerier struct {
	tx     pgx.Tx
	parent *pgAdapter
}

func (t *txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	tag, err := t.tx.Exec(ctx, sql, args...)
	t.parent.emit(ctx, "exec", sql, args, err, start)
	if err != nil {
		return nil, err
	}
	return commandTag{tag}, nil
}

func (t *txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rows, err := t.tx.Query(ctx, sql, args...)
	t.parent.emit(ctx, "query", sql, args, err, start)
	if err != nil {
		return nil, err
	}
	return rowsAdapter{rows}, nil
}

func (t *txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	row := t.tx.QueryRow(ctx, sql, args...)
	t.parent.emit(ctx, "query_row", sql, args, nil, start)
	return row
}

// commandTag adapts pgconn.CommandTag to the store seam
type commandTag struct{ tag pgconn.CommandTag }

func (c commandTag) String() string      { return c.tag.String() }
func (c commandTag) RowsAffected() int64 { return c.tag.RowsAffected() }

// rowsAdapter adapts pgx.Rows to the store seam
type rowsAdapter struct{ rows pgx.Rows }

func (r rowsAdapter) Next() bool             { return r.rows.Next() }
func (r rowsAdapter) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r rowsAdapter) Err() error             { return r.rows.Err() }
func (r rowsAdapter) Close()                 { r.rows.Close() }

func (r rowsAdapter) Columns() []string {
	fds := r.rows.FieldDescriptions()
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = string(fd.Name)
	}
	return out
}
