// Package repo provides the scan repository implementation
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"scanhub/internal/modkit/repokit"
	perr "scanhub/internal/platform/errors"
	"scanhub/internal/services/scan/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the scan repository
type Storage interface {
	SupplierByBarcode(ctx context.Context, barcode string) (domain.SupplierContext, error)
	MaterialByBarcode(ctx context.Context, barcode string) (domain.Material, error)

	SessionByID(ctx context.Context, id string) (domain.Session, error)
	InsertSession(ctx context.Context, s domain.Session) error
	SetActiveSupplier(ctx context.Context, sessionID, supplierID string, status domain.SessionStatus) error
	MarkSessionStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error
	CompleteSession(ctx context.Context, sessionID, actor string, at time.Time) (domain.Session, error)

	IncrementCount(ctx context.Context, sessionID, supplierID, materialID string) error
	DecrementCount(ctx context.Context, sessionID, supplierID, materialID string) (bool, error)
	CountFor(ctx context.Context, sessionID, supplierID, materialID string) (int, error)

	AppendScanLog(ctx context.Context, o domain.ScanOutcome) error
}

// SupplierByBarcode implements Storage
func (s *pg) SupplierByBarcode(ctx context.Context, barcode string) (domain.SupplierContext, error) {
	const q = `
		SELECT id::text, name, barcode
		FROM suppliers
		WHERE barcode = $1`
	var out domain.SupplierContext
	err := s.q.QueryRow(ctx, q, barcode).Scan(&out.ID, &out.Name, &out.Barcode)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SupplierContext{}, perr.NotFoundf("no supplier for barcode %q", barcode)
	}
	if err != nil {
		return domain.SupplierContext{}, perr.FromPostgres(err, "supplier lookup")
	}
	return out, nil
}

// MaterialByBarcode implements Storage
func (s *pg) MaterialByBarcode(ctx context.Context, barcode string) (domain.Material, error) {
	const q = `
		SELECT id::text, name, code, barcode
		FROM materials
		WHERE barcode = $1`
	var out domain.Material
	err := s.q.QueryRow(ctx, q, barcode).Scan(&out.ID, &out.Name, &out.Code, &out.Barcode)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Material{}, perr.NotFoundf("no material for barcode %q", barcode)
	}
	if err != nil {
		return domain.Material{}, perr.FromPostgres(err, "material lookup")
	}
	return out, nil
}

// SessionByID implements Storage
func (s *pg) SessionByID(ctx context.Context, id string) (domain.Session, error) {
	const q = `
		SELECT id::text, created_by, COALESCE(job_id, ''), status, active_supplier_id::text,
		       started_at, completed_at
		FROM scan_sessions
		WHERE id = $1`
	var out domain.Session
	err := s.q.QueryRow(ctx, q, id).Scan(
		&out.ID, &out.CreatedBy, &out.JobID, &out.Status, &out.ActiveSupplierID,
		&out.StartedAt, &out.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, perr.NotFoundf("session %q not found", id)
	}
	if err != nil {
		return domain.Session{}, perr.FromPostgres(err, "session lookup")
	}
	return out, nil
}

// InsertSession implements Storage
func (s *pg) InsertSession(ctx context.Context, sess domain.Session) error {
	const q = `
		INSERT INTO scan_sessions (id, created_by, job_id, status, started_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)`
	_, err := s.q.Exec(ctx, q, sess.ID, sess.CreatedBy, sess.JobID, sess.Status, sess.StartedAt)
	return perr.FromPostgres(err, "insert session")
}

// SetActiveSupplier repoints the session's current context; no stacking
func (s *pg) SetActiveSupplier(
	ctx context.Context,
	sessionID, supplierID string,
	status domain.SessionStatus,
) error {
	const q = `
		UPDATE scan_sessions
		SET active_supplier_id = $2, status = $3
		WHERE id = $1`
	tag, err := s.q.Exec(ctx, q, sessionID, supplierID, status)
	if err != nil {
		return perr.FromPostgres(err, "set active supplier")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("session %q not found", sessionID)
	}
	return nil
}

// MarkSessionStatus implements Storage
func (s *pg) MarkSessionStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error {
	const q = `UPDATE scan_sessions SET status = $2 WHERE id = $1`
	tag, err := s.q.Exec(ctx, q, sessionID, status)
	if err != nil {
		return perr.FromPostgres(err, "mark session status")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("session %q not found", sessionID)
	}
	return nil
}

// CompleteSession transitions an owned, not yet completed session to completed
// rows affected zero means wrong owner, missing, or already completed
func (s *pg) CompleteSession(
	ctx context.Context,
	sessionID, actor string,
	at time.Time,
) (domain.Session, error) {
	const q = `
		UPDATE scan_sessions
		SET status = $4, completed_at = $3
		WHERE id = $1 AND created_by = $2 AND status <> $4
		RETURNING id::text, created_by, COALESCE(job_id, ''), status, active_supplier_id::text,
		          started_at, completed_at`
	var out domain.Session
	err := s.q.QueryRow(ctx, q, sessionID, actor, at, domain.StatusCompleted).Scan(
		&out.ID, &out.CreatedBy, &out.JobID, &out.Status, &out.ActiveSupplierID,
		&out.StartedAt, &out.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, perr.Statef("session not found or already completed")
	}
	if err != nil {
		return domain.Session{}, perr.FromPostgres(err, "complete session")
	}
	return out, nil
}

// IncrementCount upserts the per (context, item) counter atomically
func (s *pg) IncrementCount(ctx context.Context, sessionID, supplierID, materialID string) error {
	const q = `
		INSERT INTO drum_counts (session_id, supplier_id, material_id, qty)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (session_id, supplier_id, material_id)
		DO UPDATE SET qty = drum_counts.qty + 1`
	_, err := s.q.Exec(ctx, q, sessionID, supplierID, materialID)
	return perr.FromPostgres(err, "increment count")
}

// DecrementCount reverses one prior increment; ok=false when there is
// nothing to reverse, the counter never goes below zero
func (s *pg) DecrementCount(ctx context.Context, sessionID, supplierID, materialID string) (bool, error) {
	const q = `
		UPDATE drum_counts
		SET qty = qty - 1
		WHERE session_id = $1 AND supplier_id = $2 AND material_id = $3 AND qty > 0`
	tag, err := s.q.Exec(ctx, q, sessionID, supplierID, materialID)
	if err != nil {
		if perr.IsCheckViolation(err) {
			return false, nil
		}
		return false, perr.FromPostgres(err, "decrement count")
	}
	return tag.RowsAffected() > 0, nil
}

// CountFor implements Storage
func (s *pg) CountFor(ctx context.Context, sessionID, supplierID, materialID string) (int, error) {
	const q = `
		SELECT COALESCE(SUM(qty), 0)
		FROM drum_counts
		WHERE session_id = $1 AND supplier_id = $2 AND material_id = $3`
	var n int
	if err := s.q.QueryRow(ctx, q, sessionID, supplierID, materialID).Scan(&n); err != nil {
		return 0, perr.FromPostgres(err, "count lookup")
	}
	return n, nil
}

// AppendScanLog records every resolved barcode, error outcomes included
func (s *pg) AppendScanLog(ctx context.Context, o domain.ScanOutcome) error {
	const q = `
		INSERT INTO scan_log (id, session_id, barcode, outcome, message, device_id, scanned_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		ON CONFLICT (id) DO NOTHING`
	_, err := s.q.Exec(ctx, q, o.OutcomeID, o.SessionID, o.Barcode, o.Type, o.Message, o.DeviceID, o.Timestamp)
	return perr.FromPostgres(err, "append scan log")
}
