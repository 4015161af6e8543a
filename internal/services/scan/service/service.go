// Package service implements the scan session resolver
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"scanhub/internal/modkit/repokit"
	perr "scanhub/internal/platform/errors"
	"scanhub/internal/platform/logger"
	"scanhub/internal/platform/store"
	"scanhub/internal/services/scan/domain"
	"scanhub/internal/services/scan/repo"
	streamdom "scanhub/internal/services/stream/domain"
)

// MinBarcodeLength mirrors the classifier's floor; shorter submissions
// are rejected without touching storage
const MinBarcodeLength = 3

// Options wires the service collaborators
type Options struct {
	// Publisher fans resolved outcomes out to live listeners, optional
	Publisher streamdom.PublisherPort

	// Mirror receives an analytics copy of every resolved scan, optional
	Mirror store.Clickhouse

	Log logger.Logger
}

// Service implements domain.ResolverPort and domain.SessionPort
type Service struct {
	db    repokit.TxRunner
	repos repokit.Binder[repo.Storage]
	pub   streamdom.PublisherPort
	mir   store.Clickhouse
	log   logger.Logger

	now   func() time.Time
	newID func() string
}

// New constructs the scan service
func New(db repokit.TxRunner, repos repokit.Binder[repo.Storage], opts Options) *Service {
	return &Service{
		db:    db,
		repos: repos,
		pub:   opts.Publisher,
		mir:   opts.Mirror,
		log:   opts.Log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Resolve implements domain.ResolverPort: interprets one barcode against
// the session state machine, mutates counters and the scan log in a single
// transaction, then broadcasts and mirrors the outcome best effort.
// Validation and state rejections come back success=false, never as errors
func (s *Service) Resolve(ctx context.Context, in domain.ScanInput) (domain.ScanResult, error) {
	if in.Action == "" {
		in.Action = "scan"
	}
	if len(in.Barcode) < MinBarcodeLength {
		return domain.ScanResult{
			Success: false,
			Message: "barcode too short",
		}, nil
	}

	var outcome domain.ScanOutcome
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		st := s.repos.Bind(q)
		var txErr error
		outcome, txErr = s.resolveTx(ctx, st, in)
		return txErr
	})
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			// the session itself is missing; that is a request error,
			// not a scan outcome
			return domain.ScanResult{}, err
		}
		// a failed write must never read as success
		s.log.Error().Err(err).Str("barcode", in.Barcode).Msg("scan mutation failed")
		return domain.ScanResult{
			Success: false,
			Message: "scan could not be recorded",
			Error:   err.Error(),
		}, nil
	}

	// the mutation is durable at this point; broadcast and mirror are
	// best effort and never roll it back
	s.broadcast(outcome)
	s.mirror(ctx, outcome)

	return domain.ScanResult{
		Success: outcome.Type != domain.OutcomeError,
		ScanID:  outcome.OutcomeID,
		Message: outcome.Message,
		Outcome: &outcome,
	}, nil
}

func (s *Service) resolveTx(
	ctx context.Context,
	st repo.Storage,
	in domain.ScanInput,
) (domain.ScanOutcome, error) {
	sess, err := st.SessionByID(ctx, in.SessionID)
	if err != nil {
		return domain.ScanOutcome{}, err
	}

	outcome := domain.ScanOutcome{
		OutcomeID: s.newID(),
		SessionID: sess.ID,
		JobID:     firstNonEmpty(in.JobID, sess.JobID),
		Barcode:   in.Barcode,
		DeviceID:  in.DeviceID,
		Timestamp: s.now().UTC(),
	}

	switch {
	case sess.Status == domain.StatusCompleted:
		outcome.Type = domain.OutcomeError
		outcome.Message = "session already completed"

	case in.Action == "cancel":
		if err := s.resolveCancel(ctx, st, sess, &outcome); err != nil {
			return domain.ScanOutcome{}, err
		}

	default:
		if err := s.resolveScan(ctx, st, sess, &outcome); err != nil {
			return domain.ScanOutcome{}, err
		}
	}

	if err := st.AppendScanLog(ctx, outcome); err != nil {
		return domain.ScanOutcome{}, err
	}
	return outcome, nil
}

// resolveScan applies the context/counting semantics:
// a context barcode always repoints the active context, a counting
// barcode requires one, anything else is unknown
func (s *Service) resolveScan(
	ctx context.Context,
	st repo.Storage,
	sess domain.Session,
	outcome *domain.ScanOutcome,
) error {
	sup, err := st.SupplierByBarcode(ctx, outcome.Barcode)
	switch {
	case err == nil:
		if err := st.SetActiveSupplier(ctx, sess.ID, sup.ID, domain.StatusContextSet); err != nil {
			return err
		}
		outcome.Type = domain.OutcomeSuccess
		outcome.Entity = sup.Name
		outcome.Message = "supplier set: " + sup.Name
		return nil
	case !perr.IsCode(err, perr.ErrorCodeNotFound):
		return err
	}

	mat, err := st.MaterialByBarcode(ctx, outcome.Barcode)
	switch {
	case err == nil:
		if sess.ActiveSupplierID == nil {
			// state unchanged, counter untouched
			outcome.Type = domain.OutcomeError
			outcome.Message = "no supplier set"
			return nil
		}
		if err := st.IncrementCount(ctx, sess.ID, *sess.ActiveSupplierID, mat.ID); err != nil {
			return err
		}
		if err := st.MarkSessionStatus(ctx, sess.ID, domain.StatusActive); err != nil {
			return err
		}
		outcome.Type = domain.OutcomeSuccess
		outcome.Entity = mat.Name
		outcome.Message = "counted: " + mat.Name
		return nil
	case !perr.IsCode(err, perr.ErrorCodeNotFound):
		return err
	}

	outcome.Type = domain.OutcomeError
	outcome.Message = "unknown barcode"
	return nil
}

// resolveCancel reverses exactly one prior increment, always explicitly
func (s *Service) resolveCancel(
	ctx context.Context,
	st repo.Storage,
	sess domain.Session,
	outcome *domain.ScanOutcome,
) error {
	mat, err := st.MaterialByBarcode(ctx, outcome.Barcode)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			outcome.Type = domain.OutcomeError
			outcome.Message = "unknown barcode"
			return nil
		}
		return err
	}
	if sess.ActiveSupplierID == nil {
		outcome.Type = domain.OutcomeError
		outcome.Message = "no supplier set"
		return nil
	}

	ok, err := st.DecrementCount(ctx, sess.ID, *sess.ActiveSupplierID, mat.ID)
	if err != nil {
		return err
	}
	if !ok {
		outcome.Type = domain.OutcomeError
		outcome.Message = "nothing to cancel"
		return nil
	}
	outcome.Type = domain.OutcomeCancelled
	outcome.Entity = mat.Name
	outcome.Message = "cancelled: " + mat.Name
	return nil
}

// Start implements domain.SessionPort
func (s *Service) Start(
	ctx context.Context,
	createdBy string,
	in domain.StartSessionInput,
) (domain.Session, error) {
	sess := domain.Session{
		ID:        s.newID(),
		CreatedBy: createdBy,
		JobID:     in.JobID,
		Status:    domain.StatusIdle,
		StartedAt: s.now().UTC(),
	}
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		return s.repos.Bind(q).InsertSession(ctx, sess)
	})
	if err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// End implements domain.SessionPort; ending twice is a state error, not a crash
func (s *Service) End(ctx context.Context, id, actor string) (domain.Session, error) {
	var sess domain.Session
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		var txErr error
		sess, txErr = s.repos.Bind(q).CompleteSession(ctx, id, actor, s.now().UTC())
		return txErr
	})
	if err != nil {
		return domain.Session{}, err
	}

	if s.pub != nil {
		s.pub.Publish(streamKey(sess.JobID, sess.ID), streamdom.Frame{
			Type:      streamdom.FrameSessionEnded,
			JobID:     sess.JobID,
			Timestamp: s.now().UTC(),
		})
	}
	return sess, nil
}

// Get implements domain.SessionPort
func (s *Service) Get(ctx context.Context, id string) (domain.Session, error) {
	var sess domain.Session
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		var txErr error
		sess, txErr = s.repos.Bind(q).SessionByID(ctx, id)
		return txErr
	})
	return sess, err
}

func (s *Service) broadcast(o domain.ScanOutcome) {
	if s.pub == nil {
		return
	}
	frame := streamdom.Frame{
		Type:      streamdom.FrameScanSuccess,
		Barcode:   o.Barcode,
		JobID:     o.JobID,
		ScanID:    o.OutcomeID,
		Timestamp: o.Timestamp,
	}
	switch o.Type {
	case domain.OutcomeError:
		frame.Type = streamdom.FrameScanError
		frame.Error = o.Message
	case domain.OutcomeCancelled:
		frame.Type = streamdom.FrameScanCancelled
	}
	s.pub.Publish(streamKey(o.JobID, o.SessionID), frame)
}

// mirror copies the outcome into the analytics store; failures are
// logged and swallowed, the Postgres commit is the record
func (s *Service) mirror(ctx context.Context, o domain.ScanOutcome) {
	if s.mir == nil {
		return
	}
	err := s.mir.Insert(ctx, "scan_events", [][]any{{
		o.OutcomeID,
		o.SessionID,
		o.JobID,
		o.Barcode,
		string(o.Type),
		o.Entity,
		o.Message,
		o.DeviceID,
		o.Timestamp,
	}})
	if err != nil {
		s.log.Warn().Err(err).Str("scan_id", o.OutcomeID).Msg("scan event mirror failed")
	}
}

// streamKey picks the fan out key: job scoped when a job id exists,
// session scoped otherwise
func streamKey(jobID, sessionID string) string {
	if jobID != "" {
		return jobID
	}
	return sessionID
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
