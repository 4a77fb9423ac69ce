// README: Cost sheet service implements recalculation, the approval flow, and change detection.
package costsheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"carrental/internal/metrics"
	"carrental/internal/modules/agreement"
	"carrental/internal/types"
)

type Repository interface {
	Create(ctx context.Context, cs *CostSheet) error
	Get(ctx context.Context, id types.ID) (*CostSheet, error)
	LatestVersion(ctx context.Context, quoteID types.ID) (int, error)
	LatestApproved(ctx context.Context, quoteID types.ID) (*CostSheet, error)
	// UpdateStatus applies t only if the row still has t.From and t.Version.
	// Approving also supersedes the quote's previously approved version.
	UpdateStatus(ctx context.Context, t Transition) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

// LineSource returns the live agreement lines of a quote.
type LineSource interface {
	CurrentLines(ctx context.Context, quoteID types.ID) ([]agreement.Line, error)
}

type Options struct {
	AutoApprove bool
	LockTTL     time.Duration
}

func DefaultOptions() Options {
	return Options{AutoApprove: true, LockTTL: 10 * time.Second}
}

type Service struct {
	store  Repository
	lines  LineSource
	locker Locker
	opts   Options
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewService(store Repository, lines LineSource, locker Locker, opts Options, log logrus.FieldLogger) *Service {
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultOptions().LockTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, lines: lines, locker: locker, opts: opts, log: log, now: time.Now}
}

// Recalculate snapshots the quote's current lines into a new draft version. Existing
// versions are never modified.
func (s *Service) Recalculate(ctx context.Context, quoteID types.ID) (*CostSheet, error) {
	if quoteID == "" {
		return nil, ErrBadRequest
	}
	release, err := s.locker.Acquire(ctx, "quote:"+string(quoteID), s.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.lines.CurrentLines(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("load agreement lines: %w", err)
	}
	if len(current) == 0 {
		return nil, ErrNoLines
	}
	latest, err := s.store.LatestVersion(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(current))
	for _, l := range current {
		lines = append(lines, LineFromAgreement(l))
	}
	now := s.now()
	cs := &CostSheet{
		ID:        types.NewID(),
		QuoteID:   quoteID,
		Version:   latest + 1,
		Status:    StatusDraft,
		Lines:     lines,
		Totals:    ComputeTotals(lines),
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, cs); err != nil {
		return nil, err
	}
	if err := s.store.AppendEvent(ctx, &Event{
		CostSheetID: cs.ID,
		FromStatus:  StatusNone,
		ToStatus:    StatusDraft,
		Actor:       "system",
		CreatedAt:   now,
	}); err != nil {
		s.log.WithError(err).WithField("cost_sheet_id", cs.ID).Warn("append cost sheet event")
	}
	metrics.CostSheetTransitions.WithLabelValues(string(StatusDraft)).Inc()
	s.log.WithFields(logrus.Fields{"quote_id": quoteID, "cost_sheet_id": cs.ID, "version": cs.Version}).
		Info("cost sheet recalculated")
	return cs, nil
}

// Submit moves a draft to pending approval and, with AutoApprove, straight on to approved.
// Both steps run under one lock. When the submission is stored but auto-approval fails,
// the pending sheet is returned together with an error wrapping ErrAutoApprove.
func (s *Service) Submit(ctx context.Context, id types.ID, actor string) (*CostSheet, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	release, err := s.locker.Acquire(ctx, string(id), s.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	cs, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, cs, StatusPendingApproval, actor, nil); err != nil {
		return nil, err
	}
	if !s.opts.AutoApprove {
		return cs, nil
	}
	if err := s.apply(ctx, cs, StatusApproved, "system", nil); err != nil {
		s.log.WithError(err).WithField("cost_sheet_id", cs.ID).Warn("auto-approve failed; left pending")
		return cs, fmt.Errorf("%w: %w", ErrAutoApprove, err)
	}
	return cs, nil
}

func (s *Service) Approve(ctx context.Context, id types.ID, actor string) (*CostSheet, error) {
	if actor == "" {
		return nil, ErrBadRequest
	}
	return s.transition(ctx, id, StatusApproved, actor, nil)
}

func (s *Service) Reject(ctx context.Context, id types.ID, actor, reason string) (*CostSheet, error) {
	if actor == "" || reason == "" {
		return nil, ErrBadRequest
	}
	return s.transition(ctx, id, StatusRejected, actor, &reason)
}

// LatestApproved returns the authoritative version of a quote.
func (s *Service) LatestApproved(ctx context.Context, quoteID types.ID) (Approved, error) {
	if quoteID == "" {
		return Approved{}, ErrBadRequest
	}
	cs, err := s.store.LatestApproved(ctx, quoteID)
	if err != nil {
		return Approved{}, err
	}
	a, ok := cs.AsApproved()
	if !ok {
		return Approved{}, ErrNotFound
	}
	return a, nil
}

// DetectChanges reports how the live agreement lines drifted from the approved version.
func (s *Service) DetectChanges(ctx context.Context, quoteID types.ID) ([]VehicleChange, error) {
	approved, err := s.LatestApproved(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	current, err := s.lines.CurrentLines(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("load agreement lines: %w", err)
	}
	changes := DetectVehicleChanges(current, approved.Lines())
	if len(changes) > 0 {
		s.log.WithFields(logrus.Fields{"quote_id": quoteID, "changes": len(changes)}).
			Warn("approved cost sheet is stale")
	}
	return changes, nil
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, actor string, reason *string) (*CostSheet, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	release, err := s.locker.Acquire(ctx, string(id), s.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	cs, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, cs, to, actor, reason); err != nil {
		return nil, err
	}
	return cs, nil
}

// apply moves cs to the target status and updates it in place on success. The caller
// holds the lock.
func (s *Service) apply(ctx context.Context, cs *CostSheet, to Status, actor string, reason *string) error {
	if !CanTransition(cs.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, cs.Status, to)
	}
	if to == StatusApproved {
		current, err := s.store.LatestApproved(ctx, cs.QuoteID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		case current.Version > cs.Version:
			return fmt.Errorf("%w: version %d is already approved", ErrStaleVersion, current.Version)
		}
	}
	now := s.now()
	ok, err := s.store.UpdateStatus(ctx, Transition{
		ID:      cs.ID,
		QuoteID: cs.QuoteID,
		From:    cs.Status,
		To:      to,
		Version: cs.StatusVersion,
		Actor:   actor,
		Reason:  reason,
		At:      now,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if err := s.store.AppendEvent(ctx, &Event{
		CostSheetID: cs.ID,
		FromStatus:  cs.Status,
		ToStatus:    to,
		Actor:       actor,
		Reason:      reason,
		CreatedAt:   now,
	}); err != nil {
		s.log.WithError(err).WithField("cost_sheet_id", cs.ID).Warn("append cost sheet event")
	}
	metrics.CostSheetTransitions.WithLabelValues(string(to)).Inc()
	s.log.WithFields(logrus.Fields{
		"cost_sheet_id": cs.ID,
		"quote_id":      cs.QuoteID,
		"from":          cs.Status,
		"to":            to,
		"actor":         actor,
	}).Info("cost sheet transition")

	cs.Status = to
	cs.StatusVersion++
	switch to {
	case StatusPendingApproval:
		cs.SubmittedAt = &now
	case StatusApproved, StatusRejected:
		cs.DecidedAt = &now
		cs.DecidedBy = &actor
		cs.RejectReason = reason
	}
	return nil
}

// IsRetryable reports whether a failed mutation may succeed if simply retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLocked) || errors.Is(err, ErrConflict)
}
