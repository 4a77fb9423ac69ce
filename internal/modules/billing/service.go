// README: Billing service rolls period charges into cycles and drives their lifecycle.
package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"carrental/internal/metrics"
	"carrental/internal/types"
)

type Repository interface {
	SumPeriod(ctx context.Context, contractID types.ID, p types.Period) (Sums, error)
	FindByPeriod(ctx context.Context, contractID types.ID, p types.Period) (*Cycle, error)
	Get(ctx context.Context, id types.ID) (*Cycle, error)
	Create(ctx context.Context, c *Cycle) error
	// UpdateTotals rewrites the amounts of an open cycle; false when it is no longer open.
	UpdateTotals(ctx context.Context, c *Cycle) (bool, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, invoiceRef *string, at time.Time) (bool, error)
}

// VAT computes tax on a subtotal.
type VAT interface {
	VAT(subtotal decimal.Decimal) decimal.Decimal
}

type Service struct {
	store       Repository
	vat         VAT
	concurrency int
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewService(store Repository, vat VAT, concurrency int, log logrus.FieldLogger) *Service {
	if concurrency <= 0 {
		concurrency = 4
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, vat: vat, concurrency: concurrency, log: log, now: time.Now}
}

func (s *Service) Preview(ctx context.Context, contractID types.ID, p types.Period) (Preview, error) {
	if contractID == "" || !p.Valid() {
		return Preview{}, ErrBadRequest
	}
	sums, err := s.store.SumPeriod(ctx, contractID, p)
	if err != nil {
		return Preview{}, fmt.Errorf("sum period: %w", err)
	}
	subtotal := sums.Total()
	vat := s.vat.VAT(subtotal)
	return Preview{
		ContractID:      contractID,
		PeriodStart:     p.Start,
		PeriodEnd:       p.End,
		TotalExpenses:   sums.Expenses,
		TotalTolls:      sums.Tolls,
		TotalFines:      sums.Fines,
		TotalExceptions: sums.Exceptions,
		Subtotal:        subtotal,
		VAT:             vat,
		GrandTotal:      subtotal.Add(vat),
		Currency:        types.Currency,
		AmountDue:       types.AED(subtotal.Add(vat)),
	}, nil
}

// Generate creates the cycle for the period, or refreshes its totals while it is
// still open. Finalized and invoiced cycles are left untouched.
func (s *Service) Generate(ctx context.Context, contractID types.ID, p types.Period) (*Cycle, error) {
	pv, err := s.Preview(ctx, contractID, p)
	if err != nil {
		return nil, err
	}
	now := s.now()

	existing, err := s.store.FindByPeriod(ctx, contractID, p)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Status != StatusOpen {
			return nil, fmt.Errorf("%w: cycle %s is %s", ErrInvalidState, existing.ID, existing.Status)
		}
		applyPreview(existing, pv)
		existing.UpdatedAt = now
		ok, err := s.store.UpdateTotals(ctx, existing)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConflict
		}
		s.log.WithFields(logrus.Fields{"contract_id": contractID, "cycle_id": existing.ID}).Info("billing cycle refreshed")
		return existing, nil
	}

	c := &Cycle{
		ID:          types.NewID(),
		ContractID:  contractID,
		PeriodStart: p.Start,
		PeriodEnd:   p.End,
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyPreview(c, pv)
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"contract_id": contractID,
		"cycle_id":    c.ID,
		"grand_total": c.GrandTotal.StringFixed(2),
	}).Info("billing cycle generated")
	return c, nil
}

func applyPreview(c *Cycle, pv Preview) {
	c.TotalExpenses = pv.TotalExpenses
	c.TotalTolls = pv.TotalTolls
	c.TotalFines = pv.TotalFines
	c.TotalExceptions = pv.TotalExceptions
	c.TotalAmount = pv.Subtotal
	c.VATAmount = pv.VAT
	c.GrandTotal = pv.GrandTotal
}

func (s *Service) Finalize(ctx context.Context, id types.ID) (*Cycle, error) {
	return s.transition(ctx, id, StatusFinalized, nil)
}

func (s *Service) MarkAsInvoiced(ctx context.Context, id types.ID, invoiceRef string) (*Cycle, error) {
	if invoiceRef == "" {
		return nil, ErrBadRequest
	}
	return s.transition(ctx, id, StatusInvoiced, &invoiceRef)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, invoiceRef *string) (*Cycle, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(c.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidState, c.Status, to)
	}
	now := s.now()
	ok, err := s.store.UpdateStatus(ctx, id, c.Status, to, invoiceRef, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	s.log.WithFields(logrus.Fields{"cycle_id": id, "from": c.Status, "to": to}).Info("billing cycle transition")

	c.Status = to
	c.UpdatedAt = now
	switch to {
	case StatusFinalized:
		c.FinalizedAt = &now
	case StatusInvoiced:
		c.InvoicedAt = &now
		c.InvoiceRef = invoiceRef
	}
	return c, nil
}

// BatchGenerate runs Generate for each contract independently. One failure never stops
// the others; contracts not started before ctx is cancelled are reported as failed.
func (s *Service) BatchGenerate(ctx context.Context, contractIDs []types.ID, p types.Period) (BatchResult, error) {
	if !p.Valid() {
		return BatchResult{}, ErrBadRequest
	}
	var (
		mu  sync.Mutex
		res = BatchResult{Errors: map[string]string{}}
	)
	record := func(id types.ID, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			res.Succeeded++
			metrics.BillingGenerations.WithLabelValues("success").Inc()
			return
		}
		res.Failed++
		res.Errors[string(id)] = err.Error()
		metrics.BillingGenerations.WithLabelValues("failure").Inc()
	}

	ids := uniqueIDs(contractIDs)

	// errgroup without WithContext: worker errors must not cancel siblings.
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		id := id
		if err := ctx.Err(); err != nil {
			record(id, err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				record(id, err)
				return nil
			}
			_, err := s.Generate(ctx, id, p)
			record(id, err)
			return nil
		})
	}
	_ = g.Wait()

	s.log.WithFields(logrus.Fields{
		"contracts": len(ids),
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
	}).Info("billing batch finished")
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

// uniqueIDs drops repeated contract ids, keeping first-seen order.
func uniqueIDs(ids []types.ID) []types.ID {
	seen := make(map[types.ID]struct{}, len(ids))
	out := make([]types.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
