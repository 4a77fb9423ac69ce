// README: Agreement service exposes legacy-aware pricing for agreements and lines.
package agreement

import (
	"context"

	"carrental/internal/types"
)

type Repository interface {
	GetAgreement(ctx context.Context, id types.ID) (*Agreement, error)
	ListLines(ctx context.Context, agreementID types.ID) ([]Line, error)
	ListLinesByQuote(ctx context.Context, quoteID types.ID) ([]Line, error)
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

// Pricing returns the agreement-level and per-line breakdowns.
func (s *Service) Pricing(ctx context.Context, agreementID types.ID) (AgreementPricing, error) {
	if agreementID == "" {
		return AgreementPricing{}, ErrBadRequest
	}
	a, err := s.store.GetAgreement(ctx, agreementID)
	if err != nil {
		return AgreementPricing{}, err
	}
	lines, err := s.store.ListLines(ctx, agreementID)
	if err != nil {
		return AgreementPricing{}, err
	}
	out := AgreementPricing{
		AgreementID: a.ID,
		Agreement:   Resolve(a),
		Lines:       make([]LinePricing, 0, len(lines)),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, Resolve(l))
	}
	return out, nil
}

// CurrentLines returns the live vehicle lines of the agreement attached to a quote.
func (s *Service) CurrentLines(ctx context.Context, quoteID types.ID) ([]Line, error) {
	if quoteID == "" {
		return nil, ErrBadRequest
	}
	return s.store.ListLinesByQuote(ctx, quoteID)
}
