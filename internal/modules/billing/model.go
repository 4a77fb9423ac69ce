// README: Billing cycle aggregate and status definitions.
package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"carrental/internal/types"
)

var (
	ErrNotFound     = errors.New("billing cycle not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("billing cycle state conflict")
	ErrBadRequest   = errors.New("bad request")
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusFinalized Status = "finalized"
	StatusInvoiced  Status = "invoiced"
)

var AllowedTransitions = map[Status][]Status{
	StatusOpen:      {StatusFinalized},
	StatusFinalized: {StatusInvoiced},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Sums are the four billable categories of a contract over one period.
type Sums struct {
	Expenses   decimal.Decimal
	Tolls      decimal.Decimal
	Fines      decimal.Decimal
	Exceptions decimal.Decimal
}

func (s Sums) Total() decimal.Decimal {
	return decimal.Sum(s.Expenses, s.Tolls, s.Fines, s.Exceptions)
}

type Preview struct {
	ContractID      types.ID        `json:"contract_id"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	TotalTolls      decimal.Decimal `json:"total_tolls"`
	TotalFines      decimal.Decimal `json:"total_fines"`
	TotalExceptions decimal.Decimal `json:"total_exceptions"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	VAT             decimal.Decimal `json:"vat"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Currency        string          `json:"currency"`
	// AmountDue is GrandTotal rounded for the invoice.
	AmountDue types.Money `json:"amount_due"`
}

type Cycle struct {
	ID              types.ID        `json:"id"`
	ContractID      types.ID        `json:"contract_id"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	TotalTolls      decimal.Decimal `json:"total_tolls"`
	TotalFines      decimal.Decimal `json:"total_fines"`
	TotalExceptions decimal.Decimal `json:"total_exceptions"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	Status          Status          `json:"status"`
	InvoiceRef      *string         `json:"invoice_ref,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	FinalizedAt     *time.Time      `json:"finalized_at,omitempty"`
	InvoicedAt      *time.Time      `json:"invoiced_at,omitempty"`
}

func (c *Cycle) Period() types.Period {
	return types.Period{Start: c.PeriodStart, End: c.PeriodEnd}
}

type BatchResult struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
}
