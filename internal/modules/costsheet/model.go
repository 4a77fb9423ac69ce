// README: Versioned cost sheet aggregate, status flow, and the read-only approved view.
package costsheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"carrental/internal/modules/agreement"
	"carrental/internal/modules/rates"
	"carrental/internal/types"
)

var (
	ErrNotFound     = errors.New("cost sheet not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("cost sheet state conflict")
	ErrLocked       = errors.New("cost sheet is locked by another request")
	ErrBadRequest   = errors.New("bad request")
	ErrNoLines      = errors.New("quote has no agreement lines")
	// ErrStaleVersion wraps ErrInvalidState: a newer version of the quote is already approved.
	ErrStaleVersion = fmt.Errorf("%w: newer version approved", ErrInvalidState)
	// ErrAutoApprove means Submit stored the sheet as pending but could not approve it.
	ErrAutoApprove = errors.New("cost sheet submitted but auto-approval failed")
)

type Status string

const (
	StatusNone            Status = "none"
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusSuperseded      Status = "superseded"
)

// AllowedTransitions is the approval flow. Approved versions only ever leave their
// state when a newer version of the same quote is approved.
var AllowedTransitions = map[Status][]Status{
	StatusNone:            {StatusDraft},
	StatusDraft:           {StatusPendingApproval},
	StatusPendingApproval: {StatusApproved, StatusRejected},
	StatusApproved:        {StatusSuperseded},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Line struct {
	Position        int                   `json:"position"`
	VehicleID       string                `json:"vehicle_id"`
	VehicleClass    rates.VehicleClass    `json:"vehicle_class"`
	Quantity        int                   `json:"quantity"`
	LeaseTermMonths int                   `json:"lease_term_months"`
	MonthlyCost     decimal.Decimal       `json:"monthly_cost"`
	MonthlyRate     decimal.Decimal       `json:"monthly_rate"`
	Pricing         agreement.LinePricing `json:"pricing"`
}

// LineFromAgreement snapshots a live agreement line. The resolved component total is
// the monthly cost; the quoted monthly rate is the revenue side.
func LineFromAgreement(l agreement.Line) Line {
	p := agreement.Resolve(l)
	return Line{
		Position:        l.Position,
		VehicleID:       l.VehicleID,
		VehicleClass:    l.VehicleClass,
		Quantity:        l.Quantity,
		LeaseTermMonths: l.LeaseTermMonths,
		MonthlyCost:     p.CalculatedTotal,
		MonthlyRate:     l.MonthlyRate,
		Pricing:         p,
	}
}

type Totals struct {
	MonthlyCost    decimal.Decimal `json:"monthly_cost"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	Margin         decimal.Decimal `json:"margin"`
	MarginPct      decimal.Decimal `json:"margin_pct"`
	ContractValue  decimal.Decimal `json:"contract_value"`
}

// ComputeTotals rolls the lines up. MarginPct is zero when there is no revenue.
func ComputeTotals(lines []Line) Totals {
	t := Totals{
		MonthlyCost:    decimal.Zero,
		MonthlyRevenue: decimal.Zero,
		ContractValue:  decimal.Zero,
		MarginPct:      decimal.Zero,
	}
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		revenue := l.MonthlyRate.Mul(qty)
		t.MonthlyCost = t.MonthlyCost.Add(l.MonthlyCost.Mul(qty))
		t.MonthlyRevenue = t.MonthlyRevenue.Add(revenue)
		t.ContractValue = t.ContractValue.Add(revenue.Mul(decimal.NewFromInt(int64(l.LeaseTermMonths))))
	}
	t.Margin = t.MonthlyRevenue.Sub(t.MonthlyCost)
	if !t.MonthlyRevenue.IsZero() {
		t.MarginPct = t.Margin.Div(t.MonthlyRevenue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return t
}

type CostSheet struct {
	ID            types.ID   `json:"id"`
	QuoteID       types.ID   `json:"quote_id"`
	Version       int        `json:"version"`
	Status        Status     `json:"status"`
	StatusVersion int        `json:"status_version"`
	Lines         []Line     `json:"lines"`
	Totals        Totals     `json:"totals"`
	CreatedAt     time.Time  `json:"created_at"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	DecidedBy     *string    `json:"decided_by,omitempty"`
	RejectReason  *string    `json:"reject_reason,omitempty"`
}

// AsApproved returns the read-only view when the sheet is approved.
func (c *CostSheet) AsApproved() (Approved, bool) {
	if c == nil || c.Status != StatusApproved {
		return Approved{}, false
	}
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return Approved{sheet: cp}, true
}

// Approved is the authoritative version of a quote. It has no mutators; changes go
// through a new draft version.
type Approved struct {
	sheet CostSheet
}

func (a Approved) ID() types.ID      { return a.sheet.ID }
func (a Approved) QuoteID() types.ID { return a.sheet.QuoteID }
func (a Approved) Version() int      { return a.sheet.Version }
func (a Approved) Totals() Totals    { return a.sheet.Totals }

func (a Approved) Lines() []Line {
	return append([]Line(nil), a.sheet.Lines...)
}

func (a Approved) DecidedAt() time.Time {
	if a.sheet.DecidedAt == nil {
		return time.Time{}
	}
	return *a.sheet.DecidedAt
}

func (a Approved) DecidedBy() string {
	if a.sheet.DecidedBy == nil {
		return ""
	}
	return *a.sheet.DecidedBy
}

func (a Approved) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.sheet)
}

type Event struct {
	ID          int64
	CostSheetID types.ID
	FromStatus  Status
	ToStatus    Status
	Actor       string
	Reason      *string
	CreatedAt   time.Time
}

// Transition is one guarded status change applied by the store.
type Transition struct {
	ID      types.ID
	QuoteID types.ID
	From    Status
	To      Status
	Version int
	Actor   string
	Reason  *string
	At      time.Time
}
