// README: Agreement store backed by PostgreSQL.
package agreement

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"carrental/internal/modules/rates"
	"carrental/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

type pricingRow struct {
	base, insurance, maintenance, roadside, replacement decimal.NullDecimal
	pkg                                                 *string
	total                                               decimal.Decimal
}

func (r *pricingRow) targets() []any {
	return []any{&r.base, &r.insurance, &r.pkg, &r.maintenance, &r.roadside, &r.replacement, &r.total}
}

func (r *pricingRow) fields() PricingFields {
	f := PricingFields{
		BaseRate:        nullable(r.base),
		InsuranceCost:   nullable(r.insurance),
		MaintenanceCost: nullable(r.maintenance),
		RoadsideCost:    nullable(r.roadside),
		ReplacementCost: nullable(r.replacement),
		StoredTotal:     r.total,
	}
	if r.pkg != nil {
		f.InsurancePackage = *r.pkg
	}
	return f
}

func nullable(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

func (s *Store) GetAgreement(ctx context.Context, id types.ID) (*Agreement, error) {
	row := s.db.QueryRow(ctx, `
        SELECT a.id, COALESCE(a.quote_id, ''), a.number, a.status, a.created_at, `+prefixed("a")+`
        FROM agreements a
        WHERE a.id = $1`, string(id),
	)
	var a Agreement
	var pr pricingRow
	dest := append([]any{&a.ID, &a.QuoteID, &a.Number, &a.Status, &a.CreatedAt}, pr.targets()...)
	err := row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Pricing = pr.fields()
	return &a, nil
}

func (s *Store) ListLines(ctx context.Context, agreementID types.ID) ([]Line, error) {
	return s.queryLines(ctx, `
        SELECT l.id, l.agreement_id, l.position, l.vehicle_id, l.vehicle_class, l.quantity,
               l.lease_term_months, l.monthly_rate, `+prefixed("l")+`
        FROM agreement_lines l
        WHERE l.agreement_id = $1
        ORDER BY l.position`, string(agreementID))
}

func (s *Store) ListLinesByQuote(ctx context.Context, quoteID types.ID) ([]Line, error) {
	return s.queryLines(ctx, `
        SELECT l.id, l.agreement_id, l.position, l.vehicle_id, l.vehicle_class, l.quantity,
               l.lease_term_months, l.monthly_rate, `+prefixed("l")+`
        FROM agreement_lines l
        JOIN agreements a ON a.id = l.agreement_id
        WHERE a.quote_id = $1
        ORDER BY l.position`, string(quoteID))
}

func (s *Store) queryLines(ctx context.Context, sql string, args ...any) ([]Line, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		var class string
		var pr pricingRow
		dest := append([]any{&l.ID, &l.AgreementID, &l.Position, &l.VehicleID, &class, &l.Quantity,
			&l.LeaseTermMonths, &l.MonthlyRate}, pr.targets()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		l.VehicleClass = rates.VehicleClass(class)
		l.Pricing = pr.fields()
		out = append(out, l)
	}
	return out, rows.Err()
}

func prefixed(alias string) string {
	return alias + ".base_rate, " + alias + ".insurance_cost, " + alias + ".insurance_package, " +
		alias + ".maintenance_cost, " + alias + ".roadside_cost, " + alias + ".replacement_cost, " +
		alias + ".total_amount"
}
