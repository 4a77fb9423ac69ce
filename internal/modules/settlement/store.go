// README: Settlement store reads rental terms and Salik tolls from PostgreSQL.
package settlement

import (
	"context"
	"errors"
	"time"

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

func (s *Store) GetTerms(ctx context.Context, agreementID types.ID) (Terms, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, vehicle_class, fuel_policy, tank_capacity, included_km,
               daily_rate, security_deposit, insurance_excess, pickup_at, scheduled_return
        FROM agreements
        WHERE id = $1`, string(agreementID),
	)

	var t Terms
	var class, policy string
	var excess decimal.NullDecimal
	err := row.Scan(
		&t.AgreementID, &class, &policy, &t.TankCapacity, &t.IncludedKm,
		&t.DailyRate, &t.SecurityDeposit, &excess, &t.PickupAt, &t.ScheduledReturn,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Terms{}, ErrNotFound
	}
	if err != nil {
		return Terms{}, err
	}
	t.VehicleClass = rates.VehicleClass(class)
	t.FuelPolicy = rates.FuelPolicy(policy)
	if excess.Valid {
		v := excess.Decimal
		t.InsuranceExcess = &v
	}
	return t, nil
}

// SumTolls totals Salik gate charges recorded for the agreement within [from, to].
func (s *Store) SumTolls(ctx context.Context, agreementID types.ID, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRow(ctx, `
        SELECT COALESCE(SUM(amount), 0)
        FROM toll_transactions
        WHERE agreement_id = $1 AND passed_at BETWEEN $2 AND $3`,
		string(agreementID), from, to,
	).Scan(&total)
	return total, err
}
