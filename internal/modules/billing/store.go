// README: Billing store backed by PostgreSQL.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"carrental/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// SumPeriod totals the four categories with both period bounds inclusive. Tolls are
// recorded per agreement and attributed through the agreement's contract.
func (s *Store) SumPeriod(ctx context.Context, contractID types.ID, p types.Period) (Sums, error) {
	var out Sums
	err := s.db.QueryRow(ctx, `
        SELECT
            (SELECT COALESCE(SUM(amount), 0) FROM contract_expenses
              WHERE contract_id = $1 AND incurred_at BETWEEN $2 AND $3),
            (SELECT COALESCE(SUM(t.amount), 0) FROM toll_transactions t
              JOIN agreements a ON a.id = t.agreement_id
              WHERE a.contract_id = $1 AND t.passed_at BETWEEN $2 AND $3),
            (SELECT COALESCE(SUM(amount), 0) FROM traffic_fines
              WHERE contract_id = $1 AND issued_at BETWEEN $2 AND $3),
            (SELECT COALESCE(SUM(amount), 0) FROM billing_exceptions
              WHERE contract_id = $1 AND occurred_at BETWEEN $2 AND $3)`,
		string(contractID), p.Start, p.End,
	).Scan(&out.Expenses, &out.Tolls, &out.Fines, &out.Exceptions)
	return out, err
}

const cycleColumns = `id, contract_id, period_start, period_end,
       total_expenses, total_tolls, total_fines, total_exceptions,
       total_amount, vat_amount, grand_total, status, invoice_ref,
       created_at, updated_at, finalized_at, invoiced_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*Cycle, error) {
	return s.getOne(ctx, `SELECT `+cycleColumns+` FROM billing_cycles WHERE id = $1`, string(id))
}

func (s *Store) FindByPeriod(ctx context.Context, contractID types.ID, p types.Period) (*Cycle, error) {
	return s.getOne(ctx, `
        SELECT `+cycleColumns+`
        FROM billing_cycles
        WHERE contract_id = $1 AND period_start = $2 AND period_end = $3`,
		string(contractID), p.Start, p.End)
}

func (s *Store) getOne(ctx context.Context, sql string, args ...any) (*Cycle, error) {
	var c Cycle
	var status string
	err := s.db.QueryRow(ctx, sql, args...).Scan(
		&c.ID, &c.ContractID, &c.PeriodStart, &c.PeriodEnd,
		&c.TotalExpenses, &c.TotalTolls, &c.TotalFines, &c.TotalExceptions,
		&c.TotalAmount, &c.VATAmount, &c.GrandTotal, &status, &c.InvoiceRef,
		&c.CreatedAt, &c.UpdatedAt, &c.FinalizedAt, &c.InvoicedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}

func (s *Store) Create(ctx context.Context, c *Cycle) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO billing_cycles (
            id, contract_id, period_start, period_end,
            total_expenses, total_tolls, total_fines, total_exceptions,
            total_amount, vat_amount, grand_total, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		string(c.ID), string(c.ContractID), c.PeriodStart, c.PeriodEnd,
		c.TotalExpenses, c.TotalTolls, c.TotalFines, c.TotalExceptions,
		c.TotalAmount, c.VATAmount, c.GrandTotal, string(c.Status), c.CreatedAt, c.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: cycle for %s already exists for this period", ErrConflict, c.ContractID)
	}
	return err
}

func (s *Store) UpdateTotals(ctx context.Context, c *Cycle) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE billing_cycles
        SET total_expenses = $1, total_tolls = $2, total_fines = $3, total_exceptions = $4,
            total_amount = $5, vat_amount = $6, grand_total = $7, updated_at = $8
        WHERE id = $9 AND status = 'open'`,
		c.TotalExpenses, c.TotalTolls, c.TotalFines, c.TotalExceptions,
		c.TotalAmount, c.VATAmount, c.GrandTotal, c.UpdatedAt, string(c.ID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, invoiceRef *string, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE billing_cycles
        SET status = $1,
            invoice_ref = COALESCE($2, invoice_ref),
            updated_at = $3,
            finalized_at = CASE WHEN $1 = 'finalized' THEN $3 ELSE finalized_at END,
            invoiced_at = CASE WHEN $1 = 'invoiced' THEN $3 ELSE invoiced_at END
        WHERE id = $4 AND status = $5`,
		string(to), invoiceRef, at, string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ActiveContracts lists the contracts a scheduled batch run bills.
func (s *Store) ActiveContracts(ctx context.Context) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM contracts WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, types.ID(id))
	}
	return out, rows.Err()
}
