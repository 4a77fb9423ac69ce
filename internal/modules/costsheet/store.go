// README: Cost sheet store backed by PostgreSQL.
package costsheet

import (
	"context"
	"encoding/json"
	"errors"
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

func (s *Store) Create(ctx context.Context, cs *CostSheet) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO cost_sheets (
            id, quote_id, version, status, status_version,
            monthly_cost, monthly_revenue, margin, margin_pct, contract_value, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(cs.ID), string(cs.QuoteID), cs.Version, string(cs.Status), cs.StatusVersion,
		cs.Totals.MonthlyCost, cs.Totals.MonthlyRevenue, cs.Totals.Margin, cs.Totals.MarginPct,
		cs.Totals.ContractValue, cs.CreatedAt,
	)
	if err != nil {
		return err
	}
	for _, l := range cs.Lines {
		pricing, err := json.Marshal(l.Pricing)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
            INSERT INTO cost_sheet_lines (
                cost_sheet_id, position, vehicle_id, vehicle_class, quantity,
                lease_term_months, monthly_cost, monthly_rate, pricing
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			string(cs.ID), l.Position, l.VehicleID, string(l.VehicleClass), l.Quantity,
			l.LeaseTermMonths, l.MonthlyCost, l.MonthlyRate, pricing,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const sheetColumns = `id, quote_id, version, status, status_version,
       monthly_cost, monthly_revenue, margin, margin_pct, contract_value,
       created_at, submitted_at, decided_at, decided_by, reject_reason`

func (s *Store) Get(ctx context.Context, id types.ID) (*CostSheet, error) {
	return s.getOne(ctx, `SELECT `+sheetColumns+` FROM cost_sheets WHERE id = $1`, string(id))
}

func (s *Store) LatestApproved(ctx context.Context, quoteID types.ID) (*CostSheet, error) {
	return s.getOne(ctx, `
        SELECT `+sheetColumns+`
        FROM cost_sheets
        WHERE quote_id = $1 AND status = 'approved'
        ORDER BY version DESC
        LIMIT 1`, string(quoteID))
}

func (s *Store) LatestVersion(ctx context.Context, quoteID types.ID) (int, error) {
	var v int
	err := s.db.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM cost_sheets WHERE quote_id = $1`, string(quoteID)).Scan(&v)
	return v, err
}

func (s *Store) getOne(ctx context.Context, sql string, args ...any) (*CostSheet, error) {
	var cs CostSheet
	var status string
	err := s.db.QueryRow(ctx, sql, args...).Scan(
		&cs.ID, &cs.QuoteID, &cs.Version, &status, &cs.StatusVersion,
		&cs.Totals.MonthlyCost, &cs.Totals.MonthlyRevenue, &cs.Totals.Margin, &cs.Totals.MarginPct,
		&cs.Totals.ContractValue,
		&cs.CreatedAt, &cs.SubmittedAt, &cs.DecidedAt, &cs.DecidedBy, &cs.RejectReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cs.Status = Status(status)
	cs.Lines, err = s.listLines(ctx, cs.ID)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func (s *Store) listLines(ctx context.Context, id types.ID) ([]Line, error) {
	rows, err := s.db.Query(ctx, `
        SELECT position, vehicle_id, vehicle_class, quantity, lease_term_months,
               monthly_cost, monthly_rate, pricing
        FROM cost_sheet_lines
        WHERE cost_sheet_id = $1
        ORDER BY position`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		var pricing []byte
		if err := rows.Scan(&l.Position, &l.VehicleID, &l.VehicleClass, &l.Quantity, &l.LeaseTermMonths,
			&l.MonthlyCost, &l.MonthlyRate, &pricing); err != nil {
			return nil, err
		}
		if len(pricing) > 0 {
			if err := json.Unmarshal(pricing, &l.Pricing); err != nil {
				return nil, err
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, t Transition) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if t.To == StatusApproved {
		var newer bool
		err := tx.QueryRow(ctx, `
            SELECT EXISTS (
                SELECT 1
                FROM cost_sheets o
                JOIN cost_sheets c ON c.id = $2
                WHERE o.quote_id = $1 AND o.status = 'approved' AND o.version > c.version
            )`,
			string(t.QuoteID), string(t.ID),
		).Scan(&newer)
		if err != nil {
			return false, err
		}
		if newer {
			return false, ErrStaleVersion
		}
		_, err = tx.Exec(ctx, `
            UPDATE cost_sheets
            SET status = 'superseded', status_version = status_version + 1
            WHERE quote_id = $1 AND status = 'approved' AND id <> $2`,
			string(t.QuoteID), string(t.ID),
		)
		if err != nil {
			return false, err
		}
	}

	tag, err := tx.Exec(ctx, `
        UPDATE cost_sheets
        SET status = $1,
            status_version = status_version + 1,
            submitted_at = CASE WHEN $1 = 'pending_approval' THEN $2 ELSE submitted_at END,
            decided_at = CASE WHEN $1 IN ('approved', 'rejected') THEN $2 ELSE decided_at END,
            decided_by = CASE WHEN $1 IN ('approved', 'rejected') THEN $3 ELSE decided_by END,
            reject_reason = COALESCE($4, reject_reason)
        WHERE id = $5 AND status = $6 AND status_version = $7`,
		string(t.To), t.At, t.Actor, t.Reason,
		string(t.ID), string(t.From), t.Version,
	)
	if isUniqueViolation(err) {
		// a concurrent approval of another version won the one-approved-per-quote index
		return false, ErrConflict
	}
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return false, ErrConflict
		}
		return false, err
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	at := e.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO cost_sheet_events (
            cost_sheet_id, from_status, to_status, actor, reason, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.CostSheetID), string(e.FromStatus), string(e.ToStatus), e.Actor, e.Reason, at,
	)
	return err
}
