// README: Inspection store backed by PostgreSQL; damage markers are stored as JSONB.
package inspection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"carrental/internal/modules/charges"
	"carrental/internal/modules/rates"
	"carrental/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ListByAgreement(ctx context.Context, agreementID types.ID) ([]Inspection, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, agreement_id, type, fuel_level, odometer, cleaning_type, markers, recorded_at
        FROM inspections
        WHERE agreement_id = $1
        ORDER BY recorded_at`, string(agreementID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Inspection
	for rows.Next() {
		var in Inspection
		var typ, cleaning string
		var markers []byte
		if err := rows.Scan(&in.ID, &in.AgreementID, &typ, &in.FuelLevel, &in.Odometer, &cleaning, &markers, &in.RecordedAt); err != nil {
			return nil, err
		}
		in.Type = Type(typ)
		in.CleaningType = rates.CleaningType(cleaning)
		if len(markers) > 0 {
			if err := json.Unmarshal(markers, &in.Markers); err != nil {
				return nil, fmt.Errorf("inspection %s markers: %w", in.ID, err)
			}
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, in *Inspection) error {
	if in.Markers == nil {
		in.Markers = []charges.DamageMarker{}
	}
	markers, err := json.Marshal(in.Markers)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO inspections (id, agreement_id, type, fuel_level, odometer, cleaning_type, markers, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(in.ID), string(in.AgreementID), string(in.Type),
		in.FuelLevel, in.Odometer, string(in.CleaningType), markers, in.RecordedAt,
	)
	return err
}
