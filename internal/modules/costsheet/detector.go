// README: Compares live agreement lines with the approved cost sheet lines.
package costsheet

import (
	"strconv"

	"carrental/internal/modules/agreement"
)

const (
	FieldVehicleID    = "vehicle_id"
	FieldVehicleClass = "vehicle_class"
	FieldMonthlyRate  = "monthly_rate"
	FieldLeaseTerm    = "lease_term"
	FieldQuantity     = "quantity"
	FieldLineCount    = "line_count"
)

// VehicleChange is one divergence between the approved snapshot and the live data.
// Position is zero for the line_count record.
type VehicleChange struct {
	Position int    `json:"position"`
	Field    string `json:"field"`
	Approved string `json:"approved"`
	Current  string `json:"current"`
}

// DetectVehicleChanges pairs lines by position. A position present on one side only is
// reported through the line_count record, not per field.
func DetectVehicleChanges(current []agreement.Line, approved []Line) []VehicleChange {
	byPos := make(map[int]Line, len(approved))
	for _, l := range approved {
		byPos[l.Position] = l
	}

	var out []VehicleChange
	for _, cur := range current {
		prev, ok := byPos[cur.Position]
		if !ok {
			continue
		}
		add := func(field, a, c string) {
			if a != c {
				out = append(out, VehicleChange{Position: cur.Position, Field: field, Approved: a, Current: c})
			}
		}
		add(FieldVehicleID, prev.VehicleID, cur.VehicleID)
		add(FieldVehicleClass, string(prev.VehicleClass), string(cur.VehicleClass))
		if !prev.MonthlyRate.Equal(cur.MonthlyRate) {
			out = append(out, VehicleChange{
				Position: cur.Position,
				Field:    FieldMonthlyRate,
				Approved: prev.MonthlyRate.String(),
				Current:  cur.MonthlyRate.String(),
			})
		}
		add(FieldLeaseTerm, strconv.Itoa(prev.LeaseTermMonths), strconv.Itoa(cur.LeaseTermMonths))
		add(FieldQuantity, strconv.Itoa(prev.Quantity), strconv.Itoa(cur.Quantity))
	}
	if len(current) != len(approved) {
		out = append(out, VehicleChange{
			Field:    FieldLineCount,
			Approved: strconv.Itoa(len(approved)),
			Current:  strconv.Itoa(len(current)),
		})
	}
	return out
}
