// README: Vehicle inspection records taken at checkout (OUT), check-in (IN), or imported (LEGACY).
package inspection

import (
	"errors"
	"sort"
	"time"

	"carrental/internal/modules/charges"
	"carrental/internal/modules/rates"
	"carrental/internal/types"
)

type Type string

const (
	TypeOut    Type = "OUT"
	TypeIn     Type = "IN"
	TypeLegacy Type = "LEGACY"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeOut, TypeIn, TypeLegacy:
		return true
	}
	return false
}

var (
	ErrNoCheckout = errors.New("no checkout inspection")
	ErrNoCheckin  = errors.New("no check-in inspection")
)

// Inspection is one recorded walk-around. LEGACY records predate the OUT/IN split
// and only carry damage markers; fuel and odometer are absent.
type Inspection struct {
	ID           types.ID
	AgreementID  types.ID
	Type         Type
	FuelLevel    *float64
	Odometer     *float64
	CleaningType rates.CleaningType
	Markers      []charges.DamageMarker
	RecordedAt   time.Time
}

// Pair picks the checkout baseline and the check-in record from an agreement's
// inspections. The latest OUT wins over any LEGACY record; the latest IN is the
// return. A LEGACY record is only a baseline when no OUT exists.
func Pair(list []Inspection) (checkout, checkin Inspection, err error) {
	sorted := make([]Inspection, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.Before(sorted[j].RecordedAt)
	})

	var out, legacy, in *Inspection
	for i := range sorted {
		switch sorted[i].Type {
		case TypeOut:
			out = &sorted[i]
		case TypeLegacy:
			legacy = &sorted[i]
		case TypeIn:
			in = &sorted[i]
		}
	}
	if out == nil {
		out = legacy
	}
	if out == nil {
		return Inspection{}, Inspection{}, ErrNoCheckout
	}
	if in == nil {
		return *out, Inspection{}, ErrNoCheckin
	}
	return *out, *in, nil
}
