// README: Identifier and period value objects.
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}

// Period is an inclusive date range used by billing cycles.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Valid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && !p.End.Before(p.Start)
}

// DateLayout is the wire format of date-only period bounds.
const DateLayout = "2006-01-02"

// ParsePeriod reads period bounds given as RFC 3339 timestamps or plain dates. A plain
// end date covers that whole day, so "2026-01-01".."2026-01-31" is all of January.
func ParsePeriod(start, end string) (Period, error) {
	s, _, err := parseBound(start)
	if err != nil {
		return Period{}, fmt.Errorf("period start: %w", err)
	}
	e, dateOnly, err := parseBound(end)
	if err != nil {
		return Period{}, fmt.Errorf("period end: %w", err)
	}
	if dateOnly {
		e = EndOfDay(e)
	}
	return Period{Start: s, End: e}, nil
}

// EndOfDay is the last instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}

func parseBound(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(DateLayout, v)
	return t, true, err
}
