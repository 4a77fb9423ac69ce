package inspection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPair(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		list    []Inspection
		wantOut string
		wantIn  string
		wantErr error
	}{
		{
			name:    "out and in",
			list:    []Inspection{{ID: "in1", Type: TypeIn, RecordedAt: t0.Add(48 * time.Hour)}, {ID: "out1", Type: TypeOut, RecordedAt: t0}},
			wantOut: "out1", wantIn: "in1",
		},
		{
			name:    "legacy baseline when no out",
			list:    []Inspection{{ID: "leg", Type: TypeLegacy, RecordedAt: t0}, {ID: "in1", Type: TypeIn, RecordedAt: t0.Add(time.Hour)}},
			wantOut: "leg", wantIn: "in1",
		},
		{
			name: "out preferred over later legacy",
			list: []Inspection{
				{ID: "out1", Type: TypeOut, RecordedAt: t0},
				{ID: "leg", Type: TypeLegacy, RecordedAt: t0.Add(time.Hour)},
				{ID: "in1", Type: TypeIn, RecordedAt: t0.Add(2 * time.Hour)},
			},
			wantOut: "out1", wantIn: "in1",
		},
		{
			name: "latest in wins",
			list: []Inspection{
				{ID: "out1", Type: TypeOut, RecordedAt: t0},
				{ID: "in2", Type: TypeIn, RecordedAt: t0.Add(3 * time.Hour)},
				{ID: "in1", Type: TypeIn, RecordedAt: t0.Add(2 * time.Hour)},
			},
			wantOut: "out1", wantIn: "in2",
		},
		{
			name:    "missing checkin",
			list:    []Inspection{{ID: "out1", Type: TypeOut, RecordedAt: t0}},
			wantOut: "out1", wantErr: ErrNoCheckin,
		},
		{
			name:    "missing checkout",
			list:    []Inspection{{ID: "in1", Type: TypeIn, RecordedAt: t0}},
			wantErr: ErrNoCheckout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, in, err := Pair(tt.list)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantIn, string(in.ID))
			}
			assert.Equal(t, tt.wantOut, string(out.ID))
		})
	}
}

func TestType_IsValid(t *testing.T) {
	assert.True(t, TypeOut.IsValid())
	assert.True(t, TypeLegacy.IsValid())
	assert.False(t, Type("RETURN").IsValid())
}
