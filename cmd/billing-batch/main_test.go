package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/types"
)

func TestPreviousMonth(t *testing.T) {
	p := previousMonth(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 2, 28, 23, 59, 59, 999999999, time.UTC), p.End)

	p = previousMonth(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, 999999999, time.UTC), p.End)
}

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags(nil, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), opts.Period.Start)
	assert.Equal(t, time.Date(2025, 2, 28, 23, 59, 59, 999999999, time.UTC), opts.Period.End)
	assert.Empty(t, opts.ContractIDs)
	assert.Equal(t, 10*time.Minute, opts.Timeout)
}

func TestParseFlagsExplicit(t *testing.T) {
	opts, err := parseFlags([]string{
		"-period-start", "2025-04-01",
		"-period-end", "2025-04-30",
		"-contracts", "c1, c2,,c3",
		"-timeout", "30s",
	}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []types.ID{"c1", "c2", "c3"}, opts.ContractIDs)
	assert.Equal(t, time.Date(2025, 4, 30, 23, 59, 59, 999999999, time.UTC), opts.Period.End)
	assert.Equal(t, 30*time.Second, opts.Timeout)
}

func TestParseFlagsRejectsInvertedPeriod(t *testing.T) {
	_, err := parseFlags([]string{"-period-start", "2025-04-30", "-period-end", "2025-04-01"}, time.Now())
	assert.Error(t, err)

	_, err = parseFlags([]string{"-period-start", "April"}, time.Now())
	assert.Error(t, err)
}
