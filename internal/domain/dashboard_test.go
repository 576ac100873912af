package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		parseErr   error
		validErr   error
	}{
		{name: "both dates", start: "2024-01-01", end: "2024-01-31"},
		{name: "surrounding spaces", start: " 2024-01-01 ", end: "2024-01-31\t"},
		{name: "missing start", start: "", end: "2024-01-01", validErr: ErrMissingDateRange},
		{name: "missing end", start: "2024-01-01", end: "   ", validErr: ErrMissingDateRange},
		{name: "malformed start", start: "01/01/2024", end: "2024-01-31", parseErr: ErrMalformedDate},
		{name: "malformed end", start: "2024-01-01", end: "2024-02-30", parseErr: ErrMalformedDate},
		{name: "reversed", start: "2024-02-01", end: "2024-01-01", validErr: ErrInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseDateRange(tt.start, tt.end)
			if tt.parseErr != nil {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				assert.ErrorIs(t, err, tt.parseErr)
				assert.NotErrorIs(t, err, ErrMissingDateRange)
				return
			}
			require.NoError(t, err)

			err = r.Validate()
			if tt.validErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsValidation(err))
			assert.ErrorIs(t, err, tt.validErr)
		})
	}
}

func TestParseDateRange_MessageNamesTheBadValue(t *testing.T) {
	_, err := ParseDateRange("yesterday", "2024-01-01")
	require.Error(t, err)
	assert.Equal(t, `Invalid start date "yesterday".`, err.Error())
}

func TestLastDays(t *testing.T) {
	now := time.Date(2024, 2, 11, 15, 30, 0, 0, time.UTC)

	r := LastDays(now, 42)
	assert.Equal(t, "2024-01-01", r.StartString())
	assert.Equal(t, "2024-02-11", r.EndString())
	assert.Equal(t, 42, r.Days())

	one := LastDays(now, 0)
	assert.Equal(t, one.Start, one.End)
	assert.Equal(t, 1, one.Days())
}

func TestDateRange_DaysOfIncompleteRange(t *testing.T) {
	assert.Equal(t, 0, DateRange{}.Days())
	assert.Equal(t, "", DateRange{}.StartString())
}
