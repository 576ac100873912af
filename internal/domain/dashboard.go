package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of dates in forms and in the data source boundary.
const DateLayout = "2006-01-02"

// Identity is the opaque token of whoever is logged in. Its presence in the session
// store is the only truth of "a session is active".
type Identity string

// DateRange is the reporting window of a refresh. Both ends are required.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseDateRange reads two YYYY-MM-DD strings. An empty string yields a zero date,
// which validation later rejects as missing. Anything else that does not parse is
// reported as ErrMalformedDate.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	var err error
	if s := strings.TrimSpace(start); s != "" {
		if r.Start, err = time.Parse(DateLayout, s); err != nil {
			return DateRange{}, NewValidationError(ErrMalformedDate, fmt.Sprintf("Invalid start date %q.", s))
		}
	}
	if s := strings.TrimSpace(end); s != "" {
		if r.End, err = time.Parse(DateLayout, s); err != nil {
			return DateRange{}, NewValidationError(ErrMalformedDate, fmt.Sprintf("Invalid end date %q.", s))
		}
	}
	return r, nil
}

// LastDays returns the range of n whole days ending on the day of now.
func LastDays(now time.Time, n int) DateRange {
	if n < 1 {
		n = 1
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return DateRange{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// Validate checks that both ends are present and ordered.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return NewValidationError(ErrMissingDateRange, "Please select a start and an end date.")
	}
	if r.Start.After(r.End) {
		return NewValidationError(ErrInvalidDateRange, "The start date must be on or before the end date.")
	}
	return nil
}

// Days is the inclusive number of days covered by the range.
func (r DateRange) Days() int {
	if r.Start.IsZero() || r.End.IsZero() || r.Start.After(r.End) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// StartString formats the start date, or "" when unset.
func (r DateRange) StartString() string { return formatDate(r.Start) }

// EndString formats the end date, or "" when unset.
func (r DateRange) EndString() string { return formatDate(r.End) }

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ViewState is which of the two panels is visible.
type ViewState int

const (
	LoggedOut ViewState = iota
	LoggedIn
)

func (s ViewState) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

func (s ViewState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// RefreshState tracks whether a data fetch is in flight while LoggedIn.
type RefreshState int

const (
	Idle RefreshState = iota
	Loading
)

func (s RefreshState) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

func (s RefreshState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// PeriodMetrics is one period of raw campaign data.
type PeriodMetrics struct {
	Label       string  `json:"label"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
}

// RawMetrics is what a data source returns for a range.
type RawMetrics struct {
	Range   DateRange       `json:"range"`
	Periods []PeriodMetrics `json:"periods"`
}

// KpiSnapshot holds the four summary metrics of one refresh. CTR is a percentage.
type KpiSnapshot struct {
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
}

// Point is one labeled value of a series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is an ordered run of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// ChartDataset is the full input of one chart render.
type ChartDataset struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}
