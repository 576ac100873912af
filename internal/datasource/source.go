// Package datasource provides the campaign metrics the dashboard refreshes from.
package datasource

import (
	"context"
	"fmt"
	"math"

	"github.com/nfrund/kpiboard/internal/domain"
)

// Source returns raw metrics for a date range. Fetch is the single suspension
// point of a refresh; a failure comes back as a *domain.DataSourceError.
type Source interface {
	Name() string
	Fetch(ctx context.Context, r domain.DateRange) (domain.RawMetrics, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, r domain.DateRange) (domain.RawMetrics, error)

func (f Func) Name() string { return "func" }

func (f Func) Fetch(ctx context.Context, r domain.DateRange) (domain.RawMetrics, error) {
	return f(ctx, r)
}

// Reference scenario: six weekly periods over a 42-day window.
var (
	referenceSpend       = []float64{2200, 3100, 2800, 4200, 3500, 4500}
	referenceConversions = []float64{40, 62, 55, 90, 75, 110}
)

const (
	referenceDays           = 42
	impressionsPerSpentUnit = 22
	clicksPerConversion     = 14
)

// ReferenceMetrics returns the reference scenario scaled linearly by the length of r.
func ReferenceMetrics(r domain.DateRange) domain.RawMetrics {
	factor := float64(r.Days()) / referenceDays
	periods := make([]domain.PeriodMetrics, len(referenceSpend))
	for i := range referenceSpend {
		spend := math.Round(referenceSpend[i]*factor*100) / 100
		conv := int64(math.Round(referenceConversions[i] * factor))
		periods[i] = domain.PeriodMetrics{
			Label:       fmt.Sprintf("Week %d", i+1),
			Spend:       spend,
			Impressions: int64(math.Round(spend * impressionsPerSpentUnit)),
			Clicks:      conv * clicksPerConversion,
			Conversions: conv,
		}
	}
	return domain.RawMetrics{Range: r, Periods: periods}
}
