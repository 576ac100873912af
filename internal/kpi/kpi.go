// Package kpi derives the KPI snapshot and chart dataset from raw campaign metrics.
package kpi

import (
	"github.com/nfrund/kpiboard/internal/domain"
)

// Series names shown in the chart legend.
const (
	SeriesSpend       = "Spend"
	SeriesConversions = "Conversions"
)

// Snapshot sums all periods. CTR is clicks over impressions as a percentage, 0 without impressions.
func Snapshot(raw domain.RawMetrics) domain.KpiSnapshot {
	var s domain.KpiSnapshot
	for _, p := range raw.Periods {
		s.Spend += p.Spend
		s.Impressions += p.Impressions
		s.Clicks += p.Clicks
	}
	if s.Impressions > 0 {
		s.CTR = float64(s.Clicks) / float64(s.Impressions) * 100
	}
	return s
}

// Dataset builds the two chart series, one point per period, in period order.
func Dataset(raw domain.RawMetrics) domain.ChartDataset {
	ds := domain.ChartDataset{
		Labels: make([]string, 0, len(raw.Periods)),
		Series: []domain.Series{
			{Name: SeriesSpend, Points: make([]domain.Point, 0, len(raw.Periods))},
			{Name: SeriesConversions, Points: make([]domain.Point, 0, len(raw.Periods))},
		},
	}
	for _, p := range raw.Periods {
		ds.Labels = append(ds.Labels, p.Label)
		ds.Series[0].Points = append(ds.Series[0].Points, domain.Point{Label: p.Label, Value: p.Spend})
		ds.Series[1].Points = append(ds.Series[1].Points, domain.Point{Label: p.Label, Value: float64(p.Conversions)})
	}
	return ds
}
