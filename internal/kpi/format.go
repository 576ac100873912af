package kpi

import (
	"github.com/nfrund/kpiboard/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatted holds the display strings of a snapshot.
type Formatted struct {
	Spend       string `json:"spend"`
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	CTR         string `json:"ctr"`
}

// Formatter renders snapshots for one locale.
type Formatter struct {
	printer  *message.Printer
	currency string
}

// NewFormatter builds a formatter for tag, prefixing money with currency.
func NewFormatter(tag language.Tag, currency string) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag), currency: currency}
}

// ParseLocale parses a BCP 47 tag, falling back to Brazilian Portuguese.
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

// Format formats each metric on its own.
func (f *Formatter) Format(s domain.KpiSnapshot) Formatted {
	spend := f.printer.Sprintf("%.2f", s.Spend)
	if f.currency != "" {
		spend = f.currency + " " + spend
	}
	return Formatted{
		Spend:       spend,
		Impressions: f.printer.Sprintf("%d", s.Impressions),
		Clicks:      f.printer.Sprintf("%d", s.Clicks),
		CTR:         f.printer.Sprintf("%.2f", s.CTR) + "%",
	}
}
