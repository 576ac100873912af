// Package dto holds the view models passed from handlers to pages.
package dto

import (
	"time"

	"github.com/nfrund/kpiboard/internal/kpi"
	g "maragu.dev/gomponents"
)

// LoginData is the view model of the login page.
type LoginData struct {
	Email string
}

// DashboardData is the view model of the dashboard page.
type DashboardData struct {
	Identity  string
	Start     string
	End       string
	Loading   bool
	HasData   bool
	KPIs      kpi.Formatted
	Chart     g.Node
	UpdatedAt time.Time
	// Alert is a validation problem the user must acknowledge.
	Alert string
	// Notice is a non-blocking message, such as a failed fetch.
	Notice string
}
