package view

import (
	"github.com/nfrund/kpiboard/internal/view/dto"
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"
)

// IDs shared between pages, handlers and the browser script.
const (
	DashboardBodyID    = "dashboard-body"
	LoadingIndicatorID = "loading-indicator"
	NotificationsID    = "notifications"
)

// Notifications renders flash messages. Errors are shown as alerts that must be dismissed.
func Notifications(flashes FlashData) g.Node {
	return h.Div(
		h.ID(NotificationsID),
		h.Class("notifications"),
		g.Map(flashes.Error, func(msg string) g.Node {
			return h.Div(h.Class("notice notice-error"), h.Role("alert"), g.Text(msg))
		}),
		g.Map(flashes.Success, func(msg string) g.Node {
			return h.Div(h.Class("notice notice-success"), h.Role("status"), g.Text(msg))
		}),
	)
}

// LoginPage is the login panel.
func LoginPage(data dto.LoginData) g.Node {
	return h.Main(
		h.ID("login-container"),
		h.Class("panel login"),
		h.H1(g.Text("Campaign dashboard")),
		h.Form(
			h.ID("login-form"),
			h.Method("post"),
			h.Action("/login"),
			h.Label(h.For("email"), g.Text("Email")),
			h.Input(h.Type("email"), h.ID("email"), h.Name("email"), h.Value(data.Email), h.AutoComplete("username")),
			h.Label(h.For("password"), g.Text("Password")),
			h.Input(h.Type("password"), h.ID("password"), h.Name("password"), h.AutoComplete("current-password")),
			h.Button(h.Type("submit"), g.Text("Log in")),
		),
	)
}

// DashboardPage is the dashboard panel.
func DashboardPage(data dto.DashboardData) g.Node {
	return h.Main(
		h.ID("dashboard-container"),
		h.Class("panel dashboard"),
		h.Header(
			h.Span(h.ID("user-email"), g.Textf("Hello, %s", data.Identity)),
			h.Form(
				h.Method("post"),
				h.Action("/logout"),
				h.Button(h.ID("logout-btn"), h.Type("submit"), g.Text("Log out")),
			),
		),
		h.Form(
			h.ID("range-form"),
			h.Method("post"),
			h.Action("/refresh"),
			hx.Post("/refresh"),
			hx.Target("#"+DashboardBodyID),
			hx.Swap("outerHTML"),
			hx.Indicator("#"+LoadingIndicatorID),
			h.Label(h.For("start"), g.Text("Start")),
			h.Input(h.Type("date"), h.ID("start"), h.Name("start"), h.Value(data.Start)),
			h.Label(h.For("end"), g.Text("End")),
			h.Input(h.Type("date"), h.ID("end"), h.Name("end"), h.Value(data.End)),
			h.Button(h.ID("fetch-btn"), h.Type("submit"), g.Text("Fetch data")),
			LoadingIndicator(data.Loading),
		),
		DashboardBody(data),
	)
}

// LoadingIndicator is shown while a refresh is in flight.
func LoadingIndicator(loading bool) g.Node {
	class := "htmx-indicator"
	if loading {
		class += " loading"
	}
	return h.Span(
		h.ID(LoadingIndicatorID),
		h.Class(class),
		h.Aria("live", "polite"),
		g.Text("Loading..."),
	)
}

// DashboardBody holds the KPI cards and the chart. Refreshes swap it as a whole.
func DashboardBody(data dto.DashboardData) g.Node {
	return h.Section(
		h.ID(DashboardBodyID),
		g.If(data.Alert != "", h.Div(h.Class("notice notice-error"), h.Role("alert"), g.Text(data.Alert))),
		g.If(data.Notice != "", h.Div(h.Class("notice notice-warning"), h.Role("status"), g.Text(data.Notice))),
		h.Div(
			h.Class("kpis"),
			kpiCard("kpi-spend", "Spend", data.KPIs.Spend, data.HasData),
			kpiCard("kpi-impressions", "Impressions", data.KPIs.Impressions, data.HasData),
			kpiCard("kpi-clicks", "Clicks", data.KPIs.Clicks, data.HasData),
			kpiCard("kpi-ctr", "CTR", data.KPIs.CTR, data.HasData),
		),
		g.If(data.Chart != nil, data.Chart),
		g.If(!data.UpdatedAt.IsZero(),
			h.P(h.Class("updated"), g.Textf("Updated %s", data.UpdatedAt.Format("2006-01-02 15:04:05"))),
		),
	)
}

func kpiCard(id, label, value string, hasData bool) g.Node {
	if !hasData {
		value = "-"
	}
	return h.Div(
		h.ID(id),
		h.Class("kpi"),
		h.Span(h.Class("kpi-label"), g.Text(label)),
		h.Strong(h.Class("kpi-value"), g.Text(value)),
	)
}
