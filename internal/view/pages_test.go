package view_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nfrund/kpiboard/internal/kpi"
	"github.com/nfrund/kpiboard/internal/view"
	"github.com/nfrund/kpiboard/internal/view/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	h "maragu.dev/gomponents/html"
)

func TestLoginPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, view.LoginPage(dto.LoginData{Email: "a@b.com"}).Render(&buf))

	html := buf.String()
	assert.Contains(t, html, `id="login-form"`)
	assert.Contains(t, html, `action="/login"`)
	assert.Contains(t, html, `value="a@b.com"`)
	assert.NotContains(t, html, "dashboard-container")
}

func TestDashboardPage(t *testing.T) {
	data := dto.DashboardData{
		Identity: "a@b.com",
		Start:    "2024-01-01",
		End:      "2024-01-31",
		HasData:  true,
		KPIs:     kpi.Formatted{Spend: "R$ 100,00", Impressions: "2.200", Clicks: "14", CTR: "0,64%"},
		Chart:    h.Div(h.ID("performanceChart")),
	}

	var buf bytes.Buffer
	require.NoError(t, view.DashboardPage(data).Render(&buf))
	html := buf.String()

	assert.Contains(t, html, "Hello, a@b.com")
	assert.Contains(t, html, `hx-post="/refresh"`)
	assert.Contains(t, html, `hx-indicator="#loading-indicator"`)
	assert.Contains(t, html, `value="2024-01-31"`)
	assert.Contains(t, html, "R$ 100,00")
	assert.Contains(t, html, `id="performanceChart"`)
	assert.NotContains(t, html, "login-form")
	assert.NotContains(t, html, `class="htmx-indicator loading"`)
}

func TestDashboardBody_WithoutData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, view.DashboardBody(dto.DashboardData{Alert: "bad range", Notice: "fetch failed"}).Render(&buf))
	html := buf.String()

	assert.Equal(t, 4, strings.Count(html, `<strong class="kpi-value">-</strong>`))
	assert.Contains(t, html, `<div class="notice notice-error" role="alert">bad range</div>`)
	assert.Contains(t, html, `<div class="notice notice-warning" role="status">fetch failed</div>`)
	assert.NotContains(t, html, "Updated")
}

func TestLoadingIndicator(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, view.LoadingIndicator(true).Render(&buf))
	assert.Contains(t, buf.String(), `class="htmx-indicator loading"`)

	buf.Reset()
	require.NoError(t, view.LoadingIndicator(false).Render(&buf))
	assert.Contains(t, buf.String(), `class="htmx-indicator"`)
}

func TestBase(t *testing.T) {
	var buf bytes.Buffer
	flashes := view.FlashData{Error: []string{"<bad>"}}
	err := view.Base("Login <1>", flashes, view.LoginPage(dto.LoginData{})).Render(context.Background(), &buf)
	require.NoError(t, err)
	html := buf.String()

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Login &lt;1&gt; - KPI Board</title>")
	assert.Contains(t, html, "&lt;bad&gt;")
	assert.Contains(t, html, `id="login-form"`)
}

func TestAdapters(t *testing.T) {
	node := h.Span(h.Class("x"))
	comp := view.AdaptGomponentToTempl(node)

	var buf bytes.Buffer
	require.NoError(t, view.AdaptTemplToGomponent(comp).Render(&buf))
	assert.Equal(t, `<span class="x"></span>`, buf.String())
}
