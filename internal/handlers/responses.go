package handlers

import (
	"github.com/nfrund/kpiboard/internal/dashboard"
	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/kpi"
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	View         domain.ViewState    `json:"view"`
	Identity     string              `json:"identity,omitempty"`
	Refresh      domain.RefreshState `json:"refresh"`
	Start        string              `json:"start,omitempty"`
	End          string              `json:"end,omitempty"`
	KPIs         *kpi.Formatted      `json:"kpis,omitempty"`
	Snapshot     *domain.KpiSnapshot `json:"snapshot,omitempty"`
	ChartHandle  string              `json:"chart_handle,omitempty"`
	LastError    string              `json:"last_error,omitempty"`
	SessionError string              `json:"session_error,omitempty"`
}

// NewStatusResponse flattens a dashboard status for the API.
func NewStatusResponse(st dashboard.Status) StatusResponse {
	resp := StatusResponse{
		View:         st.View,
		Identity:     string(st.Identity),
		Refresh:      st.Refresh.State,
		Start:        st.Refresh.Range.StartString(),
		End:          st.Refresh.Range.EndString(),
		ChartHandle:  st.ChartHandle,
		LastError:    st.Refresh.LastError,
		SessionError: st.SessionError,
	}
	if last := st.Refresh.Last; last != nil {
		display, snapshot := last.Display, last.Snapshot
		resp.KPIs = &display
		resp.Snapshot = &snapshot
	}
	return resp
}
