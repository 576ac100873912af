// Package events defines the dashboard events published on the bus.
package events

import "github.com/nfrund/kpiboard/internal/pubsub"

// ViewChanged is sent whenever the visible view switches.
type ViewChanged struct {
	State    string `json:"state"`
	Identity string `json:"identity,omitempty"`
}

// Loading reports the loading indicator.
type Loading struct {
	Loading bool   `json:"loading"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// RefreshCompleted carries the new KPI values after a successful refresh.
type RefreshCompleted struct {
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Spend       string  `json:"spend"`
	Impressions string  `json:"impressions"`
	Clicks      string  `json:"clicks"`
	CTR         string  `json:"ctr"`
	ChartHandle string  `json:"chart_handle"`
	DurationMS  float64 `json:"duration_ms"`
}

// RefreshFailed reports a data source failure. Displayed values are unchanged.
type RefreshFailed struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Error string `json:"error"`
}

// Notification levels.
const (
	LevelError   = "error"
	LevelSuccess = "success"
	LevelInfo    = "info"
)

// Notification is a user-visible message.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

var (
	TopicViewChanged = pubsub.NewEvent[ViewChanged](
		"dashboard.view.changed", "The visible view switched between login and dashboard")
	TopicLoading = pubsub.NewEvent[Loading](
		"dashboard.refresh.loading", "The loading indicator was shown or hidden")
	TopicRefreshCompleted = pubsub.NewEvent[RefreshCompleted](
		"dashboard.refresh.completed", "A refresh applied new KPI values and chart data")
	TopicRefreshFailed = pubsub.NewEvent[RefreshFailed](
		"dashboard.refresh.failed", "A refresh failed; previous values remain displayed")
	TopicNotification = pubsub.NewEvent[Notification](
		"dashboard.notification", "A user-visible notification")
)

// All lists the topics streamed to browsers.
func All() []string {
	return []string{
		TopicViewChanged.Name(),
		TopicLoading.Name(),
		TopicRefreshCompleted.Name(),
		TopicRefreshFailed.Name(),
		TopicNotification.Name(),
	}
}
