package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	editorActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "editor_actions_total",
			Help:      "Editing actions dispatched to sessions.",
		},
		[]string{"action", "applied"},
	)

	renderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering content trees to HTML.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"surface"},
	)

	contentShapes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_loads_total",
			Help:      "Stored documents loaded, by detected format.",
		},
		[]string{"shape"},
	)

	hookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_deliveries_total",
			Help:      "Page event deliveries to hook subscribers.",
		},
		[]string{"event", "outcome"},
	)

	mediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_uploads_total",
			Help:      "Accepted media uploads.",
		},
		[]string{"kind"},
	)
)

// ObserveAction counts one dispatched editing action.
func ObserveAction(action string, applied bool) {
	v := "false"
	if applied {
		v = "true"
	}
	editorActions.WithLabelValues(action, v).Inc()
}

// ObserveRender records one render of the given surface
// ("fragment", "preview", "document").
func ObserveRender(surface string, d time.Duration) {
	renderDuration.WithLabelValues(surface).Observe(d.Seconds())
}

// ObserveShape counts one stored document load.
func ObserveShape(shape string) {
	contentShapes.WithLabelValues(shape).Inc()
}

// ObserveHookDelivery counts one delivery attempt outcome
// ("ok", "error", "skipped").
func ObserveHookDelivery(event, outcome string) {
	hookDeliveries.WithLabelValues(event, outcome).Inc()
}

// ObserveUpload counts one stored media asset.
func ObserveUpload(kind string) {
	mediaUploads.WithLabelValues(kind).Inc()
}

// NewSessionsGauge returns a gauge reporting the number of open editing
// sessions, read from open on every scrape. Register it once.
func NewSessionsGauge(open func() int) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "editor_sessions_open",
			Help:      "Editing sessions currently open.",
		},
		func() float64 { return float64(open()) },
	)
}
