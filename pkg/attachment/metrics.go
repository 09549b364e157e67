package attachment

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quidome/parse-video-metadata/pkg/mediameta"
)

// Resolution outcomes recorded by the video hook.
const (
	OutcomeResolved = "resolved"
	OutcomeKept     = "kept"
	OutcomeAbsent   = "absent"
	OutcomeError    = "error"
)

// Metrics counts timestamp resolutions per container format and outcome.
type Metrics struct {
	Registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parse_video_metadata",
			Name:      "resolutions_total",
			Help:      "Video creation timestamp resolutions by container format and outcome.",
		}, []string{"format", "outcome"}),
	}
	m.Registry.MustRegister(m.resolutions)
	return m
}

func (m *Metrics) observe(format, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(formatLabel(format), outcome).Inc()
}

// formatLabel keeps the label set bounded; analyzer output may name any format.
func formatLabel(format string) string {
	switch mediameta.Format(format) {
	case mediameta.FormatASF, mediameta.FormatMatroska, mediameta.FormatQuickTime, mediameta.FormatMP4:
		return format
	default:
		return "unknown"
	}
}

// WriteTextfile writes all counters in the Prometheus text format, suitable for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
