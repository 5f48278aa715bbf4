package export

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultWritten = "written"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Metrics records export outcomes; a nil *Metrics is a no-op.
type Metrics struct {
	items         *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "errorpages",
			Subsystem: "export",
			Name:      "items_total",
			Help:      "Exported error pages by site and result",
		}, []string{"site", "result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "errorpages",
			Subsystem: "export",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of error page fetches",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.items, m.fetchDuration)
	return m
}

func (m *Metrics) IncItem(site, result string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(site, result).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(d.Seconds())
}
