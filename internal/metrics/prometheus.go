package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus keeps the dotted metric names as label values so call sites
// stay backend agnostic.
type Prometheus struct {
	registry  *prometheus.Registry
	events    *prometheus.CounterVec
	durations *prometheus.HistogramVec
	gauges    *prometheus.GaugeVec
}

func NewPrometheus(nodeName string, namespace string) *Prometheus {
	constLabels := prometheus.Labels{"node": nodeName}
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "events_total",
			Help:        "Count of named events.",
			ConstLabels: constLabels,
		}, []string{"event"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "duration_seconds",
			Help:        "Duration of named operations.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"op"}),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "gauge",
			Help:        "Named gauges.",
			ConstLabels: constLabels,
		}, []string{"name"}),
	}
	p.registry.MustRegister(
		p.events,
		p.durations,
		p.gauges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) Increment(metric string) {
	p.events.WithLabelValues(metric).Inc()
}

func (p *Prometheus) Duration(metric string, duration time.Duration) {
	p.durations.WithLabelValues(metric).Observe(duration.Seconds())
}

func (p *Prometheus) Gauge(metric string, value int) {
	p.gauges.WithLabelValues(metric).Set(float64(value))
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
