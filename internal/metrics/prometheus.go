package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// streamBuckets covers LLM streaming durations from 100ms to 2 minutes.
var streamBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Collector owns the Prometheus collectors for the relay. Each Collector has
// its own registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	UpstreamStatus   *prometheus.CounterVec
	ActiveStreams    prometheus.Gauge
	FragmentsTotal   prometheus.Counter
	SkippedFrames    prometheus.Counter
	TimeToFirstDelta prometheus.Histogram
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_relay_requests_total",
				Help: "Chat requests by final outcome and status code",
			},
			[]string{"outcome", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_relay_request_duration_seconds",
				Help:    "End-to-end chat request duration",
				Buckets: streamBuckets,
			},
			[]string{"outcome"},
		),
		UpstreamStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_relay_upstream_responses_total",
				Help: "Upstream responses by HTTP status code",
			},
			[]string{"status"},
		),
		ActiveStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "chat_relay_streams_active",
				Help: "Streams currently being relayed",
			},
		),
		FragmentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_relay_fragments_total",
				Help: "Text fragments written to callers",
			},
		),
		SkippedFrames: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_relay_skipped_frames_total",
				Help: "Upstream data frames dropped as malformed or empty",
			},
		),
		TimeToFirstDelta: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chat_relay_time_to_first_fragment_seconds",
				Help:    "Delay between request receipt and the first fragment",
				Buckets: streamBuckets,
			},
		),
	}

	c.registry.MustRegister(
		c.RequestsTotal,
		c.RequestDuration,
		c.UpstreamStatus,
		c.ActiveStreams,
		c.FragmentsTotal,
		c.SkippedFrames,
		c.TimeToFirstDelta,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveRequest records the final outcome of one chat request.
func (c *Collector) ObserveRequest(outcome string, status int, elapsed time.Duration) {
	c.RequestsTotal.WithLabelValues(outcome, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveUpstream records the status code the provider answered with.
func (c *Collector) ObserveUpstream(status int) {
	c.UpstreamStatus.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler serves the collectors in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
