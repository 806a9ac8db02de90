package ratelimit

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the counters for one Limiter. Unlike the teacher's
// buffer-pool metrics (package-level promauto vars, meant for exactly one
// process-wide pool), a process can construct more than one Limiter in
// tests, so these are per-instance and registered explicitly via Collector
// rather than auto-registered to the default registry.
type metrics struct {
	admitted prometheus.Counter
	denied   prometheus.Counter
	evicted  prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oblivion",
			Subsystem: "ratelimit",
			Name:      "admitted_total",
			Help:      "Total number of requests admitted by the rate limiter",
		}),
		denied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oblivion",
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Total number of requests denied by the rate limiter",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oblivion",
			Subsystem: "ratelimit",
			Name:      "buckets_evicted_total",
			Help:      "Total number of idle buckets evicted",
		}),
	}
}

// Collector exposes a Limiter's counters, plus a live gauge of tracked IPs
// summed across shards, to Prometheus. Grounded on the teacher's PrometheusCollector for the buffer
// pool: a thin Collector wrapper around state that already lives on the
// owning type, registered once by the caller rather than pulled in
// automatically.
type Collector struct {
	l *Limiter
}

// NewCollector wraps l for registration with a prometheus.Registerer.
func NewCollector(l *Limiter) *Collector {
	return &Collector{l: l}
}

var shardSizeDesc = prometheus.NewDesc(
	"oblivion_ratelimit_tracked_ips",
	"Current number of IPs with an active bucket, summed across shards",
	nil, nil,
)

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.l.metrics.admitted.Desc()
	ch <- c.l.metrics.denied.Desc()
	ch <- c.l.metrics.evicted.Desc()
	ch <- shardSizeDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- c.l.metrics.admitted
	ch <- c.l.metrics.denied
	ch <- c.l.metrics.evicted

	var tracked int
	for _, s := range c.l.shards {
		s.mu.Lock()
		tracked += len(s.buckets)
		s.mu.Unlock()
	}
	ch <- prometheus.MustNewConstMetric(shardSizeDesc, prometheus.GaugeValue, float64(tracked))
}
