package proxy

import "github.com/prometheus/client_golang/prometheus"

// connMetrics counts pipeline outcomes by disposition, so an operator can
// see the blocked/rate-limited/tunneled/upstream-error mix over time without
// parsing logs. Grounded on the same per-instance Collector pattern used by
// internal/ratelimit, itself adapted from the teacher's buffer-pool
// Prometheus collector.
type connMetrics struct {
	tunneled     prometheus.Counter
	blocked      *prometheus.CounterVec
	rateLimited  prometheus.Counter
	parseErrors  prometheus.Counter
	upstreamErrs *prometheus.CounterVec
}

func newConnMetrics() *connMetrics {
	return &connMetrics{
		tunneled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oblivion",
			Subsystem: "proxy",
			Name:      "tunneled_total",
			Help:      "Total number of connections that reached the tunnel phase",
		}),
		blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oblivion",
			Subsystem: "proxy",
			Name:      "blocked_total",
			Help:      "Total number of requests blocked by the inspection engine, by reason category",
		}, []string{"category"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oblivion",
			Subsystem: "proxy",
			Name:      "rate_limited_total",
			Help:      "Total number of connections rejected by the rate limiter",
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oblivion",
			Subsystem: "proxy",
			Name:      "parse_errors_total",
			Help:      "Total number of requests that failed to parse",
		}),
		upstreamErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oblivion",
			Subsystem: "proxy",
			Name:      "upstream_errors_total",
			Help:      "Total number of upstream connect failures, by kind",
		}, []string{"kind"}),
	}
}

// Collector exposes a Pipeline's connection-outcome counters to Prometheus.
type Collector struct {
	p *Pipeline
}

// NewCollector wraps a Pipeline for registration with a prometheus.Registerer.
func NewCollector(p *Pipeline) *Collector {
	return &Collector{p: p}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.p.metrics.blocked.Describe(ch)
	c.p.metrics.upstreamErrs.Describe(ch)
	ch <- c.p.metrics.tunneled.Desc()
	ch <- c.p.metrics.rateLimited.Desc()
	ch <- c.p.metrics.parseErrors.Desc()
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.p.metrics.blocked.Collect(ch)
	c.p.metrics.upstreamErrs.Collect(ch)
	ch <- c.p.metrics.tunneled
	ch <- c.p.metrics.rateLimited
	ch <- c.p.metrics.parseErrors
}
