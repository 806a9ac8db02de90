package bufpool

import "github.com/prometheus/client_golang/prometheus"

var (
	getsDesc = prometheus.NewDesc(
		"oblivion_bufpool_gets_total", "Total Get calls per buffer size class", []string{"class"}, nil)
	missesDesc = prometheus.NewDesc(
		"oblivion_bufpool_misses_total", "Total allocations (pool misses) per buffer size class", []string{"class"}, nil)
)

// Collector exposes a Pool's per-class get/miss counters to Prometheus,
// mirroring the teacher's buffer-pool PrometheusCollector but scraping the
// live counters on each Collect instead of re-deriving hit rate from a
// separately-updated snapshot.
type Collector struct {
	p *Pool
}

func NewCollector(p *Pool) *Collector { return &Collector{p: p} }

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- getsDesc
	ch <- missesDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.p.Metrics()
	ch <- prometheus.MustNewConstMetric(getsDesc, prometheus.CounterValue, float64(m.ScratchGets), "scratch")
	ch <- prometheus.MustNewConstMetric(getsDesc, prometheus.CounterValue, float64(m.TunnelGets), "tunnel")
	ch <- prometheus.MustNewConstMetric(missesDesc, prometheus.CounterValue, float64(m.ScratchMisses), "scratch")
	ch <- prometheus.MustNewConstMetric(missesDesc, prometheus.CounterValue, float64(m.TunnelMisses), "tunnel")
}
