package host

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "entry_extension"

// Collector exports executor counters to Prometheus. Values are read from
// Executor.Stats at scrape time.
type Collector struct {
	executor      *Executor
	steps         *prometheus.Desc
	earlyReleases *prometheus.Desc
	violations    *prometheus.Desc
}

// NewCollector returns a collector for e. Every series carries an
// extension label set to name, so one registry can serve several executors.
func NewCollector(e *Executor, name string) *Collector {
	labels := prometheus.Labels{"extension": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "executor", metric), help, nil, labels)
	}
	return &Collector{
		executor:      e,
		steps:         desc("opcode_steps_total", "Custom opcodes executed."),
		earlyReleases: desc("early_releases_total", "Opcodes whose handler released the executor lock before it was asked to."),
		violations:    desc("lock_violations_total", "Opcodes that handed the executor lock back in the wrong state."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.steps
	ch <- c.earlyReleases
	ch <- c.violations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.executor.Stats()
	ch <- prometheus.MustNewConstMetric(c.steps, prometheus.CounterValue, float64(s.Steps))
	ch <- prometheus.MustNewConstMetric(c.earlyReleases, prometheus.CounterValue, float64(s.EarlyReleases))
	ch <- prometheus.MustNewConstMetric(c.violations, prometheus.CounterValue, float64(s.Violations))
}
