package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guanw/ReviewMate/internal/storage"
)

// StatsSource is satisfied by *storage.DB.
type StatsSource interface {
	Stats() (storage.Stats, error)
}

// storeCollector reads totals from the database at scrape time.
type storeCollector struct {
	src        StatsSource
	runs       *prometheus.Desc
	violations *prometheus.Desc
	waivers    *prometheus.Desc
	up         *prometheus.Desc
}

// WatchStore exports stored run, violation and waiver totals on the registry.
func (s *Scan) WatchStore(src StatsSource) {
	s.Registry.MustRegister(&storeCollector{
		src:        src,
		runs:       prometheus.NewDesc("reviewmate_stored_runs", "Runs saved in the database.", nil, nil),
		violations: prometheus.NewDesc("reviewmate_stored_violations", "Violations saved across all runs.", nil, nil),
		waivers:    prometheus.NewDesc("reviewmate_active_waivers", "Waivers neither revoked nor expired.", nil, nil),
		up:         prometheus.NewDesc("reviewmate_store_up", "1 when the last stats query succeeded.", nil, nil),
	})
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runs
	ch <- c.violations
	ch <- c.waivers
	ch <- c.up
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	st, err := c.src.Stats()
	if err != nil {
		slog.Warn("metrics: store stats failed", "err", err)
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.runs, prometheus.GaugeValue, float64(st.Runs))
	ch <- prometheus.MustNewConstMetric(c.violations, prometheus.GaugeValue, float64(st.Violations))
	ch <- prometheus.MustNewConstMetric(c.waivers, prometheus.GaugeValue, float64(st.ActiveWaivers))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (s *Scan) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, s.Registry)
}
