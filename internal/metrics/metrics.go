// Package metrics exposes scan counters on a private Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Scan struct {
	Registry *prometheus.Registry

	Runs           *prometheus.CounterVec // by outcome: clean|violations
	Violations     *prometheus.CounterVec // by rule
	TargetsScanned prometheus.Counter
	TargetsSkipped prometheus.Counter
	RuleFaults     *prometheus.CounterVec // by rule
}

func New() *Scan {
	reg := prometheus.NewRegistry()
	s := &Scan{
		Registry: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewmate",
			Name:      "scan_runs_total",
			Help:      "Completed scans by gate outcome.",
		}, []string{"outcome"}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewmate",
			Name:      "violations_total",
			Help:      "Reported violations by rule.",
		}, []string{"rule"}),
		TargetsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reviewmate",
			Name:      "targets_scanned_total",
			Help:      "Targets read and evaluated.",
		}),
		TargetsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reviewmate",
			Name:      "targets_skipped_total",
			Help:      "Targets skipped because they were missing or unreadable.",
		}),
		RuleFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewmate",
			Name:      "rule_faults_total",
			Help:      "Rule evaluations that panicked.",
		}, []string{"rule"}),
	}
	reg.MustRegister(s.Runs, s.Violations, s.TargetsScanned, s.TargetsSkipped, s.RuleFaults)
	return s
}

// Handler serves the registry in the Prometheus text format.
func (s *Scan) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}
