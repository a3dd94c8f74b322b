// Package metrics holds the domain counters for the two-step upload/remove flows
// and the reconciliation sweep. A nil *Recorder is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exposes the domain metrics.
type Recorder struct {
	partialFailures *prometheus.CounterVec
	compensations   *prometheus.CounterVec
	orphans         *prometheus.GaugeVec
}

// New registers the domain metrics on reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		partialFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardocs_partial_failures_total",
				Help: "Two-step operations that left an orphan blob or record behind.",
			},
			[]string{"operation"},
		),
		compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardocs_compensations_total",
				Help: "Compensating blob deletes after a failed metadata write.",
			},
			[]string{"operation", "result"},
		),
		orphans: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cardocs_orphans",
				Help: "Orphans found by the last reconciliation check.",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{r.partialFailures, r.compensations, r.orphans} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// PartialFailure counts an operation that stopped halfway.
func (r *Recorder) PartialFailure(operation string) {
	if r == nil {
		return
	}
	r.partialFailures.WithLabelValues(operation).Inc()
}

// Compensation counts a rollback attempt; result is "success" or "failure".
func (r *Recorder) Compensation(operation, result string) {
	if r == nil {
		return
	}
	r.compensations.WithLabelValues(operation, result).Inc()
}

// Orphans sets the number of orphans of the given kind seen by the last check.
func (r *Recorder) Orphans(kind string, n int) {
	if r == nil {
		return
	}
	r.orphans.WithLabelValues(kind).Set(float64(n))
}
