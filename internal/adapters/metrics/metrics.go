// Package metrics implements ports.Metrics on a private Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	namespace = "rattle"
	subsystem = "solver"
)

// Metric names as exposed by the registry.
const (
	SolvesTotalName     = namespace + "_" + subsystem + "_solves_total"
	DurationSecondsName = namespace + "_" + subsystem + "_duration_seconds"
	DecisionsTotalName  = namespace + "_" + subsystem + "_decisions_total"
	ConflictsTotalName  = namespace + "_" + subsystem + "_conflicts_total"
)

// Collector implements ports.Metrics.
type Collector struct {
	reg       *prometheus.Registry
	solves    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	decisions prometheus.Counter
	conflicts prometheus.Counter
}

// New creates a Collector registering its metrics on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		reg: reg,
		solves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solves_total",
			Help:      "Total number of solves by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Wall time of one solve, compilation included",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"outcome"}),
		decisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "decisions_total",
			Help:      "Total number of branching decisions",
		}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "conflicts_total",
			Help:      "Total number of conflicts analyzed",
		}),
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// ObserveSolve records one solve.
func (c *Collector) ObserveSolve(outcome string, stats domain.SolveStats) {
	c.solves.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(stats.Duration.Seconds())
	c.decisions.Add(float64(stats.Decisions))
	c.conflicts.Add(float64(stats.Conflicts))
}

// Totals gathers the registry and sums the observed solves.
func (c *Collector) Totals() (ports.SolveTotals, error) {
	families, err := c.reg.Gather()
	if err != nil {
		return ports.SolveTotals{}, zerr.Wrap(err, "failed to gather metrics")
	}

	totals := ports.SolveTotals{Outcomes: make(map[string]int)}
	for _, mf := range families {
		switch mf.GetName() {
		case SolvesTotalName:
			for _, m := range mf.GetMetric() {
				totals.Outcomes[label(m, "outcome")] += int(m.GetCounter().GetValue())
			}
		case DurationSecondsName:
			for _, m := range mf.GetMetric() {
				totals.Seconds += m.GetHistogram().GetSampleSum()
			}
		case DecisionsTotalName:
			totals.Decisions = int(sumCounters(mf))
		case ConflictsTotalName:
			totals.Conflicts = int(sumCounters(mf))
		}
	}
	return totals, nil
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func sumCounters(mf *dto.MetricFamily) float64 {
	var sum float64
	for _, m := range mf.GetMetric() {
		sum += m.GetCounter().GetValue()
	}
	return sum
}
