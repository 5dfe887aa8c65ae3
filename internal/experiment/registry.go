package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/metrics"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
)

// StabilityTolerance is the angle error, in radians, still counted as upright.
const StabilityTolerance = 0.05

type Registry struct {
	metrics map[string]func() sim.Metric
}

func NewRegistry(c dynamo.Constants) *Registry {
	p := physics.FromConstants(c)
	r := &Registry{metrics: make(map[string]func() sim.Metric)}

	r.metrics["stability"] = func() sim.Metric { return metrics.NewStability(StabilityTolerance) }
	r.metrics["max_deviation"] = func() sim.Metric { return metrics.NewMaxDeviation() }
	r.metrics["control_effort"] = func() sim.Metric { return metrics.NewControlEffort() }
	r.metrics["edge_dwell"] = func() sim.Metric { return metrics.NewEdgeDwell() }
	r.metrics["reversals"] = func() sim.Metric { return metrics.NewReversals() }
	r.metrics["energy"] = func() sim.Metric { return metrics.NewEnergy(p) }
	r.metrics["energy_drift"] = func() sim.Metric { return metrics.NewEnergyDrift(p) }

	return r
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []sim.Metric {
	out := make([]sim.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name]())
	}
	return out
}
