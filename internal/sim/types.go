package sim

import "github.com/san-kum/pendsim/internal/dynamo"

type Metric interface {
	Name() string
	Observe(s dynamo.Snapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s dynamo.Snapshot)
}

// KickSource supplies manual cart deflections for headless runs. Kick is
// called once before each tick with the tick about to run.
type KickSource interface {
	Kick(tick uint64) (delta float64, ok bool)
}

// Script yields the commands due before the given tick runs.
type Script interface {
	Due(tick uint64) []Command
}

type RunConfig struct {
	Ticks         int
	ValidateState bool
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Ticks:         1000,
		ValidateState: true,
	}
}

type Result struct {
	Snapshots  []dynamo.Snapshot
	Metrics    map[string]float64
	StepsTaken int
	Kicks      int
	Reversals  int
	Errors     []error
}

// Final returns the last recorded snapshot.
func (r *Result) Final() dynamo.Snapshot {
	if len(r.Snapshots) == 0 {
		return dynamo.Snapshot{}
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

// Series extracts one field across the recorded snapshots.
func (r *Result) Series(field func(dynamo.Snapshot) float64) []float64 {
	out := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		out[i] = field(s)
	}
	return out
}
