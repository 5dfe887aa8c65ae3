package metrics

import (
	"math"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/physics"
)

// Energy is the mean specific pendulum energy over the run. The upright
// equilibrium sits at zero.
type Energy struct {
	name        string
	pendulum    *physics.CartPendulum
	samples     int
	totalEnergy float64
}

func NewEnergy(p *physics.CartPendulum) *Energy {
	return &Energy{
		name:     "energy",
		pendulum: p,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(snap dynamo.Snapshot) {
	e.totalEnergy += e.pendulum.Energy(snap.Angle, snap.AngularVelocity)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest absolute energy excursion from the first
// observed sample. Relative drift is meaningless here since upright is zero.
type EnergyDrift struct {
	name          string
	pendulum      *physics.CartPendulum
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(p *physics.CartPendulum) *EnergyDrift {
	return &EnergyDrift{
		name:     "energy_drift",
		pendulum: p,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(snap dynamo.Snapshot) {
	energy := e.pendulum.Energy(snap.Angle, snap.AngularVelocity)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	e.maxDrift = math.Max(e.maxDrift, math.Abs(energy-e.initialEnergy))
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
