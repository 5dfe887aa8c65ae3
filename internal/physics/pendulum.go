package physics

import (
	"fmt"
	"math"
)

// Energy returns the pendulum energy per unit mass measured from the upright
// rest state. It is zero balanced at π and negative while hanging.
func (p *CartPendulum) Energy(theta, omega float64) float64 {
	v := p.RodLength * omega
	ke := 0.5 * v * v
	pe := -p.Gravity * p.RodLength * (1.0 + math.Cos(theta))
	return ke + pe
}

// NaturalFrequency is the small-angle frequency of the hanging pendulum in Hz.
func (p *CartPendulum) NaturalFrequency() float64 {
	return math.Sqrt(p.Gravity/p.RodLength) / (2 * math.Pi)
}

func (p *CartPendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":    p.Gravity,
		"rod_length": p.RodLength,
		"damping":    p.Damping,
		"dt":         p.Dt,
	}
}

func (p *CartPendulum) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("param %s must be finite", name)
	}
	switch name {
	case "gravity":
		p.Gravity = value
	case "rod_length":
		if value <= 0 {
			return fmt.Errorf("rod_length must be positive, got %f", value)
		}
		p.RodLength = value
	case "damping":
		if value < 0 {
			return fmt.Errorf("damping must be non-negative, got %f", value)
		}
		p.Damping = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
