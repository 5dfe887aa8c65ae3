package physics

import (
	"math"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
)

// CartPendulum is a rigid rod pivoted on a cart whose position is dictated
// from outside. The cart is not integrated here: its acceleration is read
// back from consecutive positions.
type CartPendulum struct {
	Gravity   float64
	RodLength float64
	Damping   float64
	Dt        float64

	integrator integrators.SemiImplicitEuler
}

func NewCartPendulum(c dynamo.Constants) (*CartPendulum, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return FromConstants(c), nil
}

// FromConstants builds the pendulum without validating c.
func FromConstants(c dynamo.Constants) *CartPendulum {
	return &CartPendulum{
		Gravity:   c.Gravity,
		RodLength: c.RodLength,
		Damping:   c.Damping,
		Dt:        c.Dt,
	}
}

// AngularAcceleration combines the gravitational torque, viscous damping and
// the pseudo-torque from accelerating the pivot.
func (p *CartPendulum) AngularAcceleration(theta, omega, cartAcc float64) float64 {
	// Evaluated about the upright so sin is exactly zero at θ = π.
	dev := math.Pi - theta
	sint := math.Sin(dev)
	cost := -math.Cos(dev)

	gravitational := (p.Gravity / p.RodLength) * sint
	damping := -p.Damping * omega
	cartEffect := -cartAcc * cost / p.RodLength

	return gravitational + damping + cartEffect
}

// Integrate advances the angle by one tick given the cart position already
// decided for this tick. The acceleration estimate is a first difference of
// position, so it lags true acceleration by one tick.
func (p *CartPendulum) Integrate(s *dynamo.State, cartPositionThisTick float64) {
	cartAcc := (cartPositionThisTick - s.PreviousCartPosition) / p.Dt
	s.PreviousCartPosition = cartPositionThisTick
	s.CartAcceleration = cartAcc

	s.Angle, s.AngularVelocity = p.integrator.Step(s.Angle, s.AngularVelocity, func(theta, omega float64) float64 {
		return p.AngularAcceleration(theta, omega, cartAcc)
	}, p.Dt)
}
