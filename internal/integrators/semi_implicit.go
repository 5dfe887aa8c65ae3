package integrators

// Accel returns the angular acceleration for a given angle and angular velocity.
type Accel func(theta, omega float64) float64

// SemiImplicitEuler advances velocity first and then position with the
// updated velocity.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (e *SemiImplicitEuler) Step(theta, omega float64, accel Accel, dt float64) (float64, float64) {
	omega += accel(theta, omega) * dt
	theta += omega * dt
	return theta, omega
}
