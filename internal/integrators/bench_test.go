package integrators

import (
	"math"
	"testing"
)

func BenchmarkSemiImplicitEuler(b *testing.B) {
	integrator := NewSemiImplicitEuler()
	theta, omega := 1.0, 0.0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		theta, omega = integrator.Step(theta, omega, harmonic, 0.01)
	}
}

func BenchmarkSemiImplicitEulerPendulum(b *testing.B) {
	integrator := NewSemiImplicitEuler()
	pendulum := func(theta, omega float64) float64 {
		return (9.81/150)*math.Sin(theta) - 0.02*omega
	}
	theta, omega := math.Pi-0.1, 0.0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		theta, omega = integrator.Step(theta, omega, pendulum, 0.016)
	}
}
