// Package control keeps the rod upright by moving the cart.
//
// [Controller] implements a PID or PD law on the angle error π−θ and turns
// the resulting force into a cart velocity scaled by the drive direction.
// After each move the cart is clamped to the track; sustained contact with
// an edge flips the drive direction, which makes the cart sweep back and
// forth across the track on its own.
//
// # Usage
//
//	ctrl := control.New(dynamo.DefaultConstants(), dynamo.ModePID)
//	gains := control.DefaultGains()
//	gains.Set(control.GainKp, 12, dynamo.ModePID) // Kp = 12 * ConvergenceRate
//	ctrl.Compute(&state, gains)
//
// [Nudge] and [Place] model manual deflection of the cart between ticks.
package control
