// Package dynamo defines the data model shared by the pendulum simulation.
//
// The package holds the plain types every other package exchanges:
//
//   - [Constants]: physical and timing parameters, validated once
//   - [State]: the single mutable simulation aggregate
//   - [Snapshot]: the per-tick view consumed by renderers and recorders
//   - [Mode]: PID or PD control law
//
// # Angles
//
// Angles are measured from the downward vertical, so π is the upright
// setpoint. The simulation never wraps the angle; use [WrapAngle] when a
// bounded value is needed for display.
//
// # Thread Safety
//
// A [State] is owned by exactly one driver. Nothing in this package
// synchronises access.
package dynamo
