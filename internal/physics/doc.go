// Package physics advances the pendulum riding on the cart.
//
// [CartPendulum] integrates the rod angle with semi-implicit Euler over a
// fixed step. The cart itself is kinematic: its position comes from the
// controller or from a manual override, and its acceleration is estimated
// by differencing positions across ticks:
//
//	p, _ := physics.NewCartPendulum(dynamo.DefaultConstants())
//	p.Integrate(&state, state.CartPosition)
//
// [CartPendulum.Energy] measures the distance from the balanced rest state
// for metrics.
package physics
