package control

import "github.com/san-kum/pendsim/internal/dynamo"

// ApplyEdge clamps the cart to the track and runs the dwell timer.
//
// The timer accumulates on every clamped tick and resets on any tick the cart
// is free. Once it reaches the threshold the drive direction flips and the
// controller returns to tracking.
func (c *Controller) ApplyEdge(s *dynamo.State) {
	switch {
	case s.CartPosition <= c.lower:
		s.CartPosition = c.lower
		s.AtEdge = true
		s.EdgeTimer += c.dt
	case s.CartPosition >= c.upper:
		s.CartPosition = c.upper
		s.AtEdge = true
		s.EdgeTimer += c.dt
	default:
		s.AtEdge = false
		s.EdgeTimer = 0
	}

	if s.AtEdge && s.EdgeTimer >= c.edgeTimeThreshold {
		s.DriveDirection *= -1
		s.EdgeTimer = 0
		s.AtEdge = false
	}
}

// Bounds returns the clamp limits for the cart pivot.
func (c *Controller) Bounds() (lower, upper float64) {
	return c.lower, c.upper
}
