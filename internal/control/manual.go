package control

import "github.com/san-kum/pendsim/internal/dynamo"

// DeviationStep is the cart displacement of one arrow key press.
const DeviationStep = 5.0

// Nudge displaces the cart by delta ("Hand of God" deflection). The previous
// position is left alone so the next integration sees the jump as an
// acceleration kick.
func Nudge(s *dynamo.State, delta float64) {
	s.CartPosition += delta
}

// Place moves the cart to an absolute position with the same kick semantics
// as Nudge.
func Place(s *dynamo.State, x float64) {
	s.CartPosition = x
}
