package viz

import (
	"math"

	"github.com/san-kum/pendsim/internal/dynamo"
)

// BobPosition places the rod tip in world units with y pointing up. At the
// upright angle π the bob sits directly above the pivot.
func BobPosition(cartX, pivotY, rodLength, theta float64) (x, y float64) {
	return cartX + rodLength*math.Sin(theta), pivotY - rodLength*math.Cos(theta)
}

// Scene maps world coordinates onto a canvas. The track spans the full
// canvas width and the pivot sits on a rail near the bottom.
type Scene struct {
	constants dynamo.Constants
	canvas    *Canvas
	scale     float64
	railY     int
}

func NewScene(c dynamo.Constants, canvas *Canvas) *Scene {
	scale := float64(canvas.DotsWide()-1) / c.TrackWidth
	// Leave room above the rail for an upright rod.
	if maxScale := float64(canvas.DotsHigh()-8) / c.RodLength; scale > maxScale {
		scale = maxScale
	}
	return &Scene{
		constants: c,
		canvas:    canvas,
		scale:     scale,
		railY:     canvas.DotsHigh() - 5,
	}
}

// toScreen converts world x and height above the pivot to canvas dots.
func (s *Scene) toScreen(x, y float64) (int, int) {
	return int(math.Round(x * s.scale)), s.railY - int(math.Round(y*s.scale))
}

func (s *Scene) Draw(snap dynamo.Snapshot) {
	s.canvas.Clear()

	left, _ := s.toScreen(0, 0)
	right, _ := s.toScreen(s.constants.TrackWidth, 0)
	s.canvas.DrawLine(left, s.railY+3, right, s.railY+3)

	lower, upper := s.constants.Bounds()
	for _, x := range []float64{lower, upper} {
		sx, _ := s.toScreen(x, 0)
		s.canvas.DrawLine(sx, s.railY+1, sx, s.railY+4)
	}

	cx, cy := s.toScreen(snap.CartPosition, 0)
	half := int(math.Round(s.constants.CartWidth / 2 * s.scale))
	if half < 2 {
		half = 2
	}
	s.canvas.FillRect(cx-half, cy, cx+half, cy+2)

	bx, by := BobPosition(snap.CartPosition, 0, s.constants.RodLength, snap.Angle)
	px, py := s.toScreen(bx, by)
	s.canvas.DrawLine(cx, cy, px, py)
	s.canvas.FillRect(px-1, py-1, px+1, py+1)
}

func (s *Scene) String() string { return s.canvas.String() }
