package metrics

import "github.com/san-kum/pendsim/internal/dynamo"

// EdgeDwell is the share of ticks spent clamped at a track end.
type EdgeDwell struct {
	atEdge  int
	samples int
}

func NewEdgeDwell() *EdgeDwell { return &EdgeDwell{} }

func (e *EdgeDwell) Name() string { return "edge_dwell" }

func (e *EdgeDwell) Observe(snap dynamo.Snapshot) {
	e.samples++
	// A flip tick clears AtEdge, but the cart was still clamped on it.
	if snap.AtEdge || snap.EdgeTimer > 0 {
		e.atEdge++
	}
}

func (e *EdgeDwell) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return float64(e.atEdge) / float64(e.samples)
}

func (e *EdgeDwell) Reset() {
	e.atEdge = 0
	e.samples = 0
}

// Reversals counts drive direction flips.
type Reversals struct {
	last  int
	count int
}

func NewReversals() *Reversals { return &Reversals{} }

func (r *Reversals) Name() string { return "reversals" }

func (r *Reversals) Observe(snap dynamo.Snapshot) {
	if r.last != 0 && snap.DriveDirection != r.last {
		r.count++
	}
	r.last = snap.DriveDirection
}

func (r *Reversals) Value() float64 { return float64(r.count) }

func (r *Reversals) Reset() {
	r.last = 0
	r.count = 0
}
