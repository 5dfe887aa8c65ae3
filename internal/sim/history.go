package sim

import "github.com/san-kum/pendsim/internal/dynamo"

// History keeps the most recent snapshots in a fixed ring. It implements
// Observer so it can be attached to a Simulator directly.
type History struct {
	buf   []dynamo.Snapshot
	next  int
	count int
}

func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{buf: make([]dynamo.Snapshot, size)}
}

func (h *History) OnStep(s dynamo.Snapshot) { h.Push(s) }

func (h *History) Push(s dynamo.Snapshot) {
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

func (h *History) Len() int { return h.count }

func (h *History) Clear() {
	h.next = 0
	h.count = 0
}

// Snapshots returns the retained snapshots, oldest first.
func (h *History) Snapshots() []dynamo.Snapshot {
	out := make([]dynamo.Snapshot, h.count)
	start := (h.next - h.count + len(h.buf)) % len(h.buf)
	for i := 0; i < h.count; i++ {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}

func (h *History) Series(field func(dynamo.Snapshot) float64) []float64 {
	snaps := h.Snapshots()
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = field(s)
	}
	return out
}
