package experiment

import "math/rand"

// RandomKicks is a seeded schedule of manual cart deflections, the headless
// stand-in for a user pressing the arrow keys.
type RandomKicks struct {
	schedule map[uint64]float64
	ticks    []uint64
}

// NewRandomKicks spreads count kicks of ±magnitude over (0, ticks), at least
// minGap ticks apart. Count is reduced when the gaps do not fit.
func NewRandomKicks(seed int64, count int, magnitude float64, ticks, minGap int) *RandomKicks {
	k := &RandomKicks{schedule: make(map[uint64]float64)}
	if count <= 0 || ticks <= 1 {
		return k
	}
	if minGap < 1 {
		minGap = 1
	}
	if maxCount := ticks/minGap - 1; count > maxCount {
		count = maxCount
	}
	if count <= 0 {
		return k
	}

	rng := rand.New(rand.NewSource(seed))
	slot := ticks / (count + 1)
	spread := slot - minGap
	for i := 1; i <= count; i++ {
		tick := i * slot
		if spread > 0 {
			tick += rng.Intn(spread+1) - spread/2
		}
		delta := magnitude
		if rng.Intn(2) == 0 {
			delta = -magnitude
		}
		k.schedule[uint64(tick)] = delta
		k.ticks = append(k.ticks, uint64(tick))
	}
	return k
}

func (k *RandomKicks) Kick(tick uint64) (float64, bool) {
	d, ok := k.schedule[tick]
	return d, ok
}

// Ticks lists the scheduled ticks in order.
func (k *RandomKicks) Ticks() []uint64 {
	out := make([]uint64, len(k.ticks))
	copy(out, k.ticks)
	return out
}
