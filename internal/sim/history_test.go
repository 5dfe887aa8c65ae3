package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/sim"
)

type seededKicks struct{ seed int64 }

func (k seededKicks) Kick(tick uint64) (float64, bool) {
	if tick == uint64(10+k.seed%5) {
		return 5, true
	}
	return 0, false
}

var _ = Describe("History", func() {
	It("keeps the newest snapshots oldest first", func() {
		h := sim.NewHistory(3)
		for i := 1; i <= 5; i++ {
			h.Push(dynamo.Snapshot{Tick: uint64(i)})
		}
		Expect(h.Len()).To(Equal(3))

		ticks := h.Series(func(s dynamo.Snapshot) float64 { return float64(s.Tick) })
		Expect(ticks).To(Equal([]float64{3, 4, 5}))
	})

	It("returns a partial window before it fills", func() {
		h := sim.NewHistory(10)
		h.Push(dynamo.Snapshot{Tick: 1})
		h.Push(dynamo.Snapshot{Tick: 2})
		Expect(h.Snapshots()).To(HaveLen(2))
		Expect(h.Snapshots()[0].Tick).To(Equal(uint64(1)))

		h.Clear()
		Expect(h.Snapshots()).To(BeEmpty())
	})

	It("records steps when attached as an observer", func() {
		s, err := sim.New(dynamo.DefaultConstants(), dynamo.ModePID, control.DefaultGains())
		Expect(err).NotTo(HaveOccurred())
		h := sim.NewHistory(4)
		s.AddObserver(h)
		for i := 0; i < 6; i++ {
			s.Step(nil)
		}
		Expect(h.Snapshots()[3].Tick).To(Equal(uint64(6)))
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent members with distinct seeds", func() {
		base, err := sim.New(dynamo.DefaultConstants(), dynamo.ModePID, control.DefaultGains())
		Expect(err).NotTo(HaveOccurred())

		results, err := sim.NewEnsemble(base, 4, 0).Run(context.Background(), sim.RunConfig{Ticks: 60}, func(seed int64) sim.KickSource {
			return seededKicks{seed: seed}
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		for _, r := range results {
			Expect(r.StepsTaken).To(Equal(60))
			Expect(r.Kicks).To(Equal(1))
		}
		Expect(results[0].Snapshots[11]).NotTo(Equal(results[1].Snapshots[11]))
		Expect(base.State().Tick).To(BeZero())
	})

	It("is reproducible for a fixed seed start", func() {
		base, err := sim.New(dynamo.DefaultConstants(), dynamo.ModePD, control.DefaultGains())
		Expect(err).NotTo(HaveOccurred())
		factory := func(seed int64) sim.KickSource { return seededKicks{seed: seed} }

		a, err := sim.NewEnsemble(base, 3, 7).Run(context.Background(), sim.RunConfig{Ticks: 40}, factory)
		Expect(err).NotTo(HaveOccurred())
		b, err := sim.NewEnsemble(base, 3, 7).Run(context.Background(), sim.RunConfig{Ticks: 40}, factory)
		Expect(err).NotTo(HaveOccurred())
		for i := range a {
			Expect(a[i].Snapshots).To(Equal(b[i].Snapshots))
		}
	})
})
