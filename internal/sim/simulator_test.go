package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/sim"
)

type scriptedKicks map[uint64]float64

func (k scriptedKicks) Kick(tick uint64) (float64, bool) {
	d, ok := k[tick]
	return d, ok
}

type countingObserver struct{ n int }

func (o *countingObserver) OnStep(dynamo.Snapshot) { o.n++ }

func newSim(mode dynamo.Mode, g control.Gains) *sim.Simulator {
	s, err := sim.New(dynamo.DefaultConstants(), mode, g)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Simulator", func() {
	var c dynamo.Constants

	BeforeEach(func() {
		c = dynamo.DefaultConstants()
	})

	Describe("New", func() {
		It("rejects invalid constants", func() {
			c.Dt = 0
			_, err := sim.New(c, dynamo.ModePID, control.DefaultGains())
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects non-finite gains", func() {
			g := control.DefaultGains()
			g.Kp = math.NaN()
			_, err := sim.New(c, dynamo.ModePID, g)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects an unknown mode", func() {
			_, err := sim.New(c, dynamo.Mode(7), control.DefaultGains())
			Expect(err).To(MatchError(dynamo.ErrUnknownMode))
		})

		It("starts at the documented initial state", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			Expect(s.State()).To(Equal(dynamo.NewState(c)))
			Expect(s.Mode()).To(Equal(dynamo.ModePID))
		})
	})

	Describe("Step", func() {
		It("holds the upright equilibrium exactly", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			for i := 0; i < 500; i++ {
				s.Step(nil)
			}
			st := s.State()
			Expect(st.Angle).To(Equal(math.Pi))
			Expect(st.AngularVelocity).To(BeZero())
			Expect(st.CartPosition).To(Equal(c.TrackWidth / 2))
			Expect(st.IntegralError).To(BeZero())
			Expect(st.Tick).To(Equal(uint64(500)))
		})

		It("advances time by dt each tick", func() {
			s := newSim(dynamo.ModePD, control.DefaultGains())
			snap := s.Step(nil)
			Expect(snap.Tick).To(Equal(uint64(1)))
			Expect(snap.Time).To(Equal(c.Dt))
		})

		It("keeps the cart on the track", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			lower, upper := c.Bounds()
			Expect(s.Apply(sim.ManualOverride{Delta: 80})).To(Succeed())
			for i := 0; i < 2000; i++ {
				snap := s.Step(nil)
				Expect(snap.CartPosition).To(BeNumerically(">=", lower))
				Expect(snap.CartPosition).To(BeNumerically("<=", upper))
			}
		})

		It("turns an override into a cart acceleration kick", func() {
			s := newSim(dynamo.ModePD, control.DefaultGains())
			x := c.TrackWidth/2 + 5
			s.Step(&x)
			st := s.State()
			Expect(st.CartAcceleration).To(BeNumerically("~", 5/c.Dt, 1e-9))
			Expect(st.Angle).NotTo(Equal(math.Pi))
		})

		It("matches the pure Advance function", func() {
			g := control.DefaultGains()
			s := newSim(dynamo.ModePID, g)
			Expect(s.Apply(sim.ManualOverride{Delta: 5})).To(Succeed())

			pure := s.State()
			for i := 0; i < 300; i++ {
				s.Step(nil)
				pure = sim.Advance(c, pure, g, dynamo.ModePID, nil)
			}
			Expect(s.State()).To(Equal(pure))
		})

		It("notifies observers once per tick", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			obs := &countingObserver{}
			s.AddObserver(obs)
			for i := 0; i < 7; i++ {
				s.Step(nil)
			}
			Expect(obs.n).To(Equal(7))
		})
	})

	Describe("Reset", func() {
		It("is idempotent and keeps gains", func() {
			g := control.Gains{Kp: 3, Ki: 2, Kd: 1, ConvergenceRate: 4}
			s := newSim(dynamo.ModePID, g)
			Expect(s.Apply(sim.ManualOverride{Delta: -20})).To(Succeed())
			for i := 0; i < 50; i++ {
				s.Step(nil)
			}

			first := s.Reset()
			second := s.Reset()
			Expect(first).To(Equal(second))
			Expect(first).To(Equal(dynamo.NewState(c)))
			Expect(s.Gains()).To(Equal(g))
		})
	})

	Describe("edge reversal", func() {
		It("flips the drive direction after the dwell time", func() {
			s := newSim(dynamo.ModePID, control.Gains{})
			lower, _ := c.Bounds()
			Expect(s.Apply(sim.PlaceCart{Position: lower})).To(Succeed())

			expected := 0
			for timer := 0.0; timer < c.EdgeTimeThreshold; timer += c.Dt {
				expected++
			}

			var flippedAt int
			for tick := 1; tick <= expected+10; tick++ {
				snap := s.Step(nil)
				if snap.DriveDirection == -1 && flippedAt == 0 {
					flippedAt = tick
					Expect(snap.AtEdge).To(BeFalse())
					Expect(snap.EdgeTimer).To(BeZero())
				}
			}
			Expect(flippedAt).To(Equal(expected))
		})
	})

	Describe("mode", func() {
		It("runs identically in PID with Ki=0 and in PD", func() {
			g := control.Gains{Kp: 250, Ki: 0, Kd: 25, ConvergenceRate: 5}
			pid := newSim(dynamo.ModePID, g)
			pd := newSim(dynamo.ModePD, g)
			Expect(pid.Apply(sim.ManualOverride{Delta: 5})).To(Succeed())
			Expect(pd.Apply(sim.ManualOverride{Delta: 5})).To(Succeed())

			for i := 0; i < 400; i++ {
				a, b := pid.Step(nil), pd.Step(nil)
				Expect(a.CartPosition).To(Equal(b.CartPosition))
				Expect(a.Angle).To(Equal(b.Angle))
			}
		})

		It("clears the integral when switching to PD", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			Expect(s.Apply(sim.ManualOverride{Delta: 10})).To(Succeed())
			for i := 0; i < 20; i++ {
				s.Step(nil)
			}
			Expect(s.State().IntegralError).NotTo(BeZero())

			Expect(s.Apply(sim.SetMode{Mode: dynamo.ModePD})).To(Succeed())
			Expect(s.Mode()).To(Equal(dynamo.ModePD))
			Expect(s.State().IntegralError).To(BeZero())
		})
	})

	Describe("commands", func() {
		It("scales gains by the convergence rate in PID mode", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			Expect(s.ApplyAll(
				sim.SetGain{Name: control.GainConvergenceRate, Value: 2},
				sim.SetGain{Name: control.GainKp, Value: 30},
			)).To(Succeed())
			Expect(s.Gains().Kp).To(Equal(60.0))
		})

		It("refuses Ki in PD mode", func() {
			s := newSim(dynamo.ModePD, control.DefaultGains())
			err := s.Apply(sim.SetGain{Name: control.GainKi, Value: 3})
			Expect(err).To(MatchError(dynamo.ErrGainUnavailable))
		})

		It("nudges without touching the previous position", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			Expect(s.Apply(sim.ManualOverride{Delta: control.DeviationStep})).To(Succeed())
			st := s.State()
			Expect(st.CartPosition).To(Equal(c.TrackWidth/2 + control.DeviationStep))
			Expect(st.PreviousCartPosition).To(Equal(c.TrackWidth / 2))
		})

		It("resets through a command", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			Expect(s.Apply(sim.PlaceCart{Position: 100})).To(Succeed())
			Expect(s.Apply(sim.Reset{})).To(Succeed())
			Expect(s.State()).To(Equal(dynamo.NewState(c)))
		})

		It("rejects a nil command", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			Expect(s.Apply(nil)).NotTo(Succeed())
		})
	})

	Describe("Run", func() {
		It("records the initial snapshot plus one per tick", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			res, err := s.Run(context.Background(), sim.RunConfig{Ticks: 100, ValidateState: true}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Snapshots).To(HaveLen(101))
			Expect(res.StepsTaken).To(Equal(100))
			Expect(res.Final().Tick).To(Equal(uint64(100)))
		})

		It("rejects a non-positive tick count", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			_, err := s.Run(context.Background(), sim.RunConfig{Ticks: 0}, nil)
			Expect(err).To(HaveOccurred())
		})

		It("stops when the context is cancelled", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := s.Run(ctx, sim.RunConfig{Ticks: 10}, nil)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.StepsTaken).To(BeZero())
		})

		It("applies kicks before the scheduled tick", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			res, err := s.Run(context.Background(), sim.RunConfig{Ticks: 20}, scriptedKicks{5: 5, 12: -5})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Kicks).To(Equal(2))
			Expect(res.Snapshots[5].Angle).To(Equal(math.Pi))
			Expect(res.Snapshots[6].Angle).NotTo(Equal(math.Pi))
		})

		It("reports invalid state as a SimError", func() {
			s := newSim(dynamo.ModePID, control.DefaultGains())
			Expect(s.Apply(sim.PlaceCart{Position: math.NaN()})).To(Succeed())
			res, err := s.Run(context.Background(), sim.RunConfig{Ticks: 50, ValidateState: true}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Errors).NotTo(BeEmpty())
			Expect(res.Errors[0]).To(MatchError(dynamo.ErrInvalidState))
			Expect(res.StepsTaken).To(BeZero())
		})

		It("is deterministic for the same kicks", func() {
			kicks := scriptedKicks{3: 5, 40: -5, 90: 5}
			a := newSim(dynamo.ModePID, control.DefaultGains())
			b := newSim(dynamo.ModePID, control.DefaultGains())
			ra, err := a.Run(context.Background(), sim.RunConfig{Ticks: 200}, kicks)
			Expect(err).NotTo(HaveOccurred())
			rb, err := b.Run(context.Background(), sim.RunConfig{Ticks: 200}, kicks)
			Expect(err).NotTo(HaveOccurred())
			Expect(ra.Snapshots).To(Equal(rb.Snapshots))
		})
	})
})

type tickScript map[uint64][]sim.Command

func (s tickScript) Due(tick uint64) []sim.Command { return s[tick] }

var _ = Describe("RunScript", func() {
	It("applies commands before their tick", func() {
		s := newSim(dynamo.ModePID, control.DefaultGains())
		res, err := s.RunScript(context.Background(), sim.RunConfig{Ticks: 30}, tickScript{
			4:  {sim.ManualOverride{Delta: 5}},
			10: {sim.SetMode{Mode: dynamo.ModePD}, sim.SetGain{Name: control.GainKp, Value: 80}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Kicks).To(Equal(1))
		Expect(res.Snapshots[4].Angle).To(Equal(math.Pi))
		Expect(res.Snapshots[5].Angle).NotTo(Equal(math.Pi))
		Expect(s.Mode()).To(Equal(dynamo.ModePD))
		Expect(s.Gains().Kp).To(Equal(80.0))
	})

	It("aborts on a rejected command", func() {
		s := newSim(dynamo.ModePD, control.DefaultGains())
		res, err := s.RunScript(context.Background(), sim.RunConfig{Ticks: 30}, tickScript{
			3: {sim.SetGain{Name: control.GainKi, Value: 1}},
		})
		Expect(err).To(MatchError(dynamo.ErrGainUnavailable))
		Expect(res.StepsTaken).To(Equal(3))
	})
})
