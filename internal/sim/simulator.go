package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/physics"
)

// Advance runs one tick on a copy of s and returns it. c must already have
// passed Validate. A non-nil override replaces the cart position before the
// integrator runs, so the jump reaches the rod as cart acceleration.
func Advance(c dynamo.Constants, s dynamo.State, g control.Gains, mode dynamo.Mode, override *float64) dynamo.State {
	advance(physics.FromConstants(c), control.New(c, mode), &s, g, override)
	return s
}

func advance(p *physics.CartPendulum, ctrl *control.Controller, s *dynamo.State, g control.Gains, override *float64) {
	if override != nil {
		control.Place(s, *override)
	}

	p.Integrate(s, s.CartPosition)
	ctrl.Compute(s, g)

	s.Tick++
	s.Time += p.Dt
}

// Simulator owns one State and steps it in place. It is not safe for
// concurrent use: ticks and commands must come from the same goroutine.
type Simulator struct {
	constants  dynamo.Constants
	pendulum   *physics.CartPendulum
	controller *control.Controller
	gains      control.Gains
	state      dynamo.State
	metrics    []Metric
	observers  []Observer
}

func New(c dynamo.Constants, mode dynamo.Mode, g control.Gains) (*Simulator, error) {
	p, err := physics.NewCartPendulum(c)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if mode != dynamo.ModePID && mode != dynamo.ModePD {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownMode, mode)
	}

	return &Simulator{
		constants:  c,
		pendulum:   p,
		controller: control.New(c, mode),
		gains:      g,
		state:      dynamo.NewState(c),
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Constants() dynamo.Constants { return s.constants }
func (s *Simulator) Gains() control.Gains        { return s.gains }
func (s *Simulator) Mode() dynamo.Mode           { return s.controller.Mode }
func (s *Simulator) State() dynamo.State         { return s.state }
func (s *Simulator) Snapshot() dynamo.Snapshot   { return s.state.Snapshot() }

// Reset restores the documented initial state. Gains and mode are kept.
func (s *Simulator) Reset() dynamo.State {
	s.state = dynamo.NewState(s.constants)
	return s.state
}

// Step advances one tick and notifies metrics and observers.
func (s *Simulator) Step(override *float64) dynamo.Snapshot {
	advance(s.pendulum, s.controller, &s.state, s.gains, override)

	snap := s.state.Snapshot()
	for _, m := range s.metrics {
		m.Observe(snap)
	}
	for _, obs := range s.observers {
		obs.OnStep(snap)
	}
	return snap
}

// SetGain applies a raw slider value under the current mode.
func (s *Simulator) SetGain(name control.GainName, raw float64) error {
	return s.gains.Set(name, raw, s.controller.Mode)
}

// SetMode switches the control law. Entering PD drops the integral.
func (s *Simulator) SetMode(mode dynamo.Mode) error {
	if mode != dynamo.ModePID && mode != dynamo.ModePD {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownMode, mode)
	}
	s.controller.Mode = mode
	if mode == dynamo.ModePD {
		s.state.IntegralError = 0
	}
	return nil
}

// Run ticks cfg.Ticks times, injecting kicks between ticks, and records every
// snapshot including the initial one.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig, kicks KickSource) (*Result, error) {
	return s.run(ctx, cfg, func(result *Result) error {
		if kicks == nil {
			return nil
		}
		if delta, ok := kicks.Kick(s.state.Tick); ok {
			control.Nudge(&s.state, delta)
			result.Kicks++
		}
		return nil
	})
}

// RunScript is Run with scripted commands applied before their tick. A
// rejected command aborts the run.
func (s *Simulator) RunScript(ctx context.Context, cfg RunConfig, script Script) (*Result, error) {
	return s.run(ctx, cfg, func(result *Result) error {
		if script == nil {
			return nil
		}
		for _, cmd := range script.Due(s.state.Tick) {
			if err := s.Apply(cmd); err != nil {
				return fmt.Errorf("tick %d: %w", s.state.Tick, err)
			}
			if _, ok := cmd.(ManualOverride); ok {
				result.Kicks++
			}
		}
		return nil
	})
}

func (s *Simulator) run(ctx context.Context, cfg RunConfig, before func(*Result) error) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Snapshots: make([]dynamo.Snapshot, 0, cfg.Ticks+1),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.Snapshots = append(result.Snapshots, s.state.Snapshot())

	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			s.collectMetrics(result)
			return result, ctx.Err()
		default:
		}

		if err := before(result); err != nil {
			s.collectMetrics(result)
			return result, err
		}

		direction := s.state.DriveDirection
		snap := s.Step(nil)

		if cfg.ValidateState && !s.state.IsValid() {
			result.Errors = append(result.Errors, dynamo.SimError{Tick: snap.Tick, Time: snap.Time, Message: "invalid state (NaN/Inf)"})
			break
		}

		if snap.DriveDirection != direction {
			result.Reversals++
		}
		result.StepsTaken++
		result.Snapshots = append(result.Snapshots, snap)
	}

	s.collectMetrics(result)
	return result, nil
}

func (s *Simulator) collectMetrics(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg RunConfig) error {
	if cfg.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", cfg.Ticks)
	}
	return nil
}
