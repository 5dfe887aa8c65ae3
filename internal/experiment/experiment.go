package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/sim"
)

// Experiment runs one headless simulation described by a config.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	simulator *sim.Simulator
	kicks     *RandomKicks
	log       *zap.Logger
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) { e.log = l }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg,
		registry: NewRegistry(cfg.Constants()),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup validates the config and builds the simulator with every registered
// metric attached.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	mode, _ := e.cfg.ParsedMode()

	s, err := sim.New(e.cfg.Constants(), mode, e.cfg.Gain())
	if err != nil {
		return err
	}
	for _, m := range e.registry.DefaultMetrics() {
		s.AddMetric(m)
	}
	e.simulator = s
	e.kicks = e.KickSource(e.cfg.Seed)
	return nil
}

// KickSource builds the kick schedule the config asks for under seed.
func (e *Experiment) KickSource(seed int64) *RandomKicks {
	return NewRandomKicks(seed, e.cfg.Kicks.Count, e.cfg.Kicks.Magnitude, e.cfg.Ticks(), e.cfg.KickGapTicks())
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.log.Info("run started",
		zap.String("mode", e.simulator.Mode().String()),
		zap.Int("ticks", e.cfg.Ticks()),
		zap.Int64("seed", e.cfg.Seed),
		zap.Int("kicks", len(e.kicks.Ticks())))

	result, err := e.simulator.Run(ctx, sim.RunConfig{Ticks: e.cfg.Ticks(), ValidateState: true}, e.kicks)
	if err != nil {
		return result, err
	}

	for _, runErr := range result.Errors {
		e.log.Warn("run stopped early", zap.Error(runErr))
	}
	e.log.Info("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Int("reversals", result.Reversals),
		zap.Float64("stability", result.Metrics["stability"]))
	return result, nil
}

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Registry() *Registry {
	return e.registry
}
