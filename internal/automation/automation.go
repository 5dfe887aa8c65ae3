// Package automation runs scripted scenarios, Monte Carlo trials and gain
// sweeps without a terminal.
package automation

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/experiment"
	"github.com/san-kum/pendsim/internal/sim"
)

// Scenario is a timed list of interventions applied to one run.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Duration    float64 `yaml:"duration"`
	Mode        string  `yaml:"mode"`
	Events      []Event `yaml:"events"`
	Save        bool    `yaml:"save"`
}

// Event fires once before the first tick at or after At seconds.
type Event struct {
	At     float64 `yaml:"at"`
	Action string  `yaml:"action"`
	Gain   string  `yaml:"gain,omitempty"`
	Mode   string  `yaml:"mode,omitempty"`
	Value  float64 `yaml:"value,omitempty"`
}

func (e Event) Command() (sim.Command, error) {
	switch e.Action {
	case "nudge":
		return sim.ManualOverride{Delta: e.Value}, nil
	case "place":
		return sim.PlaceCart{Position: e.Value}, nil
	case "reset":
		return sim.Reset{}, nil
	case "set_gain":
		name, err := control.ParseGainName(e.Gain)
		if err != nil {
			return nil, err
		}
		return sim.SetGain{Name: name, Value: e.Value}, nil
	case "set_mode":
		mode, err := dynamo.ParseMode(e.Mode)
		if err != nil {
			return nil, err
		}
		return sim.SetMode{Mode: mode}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", e.Action)
	}
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Config resolves the scenario's preset and overrides into a run config.
func (sc *Scenario) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if sc.Preset != "" {
		if cfg = config.GetPreset(sc.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", sc.Preset)
		}
	}
	if sc.Duration > 0 {
		cfg.Duration = sc.Duration
	}
	if sc.Mode != "" {
		cfg.Mode = sc.Mode
	}
	cfg.Kicks.Count = 0
	return cfg, cfg.Validate()
}

type script map[uint64][]sim.Command

func (s script) Due(tick uint64) []sim.Command { return s[tick] }

// script buckets events by the tick they precede. Every event must land on
// one of the ticks that will run.
func (sc *Scenario) script(dt float64, ticks int) (script, error) {
	out := make(script)
	for i, e := range sc.Events {
		if e.At < 0 || math.IsNaN(e.At) || math.IsInf(e.At, 0) {
			return nil, fmt.Errorf("event %d: invalid time %g", i+1, e.At)
		}
		cmd, err := e.Command()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		tick := math.Ceil(e.At/dt - 1e-9)
		if tick >= float64(ticks) {
			return nil, fmt.Errorf("event %d: time %g is past the end of the run", i+1, e.At)
		}
		out[uint64(tick)] = append(out[uint64(tick)], cmd)
	}
	return out, nil
}

// RunScenario executes the scenario and returns the recorded run with every
// registered metric.
func RunScenario(ctx context.Context, sc *Scenario, log *zap.Logger) (*config.Config, *sim.Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg, err := sc.Config()
	if err != nil {
		return nil, nil, err
	}
	sched, err := sc.script(cfg.Physics.Dt, cfg.Ticks())
	if err != nil {
		return cfg, nil, err
	}

	exp := experiment.New(cfg, experiment.WithLogger(log))
	if err := exp.Setup(); err != nil {
		return cfg, nil, err
	}

	log.Info("scenario started", zap.String("name", sc.Name), zap.Int("events", len(sc.Events)))
	result, err := exp.Simulator().RunScript(ctx, sim.RunConfig{Ticks: cfg.Ticks(), ValidateState: true}, sched)
	if err != nil {
		return cfg, result, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	log.Info("scenario finished", zap.String("name", sc.Name), zap.Int("reversals", result.Reversals))
	return cfg, result, nil
}
