package automation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/experiment"
)

// ParameterSweep varies one effective gain linearly from Min to Max. Every
// point reuses the base seed, so the kicks are identical across the sweep.
type ParameterSweep struct {
	Base  *config.Config
	Gain  control.GainName
	Min   float64
	Max   float64
	Steps int
}

type SweepResult struct {
	Value     float64
	Reversals int
	Steps     int
	Metrics   map[string]float64
	Diverged  bool
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, log *zap.Logger) ([]SweepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if sweep.Steps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.Steps)
	}

	step := (sweep.Max - sweep.Min) / float64(sweep.Steps-1)
	results := make([]SweepResult, 0, sweep.Steps)

	for i := 0; i < sweep.Steps; i++ {
		value := sweep.Min + float64(i)*step

		cfg := *sweep.Base
		if err := setEffective(&cfg.Gains, sweep.Gain, value); err != nil {
			return nil, err
		}

		exp := experiment.New(&cfg)
		if err := exp.Setup(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Gain, value, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			Value:     value,
			Reversals: result.Reversals,
			Steps:     result.StepsTaken,
			Metrics:   result.Metrics,
			Diverged:  len(result.Errors) > 0,
		})

		log.Debug("sweep point", zap.String("gain", string(sweep.Gain)), zap.Float64("value", value),
			zap.Float64("stability", result.Metrics["stability"]))
	}

	return results, nil
}

func setEffective(g *config.GainsConfig, name control.GainName, value float64) error {
	switch name {
	case control.GainKp:
		g.Kp = value
	case control.GainKi:
		g.Ki = value
	case control.GainKd:
		g.Kd = value
	case control.GainConvergenceRate:
		g.ConvergenceRate = value
	default:
		return fmt.Errorf("cannot sweep %q", name)
	}
	return nil
}
