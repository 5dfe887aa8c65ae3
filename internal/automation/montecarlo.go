package automation

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/analysis"
	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/experiment"
	"github.com/san-kum/pendsim/internal/sim"
)

// MonteCarloConfig repeats one config under different kick seeds.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	Seed      int64
}

type MonteCarloResult struct {
	TrialID   int
	Seed      int64
	Kicks     int
	Reversals int
	Metrics   map[string]float64
	// Stable means the run stayed finite and ended within tolerance of upright.
	Stable bool
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, log *zap.Logger) ([]MonteCarloResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", cfg.NumTrials)
	}

	exp := experiment.New(cfg.Base, experiment.WithLogger(log))
	if err := exp.Setup(); err != nil {
		return nil, err
	}

	ensemble := sim.NewEnsemble(exp.Simulator(), cfg.NumTrials, cfg.Seed).
		WithMetrics(exp.Registry().DefaultMetrics)

	runs, err := ensemble.Run(ctx, sim.RunConfig{Ticks: cfg.Base.Ticks(), ValidateState: true}, func(seed int64) sim.KickSource {
		return exp.KickSource(seed)
	})
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		final := r.Final()
		results[i] = MonteCarloResult{
			TrialID:   i,
			Seed:      cfg.Seed + int64(i),
			Kicks:     r.Kicks,
			Reversals: r.Reversals,
			Metrics:   r.Metrics,
			Stable:    len(r.Errors) == 0 && math.Abs(final.AngleError()) < experiment.StabilityTolerance,
		}
	}

	stable, unstable := MonteCarloStats(results)
	log.Info("monte carlo finished", zap.Int("trials", len(results)), zap.Int("stable", stable), zap.Int("unstable", unstable))
	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// MetricSummary summarises one metric across trials.
func MetricSummary(results []MonteCarloResult, metric string) analysis.Summary {
	values := make([]float64, 0, len(results))
	for _, r := range results {
		if v, ok := r.Metrics[metric]; ok {
			values = append(values, v)
		}
	}
	return analysis.Summarize(values)
}
