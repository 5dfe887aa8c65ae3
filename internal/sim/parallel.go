package sim

import (
	"context"
	"sync"

	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
)

// KickFactory builds an independent kick source for one ensemble member.
type KickFactory func(seed int64) KickSource

// Ensemble runs independent simulators sharing constants, mode and gains.
// Each member gets its own State, so no two goroutines touch the same one.
type Ensemble struct {
	constants dynamo.Constants
	mode      dynamo.Mode
	gains     control.Gains
	numRuns   int
	seedStart int64
	metrics   func() []Metric
}

func NewEnsemble(s *Simulator, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		constants: s.constants,
		mode:      s.controller.Mode,
		gains:     s.gains,
		numRuns:   numRuns,
		seedStart: seedStart,
	}
}

// WithMetrics installs a factory producing fresh metrics for every member.
func (e *Ensemble) WithMetrics(factory func() []Metric) *Ensemble {
	e.metrics = factory
	return e
}

func (e *Ensemble) Run(ctx context.Context, cfg RunConfig, kicks KickFactory) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := New(e.constants, e.mode, e.gains)
			if err != nil {
				errs[idx] = err
				return
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}

			var src KickSource
			if kicks != nil {
				src = kicks(e.seedStart + int64(idx))
			}

			results[idx], errs[idx] = s.Run(ctx, cfg, src)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
