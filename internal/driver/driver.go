// Package driver paces a simulator and feeds it commands between ticks.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/sim"
)

var ErrStopped = errors.New("driver: stopped before completing all ticks")

// Loop steps as fast as possible. Ticks <= 0 means run until ctx is done.
type Loop struct {
	Ticks  int
	Logger *zap.Logger
}

func (l Loop) Run(ctx context.Context, s *sim.Simulator, cmds <-chan sim.Command) error {
	log := logger(l.Logger)
	for done := 0; l.Ticks <= 0 || done < l.Ticks; done++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		drain(s, cmds, log)
		step(s, log)
	}
	return nil
}

// Cron steps on a wall-clock schedule. A job never overlaps the previous
// one, so a slow tick delays the next instead of racing it.
type Cron struct {
	Interval time.Duration
	Ticks    int
	Logger   *zap.Logger
}

func (c Cron) Run(ctx context.Context, s *sim.Simulator, cmds <-chan sim.Command) error {
	if c.Interval <= 0 {
		return fmt.Errorf("driver: interval must be positive, got %s", c.Interval)
	}
	log := logger(c.Logger)

	var (
		mu       sync.Mutex
		done     int
		finished = make(chan struct{})
		once     sync.Once
	)

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(c.Interval).Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if c.Ticks > 0 && done >= c.Ticks {
			once.Do(func() { close(finished) })
			return
		}
		drain(s, cmds, log)
		step(s, log)
		done++
		if c.Ticks > 0 && done >= c.Ticks {
			once.Do(func() { close(finished) })
		}
	})
	if err != nil {
		return fmt.Errorf("driver: schedule: %w", err)
	}

	log.Debug("driver started", zap.Duration("interval", c.Interval), zap.Int("ticks", c.Ticks))
	scheduler.StartAsync()

	var result error
	select {
	case <-finished:
	case <-ctx.Done():
		result = ctx.Err()
	}
	scheduler.Stop()

	mu.Lock()
	defer mu.Unlock()
	log.Debug("driver stopped", zap.Int("ticks", done))
	if result == nil && c.Ticks > 0 && done < c.Ticks {
		result = ErrStopped
	}
	return result
}

func drain(s *sim.Simulator, cmds <-chan sim.Command, log *zap.Logger) {
	if cmds == nil {
		return
	}
	for {
		select {
		case cmd, ok := <-cmds:
			if !ok {
				return
			}
			if err := s.Apply(cmd); err != nil {
				log.Warn("command rejected", zap.String("command", fmt.Sprintf("%T", cmd)), zap.Error(err))
			}
		default:
			return
		}
	}
}

func step(s *sim.Simulator, log *zap.Logger) dynamo.Snapshot {
	before := s.State().DriveDirection
	snap := s.Step(nil)
	if snap.DriveDirection != before {
		log.Info("drive reversed",
			zap.Uint64("tick", snap.Tick),
			zap.Float64("cart_position", snap.CartPosition),
			zap.Int("direction", snap.DriveDirection))
	}
	return snap
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
