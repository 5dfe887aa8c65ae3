package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/driver"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/experiment"
	"github.com/san-kum/pendsim/internal/sim"
	"github.com/san-kum/pendsim/internal/storage"
	"github.com/san-kum/pendsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	mode       string
	kp         float64
	ki         float64
	kd         float64
	rate       float64
	dt         float64
	duration   float64
	seed       int64
	kicks      int
	magnitude  float64
	verbose    bool
	frameRate  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pendsim",
		Short:         "inverted pendulum on a cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLive,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dataDir, "data", ".pendsim", "data directory")
	flags.StringVar(&configFile, "config", "", "config file path (yaml)")
	flags.StringVar(&preset, "preset", "", "use preset configuration")
	flags.StringVar(&mode, "mode", config.DefaultMode, "control mode (pid, pd)")
	flags.Float64Var(&kp, "kp", 0, "effective proportional gain")
	flags.Float64Var(&ki, "ki", 0, "effective integral gain")
	flags.Float64Var(&kd, "kd", 0, "effective derivative gain")
	flags.Float64Var(&rate, "rate", 0, "convergence rate")
	flags.Float64Var(&dt, "dt", 0, "timestep")
	flags.Float64Var(&duration, "time", 0, "duration in seconds")
	flags.Int64Var(&seed, "seed", 0, "kick schedule seed")
	flags.IntVar(&kicks, "kicks", 0, "number of random kicks")
	flags.Float64Var(&magnitude, "magnitude", 0, "kick size in pixels")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	rootCmd.Flags().IntVar(&frameRate, "fps", 0, "frame rate")
	liveCmd.Flags().IntVar(&frameRate, "fps", 0, "frame rate")

	realtimeCmd := &cobra.Command{
		Use:   "realtime",
		Short: "step on the wall clock without a display",
		Args:  cobra.NoArgs,
		RunE:  runRealtime,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "list metrics recorded for every run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range experiment.NewRegistry(config.DefaultConfig().Constants()).ListMetrics() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, realtimeCmd, presetsCmd, metricsCmd)
	rootCmd.AddCommand(inspectCommands()...)
	rootCmd.AddCommand(batchCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig layers preset, config file and changed flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if flags.Changed("rate") {
		cfg.Gains.ConvergenceRate = rate
	}
	if flags.Changed("dt") {
		cfg.Physics.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("kicks") {
		cfg.Kicks.Count = kicks
	}
	if flags.Changed("magnitude") {
		cfg.Kicks.Magnitude = magnitude
	}
	if flags.Changed("fps") {
		cfg.Live.FPS = frameRate
	}

	return cfg, cfg.Validate()
}

func newLogger() *zap.Logger {
	if verbose {
		log, err := zap.NewDevelopment()
		if err == nil {
			return log
		}
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	log, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func openStore(log *zap.Logger) (*storage.Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return storage.Open(filepath.Join(dataDir, "runs.db"), storage.WithLogger(log))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()

	st, err := openStore(log)
	if err != nil {
		return err
	}
	defer st.Close()

	exp := experiment.New(cfg, experiment.WithLogger(log))
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s simulation...\n", cfg.Mode)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	return saveAndReport(st, cfg, result, elapsed)
}

func saveAndReport(st *storage.Store, cfg *config.Config, result *sim.Result, elapsed time.Duration) error {
	runID, err := st.Save(storage.RunMetadata{
		Mode:      cfg.Mode,
		Seed:      cfg.Seed,
		Dt:        cfg.Physics.Dt,
		Duration:  cfg.Duration,
		Constants: cfg.Constants(),
		Gains:     cfg.Gain(),
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID[:8])
	fmt.Printf("steps: %d  kicks: %d  reversals: %d\n", result.StepsTaken, result.Kicks, result.Reversals)
	for _, runErr := range result.Errors {
		fmt.Printf("stopped: %v\n", runErr)
	}
	printMetrics(result.Metrics)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}

	m := viz.NewModel(exp.Simulator(), viz.Options{FPS: cfg.Live.FPS, History: cfg.Live.History})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runRealtime(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()

	exp := experiment.New(cfg, experiment.WithLogger(log))
	if err := exp.Setup(); err != nil {
		return err
	}
	s := exp.Simulator()

	ctx, cancel := signalContext()
	defer cancel()

	cmds := make(chan sim.Command, 16)
	scheduled := exp.KickSource(cfg.Seed)
	s.AddObserver(kickFeeder{cmds: cmds, kicks: scheduled})

	c := driver.Cron{
		Interval: time.Duration(cfg.Physics.Dt * float64(time.Second)),
		Ticks:    cfg.Ticks(),
		Logger:   log,
	}

	fmt.Printf("stepping %d ticks in real time (ctrl-c to stop)\n", c.Ticks)
	start := time.Now()
	if err := c.Run(ctx, s, cmds); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, driver.ErrStopped) {
		return err
	}

	final := s.Snapshot()
	fmt.Printf("ran %d ticks in %v\n", final.Tick, time.Since(start).Round(time.Millisecond))
	fmt.Printf("final: angle error %.4f rad, cart %.1f px, phase %s\n", final.AngleError(), final.CartPosition, s.State().Phase())
	return nil
}

// kickFeeder queues scheduled kicks as commands so the driver applies them
// between ticks.
type kickFeeder struct {
	cmds  chan<- sim.Command
	kicks sim.KickSource
}

func (k kickFeeder) OnStep(snap dynamo.Snapshot) {
	if delta, ok := k.kicks.Kick(snap.Tick); ok {
		select {
		case k.cmds <- sim.ManualOverride{Delta: delta}:
		default:
		}
	}
}
