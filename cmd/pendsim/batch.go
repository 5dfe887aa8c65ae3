package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/automation"
	"github.com/san-kum/pendsim/internal/control"
)

var (
	trials     int
	sweepGain  string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

func batchCommands() []*cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "repeat a run under different kick seeds",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one gain and compare metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepGain, "gain", "kp", "gain to vary (kp, ki, kd, rate)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 10, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 500, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")

	return []*cobra.Command{scenarioCmd, monteCarloCmd, sweepCmd}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %s\n", sc.Name, sc.Description)
	start := time.Now()
	cfg, result, err := automation.RunScenario(ctx, sc, log)
	if err != nil {
		return err
	}

	if !sc.Save {
		fmt.Printf("steps: %d  kicks: %d  reversals: %d\n", result.StepsTaken, result.Kicks, result.Reversals)
		printMetrics(result.Metrics)
		return nil
	}

	st, err := openStore(log)
	if err != nil {
		return err
	}
	defer st.Close()
	return saveAndReport(st, cfg, result, time.Since(start))
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{Base: cfg, NumTrials: trials, Seed: cfg.Seed}, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tKICKS\tREVERSALS\tMAX_DEV\tEFFORT\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.4f\t%.3f\t%t\n",
			r.TrialID, r.Seed, r.Kicks, r.Reversals, r.Metrics["max_deviation"], r.Metrics["control_effort"], r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	dev := automation.MetricSummary(results, "max_deviation")
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	fmt.Printf("max deviation: mean %.4f  std %.4f  worst %.4f\n", dev.Mean, dev.StdDev, dev.Max)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gain, err := control.ParseGainName(sweepGain)
	if err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base: cfg, Gain: gain, Min: sweepMin, Max: sweepMax, Steps: sweepSteps,
	}, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTABILITY\tMAX_DEV\tEFFORT\tREVERSALS\tDIVERGED\n", gain)
	for _, r := range results {
		fmt.Fprintf(w, "%.3f\t%.3f\t%.4f\t%.3f\t%d\t%t\n",
			r.Value, r.Metrics["stability"], r.Metrics["max_deviation"], r.Metrics["control_effort"], r.Reversals, r.Diverged)
	}
	return w.Flush()
}
