package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/analysis"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/export"
	"github.com/san-kum/pendsim/internal/storage"
)

var (
	plotField  string
	xField     string
	yField     string
	crossing   float64
	outFile    string
	phasePlot  bool
	imageWidth float64
	imageDPI   int
)

func inspectCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(st *storage.Store) error {
				return st.Delete(args[0])
			})
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotField, "field", "", "plot a single field ("+fieldNames()+")")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phaseRun,
	}
	phaseCmd.Flags().StringVar(&xField, "x-axis", "angle_error", "field for the x-axis")
	phaseCmd.Flags().StringVar(&yField, "y-axis", "angular_velocity", "field for the y-axis")

	poincareCmd := &cobra.Command{
		Use:   "poincare [run_id]",
		Short: "rod state each time the cart crosses a position",
		Args:  cobra.ExactArgs(1),
		RunE:  poincareRun,
	}
	poincareCmd.Flags().Float64Var(&crossing, "at", 400, "cart position of the section")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "field statistics and sweep frequency",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRun(args[0], func(_ *storage.RunMetadata, snaps []dynamo.Snapshot) error {
				return storage.WriteCSV(os.Stdout, snaps)
			})
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRun(args[0], func(meta *storage.RunMetadata, snaps []dynamo.Snapshot) error {
				return storage.WriteJSON(os.Stdout, *meta, snaps)
			})
		},
	}

	exportPNGCmd := &cobra.Command{
		Use:   "export-plot [run_id]",
		Short: "render a trajectory or phase plot to an image",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPlot,
	}
	exportPNGCmd.Flags().StringVar(&plotField, "field", "angle_error", "trajectory field")
	exportPNGCmd.Flags().BoolVar(&phasePlot, "phase", false, "render the phase portrait instead")
	exportPNGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (.png, .svg, .pdf)")
	exportPNGCmd.Flags().Float64Var(&imageWidth, "width", 8, "width in inches")
	exportPNGCmd.Flags().IntVar(&imageDPI, "dpi", 150, "raster resolution")

	return []*cobra.Command{listCmd, deleteCmd, plotCmd, phaseCmd, poincareCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportPNGCmd}
}

func fieldNames() string {
	names := make([]string, len(analysis.Fields))
	for i, f := range analysis.Fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func lookupField(name string) (analysis.Field, error) {
	f, ok := analysis.FieldByName(name)
	if !ok {
		return f, fmt.Errorf("unknown field %q (available: %s)", name, fieldNames())
	}
	return f, nil
}

func withStore(fn func(st *storage.Store) error) error {
	st, err := openStore(zap.NewNop())
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func withRun(runID string, fn func(meta *storage.RunMetadata, snaps []dynamo.Snapshot) error) error {
	return withStore(func(st *storage.Store) error {
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		snaps, err := st.LoadSnapshots(meta.ID)
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			return fmt.Errorf("no data for run %s", runID)
		}
		return fn(meta, snaps)
	})
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	return withStore(func(st *storage.Store) error {
		runs, err := st.List()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODE\tTIME\tDURATION\tDT\tSTEPS\tREVERSALS\tSTABILITY")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\t%.3f\n",
				run.ID[:8],
				run.Mode,
				run.Timestamp.Local().Format("2006-01-02 15:04:05"),
				run.Duration,
				run.Dt,
				run.Steps,
				run.Reversals,
				run.Metrics["stability"],
			)
		}
		return w.Flush()
	})
}

func plotRun(cmd *cobra.Command, args []string) error {
	return withRun(args[0], func(meta *storage.RunMetadata, snaps []dynamo.Snapshot) error {
		fields := analysis.Fields
		if plotField != "" {
			f, err := lookupField(plotField)
			if err != nil {
				return err
			}
			fields = []analysis.Field{f}
		}

		fmt.Printf("run: %s\n", meta.ID[:8])
		fmt.Printf("mode: %s\n", meta.Mode)
		fmt.Printf("samples: %d\n\n", len(snaps))

		for _, f := range fields {
			graph := asciigraph.Plot(analysis.Series(snaps, f),
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(f.Name),
			)
			fmt.Println(graph)
			fmt.Println()
		}
		return nil
	})
}

func phaseRun(cmd *cobra.Command, args []string) error {
	x, err := lookupField(xField)
	if err != nil {
		return err
	}
	y, err := lookupField(yField)
	if err != nil {
		return err
	}

	return withRun(args[0], func(meta *storage.RunMetadata, snaps []dynamo.Snapshot) error {
		fmt.Printf("phase space plot: %s\n", meta.ID[:8])
		fmt.Printf("x-axis: %s, y-axis: %s\n\n", x.Name, y.Name)
		fmt.Println(analysis.PhasePortraitToASCII(analysis.Project(snaps, x, y), 70, 20))
		return nil
	})
}

func poincareRun(cmd *cobra.Command, args []string) error {
	return withRun(args[0], func(meta *storage.RunMetadata, snaps []dynamo.Snapshot) error {
		section := analysis.CartCrossings(snaps, crossing)
		fmt.Printf("poincare section: %s at cart = %.1f (%d crossings)\n\n", meta.ID[:8], crossing, len(section.Points))
		fmt.Println(analysis.PoincareSectionToASCII(section, 60, 20))
		return nil
	})
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	return withRun(args[0], func(meta *storage.RunMetadata, snaps []dynamo.Snapshot) error {
		report := analysis.Analyze(snaps, meta.Dt)

		fmt.Printf("analysis: %s (%s, %d samples)\n\n", meta.ID[:8], meta.Mode, len(snaps))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tMEAN\tSTDDEV\tMIN\tMAX\tRMS")
		for _, f := range analysis.Fields {
			s := report.Fields[f.Name]
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n", f.Name, s.Mean, s.StdDev, s.Min, s.Max, s.RMS)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\ndominant cart frequency: %.3f hz\n", report.SweepFrequency)
		if report.SweepPeriod > 0 {
			fmt.Printf("sweep period: %.3f s\n", report.SweepPeriod)
		}
		fmt.Printf("reversals: %d\n", meta.Reversals)
		return nil
	})
}

func exportPlot(cmd *cobra.Command, args []string) error {
	return withRun(args[0], func(meta *storage.RunMetadata, snaps []dynamo.Snapshot) error {
		name := outFile
		if name == "" {
			suffix := plotField
			if phasePlot {
				suffix = "phase"
			}
			name = filepath.Join(dataDir, fmt.Sprintf("%s_%s.png", meta.ID[:8], suffix))
		}

		var err error
		if phasePlot {
			p, perr := export.Phase(analysis.PhasePortrait(snaps))
			if perr != nil {
				return perr
			}
			err = export.Save(p, imageWidth, imageWidth*0.6, imageDPI, name)
		} else {
			f, ferr := lookupField(plotField)
			if ferr != nil {
				return ferr
			}
			p, perr := export.Trajectory(snaps, f)
			if perr != nil {
				return perr
			}
			err = export.Save(p, imageWidth, imageWidth*0.5, imageDPI, name)
		}
		if err != nil {
			return err
		}

		fmt.Printf("wrote %s\n", name)
		return nil
	})
}
