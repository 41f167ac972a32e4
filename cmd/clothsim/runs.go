package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
	"github.com/san-kum/clothsim/internal/export"
	"github.com/san-kum/clothsim/internal/logger"
	"github.com/san-kum/clothsim/internal/metrics"
	"github.com/san-kum/clothsim/internal/storage"
	"github.com/san-kum/clothsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name := "cloth"
	switch {
	case len(args) > 0:
		name = args[0]
	case preset != "":
		name = preset
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	sim, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	b, closeBackend, err := openBackend(cfg, sim)
	if err != nil {
		return err
	}
	defer closeBackend()

	bar := progressbar.NewOptions(cfg.Simulation.Frames,
		progressbar.OptionSetDescription(fmt.Sprintf("%s [%s]", name, b.Name())),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	exp := experiment.New(experiment.Config{
		Name:        name,
		Dt:          cfg.Simulation.Dt,
		Frames:      cfg.Simulation.Frames,
		SampleEvery: cfg.Simulation.SampleEvery,
	}, b, metrics.Default(sim.Topology(), sim.Material(), sim.Sphere()),
		experiment.WithLogger(logger.Named("experiment")),
		experiment.WithProgress(func(done, total int) { _ = bar.Set(done) }),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, runErr := exp.Run(ctx)
	_ = bar.Finish()
	if result == nil {
		return runErr
	}

	runID, err := st.Save(name, b.Name(), cfg, result)
	if err != nil {
		return err
	}
	logger.Log.Info("run stored", zap.String("id", runID), zap.Int("frames", result.FramesRun), zap.Duration("elapsed", result.Elapsed))

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("backend: %s\n", b.Name())
	fmt.Printf("frames: %d/%d in %v\n", result.FramesRun, cfg.Simulation.Frames, result.Elapsed.Round(time.Millisecond))
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for n := range result.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %-14s %.6f\n", n, result.Metrics[n])
	}
	return runErr
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tBACKEND\tRES\tFRAMES\tDT\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%.4fs\t%.2fs\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Backend,
			run.Resolution,
			run.FramesRun, run.Frames,
			run.Dt,
			run.ElapsedSec,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	names := series.Names
	if metric != "" {
		if series.Column(metric) == nil {
			return fmt.Errorf("run %s has no metric %q (available: %v)", runID, metric, series.Names)
		}
		names = []string{metric}
	}

	if outFile != "" {
		if len(names) != 1 {
			return fmt.Errorf("--out needs --metric")
		}
		svg := export.SeriesToSVG(series.Times, series.Column(names[0]), 800, 300, "#a7c957")
		return os.WriteFile(outFile, []byte(svg), 0644)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d over %.2fs\n\n", len(series.Times), series.Times[len(series.Times)-1])
	for _, n := range names {
		graph := asciigraph.Plot(series.Column(n),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(n),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	var w io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return storage.New(dataDir).ExportJSON(w, args[0])
}

func snapshot(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if len(args) == 1 {
		st := storage.New(dataDir)
		if cfg, err = st.LoadConfig(args[0]); err != nil {
			return err
		}
		if err := initLogger(cmd, cfg.Logging); err != nil {
			return err
		}
	} else if cfg, err = loadConfig(cmd); err != nil {
		return err
	}

	topo, err := cfg.Topology()
	if err != nil {
		return err
	}
	positions := topo.Positions
	if len(args) == 1 {
		if positions, err = storage.New(dataDir).LoadPositions(args[0]); err != nil {
			return err
		}
	} else {
		sim, err := newSimulator(cfg)
		if err != nil {
			return err
		}
		for i := 0; i < cfg.Simulation.Frames; i++ {
			if err := sim.Step(cfg.Simulation.Dt); err != nil {
				return err
			}
		}
		positions = sim.Positions()
	}

	sphere := cfg.Sphere.Params()
	if ascii {
		c := viz.NewCanvas(80, 24)
		viz.NewScene(topo, sphere).Draw(c, viz.FrameScene(positions, sphere), positions)
		fmt.Print(c.String())
		return nil
	}

	f, err := os.Create(snapshotOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteMeshSVG(f, topo, positions, sphere, export.MeshOptions{}); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", snapshotOut)
	return nil
}
