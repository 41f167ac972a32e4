package main

import (
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/compute"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/layout"
	"github.com/san-kum/clothsim/internal/logger"
)

const benchWarmup = 10

type benchResult struct {
	label   string
	frames  int
	elapsed time.Duration
	err     error
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	serial := cfg.Clone()
	serial.Simulation.Backend = "cpu"
	serial.Simulation.Workers = 1

	var results []benchResult
	for _, c := range []*config.Config{serial, cfg} {
		results = append(results, benchOne(c))
	}

	n := int(cfg.Cloth.Resolution) * int(cfg.Cloth.Resolution)
	fmt.Printf("\n%d vertices, %d frames, dt %.4f, GOMAXPROCS %d\n\n", n, cfg.Simulation.Frames, cfg.Simulation.Dt, runtime.GOMAXPROCS(0))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tFRAMES\tELAPSED\tFRAMES/S\tVERTEX-STEPS/S")
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(w, "%s\tfailed: %v\n", r.label, r.err)
			continue
		}
		rate := float64(r.frames) / r.elapsed.Seconds()
		fmt.Fprintf(w, "%s\t%d\t%v\t%.1f\t%.3g\n", r.label, r.frames, r.elapsed.Round(time.Millisecond), rate, rate*float64(n))
	}
	return w.Flush()
}

func benchOne(cfg *config.Config) benchResult {
	sim, err := newSimulator(cfg)
	if err != nil {
		return benchResult{label: cfg.Simulation.Backend, err: err}
	}
	b, closeBackend, err := openBackend(cfg, sim)
	if err != nil {
		return benchResult{label: cfg.Simulation.Backend, err: err}
	}
	defer closeBackend()

	label := b.Name()
	if _, ok := b.(*compute.CPUBackend); ok {
		label = fmt.Sprintf("cpu x%d", cfg.Simulation.Dispatcher().Workers())
	}

	for i := 0; i < benchWarmup; i++ {
		if err := b.Step(cfg.Simulation.Dt); err != nil {
			return benchResult{label: label, err: err}
		}
	}

	bar := progressbar.NewOptions(cfg.Simulation.Frames,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	start := time.Now()
	for i := 0; i < cfg.Simulation.Frames; i++ {
		if err := b.Step(cfg.Simulation.Dt); err != nil {
			return benchResult{label: label, err: err}
		}
		_ = bar.Add(1)
	}
	// the readback waits for queued GPU work
	_ = b.Positions()
	elapsed := time.Since(start)
	_ = bar.Finish()

	logger.Log.Debug("bench finished", zap.String("backend", label), zap.Duration("elapsed", elapsed))
	return benchResult{label: label, frames: cfg.Simulation.Frames, elapsed: elapsed}
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tRES\tDT\tFRAMES\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		cfg, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%d\t%s\n", name, cfg.Cloth.Resolution, cfg.Simulation.Dt, cfg.Simulation.Frames, config.Presets[name].Description)
	}
	return w.Flush()
}

func inspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	topo, err := cfg.Topology()
	if err != nil {
		return err
	}
	m := cfg.Material.Params()
	params := cloth.NewParameters(topo.VertexCount(), m, cfg.Sphere.Params())
	params.DeltaTime = cfg.Simulation.Dt
	valid := topo.ValidSprings()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "resolution\t%d\n", topo.Resolution)
	fmt.Fprintf(w, "vertices\t%d\n", topo.VertexCount())
	fmt.Fprintf(w, "spring slots\t%d\n", len(topo.Springs))
	fmt.Fprintf(w, "sentinel\t%d\n", topo.Sentinel())
	fmt.Fprintf(w, "triangles\t%d\n", len(topo.Indices)/3)
	fmt.Fprintf(w, "unit\t%.4f\n", topo.Unit())
	for c := cloth.Structural; c <= cloth.Bend; c++ {
		k := m.Coefficients(c)
		fmt.Fprintf(w, "%s\t%d valid slots, k=%g c=%g\n", c, valid[c], k.Stiffness, k.Damping)
	}
	corner := 0
	center := topo.VertexCount() / 2
	fmt.Fprintf(w, "sentinel slots\tcorner %d, center %d\n", topo.SentinelCount(corner), topo.SentinelCount(center))
	if err := w.Flush(); err != nil {
		return err
	}

	packed := layout.PackParams(&params)
	std := layout.Std140Params(&params)
	fmt.Printf("\npacked parameters (%d bytes)\n% x\n", len(packed), packed[:])
	fmt.Printf("\nstd140 parameters (%d bytes)\n% x\n", len(std), std[:])
	return nil
}
