package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/analysis"
	"github.com/san-kum/clothsim/internal/automation"
	"github.com/san-kum/clothsim/internal/experiment"
	"github.com/san-kum/clothsim/internal/logger"
	"github.com/san-kum/clothsim/internal/optim"
	"github.com/san-kum/clothsim/internal/storage"
)

func analyzeRun(cmd *cobra.Command, args []string) error {
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
	data := series.Column(analyzeMetric)
	if data == nil {
		return fmt.Errorf("run %s has no metric %q (available: %v)", runID, analyzeMetric, series.Names)
	}

	spec, err := analysis.Analyze(data, float64(meta.Dt)*float64(meta.SampleEvery))
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("metric: %s, %d samples\n\n", analyzeMetric, len(data))

	plotData := spec.Power[:max(len(spec.Power)/4, 1)]
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s), %.3f hz per bin", analyzeMetric, spec.BinWidth)),
	))
	fmt.Println()

	fmt.Printf("dominant frequency: %.3f hz\n", spec.Dominant)
	if p := spec.Period(); p > 0 {
		fmt.Printf("period: %.3f s\n", p)
	}
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepRanges) == 0 {
		return fmt.Errorf("at least one --param is required (available: %v)", optim.ParamNames())
	}

	names := make([]string, 0, len(sweepRanges))
	ranges := make([][]float64, 0, len(sweepRanges))
	for _, r := range sweepRanges {
		name, vals, err := optim.ParseRange(r)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(g.Size(),
		progressbar.OptionSetDescription("sweep"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	runner := optim.CPURunner(cfg, logger.Named("sweep"))
	counted := func(ctx context.Context, p map[string]float64) (*experiment.Result, error) {
		defer func() { _ = bar.Add(1) }()
		return runner(ctx, p)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, searchErr := g.Search(ctx, counted, sweepMetric)
	_ = bar.Finish()
	if out == nil {
		return searchErr
	}

	sort.SliceStable(out.Trials, func(i, j int) bool {
		return trialKey(out.Trials[i]) < trialKey(out.Trials[j])
	})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, n := range names {
		fmt.Fprintf(w, "%s\t", n)
	}
	fmt.Fprintln(w, sweepMetric)
	for _, t := range out.Trials {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", t.Params[n])
		}
		if t.Err != nil {
			fmt.Fprintf(w, "failed: %v\n", t.Err)
		} else {
			fmt.Fprintf(w, "%.6f\n", t.Value)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if out.Best != nil {
		fmt.Printf("\nbest %s = %.6f at", sweepMetric, out.Value)
		for _, n := range names {
			fmt.Printf(" %s=%g", n, out.Best[n])
		}
		fmt.Println()
		logger.Log.Info("sweep complete", zap.Int("trials", len(out.Trials)), zap.Float64(sweepMetric, out.Value))
	}
	return searchErr
}

// trialKey orders successful trials by value and puts failures last.
func trialKey(t optim.Trial) float64 {
	if t.Err != nil || math.IsNaN(t.Value) {
		return math.Inf(1)
	}
	return t.Value
}

func scenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario: %s (%d steps)\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	_, err = automation.RunScenario(ctx, sc, func(r automation.StepResult) error {
		runID, err := st.Save(r.Step.Name, "cpu", r.Config, r.Result)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %s  max_stretch %.4f  stability %.3f\n",
			r.Step.Name, runID, r.Result.Metrics["max_stretch"], r.Result.Metrics["stability"])
		return nil
	}, logger.Named("scenario"))
	return err
}
