package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
)

func fakeRun(fail map[float64]bool) RunFunc {
	return func(ctx context.Context, p map[string]float64) (*experiment.Result, error) {
		if fail[p["mass"]] {
			return nil, errors.New("unstable")
		}
		v := (p["mass"]-2)*(p["mass"]-2) + p["dt"]
		return &experiment.Result{Metrics: map[string]float64{"max_stretch": v}}, nil
	}
}

func TestGridSearchFindsMinimum(t *testing.T) {
	g, err := NewGridSearch([]string{"mass", "dt"}, [][]float64{{1, 2, 3}, {0.02, 0.01}})
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 6 {
		t.Fatalf("size = %d", g.Size())
	}
	out, err := g.Search(context.Background(), fakeRun(nil), "max_stretch")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]float64{"mass": 2, "dt": 0.01}, out.Best); diff != "" {
		t.Fatalf("best (-want +got):\n%s", diff)
	}
	if len(out.Trials) != 6 {
		t.Fatalf("trials = %d", len(out.Trials))
	}
}

func TestGridSearchSkipsFailedTrials(t *testing.T) {
	g, _ := NewGridSearch([]string{"mass"}, [][]float64{{1, 2, 3}})
	out, err := g.Search(context.Background(), fakeRun(map[float64]bool{2: true}), "max_stretch")
	if err != nil {
		t.Fatal(err)
	}
	if out.Trials[1].Err == nil {
		t.Fatal("expected the failed trial to carry its error")
	}
	if out.Best["mass"] == 2 {
		t.Fatal("failed trial chosen as best")
	}

	_, err = g.Search(context.Background(), fakeRun(map[float64]bool{1: true, 2: true, 3: true}), "max_stretch")
	if !errors.Is(err, ErrNoTrials) {
		t.Fatalf("got %v, want ErrNoTrials", err)
	}
}

func TestGridSearchCancel(t *testing.T) {
	g, _ := NewGridSearch([]string{"mass"}, [][]float64{{1, 2, 3}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := g.Search(ctx, fakeRun(nil), "max_stretch")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
	if len(out.Trials) != 0 {
		t.Fatalf("ran %d trials after cancel", len(out.Trials))
	}
}

func TestGridSearchMissingMetric(t *testing.T) {
	g, _ := NewGridSearch([]string{"mass"}, [][]float64{{1}})
	if _, err := g.Search(context.Background(), fakeRun(nil), "nope"); err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func TestNewGridSearchValidates(t *testing.T) {
	if _, err := NewGridSearch([]string{"mass"}, nil); err == nil {
		t.Fatal("expected length mismatch error")
	}
	if _, err := NewGridSearch([]string{"color"}, [][]float64{{1}}); err == nil {
		t.Fatal("expected unknown parameter error")
	}
	if _, err := NewGridSearch([]string{"mass"}, [][]float64{{}}); err == nil {
		t.Fatal("expected empty range error")
	}
}

func TestApply(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := Apply(cfg, map[string]float64{"bend.stiffness": 12, "sphere.radius": 3}); err != nil {
		t.Fatal(err)
	}
	if cfg.Material.Bend.Stiffness != 12 || cfg.Sphere.Radius != 3 {
		t.Fatalf("not applied: %+v %+v", cfg.Material.Bend, cfg.Sphere)
	}
	if err := Apply(cfg, map[string]float64{"gravity": 1}); err == nil {
		t.Fatal("expected unknown parameter error")
	}
}

func TestCPURunner(t *testing.T) {
	base, err := config.GetPreset("tiny")
	if err != nil {
		t.Fatal(err)
	}
	base.Simulation.Frames = 5
	run := CPURunner(base, nil)

	result, err := run(context.Background(), map[string]float64{"structural.stiffness": 400})
	if err != nil {
		t.Fatal(err)
	}
	if result.FramesRun != 5 {
		t.Fatalf("frames run = %d", result.FramesRun)
	}
	if _, ok := result.Metrics["max_stretch"]; !ok {
		t.Fatal("max_stretch not recorded")
	}
	if base.Material.Structural.Stiffness == 400 {
		t.Fatal("runner mutated the base config")
	}

	if _, err := run(context.Background(), map[string]float64{"mass": -1}); err == nil {
		t.Fatal("expected validation error for negative mass")
	}
}
