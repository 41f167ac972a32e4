// Package optim searches material and solver parameters for the
// combination that minimizes a recorded run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/compute"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
	"github.com/san-kum/clothsim/internal/metrics"
)

var ErrNoTrials = errors.New("optim: no trial completed")

var setters = map[string]func(*config.Config, float64){
	"mass":                 func(c *config.Config, v float64) { c.Material.Mass = float32(v) },
	"structural.stiffness": func(c *config.Config, v float64) { c.Material.Structural.Stiffness = float32(v) },
	"structural.damping":   func(c *config.Config, v float64) { c.Material.Structural.Damping = float32(v) },
	"shear.stiffness":      func(c *config.Config, v float64) { c.Material.Shear.Stiffness = float32(v) },
	"shear.damping":        func(c *config.Config, v float64) { c.Material.Shear.Damping = float32(v) },
	"bend.stiffness":       func(c *config.Config, v float64) { c.Material.Bend.Stiffness = float32(v) },
	"bend.damping":         func(c *config.Config, v float64) { c.Material.Bend.Damping = float32(v) },
	"sphere.radius":        func(c *config.Config, v float64) { c.Sphere.Radius = float32(v) },
	"dt":                   func(c *config.Config, v float64) { c.Simulation.Dt = float32(v) },
}

// ParamNames lists the parameters Apply understands.
func ParamNames() []string {
	names := make([]string, 0, len(setters))
	for n := range setters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply writes params into cfg.
func Apply(cfg *config.Config, params map[string]float64) error {
	for name, v := range params {
		set, ok := setters[name]
		if !ok {
			return fmt.Errorf("optim: unknown parameter %q", name)
		}
		set(cfg, v)
	}
	return nil
}

// RunFunc runs one trial with the given parameter values.
type RunFunc func(ctx context.Context, params map[string]float64) (*experiment.Result, error)

// Trial is one evaluated grid point. Err is set when the run failed, for
// example because the cloth went unstable.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type Outcome struct {
	Best   map[string]float64
	Value  float64
	Trials []Trial
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, p := range params {
		if _, ok := setters[p]; !ok {
			return nil, fmt.Errorf("optim: unknown parameter %q", p)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: empty range for %q", p)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs every grid point and keeps the one with the smallest final
// value of metricName. Failed trials are recorded and skipped. Cancellation
// stops the search and returns what was found so far with ctx.Err().
func (g *GridSearch) Search(ctx context.Context, run RunFunc, metricName string) (*Outcome, error) {
	out := &Outcome{Value: math.Inf(1), Trials: make([]Trial, 0, g.Size())}
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), run, metricName, out); err != nil {
		return out, err
	}
	if out.Best == nil {
		return out, ErrNoTrials
	}
	return out, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, run RunFunc, metricName string, out *Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		trial := Trial{Params: params, Value: math.NaN()}

		result, err := run(ctx, params)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			trial.Err = err
		default:
			val, ok := result.Metrics[metricName]
			if !ok {
				return fmt.Errorf("optim: run did not record metric %q", metricName)
			}
			trial.Value = val
			if val < out.Value {
				out.Value = val
				out.Best = params
			}
		}
		out.Trials = append(out.Trials, trial)
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, run, metricName, out); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}

// CPURunner returns a RunFunc that applies the trial parameters to a copy of
// base and runs it headless on the CPU backend.
func CPURunner(base *config.Config, log *zap.Logger) RunFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, params map[string]float64) (*experiment.Result, error) {
		cfg := base.Clone()
		if err := Apply(cfg, params); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		sim, err := cfg.NewSimulator()
		if err != nil {
			return nil, err
		}
		exp := experiment.New(experiment.Config{
			Name:        "sweep",
			Dt:          cfg.Simulation.Dt,
			Frames:      cfg.Simulation.Frames,
			SampleEvery: cfg.Simulation.SampleEvery,
		}, compute.NewCPUBackend(sim), metrics.Default(sim.Topology(), sim.Material(), sim.Sphere()),
			experiment.WithLogger(log),
		)
		return exp.Run(ctx)
	}
}
