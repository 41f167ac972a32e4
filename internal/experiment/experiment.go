// Package experiment runs the cloth headless for a fixed number of frames and
// records metric samples along the way.
package experiment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/metrics"
)

// Stepper advances a cloth and reads back its committed state.
type Stepper interface {
	Step(dt float32) error
	ReadState(dst *cloth.State) (*cloth.State, error)
}

type Config struct {
	Name        string
	Dt          float32
	Frames      int
	SampleEvery int
}

// Sample is one row of the metric time series.
type Sample struct {
	Frame  int
	Time   float64
	Values []float64
}

type Result struct {
	Names     []string
	Samples   []Sample
	Metrics   map[string]float64
	Final     *cloth.State
	FramesRun int
	Elapsed   time.Duration
}

type Option func(*Experiment)

// WithProgress registers a callback invoked after every frame.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Experiment) { e.progress = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.log = l
		}
	}
}

type Experiment struct {
	cfg      Config
	stepper  Stepper
	metrics  []metrics.Metric
	progress func(done, total int)
	log      *zap.Logger
}

func New(cfg Config, s Stepper, ms []metrics.Metric, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:     cfg,
		stepper: s,
		metrics: ms,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Experiment) validate() error {
	if e.stepper == nil {
		return fmt.Errorf("experiment: no stepper")
	}
	if !(e.cfg.Dt >= 0) {
		return fmt.Errorf("experiment: dt must not be negative, got %f", e.cfg.Dt)
	}
	if e.cfg.Frames < 0 {
		return fmt.Errorf("experiment: frames must not be negative, got %d", e.cfg.Frames)
	}
	if e.cfg.SampleEvery < 1 {
		return fmt.Errorf("experiment: sample_every must be at least 1, got %d", e.cfg.SampleEvery)
	}
	return nil
}

// Run steps the cloth cfg.Frames times. Frame 0 and every SampleEvery-th
// frame are sampled, and so is the last one. On cancellation or a step
// error the partial result is returned with the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Names:   metrics.Names(e.metrics),
		Samples: make([]Sample, 0, e.cfg.Frames/e.cfg.SampleEvery+2),
		Metrics: make(map[string]float64, len(e.metrics)),
	}
	for _, m := range e.metrics {
		m.Reset()
	}

	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	st, err := e.stepper.ReadState(nil)
	if err != nil {
		return nil, fmt.Errorf("experiment: read initial state: %w", err)
	}
	e.sample(result, st, 0)

	for i := 1; i <= e.cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			result.Final = st
			return result, ctx.Err()
		default:
		}

		if err := e.stepper.Step(e.cfg.Dt); err != nil {
			result.Final = st
			e.log.Warn("run aborted", zap.String("name", e.cfg.Name), zap.Int("frame", i), zap.Error(err))
			return result, fmt.Errorf("experiment %s: %w", e.cfg.Name, err)
		}
		result.FramesRun = i

		if i%e.cfg.SampleEvery == 0 || i == e.cfg.Frames {
			if st, err = e.stepper.ReadState(st); err != nil {
				return result, fmt.Errorf("experiment: read state at frame %d: %w", i, err)
			}
			e.sample(result, st, i)
		}
		if e.progress != nil {
			e.progress(i, e.cfg.Frames)
		}
	}

	result.Final = st
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	e.log.Info("run complete",
		zap.String("name", e.cfg.Name),
		zap.Int("frames", result.FramesRun),
		zap.Int("samples", len(result.Samples)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (e *Experiment) sample(r *Result, st *cloth.State, frame int) {
	t := float64(frame) * float64(e.cfg.Dt)
	for _, m := range e.metrics {
		m.Observe(st, t)
	}
	r.Samples = append(r.Samples, Sample{Frame: frame, Time: t, Values: metrics.Values(e.metrics)})
}

// Column returns the series of one metric, or nil if it was not recorded.
func (r *Result) Column(name string) []float64 {
	idx := -1
	for i, n := range r.Names {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	col := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		col[i] = s.Values[idx]
	}
	return col
}

// Times returns the sample times.
func (r *Result) Times() []float64 {
	ts := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		ts[i] = s.Time
	}
	return ts
}
