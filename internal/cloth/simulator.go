package cloth

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/dispatch"
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithDispatcher replaces the default dispatcher (128 items per group,
// one worker per CPU).
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(s *Simulator) { s.dispatcher = d }
}

// WithLogger sets the logger used for lifecycle and fault messages.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// Simulator owns the committed cloth state and advances it one frame per
// Step. Both stages write into scratch buffers; the frame is committed by
// swapping scratch and committed buffers after the integration barrier.
type Simulator struct {
	topo     *Topology
	material Material
	sphere   Sphere
	params   Parameters

	state   *State
	scratch *State

	force      *ForceStage
	integrate  *IntegrationStage
	dispatcher *dispatch.Dispatcher

	frame uint64
	time  float64
	log   *zap.Logger
}

// NewSimulator validates the material and sphere and allocates the buffers.
func NewSimulator(t *Topology, m Material, sp Sphere, opts ...Option) (*Simulator, error) {
	if t == nil || len(t.Positions) != t.VertexCount() || len(t.Springs) != t.VertexCount()*SpringsPerVertex {
		return nil, fmt.Errorf("cloth: topology is incomplete")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := sp.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		topo:       t,
		material:   m,
		sphere:     sp,
		params:     NewParameters(t.VertexCount(), m, sp),
		state:      NewState(t),
		scratch:    NewState(t),
		dispatcher: dispatch.New(dispatch.DefaultGroupSize, 0),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.force = NewForceStage(t, &s.params)
	s.integrate = NewIntegrationStage(&s.params)

	s.log.Debug("simulator ready",
		zap.Uint32("resolution", t.Resolution),
		zap.Int("vertices", t.VertexCount()),
		zap.Int("springs", len(t.Springs)),
		zap.Int("workgroups", s.dispatcher.Groups(t.VertexCount())),
		zap.Int("workers", s.dispatcher.Workers()),
	)
	return s, nil
}

// Step advances the cloth by dt seconds. On error the committed state is the
// one from before the call.
func (s *Simulator) Step(dt float32) error {
	if !validTimestep(dt) {
		return &ConfigError{Field: "dt", Value: float64(dt), Wrapped: ErrInvalidTimestep}
	}

	s.params.DeltaTime = dt
	n := s.topo.VertexCount()

	s.force.Bind(s.state, s.scratch.Velocities)
	if err := s.dispatcher.Dispatch(n, s.force.Run); err != nil {
		return s.fault("force", err)
	}

	s.integrate.Bind(s.state.Positions, s.scratch.Velocities, s.scratch.Positions)
	if err := s.dispatcher.Dispatch(n, s.integrate.Run); err != nil {
		return s.fault("integrate", err)
	}

	s.state, s.scratch = s.scratch, s.state
	s.frame++
	s.time += float64(dt)
	return nil
}

func (s *Simulator) fault(stage string, err error) error {
	s.log.Warn("stage fault, frame abandoned",
		zap.Uint64("frame", s.frame+1),
		zap.String("stage", stage),
		zap.Error(err),
	)
	return &StepError{Frame: s.frame + 1, Stage: stage, Wrapped: fmt.Errorf("%w: %w", ErrStageFault, err)}
}

// Reset restores the rest positions and zero velocities.
func (s *Simulator) Reset() {
	s.state = NewState(s.topo)
	s.scratch = NewState(s.topo)
	s.frame = 0
	s.time = 0
}

// Restore replaces the committed state with a copy of st.
func (s *Simulator) Restore(st *State) error {
	if st.Len() != s.topo.VertexCount() || len(st.Velocities) != st.Len() {
		return fmt.Errorf("cloth: restore with %d vertices, want %d", st.Len(), s.topo.VertexCount())
	}
	s.state.CopyFrom(st)
	return nil
}

// Positions returns the committed position buffer. The slice is reused by
// later frames; copy it if it must outlive the next Step.
func (s *Simulator) Positions() []mgl32.Vec3 { return s.state.Positions }

// State returns the committed state. Callers must treat it as read-only.
func (s *Simulator) State() *State { return s.state }

// Snapshot copies the committed state into dst, allocating when dst is nil.
func (s *Simulator) Snapshot(dst *State) *State {
	if dst == nil || dst.Len() != s.state.Len() {
		return s.state.Clone()
	}
	dst.CopyFrom(s.state)
	return dst
}

func (s *Simulator) Topology() *Topology    { return s.topo }
func (s *Simulator) Material() Material     { return s.material }
func (s *Simulator) Sphere() Sphere         { return s.sphere }
func (s *Simulator) Parameters() Parameters { return s.params }
func (s *Simulator) Frame() uint64          { return s.frame }
func (s *Simulator) Time() float64          { return s.time }
