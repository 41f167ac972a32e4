package metrics

import (
	"math"

	"github.com/san-kum/clothsim/internal/cloth"
)

const (
	// DefaultSpeedLimit is the vertex speed above which a frame counts as
	// unstable.
	DefaultSpeedLimit = 200.0
	// DefaultContactTolerance is how far outside the sphere a vertex may sit
	// and still count as touching it.
	DefaultContactTolerance = 1e-3
)

// Stability is the fraction of observed frames whose state is finite and
// below the speed limit.
type Stability struct {
	limit      float64
	violations int
	samples    int
}

func NewStability(speedLimit float64) *Stability {
	return &Stability{limit: speedLimit}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(st *cloth.State, t float64) {
	s.samples++
	if !st.IsValid() {
		s.violations++
		return
	}
	for _, v := range st.Velocities {
		if float64(v.Len()) > s.limit {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// MaxStretch tracks the largest structural length ratio len/rest seen so far.
type MaxStretch struct {
	topo  *cloth.Topology
	value float64
}

func NewMaxStretch(topo *cloth.Topology) *MaxStretch {
	return &MaxStretch{topo: topo}
}

func (m *MaxStretch) Name() string { return "max_stretch" }

func (m *MaxStretch) Observe(st *cloth.State, t float64) {
	m.value = math.Max(m.value, StretchRatio(m.topo, st))
}

func (m *MaxStretch) Value() float64 { return m.value }

func (m *MaxStretch) Reset() { m.value = 0 }

// StretchRatio returns the largest structural len/rest ratio of st.
func StretchRatio(topo *cloth.Topology, st *cloth.State) float64 {
	var worst float64
	for i, s := range topo.Springs {
		if cloth.CategoryOf(i%cloth.SpringsPerVertex) != cloth.Structural || !topo.Valid(s) {
			continue
		}
		ratio := float64(st.Positions[s.Neighbor].Sub(st.Positions[s.Origin]).Len() / s.RestLength)
		worst = math.Max(worst, ratio)
	}
	return worst
}

// Contacts counts vertices resting on the sphere surface in the last
// observation.
type Contacts struct {
	sphere    cloth.Sphere
	tolerance float32
	count     int
}

func NewContacts(s cloth.Sphere, tolerance float32) *Contacts {
	return &Contacts{sphere: s, tolerance: tolerance}
}

func (c *Contacts) Name() string { return "contacts" }

func (c *Contacts) Observe(st *cloth.State, t float64) {
	c.count = CountContacts(st, c.sphere, c.tolerance)
}

func (c *Contacts) Value() float64 { return float64(c.count) }

func (c *Contacts) Reset() { c.count = 0 }

// CountContacts returns how many vertices lie within tolerance of the sphere
// surface or inside it.
func CountContacts(st *cloth.State, s cloth.Sphere, tolerance float32) int {
	n := 0
	for _, p := range st.Positions {
		if p.Sub(s.Center).Len() <= s.Radius+tolerance {
			n++
		}
	}
	return n
}
