package cloth

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// State holds the per-vertex buffers mutated every frame.
type State struct {
	Positions  []mgl32.Vec3
	Velocities []mgl32.Vec3
}

// NewState copies the rest positions of t and zeroes every velocity.
func NewState(t *Topology) *State {
	s := &State{
		Positions:  make([]mgl32.Vec3, len(t.Positions)),
		Velocities: make([]mgl32.Vec3, len(t.Positions)),
	}
	copy(s.Positions, t.Positions)
	return s
}

// Len returns the vertex count.
func (s *State) Len() int { return len(s.Positions) }

func (s *State) Clone() *State {
	c := &State{
		Positions:  make([]mgl32.Vec3, len(s.Positions)),
		Velocities: make([]mgl32.Vec3, len(s.Velocities)),
	}
	copy(c.Positions, s.Positions)
	copy(c.Velocities, s.Velocities)
	return c
}

// CopyFrom overwrites s with the contents of src. Both must have the same
// length.
func (s *State) CopyFrom(src *State) {
	copy(s.Positions, src.Positions)
	copy(s.Velocities, src.Velocities)
}

// IsValid reports whether every component is finite.
func (s *State) IsValid() bool {
	for i := range s.Positions {
		if !finite(s.Positions[i]) || !finite(s.Velocities[i]) {
			return false
		}
	}
	return true
}

func finite(v mgl32.Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
