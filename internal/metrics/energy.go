package metrics

import (
	"math"

	"github.com/san-kum/clothsim/internal/cloth"
)

// EnergyKind selects which energy term an Energy metric reports.
type EnergyKind int

const (
	EnergyKinetic EnergyKind = iota
	EnergyPotential
	EnergyElastic
	EnergyTotal
)

func (k EnergyKind) String() string {
	switch k {
	case EnergyKinetic:
		return "kinetic"
	case EnergyPotential:
		return "potential"
	case EnergyElastic:
		return "elastic"
	default:
		return "energy"
	}
}

// Kinetic returns ½·m·Σ|v|².
func Kinetic(st *cloth.State, mass float32) float64 {
	var sum float64
	for _, v := range st.Velocities {
		sum += float64(v.Dot(v))
	}
	return 0.5 * float64(mass) * sum
}

// Potential returns the gravitational energy relative to y = 0.
func Potential(st *cloth.State, mass float32) float64 {
	g := -float64(cloth.Gravity.Y())
	var sum float64
	for _, p := range st.Positions {
		sum += float64(p.Y())
	}
	return float64(mass) * g * sum
}

// Elastic returns Σ½·k·stretch² over all links. Every link appears in the
// spring blocks of both endpoints, so each slot contributes half.
func Elastic(topo *cloth.Topology, st *cloth.State, m cloth.Material) float64 {
	var sum float64
	for i, s := range topo.Springs {
		if !topo.Valid(s) {
			continue
		}
		k := float64(m.Coefficients(cloth.CategoryOf(i % cloth.SpringsPerVertex)).Stiffness)
		stretch := float64(st.Positions[s.Neighbor].Sub(st.Positions[s.Origin]).Len() - s.RestLength)
		sum += 0.25 * k * stretch * stretch
	}
	return sum
}

// Energy reports one energy term of the most recent observation.
type Energy struct {
	kind     EnergyKind
	topo     *cloth.Topology
	material cloth.Material
	value    float64
	peak     float64
	samples  int
}

func NewEnergy(kind EnergyKind, topo *cloth.Topology, m cloth.Material) *Energy {
	return &Energy{kind: kind, topo: topo, material: m}
}

func (e *Energy) Name() string { return e.kind.String() }

func (e *Energy) Observe(st *cloth.State, t float64) {
	switch e.kind {
	case EnergyKinetic:
		e.value = Kinetic(st, e.material.Mass)
	case EnergyPotential:
		e.value = Potential(st, e.material.Mass)
	case EnergyElastic:
		e.value = Elastic(e.topo, st, e.material)
	default:
		e.value = Kinetic(st, e.material.Mass) + Potential(st, e.material.Mass) + Elastic(e.topo, st, e.material)
	}
	if e.samples == 0 || math.Abs(e.value) > math.Abs(e.peak) {
		e.peak = e.value
	}
	e.samples++
}

func (e *Energy) Value() float64 { return e.value }

// Peak is the observed value with the largest magnitude.
func (e *Energy) Peak() float64 { return e.peak }

func (e *Energy) Reset() {
	e.value = 0
	e.peak = 0
	e.samples = 0
}
