package cloth

import "github.com/go-gl/mathgl/mgl32"

// ForceStage accumulates spring, damping and gravity forces per vertex and
// writes the updated velocity. It reads the committed state only, so every
// neighbour read sees values from before the stage.
type ForceStage struct {
	topo   *Topology
	params *Parameters
	in     *State
	out    []mgl32.Vec3
}

// NewForceStage binds the stage to a topology and parameter block.
func NewForceStage(t *Topology, p *Parameters) *ForceStage {
	return &ForceStage{topo: t, params: p}
}

// Bind sets the buffers of the next dispatch. out receives one velocity per
// vertex.
func (f *ForceStage) Bind(in *State, out []mgl32.Vec3) {
	f.in = in
	f.out = out
}

// Run is the per-vertex kernel. It writes only out[v].
func (f *ForceStage) Run(v int) {
	pos := f.in.Positions[v]
	vel := f.in.Velocities[v]
	sentinel := f.topo.Sentinel()

	var force mgl32.Vec3
	for k, s := range f.topo.SpringsOf(v) {
		if s.Neighbor >= sentinel {
			continue
		}
		d := f.in.Positions[s.Neighbor].Sub(pos)
		length := d.Len()
		if length == 0 {
			// coincident endpoints have no direction
			continue
		}
		dir := d.Mul(1 / length)

		stiffness, damping := f.params.Coefficients(CategoryOf(k))
		stretch := length - s.RestLength
		closing := f.in.Velocities[s.Neighbor].Sub(vel).Dot(dir)
		force = force.Add(dir.Mul(stiffness*stretch + damping*closing))
	}

	mass := f.params.VertexMass
	force = force.Add(Gravity.Mul(mass))
	f.out[v] = vel.Add(force.Mul(f.params.DeltaTime / mass))
}
