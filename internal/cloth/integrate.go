package cloth

import "github.com/go-gl/mathgl/mgl32"

// fallbackNormal is used when a candidate lands exactly on the sphere centre.
var fallbackNormal = mgl32.Vec3{0, 1, 0}

// Resolve projects a point that ended up strictly inside the sphere back onto
// its surface and removes the velocity component along the surface normal.
// Points outside or on the surface are returned unchanged with hit false.
func (s Sphere) Resolve(candidate, vel mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3, bool) {
	offset := candidate.Sub(s.Center)
	dist := offset.Len()
	if dist >= s.Radius {
		return candidate, vel, false
	}

	normal := fallbackNormal
	if dist > 0 {
		normal = offset.Mul(1 / dist)
	}
	projected := s.Center.Add(normal.Mul(s.Radius))
	vel = vel.Sub(normal.Mul(vel.Dot(normal)))
	return projected, vel, true
}

// IntegrationStage advances positions from the velocities produced by the
// force stage and resolves sphere penetration. Each invocation touches slot v
// only.
type IntegrationStage struct {
	params     *Parameters
	positions  []mgl32.Vec3
	velocities []mgl32.Vec3
	out        []mgl32.Vec3
}

func NewIntegrationStage(p *Parameters) *IntegrationStage {
	return &IntegrationStage{params: p}
}

// Bind sets the buffers of the next dispatch. velocities is read and
// corrected in place; out receives the new positions.
func (s *IntegrationStage) Bind(positions, velocities, out []mgl32.Vec3) {
	s.positions = positions
	s.velocities = velocities
	s.out = out
}

// Run is the per-vertex kernel.
func (s *IntegrationStage) Run(v int) {
	dt := s.params.DeltaTime
	if dt == 0 {
		s.out[v] = s.positions[v]
		return
	}

	candidate := s.positions[v].Add(s.velocities[v].Mul(dt))
	pos, vel, hit := s.params.Sphere().Resolve(candidate, s.velocities[v])
	if hit {
		s.velocities[v] = vel
	}
	s.out[v] = pos
}
