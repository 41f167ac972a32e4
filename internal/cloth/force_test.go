package cloth

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// pairTopology returns a 2x2 grid where only vertex 0 has a spring, a
// structural link to vertex 1 with the given rest length.
func pairTopology(rest float32, positions ...mgl32.Vec3) *Topology {
	t := &Topology{
		Resolution: 2,
		Size:       1,
		Positions:  make([]mgl32.Vec3, 4),
		Springs:    make([]Spring, 4*SpringsPerVertex),
	}
	copy(t.Positions, positions)
	for i := range t.Springs {
		t.Springs[i] = Spring{Origin: uint32(i / SpringsPerVertex), Neighbor: t.Sentinel(), RestLength: 1}
	}
	t.Springs[2] = Spring{Origin: 0, Neighbor: 1, RestLength: rest}
	return t
}

func runForce(t *Topology, m Material, st *State, dt float32) []mgl32.Vec3 {
	p := NewParameters(t.VertexCount(), m, DefaultSphere())
	p.DeltaTime = dt
	out := make([]mgl32.Vec3, t.VertexCount())
	f := NewForceStage(t, &p)
	f.Bind(st, out)
	for v := 0; v < t.VertexCount(); v++ {
		f.Run(v)
	}
	return out
}

func near(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestForceStage_StretchedSpring(t *testing.T) {
	topo := pairTopology(1, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 0, 0})
	st := NewState(topo)
	m := DefaultMaterial()
	m.Mass = 1
	m.Structural = Coefficients{Stiffness: 10, Damping: 0}
	dt := float32(0.01)

	out := runForce(topo, m, st, dt)

	if !near(out[0].X(), 10*1*dt/1, 1e-6) {
		t.Errorf("expected vel.x %f, got %f", 10*dt, out[0].X())
	}
	if !near(out[0].Y(), -9.81*dt, 1e-6) {
		t.Errorf("expected vel.y %f, got %f", -9.81*dt, out[0].Y())
	}
	if out[0].Z() != 0 {
		t.Errorf("expected vel.z 0, got %f", out[0].Z())
	}

	// vertex 1 has no springs of its own and only falls
	if out[1].X() != 0 || !near(out[1].Y(), -9.81*dt, 1e-6) {
		t.Errorf("unexpected velocity for vertex 1: %v", out[1])
	}
}

func TestForceStage_CompressedSpringPushes(t *testing.T) {
	topo := pairTopology(2, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})
	st := NewState(topo)
	m := DefaultMaterial()
	m.Mass = 0.5
	m.Structural = Coefficients{Stiffness: 4, Damping: 0}

	out := runForce(topo, m, st, 0.1)

	// stretch -1 along +x, pushes vertex 0 toward -x
	want := float32(4 * -1 * 0.1 / 0.5)
	if !near(out[0].X(), want, 1e-6) {
		t.Errorf("expected vel.x %f, got %f", want, out[0].X())
	}
}

func TestForceStage_Damping(t *testing.T) {
	topo := pairTopology(1, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})
	st := NewState(topo)
	st.Velocities[1] = mgl32.Vec3{3, 5, 0}

	m := DefaultMaterial()
	m.Mass = 1
	m.Structural = Coefficients{Stiffness: 7, Damping: 2}
	dt := float32(0.01)

	out := runForce(topo, m, st, dt)

	// at rest length only the relative velocity along the spring acts
	wantX := 2 * 3 * dt
	if !near(out[0].X(), wantX, 1e-6) {
		t.Errorf("expected vel.x %f, got %f", wantX, out[0].X())
	}
	if !near(out[0].Y(), -9.81*dt, 1e-6) {
		t.Errorf("perpendicular relative velocity leaked into damping: vel.y %f", out[0].Y())
	}
}

func TestForceStage_CoincidentEndpointsSkipped(t *testing.T) {
	topo := pairTopology(1, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1})
	st := NewState(topo)
	m := DefaultMaterial()
	dt := float32(0.02)

	out := runForce(topo, m, st, dt)

	if !finite(out[0]) {
		t.Fatalf("expected finite velocity, got %v", out[0])
	}
	if out[0].X() != 0 || out[0].Z() != 0 || !near(out[0].Y(), -9.81*dt, 1e-6) {
		t.Errorf("expected gravity only, got %v", out[0])
	}
}

func TestForceStage_RestGridOnlyFalls(t *testing.T) {
	topo, err := BuildGrid(6, 5, mgl32.Vec3{0, 4, 0})
	if err != nil {
		t.Fatal(err)
	}
	st := NewState(topo)
	dt := float32(1.0 / 60)

	out := runForce(topo, DefaultMaterial(), st, dt)

	for v, vel := range out {
		if !near(vel.X(), 0, 1e-5) || !near(vel.Z(), 0, 1e-5) || !near(vel.Y(), -9.81*dt, 1e-5) {
			t.Fatalf("vertex %d: expected pure free fall, got %v", v, vel)
		}
	}
}

func TestForceStage_ReadsOnlyCommittedState(t *testing.T) {
	topo, _ := BuildGrid(4, 3, mgl32.Vec3{})
	st := NewState(topo)
	st.Positions[5] = st.Positions[5].Add(mgl32.Vec3{0, 0.3, 0})
	before := st.Clone()

	runForce(topo, DefaultMaterial(), st, 0.01)

	for v := range st.Positions {
		if st.Positions[v] != before.Positions[v] || st.Velocities[v] != before.Velocities[v] {
			t.Fatalf("force stage mutated committed vertex %d", v)
		}
	}
}
