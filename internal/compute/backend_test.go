package compute

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/clothsim/internal/cloth"
)

func newSim(t *testing.T) *cloth.Simulator {
	t.Helper()
	topo, err := cloth.BuildGrid(6, 10, mgl32.Vec3{0, 12, 0})
	if err != nil {
		t.Fatal(err)
	}
	sim, err := cloth.NewSimulator(topo, cloth.DefaultMaterial(), cloth.DefaultSphere())
	if err != nil {
		t.Fatal(err)
	}
	return sim
}

func TestSelectCPU(t *testing.T) {
	sim := newSim(t)
	b, err := Select("cpu", sim, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Cleanup()

	if b.Name() != "cpu" || !b.Available() {
		t.Errorf("unexpected backend %s", b.Name())
	}
	for i := 0; i < 3; i++ {
		if err := b.Step(0.01); err != nil {
			t.Fatal(err)
		}
	}
	if b.Frame() != 3 || sim.Frame() != 3 {
		t.Errorf("expected frame 3, got %d / %d", b.Frame(), sim.Frame())
	}

	st, err := b.ReadState(nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sim.State(), st); diff != "" {
		t.Errorf("read state mismatch:\n%s", diff)
	}
	if diff := cmp.Diff(sim.Positions(), b.Positions()); diff != "" {
		t.Errorf("positions mismatch:\n%s", diff)
	}
}

func TestSelectUnknown(t *testing.T) {
	if _, err := Select("cuda", newSim(t), nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestCPUBackendRejectsBadStep(t *testing.T) {
	b := NewCPUBackend(newSim(t))
	if err := b.Step(-1); err == nil {
		t.Error("expected error for negative dt")
	}
	if b.Frame() != 0 {
		t.Errorf("frame advanced to %d", b.Frame())
	}
}
