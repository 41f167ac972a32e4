package compute

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/clothsim/internal/cloth"
)

type CPUBackend struct {
	sim *cloth.Simulator
}

func NewCPUBackend(sim *cloth.Simulator) *CPUBackend {
	return &CPUBackend{sim: sim}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) Step(dt float32) error { return c.sim.Step(dt) }

func (c *CPUBackend) Positions() []mgl32.Vec3 { return c.sim.Positions() }

func (c *CPUBackend) ReadState(dst *cloth.State) (*cloth.State, error) {
	return c.sim.Snapshot(dst), nil
}

func (c *CPUBackend) Frame() uint64 { return c.sim.Frame() }

// Simulator exposes the wrapped simulator for reset and restore.
func (c *CPUBackend) Simulator() *cloth.Simulator { return c.sim }
