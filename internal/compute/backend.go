package compute

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/cloth"
)

// Backend advances one cloth. Positions and ReadState only observe committed
// frames.
type Backend interface {
	Name() string
	Available() bool
	Step(dt float32) error
	Positions() []mgl32.Vec3
	ReadState(dst *cloth.State) (*cloth.State, error)
	Frame() uint64
	Cleanup()
}

// Select returns the named backend for sim. "auto" picks opengl when a GL
// context is current and falls back to cpu otherwise. The cpu backend steps
// sim itself; the opengl backend uploads sim's committed state and leaves sim
// untouched.
func Select(name string, sim *cloth.Simulator, log *zap.Logger) (Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch name {
	case "cpu":
		return NewCPUBackend(sim), nil
	case "opengl":
		gpu := NewOpenGLBackend(sim, log)
		if err := gpu.Init(); err != nil {
			return nil, err
		}
		return gpu, nil
	case "auto", "":
		gpu := NewOpenGLBackend(sim, log)
		if gpu.Available() {
			err := gpu.Init()
			if err == nil {
				return gpu, nil
			}
			log.Warn("opengl backend unavailable, using cpu", zap.Error(err))
		}
		return NewCPUBackend(sim), nil
	default:
		return nil, fmt.Errorf("compute: unknown backend %q", name)
	}
}
