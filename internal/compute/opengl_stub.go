//go:build nogl

package compute

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/cloth"
)

var errNoGL = errors.New("compute: built without opengl support")

type OpenGLBackend struct{}

func NewOpenGLBackend(sim *cloth.Simulator, log *zap.Logger) *OpenGLBackend {
	return &OpenGLBackend{}
}

func (b *OpenGLBackend) Name() string    { return "opengl" }
func (b *OpenGLBackend) Available() bool { return false }
func (b *OpenGLBackend) Init() error     { return errNoGL }
func (b *OpenGLBackend) Cleanup()        {}

func (b *OpenGLBackend) Step(dt float32) error   { return errNoGL }
func (b *OpenGLBackend) Positions() []mgl32.Vec3 { return nil }
func (b *OpenGLBackend) Frame() uint64           { return 0 }

func (b *OpenGLBackend) ReadState(dst *cloth.State) (*cloth.State, error) {
	return nil, errNoGL
}
