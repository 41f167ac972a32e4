//go:build !nogl

package compute

import (
	_ "embed"
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/dispatch"
	"github.com/san-kum/clothsim/internal/layout"
)

//go:embed shaders/force.comp
var forceShader string

//go:embed shaders/integrate.comp
var integrateShader string

// SSBO and UBO binding points shared with the shaders.
const (
	bindPositions      = 0
	bindVelocities     = 1
	bindNextVelocities = 2
	bindNextPositions  = 3
	bindSprings        = 4
	bindParams         = 0
)

type OpenGLBackend struct {
	topo   *cloth.Topology
	params cloth.Parameters
	start  *cloth.State

	ForceProgram     uint32
	IntegrateProgram uint32
	Positions0       uint32
	Velocities0      uint32
	Positions1       uint32
	Velocities1      uint32
	SpringBuffer     uint32
	ParamBuffer      uint32
	Groups           uint32
	Initialized      bool

	host  []mgl32.Vec3
	dirty bool
	frame uint64
	log   *zap.Logger
}

// NewOpenGLBackend prepares a GPU copy of sim's committed state. Init must be
// called with a current GL context.
func NewOpenGLBackend(sim *cloth.Simulator, log *zap.Logger) *OpenGLBackend {
	n := sim.Topology().VertexCount()
	return &OpenGLBackend{
		topo:   sim.Topology(),
		params: sim.Parameters(),
		start:  sim.Snapshot(nil),
		Groups: uint32(dispatch.New(dispatch.DefaultGroupSize, 1).Groups(n)),
		host:   make([]mgl32.Vec3, n),
		log:    log,
	}
}

func (b *OpenGLBackend) Name() string { return "opengl" }

// Available reports whether a GL 4.3 context is current.
func (b *OpenGLBackend) Available() bool {
	if err := gl.Init(); err != nil {
		return false
	}
	return gl.GetString(gl.VERSION) != nil
}

func (b *OpenGLBackend) Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("compute: init opengl: %w", err)
	}
	if gl.GetString(gl.VERSION) == nil {
		return fmt.Errorf("compute: no current opengl context")
	}

	var err error
	if b.ForceProgram, err = createComputeProgram("force", forceShader); err != nil {
		return err
	}
	if b.IntegrateProgram, err = createComputeProgram("integrate", integrateShader); err != nil {
		return err
	}

	n := len(b.host)
	size := n * layout.VertexStride
	zero := make([]mgl32.Vec3, n)

	b.Positions0 = newStorageBuffer(size, gl.Ptr(b.start.Positions))
	b.Velocities0 = newStorageBuffer(size, gl.Ptr(b.start.Velocities))
	b.Positions1 = newStorageBuffer(size, gl.Ptr(zero))
	b.Velocities1 = newStorageBuffer(size, gl.Ptr(zero))

	springs := layout.SpringFloats(b.topo.Springs)
	b.SpringBuffer = newStorageBuffer(len(springs)*4, gl.Ptr(springs))

	block := layout.Std140Params(&b.params)
	gl.GenBuffers(1, &b.ParamBuffer)
	gl.BindBuffer(gl.UNIFORM_BUFFER, b.ParamBuffer)
	gl.BufferData(gl.UNIFORM_BUFFER, len(block), gl.Ptr(&block[0]), gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, bindParams, b.ParamBuffer)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("compute: buffer setup failed: gl error 0x%x", code)
	}

	copy(b.host, b.start.Positions)
	b.Initialized = true

	var maxGroupSize int32
	gl.GetIntegeri_v(gl.MAX_COMPUTE_WORK_GROUP_SIZE, 0, &maxGroupSize)
	b.log.Info("opengl compute ready",
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Int("vertices", n),
		zap.Uint32("workgroups", b.Groups),
		zap.Int32("max_workgroup_size", maxGroupSize),
	)
	return nil
}

func newStorageBuffer(size int, data unsafe.Pointer) uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, id)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, data, gl.DYNAMIC_COPY)
	return id
}

func (b *OpenGLBackend) bind() {
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindPositions, b.Positions0)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindVelocities, b.Velocities0)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindNextVelocities, b.Velocities1)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindNextPositions, b.Positions1)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindSprings, b.SpringBuffer)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, bindParams, b.ParamBuffer)
}

// Step runs the force and integration shaders. Both write the second buffer
// set; the sets are swapped only when the frame completed without a GL error.
func (b *OpenGLBackend) Step(dt float32) error {
	if !b.Initialized {
		return fmt.Errorf("compute: opengl backend not initialized")
	}
	if !(dt >= 0) || math.IsInf(float64(dt), 0) {
		return &cloth.ConfigError{Field: "dt", Value: float64(dt), Wrapped: cloth.ErrInvalidTimestep}
	}

	b.params.DeltaTime = dt
	block := layout.Std140Params(&b.params)
	gl.BindBuffer(gl.UNIFORM_BUFFER, b.ParamBuffer)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(block), gl.Ptr(&block[0]))
	b.bind()

	gl.UseProgram(b.ForceProgram)
	gl.DispatchCompute(b.Groups, 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	if err := glFault("force"); err != nil {
		return b.fault("force", err)
	}

	gl.UseProgram(b.IntegrateProgram)
	gl.DispatchCompute(b.Groups, 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
	if err := glFault("integrate"); err != nil {
		return b.fault("integrate", err)
	}

	b.Positions0, b.Positions1 = b.Positions1, b.Positions0
	b.Velocities0, b.Velocities1 = b.Velocities1, b.Velocities0
	b.frame++
	b.dirty = true
	return nil
}

func glFault(stage string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s dispatch: gl error 0x%x", stage, code)
	}
	return nil
}

func (b *OpenGLBackend) fault(stage string, err error) error {
	b.log.Warn("gpu stage fault, frame abandoned", zap.Uint64("frame", b.frame+1), zap.String("stage", stage), zap.Error(err))
	return &cloth.StepError{Frame: b.frame + 1, Stage: stage, Wrapped: fmt.Errorf("%w: %w", cloth.ErrStageFault, err)}
}

func readBuffer(id uint32, dst []mgl32.Vec3) {
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, id)
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(dst)*layout.VertexStride, gl.Ptr(dst))
}

// Positions reads back the committed positions. The slice is reused.
func (b *OpenGLBackend) Positions() []mgl32.Vec3 {
	if b.dirty && b.Initialized {
		readBuffer(b.Positions0, b.host)
		b.dirty = false
	}
	return b.host
}

func (b *OpenGLBackend) ReadState(dst *cloth.State) (*cloth.State, error) {
	if !b.Initialized {
		return nil, fmt.Errorf("compute: opengl backend not initialized")
	}
	n := len(b.host)
	if dst == nil || dst.Len() != n || len(dst.Velocities) != n {
		dst = &cloth.State{Positions: make([]mgl32.Vec3, n), Velocities: make([]mgl32.Vec3, n)}
	}
	copy(dst.Positions, b.Positions())
	readBuffer(b.Velocities0, dst.Velocities)
	if err := glFault("readback"); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	return dst, nil
}

func (b *OpenGLBackend) Frame() uint64 { return b.frame }

func (b *OpenGLBackend) Cleanup() {
	if !b.Initialized {
		return
	}
	buffers := []uint32{b.Positions0, b.Velocities0, b.Positions1, b.Velocities1, b.SpringBuffer, b.ParamBuffer}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
	gl.DeleteProgram(b.ForceProgram)
	gl.DeleteProgram(b.IntegrateProgram)
	b.Initialized = false
}

func createComputeProgram(name, source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compute: compile %s shader: %s", name, strings.TrimRight(log, "\x00"))
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("compute: link %s program: %s", name, strings.TrimRight(log, "\x00"))
	}
	return program, nil
}
