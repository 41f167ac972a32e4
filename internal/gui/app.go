//go:build !nogl

package gui

import (
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/compute"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/metrics"
	"github.com/san-kum/clothsim/internal/viz"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
	ColCloth   = rl.NewColor(242, 232, 207, 255)
	ColSphere  = rl.NewColor(106, 153, 78, 255)
)

const (
	fontPath     = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"
	maxTelemetry = 300
	orbitSpeed   = 0.005
)

var lightDir = mgl32.Vec3{0.4, 1, 0.3}.Normalize()

type App struct {
	Config  *config.Config
	Backend compute.Backend
	Topo    *cloth.Topology
	Preset  string

	Camera   rl.Camera3D
	Orbit    *viz.Camera
	Font     rl.Font
	Running  bool
	Wire     bool
	InMenu   bool
	Presets  []string
	Selected int

	Telemetry []float64
	state     *cloth.State
	err       error
	log       *zap.Logger
}

func initWindow(cfg config.RenderConfig) {
	rl.SetConfigFlags(rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Width), int32(cfg.Height), "clothsim")
	rl.SetTargetFPS(int32(cfg.FPS))
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	if _, err := os.Stat(fontPath); err != nil {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func NewApp(cfg *config.Config, interactive bool, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		Config:    cfg,
		Font:      loadFont(),
		InMenu:    interactive,
		Running:   !interactive,
		Presets:   config.ListPresets(),
		Telemetry: make([]float64, 0, maxTelemetry),
		log:       log,
	}
	if !interactive {
		a.load(cfg)
	}
	return a
}

// Run opens a window on cfg and blocks until it is closed.
func Run(cfg *config.Config, log *zap.Logger) error {
	initWindow(cfg.Render)
	defer rl.CloseWindow()
	a := NewApp(cfg, false, log)
	defer a.cleanup()
	a.RunLoop()
	return a.err
}

// RunInteractive opens a window with a preset menu.
func RunInteractive(cfg *config.Config, log *zap.Logger) error {
	initWindow(cfg.Render)
	defer rl.CloseWindow()
	a := NewApp(cfg, true, log)
	defer a.cleanup()
	a.RunLoop()
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) cleanup() {
	if a.Backend != nil {
		a.Backend.Cleanup()
		a.Backend = nil
	}
}

// load rebuilds the simulation from cfg. The backend is selected while the
// window's context is current.
func (a *App) load(cfg *config.Config) {
	a.cleanup()
	a.Config = cfg
	a.err = nil
	a.Telemetry = a.Telemetry[:0]
	a.state = nil

	sim, err := cfg.NewSimulator(cloth.WithLogger(a.log))
	if err != nil {
		a.fail(err)
		return
	}
	backend, err := compute.Select(cfg.Simulation.Backend, sim, a.log)
	if err != nil {
		a.log.Warn("backend unavailable, using cpu", zap.String("backend", cfg.Simulation.Backend), zap.Error(err))
		backend = compute.NewCPUBackend(sim)
	}
	a.Backend = backend
	a.Topo = sim.Topology()

	a.Orbit = viz.FrameScene(a.Topo.Positions, cfg.Sphere.Params())
	a.Camera = rl.NewCamera3D(
		vec(a.Orbit.Eye()),
		vec(a.Orbit.Target),
		rl.NewVector3(0, 1, 0),
		a.Orbit.FOV,
		rl.CameraPerspective,
	)
	a.log.Info("gui loaded",
		zap.String("backend", backend.Name()),
		zap.Int("vertices", a.Topo.VertexCount()),
	)
}

func (a *App) fail(err error) {
	a.err = err
	a.Running = false
	a.log.Error("gui simulation failed", zap.Error(err))
}

// Update handles input and advances one frame. It returns false to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}

	if a.InMenu {
		a.updateMenu()
		return true
	}

	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		a.Running = !a.Running
	case rl.IsKeyPressed(rl.KeyR):
		a.load(a.Config)
		a.Running = true
	case rl.IsKeyPressed(rl.KeyW):
		a.Wire = !a.Wire
	case rl.IsKeyPressed(rl.KeyN) && !a.Running:
		a.step()
	case rl.IsKeyPressed(rl.KeyEscape) && a.Preset != "":
		a.InMenu = true
		a.Running = false
		return true
	}

	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		d := rl.GetMouseDelta()
		a.Orbit.Orbit(-d.X*orbitSpeed, d.Y*orbitSpeed)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.Orbit.Zoom(1 - wheel*0.1)
	}
	a.Camera.Position = vec(a.Orbit.Eye())

	if a.Running && a.err == nil {
		a.step()
	}
	return true
}

func (a *App) updateMenu() {
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.Selected++
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.Selected--
	}
	if a.Selected >= len(a.Presets) {
		a.Selected = 0
	}
	if a.Selected < 0 {
		a.Selected = len(a.Presets) - 1
	}

	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		name := a.Presets[a.Selected]
		cfg, err := config.GetPreset(name)
		if err != nil {
			a.fail(err)
			return
		}
		cfg.Simulation.Backend = a.Config.Simulation.Backend
		a.Preset = name
		a.load(cfg)
		a.InMenu = false
		a.Running = a.err == nil
	}
}

func (a *App) step() {
	if a.Backend == nil {
		return
	}
	if err := a.Backend.Step(a.Config.Simulation.Dt); err != nil {
		a.fail(err)
		return
	}
	st, err := a.Backend.ReadState(a.state)
	if err != nil {
		a.fail(err)
		return
	}
	a.state = st
	m := a.Config.Material.Params()
	e := metrics.Kinetic(st, m.Mass) + metrics.Potential(st, m.Mass) + metrics.Elastic(a.Topo, st, m)
	a.Telemetry = append(a.Telemetry, e)
	if len(a.Telemetry) > maxTelemetry {
		a.Telemetry = a.Telemetry[1:]
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else {
		a.drawSim()
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) DrawHUD() {
	a.drawText("clothsim", 30, 30, 24, ColSelect)
	if a.Backend != nil {
		a.drawText(fmt.Sprintf(":: %s  frame %d", a.Backend.Name(), a.Backend.Frame()), 160, 34, 16, ColText)
	}

	a.DrawTelemetry()

	status, col := "RUNNING", ColSelect
	switch {
	case a.err != nil:
		status, col = "FAULT", rl.Red
		a.drawText(a.err.Error(), 30, 70, 14, rl.Red)
	case !a.Running:
		status, col = "PAUSED", ColTextDim
	}
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	a.drawText(status, int(w)-130, 30, 16, col)
	a.drawText("[SPACE] PAUSE  [N] STEP  [R] RESET  [W] WIRE  [DRAG] ORBIT  [Q] QUIT", int(w)-640, int(h)-40, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, int(h)-40, 14, ColTextDim)
}

func (a *App) drawGrid(slices int, spacing float32) {
	half := float32(slices) * spacing / 2
	floor := a.Config.Sphere.Center[1] - a.Config.Sphere.Radius
	for i := -slices / 2; i <= slices/2; i++ {
		pos := float32(i) * spacing
		rl.DrawLine3D(rl.NewVector3(pos, floor, -half), rl.NewVector3(pos, floor, half), ColGrid)
		rl.DrawLine3D(rl.NewVector3(-half, floor, pos), rl.NewVector3(half, floor, pos), ColGrid)
	}
}

func (a *App) drawSim() {
	if a.Backend == nil {
		return
	}
	rl.BeginMode3D(a.Camera)
	a.drawGrid(40, 2.5)

	sphere := a.Config.Sphere.Params()
	if sphere.Radius > 0 {
		// drawn just inside the collider surface
		rl.DrawSphereEx(vec(sphere.Center), sphere.Radius*0.98, 24, 32, ColSphere)
	}

	positions := a.Backend.Positions()
	if a.Wire {
		for _, e := range a.Topo.Edges() {
			rl.DrawLine3D(vec(positions[e[0]]), vec(positions[e[1]]), ColCloth)
		}
	} else {
		idx := a.Topo.Indices
		for i := 0; i+2 < len(idx); i += 3 {
			p0, p1, p2 := positions[idx[i]], positions[idx[i+1]], positions[idx[i+2]]
			col := shade(p0, p1, p2)
			v0, v1, v2 := vec(p0), vec(p1), vec(p2)
			rl.DrawTriangle3D(v0, v1, v2, col)
			rl.DrawTriangle3D(v0, v2, v1, col)
		}
	}
	rl.EndMode3D()
}

// shade lights a triangle from both sides.
func shade(p0, p1, p2 mgl32.Vec3) rl.Color {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	lambert := n.Dot(lightDir)
	if lambert < 0 {
		lambert = -lambert
	}
	k := 0.35 + 0.65*lambert
	return rl.NewColor(uint8(float32(ColCloth.R)*k), uint8(float32(ColCloth.G)*k), uint8(float32(ColCloth.B)*k), 255)
}

func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, int(rl.GetScreenHeight())-120
	width, height := 400, 60

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal, maxVal = min(minVal, v), max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("E: %.2e", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}

func (a *App) drawMenu() {
	a.drawText("clothsim", 50, 50, 40, ColSelect)
	a.drawText("Select Preset", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.Presets {
		if i == a.Selected {
			a.drawText(fmt.Sprintf("> %s", name), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %s", name), 50, y, 20, ColText)
		}
		y += 28
	}
	if a.err != nil {
		a.drawText(a.err.Error(), 50, y+20, 14, rl.Red)
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", int(rl.GetScreenWidth())-430, int(rl.GetScreenHeight())-40, 14, ColTextDim)
}

func vec(v mgl32.Vec3) rl.Vector3 { return rl.NewVector3(v[0], v[1], v[2]) }
