package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/metrics"
)

const (
	canvasWidth     = 80
	canvasHeight    = 24
	historyCapacity = 600
	orbitStep       = 0.08
	zoomStep        = 1.1
	recordingPath   = "clothsim.gif"
)

// Source is a steppable cloth the live view can draw.
type Source interface {
	Name() string
	Step(dt float32) error
	Positions() []mgl32.Vec3
	ReadState(dst *cloth.State) (*cloth.State, error)
	Frame() uint64
}

// LiveConfig configures a live session.
type LiveConfig struct {
	Title    string
	Topology *cloth.Topology
	Material cloth.Material
	Sphere   cloth.Sphere
	Dt       float32
	FPS      int
	Theme    string
	// Reset rebuilds the source from rest. Nil disables the r key.
	Reset func() (Source, error)
	Log   *zap.Logger
}

type TickMsg time.Time

// Model is the bubbletea model of a live cloth session.
type Model struct {
	cfg    LiveConfig
	src    Source
	scene  *Scene
	canvas *Canvas
	camera *Camera
	home   Camera
	theme  int
	state  *cloth.State

	running  bool
	showHelp bool
	err      error
	status   string

	energy   []float64
	contacts int
	stretch  float64
	simTime  float64

	recorder  *Recorder
	recording bool

	width, height int
}

func NewModel(src Source, cfg LiveConfig) Model {
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	cam := FrameScene(src.Positions(), cfg.Sphere)
	m := Model{
		cfg:      cfg,
		src:      src,
		scene:    NewScene(cfg.Topology, cfg.Sphere),
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		camera:   cam,
		home:     *cam,
		theme:    ThemeIndex(cfg.Theme),
		running:  true,
		energy:   make([]float64, 0, historyCapacity),
		recorder: &Recorder{},
		width:    canvasWidth,
		height:   canvasHeight,
	}
	m.observe()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.cfg.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "left", "h":
			m.camera.Orbit(-orbitStep, 0)
		case "right", "l":
			m.camera.Orbit(orbitStep, 0)
		case "up", "k":
			m.camera.Orbit(0, orbitStep)
		case "down", "j":
			m.camera.Orbit(0, -orbitStep)
		case "+", "=":
			m.camera.Zoom(1 / zoomStep)
		case "-", "_":
			m.camera.Zoom(zoomStep)
		case "c":
			*m.camera = m.home
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		if m.recording {
			m.render()
			m.recorder.Capture(m.canvas)
		}
		return m, m.tick()
	}
	return m, nil
}

// resize fits the canvas into the terminal, leaving room for the stats panel.
func (m *Model) resize(w, h int) {
	cw, ch := w-50, h-4
	if cw < 20 || ch < 8 {
		return
	}
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
}

func (m *Model) step() {
	if err := m.src.Step(m.cfg.Dt); err != nil {
		m.err = err
		m.running = false
		m.cfg.Log.Error("live step failed", zap.Uint64("frame", m.src.Frame()), zap.Error(err))
		return
	}
	m.simTime += float64(m.cfg.Dt)
	m.observe()
}

func (m *Model) observe() {
	st, err := m.src.ReadState(m.state)
	if err != nil {
		m.err = err
		return
	}
	m.state = st
	mass := m.cfg.Material.Mass
	e := metrics.Kinetic(st, mass) + metrics.Potential(st, mass) + metrics.Elastic(m.cfg.Topology, st, m.cfg.Material)
	m.energy = append(m.energy, e)
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
	m.contacts = metrics.CountContacts(st, m.cfg.Sphere, metrics.DefaultContactTolerance)
	m.stretch = metrics.StretchRatio(m.cfg.Topology, st)
}

func (m *Model) reset() {
	if m.cfg.Reset == nil {
		return
	}
	src, err := m.cfg.Reset()
	if err != nil {
		m.err = err
		return
	}
	m.src = src
	m.err = nil
	m.simTime = 0
	m.energy = m.energy[:0]
	m.observe()
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.status = "recording"
		return
	}
	m.recording = false
	if err := m.recorder.Save(recordingPath); err != nil {
		m.status = "record failed: " + err.Error()
		return
	}
	m.status = "saved " + recordingPath
}

func (m *Model) render() {
	m.canvas.Clear()
	m.scene.Draw(m.canvas, m.camera, m.src.Positions())
}

func (m Model) View() string {
	th := Themes[m.theme]
	m.render()

	title := lipgloss.NewStyle().Foreground(th.Title).Bold(true).MarginBottom(1)
	label := lipgloss.NewStyle().Foreground(th.Muted).Width(12)
	value := lipgloss.NewStyle().Foreground(th.Text)
	warn := lipgloss.NewStyle().Foreground(th.Warn).Bold(true)
	graph := lipgloss.NewStyle().Foreground(th.Graph).Padding(1, 0)
	help := lipgloss.NewStyle().Foreground(th.Muted).MarginTop(1)
	panel := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(th.Muted).Padding(1, 2).Width(45)

	canvasView := lipgloss.NewStyle().Foreground(th.Cloth).Padding(1, 2).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(title.Render(strings.ToUpper(m.cfg.Title)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(warn.Render("FAULT") + "\n" + value.Render(m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString("RUNNING\n\n")
	default:
		s.WriteString("PAUSED\n\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy (J)"))
		s.WriteString(graph.Render(chart) + "\n\n")
	}

	row := func(k, v string) { s.WriteString(label.Render(k) + value.Render(v) + "\n") }
	row("Backend", m.src.Name())
	row("Frame", fmt.Sprintf("%d", m.src.Frame()))
	row("Time", fmt.Sprintf("%.2fs", m.simTime))
	row("Vertices", fmt.Sprintf("%d", m.cfg.Topology.VertexCount()))
	if len(m.energy) > 0 {
		row("Energy", fmt.Sprintf("%.2f", m.energy[len(m.energy)-1]))
	}
	row("Stretch", fmt.Sprintf("%.3f", m.stretch))
	row("Contacts", fmt.Sprintf("%d", m.contacts))
	row("Theme", th.Name)
	if m.recording {
		row("Recording", fmt.Sprintf("%d frames", m.recorder.Len()))
	}
	if m.status != "" {
		s.WriteString(value.Render(m.status) + "\n")
	}
	s.WriteString(help.Render("SP:Pause N:Step R:Reset Q:Quit\n←→↑↓:Orbit +/-:Zoom C:Home\nT:Theme G:Record ?:Help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `
  Space    pause or resume
  N        single step while paused
  R        reset to rest
  Arrows   orbit the camera
  + / -    zoom
  C        reset the camera
  T        cycle themes
  G        toggle GIF recording
  Q        quit
`

// Run starts a live session and blocks until it exits.
func Run(src Source, cfg LiveConfig) error {
	_, err := tea.NewProgram(NewModel(src, cfg), tea.WithAltScreen()).Run()
	return err
}
