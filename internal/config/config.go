package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/dispatch"
	"github.com/san-kum/clothsim/internal/logger"
)

const (
	DefaultResolution   = 25
	DefaultClothSize    = 35.0
	DefaultClothHeight  = 10.0
	DefaultDt           = 0.01
	DefaultFrames       = 1000
	DefaultSampleEvery  = 10
	DefaultBackend      = "cpu"
	DefaultFPS          = 60
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 720
	DefaultServeAddr    = ":8080"
	DefaultLogLevel     = "info"
)

// Backends lists the accepted simulation.backend values.
var Backends = []string{"cpu", "opengl", "auto"}

var errUnknownBackend = errors.New("config: unknown backend")

type Config struct {
	Cloth      ClothConfig      `yaml:"cloth"`
	Sphere     SphereConfig     `yaml:"sphere"`
	Material   MaterialConfig   `yaml:"material"`
	Simulation SimulationConfig `yaml:"simulation"`
	Render     RenderConfig     `yaml:"render"`
	Serve      ServeConfig      `yaml:"serve"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ClothConfig struct {
	Resolution uint32     `yaml:"resolution"`
	Size       float32    `yaml:"size"`
	Center     [3]float32 `yaml:"center,flow"`
}

type SphereConfig struct {
	Radius float32    `yaml:"radius"`
	Center [3]float32 `yaml:"center,flow"`
}

type SpringConfig struct {
	Stiffness float32 `yaml:"stiffness"`
	Damping   float32 `yaml:"damping"`
}

type MaterialConfig struct {
	Mass       float32      `yaml:"mass"`
	Structural SpringConfig `yaml:"structural"`
	Shear      SpringConfig `yaml:"shear"`
	Bend       SpringConfig `yaml:"bend"`
}

type SimulationConfig struct {
	Dt            float32 `yaml:"dt"`
	Frames        int     `yaml:"frames"`
	SampleEvery   int     `yaml:"sample_every"`
	WorkgroupSize int     `yaml:"workgroup_size"`
	Workers       int     `yaml:"workers"`
	Backend       string  `yaml:"backend"`
}

type RenderConfig struct {
	FPS    int `yaml:"fps"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
	FPS  int    `yaml:"fps"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

func DefaultConfig() *Config {
	m := cloth.DefaultMaterial()
	return &Config{
		Cloth: ClothConfig{
			Resolution: DefaultResolution,
			Size:       DefaultClothSize,
			Center:     [3]float32{0, DefaultClothHeight, 0},
		},
		Sphere: SphereConfig{Radius: cloth.DefaultSphereRadius},
		Material: MaterialConfig{
			Mass:       m.Mass,
			Structural: SpringConfig{m.Structural.Stiffness, m.Structural.Damping},
			Shear:      SpringConfig{m.Shear.Stiffness, m.Shear.Damping},
			Bend:       SpringConfig{m.Bend.Stiffness, m.Bend.Damping},
		},
		Simulation: SimulationConfig{
			Dt:            DefaultDt,
			Frames:        DefaultFrames,
			SampleEvery:   DefaultSampleEvery,
			WorkgroupSize: dispatch.DefaultGroupSize,
			Backend:       DefaultBackend,
		},
		Render: RenderConfig{FPS: DefaultFPS, Width: DefaultWindowWidth, Height: DefaultWindowHeight},
		Serve:  ServeConfig{Addr: DefaultServeAddr, FPS: DefaultFPS},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load overlays the YAML file at path onto base, or onto the defaults when
// base is nil.
func Load(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if base != nil {
		cfg = base.Clone()
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy. Config holds no reference types, so a value copy
// is enough.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	m := c.Material.Params()
	if err := m.Validate(); err != nil {
		return err
	}
	if err := c.Sphere.Params().Validate(); err != nil {
		return err
	}
	if c.Cloth.Resolution < 2 {
		return &cloth.ConfigError{Field: "resolution", Value: float64(c.Cloth.Resolution), Wrapped: cloth.ErrInvalidResolution}
	}
	if !(c.Cloth.Size > 0) {
		return &cloth.ConfigError{Field: "size", Value: float64(c.Cloth.Size), Wrapped: cloth.ErrInvalidSize}
	}
	if !(c.Simulation.Dt >= 0) {
		return &cloth.ConfigError{Field: "dt", Value: float64(c.Simulation.Dt), Wrapped: cloth.ErrInvalidTimestep}
	}
	if c.Simulation.WorkgroupSize < 1 {
		return &cloth.ConfigError{Field: "workgroup_size", Value: float64(c.Simulation.WorkgroupSize), Wrapped: cloth.ErrInvalidWorkgroupSize}
	}
	if c.Simulation.Frames < 0 {
		return fmt.Errorf("config: frames must not be negative, got %d", c.Simulation.Frames)
	}
	if c.Simulation.SampleEvery < 1 {
		return fmt.Errorf("config: sample_every must be at least 1, got %d", c.Simulation.SampleEvery)
	}
	if !validBackend(c.Simulation.Backend) {
		return fmt.Errorf("%w %q (want one of %v)", errUnknownBackend, c.Simulation.Backend, Backends)
	}
	if c.Render.FPS < 1 || c.Serve.FPS < 1 {
		return fmt.Errorf("config: fps must be at least 1")
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

func validBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// Topology builds the cloth grid described by the cloth section.
func (c *Config) Topology() (*cloth.Topology, error) {
	return cloth.BuildGrid(c.Cloth.Resolution, c.Cloth.Size, mgl32.Vec3(c.Cloth.Center))
}

func (m MaterialConfig) Params() cloth.Material {
	return cloth.Material{
		Mass:       m.Mass,
		Structural: cloth.Coefficients{Stiffness: m.Structural.Stiffness, Damping: m.Structural.Damping},
		Shear:      cloth.Coefficients{Stiffness: m.Shear.Stiffness, Damping: m.Shear.Damping},
		Bend:       cloth.Coefficients{Stiffness: m.Bend.Stiffness, Damping: m.Bend.Damping},
	}
}

func (s SphereConfig) Params() cloth.Sphere {
	return cloth.Sphere{Center: mgl32.Vec3(s.Center), Radius: s.Radius}
}

// Dispatcher returns the CPU dispatcher for the simulation section.
func (s SimulationConfig) Dispatcher() *dispatch.Dispatcher {
	return dispatch.New(s.WorkgroupSize, s.Workers)
}

// Duration is the simulated time covered by Frames steps.
func (s SimulationConfig) Duration() time.Duration {
	return time.Duration(float64(s.Frames) * float64(s.Dt) * float64(time.Second))
}

// NewSimulator builds the topology and a CPU simulator from c.
func (c *Config) NewSimulator(opts ...cloth.Option) (*cloth.Simulator, error) {
	topo, err := c.Topology()
	if err != nil {
		return nil, err
	}
	opts = append([]cloth.Option{cloth.WithDispatcher(c.Simulation.Dispatcher())}, opts...)
	return cloth.NewSimulator(topo, c.Material.Params(), c.Sphere.Params(), opts...)
}
