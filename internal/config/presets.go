package config

import (
	"fmt"
	"sort"
)

// Preset is a named overlay on the default configuration.
type Preset struct {
	Description string
	apply       func(*Config)
}

var Presets = map[string]Preset{
	"drape": {
		Description: "default cloth falling onto the sphere",
		apply:       func(*Config) {},
	},
	"silk": {
		Description: "light cloth with little bending resistance",
		apply: func(c *Config) {
			c.Material.Mass = 0.1
			c.Material.Bend = SpringConfig{Stiffness: 2, Damping: 0.05}
			c.Material.Structural.Damping = 0.5
			c.Material.Shear.Damping = 0.5
		},
	},
	"heavy": {
		Description: "canvas-like cloth, heavier and stiffer",
		apply: func(c *Config) {
			c.Material.Mass = 1
			c.Material.Structural = SpringConfig{Stiffness: 60, Damping: 2}
			c.Material.Shear = SpringConfig{Stiffness: 60, Damping: 2}
			c.Material.Bend = SpringConfig{Stiffness: 30, Damping: 0.5}
		},
	},
	"fine": {
		Description: "60x60 grid at a smaller timestep",
		apply: func(c *Config) {
			c.Cloth.Resolution = 60
			c.Simulation.Dt = 0.005
			c.Simulation.Frames = 2000
			c.Simulation.SampleEvery = 20
		},
	},
	"tiny": {
		Description: "8x8 grid for quick checks",
		apply: func(c *Config) {
			c.Cloth.Resolution = 8
			c.Cloth.Size = 30
			c.Simulation.Frames = 300
			c.Simulation.SampleEvery = 5
		},
	},
	"offset": {
		Description: "cloth dropped off-centre so it slides off the sphere",
		apply: func(c *Config) {
			c.Cloth.Center = [3]float32{8, 12, 4}
			c.Simulation.Frames = 1500
		},
	},
}

// GetPreset returns the defaults with the named preset applied.
func GetPreset(name string) (*Config, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown preset %q (available: %v)", name, ListPresets())
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
