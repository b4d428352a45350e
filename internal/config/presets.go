package config

import (
	"math"
	"sort"
)

var Presets = map[string]*Config{
	"original": preset(func(c *Config) {}),
	"swing": preset(func(c *Config) {
		c.Physics.Stiffness = 40
		c.InitState.Theta = math.Pi / 2
		c.Sim.TMax = 20
	}),
	"gentle": preset(func(c *Config) {
		c.InitState.Theta = 0.3
		c.InitState.Length = 1.4
		c.Sim.TMax = 20
	}),
	"stretch": preset(func(c *Config) {
		c.InitState.Theta = 0
		c.InitState.Length = 1.8
	}),
	"spring-swing": preset(func(c *Config) {
		// 2:1 resonance, k/m = 4g/l_eq. Energy sloshes between modes.
		c.Physics.Stiffness = 3 * c.Physics.Mass * c.Physics.Gravity / c.Physics.RestLength
		c.InitState.Theta = 0.1
		c.InitState.Length = 1.3
		c.Sim.TMax = 30
	}),
}

func preset(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
