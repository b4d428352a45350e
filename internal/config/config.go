package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/integrators"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultTheta    = 3 * math.Pi / 4
	DefaultFPS      = 20
	DefaultRelTol   = 1e-6
	DefaultAbsTol   = 1e-9
	DefaultSwings   = 10
	DefaultDPI      = 128
)

type Config struct {
	Physics   PhysicsConfig   `yaml:"physics" toml:"physics"`
	InitState InitStateConfig `yaml:"init_state" toml:"init_state"`
	Sim       SimConfig       `yaml:"sim" toml:"sim"`
	Swing     SwingConfig     `yaml:"swing" toml:"swing"`
	Output    OutputConfig    `yaml:"output" toml:"output"`
}

type PhysicsConfig struct {
	RestLength float64 `yaml:"rest_length" toml:"rest_length"`
	Stiffness  float64 `yaml:"stiffness" toml:"stiffness"`
	Mass       float64 `yaml:"mass" toml:"mass"`
	Gravity    float64 `yaml:"gravity" toml:"gravity"`
}

type InitStateConfig struct {
	Theta      float64 `yaml:"theta" toml:"theta"`
	Omega      float64 `yaml:"omega" toml:"omega"`
	Length     float64 `yaml:"length" toml:"length"`
	LengthRate float64 `yaml:"length_rate" toml:"length_rate"`
}

type SimConfig struct {
	TMax       float64 `yaml:"t_max" toml:"t_max"`
	Dt         float64 `yaml:"dt" toml:"dt"`
	FPS        int     `yaml:"fps" toml:"fps"`
	RelTol     float64 `yaml:"rel_tol" toml:"rel_tol"`
	AbsTol     float64 `yaml:"abs_tol" toml:"abs_tol"`
	Integrator string  `yaml:"integrator" toml:"integrator"`
}

type SwingConfig struct {
	Count        int     `yaml:"count" toml:"count"`
	MaxDoublings int     `yaml:"max_doublings" toml:"max_doublings"`
	MaxHorizon   float64 `yaml:"max_horizon" toml:"max_horizon"`
}

type OutputConfig struct {
	FramesDir string  `yaml:"frames_dir" toml:"frames_dir"`
	Animation string  `yaml:"animation" toml:"animation"`
	Palette   string  `yaml:"palette" toml:"palette"`
	Summary   string  `yaml:"summary" toml:"summary"`
	Encoder   string  `yaml:"encoder" toml:"encoder"`
	DPI       float64 `yaml:"dpi" toml:"dpi"`
}

func DefaultConfig() *Config {
	return &Config{
		Physics: PhysicsConfig{
			RestLength: physics.DefaultRestLength,
			Stiffness:  physics.DefaultStiffness,
			Mass:       physics.DefaultMass,
			Gravity:    physics.DefaultGravity,
		},
		InitState: InitStateConfig{
			Theta:  DefaultTheta,
			Length: physics.DefaultRestLength,
		},
		Sim: SimConfig{
			TMax:       DefaultDuration,
			Dt:         DefaultDt,
			FPS:        DefaultFPS,
			RelTol:     DefaultRelTol,
			AbsTol:     DefaultAbsTol,
			Integrator: integrators.Default,
		},
		Swing: SwingConfig{
			Count:        DefaultSwings,
			MaxDoublings: 10,
		},
		Output: OutputConfig{
			FramesDir: "frames",
			Animation: "out.gif",
			Palette:   "palette.png",
			Summary:   "out.png",
			Encoder:   "ffmpeg",
			DPI:       DefaultDPI,
		},
	}
}

// Load decodes a YAML or TOML file, chosen by extension, over the
// defaults. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeFile decodes path over cfg in place.
func DecodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) Validate() error {
	if err := c.Pendulum().Validate(); err != nil {
		return err
	}
	switch {
	case !(c.InitState.Length > 0):
		return fmt.Errorf("%w: initial length must be positive, got %g", dynamo.ErrParameterBounds, c.InitState.Length)
	case !(c.Sim.Dt > 0):
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, c.Sim.Dt)
	case !(c.Sim.TMax > 0):
		return fmt.Errorf("%w: t_max must be positive, got %g", dynamo.ErrParameterBounds, c.Sim.TMax)
	case c.Sim.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %d", dynamo.ErrParameterBounds, c.Sim.FPS)
	case c.Sim.RelTol <= 0 && c.Sim.AbsTol <= 0:
		return fmt.Errorf("%w: at least one of rel_tol/abs_tol must be positive", dynamo.ErrParameterBounds)
	case c.Swing.Count < 1:
		return fmt.Errorf("%w: swing count must be at least 1, got %d", dynamo.ErrParameterBounds, c.Swing.Count)
	}
	return nil
}

func (c *Config) Pendulum() *physics.ElasticPendulum {
	return &physics.ElasticPendulum{
		RestLength: c.Physics.RestLength,
		Stiffness:  c.Physics.Stiffness,
		Mass:       c.Physics.Mass,
		Gravity:    c.Physics.Gravity,
	}
}

func (c *Config) GetInitState() dynamo.State {
	s := c.InitState
	return physics.InitialState(s.Theta, s.Omega, s.Length, s.LengthRate)
}

// SimConfig is the simulator configuration over [0, t_max].
func (c *Config) SimConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = c.Sim.Dt
	cfg.Duration = c.Sim.TMax
	cfg.RelTol = c.Sim.RelTol
	cfg.AbsTol = c.Sim.AbsTol
	return cfg
}
