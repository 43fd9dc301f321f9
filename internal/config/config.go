package config

import (
	"fmt"
	"os"

	"github.com/san-kum/orrery/internal/loop"
	"github.com/san-kum/orrery/internal/nbody"
	"gopkg.in/yaml.v3"
)

const (
	PolicySolar  = "solar"
	PolicyRandom = "random"

	TransportStdout    = "stdout"
	TransportWebSocket = "ws"
)

const (
	DefaultPolicy        = PolicySolar
	DefaultTimestep      = loop.DefaultTimestep
	DefaultFPS           = loop.DefaultFPS
	DefaultBodies        = 100
	DefaultMinMass       = 1e22
	DefaultMaxMass       = 1e25
	DefaultMinDistance   = 1e10
	DefaultMaxDistance   = 1e12
	DefaultMaxZ          = 1e10
	DefaultMinRadius     = 1e8
	DefaultMaxRadius     = 5e9
	DefaultCentralMass   = 1e36
	DefaultTransport     = TransportStdout
	DefaultListenAddress = "127.0.0.1:8765"
)

type Config struct {
	Policy   string  `yaml:"policy"`
	Timestep float64 `yaml:"timestep"`
	// FPS is the target frame rate; zero runs unpaced.
	FPS float64 `yaml:"fps"`
	// DistanceUnit scales emitted frames. Zero picks 1 AU for the solar
	// policy and MaxDistance for the random policy.
	DistanceUnit float64         `yaml:"distance_unit"`
	Snapshot     bool            `yaml:"snapshot"`
	Seed         int64           `yaml:"seed"`
	Solar        SolarConfig     `yaml:"solar"`
	Random       RandomConfig    `yaml:"random"`
	Transport    TransportConfig `yaml:"transport"`
}

type SolarConfig struct {
	BaseRadius float64 `yaml:"base_radius"`
}

type RandomConfig struct {
	Bodies        int     `yaml:"bodies"`
	MinMass       float64 `yaml:"min_mass"`
	MaxMass       float64 `yaml:"max_mass"`
	MinDistance   float64 `yaml:"min_distance"`
	MaxDistance   float64 `yaml:"max_distance"`
	MaxZ          float64 `yaml:"max_z"`
	MinRadius     float64 `yaml:"min_radius"`
	MaxRadius     float64 `yaml:"max_radius"`
	CentralMass   float64 `yaml:"central_mass"`
	CentralRadius float64 `yaml:"central_radius"`
}

type TransportConfig struct {
	Kind    string `yaml:"kind"`
	Address string `yaml:"address"`
}

func DefaultConfig() *Config {
	return &Config{
		Policy:   DefaultPolicy,
		Timestep: DefaultTimestep,
		FPS:      DefaultFPS,
		Solar: SolarConfig{
			BaseRadius: nbody.DefaultBaseRadius,
		},
		Random: RandomConfig{
			Bodies:        DefaultBodies,
			MinMass:       DefaultMinMass,
			MaxMass:       DefaultMaxMass,
			MinDistance:   DefaultMinDistance,
			MaxDistance:   DefaultMaxDistance,
			MaxZ:          DefaultMaxZ,
			MinRadius:     DefaultMinRadius,
			MaxRadius:     DefaultMaxRadius,
			CentralMass:   DefaultCentralMass,
			CentralRadius: nbody.DefaultCentralRadius,
		},
		Transport: TransportConfig{
			Kind:    DefaultTransport,
			Address: DefaultListenAddress,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base, so keys missing from the file keep
// base's values. base is modified and returned.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, err
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations that cannot start a run.
func (c *Config) Validate() error {
	if !(c.Timestep > 0) {
		return fmt.Errorf("%w: timestep must be positive, got %g", nbody.ErrInvalidConfig, c.Timestep)
	}
	if c.FPS < 0 {
		return fmt.Errorf("%w: fps must not be negative, got %g", nbody.ErrInvalidConfig, c.FPS)
	}
	if c.DistanceUnit < 0 {
		return fmt.Errorf("%w: distance unit must not be negative, got %g", nbody.ErrInvalidConfig, c.DistanceUnit)
	}
	switch c.Transport.Kind {
	case TransportStdout, TransportWebSocket:
	default:
		return fmt.Errorf("%w: unknown transport %q", nbody.ErrInvalidConfig, c.Transport.Kind)
	}

	policy, err := c.Initializer()
	if err != nil {
		return err
	}
	switch p := policy.(type) {
	case *nbody.RandomCluster:
		return p.Validate()
	case *nbody.SolarSystem:
		if !(p.BaseRadius > 0) {
			return fmt.Errorf("%w: base radius must be positive, got %g", nbody.ErrInvalidConfig, p.BaseRadius)
		}
	}
	return nil
}

// Initializer builds the initialization policy named by Policy.
func (c *Config) Initializer() (nbody.Initializer, error) {
	switch c.Policy {
	case PolicySolar:
		return &nbody.SolarSystem{BaseRadius: c.Solar.BaseRadius}, nil
	case PolicyRandom:
		r := c.Random
		return &nbody.RandomCluster{
			Bodies:        r.Bodies,
			MinMass:       r.MinMass,
			MaxMass:       r.MaxMass,
			MinDistance:   r.MinDistance,
			MaxDistance:   r.MaxDistance,
			MaxZ:          r.MaxZ,
			MinRadius:     r.MinRadius,
			MaxRadius:     r.MaxRadius,
			CentralMass:   r.CentralMass,
			CentralRadius: r.CentralRadius,
			G:             nbody.G,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", nbody.ErrInvalidConfig, c.Policy)
	}
}

// Unit returns the distance unit frames are scaled by.
func (c *Config) Unit() float64 {
	if c.DistanceUnit > 0 {
		return c.DistanceUnit
	}
	if c.Policy == PolicyRandom {
		return c.Random.MaxDistance
	}
	return nbody.AU
}

// Integrator returns the stepper matching the policy.
func (c *Config) Integrator(policy nbody.Initializer) *nbody.Integrator {
	integ := nbody.NewIntegrator(policy.PinCentral())
	integ.Snapshot = c.Snapshot
	return integ
}

// LoopConfig converts the run settings into loop settings.
func (c *Config) LoopConfig(maxTicks int) loop.Config {
	return loop.Config{
		Timestep:    c.Timestep,
		MinInterval: loop.IntervalForFPS(c.FPS),
		MaxTicks:    maxTicks,
	}
}
