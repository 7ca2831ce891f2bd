package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davner/daesim/internal/stepper"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultTol      = 1e-6
	DefaultTheta    = 0.5
	DefaultMu       = 4.0
	DefaultX0       = 0.2
	DefaultTau      = 0.7
	DefaultOmega    = 6.2832
	DefaultZeta     = 0.05
)

type Config struct {
	Scenario   string         `yaml:"scenario"`
	Dt         float64        `yaml:"dt"`
	Duration   float64        `yaml:"duration"`
	Tolerance  float64        `yaml:"tolerance"`
	Adaptive   bool           `yaml:"adaptive"`
	MinDt      float64        `yaml:"min_dt"`
	MaxDt      float64        `yaml:"max_dt"`
	MaxRetries int            `yaml:"max_retries"`
	Params     ScenarioParams `yaml:"params"`
}

type ScenarioParams struct {
	Theta    float64 `yaml:"theta"`
	Mu       float64 `yaml:"mu"`
	X0       float64 `yaml:"x0"`
	Tau      float64 `yaml:"tau"`
	R        float64 `yaml:"r"`
	C        float64 `yaml:"c"`
	PIn      float64 `yaml:"p_in"`
	Sections int     `yaml:"sections"`
	Omega    float64 `yaml:"omega"`
	Zeta     float64 `yaml:"zeta"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:   "tanks",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Tolerance:  DefaultTol,
		Adaptive:   true,
		MinDt:      1e-10,
		MaxDt:      1.0,
		MaxRetries: 12,
		Params: ScenarioParams{
			Theta:    DefaultTheta,
			Mu:       DefaultMu,
			X0:       DefaultX0,
			Tau:      DefaultTau,
			R:        2.0,
			C:        3.0,
			PIn:      5.0,
			Sections: 4,
			Omega:    DefaultOmega,
			Zeta:     DefaultZeta,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

// StepperConfig maps the run parameters onto the stepper.
func (c *Config) StepperConfig() stepper.Config {
	cfg := stepper.DefaultConfig()
	cfg.End = c.Duration
	cfg.InitialStep = c.Dt
	cfg.Tol = c.Tolerance
	cfg.Adaptive = c.Adaptive
	if c.MinDt > 0 {
		cfg.MinStep = c.MinDt
	}
	if c.MaxDt > 0 {
		cfg.MaxStep = c.MaxDt
	}
	if c.MaxRetries > 0 {
		cfg.MaxRetries = c.MaxRetries
	}
	return cfg
}
