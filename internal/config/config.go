// Package config loads and saves fit job configurations.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lmoser/shellfit/internal/objective"
	"github.com/lmoser/shellfit/internal/potential"
)

const (
	DefaultCutoff      = 10.0
	DefaultSampleSize  = 8
	DefaultGenerations = 100
	DefaultMutation    = 0.7
	DefaultCrossover   = 0.9
	DefaultTol         = 0.01
)

// Config is one fit job.
type Config struct {
	System      string            `yaml:"system"`
	TrainingDir string            `yaml:"training_dir"`
	Engine      string            `yaml:"engine"`
	SampleSize  int               `yaml:"sample_size"`
	Seed        int64             `yaml:"seed"`
	Weights     objective.Weights `yaml:"weights"`
	Optimizer   OptimizerConfig   `yaml:"optimizer"`
	Potential   PotentialConfig   `yaml:"potential"`
}

// OptimizerConfig mirrors optim.DEConfig in YAML form.
type OptimizerConfig struct {
	Population  int     `yaml:"population"`
	Mutation    float64 `yaml:"mutation"`
	Crossover   float64 `yaml:"crossover"`
	Generations int     `yaml:"generations"`
	Tol         float64 `yaml:"tol"`
	Workers     int     `yaml:"workers"` // -1 means all CPUs
}

// PotentialConfig is the YAML shape of a potential.Model.
type PotentialConfig struct {
	Cutoff  float64               `yaml:"cutoff"`
	Species []SpeciesConfig       `yaml:"species"`
	Pairs   []PairConfig          `yaml:"pairs"`
	Free    []potential.ParamSpec `yaml:"free"`
}

type SpeciesConfig struct {
	Name        string  `yaml:"name"`
	Mass        float64 `yaml:"mass"`
	Charge      float64 `yaml:"charge"`
	Shell       bool    `yaml:"shell"`
	ShellCharge float64 `yaml:"shell_charge"`
	Spring      float64 `yaml:"spring"`
}

type PairConfig struct {
	Between string  `yaml:"between"` // "Mg-O"
	A       float64 `yaml:"a"`
	Rho     float64 `yaml:"rho"`
	C       float64 `yaml:"c"`
}

// DefaultConfig returns a job with every tunable at its default.
func DefaultConfig() *Config {
	return &Config{
		Engine:     "lmp",
		SampleSize: DefaultSampleSize,
		Weights:    objective.DefaultWeights(),
		Optimizer: OptimizerConfig{
			Mutation:    DefaultMutation,
			Crossover:   DefaultCrossover,
			Generations: DefaultGenerations,
			Tol:         DefaultTol,
			Workers:     -1,
		},
		Potential: PotentialConfig{Cutoff: DefaultCutoff},
	}
}

// Load reads a YAML job file over the defaults.
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

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Model converts the potential section to the runtime model and
// validates it.
func (c *Config) Model() (*potential.Model, error) {
	m := &potential.Model{Cutoff: c.Potential.Cutoff}
	for _, s := range c.Potential.Species {
		m.Species = append(m.Species, potential.Species{
			Name:        s.Name,
			Mass:        s.Mass,
			Charge:      s.Charge,
			Shell:       s.Shell,
			ShellCharge: s.ShellCharge,
			Spring:      s.Spring,
		})
	}
	for _, p := range c.Potential.Pairs {
		a, b, err := splitPair(p.Between)
		if err != nil {
			return nil, err
		}
		m.Pairs = append(m.Pairs, potential.Pair{
			SpeciesA: a, SpeciesB: b,
			A: p.A, Rho: p.Rho, C: p.C,
		})
	}
	m.Free = append(m.Free, c.Potential.Free...)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// FromModel rewrites the potential section from a (fitted) model.
func (c *Config) FromModel(m *potential.Model) {
	pc := PotentialConfig{Cutoff: m.Cutoff}
	for _, s := range m.Species {
		pc.Species = append(pc.Species, SpeciesConfig{
			Name:        s.Name,
			Mass:        s.Mass,
			Charge:      s.Charge,
			Shell:       s.Shell,
			ShellCharge: s.ShellCharge,
			Spring:      s.Spring,
		})
	}
	for _, p := range m.Pairs {
		pc.Pairs = append(pc.Pairs, PairConfig{
			Between: p.SpeciesA + "-" + p.SpeciesB,
			A:       p.A, Rho: p.Rho, C: p.C,
		})
	}
	pc.Free = append(pc.Free, m.Free...)
	c.Potential = pc
}

// Validate checks the parts of the job the model validation does not
// cover.
func (c *Config) Validate() error {
	if c.System == "" {
		return fmt.Errorf("system name is required")
	}
	if c.TrainingDir == "" {
		return fmt.Errorf("training_dir is required")
	}
	if c.Engine == "" {
		return fmt.Errorf("engine executable is required")
	}
	if c.SampleSize <= 0 {
		return fmt.Errorf("sample_size must be positive")
	}
	if _, err := c.Model(); err != nil {
		return err
	}
	return nil
}

func splitPair(s string) (string, string, error) {
	for i := 1; i < len(s)-1; i++ {
		if s[i] == '-' {
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("bad pair name %q, want \"A-B\"", s)
}
