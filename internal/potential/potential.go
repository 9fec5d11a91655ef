// Package potential models a Buckingham pair potential with a core-shell
// polarizability treatment: each polarizable species is split into a
// charged core and a massless shell tied together by a harmonic spring.
package potential

import (
	"fmt"
	"math"
)

// Species describes one atomic species in the model. For a shell-model
// species the formal ionic charge Z is split between core and shell
// (CoreCharge + ShellCharge == Z) and Spring is the k2 constant of the
// core-shell bond in eV/Angstrom^2. A rigid-ion species has Shell false
// and carries its full charge on the core.
type Species struct {
	Name        string
	Mass        float64
	Charge      float64 // formal ionic charge
	Shell       bool
	ShellCharge float64
	Spring      float64
}

// CoreChargeValue returns the charge left on the core after the shell
// split.
func (s Species) CoreChargeValue() float64 {
	if !s.Shell {
		return s.Charge
	}
	return s.Charge - s.ShellCharge
}

// Pair is one Buckingham interaction: E(r) = A exp(-r/Rho) - C/r^6.
// Interactions act between shells when both species carry one.
type Pair struct {
	SpeciesA string
	SpeciesB string
	A        float64 // eV
	Rho      float64 // Angstrom
	C        float64 // eV Angstrom^6
}

// Energy evaluates the Buckingham form at separation r.
func (p Pair) Energy(r float64) float64 {
	return p.A*math.Exp(-r/p.Rho) - p.C/math.Pow(r, 6)
}

// ParamSpec is one free parameter of the fit with its search box.
// Name addresses a field as "pair/<A>-<B>/<a|rho|c>" or
// "species/<name>/<spring|shellq>".
type ParamSpec struct {
	Name string  `yaml:"name"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// Model is the full fit target: the species table, the Buckingham
// pairs, the Coulomb cutoff, and which fields the optimizer may move.
type Model struct {
	Species []Species
	Pairs   []Pair
	Cutoff  float64 // pair and Coulomb real-space cutoff, Angstrom
	Free    []ParamSpec
}

// NumFree returns the dimension of the search space.
func (m *Model) NumFree() int { return len(m.Free) }

// Bounds returns the search box, one [min, max] per free parameter in
// spec order.
func (m *Model) Bounds() [][2]float64 {
	out := make([][2]float64, len(m.Free))
	for i, p := range m.Free {
		out[i] = [2]float64{p.Min, p.Max}
	}
	return out
}

// Vector flattens the free parameters into a candidate vector.
func (m *Model) Vector() ([]float64, error) {
	out := make([]float64, len(m.Free))
	for i, spec := range m.Free {
		v, err := m.get(spec.Name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Apply writes a candidate vector back into the model, clamping each
// component to its bounds. Apply(Vector()) leaves the model unchanged.
func (m *Model) Apply(x []float64) error {
	if len(x) != len(m.Free) {
		return fmt.Errorf("candidate has %d components, model has %d free parameters", len(x), len(m.Free))
	}
	for i, spec := range m.Free {
		v := x[i]
		if v < spec.Min {
			v = spec.Min
		}
		if v > spec.Max {
			v = spec.Max
		}
		if err := m.set(spec.Name, v); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy so parallel workers can hold independent
// models.
func (m *Model) Clone() *Model {
	out := &Model{Cutoff: m.Cutoff}
	out.Species = append([]Species(nil), m.Species...)
	out.Pairs = append([]Pair(nil), m.Pairs...)
	out.Free = append([]ParamSpec(nil), m.Free...)
	return out
}

// SpeciesByName returns the species entry for name.
func (m *Model) SpeciesByName(name string) (Species, bool) {
	for _, s := range m.Species {
		if s.Name == name {
			return s, true
		}
	}
	return Species{}, false
}

// Validate checks the physical sanity constraints of the model.
func (m *Model) Validate() error {
	if m.Cutoff <= 0 {
		return fmt.Errorf("cutoff must be positive, got %f", m.Cutoff)
	}
	names := make(map[string]bool)
	for _, s := range m.Species {
		if names[s.Name] {
			return fmt.Errorf("duplicate species %s", s.Name)
		}
		names[s.Name] = true
		if s.Mass <= 0 {
			return fmt.Errorf("species %s: mass must be positive", s.Name)
		}
		if s.Shell && s.Spring <= 0 {
			return fmt.Errorf("species %s: shell spring must be positive", s.Name)
		}
	}
	for _, p := range m.Pairs {
		if !names[p.SpeciesA] || !names[p.SpeciesB] {
			return fmt.Errorf("pair %s-%s references unknown species", p.SpeciesA, p.SpeciesB)
		}
		if p.Rho <= 0 {
			return fmt.Errorf("pair %s-%s: rho must be positive", p.SpeciesA, p.SpeciesB)
		}
		if p.A < 0 {
			return fmt.Errorf("pair %s-%s: A must be non-negative", p.SpeciesA, p.SpeciesB)
		}
		if p.C < 0 {
			return fmt.Errorf("pair %s-%s: C must be non-negative", p.SpeciesA, p.SpeciesB)
		}
	}
	for _, spec := range m.Free {
		if spec.Min > spec.Max {
			return fmt.Errorf("parameter %s: min %f above max %f", spec.Name, spec.Min, spec.Max)
		}
		if _, err := m.get(spec.Name); err != nil {
			return err
		}
	}
	return nil
}
