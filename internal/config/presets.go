package config

import (
	"sort"

	"github.com/lmoser/shellfit/internal/potential"
)

// Presets are starting models for common oxide systems. The pair
// parameters are literature rigid-ion/shell values; the bounds span
// the range a fit is normally allowed to wander.
var Presets = map[string]*Config{
	"mgo": {
		System: "mgo",
		Potential: PotentialConfig{
			Cutoff: 10.0,
			Species: []SpeciesConfig{
				{Name: "Mg", Mass: 24.305, Charge: 2.0},
				{Name: "O", Mass: 15.999, Charge: -2.0, Shell: true, ShellCharge: -2.8, Spring: 74.92},
			},
			Pairs: []PairConfig{
				{Between: "Mg-O", A: 821.6, Rho: 0.3242, C: 0.0},
				{Between: "O-O", A: 22764.0, Rho: 0.149, C: 27.88},
			},
			Free: []potential.ParamSpec{
				{Name: "pair/Mg-O/a", Min: 400, Max: 2000},
				{Name: "pair/Mg-O/rho", Min: 0.2, Max: 0.45},
				{Name: "pair/O-O/c", Min: 0, Max: 80},
				{Name: "species/O/spring", Min: 20, Max: 150},
			},
		},
	},
	"srtio3": {
		System: "srtio3",
		Potential: PotentialConfig{
			Cutoff: 10.0,
			Species: []SpeciesConfig{
				{Name: "Sr", Mass: 87.62, Charge: 2.0},
				{Name: "Ti", Mass: 47.867, Charge: 4.0},
				{Name: "O", Mass: 15.999, Charge: -2.0, Shell: true, ShellCharge: -2.389, Spring: 18.41},
			},
			Pairs: []PairConfig{
				{Between: "Sr-O", A: 1952.39, Rho: 0.33685, C: 0.0},
				{Between: "Ti-O", A: 4590.7226, Rho: 0.261, C: 0.0},
				{Between: "O-O", A: 1388.77, Rho: 0.36262, C: 2.76},
			},
			Free: []potential.ParamSpec{
				{Name: "pair/Sr-O/a", Min: 800, Max: 4000},
				{Name: "pair/Sr-O/rho", Min: 0.25, Max: 0.45},
				{Name: "pair/Ti-O/a", Min: 2000, Max: 9000},
				{Name: "pair/Ti-O/rho", Min: 0.18, Max: 0.35},
				{Name: "pair/O-O/c", Min: 0, Max: 40},
				{Name: "species/O/spring", Min: 5, Max: 100},
			},
		},
	},
	"nacl": {
		System: "nacl",
		Potential: PotentialConfig{
			Cutoff: 10.0,
			Species: []SpeciesConfig{
				{Name: "Na", Mass: 22.99, Charge: 1.0},
				{Name: "Cl", Mass: 35.453, Charge: -1.0, Shell: true, ShellCharge: -1.85, Spring: 29.38},
			},
			Pairs: []PairConfig{
				{Between: "Na-Cl", A: 1256.31, Rho: 0.3231, C: 0.0},
				{Between: "Cl-Cl", A: 2525.45, Rho: 0.3276, C: 32.4},
			},
			Free: []potential.ParamSpec{
				{Name: "pair/Na-Cl/a", Min: 500, Max: 3000},
				{Name: "pair/Na-Cl/rho", Min: 0.25, Max: 0.4},
				{Name: "pair/Cl-Cl/c", Min: 0, Max: 80},
				{Name: "species/Cl/spring", Min: 10, Max: 100},
			},
		},
	},
}

// GetPreset returns a copy of the named preset merged over the
// defaults, or nil when it does not exist.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.System = p.System
	cfg.Potential = p.Potential
	return cfg
}

// ListPresets returns the preset names sorted.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
