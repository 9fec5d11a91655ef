package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine != "lmp" {
		t.Errorf("expected engine lmp, got %s", cfg.Engine)
	}
	if cfg.SampleSize <= 0 {
		t.Error("sample size should be positive")
	}
	if cfg.Optimizer.Workers != -1 {
		t.Errorf("expected workers -1, got %d", cfg.Optimizer.Workers)
	}
	if cfg.Weights.Energy <= 0 || cfg.Weights.Force <= 0 {
		t.Error("default weights should be positive")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("mgo")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.System != "mgo" {
		t.Errorf("expected system mgo, got %s", cfg.System)
	}
	if len(cfg.Potential.Pairs) != 2 {
		t.Errorf("expected 2 pairs, got %d", len(cfg.Potential.Pairs))
	}
	// preset merges over defaults
	if cfg.Optimizer.Generations != DefaultGenerations {
		t.Errorf("expected default generations, got %d", cfg.Optimizer.Generations)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("unobtainium"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) == 0 {
		t.Fatal("expected presets")
	}
	for i := 1; i < len(presets); i++ {
		if presets[i] < presets[i-1] {
			t.Error("presets should be sorted")
		}
	}
}

func TestPresetModels(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			m, err := cfg.Model()
			if err != nil {
				t.Fatalf("preset %s does not build a valid model: %v", name, err)
			}
			x, err := m.Vector()
			if err != nil {
				t.Fatalf("preset %s free parameters unresolvable: %v", name, err)
			}
			// initial values must sit inside the search box
			for i, b := range m.Bounds() {
				if x[i] < b[0] || x[i] > b[1] {
					t.Errorf("preset %s: parameter %s starts outside its bounds", name, m.Free[i].Name)
				}
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := GetPreset("mgo")
	cfg.TrainingDir = "/data/mgo"
	cfg.Seed = 7

	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.System != "mgo" || loaded.Seed != 7 {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if len(loaded.Potential.Free) != len(cfg.Potential.Free) {
		t.Errorf("round trip lost free parameters")
	}
}

func TestModelConversion(t *testing.T) {
	cfg := GetPreset("mgo")
	m, err := cfg.Model()
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Species) != 2 || len(m.Pairs) != 2 {
		t.Fatalf("unexpected model shape: %d species, %d pairs", len(m.Species), len(m.Pairs))
	}
	o, ok := m.SpeciesByName("O")
	if !ok || !o.Shell {
		t.Error("O should be a shell species")
	}

	// round trip back into the config
	var cfg2 Config
	cfg2.FromModel(m)
	m2, err := cfg2.Model()
	if err != nil {
		t.Fatal(err)
	}
	x1, _ := m.Vector()
	x2, _ := m2.Vector()
	for i := range x1 {
		if x1[i] != x2[i] {
			t.Errorf("FromModel/Model round trip changed parameter %d", i)
		}
	}
}

func TestModelBadPair(t *testing.T) {
	cfg := GetPreset("mgo")
	cfg.Potential.Pairs[0].Between = "MgO"
	if _, err := cfg.Model(); err == nil {
		t.Error("expected error for malformed pair name")
	}
}

func TestValidate(t *testing.T) {
	cfg := GetPreset("mgo")
	cfg.TrainingDir = "/data/mgo"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no system", func(c *Config) { c.System = "" }},
		{"no training dir", func(c *Config) { c.TrainingDir = "" }},
		{"no engine", func(c *Config) { c.Engine = "" }},
		{"bad sample size", func(c *Config) { c.SampleSize = 0 }},
		{"bad potential", func(c *Config) { c.Potential.Cutoff = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GetPreset("mgo")
			c.TrainingDir = "/data/mgo"
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
