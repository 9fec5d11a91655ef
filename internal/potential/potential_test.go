package potential

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mgoModel() *Model {
	return &Model{
		Cutoff: 10.0,
		Species: []Species{
			{Name: "Mg", Mass: 24.305, Charge: 2.0},
			{Name: "O", Mass: 15.999, Charge: -2.0, Shell: true, ShellCharge: -2.8, Spring: 74.92},
		},
		Pairs: []Pair{
			{SpeciesA: "Mg", SpeciesB: "O", A: 821.6, Rho: 0.3242, C: 0.0},
			{SpeciesA: "O", SpeciesB: "O", A: 22764.0, Rho: 0.149, C: 27.88},
		},
		Free: []ParamSpec{
			{Name: "pair/Mg-O/a", Min: 100, Max: 5000},
			{Name: "pair/Mg-O/rho", Min: 0.1, Max: 0.6},
			{Name: "pair/O-O/c", Min: 0, Max: 100},
			{Name: "species/O/spring", Min: 10, Max: 200},
		},
	}
}

func TestVectorApplyRoundTrip(t *testing.T) {
	m := mgoModel()
	x, err := m.Vector()
	require.NoError(t, err)
	require.Len(t, x, 4)
	assert.Equal(t, []float64{821.6, 0.3242, 27.88, 74.92}, x)

	require.NoError(t, m.Apply(x))
	again, err := m.Vector()
	require.NoError(t, err)
	assert.Equal(t, x, again)
}

func TestApplyClampsToBounds(t *testing.T) {
	m := mgoModel()
	require.NoError(t, m.Apply([]float64{1e6, 0.0, -5, 150}))

	x, err := m.Vector()
	require.NoError(t, err)
	assert.Equal(t, 5000.0, x[0])
	assert.Equal(t, 0.1, x[1])
	assert.Equal(t, 0.0, x[2])
	assert.Equal(t, 150.0, x[3])
}

func TestApplyDimensionMismatch(t *testing.T) {
	m := mgoModel()
	assert.Error(t, m.Apply([]float64{1, 2}))
}

func TestPairOrderInsensitive(t *testing.T) {
	m := mgoModel()
	m.Free = []ParamSpec{{Name: "pair/O-Mg/rho", Min: 0.1, Max: 0.6}}
	x, err := m.Vector()
	require.NoError(t, err)
	assert.InDelta(t, 0.3242, x[0], 1e-12)
}

func TestShellChargeSplit(t *testing.T) {
	m := mgoModel()
	o, ok := m.SpeciesByName("O")
	require.True(t, ok)
	// core + shell must reproduce the formal charge
	assert.InDelta(t, o.Charge, o.CoreChargeValue()+o.ShellCharge, 1e-12)
	assert.InDelta(t, 0.8, o.CoreChargeValue(), 1e-12)

	mg, ok := m.SpeciesByName("Mg")
	require.True(t, ok)
	assert.InDelta(t, 2.0, mg.CoreChargeValue(), 1e-12)
}

func TestBuckinghamEnergy(t *testing.T) {
	p := Pair{A: 1000, Rho: 0.3, C: 10}
	r := 2.0
	want := 1000*math.Exp(-r/0.3) - 10/math.Pow(r, 6)
	assert.InDelta(t, want, p.Energy(r), 1e-12)
}

func TestValidate(t *testing.T) {
	require.NoError(t, mgoModel().Validate())

	tests := []struct {
		name   string
		mutate func(*Model)
	}{
		{"zero cutoff", func(m *Model) { m.Cutoff = 0 }},
		{"duplicate species", func(m *Model) { m.Species = append(m.Species, m.Species[0]) }},
		{"zero mass", func(m *Model) { m.Species[0].Mass = 0 }},
		{"zero spring", func(m *Model) { m.Species[1].Spring = 0 }},
		{"negative rho", func(m *Model) { m.Pairs[0].Rho = -1 }},
		{"negative A", func(m *Model) { m.Pairs[0].A = -1 }},
		{"unknown pair species", func(m *Model) { m.Pairs[0].SpeciesA = "Xx" }},
		{"inverted bounds", func(m *Model) { m.Free[0].Min = 1e9 }},
		{"bad address", func(m *Model) { m.Free[0].Name = "pair/Mg-O/zeta" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mgoModel()
			tt.mutate(m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := mgoModel()
	c := m.Clone()
	require.NoError(t, c.Apply([]float64{200, 0.2, 1, 20}))

	x, err := m.Vector()
	require.NoError(t, err)
	assert.Equal(t, 821.6, x[0], "mutating the clone must not touch the original")
}
