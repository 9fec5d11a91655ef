package structure

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mgoPOSCAR = `MgO rocksalt
1.0
  4.212  0.000  0.000
  0.000  4.212  0.000
  0.000  0.000  4.212
 Mg O
 4 4
Direct
 0.0 0.0 0.0
 0.5 0.5 0.0
 0.5 0.0 0.5
 0.0 0.5 0.5
 0.5 0.0 0.0
 0.0 0.5 0.0
 0.0 0.0 0.5
 0.5 0.5 0.5
`

func TestParsePOSCAR(t *testing.T) {
	cell, err := ParsePOSCAR(strings.NewReader(mgoPOSCAR))
	require.NoError(t, err)

	assert.Equal(t, "MgO rocksalt", cell.Name)
	assert.Len(t, cell.Atoms, 8)
	assert.Equal(t, map[string]int{"Mg": 4, "O": 4}, cell.Counts())
	assert.InDelta(t, 4.212, cell.Lattice[0][0], 1e-12)
}

func TestParsePOSCARScale(t *testing.T) {
	scaled := strings.Replace(mgoPOSCAR, "1.0\n", "2.0\n", 1)
	cell, err := ParsePOSCAR(strings.NewReader(scaled))
	require.NoError(t, err)
	assert.InDelta(t, 8.424, cell.Lattice[0][0], 1e-12)
}

func TestParsePOSCARNegativeScale(t *testing.T) {
	// scale -8 means "scale to volume 8"
	in := `cube
-8.0
 1 0 0
 0 1 0
 0 0 1
 Mg
 1
Direct
 0 0 0
`
	cell, err := ParsePOSCAR(strings.NewReader(in))
	require.NoError(t, err)
	assert.InDelta(t, 8.0, cell.Volume(), 1e-9)
}

func TestParsePOSCARCartesian(t *testing.T) {
	in := `cart
1.0
 4 0 0
 0 4 0
 0 0 4
 Na Cl
 1 1
Cartesian
 0 0 0
 2 2 2
`
	cell, err := ParsePOSCAR(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, cell.Atoms, 2)
	for k := 0; k < 3; k++ {
		assert.InDelta(t, 0.5, cell.Atoms[1].Frac[k], 1e-12)
	}
}

func TestParsePOSCARSelectiveDynamics(t *testing.T) {
	in := `sd
1.0
 4 0 0
 0 4 0
 0 0 4
 Mg
 1
Selective dynamics
Direct
 0.25 0.25 0.25 T T F
`
	cell, err := ParsePOSCAR(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, cell.Atoms, 1)
	assert.InDelta(t, 0.25, cell.Atoms[0].Frac[0], 1e-12)
}

func TestParsePOSCARErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"bad scale", "title\nnope\n"},
		{"truncated lattice", "title\n1.0\n1 0 0\n"},
		{"vasp4 counts", "title\n1.0\n1 0 0\n0 1 0\n0 0 1\n4 4\n"},
		{"count mismatch", "title\n1.0\n1 0 0\n0 1 0\n0 0 1\nMg O\n4\nDirect\n"},
		{"missing atoms", "title\n1.0\n1 0 0\n0 1 0\n0 0 1\nMg\n2\nDirect\n0 0 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePOSCAR(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestWritePOSCARRoundTrip(t *testing.T) {
	cell, err := ParsePOSCAR(strings.NewReader(mgoPOSCAR))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePOSCAR(&buf, cell))

	again, err := ParsePOSCAR(&buf)
	require.NoError(t, err)
	require.Len(t, again.Atoms, len(cell.Atoms))
	for i := range cell.Atoms {
		assert.Equal(t, cell.Atoms[i].Species, again.Atoms[i].Species)
		for k := 0; k < 3; k++ {
			if math.Abs(cell.Atoms[i].Frac[k]-again.Atoms[i].Frac[k]) > 1e-10 {
				t.Fatalf("atom %d coordinate %d mismatch", i, k)
			}
		}
	}
}
