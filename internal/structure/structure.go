package structure

import (
	"fmt"
	"math"
)

// Cell is a periodic crystal structure: a 3x3 lattice (rows are the
// lattice vectors, in Angstrom) plus the atoms inside it.
type Cell struct {
	Name    string
	Lattice [3][3]float64
	Atoms   []Atom
}

// Atom is one site in the cell. Frac holds fractional coordinates
// relative to the lattice vectors.
type Atom struct {
	Species string
	Frac    [3]float64
}

// LatticeConstants are the conventional cell parameters derived from
// the lattice vectors.
type LatticeConstants struct {
	A, B, C            float64
	Alpha, Beta, Gamma float64 // degrees
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Constants returns the lattice constants a, b, c and the cell angles
// alpha, beta, gamma in degrees.
func (c *Cell) Constants() LatticeConstants {
	a, b, cc := c.Lattice[0], c.Lattice[1], c.Lattice[2]
	la, lb, lc := norm(a), norm(b), norm(cc)
	deg := 180.0 / math.Pi
	return LatticeConstants{
		A:     la,
		B:     lb,
		C:     lc,
		Alpha: math.Acos(dot(b, cc)/(lb*lc)) * deg,
		Beta:  math.Acos(dot(a, cc)/(la*lc)) * deg,
		Gamma: math.Acos(dot(a, b)/(la*lb)) * deg,
	}
}

// Volume returns the cell volume in Angstrom^3.
func (c *Cell) Volume() float64 {
	return math.Abs(dot(c.Lattice[0], cross(c.Lattice[1], c.Lattice[2])))
}

// Cartesian returns the cartesian position of atom i.
func (c *Cell) Cartesian(i int) [3]float64 {
	f := c.Atoms[i].Frac
	var out [3]float64
	for k := 0; k < 3; k++ {
		out[k] = f[0]*c.Lattice[0][k] + f[1]*c.Lattice[1][k] + f[2]*c.Lattice[2][k]
	}
	return out
}

// Species returns the distinct species in first-appearance order.
func (c *Cell) Species() []string {
	seen := make(map[string]bool)
	var out []string
	for _, at := range c.Atoms {
		if !seen[at.Species] {
			seen[at.Species] = true
			out = append(out, at.Species)
		}
	}
	return out
}

// Counts returns the number of atoms of each species, keyed by name.
func (c *Cell) Counts() map[string]int {
	out := make(map[string]int)
	for _, at := range c.Atoms {
		out[at.Species]++
	}
	return out
}

// Supercell replicates the cell nx x ny x nz times. Classical cutoffs
// need at least twice the cutoff along every lattice vector, so small
// DFT cells are expanded before handing them to the engine.
func (c *Cell) Supercell(nx, ny, nz int) (*Cell, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("supercell factors must be positive, got %dx%dx%d", nx, ny, nz)
	}
	out := &Cell{Name: c.Name}
	n := [3]float64{float64(nx), float64(ny), float64(nz)}
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			out.Lattice[i][k] = c.Lattice[i][k] * n[i]
		}
	}
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			for iz := 0; iz < nz; iz++ {
				for _, at := range c.Atoms {
					out.Atoms = append(out.Atoms, Atom{
						Species: at.Species,
						Frac: [3]float64{
							(at.Frac[0] + float64(ix)) / n[0],
							(at.Frac[1] + float64(iy)) / n[1],
							(at.Frac[2] + float64(iz)) / n[2],
						},
					})
				}
			}
		}
	}
	return out, nil
}

// Widths returns the perpendicular width of the cell along each
// lattice direction.
func (c *Cell) Widths() [3]float64 {
	vol := c.Volume()
	rows := [3][2]int{{1, 2}, {0, 2}, {0, 1}}
	var out [3]float64
	for i, pair := range rows {
		area := norm(cross(c.Lattice[pair[0]], c.Lattice[pair[1]]))
		out[i] = vol / area
	}
	return out
}

// MinImageWidth returns the smallest perpendicular width of the cell,
// the quantity that must exceed twice the pair cutoff.
func (c *Cell) MinImageWidth() float64 {
	min := math.Inf(1)
	for _, w := range c.Widths() {
		if w < min {
			min = w
		}
	}
	return min
}

// ReplicationFor returns per-direction supercell factors making every
// perpendicular width exceed twice the given cutoff.
func (c *Cell) ReplicationFor(cutoff float64) [3]int {
	var n [3]int
	for i, w := range c.Widths() {
		n[i] = int(math.Ceil(2 * cutoff / w))
		if n[i] < 1 {
			n[i] = 1
		}
	}
	return n
}
