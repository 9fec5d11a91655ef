package structure

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ReadPOSCAR parses a VASP 5 POSCAR/CONTCAR file.
func ReadPOSCAR(path string) (*Cell, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cell, err := ParsePOSCAR(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cell, nil
}

// ParsePOSCAR parses POSCAR content from r.
func ParsePOSCAR(r io.Reader) (*Cell, error) {
	scanner := bufio.NewScanner(r)
	next := func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return scanner.Text(), nil
	}

	title, err := next()
	if err != nil {
		return nil, fmt.Errorf("reading title: %w", err)
	}
	cell := &Cell{Name: strings.TrimSpace(title)}

	line, err := next()
	if err != nil {
		return nil, fmt.Errorf("reading scale: %w", err)
	}
	scale, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return nil, fmt.Errorf("bad scale factor %q", line)
	}

	for i := 0; i < 3; i++ {
		line, err = next()
		if err != nil {
			return nil, fmt.Errorf("reading lattice row %d: %w", i+1, err)
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("lattice row %d has %d fields", i+1, len(fields))
		}
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, fmt.Errorf("lattice row %d: %w", i+1, err)
			}
			cell.Lattice[i][k] = v
		}
	}

	// A negative scale factor is the target cell volume.
	if scale < 0 {
		vol := cell.Volume()
		scale = math.Cbrt(-scale / vol)
	}
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			cell.Lattice[i][k] *= scale
		}
	}

	line, err = next()
	if err != nil {
		return nil, fmt.Errorf("reading species line: %w", err)
	}
	species := strings.Fields(line)
	if len(species) == 0 {
		return nil, fmt.Errorf("empty species line")
	}
	if _, convErr := strconv.Atoi(species[0]); convErr == nil {
		return nil, fmt.Errorf("VASP 4 POSCAR without species names is not supported")
	}

	line, err = next()
	if err != nil {
		return nil, fmt.Errorf("reading counts line: %w", err)
	}
	countFields := strings.Fields(line)
	if len(countFields) != len(species) {
		return nil, fmt.Errorf("%d species but %d counts", len(species), len(countFields))
	}
	counts := make([]int, len(countFields))
	total := 0
	for i, f := range countFields {
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad atom count %q", f)
		}
		counts[i] = n
		total += n
	}

	line, err = next()
	if err != nil {
		return nil, fmt.Errorf("reading coordinate mode: %w", err)
	}
	// Selective dynamics adds a line before the coordinate mode.
	if len(line) > 0 && (line[0] == 'S' || line[0] == 's') {
		line, err = next()
		if err != nil {
			return nil, fmt.Errorf("reading coordinate mode: %w", err)
		}
	}
	cartesian := len(line) > 0 && (line[0] == 'C' || line[0] == 'c' || line[0] == 'K' || line[0] == 'k')

	var inv [3][3]float64
	if cartesian {
		var ok bool
		inv, ok = invert3(cell.Lattice)
		if !ok {
			return nil, fmt.Errorf("singular lattice")
		}
	}

	for si, sp := range species {
		for j := 0; j < counts[si]; j++ {
			line, err = next()
			if err != nil {
				return nil, fmt.Errorf("reading coordinates for %s: %w", sp, err)
			}
			fields := strings.Fields(line)
			if len(fields) < 3 {
				return nil, fmt.Errorf("coordinate line %q has %d fields", line, len(fields))
			}
			var pos [3]float64
			for k := 0; k < 3; k++ {
				v, err := strconv.ParseFloat(fields[k], 64)
				if err != nil {
					return nil, fmt.Errorf("coordinate line %q: %w", line, err)
				}
				pos[k] = v
			}
			if cartesian {
				for k := 0; k < 3; k++ {
					pos[k] *= scale
				}
				pos = mulVec(inv, pos)
			}
			cell.Atoms = append(cell.Atoms, Atom{Species: sp, Frac: pos})
		}
	}

	if len(cell.Atoms) != total {
		return nil, fmt.Errorf("expected %d atoms, read %d", total, len(cell.Atoms))
	}
	return cell, nil
}

// WritePOSCAR writes c in VASP 5 direct-coordinate format.
func WritePOSCAR(w io.Writer, c *Cell) error {
	name := c.Name
	if name == "" {
		name = "cell"
	}
	if _, err := fmt.Fprintf(w, "%s\n1.0\n", name); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		fmt.Fprintf(w, "  %18.12f %18.12f %18.12f\n",
			c.Lattice[i][0], c.Lattice[i][1], c.Lattice[i][2])
	}
	species := c.Species()
	counts := c.Counts()
	for _, sp := range species {
		fmt.Fprintf(w, " %4s", sp)
	}
	fmt.Fprintln(w)
	for _, sp := range species {
		fmt.Fprintf(w, " %4d", counts[sp])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Direct")
	for _, sp := range species {
		for _, at := range c.Atoms {
			if at.Species != sp {
				continue
			}
			fmt.Fprintf(w, " %18.12f %18.12f %18.12f\n", at.Frac[0], at.Frac[1], at.Frac[2])
		}
	}
	return nil
}

// invert3 inverts a 3x3 matrix with rows as vectors. ok is false when
// the matrix is singular.
func invert3(m [3][3]float64) (inv [3][3]float64, ok bool) {
	a, b, c := m[0], m[1], m[2]
	det := dot(a, cross(b, c))
	if math.Abs(det) < 1e-12 {
		return inv, false
	}
	cols := [3][3]float64{cross(b, c), cross(c, a), cross(a, b)}
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			inv[i][k] = cols[k][i] / det
		}
	}
	return inv, true
}

// mulVec computes v * m for a row vector v (frac = cart * L^-1).
func mulVec(m [3][3]float64, v [3]float64) [3]float64 {
	var out [3]float64
	for k := 0; k < 3; k++ {
		out[k] = v[0]*m[0][k] + v[1]*m[1][k] + v[2]*m[2][k]
	}
	return out
}
