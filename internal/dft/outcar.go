package dft

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parser errors, matched with errors.Is by callers that want to skip
// incomplete reference data.
var (
	ErrNoEnergy = errors.New("no final energy in OUTCAR")
	ErrNoForces = errors.New("no force block in OUTCAR")
	ErrNoStress = errors.New("no stress line in OUTCAR")
)

// kB (kilobar) to bar; VASP prints stress as "in kB" with opposite
// sign to the LAMMPS pressure convention.
const kbarToBar = 1000.0

// Reference holds the first-principles quantities a training entry
// contributes to the fit: total energy in eV, per-atom forces in
// eV/Angstrom and the stress tensor in bar, ordered xx yy zz xy xz yz
// with the LAMMPS pressure sign convention. Steps counts the ionic
// steps found; energy, forces and stress are the last step's.
type Reference struct {
	Energy float64
	Forces [][3]float64
	Stress [6]float64
	Steps  int
}

// ParseOUTCAR extracts the last ionic step's energy, forces and
// stress from a VASP OUTCAR.
func ParseOUTCAR(r io.Reader) (*Reference, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	ref := &Reference{}
	var haveEnergy, haveForces, haveStress bool

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "free  energy   TOTEN"):
			// free  energy   TOTEN  =      -95.21 eV
			fields := strings.Fields(line)
			if len(fields) < 5 {
				return nil, fmt.Errorf("malformed TOTEN line %q", line)
			}
			v, err := strconv.ParseFloat(fields[4], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed TOTEN line %q: %w", line, err)
			}
			ref.Energy = v
			ref.Steps++
			haveEnergy = true

		case strings.Contains(line, "TOTAL-FORCE (eV/Angst)"):
			forces, err := parseForceBlock(scanner)
			if err != nil {
				return nil, err
			}
			ref.Forces = forces
			haveForces = true

		case strings.Contains(line, "in kB"):
			stress, err := parseStressLine(line)
			if err != nil {
				return nil, err
			}
			ref.Stress = stress
			haveStress = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	switch {
	case !haveEnergy:
		return nil, ErrNoEnergy
	case !haveForces:
		return nil, ErrNoForces
	case !haveStress:
		return nil, ErrNoStress
	}
	return ref, nil
}

// ParseOUTCARFile parses the OUTCAR at path.
func ParseOUTCARFile(path string) (*Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ref, err := ParseOUTCAR(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ref, nil
}

// parseForceBlock reads the dashed-line-delimited force table that
// follows a TOTAL-FORCE header. Columns are x y z fx fy fz.
func parseForceBlock(scanner *bufio.Scanner) ([][3]float64, error) {
	if !scanner.Scan() { // dashed separator
		return nil, ErrNoForces
	}
	var forces [][3]float64
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "----") {
			return forces, nil
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return nil, fmt.Errorf("malformed force line %q", line)
		}
		var f [3]float64
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[3+k], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed force line %q: %w", line, err)
			}
			f[k] = v
		}
		forces = append(forces, f)
	}
	return nil, ErrNoForces
}

// parseStressLine converts a "in kB  XX YY ZZ XY YZ ZX" line to bar
// with the sign flipped to the engine's pressure convention, reordered
// to xx yy zz xy xz yz.
func parseStressLine(line string) ([6]float64, error) {
	var stress [6]float64
	fields := strings.Fields(line)
	// "in kB" splits into two fields; six components follow.
	if len(fields) < 8 {
		return stress, fmt.Errorf("malformed stress line %q", line)
	}
	vals := fields[len(fields)-6:]
	// VASP prints XX YY ZZ XY YZ ZX
	order := []int{0, 1, 2, 3, 5, 4}
	for i, f := range vals {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return stress, fmt.Errorf("malformed stress line %q: %w", line, err)
		}
		stress[order[i]] = -v * kbarToBar
	}
	return stress, nil
}
