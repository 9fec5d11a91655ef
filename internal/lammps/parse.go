package lammps

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Result is one engine measurement: potential energy in eV, stress in
// bar (xx yy zz xy xz yz), per-atom forces in eV/Angstrom (core and
// shell contributions summed per physical atom) and the final cell.
type Result struct {
	Energy float64
	Stress [6]float64
	Forces [][3]float64
	Box    Box
	Volume float64
}

// Box is the final LAMMPS cell, restricted triclinic.
type Box struct {
	Lx, Ly, Lz float64
	Xy, Xz, Yz float64
}

// Lattice converts the box back to lattice vectors.
func (b Box) Lattice() [3][3]float64 {
	return [3][3]float64{
		{b.Lx, 0, 0},
		{b.Xy, b.Ly, 0},
		{b.Xz, b.Yz, b.Lz},
	}
}

// thermo column names LAMMPS prints for the custom keywords we ask
// for; keys are lowercase.
var thermoHeaders = map[string]string{
	"step": "step", "poteng": "pe", "press": "press",
	"pxx": "pxx", "pyy": "pyy", "pzz": "pzz",
	"pxy": "pxy", "pxz": "pxz", "pyz": "pyz",
	"lx": "lx", "ly": "ly", "lz": "lz",
	"xy": "xy", "xz": "xz", "yz": "yz",
	"volume": "vol",
}

// ParseLog extracts the last thermo row of the last run from a LAMMPS
// log. Values are keyed by the thermo_style custom keyword.
func ParseLog(r io.Reader) (map[string]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var cols []string
	var last map[string]float64
	inTable := false

	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			inTable = false
			continue
		}
		if fields[0] == "Step" {
			cols = cols[:0]
			for _, f := range fields {
				key, ok := thermoHeaders[strings.ToLower(f)]
				if !ok {
					key = strings.ToLower(f)
				}
				cols = append(cols, key)
			}
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if len(fields) != len(cols) {
			inTable = false
			continue
		}
		row := make(map[string]float64, len(cols))
		numeric := true
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				numeric = false
				break
			}
			row[cols[i]] = v
		}
		if !numeric {
			inTable = false
			continue
		}
		last = row
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if last == nil {
		return nil, fmt.Errorf("no thermo output in log")
	}
	return last, nil
}

// resultFromThermo assembles a Result from the final thermo row,
// checking every keyword we rely on is present.
func resultFromThermo(row map[string]float64) (*Result, error) {
	need := []string{"pe", "pxx", "pyy", "pzz", "pxy", "pxz", "pyz", "lx", "ly", "lz", "xy", "xz", "yz", "vol"}
	for _, k := range need {
		if _, ok := row[k]; !ok {
			return nil, fmt.Errorf("thermo keyword %q missing from log", k)
		}
	}
	return &Result{
		Energy: row["pe"],
		Stress: [6]float64{row["pxx"], row["pyy"], row["pzz"], row["pxy"], row["pxz"], row["pyz"]},
		Box: Box{
			Lx: row["lx"], Ly: row["ly"], Lz: row["lz"],
			Xy: row["xy"], Xz: row["xz"], Yz: row["yz"],
		},
		Volume: row["vol"],
	}, nil
}

// ParseForces reads a "write_dump all custom ... id mol fx fy fz"
// dump and sums forces per molecule, i.e. per physical atom with the
// shell contribution folded into its core.
func ParseForces(r io.Reader) ([][3]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	byMol := make(map[int][3]float64)
	inAtoms := false
	var molCol, fxCol int

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ITEM: ATOMS") {
			cols := strings.Fields(strings.TrimPrefix(line, "ITEM: ATOMS"))
			molCol, fxCol = -1, -1
			for i, c := range cols {
				switch c {
				case "mol":
					molCol = i
				case "fx":
					fxCol = i
				}
			}
			if molCol < 0 || fxCol < 0 {
				return nil, fmt.Errorf("dump misses mol/fx columns: %q", line)
			}
			inAtoms = true
			continue
		}
		if strings.HasPrefix(line, "ITEM:") {
			inAtoms = false
			continue
		}
		if !inAtoms {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) <= fxCol+2 {
			return nil, fmt.Errorf("malformed dump line %q", line)
		}
		mol, err := strconv.Atoi(fields[molCol])
		if err != nil {
			return nil, fmt.Errorf("malformed dump line %q: %w", line, err)
		}
		var f [3]float64
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[fxCol+k], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed dump line %q: %w", line, err)
			}
			f[k] = v
		}
		acc := byMol[mol]
		for k := 0; k < 3; k++ {
			acc[k] += f[k]
		}
		byMol[mol] = acc
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(byMol) == 0 {
		return nil, fmt.Errorf("no atoms in force dump")
	}

	mols := make([]int, 0, len(byMol))
	for m := range byMol {
		mols = append(mols, m)
	}
	sort.Ints(mols)
	out := make([][3]float64, len(mols))
	for i, m := range mols {
		out[i] = byMol[m]
	}
	return out, nil
}
