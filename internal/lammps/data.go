package lammps

import (
	"fmt"
	"io"
	"math"

	"github.com/lmoser/shellfit/internal/potential"
	"github.com/lmoser/shellfit/internal/structure"
)

// WriteData writes cell as a LAMMPS data file (atom_style full) for
// the model's type map. Shell sites start on top of their cores; the
// deck relaxes them before measuring anything. The cell must be
// expressible as a LAMMPS triclinic box, i.e. the first lattice
// vector along x and the second in the xy plane.
func WriteData(w io.Writer, cell *structure.Cell, m *potential.Model, tm *TypeMap) error {
	box, err := boxFromLattice(cell.Lattice)
	if err != nil {
		return err
	}

	nShell := 0
	for _, at := range cell.Atoms {
		sp, ok := m.SpeciesByName(at.Species)
		if !ok {
			return fmt.Errorf("structure %s has species %s not in the model", cell.Name, at.Species)
		}
		if sp.Shell {
			nShell++
		}
	}
	nAtoms := len(cell.Atoms) + nShell

	fmt.Fprintf(w, "# %s\n\n", cell.Name)
	fmt.Fprintf(w, "%d atoms\n", nAtoms)
	fmt.Fprintf(w, "%d bonds\n", nShell)
	fmt.Fprintf(w, "%d atom types\n", tm.NumTypes())
	if tm.NumBondTypes() > 0 {
		fmt.Fprintf(w, "%d bond types\n", tm.NumBondTypes())
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "0.0 %.10f xlo xhi\n", box.lx)
	fmt.Fprintf(w, "0.0 %.10f ylo yhi\n", box.ly)
	fmt.Fprintf(w, "0.0 %.10f zlo zhi\n", box.lz)
	if box.triclinic() {
		fmt.Fprintf(w, "%.10f %.10f %.10f xy xz yz\n", box.xy, box.xz, box.yz)
	}

	fmt.Fprintf(w, "\nMasses\n\n")
	for _, sp := range m.Species {
		if sp.Shell {
			fmt.Fprintf(w, "%d %.6f # %s core\n", tm.Core(sp.Name), sp.Mass*(1-shellMassFraction), sp.Name)
		} else {
			fmt.Fprintf(w, "%d %.6f # %s\n", tm.Core(sp.Name), sp.Mass, sp.Name)
		}
	}
	for _, sp := range m.Species {
		if t, ok := tm.Shell(sp.Name); ok {
			fmt.Fprintf(w, "%d %.6f # %s shell\n", t, sp.Mass*shellMassFraction, sp.Name)
		}
	}

	fmt.Fprintf(w, "\nAtoms # full\n\n")
	type bond struct {
		core, shell int
		species     string
	}
	id := 0
	bonds := make([]bond, 0, nShell)
	for i, at := range cell.Atoms {
		sp, _ := m.SpeciesByName(at.Species)
		pos := cell.Cartesian(i)
		mol := i + 1

		id++
		coreID := id
		fmt.Fprintf(w, "%d %d %d %.6f %.10f %.10f %.10f\n",
			coreID, mol, tm.Core(at.Species), sp.CoreChargeValue(), pos[0], pos[1], pos[2])

		if t, ok := tm.Shell(at.Species); ok {
			id++
			fmt.Fprintf(w, "%d %d %d %.6f %.10f %.10f %.10f\n",
				id, mol, t, sp.ShellCharge, pos[0], pos[1], pos[2])
			bonds = append(bonds, bond{core: coreID, shell: id, species: at.Species})
		}
	}

	if nShell > 0 {
		fmt.Fprintf(w, "\nBonds\n\n")
		for i, b := range bonds {
			bt, _ := tm.Bond(b.species)
			fmt.Fprintf(w, "%d %d %d %d\n", i+1, bt, b.core, b.shell)
		}
	}
	return nil
}

type box struct {
	lx, ly, lz float64
	xy, xz, yz float64
}

func (b box) triclinic() bool {
	return b.xy != 0 || b.xz != 0 || b.yz != 0
}

// boxFromLattice converts a general lattice to the LAMMPS restricted
// triclinic form. The lattice must already satisfy a along +x and b in
// the xy plane with positive components on the diagonal; structures
// from POSCAR files usually do after niggli-style preparation, and
// anything else is reported rather than silently rotated.
func boxFromLattice(l [3][3]float64) (box, error) {
	const eps = 1e-8
	if math.Abs(l[0][1]) > eps || math.Abs(l[0][2]) > eps || math.Abs(l[1][2]) > eps {
		return box{}, fmt.Errorf("lattice is not in LAMMPS orientation (a along x, b in xy plane)")
	}
	b := box{
		lx: l[0][0],
		ly: l[1][1],
		lz: l[2][2],
		xy: l[1][0],
		xz: l[2][0],
		yz: l[2][1],
	}
	if b.lx <= 0 || b.ly <= 0 || b.lz <= 0 {
		return box{}, fmt.Errorf("lattice has non-positive box lengths")
	}
	return b, nil
}
