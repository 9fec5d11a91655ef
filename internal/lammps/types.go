// Package lammps builds input decks for the external LAMMPS engine,
// runs it, and parses what comes back. The engine stays an opaque
// executable that turns a structure plus a parameter set into
// energies, forces and stresses.
package lammps

import (
	"fmt"

	"github.com/lmoser/shellfit/internal/potential"
)

// Shells are nearly massless; the engine still wants a positive mass,
// so each shell borrows this fraction of its parent's mass.
const shellMassFraction = 0.1

// TypeMap assigns LAMMPS numeric atom types: cores in species order
// first, then shells for the shell-model species. Bond types number
// the shell species in order.
type TypeMap struct {
	model      *potential.Model
	coreType   map[string]int
	shellType  map[string]int
	bondType   map[string]int
	totalTypes int
}

// NewTypeMap builds the type assignment for m.
func NewTypeMap(m *potential.Model) *TypeMap {
	tm := &TypeMap{
		model:     m,
		coreType:  make(map[string]int),
		shellType: make(map[string]int),
		bondType:  make(map[string]int),
	}
	n := 0
	for _, s := range m.Species {
		n++
		tm.coreType[s.Name] = n
	}
	b := 0
	for _, s := range m.Species {
		if s.Shell {
			n++
			b++
			tm.shellType[s.Name] = n
			tm.bondType[s.Name] = b
		}
	}
	tm.totalTypes = n
	return tm
}

// Core returns the core atom type for species name.
func (tm *TypeMap) Core(name string) int { return tm.coreType[name] }

// Shell returns the shell atom type and whether the species has one.
func (tm *TypeMap) Shell(name string) (int, bool) {
	t, ok := tm.shellType[name]
	return t, ok
}

// Bond returns the core-shell bond type for a shell species.
func (tm *TypeMap) Bond(name string) (int, bool) {
	t, ok := tm.bondType[name]
	return t, ok
}

// NumTypes returns the total number of atom types.
func (tm *TypeMap) NumTypes() int { return tm.totalTypes }

// NumBondTypes returns the number of core-shell bond types.
func (tm *TypeMap) NumBondTypes() int { return len(tm.bondType) }

// Outer returns the atom type Buckingham interactions act on: the
// shell when the species has one, the core otherwise.
func (tm *TypeMap) Outer(name string) (int, error) {
	if t, ok := tm.shellType[name]; ok {
		return t, nil
	}
	if t, ok := tm.coreType[name]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown species %q", name)
}
