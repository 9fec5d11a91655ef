package dft

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lmoser/shellfit/internal/structure"
)

// Entry is one training structure: the DFT cell plus its reference
// energy, forces and stress.
type Entry struct {
	Name string
	Cell *structure.Cell
	Ref  *Reference
}

// LoadTrainingSet walks root and loads every subdirectory holding a
// POSCAR and an OUTCAR. Entries come back sorted by name so a seeded
// sampler sees a stable ordering.
func LoadTrainingSet(root string) ([]Entry, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		dir := filepath.Join(root, d.Name())
		poscar := filepath.Join(dir, "POSCAR")
		outcar := filepath.Join(dir, "OUTCAR")
		if _, err := os.Stat(poscar); err != nil {
			continue
		}

		cell, err := structure.ReadPOSCAR(poscar)
		if err != nil {
			return nil, fmt.Errorf("training entry %s: %w", d.Name(), err)
		}
		cell.Name = d.Name()

		ref, err := ParseOUTCARFile(outcar)
		if err != nil {
			return nil, fmt.Errorf("training entry %s: %w", d.Name(), err)
		}
		if len(ref.Forces) != len(cell.Atoms) {
			return nil, fmt.Errorf("training entry %s: %d atoms but %d forces",
				d.Name(), len(cell.Atoms), len(ref.Forces))
		}

		entries = append(entries, Entry{Name: d.Name(), Cell: cell, Ref: ref})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no training entries under %s", root)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
