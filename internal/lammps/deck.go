package lammps

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/lmoser/shellfit/internal/potential"
)

// Thermo keywords shared by both decks; the parser reads them back by
// name from the log.
var thermoKeywords = []string{
	"step", "pe", "press",
	"pxx", "pyy", "pzz", "pxy", "pxz", "pyz",
	"lx", "ly", "lz", "xy", "xz", "yz", "vol",
}

const deckTemplate = `# {{.Title}}
units metal
dimension 3
boundary p p p
atom_style full

read_data {{.DataFile}}

{{if .HasShells -}}
bond_style harmonic
{{range .BondCoeffs}}bond_coeff {{.Type}} {{printf "%.6f" .K}} 0.0
{{end -}}
special_bonds coul 0.0 1.0 1.0
pair_style buck/coul/long/cs {{printf "%.2f" .Cutoff}}
{{- else -}}
pair_style buck/coul/long {{printf "%.2f" .Cutoff}}
{{- end}}
pair_coeff * * 0.0 1.0 0.0
{{range .PairCoeffs}}pair_coeff {{.I}} {{.J}} {{printf "%.6f" .A}} {{printf "%.6f" .Rho}} {{printf "%.6f" .C}}
{{end -}}
kspace_style ewald 1.0e-6

thermo_style custom {{.Thermo}}
thermo 1

{{if .HasShells -}}
group cores type {{.CoreTypes}}
group shells type {{.ShellTypes}}
fix hold cores setforce 0.0 0.0 0.0
min_style cg
minimize 1.0e-10 1.0e-12 2000 20000
unfix hold
{{end -}}
{{if .Relax -}}
fix cell all box/relax aniso 0.0 vmax 0.001
min_style cg
minimize 1.0e-10 1.0e-12 10000 100000
unfix cell
{{end -}}
run 0
write_dump all custom {{.ForcesFile}} id mol fx fy fz modify sort id
`

var deckTmpl = template.Must(template.New("deck").Parse(deckTemplate))

type bondCoeff struct {
	Type int
	K    float64
}

type pairCoeff struct {
	I, J      int
	A, Rho, C float64
}

type deckData struct {
	Title      string
	DataFile   string
	ForcesFile string
	Cutoff     float64
	HasShells  bool
	BondCoeffs []bondCoeff
	PairCoeffs []pairCoeff
	CoreTypes  string
	ShellTypes string
	Thermo     string
	Relax      bool
}

// WriteDeck renders the LAMMPS input script for model m. With relax
// set the deck minimizes the cell under zero target stress before the
// final measurement; otherwise it is a static evaluation (shells are
// still relaxed first when the model has any).
func WriteDeck(w io.Writer, m *potential.Model, tm *TypeMap, title string, relax bool) error {
	d := deckData{
		Title:      title,
		DataFile:   DataFileName,
		ForcesFile: ForcesFileName,
		Cutoff:     m.Cutoff,
		HasShells:  tm.NumBondTypes() > 0,
		Thermo:     strings.Join(thermoKeywords, " "),
		Relax:      relax,
	}

	for _, sp := range m.Species {
		if bt, ok := tm.Bond(sp.Name); ok {
			// harmonic bond E = K (r - r0)^2 against the shell-model
			// convention E = k2/2 r^2
			d.BondCoeffs = append(d.BondCoeffs, bondCoeff{Type: bt, K: sp.Spring / 2})
		}
	}

	for _, p := range m.Pairs {
		i, err := tm.Outer(p.SpeciesA)
		if err != nil {
			return err
		}
		j, err := tm.Outer(p.SpeciesB)
		if err != nil {
			return err
		}
		if i > j {
			i, j = j, i
		}
		d.PairCoeffs = append(d.PairCoeffs, pairCoeff{I: i, J: j, A: p.A, Rho: p.Rho, C: p.C})
	}

	var cores, shells []string
	for _, sp := range m.Species {
		cores = append(cores, fmt.Sprintf("%d", tm.Core(sp.Name)))
		if st, ok := tm.Shell(sp.Name); ok {
			shells = append(shells, fmt.Sprintf("%d", st))
		}
	}
	d.CoreTypes = strings.Join(cores, " ")
	d.ShellTypes = strings.Join(shells, " ")

	return deckTmpl.Execute(w, d)
}
