package lammps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lmoser/shellfit/internal/potential"
	"github.com/lmoser/shellfit/internal/structure"
)

// Files the runner writes into and reads out of a scratch directory.
const (
	DeckFileName   = "in.shellfit"
	DataFileName   = "data.shellfit"
	LogFileName    = "log.lammps"
	ForcesFileName = "forces.dump"
)

// Runner executes the external LAMMPS binary in scratch directories.
type Runner struct {
	Exe  string   // path to the lmp executable
	Args []string // extra arguments, e.g. suffix/package flags
}

// NewRunner returns a runner for the given executable.
func NewRunner(exe string) *Runner {
	return &Runner{Exe: exe}
}

// Evaluate writes the data file and deck for cell under model m into
// dir, runs the engine, and parses energy, stress, forces and the
// final cell. relax turns on the zero-stress cell minimization.
func (r *Runner) Evaluate(ctx context.Context, dir string, cell *structure.Cell, m *potential.Model, relax bool) (*Result, error) {
	tm := NewTypeMap(m)

	dataFile, err := os.Create(filepath.Join(dir, DataFileName))
	if err != nil {
		return nil, err
	}
	if err := WriteData(dataFile, cell, m, tm); err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("writing data file for %s: %w", cell.Name, err)
	}
	if err := dataFile.Close(); err != nil {
		return nil, err
	}

	deckFile, err := os.Create(filepath.Join(dir, DeckFileName))
	if err != nil {
		return nil, err
	}
	if err := WriteDeck(deckFile, m, tm, cell.Name, relax); err != nil {
		deckFile.Close()
		return nil, fmt.Errorf("writing deck for %s: %w", cell.Name, err)
	}
	if err := deckFile.Close(); err != nil {
		return nil, err
	}

	args := append([]string{"-in", DeckFileName, "-log", LogFileName, "-screen", "none"}, r.Args...)
	cmd := exec.CommandContext(ctx, r.Exe, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("engine failed on %s: %w%s", cell.Name, err, logTail(dir, &stderr))
	}

	logFile, err := os.Open(filepath.Join(dir, LogFileName))
	if err != nil {
		return nil, err
	}
	defer logFile.Close()
	row, err := ParseLog(logFile)
	if err != nil {
		return nil, fmt.Errorf("parsing log for %s: %w", cell.Name, err)
	}
	res, err := resultFromThermo(row)
	if err != nil {
		return nil, fmt.Errorf("parsing log for %s: %w", cell.Name, err)
	}

	forceFile, err := os.Open(filepath.Join(dir, ForcesFileName))
	if err != nil {
		return nil, err
	}
	defer forceFile.Close()
	res.Forces, err = ParseForces(forceFile)
	if err != nil {
		return nil, fmt.Errorf("parsing forces for %s: %w", cell.Name, err)
	}
	return res, nil
}

// logTail pulls the last lines of the run log and stderr into an
// error message so a failed candidate can be diagnosed from the fit
// output alone.
func logTail(dir string, stderr *bytes.Buffer) string {
	const keep = 5
	var parts []string
	if data, err := os.ReadFile(filepath.Join(dir, LogFileName)); err == nil {
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) > keep {
			lines = lines[len(lines)-keep:]
		}
		parts = append(parts, lines...)
	}
	if s := strings.TrimSpace(stderr.String()); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n" + strings.Join(parts, "\n")
}
