package lammps

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace owns the scratch directories parallel objective workers
// run the engine in. Directory layout: <base>/worker_00, worker_01, ...
// One worker owns one directory, so concurrent evaluations never
// share files.
type Workspace struct {
	base    string
	workers int
}

// NewWorkspace lays out scratch directories for n workers under base,
// wiping anything a previous fit left behind.
func NewWorkspace(base string, n int) (*Workspace, error) {
	if n < 1 {
		return nil, fmt.Errorf("need at least one worker, got %d", n)
	}
	ws := &Workspace{base: base, workers: n}
	if err := ws.Reset(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Dir returns the scratch directory of worker i.
func (ws *Workspace) Dir(i int) string {
	return filepath.Join(ws.base, fmt.Sprintf("worker_%02d", i))
}

// Workers returns the number of worker directories.
func (ws *Workspace) Workers() int { return ws.workers }

// Reset removes and recreates every worker directory.
func (ws *Workspace) Reset() error {
	if err := os.RemoveAll(ws.base); err != nil {
		return err
	}
	for i := 0; i < ws.workers; i++ {
		if err := os.MkdirAll(ws.Dir(i), 0755); err != nil {
			return err
		}
	}
	return nil
}

// ResetWorker clears a single worker directory, used after a failed
// engine run so stale outputs cannot be picked up by the next
// candidate.
func (ws *Workspace) ResetWorker(i int) error {
	dir := ws.Dir(i)
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// Remove deletes the whole scratch tree.
func (ws *Workspace) Remove() error {
	return os.RemoveAll(ws.base)
}
