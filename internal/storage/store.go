// Package storage keeps the on-disk bookkeeping of fit and evaluation
// runs: one directory per run under the data dir, holding metadata,
// the optimizer history, the fitted model and lattice comparisons.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// File names inside a run directory.
const (
	MetadataFile = "metadata.json"
	HistoryFile  = "history.csv"
	ModelFile    = "best.yaml"
	LatticeFile  = "lattice.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the summary record of a fit run.
type RunMetadata struct {
	ID          string    `json:"id"`
	System      string    `json:"system"`
	Timestamp   time.Time `json:"timestamp"`
	Seed        int64     `json:"seed"`
	TrainingDir string    `json:"training_dir"`
	Engine      string    `json:"engine"`
	SampleSize  int       `json:"sample_size"`
	Entries     []string  `json:"entries"`
	Generations int       `json:"generations"`
	Evals       int       `json:"evals"`
	Converged   bool      `json:"converged"`
	BestCost    float64   `json:"best_cost"`
	Elapsed     float64   `json:"elapsed_seconds"`
}

// Run is an open run directory being written to.
type Run struct {
	ID  string
	dir string
}

// CreateRun makes a fresh run directory named after the system.
func (s *Store) CreateRun(system string) (*Run, error) {
	runID := fmt.Sprintf("%s_%d", system, time.Now().Unix())
	dir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Run{ID: runID, dir: dir}, nil
}

// Dir returns the run directory path.
func (r *Run) Dir() string { return r.dir }

// SaveMetadata writes (or rewrites) the run's metadata record.
func (r *Run) SaveMetadata(meta RunMetadata) error {
	meta.ID = r.ID
	f, err := os.Create(filepath.Join(r.dir, MetadataFile))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// SaveYAML marshals v into the run directory, used for the fitted
// model.
func (r *Run) SaveYAML(name string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.dir, name), data, 0644)
}

// HistoryWriter appends optimizer progress rows as they happen, so a
// killed fit still leaves its history on disk.
type HistoryWriter struct {
	f *os.File
	w *csv.Writer
}

// History opens history.csv with one column per free parameter.
func (r *Run) History(paramNames []string) (*HistoryWriter, error) {
	f, err := os.Create(filepath.Join(r.dir, HistoryFile))
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	header := append([]string{"generation", "best_cost"}, paramNames...)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()
	return &HistoryWriter{f: f, w: w}, nil
}

// Append writes one generation row and flushes it.
func (h *HistoryWriter) Append(generation int, bestCost float64, params []float64) error {
	// shortest lossless form, the history must round-trip exactly
	row := make([]string, 0, len(params)+2)
	row = append(row, strconv.Itoa(generation))
	row = append(row, strconv.FormatFloat(bestCost, 'g', -1, 64))
	for _, p := range params {
		row = append(row, strconv.FormatFloat(p, 'g', -1, 64))
	}
	if err := h.w.Write(row); err != nil {
		return err
	}
	h.w.Flush()
	return h.w.Error()
}

// Close flushes and closes the underlying file.
func (h *HistoryWriter) Close() error {
	h.w.Flush()
	if err := h.w.Error(); err != nil {
		h.f.Close()
		return err
	}
	return h.f.Close()
}

// List returns the metadata of every run under the data dir, skipping
// directories without a readable record.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

// Load reads the metadata of one run.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, MetadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// RunDir returns the directory of an existing run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// HistoryRecord is one parsed generation row.
type HistoryRecord struct {
	Generation int
	BestCost   float64
	Params     []float64
}

// LoadHistory reads the optimizer history of a run. The returned
// names are the parameter columns of the header.
func (s *Store) LoadHistory(runID string) ([]string, []HistoryRecord, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, HistoryFile))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 1 {
		return nil, nil, fmt.Errorf("empty history for run %s", runID)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("malformed history header for run %s", runID)
	}
	names := header[2:]

	out := make([]HistoryRecord, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			continue
		}
		gen, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		cost, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		params := make([]float64, 0, len(rec)-2)
		for _, v := range rec[2:] {
			p, err := strconv.ParseFloat(v, 64)
			if err != nil {
				break
			}
			params = append(params, p)
		}
		out = append(out, HistoryRecord{Generation: gen, BestCost: cost, Params: params})
	}
	return names, out, nil
}
