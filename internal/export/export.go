// Package export writes run results to files other tools can read:
// JSON records, CSV tables and PNG plots.
package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"

	"github.com/lmoser/shellfit/internal/relax"
	"github.com/lmoser/shellfit/internal/storage"
)

// RunData is the full export record of one fit run.
type RunData struct {
	Meta        storage.RunMetadata `json:"meta"`
	ParamNames  []string            `json:"param_names"`
	Generations []GenerationData    `json:"generations"`
	Lattice     []LatticeData       `json:"lattice,omitempty"`
}

type GenerationData struct {
	Generation int       `json:"generation"`
	BestCost   float64   `json:"best_cost"`
	Params     []float64 `json:"params"`
}

type LatticeData struct {
	Name   string  `json:"name"`
	FitA   float64 `json:"fit_a"`
	FitB   float64 `json:"fit_b"`
	FitC   float64 `json:"fit_c"`
	RefA   float64 `json:"ref_a"`
	RefB   float64 `json:"ref_b"`
	RefC   float64 `json:"ref_c"`
	FitVol float64 `json:"fit_vol"`
	RefVol float64 `json:"ref_vol"`
	PctA   float64 `json:"pct_a"`
	PctVol float64 `json:"pct_vol"`
}

func buildRunData(meta *storage.RunMetadata, names []string, hist []storage.HistoryRecord, comps []relax.Comparison) RunData {
	data := RunData{
		Meta:        *meta,
		ParamNames:  names,
		Generations: make([]GenerationData, len(hist)),
	}
	for i, h := range hist {
		data.Generations[i] = GenerationData{
			Generation: h.Generation,
			BestCost:   h.BestCost,
			Params:     h.Params,
		}
	}
	for _, c := range comps {
		da, _, _, dv := c.PctDiff()
		data.Lattice = append(data.Lattice, LatticeData{
			Name: c.Name,
			FitA: c.Fit.A, FitB: c.Fit.B, FitC: c.Fit.C,
			RefA: c.Ref.A, RefB: c.Ref.B, RefC: c.Ref.C,
			FitVol: c.FitVol, RefVol: c.RefVol,
			PctA: da, PctVol: dv,
		})
	}
	return data
}

// JSON writes the run record to path. comps may be nil when the run
// has no lattice evaluation.
func JSON(path string, meta *storage.RunMetadata, names []string, hist []storage.HistoryRecord, comps []relax.Comparison) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildRunData(meta, names, hist, comps))
}

// JSONStdout writes the run record to standard output.
func JSONStdout(meta *storage.RunMetadata, names []string, hist []storage.HistoryRecord, comps []relax.Comparison) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildRunData(meta, names, hist, comps))
}

// CSV writes the optimizer history to path, one row per generation.
func CSV(path string, names []string, hist []storage.HistoryRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := append([]string{"generation", "best_cost"}, names...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, h := range hist {
		row := make([]string, 0, len(h.Params)+2)
		row = append(row, strconv.Itoa(h.Generation))
		row = append(row, strconv.FormatFloat(h.BestCost, 'g', -1, 64))
		for _, p := range h.Params {
			row = append(row, strconv.FormatFloat(p, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
