package relax

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

var csvHeader = []string{
	"structure",
	"a_fit", "b_fit", "c_fit", "vol_fit",
	"a_ref", "b_ref", "c_ref", "vol_ref",
	"a_pct", "b_pct", "c_pct", "vol_pct",
}

// WriteCSV saves the comparison table, one structure per row.
func WriteCSV(path string, comps []Comparison) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, c := range comps {
		pa, pb, pc, pv := c.PctDiff()
		row := []string{
			c.Name,
			ff(c.Fit.A), ff(c.Fit.B), ff(c.Fit.C), ff(c.FitVol),
			ff(c.Ref.A), ff(c.Ref.B), ff(c.Ref.C), ff(c.RefVol),
			ff(pa), ff(pb), ff(pc), ff(pv),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadCSV loads a comparison table written by WriteCSV.
func ReadCSV(path string) ([]Comparison, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 || len(records[0]) != len(csvHeader) {
		return nil, fmt.Errorf("%s is not a lattice comparison file", path)
	}

	out := make([]Comparison, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("%s: malformed row %v", path, rec)
		}
		vals := make([]float64, 8)
		for i := range vals {
			v, err := strconv.ParseFloat(rec[1+i], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: malformed row %v: %w", path, rec, err)
			}
			vals[i] = v
		}
		c := Comparison{Name: rec[0]}
		c.Fit.A, c.Fit.B, c.Fit.C, c.FitVol = vals[0], vals[1], vals[2], vals[3]
		c.Ref.A, c.Ref.B, c.Ref.C, c.RefVol = vals[4], vals[5], vals[6], vals[7]
		out = append(out, c)
	}
	return out, nil
}
