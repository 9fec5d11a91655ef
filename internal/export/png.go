package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lmoser/shellfit/internal/relax"
	"github.com/lmoser/shellfit/internal/storage"
)

// ConvergencePNG plots the best-cost series of a run.
func ConvergencePNG(path, title string, hist []storage.HistoryRecord) error {
	if len(hist) == 0 {
		return fmt.Errorf("no history to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "generation"
	p.Y.Label.Text = "best cost"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(hist))
	for i, h := range hist {
		pts[i].X = float64(h.Generation)
		pts[i].Y = h.BestCost
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// LatticePNG plots relaxed lattice constants against the reference.
// Points on the diagonal are a perfect match.
func LatticePNG(path, title string, comps []relax.Comparison) error {
	if len(comps) == 0 {
		return fmt.Errorf("no comparisons to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "reference lattice constant (Å)"
	p.Y.Label.Text = "relaxed lattice constant (Å)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, 3*len(comps))
	lo, hi := comps[0].Ref.A, comps[0].Ref.A
	add := func(ref, fit float64) {
		pts = append(pts, plotter.XY{X: ref, Y: fit})
		for _, v := range []float64{ref, fit} {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	for _, c := range comps {
		add(c.Ref.A, c.Fit.A)
		add(c.Ref.B, c.Fit.B)
		add(c.Ref.C, c.Fit.C)
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)

	diag, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return err
	}
	diag.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(diag)
	p.Legend.Add("match", diag)

	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
