package main

import (
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/dmatrix/cv"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// plotHistory draws one line per mean column against the round number. The
// image format follows the file extension.
func plotHistory(res *cv.Result, path string) error {
	if res.NumRounds() == 0 {
		return errors.New("nothing to plot: no rounds recorded")
	}
	p := plot.New()
	p.Title.Text = "Cross-validation"
	p.X.Label.Text = "round"
	p.Y.Label.Text = "score"
	p.Legend.Top = true

	n := 0
	for _, c := range res.Columns {
		if !strings.HasSuffix(c, "-mean") {
			continue
		}
		mean := res.History[c]
		pts := make(plotter.XYs, len(mean))
		for i, v := range mean {
			pts[i] = plotter.XY{X: float64(i), Y: v}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "plotting %s", c)
		}
		l.LineStyle.Width = vg.Points(1.5)
		l.LineStyle.Color = plotutil.Color(n)
		if strings.HasPrefix(c, "train-") {
			l.LineStyle.Dashes = plotutil.Dashes(1)
		}
		p.Add(l)
		p.Legend.Add(strings.TrimSuffix(c, "-mean"), l)
		n++
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving plot %s", path)
	}
	return nil
}
