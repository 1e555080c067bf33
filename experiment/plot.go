package experiment

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/tabenc/pkg/errors"
)

// SavePlot renders a grouped bar chart of accuracy and AUC per experiment
// and writes it to path. The image format follows the file extension, for
// example .png or .svg.
func SavePlot(results []*Result, path string) error {
	if len(results) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "no experiment results to plot")
	}

	accuracies := make(plotter.Values, len(results))
	aucs := make(plotter.Values, len(results))
	names := make([]string, len(results))
	for i, result := range results {
		accuracies[i] = result.Accuracy
		aucs[i] = result.AUC
		names[i] = result.Name
	}

	p := plot.New()
	p.Title.Text = "Encoding strategy comparison"
	p.Y.Label.Text = "test score"
	p.Y.Min = 0
	p.Y.Max = 1

	w := vg.Points(20)

	accBars, err := plotter.NewBarChart(accuracies, w)
	if err != nil {
		return errors.Wrap(err, "failed to build accuracy bars")
	}
	accBars.LineStyle.Width = vg.Length(0)
	accBars.Color = plotutil.Color(0)
	accBars.Offset = -w / 2

	aucBars, err := plotter.NewBarChart(aucs, w)
	if err != nil {
		return errors.Wrap(err, "failed to build AUC bars")
	}
	aucBars.LineStyle.Width = vg.Length(0)
	aucBars.Color = plotutil.Color(1)
	aucBars.Offset = w / 2

	p.Add(accBars, aucBars)
	p.Legend.Add("accuracy", accBars)
	p.Legend.Add("AUC", aucBars)
	p.Legend.Top = true
	p.NominalX(names...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "failed to save plot")
	}
	return nil
}
