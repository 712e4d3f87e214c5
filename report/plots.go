package report

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/notargets/PowerFlow/powerflow"
)

// floor keeps exactly converged iterations on a log axis
const floor = 1e-16

// ConvergencePlot draws max |mismatch| per iteration on a log scale
func ConvergencePlot(history []float64) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("report: empty convergence history")
	}
	pts := make(plotter.XYs, len(history))
	for i, m := range history {
		pts[i].X = float64(i)
		pts[i].Y = math.Max(m, floor)
	}
	p := plot.New()
	p.Title.Text = "Newton-Raphson convergence"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "max |mismatch| (pu)"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	p.Add(line, scatter)
	return p, nil
}

// VoltageProfilePlot draws one bar per bus at its solved magnitude
func VoltageProfilePlot(buses []powerflow.BusState) (*plot.Plot, error) {
	if len(buses) == 0 {
		return nil, fmt.Errorf("report: no buses to plot")
	}
	values := make(plotter.Values, len(buses))
	names := make([]string, len(buses))
	for i, b := range buses {
		values[i] = b.V
		names[i] = b.Name
	}
	p := plot.New()
	p.Title.Text = "Bus voltage profile"
	p.Y.Label.Text = "V (pu)"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, err
	}
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// SavePlot writes p to path; the format follows the extension
func SavePlot(p *plot.Plot, path string) error {
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// WritePlot renders p in the given format ("png", "svg", "pdf") to w
func WritePlot(p *plot.Plot, w io.Writer, format string) error {
	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
