// Package report renders solver convergence: the largest value change of every sweep,
// one line per solver run.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"gridmdp/reinforcement"
)

// minLogDelta floors deltas before taking log10, since a converged deterministic sweep
// changes nothing.
const minLogDelta = 1e-12

// PlotDeltas saves a PNG of log10(delta) per sweep for every result.
func PlotDeltas(path string, results ...*reinforcement.Result) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Convergence"
	p.X.Label.Text = "Sweep"
	p.Y.Label.Text = "log10(delta)"

	for i, result := range results {
		if result == nil || len(result.Deltas) == 0 {
			continue
		}
		points := make(plotter.XYs, len(result.Deltas))
		for j, delta := range result.Deltas {
			points[j] = plotter.XY{
				X: float64(j + 1),
				Y: math.Log10(math.Max(delta, minLogDelta)),
			}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("report: %s line: %w", result.Algorithm, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(string(result.Algorithm), line)
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// ChartDeltas writes an html page with an interactive line chart of delta per sweep.
func ChartDeltas(w io.Writer, results ...*reinforcement.Result) error {
	numSweeps := 0
	for _, result := range results {
		if result != nil && len(result.Deltas) > numSweeps {
			numSweeps = len(result.Deltas)
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Convergence",
			Subtitle: "largest value change per sweep",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "log",
		}),
	)

	var sweeps []string
	for i := 1; i <= numSweeps; i++ {
		sweeps = append(sweeps, fmt.Sprintf("%d", i))
	}
	line = line.SetXAxis(sweeps)

	for _, result := range results {
		if result == nil {
			continue
		}
		items := make([]opts.LineData, 0, len(result.Deltas))
		for _, delta := range result.Deltas {
			items = append(items, opts.LineData{Value: math.Max(delta, minLogDelta)})
		}
		line.AddSeries(string(result.Algorithm), items)
	}

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}

// ChartDeltasToFile is ChartDeltas into a newly created file.
func ChartDeltasToFile(path string, results ...*reinforcement.Result) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = ChartDeltas(f, results...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
