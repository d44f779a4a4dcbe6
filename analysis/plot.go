package analysis

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ValentinOzeel/goptuna-tuning/pkg/errors"
)

// maxPlotColumns bounds the subplot grid width, matching the table layout
// used for parameter range reporting.
const maxPlotColumns = 12

// DistributionPlot is a tiled grid of per-parameter distribution plots for
// the best-trial subset. Numeric parameters are drawn as rank-vs-value
// scatter plots, categorical parameters as labeled strips.
type DistributionPlot struct {
	// Plots holds the subplot grid row-major; nil entries are blank tiles.
	Plots [][]*plot.Plot

	rows, cols int
}

// Rows returns the number of grid rows.
func (dp *DistributionPlot) Rows() int { return dp.rows }

// Cols returns the number of grid columns.
func (dp *DistributionPlot) Cols() int { return dp.cols }

// PlotDistributions builds one subplot per parameter column of a parameter
// table produced by ParamTable. The x axis of every subplot is the rank of
// the trial within the best subset.
func PlotDistributions(table dataframe.DataFrame) (*DistributionPlot, error) {
	if table.Nrow() == 0 {
		return nil, errors.NewEmptyStudyError(0, 0)
	}

	ranks := table.Col(RankColumn).Float()

	var params []string
	for _, name := range table.Names() {
		if name != TrialNumberColumn && name != RankColumn {
			params = append(params, name)
		}
	}
	if len(params) == 0 {
		return nil, errors.New("tuning: parameter table has no parameter columns")
	}

	cols := (len(params) + 1) / 2
	if cols < 1 {
		cols = 1
	}
	if cols > maxPlotColumns {
		cols = maxPlotColumns
	}
	rows := (len(params) + cols - 1) / cols

	grid := make([][]*plot.Plot, rows)
	for r := range grid {
		grid[r] = make([]*plot.Plot, cols)
	}

	for i, name := range params {
		col := table.Col(name)
		var p *plot.Plot
		var err error
		switch col.Type() {
		case series.Float, series.Int:
			p, err = scatterPlot(name, ranks, col.Float())
		default:
			p, err = stripPlot(name, ranks, col.Records())
		}
		if err != nil {
			return nil, errors.Wrapf(err, "tuning: plotting parameter %q", name)
		}
		grid[i/cols][i%cols] = p
	}

	return &DistributionPlot{Plots: grid, rows: rows, cols: cols}, nil
}

// scatterPlot draws a numeric parameter as rank-vs-value points.
func scatterPlot(name string, ranks, values []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = "best trials"
	p.Y.Label.Text = name

	pts := make(plotter.XYs, len(values))
	for i := range values {
		pts[i].X = ranks[i]
		pts[i].Y = values[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	p.Add(s)
	return p, nil
}

// stripPlot draws a categorical parameter: categories become nominal y
// ticks and each trial a point at its category's level.
func stripPlot(name string, ranks []float64, values []string) (*plot.Plot, error) {
	levels := make(map[string]int)
	var cats []string
	for _, v := range values {
		if _, ok := levels[v]; !ok {
			levels[v] = 0
			cats = append(cats, v)
		}
	}
	sort.Strings(cats)
	for i, c := range cats {
		levels[c] = i
	}

	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = "best trials"
	p.NominalY(cats...)

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = ranks[i]
		pts[i].Y = float64(levels[v])
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	p.Add(s)
	return p, nil
}

// WritePNG renders the tiled grid into a single PNG file.
func (dp *DistributionPlot) WritePNG(path string) error {
	const (
		tileWidth  = 3 * vg.Inch
		tileHeight = 2.5 * vg.Inch
	)

	img := vgimg.New(vg.Length(dp.cols)*tileWidth, vg.Length(dp.rows)*tileHeight)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: dp.rows,
		Cols: dp.cols,
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align(dp.Plots, tiles, dc)
	for r := 0; r < dp.rows; r++ {
		for c := 0; c < dp.cols; c++ {
			if dp.Plots[r][c] != nil {
				dp.Plots[r][c].Draw(canvases[r][c])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "tuning: creating plot file %q", path)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "tuning: writing plot file %q", path)
	}
	return f.Close()
}

// String describes the grid, useful in logs.
func (dp *DistributionPlot) String() string {
	return fmt.Sprintf("DistributionPlot(%dx%d)", dp.rows, dp.cols)
}
