// Package plot keeps the per-episode score series and renders it to a PNG.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// GraphFile is the file name SaveGraph writes inside its directory.
const GraphFile = "FlappyScores.png"

var (
	scoreColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	averageColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Plotter accumulates one point per finished episode.
type Plotter struct {
	scores   []float64
	averages []float64
}

// New returns an empty plotter.
func New() *Plotter {
	return &Plotter{}
}

// AddGame appends an episode's score and the running average at that point.
func (p *Plotter) AddGame(score int, average float64) {
	p.scores = append(p.scores, float64(score))
	p.averages = append(p.averages, average)
}

// Len returns the number of recorded episodes.
func (p *Plotter) Len() int {
	return len(p.scores)
}

// Scores returns a copy of the recorded scores.
func (p *Plotter) Scores() []float64 {
	return append([]float64(nil), p.scores...)
}

// Averages returns a copy of the recorded running averages.
func (p *Plotter) Averages() []float64 {
	return append([]float64(nil), p.averages...)
}

// SaveGraph renders the series to dir/FlappyScores.png and returns the path.
// The directory must already exist.
func (p *Plotter) SaveGraph(dir string) (string, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("plot: cannot save graph, folder %s does not exist", dir)
	}

	plt, err := p.build()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, GraphFile)
	if err := plt.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return "", fmt.Errorf("plot: cannot save graph: %w", err)
	}
	return path, nil
}

func (p *Plotter) build() (*gplot.Plot, error) {
	plt := gplot.New()
	plt.Title.Text = "Flappy Bird Scores"
	plt.X.Label.Text = "Iterations"
	plt.Y.Label.Text = "Score"
	plt.Y.Min = 0
	plt.Add(plotter.NewGrid())

	if len(p.scores) == 0 {
		return plt, nil
	}

	scores, err := plotter.NewLine(series(p.scores))
	if err != nil {
		return nil, fmt.Errorf("plot: scores: %w", err)
	}
	scores.Color = scoreColor

	trend, err := plotter.NewLine(series(p.averages))
	if err != nil {
		return nil, fmt.Errorf("plot: trend: %w", err)
	}
	trend.Color = averageColor
	trend.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}

	plt.Add(scores, trend)
	plt.Legend.Add("Scores", scores)
	plt.Legend.Add("Trend", trend)
	plt.Legend.Top = true
	plt.Legend.Left = true
	return plt, nil
}

// series numbers points from 1, one per episode.
func series(ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(ys))
	for i, y := range ys {
		pts[i].X = float64(i + 1)
		pts[i].Y = y
	}
	return pts
}
