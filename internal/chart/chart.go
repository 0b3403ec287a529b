// Package chart renders the daily progress series as PNG line charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/tracker"
)

const (
	width     = 8 * vg.Inch
	height    = 4 * vg.Inch
	maxLabels = 12
)

var (
	lineColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	goalColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

var errNoSamples = errors.New("chart: no samples")

// Renderer draws charts with gonum/plot. The zero value is ready to use.
type Renderer struct{}

func New() *Renderer { return &Renderer{} }

// Render draws samples as a line with point markers over nominal x labels.
// A non-nil goal adds a dashed horizontal line with a legend entry.
func (r *Renderer) Render(samples []tracker.Sample, title, yLabel string, goal *int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, errNoSamples
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Время"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(samples))
	top := 0.0
	for i, s := range samples {
		pts[i].X = float64(i)
		pts[i].Y = float64(s.Value)
		top = max(top, pts[i].Y)
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("line points: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(2)
	points.Color = lineColor
	points.Radius = vg.Points(3)
	p.Add(line, points)

	if goal != nil {
		g := float64(*goal)
		fn := plotter.NewFunction(func(float64) float64 { return g })
		fn.Color = goalColor
		fn.Width = vg.Points(1.5)
		fn.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(fn)
		p.Legend.Add(fmt.Sprintf("цель %d", *goal), fn)
		p.Legend.Top = true
		top = max(top, g)
	}

	p.NominalX(labels(samples)...)
	p.Y.Min = 0
	p.Y.Max = top*1.1 + 1

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// labels thins the x labels so at most maxLabels are drawn.
func labels(samples []tracker.Sample) []string {
	step := (len(samples) + maxLabels - 1) / maxLabels
	out := make([]string, len(samples))
	for i, s := range samples {
		if i%step == 0 || i == len(samples)-1 {
			out[i] = s.Label
		}
	}
	return out
}
