package chart

import (
	"fmt"
	"io"
	"math"

	"simvote/internal"
	"simvote/internal/summary"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Default chart dimensions in pixels
const (
	DefaultWidth  = 1024
	DefaultHeight = 600
)

var medianColor = drawing.ColorFromHex("d62728")

// Renderer draws summary charts as PNG images
type Renderer struct {
	width  int
	height int
	logger *internal.Logger
}

// NewRenderer creates a renderer producing width x height images; non-positive
// dimensions fall back to the defaults
func NewRenderer(width, height int, logger *internal.Logger) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{width: width, height: height, logger: logger.OrDefault()}
}

// pointStyle returns a style that renders points only (no connecting line)
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: 0,
		DotWidth:    5,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color, width float64) gochart.Style {
	return gochart.Style{
		StrokeColor: col,
		StrokeWidth: width,
	}
}

// MarginHistogram draws the margin-of-victory histogram as a step outline
func (r *Renderer) MarginHistogram(w io.Writer, h *summary.Histogram, title string) error {
	return r.histogram(w, h, title, "margin", gochart.ColorBlue)
}

// MethodHistogram draws the histogram of a method's non-zero regrets
func (r *Renderer) MethodHistogram(w io.Writer, m summary.MethodSummary, bins int) error {
	h, err := summary.NewHistogram(m.NonZeroValues, bins)
	if err != nil {
		return fmt.Errorf("failed to bin %s regrets: %w", m.Method, err)
	}
	return r.histogram(w, h, m.Method, "regret", gochart.ColorGreen)
}

func (r *Renderer) histogram(w io.Writer, h *summary.Histogram, title, xName string, col drawing.Color) error {
	xs, ys := stepOutline(h)

	maxCount := 1.0
	for _, c := range h.Counts {
		maxCount = math.Max(maxCount, c)
	}

	ch := gochart.Chart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  xName,
			Range: &gochart.ContinuousRange{Min: h.Edges[0], Max: h.Edges[len(h.Edges)-1]},
		},
		YAxis: gochart.YAxis{
			Name:  "trials",
			Range: &gochart.ContinuousRange{Min: 0, Max: maxCount * 1.05},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: title, XValues: xs, YValues: ys, Style: lineStyle(col, 2)},
		},
	}
	return r.render(&ch, title, w)
}

// stepOutline traces the histogram outline: up the first edge, across every
// bin top, down the last edge
func stepOutline(h *summary.Histogram) ([]float64, []float64) {
	n := h.Bins()
	xs := make([]float64, 0, 2*n+2)
	ys := make([]float64, 0, 2*n+2)

	xs = append(xs, h.Edges[0])
	ys = append(ys, 0)
	for i, c := range h.Counts {
		xs = append(xs, h.Edges[i], h.Edges[i+1])
		ys = append(ys, c, c)
	}
	xs = append(xs, h.Edges[n])
	ys = append(ys, 0)
	return xs, ys
}

// RegretSpread draws one horizontal box per method: a whisker from the 1st
// to the 99th percentile, a box over the interquartile range and a median dot
func (r *Renderer) RegretSpread(w io.Writer, methods []summary.MethodSummary, title string) error {
	if len(methods) == 0 {
		return fmt.Errorf("no methods to chart")
	}

	maxX := 0.0
	series := make([]gochart.Series, 0, 3*len(methods))
	// Boundary ticks fix the y range to [-0.5, n-0.5]
	ticks := []gochart.Tick{{Value: -0.5, Label: ""}}
	for i, m := range methods {
		y := float64(i)
		maxX = math.Max(maxX, m.P99)
		series = append(series,
			gochart.ContinuousSeries{Name: m.Method + " whisker", XValues: []float64{m.P1, m.P99}, YValues: []float64{y, y}, Style: lineStyle(gochart.ColorAlternateGray, 1)},
			gochart.ContinuousSeries{Name: m.Method + " iqr", XValues: []float64{m.Q25, m.Q75}, YValues: []float64{y, y}, Style: lineStyle(gochart.ColorBlue, 10)},
			gochart.ContinuousSeries{Name: m.Method + " median", XValues: []float64{m.Median}, YValues: []float64{y}, Style: pointStyle(medianColor)},
		)
		ticks = append(ticks, gochart.Tick{Value: y, Label: m.Method})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(len(methods)) - 0.5, Label: ""})
	if maxX <= 0 {
		maxX = 1
	}

	ch := gochart.Chart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  "regret",
			Range: &gochart.ContinuousRange{Min: 0, Max: maxX * 1.05},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: -0.5, Max: float64(len(methods)) - 0.5},
			Ticks: ticks,
		},
		Series: series,
	}
	return r.render(&ch, title, w)
}

func (r *Renderer) render(ch *gochart.Chart, title string, w io.Writer) error {
	if err := ch.Render(gochart.PNG, w); err != nil {
		r.logger.Error("[ChartRenderer] %q render failed: %v", title, err)
		return fmt.Errorf("failed to render chart %q: %w", title, err)
	}
	r.logger.Debug("[ChartRenderer] Rendered %q (%dx%d)", title, r.width, r.height)
	return nil
}
