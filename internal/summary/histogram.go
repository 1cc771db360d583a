package summary

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram is an equal-width histogram over [Edges[0], Edges[len-1]]; the
// last bin includes its upper edge
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// NewHistogram bins data into bins equal-width bins spanning its range.
// Constant data is binned over [v, v+1]; empty data over [0, 1].
func NewHistogram(data []float64, bins int) (*Histogram, error) {
	if bins < 1 {
		return nil, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("histogram input contains non-finite value %v", v)
		}
	}

	lo, hi := 0.0, 1.0
	if len(data) > 0 {
		lo, hi = floats.Min(data), floats.Max(data)
	}
	if lo == hi {
		hi = lo + 1
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	h := &Histogram{Edges: edges, Counts: make([]float64, bins)}
	if len(data) == 0 {
		return h, nil
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	stat.Histogram(h.Counts, dividers, sorted, nil)
	return h, nil
}

// Total returns the number of binned values
func (h *Histogram) Total() float64 {
	return floats.Sum(h.Counts)
}

// Bins returns the number of bins
func (h *Histogram) Bins() int {
	return len(h.Counts)
}

// Center returns the midpoint of bin i
func (h *Histogram) Center(i int) float64 {
	return (h.Edges[i] + h.Edges[i+1]) / 2
}

// Width returns the bin width
func (h *Histogram) Width() float64 {
	return h.Edges[1] - h.Edges[0]
}
