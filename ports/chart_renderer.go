package ports

import (
	"io"

	"simvote/internal/summary"
)

// ChartRenderer draws summary charts as images
type ChartRenderer interface {
	MarginHistogram(w io.Writer, h *summary.Histogram, title string) error
	RegretSpread(w io.Writer, methods []summary.MethodSummary, title string) error
	MethodHistogram(w io.Writer, m summary.MethodSummary, bins int) error
}
