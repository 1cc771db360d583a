package report

import (
	"fmt"
	"io"
	"strings"

	"simvote/domain/core"
	"simvote/internal/summary"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Report collects the summaries of one or more scenarios
type Report struct {
	Title       string
	GeneratedAt core.Timestamp
	Scenarios   []*summary.ScenarioSummary
	// Charts maps a scenario source to the chart files rendered for it
	Charts map[string][]string
}

// New creates a report over sums
func New(title string, sums ...*summary.ScenarioSummary) *Report {
	return &Report{
		Title:       title,
		GeneratedAt: core.Now(),
		Scenarios:   sums,
		Charts:      make(map[string][]string),
	}
}

// Markdown renders the report as a markdown document
func (r *Report) Markdown() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "Generated %s from %d scenario(s).\n\n", r.GeneratedAt, len(r.Scenarios))

	for _, s := range r.Scenarios {
		writeScenario(&b, s, r.Charts[s.Source])
	}
	return []byte(b.String())
}

// HTML renders the report as a complete HTML page
func (r *Report) HTML() []byte {
	return ToHTML(r.Markdown(), r.Title)
}

// WriteTo writes the markdown form, or the HTML form when asHTML is set
func (r *Report) WriteTo(w io.Writer, asHTML bool) error {
	doc := r.Markdown()
	if asHTML {
		doc = ToHTML(doc, r.Title)
	}
	_, err := w.Write(doc)
	return err
}

// ToHTML converts markdown into a standalone HTML page
func ToHTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}

func writeScenario(b *strings.Builder, s *summary.ScenarioSummary, charts []string) {
	fmt.Fprintf(b, "## %s\n\n", s.Source)
	fmt.Fprintf(b, "- Trials: %d\n", s.Trials)
	fmt.Fprintf(b, "- Logged trials: %d\n", s.LogTrials)
	if s.NCand > 0 {
		fmt.Fprintf(b, "- Candidates: %d\n", s.NCand)
	}
	if s.Anomalies > 0 {
		fmt.Fprintf(b, "- Truncated rows: %d\n", s.Anomalies)
	}
	b.WriteString("\n")

	if len(s.Metadata) > 0 {
		b.WriteString("### Parameters\n\n| Key | Value |\n|---|---|\n")
		for _, k := range s.MetadataKeys() {
			fmt.Fprintf(b, "| %s | %s |\n", k, s.Metadata[k])
		}
		b.WriteString("\n")
	}

	if len(s.Methods) > 0 {
		b.WriteString("### Regrets\n\n")
		b.WriteString("| Method | Avg | Non-zero % | Mean non-zero | Median | P1 | P99 | Max |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, m := range s.Methods {
			fmt.Fprintf(b, "| %s | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f |\n",
				m.Method, m.Mean, m.FracNonZero*100, m.MeanNonZero, m.Median, m.P1, m.P99, m.Max)
		}
		b.WriteString("\n")
	}

	margin := s.Margin
	b.WriteString("### Margin of victory, strategic plurality\n\n")
	fmt.Fprintf(b, "Mean %.3f, std dev %.3f, range [%.3f, %.3f] over %d trials.\n\n",
		margin.Mean, margin.StdDev, margin.Min, margin.Max, margin.Trials)
	if h := margin.Histogram; h != nil && margin.Trials > 0 {
		b.WriteString("| Bin | Trials |\n|---|---:|\n")
		for i, c := range h.Counts {
			fmt.Fprintf(b, "| %.3f to %.3f | %.0f |\n", h.Edges[i], h.Edges[i+1], c)
		}
		b.WriteString("\n")
	}

	if len(charts) > 0 {
		b.WriteString("### Charts\n\n")
		for _, c := range charts {
			fmt.Fprintf(b, "![%s](%s)\n\n", c, c)
		}
	}
}
