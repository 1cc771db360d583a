package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"simvote/domain/core"
	"simvote/domain/dataset"
	"simvote/domain/scenario"
	"simvote/internal"
	"simvote/internal/errors"
	"simvote/internal/report"
	"simvote/internal/summary"
	"simvote/ports"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// AnalysisService summarizes scenarios and writes charts, datasets and reports
type AnalysisService struct {
	charts   ports.ChartRenderer
	exporter ports.DatasetExporter
	storage  ports.ArtifactStorage
	histBins int
	logger   *internal.Logger
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(charts ports.ChartRenderer, exporter ports.DatasetExporter, storage ports.ArtifactStorage, histBins int, logger *internal.Logger) *AnalysisService {
	return &AnalysisService{
		charts:   charts,
		exporter: exporter,
		storage:  storage,
		histBins: histBins,
		logger:   logger.OrDefault(),
	}
}

// DatasetRequest selects the method and target kind of a dataset export
type DatasetRequest struct {
	Method     string
	Regression bool
	// Filename decides the format by extension (.xlsx or .csv)
	Filename string
}

// DatasetResult describes a written dataset
type DatasetResult struct {
	Path     string
	Manifest *dataset.ExportManifest
}

// Summarize computes the scenario summary
func (a *AnalysisService) Summarize(s *scenario.Scenario) (*summary.ScenarioSummary, error) {
	sum, err := summary.Summarize(s, a.histBins)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to summarize %s", s.Source)
	}
	return sum, nil
}

// Plot renders the margin histogram, the regret spread and one histogram of
// non-zero regrets per method. It returns the written paths.
func (a *AnalysisService) Plot(ctx context.Context, s *scenario.Scenario) ([]string, error) {
	sum, err := a.Summarize(s)
	if err != nil {
		return nil, err
	}
	prefix := sourceBase(s.Source)

	var paths []string
	add := func(name string, render func(w io.Writer) error) error {
		path, err := a.storage.Create(ctx, name, render)
		if err != nil {
			return errors.StorageError(name, err)
		}
		paths = append(paths, path)
		return nil
	}

	if err := add(prefix+"_margin.png", func(w io.Writer) error {
		return a.charts.MarginHistogram(w, sum.Margin.Histogram, "Margin of victory, strategic plurality")
	}); err != nil {
		return paths, err
	}

	if len(sum.Methods) == 0 {
		a.logger.Warn("[AnalysisService] %s has no regret columns; skipping regret charts", s.Source)
		return paths, nil
	}

	if err := add(prefix+"_regrets.png", func(w io.Writer) error {
		return a.charts.RegretSpread(w, sum.Methods, "Regrets")
	}); err != nil {
		return paths, err
	}

	for _, m := range sum.Methods {
		name := fmt.Sprintf("%s_regret_%s.png", prefix, unsafeFileChars.ReplaceAllString(m.Method, "_"))
		if err := add(name, func(w io.Writer) error {
			return a.charts.MethodHistogram(w, m, a.histBins)
		}); err != nil {
			return paths, err
		}
	}

	a.logger.Info("[AnalysisService] Wrote %d charts for %s to %s", len(paths), s.Source, a.storage.BasePath())
	return paths, nil
}

// ExportDataset projects s onto req.Method and writes the bunch
func (a *AnalysisService) ExportDataset(ctx context.Context, s *scenario.Scenario, req DatasetRequest) (*DatasetResult, error) {
	method, err := core.ParseMethodName(req.Method)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	req.Method = method.String()

	b, err := dataset.Project(s, req.Method, !req.Regression)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to project %s onto %s", s.Source, req.Method)
	}
	manifest := dataset.NewExportManifest(b, s.Source, s.Fingerprint(), s.Metadata)

	filename := req.Filename
	if filename == "" {
		filename = fmt.Sprintf("%s_%s_%s.xlsx", sourceBase(s.Source), req.Method, manifest.Mode)
	}

	path, err := a.storage.Save(ctx, filename, func(path string) error {
		return a.exporter.ExportBunch(path, b, manifest)
	})
	if err != nil {
		return nil, err
	}
	return &DatasetResult{Path: path, Manifest: manifest}, nil
}

// ExportResults writes the per-trial result table of s
func (a *AnalysisService) ExportResults(ctx context.Context, s *scenario.Scenario, filename string) (string, error) {
	if filename == "" {
		filename = sourceBase(s.Source) + "_results.xlsx"
	}
	return a.storage.Save(ctx, filename, func(path string) error {
		return a.exporter.ExportResults(path, s)
	})
}

// ReportOptions controls the report output
type ReportOptions struct {
	HTML bool
	// Filename defaults to report.md or report.html
	Filename string
	// Charts renders each scenario's charts and links them from the report
	Charts bool
}

// Report summarizes every scenario into one markdown or HTML document
func (a *AnalysisService) Report(ctx context.Context, title string, scenarios []*scenario.Scenario, opts ReportOptions) (string, error) {
	sums := make([]*summary.ScenarioSummary, 0, len(scenarios))
	for _, s := range scenarios {
		sum, err := a.Summarize(s)
		if err != nil {
			return "", err
		}
		sums = append(sums, sum)
	}
	r := report.New(title, sums...)

	if opts.Charts {
		for _, s := range scenarios {
			paths, err := a.Plot(ctx, s)
			if err != nil {
				return "", err
			}
			r.Charts[s.Source] = a.relativeToBase(paths)
		}
	}

	filename := opts.Filename
	if filename == "" {
		filename = "report.md"
		if opts.HTML {
			filename = "report.html"
		}
	}
	path, err := a.storage.Create(ctx, filename, func(w io.Writer) error {
		return r.WriteTo(w, opts.HTML)
	})
	if err != nil {
		return "", errors.StorageError(filename, err)
	}
	return path, nil
}

// InspectDataset reads back the shape and manifest of an exported dataset
func (a *AnalysisService) InspectDataset(ctx context.Context, path string) (*dataset.ExportInfo, error) {
	exists, err := a.storage.Exists(ctx, path)
	if err != nil {
		return nil, errors.StorageError(path, err)
	}
	if !exists {
		return nil, errors.NotFound(path)
	}
	size, err := a.storage.GetFileSize(path)
	if err != nil {
		return nil, errors.StorageError(path, err)
	}

	src, err := a.storage.GetReader(ctx, path)
	if err != nil {
		return nil, errors.StorageError(path, err)
	}
	defer src.Close()

	info, err := a.exporter.InspectDataset(path, src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to inspect %s", path)
	}
	info.Size = size
	a.logger.Debug("[AnalysisService] Inspected %s (%d bytes, %d rows)", path, size, info.Rows)
	return info, nil
}

// relativeToBase rewrites artifact paths relative to the output directory,
// where the report itself is written
func (a *AnalysisService) relativeToBase(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(a.storage.BasePath(), p)
		if err != nil {
			rel = p
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

// sourceBase returns the file name of a source path without its extension
func sourceBase(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return "scenario"
	}
	return base
}
