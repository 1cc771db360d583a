package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"simvote/domain/core"
	"simvote/domain/dataset"
	"simvote/domain/scenario"
	"simvote/internal"
	"simvote/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Exporter writes bunches and result tables as xlsx or csv, picked by the
// file extension
type Exporter struct {
	config ExportConfig
	logger *internal.Logger
}

// NewExporter creates an exporter
func NewExporter(config ExportConfig, logger *internal.Logger) *Exporter {
	return &Exporter{config: config, logger: logger.OrDefault()}
}

// Config returns the sheet and column names in use
func (e *Exporter) Config() ExportConfig {
	return e.config
}

// ExportBunch writes b to path. The xlsx form carries a meta sheet built
// from m; a nil manifest is derived from b alone.
func (e *Exporter) ExportBunch(path string, b *dataset.Bunch, m *dataset.ExportManifest) error {
	if m == nil {
		m = dataset.NewExportManifest(b, "", "", nil)
	}
	startTime := time.Now()

	var err error
	switch formatOf(path) {
	case "xlsx":
		err = e.WriteBunchXLSX(path, b, m)
	case "csv":
		err = e.WriteBunchCSV(path, b)
	default:
		return errors.InvalidInput(fmt.Sprintf("unsupported export format %q (want .xlsx or .csv)", filepath.Ext(path)))
	}
	if err != nil {
		return errors.ExportError(formatOf(path), err)
	}

	e.logger.Info("[Exporter] Wrote %s bunch %s (%d rows x %d features) in %.2fms",
		b.DESCR, path, b.RowCount(), b.ColumnCount(), core.Millis(startTime))
	return nil
}

// ExportResults writes the per-trial result table of s to path
func (e *Exporter) ExportResults(path string, s *scenario.Scenario) error {
	var err error
	switch formatOf(path) {
	case "xlsx":
		err = e.WriteResultsXLSX(path, s)
	case "csv":
		err = e.WriteResultsCSV(path, s)
	default:
		return errors.InvalidInput(fmt.Sprintf("unsupported export format %q (want .xlsx or .csv)", filepath.Ext(path)))
	}
	if err != nil {
		return errors.ExportError(formatOf(path), err)
	}

	e.logger.Info("[Exporter] Wrote results of %s to %s (%d trials, %d methods)", s.Source, path, s.TrialCount(), len(s.Methods))
	return nil
}

// InspectDataset reads an exported dataset back from src. name supplies the
// format and is reported as the path; xlsx files also yield the meta sheet.
func (e *Exporter) InspectDataset(name string, src io.Reader) (*dataset.ExportInfo, error) {
	info := &dataset.ExportInfo{Path: name, Meta: map[string]string{}}

	var data *SheetData
	switch formatOf(name) {
	case "csv":
		d, err := NewDataReader(name, "", e.logger).Read(src)
		if err != nil {
			return nil, err
		}
		data = d
	case "xlsx":
		f, err := excelize.OpenReader(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open Excel file: %w", err)
		}
		defer f.Close()

		if data, err = NewDataReader(name, e.config.DataSheet, e.logger).readSheet(f); err != nil {
			return nil, err
		}
		meta, err := NewDataReader(name, e.config.MetaSheet, e.logger).readSheet(f)
		if err != nil {
			return nil, err
		}
		info.Meta = meta.KeyValues()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported dataset format %q (want .xlsx or .csv)", filepath.Ext(name)))
	}

	info.Headers = data.Headers
	info.Rows = len(data.Rows)
	return info, nil
}

func formatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// WriteBunchXLSX writes the feature matrix and target to the data sheet and
// the manifest to the meta sheet
func (e *Exporter) WriteBunchXLSX(path string, b *dataset.Bunch, m *dataset.ExportManifest) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", e.config.DataSheet); err != nil {
		return err
	}

	header := make([]interface{}, 0, len(b.FeatureNames)+1)
	for _, name := range b.FeatureNames {
		header = append(header, name)
	}
	header = append(header, e.config.TargetColumn)
	if err := f.SetSheetRow(e.config.DataSheet, "A1", &header); err != nil {
		return err
	}

	for i := 0; i < b.RowCount(); i++ {
		row := make([]interface{}, 0, b.ColumnCount()+1)
		for _, v := range b.Row(i) {
			row = append(row, v)
		}
		row = append(row, b.Target.AtVec(i))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(e.config.DataSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := e.writeKeyValues(f, e.config.MetaSheet, manifestRows(m)); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// WriteBunchCSV writes the feature matrix with a trailing target column
func (e *Exporter) WriteBunchCSV(path string, b *dataset.Bunch) error {
	rows := make([][]string, 0, b.RowCount()+1)
	rows = append(rows, append(append([]string{}, b.FeatureNames...), e.config.TargetColumn))
	for i := 0; i < b.RowCount(); i++ {
		row := formatFloats(b.Row(i))
		row = append(row, formatFloat(b.Target.AtVec(i)))
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

// WriteResultsXLSX writes one row per trial (margin and method regrets) and
// the run metadata to the meta sheet
func (e *Exporter) WriteResultsXLSX(path string, s *scenario.Scenario) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", e.config.ResultsSheet); err != nil {
		return err
	}

	for i, row := range e.resultRows(s) {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(e.config.ResultsSheet, cell, &values); err != nil {
			return err
		}
	}

	if err := e.writeKeyValues(f, e.config.MetaSheet, metadataRows(s.Metadata, "")); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// WriteResultsCSV writes the result table as a plain CSV
func (e *Exporter) WriteResultsCSV(path string, s *scenario.Scenario) error {
	rows := e.resultRows(s)
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case float64:
				out[i][j] = formatFloat(x)
			case int:
				out[i][j] = strconv.Itoa(x)
			default:
				out[i][j] = fmt.Sprint(x)
			}
		}
	}
	return writeCSV(path, out)
}

// resultRows builds the header row and one row per trial
func (e *Exporter) resultRows(s *scenario.Scenario) [][]interface{} {
	header := []interface{}{e.config.TrialColumn, scenario.MarginColumn}
	for _, m := range s.Methods {
		header = append(header, m+"Regret")
	}

	rows := [][]interface{}{header}
	for i := 0; i < s.TrialCount(); i++ {
		row := []interface{}{i, s.PlMargins[i]}
		for _, m := range s.Methods {
			row = append(row, s.MethodRegrets[m][i])
		}
		rows = append(rows, row)
	}
	return rows
}

func (e *Exporter) writeKeyValues(f *excelize.File, sheet string, rows [][2]string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	all := append([][2]string{{"key", "value"}}, rows...)
	for i, kv := range all {
		values := []interface{}{kv[0], kv[1]}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func manifestRows(m *dataset.ExportManifest) [][2]string {
	rows := [][2]string{
		{"DESCR", m.Method},
		{"mode", m.Mode},
		{"target_names", strings.Join(m.TargetNames, ",")},
		{"rows", strconv.Itoa(m.Rows)},
		{"columns", strconv.Itoa(m.Columns)},
		{"ncand", strconv.Itoa(m.NCand)},
		{"scenario_id", m.ScenarioID.String()},
		{"source", m.Source},
		{"source_fingerprint", m.SourceFingerprint.String()},
		{"fingerprint", m.Fingerprint().String()},
		{"created_at", m.CreatedAt.String()},
	}
	return append(rows, metadataRows(m.Metadata, "meta.")...)
}

// metadataRows lists metadata in key order, each key prefixed
func metadataRows(metadata map[string]string, prefix string) [][2]string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][2]string, len(keys))
	for i, k := range keys {
		rows[i] = [2]string{prefix + k, metadata[k]}
	}
	return rows
}

func writeCSV(path string, rows [][]string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloats(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = formatFloat(v)
	}
	return out
}
