package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simvote/domain/core"
	"simvote/domain/dataset"
	"simvote/domain/scenario"
	"simvote/internal"
	"simvote/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	s, err := scenario.FromTrials(&scenario.Trials{
		Metadata: scenario.Metadata{"Citizens": "1000", "Candidates": "3"},
		Columns:  []string{"SPlMargin", "XRegret", "YRegret"},
		Results: scenario.ResultTable{
			"SPlMargin": {0.1, 0.2},
			"XRegret":   {0.0, 0.5},
			"YRegret":   {1.5, 0.0},
		},
		Regrets: []scenario.RegretVector{{0.0, 1.5, 2.0}, {0.5, 0.0, 1.0}},
		CovMats: []scenario.CovarianceMatrix{
			{{1.0}, {0.2, 1.0}, {0.3, 0.1, 1.0}},
			{{2.0}, {0.0, 2.0}, {0.0, 0.0, 2.0}},
		},
		SourcePath: "run.csv",
	})
	require.NoError(t, err)
	return s
}

func newTestExporter() *Exporter {
	return NewExporter(DefaultExportConfig(), internal.NewLoggerTo(internal.LogLevelError, &bytes.Buffer{}))
}

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(internal.LogLevelError, &bytes.Buffer{})
}

func TestExportBunch_XLSXRoundTrip(t *testing.T) {
	s := testScenario(t)
	b, err := dataset.Project(s, "X", true)
	require.NoError(t, err)
	m := dataset.NewExportManifest(b, s.Source, core.NewHash([]byte("in")), s.Metadata)

	path := filepath.Join(t.TempDir(), "bunch.xlsx")
	require.NoError(t, newTestExporter().ExportBunch(path, b, m))

	data, err := NewDataReader(path, "data", quietLogger()).ReadData()
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, b.FeatureNames...), "target"), data.Headers)
	require.Len(t, data.Rows, 2)

	target, err := data.FloatColumn("target")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, target)

	cov, err := data.FloatColumn("cov[1,0]")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.0}, cov)

	meta, err := NewDataReader(path, "meta", quietLogger()).ReadData()
	require.NoError(t, err)
	kv := meta.KeyValues()
	assert.Equal(t, "X", kv["DESCR"])
	assert.Equal(t, "best,suboptimal", kv["target_names"])
	assert.Equal(t, "classification", kv["mode"])
	assert.Equal(t, "1000", kv["meta.Citizens"])
	assert.Equal(t, m.Fingerprint().String(), kv["fingerprint"])
}

func TestExportBunch_CSV(t *testing.T) {
	s := testScenario(t)
	b, err := dataset.Project(s, "Y", false)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bunch.csv")
	require.NoError(t, newTestExporter().ExportBunch(path, b, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "regret[0],regret[1],regret[2],cov[0,0]"))
	assert.True(t, strings.HasSuffix(lines[0], ",target"))
	assert.Equal(t, "0,1.5,2,1,0.2,1,0.3,0.1,1,1.5", lines[1])

	data, err := NewDataReader(path, "", quietLogger()).ReadData()
	require.NoError(t, err)
	target, err := data.FloatColumn("target")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 0.0}, target)
}

func TestExportBunch_UnsupportedFormat(t *testing.T) {
	s := testScenario(t)
	b, err := dataset.Project(s, "X", true)
	require.NoError(t, err)

	err = newTestExporter().ExportBunch(filepath.Join(t.TempDir(), "bunch.parquet"), b, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestExportBunch_UnwritablePath(t *testing.T) {
	s := testScenario(t)
	b, err := dataset.Project(s, "X", true)
	require.NoError(t, err)

	err = newTestExporter().ExportBunch(filepath.Join(t.TempDir(), "missing", "bunch.csv"), b, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeExportError, errors.GetCode(err))
}

func TestExportResults(t *testing.T) {
	s := testScenario(t)
	dir := t.TempDir()

	xlsxPath := filepath.Join(dir, "results.xlsx")
	require.NoError(t, newTestExporter().ExportResults(xlsxPath, s))

	data, err := NewDataReader(xlsxPath, "results", quietLogger()).ReadData()
	require.NoError(t, err)
	assert.Equal(t, []string{"trial", "SPlMargin", "XRegret", "YRegret"}, data.Headers)
	margins, err := data.FloatColumn("SPlMargin")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, margins)

	meta, err := NewDataReader(xlsxPath, "meta", quietLogger()).ReadData()
	require.NoError(t, err)
	assert.Equal(t, "3", meta.KeyValues()["Candidates"])

	csvPath := filepath.Join(dir, "results.csv")
	require.NoError(t, newTestExporter().ExportResults(csvPath, s))
	raw, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "trial,SPlMargin,XRegret,YRegret\n0,0.1,0,1.5\n1,0.2,0.5,0\n", string(raw))
}

func TestDataReader_Errors(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "none.xlsx"), "data", quietLogger()).ReadData()
	assert.ErrorIs(t, err, core.ErrMissingFile)

	data := &SheetData{Headers: []string{"a"}, Rows: []SheetRow{{"a": "x"}}}
	_, err = data.FloatColumn("b")
	assert.ErrorIs(t, err, core.ErrMissingColumn)
	_, err = data.FloatColumn("a")
	assert.Error(t, err)
}

func TestInspectDataset(t *testing.T) {
	s := testScenario(t)
	b, err := dataset.Project(s, "Y", false)
	require.NoError(t, err)
	dir := t.TempDir()
	exporter := newTestExporter()

	xlsxPath := filepath.Join(dir, "y.xlsx")
	require.NoError(t, exporter.ExportBunch(xlsxPath, b, nil))
	f, err := os.Open(xlsxPath)
	require.NoError(t, err)
	defer f.Close()

	info, err := exporter.InspectDataset(xlsxPath, f)
	require.NoError(t, err)
	assert.Equal(t, xlsxPath, info.Path)
	assert.Equal(t, 2, info.Rows)
	assert.Len(t, info.Headers, b.ColumnCount()+1)
	assert.Equal(t, "Y", info.Meta["DESCR"])
	assert.Equal(t, "regression", info.Meta["mode"])

	csvPath := filepath.Join(dir, "y.csv")
	require.NoError(t, exporter.ExportBunch(csvPath, b, nil))
	raw, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	info, err = exporter.InspectDataset(csvPath, bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, info.Rows)
	assert.Empty(t, info.Meta)

	_, err = exporter.InspectDataset("y.parquet", bytes.NewReader(raw))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestInspectDataset_CustomSheets(t *testing.T) {
	s := testScenario(t)
	b, err := dataset.Project(s, "X", true)
	require.NoError(t, err)

	cfg := DefaultExportConfig()
	cfg.DataSheet, cfg.MetaSheet = "features", "manifest"
	exporter := NewExporter(cfg, quietLogger())

	path := filepath.Join(t.TempDir(), "x.xlsx")
	require.NoError(t, exporter.ExportBunch(path, b, nil))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	info, err := exporter.InspectDataset(path, f)
	require.NoError(t, err)
	assert.Equal(t, "classification", info.Meta["mode"])

	_, err = newTestExporter().InspectDataset(path, bytes.NewReader(nil))
	assert.Error(t, err)
}
