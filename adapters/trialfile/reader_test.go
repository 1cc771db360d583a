package trialfile

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"simvote/domain/core"
	"simvote/domain/scenario"
	"simvote/internal"
	"simvote/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const literalCSV = `Citizens,PrimCands,Candidates,LikeFact
1000,5,3,1.0

SPlMargin,XRegret,YRegret
0.1,0.0,2.0
0.2,1.0,0.0
`

func newTestReader() (*Reader, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewReader(internal.NewLoggerTo(internal.LogLevelDebug, &buf)), &buf
}

func writeFixture(t *testing.T, csvContent, logContent string, withLog bool) string {
	t.Helper()
	path, err := testkit.WriteFiles(t.TempDir(), "run", csvContent, logContent, withLog)
	require.NoError(t, err)
	return path
}

func TestRead_LiteralCSV(t *testing.T) {
	reader, _ := newTestReader()
	trials, err := reader.Read(writeFixture(t, literalCSV, "", false))
	require.NoError(t, err)

	assert.Equal(t, scenario.Metadata{
		"Citizens":   "1000",
		"PrimCands":  "5",
		"Candidates": "3",
		"LikeFact":   "1.0",
	}, trials.Metadata)
	assert.Equal(t, []string{"SPlMargin", "XRegret", "YRegret"}, trials.Columns)
	assert.Equal(t, []float64{0.1, 0.2}, trials.Results["SPlMargin"])
	assert.Equal(t, []float64{0.0, 1.0}, trials.Results["XRegret"])
	assert.Equal(t, []float64{2.0, 0.0}, trials.Results["YRegret"])
	assert.Equal(t, 2, trials.TrialCount())
}

func TestLoad_LiteralScenario(t *testing.T) {
	reader, _ := newTestReader()
	s, err := reader.Load(writeFixture(t, literalCSV, "", false))
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y"}, s.Methods)
	assert.Equal(t, []float64{0.0, 1.0}, s.MethodRegrets["X"])
	assert.Equal(t, []float64{2.0, 0.0}, s.MethodRegrets["Y"])
	assert.Equal(t, []float64{0.1, 0.2}, s.PlMargins)
}

func TestRead_CompactKeyValueHeader(t *testing.T) {
	csvContent := "Citizens=1000,Candidates=3\n" +
		"\n" +
		"SPlMargin,XRegret,YRegret\n" +
		"0.1,0.0,2.0\n" +
		"0.2,1.0,0.0,7.0\n"

	reader, logs := newTestReader()
	trials, err := reader.Read(writeFixture(t, csvContent, "", false))
	require.NoError(t, err)

	assert.Equal(t, scenario.Metadata{"Citizens": "1000", "Candidates": "3"}, trials.Metadata)
	assert.Equal(t, []string{"SPlMargin", "XRegret", "YRegret"}, trials.Columns)
	assert.Equal(t, []float64{0.1, 0.2}, trials.Results["SPlMargin"])
	assert.Equal(t, []float64{2.0, 0.0}, trials.Results["YRegret"])
	require.Len(t, trials.Anomalies, 1)
	assert.Equal(t, scenario.RowAnomaly{Line: 5, Declared: 3, Got: 4}, trials.Anomalies[0])
	assert.Equal(t, 1, strings.Count(logs.String(), "too many values in a row"))
}

func TestRead_CompactHeaderParseErrorLine(t *testing.T) {
	reader, _ := newTestReader()
	_, err := reader.Read(writeFixture(t, "k=v\n\nSPlMargin,XRegret\n0.1,abc\n", "", false))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrParse))
	assert.Contains(t, err.Error(), "run.csv:4:")
}

func TestRead_AbsentLog(t *testing.T) {
	reader, _ := newTestReader()
	trials, err := reader.Read(writeFixture(t, literalCSV, "", false))
	require.NoError(t, err)

	assert.False(t, trials.HasLog)
	assert.Empty(t, trials.Regrets)
	assert.Empty(t, trials.CovMats)
	assert.NotNil(t, trials.Regrets)
	assert.Equal(t, 2, trials.TrialCount())
}

func TestRead_LogParsing(t *testing.T) {
	log := strings.Join([]string{
		"Starting trial 0",
		"Regrets: [0.0, 1.5, 2.0]",
		"Covariance matrix for candidates:",
		" [0] 1.0 0.2 0.3",
		" [1] 0.2 1.0 0.1",
		" [2] 0.3 0.1 1.0",
		"",
	}, "\n")

	reader, _ := newTestReader()
	trials, err := reader.Read(writeFixture(t, literalCSV, log, true))
	require.NoError(t, err)

	require.True(t, trials.HasLog)
	require.Len(t, trials.Regrets, 1)
	require.Len(t, trials.CovMats, 1)
	assert.Equal(t, scenario.RegretVector{0.0, 1.5, 2.0}, trials.Regrets[0])
	assert.Equal(t, scenario.CovarianceMatrix{
		{1.0, 0.2, 0.3},
		{0.2, 1.0, 0.1},
		{0.3, 0.1, 1.0},
	}, trials.CovMats[0])
}

func TestRead_SimulatorFormattedLog(t *testing.T) {
	log := "Regrets: [0.0, 0.125, 0.5]\r\n" +
		"Covariance matrix for candidates:\r\n" +
		" [0]      0.940205\r\n" +
		" [1]     -0.320737    1.011699\r\n" +
		" [2]      0.161088    0.313683    1.190576\r\n"

	reader, _ := newTestReader()
	trials, err := reader.Read(writeFixture(t, literalCSV, log, true))
	require.NoError(t, err)

	require.Len(t, trials.CovMats, 1)
	assert.Equal(t, scenario.CovarianceMatrix{
		{0.940205},
		{-0.320737, 1.011699},
		{0.161088, 0.313683, 1.190576},
	}, trials.CovMats[0])
}

func TestRead_AnomalousRowWarnsOnce(t *testing.T) {
	csvContent := `Citizens
10

SPlMargin,XRegret
0.1,0.0,9.9,9.9
0.2,1.0
`
	reader, logs := newTestReader()
	trials, err := reader.Read(writeFixture(t, csvContent, "", false))
	require.NoError(t, err)

	assert.Equal(t, []float64{0.1, 0.2}, trials.Results["SPlMargin"])
	assert.Equal(t, []float64{0.0, 1.0}, trials.Results["XRegret"])
	require.Len(t, trials.Anomalies, 1)
	assert.Equal(t, scenario.RowAnomaly{Line: 5, Declared: 2, Got: 4}, trials.Anomalies[0])
	assert.Equal(t, 1, strings.Count(logs.String(), "too many values in a row"))
}

func TestRead_MissingCSV(t *testing.T) {
	reader, _ := newTestReader()
	_, err := reader.Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingFile))
}

func TestRead_Failures(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		log     string
		withLog bool
		want    error
	}{
		{
			name: "non-numeric csv value",
			csv:  "k\nv\n\nSPlMargin,XRegret\n0.1,abc\n",
			want: core.ErrParse,
		},
		{
			name: "short csv row",
			csv:  "k\nv\n\nSPlMargin,XRegret\n0.1\n",
			want: core.ErrParse,
		},
		{
			name: "missing column header",
			csv:  "k\nv\n\n",
			want: core.ErrParse,
		},
		{
			name:    "orphan covariance row",
			csv:     literalCSV,
			log:     " [0] 1.0\nRegrets: [0.0]\n",
			withLog: true,
			want:    core.ErrOrphanCovRow,
		},
		{
			name:    "bad covariance value",
			csv:     literalCSV,
			log:     "Regrets: [0.0, 1.0]\n [0] 1.0 x\n",
			withLog: true,
			want:    core.ErrParse,
		},
		{
			name:    "bad regret literal",
			csv:     literalCSV,
			log:     "Regrets: [0.0, 1..0]\n",
			withLog: true,
			want:    core.ErrParse,
		},
		{
			name:    "unsealed matrix at end of log",
			csv:     literalCSV,
			log:     "Regrets: [0.0, 1.0]\n [0] 1.0\n",
			withLog: true,
			want:    core.ErrTrialMismatch,
		},
		{
			name:    "regret vector without matrix",
			csv:     literalCSV,
			log:     "Regrets: [0.0, 1.0]\n [0] 1.0\n [1] 0.1 1.0\nRegrets: [1.0, 0.0]\n",
			withLog: true,
			want:    core.ErrTrialMismatch,
		},
		{
			name:    "new vector interrupts matrix",
			csv:     literalCSV,
			log:     "Regrets: [0.0, 1.0, 2.0]\n [0] 1.0\nRegrets: [1.0, 0.0, 2.0]\n",
			withLog: true,
			want:    core.ErrTrialMismatch,
		},
		{
			name:    "matrix sealed with missing rows",
			csv:     literalCSV,
			log:     "Regrets: [0.0, 1.0, 2.0]\n [0] 1.0\n [2] 0.1 0.2 1.0\n",
			withLog: true,
			want:    core.ErrShapeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, _ := newTestReader()
			_, err := reader.Read(writeFixture(t, tt.csv, tt.log, tt.withLog))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRead_IgnoresUnrelatedLogLines(t *testing.T) {
	log := strings.Join([]string{
		"Creating CSV file run.csv",
		"Pre-election winners: [3, 1, 4]",
		"Regrets: [0.0, 2.0]",
		"scores for Likability:",
		"[0] not indented so ignored",
		" [0]  1.0",
		" [1]  0.5  1.0",
		"Regrets: 0.0, 2.0",
	}, "\n")

	reader, _ := newTestReader()
	trials, err := reader.Read(writeFixture(t, literalCSV, log, true))
	require.NoError(t, err)
	assert.Len(t, trials.Regrets, 1)
	assert.Len(t, trials.CovMats, 1)
}

func TestRead_GeneratedFixture(t *testing.T) {
	for _, square := range []bool{false, true} {
		cfg := testkit.DefaultSimulationConfig()
		cfg.SquareCovariance = square
		fixture := testkit.NewSimulationGenerator(cfg).Generate()

		path, err := fixture.Write(t.TempDir(), "sim", true)
		require.NoError(t, err)

		reader, _ := newTestReader()
		trials, err := reader.Read(path)
		require.NoError(t, err)

		require.Len(t, trials.Regrets, cfg.Trials)
		require.Len(t, trials.CovMats, cfg.Trials)
		for i := range fixture.Regrets {
			assert.Equal(t, scenario.RegretVector(fixture.Regrets[i]), trials.Regrets[i])
			assert.Equal(t, scenario.CovarianceMatrix(fixture.CovMats[i]), trials.CovMats[i])
			assert.Len(t, trials.CovMats[i], len(trials.Regrets[i]))
		}
		for _, m := range cfg.Methods {
			assert.Equal(t, fixture.MethodSeries(m), trials.Results[m+"Regret"])
		}
		assert.Equal(t, "4", trials.Metadata["Candidates"])
		assert.False(t, trials.Fingerprint.IsEmpty())
	}
}

func TestRead_CSVAndLogTrialCountsMayDiffer(t *testing.T) {
	log := "Regrets: [0.0]\n [0] 1.0\nRegrets: [0.0]\n [0] 2.0\nRegrets: [0.0]\n [0] 3.0\n"

	reader, _ := newTestReader()
	s, err := reader.Load(writeFixture(t, literalCSV, log, true))
	require.NoError(t, err)
	assert.Equal(t, 2, s.TrialCount())
	assert.Equal(t, 3, s.LogTrialCount())
}

func TestLogPathFor(t *testing.T) {
	assert.Equal(t, "results/run1.log", LogPathFor("results/run1.csv"))
	assert.Equal(t, "results/run.v2.log", LogPathFor("results/run.v2.csv"))
	assert.Equal(t, "noext.log", LogPathFor("noext"))
}
