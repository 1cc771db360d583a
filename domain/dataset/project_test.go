package dataset

import (
	"errors"
	"testing"

	"simvote/domain/core"
	"simvote/domain/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareTrials() *scenario.Trials {
	return &scenario.Trials{
		Metadata: scenario.Metadata{"Candidates": "3"},
		Columns:  []string{"SPlMargin", "XRegret", "YRegret"},
		Results: scenario.ResultTable{
			"SPlMargin": {0.1, 0.2},
			"XRegret":   {0.0, 0.5},
			"YRegret":   {1.5, 0.0},
		},
		Regrets: []scenario.RegretVector{
			{0.0, 1.5, 2.0},
			{0.5, 0.0, 1.0},
		},
		CovMats: []scenario.CovarianceMatrix{
			{{1.0, 0.2, 0.3}, {0.2, 1.0, 0.1}, {0.3, 0.1, 1.0}},
			{{2.0, 0.0, 0.0}, {0.0, 2.0, 0.0}, {0.0, 0.0, 2.0}},
		},
	}
}

func mustScenario(t *testing.T, trials *scenario.Trials) *scenario.Scenario {
	t.Helper()
	s, err := scenario.FromTrials(trials)
	require.NoError(t, err)
	return s
}

func TestProject_Classification(t *testing.T) {
	s := mustScenario(t, squareTrials())

	b, err := Project(s, "X", true)
	require.NoError(t, err)

	assert.Equal(t, "X", b.DESCR)
	assert.Equal(t, []string{TargetBest, TargetSuboptimal}, b.TargetNames)
	assert.True(t, b.IsClassification())
	assert.Equal(t, 2, b.RowCount())
	assert.Equal(t, 3+9, b.ColumnCount())
	assert.Equal(t, 3, b.NCand)
	assert.Equal(t, s.ID, b.ScenarioID)

	assert.Equal(t, []float64{0.0, 1.5, 2.0, 1.0, 0.2, 0.3, 0.2, 1.0, 0.1, 0.3, 0.1, 1.0}, b.Row(0))
	assert.Equal(t, []float64{0, 1}, b.TargetValues())
}

func TestProject_Regression(t *testing.T) {
	s := mustScenario(t, squareTrials())

	b, err := Project(s, "Y", false)
	require.NoError(t, err)

	assert.False(t, b.IsClassification())
	assert.Nil(t, b.TargetNames)
	assert.Equal(t, []float64{1.5, 0.0}, b.TargetValues())
}

func TestProject_FeatureNames(t *testing.T) {
	s := mustScenario(t, squareTrials())
	b, err := Project(s, "X", true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"regret[0]", "regret[1]", "regret[2]",
		"cov[0,0]", "cov[0,1]", "cov[0,2]",
		"cov[1,0]", "cov[1,1]", "cov[1,2]",
		"cov[2,0]", "cov[2,1]", "cov[2,2]",
	}, b.FeatureNames)

	col, ok := b.GetColumnData("cov[0,1]")
	require.True(t, ok)
	assert.Equal(t, []float64{0.2, 0.0}, col)

	_, ok = b.GetColumn("cov[9,9]")
	assert.False(t, ok)
}

func TestProject_LowerTriangular(t *testing.T) {
	trials := squareTrials()
	trials.CovMats = []scenario.CovarianceMatrix{
		{{1.0}, {0.2, 1.0}, {0.3, 0.1, 1.0}},
		{{2.0}, {0.0, 2.0}, {0.0, 0.0, 2.0}},
	}
	s := mustScenario(t, trials)

	b, err := Project(s, "X", true)
	require.NoError(t, err)
	assert.Equal(t, 3+6, b.ColumnCount())
	assert.Equal(t, []string{
		"regret[0]", "regret[1]", "regret[2]",
		"cov[0,0]", "cov[1,0]", "cov[1,1]", "cov[2,0]", "cov[2,1]", "cov[2,2]",
	}, b.FeatureNames)
	assert.Equal(t, []float64{0.5, 0.0, 1.0, 2.0, 0.0, 2.0, 0.0, 0.0, 2.0}, b.Row(1))
}

func TestProject_Errors(t *testing.T) {
	t.Run("unknown method", func(t *testing.T) {
		_, err := Project(mustScenario(t, squareTrials()), "Z", true)
		assert.True(t, errors.Is(err, core.ErrUnknownMethod))
	})

	t.Run("no log data", func(t *testing.T) {
		trials := squareTrials()
		trials.Regrets = []scenario.RegretVector{}
		trials.CovMats = []scenario.CovarianceMatrix{}
		_, err := Project(mustScenario(t, trials), "X", true)
		assert.True(t, errors.Is(err, core.ErrNoTrialData))
	})

	t.Run("csv and log trial counts differ", func(t *testing.T) {
		trials := squareTrials()
		trials.Regrets = trials.Regrets[:1]
		trials.CovMats = trials.CovMats[:1]
		_, err := Project(mustScenario(t, trials), "X", true)
		assert.True(t, errors.Is(err, core.ErrTrialMismatch))
	})

	t.Run("covariance shapes differ", func(t *testing.T) {
		trials := squareTrials()
		trials.CovMats[1] = scenario.CovarianceMatrix{{2.0}, {0.0, 2.0}, {0.0, 0.0, 2.0}}
		_, err := Project(mustScenario(t, trials), "X", true)
		assert.True(t, errors.Is(err, core.ErrShapeMismatch))
	})
}

func TestBunch_Validate(t *testing.T) {
	b, err := Project(mustScenario(t, squareTrials()), "X", true)
	require.NoError(t, err)
	require.NoError(t, b.Validate())

	b.FeatureNames = b.FeatureNames[:3]
	assert.True(t, errors.Is(b.Validate(), core.ErrShapeMismatch))

	assert.True(t, errors.Is((&Bunch{}).Validate(), core.ErrNoTrialData))
}

func TestExportManifest(t *testing.T) {
	s := mustScenario(t, squareTrials())
	b, err := Project(s, "X", true)
	require.NoError(t, err)

	m := NewExportManifest(b, "run.csv", core.NewHash([]byte("input")), s.Metadata)
	assert.Equal(t, ModeClassification, m.Mode)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 12, m.Columns)

	again := NewExportManifest(b, "other.csv", core.NewHash([]byte("input")), nil)
	assert.Equal(t, m.Fingerprint(), again.Fingerprint())

	reg, err := Project(s, "X", false)
	require.NoError(t, err)
	assert.NotEqual(t, m.Fingerprint(), NewExportManifest(reg, "run.csv", core.NewHash([]byte("input")), nil).Fingerprint())

	data, err := m.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method": "X"`)
}
