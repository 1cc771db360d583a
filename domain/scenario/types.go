package scenario

import (
	"fmt"

	"simvote/domain/core"
)

// Metadata is the header record of a results CSV (column name -> value)
type Metadata map[string]string

// ResultTable maps a CSV column name to its per-trial series
type ResultTable map[string][]float64

// RegretVector holds one regret per candidate for a single trial
type RegretVector []float64

// CovarianceMatrix is the candidate covariance matrix logged for a trial.
// Rows are stored as printed; the simulator prints the lower triangle only.
type CovarianceMatrix [][]float64

// Cells returns the number of values in the matrix
func (m CovarianceMatrix) Cells() int {
	n := 0
	for _, row := range m {
		n += len(row)
	}
	return n
}

// SameShape reports whether both matrices have identical row lengths
func (m CovarianceMatrix) SameShape(other CovarianceMatrix) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if len(m[i]) != len(other[i]) {
			return false
		}
	}
	return true
}

// Flatten appends the matrix values in row-major order to dst
func (m CovarianceMatrix) Flatten(dst []float64) []float64 {
	for _, row := range m {
		dst = append(dst, row...)
	}
	return dst
}

// RowAnomaly records a CSV data row that carried more values than columns
type RowAnomaly struct {
	Line     int `json:"line"`
	Declared int `json:"declared"`
	Got      int `json:"got"`
}

func (a RowAnomaly) String() string {
	return fmt.Sprintf("line %d: %d values for %d columns", a.Line, a.Got, a.Declared)
}

// Trials is the unified record produced by reading a CSV/log pair
type Trials struct {
	Metadata Metadata
	Columns  []string
	Results  ResultTable
	Regrets  []RegretVector
	CovMats  []CovarianceMatrix

	SourcePath  string
	LogPath     string
	HasLog      bool
	Anomalies   []RowAnomaly
	Fingerprint core.Hash
}

// TrialCount returns the number of CSV data rows
func (t *Trials) TrialCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Results[t.Columns[0]])
}

// Validate checks the structural invariants of a read. The CSV trial count
// and the log trial count are independent and are not compared.
func (t *Trials) Validate() error {
	n := t.TrialCount()
	for _, col := range t.Columns {
		if got := len(t.Results[col]); got != n {
			return core.NewShapeMismatchError(fmt.Sprintf("column %q has %d values, expected %d", col, got, n))
		}
	}
	if len(t.Regrets) != len(t.CovMats) {
		return core.NewTrialMismatchError(fmt.Sprintf("%d regret vectors but %d covariance matrices", len(t.Regrets), len(t.CovMats)))
	}
	for i, cov := range t.CovMats {
		if len(cov) != len(t.Regrets[i]) {
			return core.NewShapeMismatchError(fmt.Sprintf("trial %d: covariance matrix has %d rows for %d candidates", i, len(cov), len(t.Regrets[i])))
		}
	}
	return nil
}
