package dataset

import (
	"fmt"

	"simvote/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Target names for classification bunches
const (
	TargetBest       = "best"
	TargetSuboptimal = "suboptimal"
)

// Bunch is the feature/target dataset handed to learning tools.
// Data has one row per logged trial; Target has one entry per row.
type Bunch struct {
	// DESCR names the voting method the target was taken from
	DESCR string

	Data   *mat.Dense
	Target *mat.VecDense

	FeatureNames []string
	// TargetNames is set for classification bunches only
	TargetNames []string

	// Source references
	ScenarioID core.ID
	NCand      int
}

// IsClassification reports whether the target holds class labels
func (b *Bunch) IsClassification() bool {
	return len(b.TargetNames) > 0
}

// RowCount returns the number of samples
func (b *Bunch) RowCount() int {
	if b.Data == nil {
		return 0
	}
	r, _ := b.Data.Dims()
	return r
}

// ColumnCount returns the number of features
func (b *Bunch) ColumnCount() int {
	if b.Data == nil {
		return 0
	}
	_, c := b.Data.Dims()
	return c
}

// Row returns a copy of sample i
func (b *Bunch) Row(i int) []float64 {
	return mat.Row(nil, i, b.Data)
}

// TargetValues returns a copy of the target vector
func (b *Bunch) TargetValues() []float64 {
	out := make([]float64, b.Target.Len())
	for i := range out {
		out[i] = b.Target.AtVec(i)
	}
	return out
}

// GetColumn returns the index of a feature
func (b *Bunch) GetColumn(name string) (int, bool) {
	for i, n := range b.FeatureNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// GetColumnData returns the values of a single feature
func (b *Bunch) GetColumnData(name string) ([]float64, bool) {
	j, found := b.GetColumn(name)
	if !found {
		return nil, false
	}
	return mat.Col(nil, j, b.Data), true
}

// Validate ensures the bunch is internally consistent
func (b *Bunch) Validate() error {
	if b.Data == nil || b.Target == nil {
		return core.ErrNoTrialData
	}

	rows, cols := b.Data.Dims()
	if b.Target.Len() != rows {
		return core.NewTrialMismatchError(fmt.Sprintf("%d targets for %d samples", b.Target.Len(), rows))
	}
	if len(b.FeatureNames) != cols {
		return core.NewShapeMismatchError(fmt.Sprintf("%d feature names for %d columns", len(b.FeatureNames), cols))
	}
	if b.NCand > cols {
		return core.NewShapeMismatchError(fmt.Sprintf("%d candidates but only %d columns", b.NCand, cols))
	}

	if b.IsClassification() {
		for i := 0; i < rows; i++ {
			if v := b.Target.AtVec(i); v != 0 && v != 1 {
				return core.NewShapeMismatchError(fmt.Sprintf("target %d is %v, want a class label", i, v))
			}
		}
	}
	return nil
}
