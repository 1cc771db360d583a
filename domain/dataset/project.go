package dataset

import (
	"fmt"

	"simvote/domain/core"
	"simvote/domain/scenario"

	"gonum.org/v1/gonum/mat"
)

// Project builds a bunch whose samples are the logged regret vectors
// followed by the flattened covariance matrices, and whose target is the
// named method's regret per trial. Classification maps a regret of exactly
// zero to 0 (best) and anything else to 1 (suboptimal).
func Project(s *scenario.Scenario, method string, classification bool) (*Bunch, error) {
	series, err := s.MethodSeries(method)
	if err != nil {
		return nil, err
	}
	ncand, err := s.NCand()
	if err != nil {
		return nil, err
	}

	rows := s.LogTrialCount()
	if len(series) != rows {
		return nil, core.NewTrialMismatchError(fmt.Sprintf("method %q has %d trials but the log has %d", method, len(series), rows))
	}

	shape := s.CovMats[0]
	names := FeatureNames(ncand, shape)
	width := len(names)
	if width == 0 {
		return nil, core.NewShapeMismatchError("trials carry no regrets or covariance values")
	}

	data := mat.NewDense(rows, width, nil)
	buf := make([]float64, 0, width)
	for i := 0; i < rows; i++ {
		if len(s.Regrets[i]) != ncand {
			return nil, core.NewShapeMismatchError(fmt.Sprintf("trial %d has %d regrets, want %d", i, len(s.Regrets[i]), ncand))
		}
		if !s.CovMats[i].SameShape(shape) {
			return nil, core.NewShapeMismatchError(fmt.Sprintf("trial %d covariance matrix differs in shape from trial 0", i))
		}
		buf = append(buf[:0], s.Regrets[i]...)
		buf = s.CovMats[i].Flatten(buf)
		data.SetRow(i, buf)
	}

	target := mat.NewVecDense(rows, nil)
	for i, v := range series {
		if classification {
			v = classify(v)
		}
		target.SetVec(i, v)
	}

	b := &Bunch{
		DESCR:        method,
		Data:         data,
		Target:       target,
		FeatureNames: names,
		ScenarioID:   s.ID,
		NCand:        ncand,
	}
	if classification {
		b.TargetNames = []string{TargetBest, TargetSuboptimal}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// FeatureNames lists "regret[i]" for every candidate, then "cov[ix,iy]" for
// every cell present in shape, row-major
func FeatureNames(ncand int, shape scenario.CovarianceMatrix) []string {
	names := make([]string, 0, ncand+shape.Cells())
	for i := 0; i < ncand; i++ {
		names = append(names, fmt.Sprintf("regret[%d]", i))
	}
	for ix, row := range shape {
		for iy := range row {
			names = append(names, fmt.Sprintf("cov[%d,%d]", ix, iy))
		}
	}
	return names
}

func classify(regret float64) float64 {
	if regret == 0.0 {
		return 0
	}
	return 1
}
