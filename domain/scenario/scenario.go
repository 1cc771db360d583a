package scenario

import (
	"fmt"
	"regexp"

	"simvote/domain/core"
)

// MarginColumn is the strategic plurality margin-of-victory column
const MarginColumn = "SPlMargin"

var methodColumn = regexp.MustCompile(`^(.+)Regret`)

// Scenario is the queryable view over one simulator run
type Scenario struct {
	ID       core.ID
	Source   string
	LoadedAt core.Timestamp

	Metadata      Metadata
	Methods       []string
	MethodRegrets map[string][]float64
	PlMargins     []float64
	Regrets       []RegretVector
	CovMats       []CovarianceMatrix

	fingerprint core.Hash
	anomalies   int
	trialCount  int
}

// MethodFromColumn extracts the voting method from a "<method>Regret" column
func MethodFromColumn(column string) (string, bool) {
	m := methodColumn.FindStringSubmatch(column)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FromTrials builds a Scenario from reader output. Series and log data are
// shared with the Trials value, not copied; neither is mutated afterwards.
func FromTrials(t *Trials) (*Scenario, error) {
	if t == nil {
		return nil, fmt.Errorf("scenario: nil trials")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	s := &Scenario{
		ID:            core.NewID(),
		Source:        t.SourcePath,
		LoadedAt:      core.Now(),
		Metadata:      t.Metadata,
		MethodRegrets: make(map[string][]float64),
		Regrets:       t.Regrets,
		CovMats:       t.CovMats,
		fingerprint:   t.Fingerprint,
		anomalies:     len(t.Anomalies),
		trialCount:    t.TrialCount(),
	}

	for _, col := range t.Columns {
		method, ok := MethodFromColumn(col)
		if !ok {
			continue
		}
		// A later column for the same method replaces the earlier binding
		if _, seen := s.MethodRegrets[method]; !seen {
			s.Methods = append(s.Methods, method)
		}
		s.MethodRegrets[method] = t.Results[col]
	}

	margins, ok := t.Results[MarginColumn]
	if !ok {
		return nil, core.NewMissingColumnError(MarginColumn)
	}
	s.PlMargins = margins

	return s, nil
}

// NCand returns the candidate count taken from the first regret vector
func (s *Scenario) NCand() (int, error) {
	if len(s.Regrets) == 0 {
		return 0, fmt.Errorf("%w: %s has no logged regret vectors", core.ErrNoTrialData, s.Source)
	}
	return len(s.Regrets[0]), nil
}

// TrialCount returns the number of CSV trials
func (s *Scenario) TrialCount() int {
	return s.trialCount
}

// LogTrialCount returns the number of trials reconstructed from the log
func (s *Scenario) LogTrialCount() int {
	return len(s.Regrets)
}

// HasLogData reports whether regret vectors and covariance matrices are available
func (s *Scenario) HasLogData() bool {
	return len(s.Regrets) > 0
}

// MethodSeries returns the per-trial regrets of a method
func (s *Scenario) MethodSeries(method string) ([]float64, error) {
	series, ok := s.MethodRegrets[method]
	if !ok {
		return nil, core.NewUnknownMethodError(method)
	}
	return series, nil
}

// Fingerprint identifies the input files the scenario was read from
func (s *Scenario) Fingerprint() core.Hash {
	return s.fingerprint
}

// AnomalyCount returns the number of truncated CSV rows seen while reading
func (s *Scenario) AnomalyCount() int {
	return s.anomalies
}
