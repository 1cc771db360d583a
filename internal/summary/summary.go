package summary

import (
	"fmt"
	"sort"

	"simvote/domain/scenario"

	"github.com/montanaflynn/stats"
)

// MethodSummary holds the regret statistics of one voting method
type MethodSummary struct {
	Method  string `json:"method"`
	Column  string `json:"column"`
	Trials  int    `json:"trials"`
	NonZero int    `json:"non_zero"`

	Mean        float64 `json:"mean"`
	FracNonZero float64 `json:"frac_non_zero"`
	MeanNonZero float64 `json:"mean_non_zero"`

	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
	// Whiskers of the regret spread
	P1  float64 `json:"p1"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`

	// NonZeroValues are the strictly positive regrets, in trial order
	NonZeroValues []float64 `json:"-"`
}

// String renders the one-line summary printed for every method
func (m MethodSummary) String() string {
	return fmt.Sprintf("%-16s: avg %.3f  %.3f%% non-zero  %.3f mean-non-zero",
		m.Column, m.Mean, m.FracNonZero*100, m.MeanNonZero)
}

// MarginSummary describes the strategic plurality margin-of-victory column
type MarginSummary struct {
	Trials    int        `json:"trials"`
	Mean      float64    `json:"mean"`
	StdDev    float64    `json:"std_dev"`
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	Histogram *Histogram `json:"histogram"`
}

// ScenarioSummary is the complete summary of one scenario
type ScenarioSummary struct {
	Source    string            `json:"source"`
	Metadata  map[string]string `json:"metadata"`
	Trials    int               `json:"trials"`
	LogTrials int               `json:"log_trials"`
	NCand     int               `json:"ncand"`
	Anomalies int               `json:"anomalies"`
	Methods   []MethodSummary   `json:"methods"`
	Margin    MarginSummary     `json:"margin"`
}

// MetadataKeys returns the metadata keys in sorted order
func (s *ScenarioSummary) MetadataKeys() []string {
	keys := make([]string, 0, len(s.Metadata))
	for k := range s.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summarize computes per-method and margin statistics for s. The margin
// histogram uses bins equal-width bins.
func Summarize(s *scenario.Scenario, bins int) (*ScenarioSummary, error) {
	if bins < 1 {
		return nil, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}

	out := &ScenarioSummary{
		Source:    s.Source,
		Metadata:  s.Metadata,
		Trials:    s.TrialCount(),
		LogTrials: s.LogTrialCount(),
		Anomalies: s.AnomalyCount(),
	}
	if n, err := s.NCand(); err == nil {
		out.NCand = n
	}

	for _, method := range s.Methods {
		series, err := s.MethodSeries(method)
		if err != nil {
			return nil, err
		}
		ms, err := SummarizeMethod(method, series)
		if err != nil {
			return nil, err
		}
		out.Methods = append(out.Methods, ms)
	}

	margin, err := summarizeMargin(s.PlMargins, bins)
	if err != nil {
		return nil, err
	}
	out.Margin = margin
	return out, nil
}

// SummarizeMethod computes the statistics of a single regret series. An
// empty series yields zero counts and zero statistics.
func SummarizeMethod(method string, series []float64) (MethodSummary, error) {
	ms := MethodSummary{
		Method:        method,
		Column:        method + "Regret",
		Trials:        len(series),
		NonZeroValues: []float64{},
	}
	if len(series) == 0 {
		return ms, nil
	}

	for _, v := range series {
		if v > 0.0 {
			ms.NonZeroValues = append(ms.NonZeroValues, v)
		}
	}
	ms.NonZero = len(ms.NonZeroValues)
	ms.FracNonZero = float64(ms.NonZero) / float64(ms.Trials)

	var err error
	if ms.Mean, err = stats.Mean(series); err != nil {
		return ms, err
	}
	if ms.NonZero > 0 {
		if ms.MeanNonZero, err = stats.Mean(ms.NonZeroValues); err != nil {
			return ms, err
		}
	}
	if ms.Median, err = stats.Median(series); err != nil {
		return ms, err
	}
	if ms.Max, err = stats.Max(series); err != nil {
		return ms, err
	}

	// Nearest-rank percentiles stay defined for short series
	for _, p := range []struct {
		dst     *float64
		percent float64
	}{
		{&ms.P1, 1}, {&ms.Q25, 25}, {&ms.Q75, 75}, {&ms.P99, 99},
	} {
		if *p.dst, err = stats.PercentileNearestRank(series, p.percent); err != nil {
			return ms, err
		}
	}
	return ms, nil
}

func summarizeMargin(margins []float64, bins int) (MarginSummary, error) {
	ms := MarginSummary{Trials: len(margins)}

	hist, err := NewHistogram(margins, bins)
	if err != nil {
		return ms, err
	}
	ms.Histogram = hist
	if len(margins) == 0 {
		return ms, nil
	}

	if ms.Mean, err = stats.Mean(margins); err != nil {
		return ms, err
	}
	if ms.StdDev, err = stats.StandardDeviation(margins); err != nil {
		return ms, err
	}
	if ms.Min, err = stats.Min(margins); err != nil {
		return ms, err
	}
	if ms.Max, err = stats.Max(margins); err != nil {
		return ms, err
	}
	return ms, nil
}
