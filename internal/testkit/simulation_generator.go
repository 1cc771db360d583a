package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SimulationConfig configures the synthetic simulator output generator
type SimulationConfig struct {
	Trials           int      `json:"trials"`
	Candidates       int      `json:"candidates"`
	Voters           int      `json:"voters"`
	Methods          []string `json:"methods"`
	ZeroRegretRate   float64  `json:"zero_regret_rate"`
	SquareCovariance bool     `json:"square_covariance"`
	Seed             int64    `json:"seed"`
}

// DefaultSimulationConfig mirrors a small simulator run
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Trials:         25,
		Candidates:     4,
		Voters:         40,
		Methods:        []string{"Pl", "SPl", "R10", "IRV", "Borda"},
		ZeroRegretRate: 0.6,
		Seed:           42,
	}
}

// MetaField is one metadata key/value pair, kept in file order
type MetaField struct {
	Key   string
	Value string
}

// SimulationFixture holds generated simulator output together with the
// values a correct reader must reconstruct from it
type SimulationFixture struct {
	Metadata []MetaField
	Columns  []string
	Rows     [][]float64
	Regrets  [][]float64
	CovMats  [][][]float64
}

// SimulationGenerator generates simulator CSV/log pairs
type SimulationGenerator struct {
	config SimulationConfig
	rng    *rand.Rand
}

// NewSimulationGenerator creates a deterministic generator for config
func NewSimulationGenerator(config SimulationConfig) *SimulationGenerator {
	return &SimulationGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces a complete fixture
func (g *SimulationGenerator) Generate() *SimulationFixture {
	cfg := g.config
	f := &SimulationFixture{
		Metadata: []MetaField{
			{"Citizens", strconv.Itoa(cfg.Voters)},
			{"PrimCands", strconv.Itoa(cfg.Candidates + 2)},
			{"Candidates", strconv.Itoa(cfg.Candidates)},
			{"LikeFact", "1.0"},
			{"Issue1Sigma", "2.0"},
			{"Issue2Sigma", "0.5"},
		},
	}
	f.Columns = append(f.Columns, "SPlMargin")
	for _, m := range cfg.Methods {
		f.Columns = append(f.Columns, m+"Regret")
	}

	for i := 0; i < cfg.Trials; i++ {
		utilities := g.utilities()
		regrets := candidateRegrets(utilities)
		f.Regrets = append(f.Regrets, regrets)
		f.CovMats = append(f.CovMats, g.covariance(utilities))

		row := []float64{round6(g.rng.Float64())}
		for range cfg.Methods {
			row = append(row, g.methodRegret(regrets))
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}

// utilities draws a voters x candidates utility matrix
func (g *SimulationGenerator) utilities() *mat.Dense {
	cfg := g.config
	data := make([]float64, cfg.Voters*cfg.Candidates)
	for i := range data {
		data[i] = g.rng.NormFloat64()
	}
	return mat.NewDense(cfg.Voters, cfg.Candidates, data)
}

// candidateRegrets computes each candidate's mean utility shortfall against the best candidate
func candidateRegrets(utilities *mat.Dense) []float64 {
	voters, ncand := utilities.Dims()
	sums := make([]float64, ncand)
	for c := 0; c < ncand; c++ {
		sums[c] = mat.Sum(utilities.ColView(c))
	}
	best := math.Inf(-1)
	for _, s := range sums {
		best = math.Max(best, s)
	}
	regrets := make([]float64, ncand)
	for c, s := range sums {
		regrets[c] = round6((best - s) / float64(voters))
	}
	return regrets
}

// covariance computes the candidate covariance matrix, rounded the way the
// simulator prints it and truncated to the lower triangle unless square output is configured
func (g *SimulationGenerator) covariance(utilities *mat.Dense) [][]float64 {
	_, ncand := utilities.Dims()
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, utilities, nil)

	out := make([][]float64, ncand)
	for ix := 0; ix < ncand; ix++ {
		width := ix + 1
		if g.config.SquareCovariance {
			width = ncand
		}
		out[ix] = make([]float64, width)
		for iy := 0; iy < width; iy++ {
			out[ix][iy] = round6(cov.At(ix, iy))
		}
	}
	return out
}

// methodRegret picks zero with the configured rate, otherwise a non-zero candidate regret
func (g *SimulationGenerator) methodRegret(regrets []float64) float64 {
	if g.rng.Float64() < g.config.ZeroRegretRate {
		return 0.0
	}
	var nonZero []float64
	for _, r := range regrets {
		if r > 0 {
			nonZero = append(nonZero, r)
		}
	}
	if len(nonZero) == 0 {
		return 0.0
	}
	return nonZero[g.rng.Intn(len(nonZero))]
}

// CSV renders the results file: metadata keys, metadata values, a blank
// line, the column names and one row per trial
func (f *SimulationFixture) CSV() string {
	var b strings.Builder
	keys := make([]string, len(f.Metadata))
	values := make([]string, len(f.Metadata))
	for i, m := range f.Metadata {
		keys[i] = m.Key
		values[i] = m.Value
	}
	b.WriteString(strings.Join(keys, ",") + "\n")
	b.WriteString(strings.Join(values, ",") + "\n")
	b.WriteString("\n")
	b.WriteString(strings.Join(f.Columns, ",") + "\n")
	for _, row := range f.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		b.WriteString(strings.Join(cells, ",") + "\n")
	}
	return b.String()
}

// Log renders the simulator's console log for the fixture
func (f *SimulationFixture) Log() string {
	var b strings.Builder
	for i, regrets := range f.Regrets {
		fmt.Fprintf(&b, "Starting trial %d\n", i)
		b.WriteString("Regrets: " + FormatFloatList(regrets) + "\n")
		b.WriteString("Covariance matrix for candidates:\n")
		for ix, row := range f.CovMats[i] {
			fmt.Fprintf(&b, " [%d] ", ix)
			for _, v := range row {
				fmt.Fprintf(&b, " %11.6f", v)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatFloatList formats values like the simulator's debug output: "[0.0, 1.5]"
func FormatFloatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Write stores the fixture as <dir>/<base>.csv and, when withLog is set,
// <dir>/<base>.log. It returns the CSV path.
func (f *SimulationFixture) Write(dir, base string, withLog bool) (string, error) {
	logContent := ""
	if withLog {
		logContent = f.Log()
	}
	return WriteFiles(dir, base, f.CSV(), logContent, withLog)
}

// WriteFiles writes literal CSV and log contents; the log is skipped unless withLog is set
func WriteFiles(dir, base, csvContent, logContent string, withLog bool) (string, error) {
	csvPath := filepath.Join(dir, base+".csv")
	if err := os.WriteFile(csvPath, []byte(csvContent), 0644); err != nil {
		return "", fmt.Errorf("failed to write fixture csv: %w", err)
	}
	if withLog {
		logPath := filepath.Join(dir, base+".log")
		if err := os.WriteFile(logPath, []byte(logContent), 0644); err != nil {
			return "", fmt.Errorf("failed to write fixture log: %w", err)
		}
	}
	return csvPath, nil
}

// MethodSeries returns the generated regrets of a method column
func (f *SimulationFixture) MethodSeries(method string) []float64 {
	for c, col := range f.Columns {
		if col == method+"Regret" {
			series := make([]float64, len(f.Rows))
			for i, row := range f.Rows {
				series[i] = row[c]
			}
			return series
		}
	}
	return nil
}

func round6(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 6, 64), 64)
	return r
}
