package trialfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"simvote/domain/core"
	"simvote/domain/scenario"
	"simvote/internal"
)

// Lines before the column-name record. Simulator output has a metadata key
// line, a metadata value line and one separator line. The compact layout has
// a single record of key=value fields followed by the separator.
const (
	headerLines        = 3
	compactHeaderLines = 2
)

// Reader reads a simulator results CSV and its sibling .log file
type Reader struct {
	logger *internal.Logger
}

// NewReader creates a reader reporting diagnostics to logger (nil uses the default logger)
func NewReader(logger *internal.Logger) *Reader {
	return &Reader{logger: logger.OrDefault()}
}

// LogPathFor returns the sibling log path: the CSV path with its extension replaced by .log
func LogPathFor(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".log"
}

// Read parses csvPath and, when present, its sibling log file
func (r *Reader) Read(csvPath string) (*scenario.Trials, error) {
	startTime := time.Now()
	r.logger.Debug("[TrialReader] Reading %s", csvPath)

	csvData, err := readWhole(csvPath)
	if err != nil {
		return nil, err
	}

	trials := &scenario.Trials{
		SourcePath: csvPath,
		LogPath:    LogPathFor(csvPath),
		Regrets:    []scenario.RegretVector{},
		CovMats:    []scenario.CovarianceMatrix{},
	}
	if err := r.parseCSV(csvPath, csvData, trials); err != nil {
		return nil, err
	}

	logData, err := readWhole(trials.LogPath)
	switch {
	case errors.Is(err, core.ErrMissingFile):
		r.logger.Debug("[TrialReader] No log file %s; regrets and covariance matrices unavailable", trials.LogPath)
	case err != nil:
		return nil, err
	default:
		trials.HasLog = true
		ls := newLogScanner(trials.LogPath)
		if err := ls.scan(bytes.NewReader(logData)); err != nil {
			return nil, err
		}
		trials.Regrets = ls.regrets
		trials.CovMats = ls.covMats
	}

	trials.Fingerprint = core.ComputeInputFingerprint(csvData, logData, trials.HasLog)

	if err := trials.Validate(); err != nil {
		return nil, err
	}

	r.logger.Info("[TrialReader] %s read in %.2fms (%d columns, %d trials, %d logged trials, %d anomalies)",
		csvPath, core.Millis(startTime), len(trials.Columns), trials.TrialCount(), len(trials.Regrets), len(trials.Anomalies))
	return trials, nil
}

// Load reads csvPath and builds the scenario view over it
func (r *Reader) Load(csvPath string) (*scenario.Scenario, error) {
	trials, err := r.Read(csvPath)
	if err != nil {
		return nil, err
	}
	return scenario.FromTrials(trials)
}

// readWhole buffers a file fully; the handle is closed before returning
func readWhole(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.NewMissingFileError(path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// parseCSV fills metadata, columns and results from the CSV contents
func (r *Reader) parseCSV(path string, data []byte, trials *scenario.Trials) error {
	br := bufio.NewReader(bytes.NewReader(data))

	keys, err := readHeaderRecord(br)
	if err != nil {
		return core.NewParseError(path, 1, fmt.Sprintf("metadata keys: %v", err))
	}
	values, err := readHeaderRecord(br)
	if err != nil {
		return core.NewParseError(path, 2, fmt.Sprintf("metadata values: %v", err))
	}

	offset := headerLines
	if len(values) == 0 && isKeyValueRecord(keys) {
		// The blank second line was the separator
		offset = compactHeaderLines
		trials.Metadata = make(scenario.Metadata, len(keys))
		for _, field := range keys {
			key, value, _ := strings.Cut(field, "=")
			trials.Metadata[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	} else {
		trials.Metadata = make(scenario.Metadata, len(keys))
		for i, key := range keys {
			if i < len(values) {
				trials.Metadata[key] = values[i]
			} else {
				trials.Metadata[key] = ""
			}
		}
		if len(values) > len(keys) {
			r.logger.Warn("[TrialReader] %s:2: %d metadata values for %d keys; extra values ignored", path, len(values), len(keys))
		}

		// Separator line between the metadata record and the results table
		if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	columns, err := cr.Read()
	if err == io.EOF {
		return core.NewParseError(path, offset+1, "missing column header record")
	}
	if err != nil {
		return core.NewParseError(path, offset+1, err.Error())
	}
	trials.Columns = make([]string, len(columns))
	trials.Results = make(scenario.ResultTable, len(columns))
	for i, col := range columns {
		col = strings.TrimSpace(col)
		trials.Columns[i] = col
		trials.Results[col] = []float64{}
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine + offset
			}
			return core.NewParseError(path, line, err.Error())
		}
		line, _ := cr.FieldPos(0)
		line += offset

		if len(row) < len(trials.Columns) {
			return core.NewParseError(path, line, fmt.Sprintf("%d values for %d columns", len(row), len(trials.Columns)))
		}
		for i, col := range trials.Columns {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return core.NewParseError(path, line, fmt.Sprintf("column %q: %v", col, err))
			}
			trials.Results[col] = append(trials.Results[col], v)
		}
		if len(row) > len(trials.Columns) {
			anomaly := scenario.RowAnomaly{Line: line, Declared: len(trials.Columns), Got: len(row)}
			trials.Anomalies = append(trials.Anomalies, anomaly)
			r.logger.Warn("[TrialReader] %s: too many values in a row (%s); extra values dropped", path, anomaly)
		}
	}
	return nil
}

// isKeyValueRecord reports whether every field of a non-empty record is key=value
func isKeyValueRecord(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !strings.Contains(f, "=") {
			return false
		}
	}
	return true
}

// readHeaderRecord reads one line and splits it as a CSV record
func readHeaderRecord(br *bufio.Reader) ([]string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return nil, errors.New("unexpected end of file")
		}
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return []string{}, nil
	}

	rec, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, err
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec, nil
}
