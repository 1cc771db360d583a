package trialfile

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"simvote/domain/core"
	"simvote/domain/scenario"
)

var (
	// "Regrets: [0.0, 1.5, 2.0]"
	regretLine = regexp.MustCompile(`^Regrets: (\[[\d.\-+eE, ]+\])$`)
	// " [2]     0.300000    0.100000    1.000000"
	covRowLine = regexp.MustCompile(`^ \[(\d+)\] +(-?\d.*)$`)
)

// logScanner reconstructs regret vectors and covariance matrices from the
// simulator's log output
type logScanner struct {
	path string

	regrets []scenario.RegretVector
	covMats []scenario.CovarianceMatrix

	current scenario.RegretVector
	pending scenario.CovarianceMatrix
}

func newLogScanner(path string) *logScanner {
	return &logScanner{
		path:    path,
		regrets: []scenario.RegretVector{},
		covMats: []scenario.CovarianceMatrix{},
	}
}

// scan processes every line of r; lines matching neither pattern are ignored
func (ls *logScanner) scan(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := ls.line(lineNo, strings.TrimRight(sc.Text(), " \t\r")); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to scan log file %s: %w", ls.path, err)
	}
	return ls.finish()
}

func (ls *logScanner) line(lineNo int, line string) error {
	if m := regretLine.FindStringSubmatch(line); m != nil {
		if len(ls.pending) > 0 {
			return core.NewTrialMismatchError(fmt.Sprintf("%s:%d: regret vector starts before the previous covariance matrix was complete (%d of %d rows)",
				ls.path, lineNo, len(ls.pending), len(ls.current)))
		}
		values, err := ParseFloatList(m[1])
		if err != nil {
			return core.NewParseError(ls.path, lineNo, err.Error())
		}
		ls.current = scenario.RegretVector(values)
		ls.regrets = append(ls.regrets, ls.current)
		return nil
	}

	if m := covRowLine.FindStringSubmatch(line); m != nil {
		if ls.current == nil {
			return core.NewOrphanCovRowError(ls.path, lineNo)
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return core.NewParseError(ls.path, lineNo, fmt.Sprintf("row index %q: %v", m[1], err))
		}
		row, err := parseFloatFields(m[2])
		if err != nil {
			return core.NewParseError(ls.path, lineNo, err.Error())
		}
		ls.pending = append(ls.pending, row)

		if index == len(ls.current)-1 {
			if len(ls.pending) != len(ls.current) {
				return core.NewShapeMismatchError(fmt.Sprintf("%s:%d: covariance matrix sealed with %d rows for %d candidates",
					ls.path, lineNo, len(ls.pending), len(ls.current)))
			}
			ls.covMats = append(ls.covMats, ls.pending)
			ls.pending = nil
		}
	}
	return nil
}

// finish asserts the regret/covariance pairing at the end of the log
func (ls *logScanner) finish() error {
	if len(ls.pending) > 0 {
		return core.NewTrialMismatchError(fmt.Sprintf("%s: log ends inside a covariance matrix (%d of %d rows)",
			ls.path, len(ls.pending), len(ls.current)))
	}
	if len(ls.regrets) != len(ls.covMats) {
		return core.NewTrialMismatchError(fmt.Sprintf("%s: %d regret vectors but %d covariance matrices",
			ls.path, len(ls.regrets), len(ls.covMats)))
	}
	return nil
}
