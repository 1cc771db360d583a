package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrMissingFile  = errors.New("input file not found")
	ErrParse        = errors.New("parse error")
	ErrOrphanCovRow = fmt.Errorf("%w: orphan covariance row", ErrParse)

	// Shape errors
	ErrMissingColumn = errors.New("missing column")
	ErrNoTrialData   = errors.New("no trial data")
	ErrTrialMismatch = errors.New("trial count mismatch")
	ErrShapeMismatch = errors.New("matrix shape mismatch")
	ErrUnknownMethod = errors.New("unknown voting method")
)

// Error constructors with context
func NewMissingFileError(path string) error {
	return fmt.Errorf("%w: %s", ErrMissingFile, path)
}

func NewParseError(path string, line int, reason string) error {
	return fmt.Errorf("%w: %s:%d: %s", ErrParse, path, line, reason)
}

func NewOrphanCovRowError(path string, line int) error {
	return fmt.Errorf("%w at %s:%d", ErrOrphanCovRow, path, line)
}

func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, column)
}

func NewTrialMismatchError(reason string) error {
	return fmt.Errorf("%w: %s", ErrTrialMismatch, reason)
}

func NewShapeMismatchError(reason string) error {
	return fmt.Errorf("%w: %s", ErrShapeMismatch, reason)
}

func NewUnknownMethodError(method string) error {
	return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrParse)
}

func IsShapeError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrNoTrialData) ||
		errors.Is(err, ErrTrialMismatch) ||
		errors.Is(err, ErrShapeMismatch)
}
