package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Falls back to v4 if v7 fails
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Short returns the first 8 characters, used for artifact file names
func (id ID) Short() string {
	s := strings.ReplaceAll(string(id), "-", "")
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// MethodName names a voting method, e.g. "IRV" for the "IRVRegret" column
type MethodName string

func (m MethodName) String() string { return string(m) }

// ParseMethodName parses a voting method name as passed on the command line
func ParseMethodName(s string) (MethodName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("method name cannot be empty")
	}
	// Accept the column spelling too ("PlRegret" -> "Pl")
	if trimmed := strings.TrimSuffix(s, "Regret"); trimmed != "" {
		s = trimmed
	}
	return MethodName(s), nil
}
