package trialfile

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFloatList parses a bracketed, comma-separated list of floats such as
// "[0.0, -1.5, 2]". A trailing comma is accepted; any other empty or
// non-numeric element is an error.
func ParseFloatList(literal string) ([]float64, error) {
	s := strings.TrimSpace(literal)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("float list %q is not bracketed", literal)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []float64{}, nil
	}

	tokens := strings.Split(inner, ",")
	if strings.TrimSpace(tokens[len(tokens)-1]) == "" {
		tokens = tokens[:len(tokens)-1]
	}

	values := make([]float64, 0, len(tokens))
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, fmt.Errorf("float list %q: empty element %d", literal, i)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("float list %q: element %d: %w", literal, i, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// parseFloatFields parses whitespace-separated floats
func parseFloatFields(s string) ([]float64, error) {
	fields := strings.Fields(s)
	values := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q): %w", i, f, err)
		}
		values = append(values, v)
	}
	return values, nil
}
