package raw

import (
	"errors"
	"strings"
)

// variant is one candidate shape of an untagged union. decode must leave its own target
// untouched by the other variants, so each variant decodes into a private value.
type variant struct {
	name   string
	decode func(data []byte) error
}

// matchVariant attempts every variant and returns the index of the single one that accepts
// data. Acceptance never depends on the order of variants.
func matchVariant(data []byte, what string, variants ...variant) (int, error) {
	matched := -1
	var failures []error
	for i, v := range variants {
		if err := v.decode(data); err != nil {
			failures = append(failures, err)
			continue
		}
		if matched >= 0 {
			return -1, Violation("", "ambiguous %s: matches both %s and %s", what, variants[matched].name, v.name)
		}
		matched = i
	}
	if matched >= 0 {
		return matched, nil
	}
	if deepest := deepestViolation(failures); deepest != nil {
		return -1, deepest
	}
	return -1, Violation("", "expected %s, got %s", what, kindOf(data))
}

// deepestViolation picks the failure that got furthest into the document. A failure at the
// union's own position only says the shape was wrong, which the caller reports better.
func deepestViolation(failures []error) *SchemaViolation {
	var best *SchemaViolation
	for _, err := range failures {
		var sv *SchemaViolation
		if !errors.As(err, &sv) || sv.Path == "" {
			continue
		}
		if best == nil || depth(sv.Path) > depth(best.Path) {
			best = sv
		}
	}
	return best
}

func depth(path string) int {
	return strings.Count(path, ".") + strings.Count(path, "[") + 1
}
