package alias

import (
	"strings"

	"reelcache/internal/textutil"
)

// ShouldAdd reports whether candidate may be appended to existing. The
// candidate is rejected when it is blank or when it equals, ignoring case,
// the canonical title or any existing entry. Comparison is anchored at both
// ends: "Up" is not a duplicate of "Up in the Air".
func ShouldAdd(candidate string, existing []string, canonical string) bool {
	folded := textutil.Fold(candidate)
	if folded == "" {
		return false
	}
	if canonical != "" && textutil.Fold(canonical) == folded {
		return false
	}
	for _, value := range existing {
		if textutil.Fold(value) == folded {
			return false
		}
	}
	return true
}

// Append adds each candidate that passes ShouldAdd, preserving order. A
// limit greater than zero caps the resulting length.
func Append(existing []string, canonical string, limit int, candidates ...string) []string {
	for _, candidate := range candidates {
		if limit > 0 && len(existing) >= limit {
			break
		}
		if !ShouldAdd(candidate, existing, canonical) {
			continue
		}
		existing = append(existing, strings.TrimSpace(candidate))
	}
	return existing
}
