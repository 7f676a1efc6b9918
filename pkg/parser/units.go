// Package parser turns raw diagnostic output (kubectl-style tables, event
// JSON, free text) into structured problem records. Everything here is pure:
// no I/O, deterministic for a given input, and best-effort on malformed
// input — bad lines are skipped, never fatal.
package parser

import (
	"strconv"
	"strings"
)

// MemoryToMi converts a memory quantity in mixed units to whole Mi using
// explicit per-suffix integer arithmetic. Decimal suffixes (G, M, K) are
// treated as their binary equivalents, which is close enough for
// thresholding. A bare number is taken as bytes. Returns false when the
// value cannot be parsed.
func MemoryToMi(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	parse := func(v string) (int64, bool) {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}

	switch {
	case strings.HasSuffix(s, "Gi"), strings.HasSuffix(s, "G"):
		v, ok := parse(strings.TrimSuffix(strings.TrimSuffix(s, "Gi"), "G"))
		return v * 1024, ok
	case strings.HasSuffix(s, "Mi"), strings.HasSuffix(s, "M"):
		v, ok := parse(strings.TrimSuffix(strings.TrimSuffix(s, "Mi"), "M"))
		return v, ok
	case strings.HasSuffix(s, "Ki"), strings.HasSuffix(s, "K"):
		v, ok := parse(strings.TrimSuffix(strings.TrimSuffix(s, "Ki"), "K"))
		return v / 1024, ok
	default:
		v, ok := parse(s)
		return v / (1024 * 1024), ok
	}
}

// FormatMi renders a Mi quantity the way kubectl prints it.
func FormatMi(mi int64) string {
	return strconv.FormatInt(mi, 10) + "Mi"
}
