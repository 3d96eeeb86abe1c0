package breakpoint

import (
	"fmt"
	"strconv"
	"strings"
)

// HitOp is a hit-count comparison operator.
type HitOp string

const (
	// HitOpEqual breaks when the hit count equals N.
	HitOpEqual HitOp = "="
	// HitOpGreaterEqual breaks once the hit count reaches N.
	HitOpGreaterEqual HitOp = ">="
	// HitOpGreater breaks after the hit count exceeds N.
	HitOpGreater HitOp = ">"
	// HitOpMultiple breaks on every Nth hit.
	HitOpMultiple HitOp = "%"
)

// Valid returns true if the operator is one of the known values.
func (op HitOp) Valid() bool {
	switch op {
	case HitOpEqual, HitOpGreaterEqual, HitOpGreater, HitOpMultiple:
		return true
	}
	return false
}

// HitCondition is a parsed hit-count condition.
type HitCondition struct {
	Op    HitOp
	Count int
}

// FormatHitCondition renders the canonical stored form of a hit condition.
// The multiple operator stores as a modulo comparison, e.g. "% 3 == 0";
// every other operator stores as "<op> <n>".
func FormatHitCondition(op HitOp, n int) string {
	if op == HitOpMultiple {
		return fmt.Sprintf("%% %d == 0", n)
	}
	return fmt.Sprintf("%s %d", op, n)
}

// ParseHitCondition parses a stored or user-entered hit condition.
//
// Recognized prefixes are checked in order "% ", ">= ", "> ", "= "; the
// ">= " check must run before "> ". Input with no recognized prefix is
// treated as a bare count under the fallback operator. An empty or
// non-numeric remainder is an error; callers map empty input to "no hit
// condition" before calling.
func ParseHitCondition(s string, fallback HitOp) (HitCondition, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return HitCondition{}, fmt.Errorf("empty hit condition")
	}
	if !fallback.Valid() {
		fallback = HitOpGreaterEqual
	}

	op := fallback
	rest := s
	for _, candidate := range []HitOp{HitOpMultiple, HitOpGreaterEqual, HitOpGreater, HitOpEqual} {
		if strings.HasPrefix(s, string(candidate)+" ") {
			op = candidate
			rest = strings.TrimSpace(s[len(candidate)+1:])
			break
		}
	}

	if op == HitOpMultiple {
		// Strip the "== 0" tail of the canonical modulo form.
		rest = strings.TrimSpace(strings.TrimSuffix(rest, "== 0"))
	}

	n, err := strconv.Atoi(rest)
	if err != nil {
		return HitCondition{}, fmt.Errorf("parse hit count %q: %w", rest, err)
	}

	return HitCondition{Op: op, Count: n}, nil
}
