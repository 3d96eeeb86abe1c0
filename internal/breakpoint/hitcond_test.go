package breakpoint

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHitCondition(t *testing.T) {
	tests := []struct {
		op       HitOp
		n        int
		expected string
	}{
		{HitOpEqual, 3, "= 3"},
		{HitOpGreaterEqual, 10, ">= 10"},
		{HitOpGreater, 1, "> 1"},
		{HitOpMultiple, 3, "% 3 == 0"},
		{HitOpMultiple, 100, "% 100 == 0"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatHitCondition(tt.op, tt.n))
		})
	}
}

func TestParseHitCondition(t *testing.T) {
	tests := []struct {
		input    string
		fallback HitOp
		want     HitCondition
		wantErr  bool
	}{
		{"= 5", HitOpGreaterEqual, HitCondition{HitOpEqual, 5}, false},
		{">= 5", HitOpEqual, HitCondition{HitOpGreaterEqual, 5}, false},
		{"> 5", HitOpEqual, HitCondition{HitOpGreater, 5}, false},
		{"% 3 == 0", HitOpEqual, HitCondition{HitOpMultiple, 3}, false},
		// Bare number keeps the caller's fallback operator.
		{"7", HitOpEqual, HitCondition{HitOpEqual, 7}, false},
		{"7", HitOpMultiple, HitCondition{HitOpMultiple, 7}, false},
		// Invalid fallback degrades to >=.
		{"7", HitOp("?"), HitCondition{HitOpGreaterEqual, 7}, false},
		{"  > 12  ", HitOpEqual, HitCondition{HitOpGreater, 12}, false},
		{"", HitOpGreaterEqual, HitCondition{}, true},
		{"abc", HitOpGreaterEqual, HitCondition{}, true},
		{"> x", HitOpGreaterEqual, HitCondition{}, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q/%s", tt.input, tt.fallback), func(t *testing.T) {
			got, err := ParseHitCondition(tt.input, tt.fallback)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHitConditionRoundTrip(t *testing.T) {
	ops := []HitOp{HitOpEqual, HitOpGreaterEqual, HitOpGreater, HitOpMultiple}
	counts := []int{1, 2, 3, 10, 99, 1000}

	for _, op := range ops {
		for _, n := range counts {
			s := FormatHitCondition(op, n)
			got, err := ParseHitCondition(s, HitOpGreaterEqual)
			assert.NoError(t, err, "parse %q", s)
			assert.Equal(t, HitCondition{Op: op, Count: n}, got, "round trip %q", s)
		}
	}
}

func TestParseHitConditionPrefixPriority(t *testing.T) {
	// ">= 4" must parse as >= even though "> " is also a valid prefix of
	// the string when mis-ordered.
	got, err := ParseHitCondition(">= 4", HitOpEqual)
	assert.NoError(t, err)
	assert.Equal(t, HitOpGreaterEqual, got.Op)
}
