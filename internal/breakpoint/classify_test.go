package breakpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPartition(t *testing.T) {
	records := []Breakpoint{
		{ID: 1, Path: "a.go", Line: 10},
		{ID: 2, Path: "a.go", Line: 10, Column: 5},
		{ID: 3, Path: "a.go", Line: 20},
		{ID: 4, Path: "a.go", Line: 20, Column: 1},
		{ID: 5, Path: "a.go", Line: 30},
	}

	c := Classify(records)

	assert.Len(t, c.LineLevel, 3)
	assert.Len(t, c.Inline, 2)
	// No overlap, no loss.
	assert.Equal(t, len(records), len(c.LineLevel)+len(c.Inline))
	for _, bp := range c.LineLevel {
		assert.False(t, bp.IsInline())
	}
	for _, bp := range c.Inline {
		assert.True(t, bp.IsInline())
	}
}

func TestClassifyEmpty(t *testing.T) {
	c := Classify(nil)
	assert.Empty(t, c.LineLevel)
	assert.Empty(t, c.Inline)
}

func TestFindAt(t *testing.T) {
	records := []Breakpoint{
		{ID: 1, Path: "a.go", Line: 10},
		{ID: 2, Path: "a.go", Line: 10, Column: 5},
	}

	// Line-level lookup never matches the inline record on the same line.
	bp, ok := FindAt(records, 10, 0)
	assert.True(t, ok)
	assert.Equal(t, 1, bp.ID)

	bp, ok = FindAt(records, 10, 5)
	assert.True(t, ok)
	assert.Equal(t, 2, bp.ID)

	_, ok = FindAt(records, 10, 6)
	assert.False(t, ok)

	_, ok = FindAt(records, 11, 0)
	assert.False(t, ok)
}

func TestBreakpointKind(t *testing.T) {
	tests := []struct {
		name string
		bp   Breakpoint
		want Kind
	}{
		{"plain line", Breakpoint{Line: 1}, KindLine},
		{"inline", Breakpoint{Line: 1, Column: 3}, KindInline},
		{"conditional", Breakpoint{Line: 1, Condition: "x > 0"}, KindConditional},
		{"logpoint", Breakpoint{Line: 1, LogMessage: "hit {x}"}, KindLogpoint},
		// Log message wins over condition: a conditional logpoint is a logpoint.
		{"conditional logpoint", Breakpoint{Line: 1, Condition: "x", LogMessage: "m"}, KindLogpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bp.Kind())
		})
	}
}
