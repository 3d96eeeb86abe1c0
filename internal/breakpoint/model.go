// Package breakpoint provides the breakpoint record model, the hit-count
// and log-message grammar, and position classification for source files.
package breakpoint

import "fmt"

// Kind represents the kind of breakpoint.
type Kind int

const (
	// KindLine is a standard line breakpoint.
	KindLine Kind = iota
	// KindInline is a column-qualified breakpoint within a line.
	KindInline
	// KindConditional is a breakpoint with a condition expression.
	KindConditional
	// KindLogpoint logs an interpolated message instead of stopping.
	KindLogpoint
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindInline:
		return "inline"
	case KindConditional:
		return "conditional"
	case KindLogpoint:
		return "logpoint"
	default:
		return "unknown"
	}
}

// Breakpoint represents a user-defined breakpoint.
//
// A breakpoint is keyed by (Path, Line, Column). Column 0 means the
// breakpoint is line-level; any other value marks it inline. A line-level
// and an inline breakpoint may coexist on the same line and are never
// merged.
type Breakpoint struct {
	// ID is a unique identifier for this breakpoint.
	ID int `json:"id"`

	// Path is the source file path.
	Path string `json:"path"`

	// Line is the line number (1-based).
	Line int `json:"line"`

	// Column is the column number (1-based). Zero means line-level.
	Column int `json:"column,omitempty"`

	// Enabled indicates if the breakpoint is enabled.
	Enabled bool `json:"enabled"`

	// Verified indicates if the adapter confirmed the breakpoint location.
	// Verified and Enabled are independent axes.
	Verified bool `json:"verified"`

	// Condition is the boolean condition expression, opaque to the engine.
	Condition string `json:"condition,omitempty"`

	// HitCondition is the hit count condition in canonical form ("= 3",
	// ">= 3", "> 3", or "% 3 == 0").
	HitCondition string `json:"hitCondition,omitempty"`

	// LogMessage, when set, marks this record a logpoint. It may carry
	// {expression} interpolation spans.
	LogMessage string `json:"logMessage,omitempty"`

	// Message is an adapter-supplied status message, display-only.
	Message string `json:"message,omitempty"`

	// HitCount is the number of times this breakpoint has been hit.
	HitCount int `json:"hitCount"`
}

// Key returns the uniqueness key for this breakpoint.
func (b *Breakpoint) Key() Key {
	return Key{Path: b.Path, Line: b.Line, Column: b.Column}
}

// IsInline returns true if the breakpoint is column-qualified.
func (b *Breakpoint) IsInline() bool {
	return b.Column > 0
}

// IsLogpoint returns true if the breakpoint carries a log message.
func (b *Breakpoint) IsLogpoint() bool {
	return b.LogMessage != ""
}

// Kind returns the record-level kind for menus and hooks.
func (b *Breakpoint) Kind() Kind {
	switch {
	case b.LogMessage != "":
		return KindLogpoint
	case b.Condition != "":
		return KindConditional
	case b.Column > 0:
		return KindInline
	default:
		return KindLine
	}
}

// FormatLocation returns a formatted location string like "file.go:42" or
// "file.go:42:7" for inline breakpoints.
func (b *Breakpoint) FormatLocation() string {
	if b.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", b.Path, b.Line, b.Column)
	}
	return fmt.Sprintf("%s:%d", b.Path, b.Line)
}

// Key identifies a breakpoint position. Column 0 identifies the line-level
// slot; at most one breakpoint exists per key.
type Key struct {
	Path   string
	Line   int
	Column int
}

// String returns a string representation of the key.
func (k Key) String() string {
	if k.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", k.Path, k.Line, k.Column)
	}
	return fmt.Sprintf("%s:%d", k.Path, k.Line)
}

// AccessType represents how a data breakpoint triggers.
type AccessType string

const (
	// AccessRead triggers on variable reads.
	AccessRead AccessType = "read"
	// AccessWrite triggers on variable writes.
	AccessWrite AccessType = "write"
	// AccessReadWrite triggers on both reads and writes.
	AccessReadWrite AccessType = "readWrite"
)

// Valid returns true if the access type is one of the known values.
func (a AccessType) Valid() bool {
	return a == AccessRead || a == AccessWrite || a == AccessReadWrite
}

// DataBreakpoint represents a watchpoint on a variable expression rather
// than a source location.
type DataBreakpoint struct {
	// ID is a unique identifier for this data breakpoint.
	ID int `json:"id"`

	// Expression is the watched variable expression. Never empty.
	Expression string `json:"expression"`

	// Access is when the watchpoint triggers.
	Access AccessType `json:"accessType"`

	// Condition is an optional condition expression.
	Condition string `json:"condition,omitempty"`

	// Enabled indicates if the data breakpoint is enabled.
	Enabled bool `json:"enabled"`

	// Verified indicates if the adapter confirmed the watchpoint.
	Verified bool `json:"verified"`
}

// StepInTarget represents a possible step-in target for a paused frame.
type StepInTarget struct {
	// ID is the unique identifier for this target.
	ID int

	// Label is the display name for this target.
	Label string

	// Line is the optional line of the target call site.
	Line int

	// Column is the optional column of the target call site.
	Column int
}
