// Package decoration projects the breakpoint set and the paused execution
// frame into the ordered decoration descriptors an editor surface displays.
package decoration

import (
	"fmt"

	"github.com/mfriel/breakline/internal/breakpoint"
)

// Class is the visual class of a breakpoint marker. Exactly one class
// applies per record.
type Class int

const (
	// ClassDisabled marks a disabled breakpoint.
	ClassDisabled Class = iota
	// ClassLogpoint marks a logpoint.
	ClassLogpoint
	// ClassConditional marks a conditional breakpoint.
	ClassConditional
	// ClassVerified marks an adapter-confirmed breakpoint.
	ClassVerified
	// ClassUnverified marks a breakpoint awaiting adapter confirmation.
	ClassUnverified
	// ClassCurrentLine marks the paused execution line.
	ClassCurrentLine
)

// String returns a string representation of the class.
func (c Class) String() string {
	switch c {
	case ClassDisabled:
		return "disabled"
	case ClassLogpoint:
		return "logpoint"
	case ClassConditional:
		return "conditional"
	case ClassVerified:
		return "verified"
	case ClassUnverified:
		return "unverified"
	case ClassCurrentLine:
		return "current-line"
	default:
		return "unknown"
	}
}

// ClassFor chooses the visual class for a record. Priority: disabled,
// then logpoint, then conditional, then verified, then unverified.
func ClassFor(bp breakpoint.Breakpoint) Class {
	switch {
	case !bp.Enabled:
		return ClassDisabled
	case bp.LogMessage != "":
		return ClassLogpoint
	case bp.Condition != "":
		return ClassConditional
	case bp.Verified:
		return ClassVerified
	default:
		return ClassUnverified
	}
}

// HoverText builds the marker's hover text. The priority mirrors the
// class order, then falls through hit condition and adapter message to a
// generic label.
func HoverText(bp breakpoint.Breakpoint) string {
	switch {
	case !bp.Enabled:
		return "Disabled Breakpoint"
	case bp.LogMessage != "":
		return fmt.Sprintf("Logpoint: %s", bp.LogMessage)
	case bp.Condition != "":
		return fmt.Sprintf("Conditional breakpoint: %s", bp.Condition)
	case bp.HitCondition != "":
		return fmt.Sprintf("Hit count breakpoint: %s", bp.HitCondition)
	case bp.Message != "":
		return bp.Message
	default:
		return "Breakpoint"
	}
}

// Descriptor is one visual marker handed to the editor surface.
type Descriptor struct {
	// Line is the anchor line (1-based).
	Line int

	// Column is the anchor column for inline markers, 0 otherwise.
	Column int

	// Class is the visual class.
	Class Class

	// Inline marks a column-anchored "diamond" marker rather than a
	// whole-line gutter marker.
	Inline bool

	// Hover is the marker's hover text.
	Hover string
}

// Surface is the editor surface's delta-apply primitive. ApplyDeltas
// replaces the decorations identified by old with the given descriptors
// and returns the new identifiers; the returned handles are the only
// valid input for the next call. Reveal scrolls the surface to a line.
type Surface interface {
	ApplyDeltas(old []string, next []Descriptor) ([]string, error)
	Reveal(line int)
}
