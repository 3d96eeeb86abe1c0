package session

import (
	"context"

	"github.com/mfriel/breakline/internal/breakpoint"
)

// Adapter is the boundary to the out-of-process debug adapter. The engine
// only relies on the contract below; spawning, transport, and expression
// evaluation live on the other side of it.
type Adapter interface {
	// VerifyBreakpoints submits a file's breakpoint set and returns one
	// verification result per submitted breakpoint, in order.
	VerifyBreakpoints(ctx context.Context, path string, bps []breakpoint.Breakpoint) ([]Verification, error)

	// StepInTargets fetches the candidate call targets for a paused frame.
	StepInTargets(ctx context.Context, frameID int) ([]breakpoint.StepInTarget, error)

	// StepInto steps into the given target.
	StepInto(ctx context.Context, targetID int) error
}

// Verification is the adapter's answer for one submitted breakpoint.
type Verification struct {
	// Verified indicates the adapter confirmed the location.
	Verified bool

	// Message is an optional human-readable status (e.g. an error reason).
	Message string

	// Line is the actual line the adapter bound, or 0 if unchanged.
	Line int
}

// Source describes the origin of a stack frame.
type Source struct {
	// Name is the short display name of the source.
	Name string

	// Path is the source file path, if known.
	Path string
}

// StackFrame is one frame of the paused call stack.
type StackFrame struct {
	// ID is the unique frame identifier.
	ID int

	// Name is the function name.
	Name string

	// Source is the frame's source location.
	Source Source

	// Line is the current line in the source (1-based).
	Line int

	// Column is the current column, or 0 if unknown.
	Column int
}
