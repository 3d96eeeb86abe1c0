// Package session owns the canonical breakpoint state and the paused-frame
// read model. It is the engine's single source of truth: interaction code
// issues mutations here and never applies visual changes itself; the
// decoration pass re-renders from the next snapshot when the session
// publishes a change notification.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/mfriel/breakline/internal/breakpoint"
	"github.com/mfriel/breakline/internal/event"
)

// BreakpointEvent is the payload for debug.breakpoint.* topics.
type BreakpointEvent struct {
	// Breakpoint is a copy of the record after the mutation (for removals,
	// the record as it was removed).
	Breakpoint breakpoint.Breakpoint
}

// PauseEvent is the payload for debug.session.paused.
type PauseEvent struct {
	// Reason is the adapter's stop reason ("breakpoint", "step", ...).
	Reason string

	// TopFrame is the top frame of the paused stack, if any.
	TopFrame StackFrame
}

// ErrorEvent is the payload for debug.error.
type ErrorEvent struct {
	// Op names the failed operation.
	Op string

	// Err is the underlying failure.
	Err error
}

// Facade is the debug-session collaborator the engine talks to. All
// mutation methods publish a change notification on the bus; adapter
// verification runs asynchronously and its failures degrade to an
// ErrorEvent rather than an error return.
type Facade struct {
	store   *breakpoint.Store
	bus     *event.Bus
	adapter Adapter

	mu            sync.RWMutex
	paused        bool
	activeFrameID int
	frames        []StackFrame
}

// NewFacade creates a session facade over a store and bus. The adapter
// may be nil, in which case breakpoints simply stay unverified.
func NewFacade(store *breakpoint.Store, bus *event.Bus, adapter Adapter) *Facade {
	return &Facade{
		store:   store,
		bus:     bus,
		adapter: adapter,
	}
}

// Store exposes the underlying breakpoint store for read paths that need
// direct access (persistence wiring in cmd).
func (f *Facade) Store() *breakpoint.Store {
	return f.store
}

// BreakpointsForFile returns a snapshot of the file's breakpoints, ordered
// by (line, column). Synchronous, no side effects.
func (f *Facade) BreakpointsForFile(path string) []breakpoint.Breakpoint {
	return f.store.ForFile(path)
}

// ToggleBreakpoint adds a breakpoint at the exact key if absent, removes
// it if present. Column 0 addresses the line-level slot.
func (f *Facade) ToggleBreakpoint(ctx context.Context, path string, line, column int) error {
	bp, added := f.store.Toggle(path, line, column)
	if added {
		f.bus.Publish(ctx, event.TopicBreakpointAdded, BreakpointEvent{Breakpoint: bp})
	} else {
		f.bus.Publish(ctx, event.TopicBreakpointRemoved, BreakpointEvent{Breakpoint: bp})
	}
	// The adapter holds the full desired set per file, so removals
	// re-submit just like additions.
	f.verifyAsync(ctx, path)
	return nil
}

// RemoveBreakpoint removes the breakpoint at the exact key.
func (f *Facade) RemoveBreakpoint(ctx context.Context, path string, line, column int) error {
	bp, ok := f.store.FindAt(path, line, column)
	if !ok {
		return fmt.Errorf("remove breakpoint: none at %s", breakpoint.Key{Path: path, Line: line, Column: column})
	}
	if err := f.store.Remove(path, line, column); err != nil {
		return err
	}
	f.bus.Publish(ctx, event.TopicBreakpointRemoved, BreakpointEvent{Breakpoint: bp})
	f.verifyAsync(ctx, path)
	return nil
}

// AddLogpoint creates the logpoint at the exact key or overwrites its
// message. Column 0 addresses the line-level slot.
func (f *Facade) AddLogpoint(ctx context.Context, path string, line, column int, message string) error {
	bp := f.store.AddLogpoint(path, line, column, message)
	f.bus.Publish(ctx, event.TopicBreakpointChanged, BreakpointEvent{Breakpoint: bp})
	f.verifyAsync(ctx, path)
	return nil
}

// ConvertToBreakpoint clears the record's log message at the exact key
// while preserving the rest of the record.
func (f *Facade) ConvertToBreakpoint(ctx context.Context, path string, line, column int) error {
	if err := f.store.ConvertToBreakpoint(path, line, column); err != nil {
		return err
	}
	bp, _ := f.store.FindAt(path, line, column)
	f.bus.Publish(ctx, event.TopicBreakpointChanged, BreakpointEvent{Breakpoint: bp})
	f.verifyAsync(ctx, path)
	return nil
}

// SetCondition sets the condition expression at the exact key. The
// expression is opaque; the adapter is the sole validator.
func (f *Facade) SetCondition(ctx context.Context, path string, line, column int, condition string) error {
	if err := f.store.SetCondition(path, line, column, condition); err != nil {
		return err
	}
	bp, _ := f.store.FindAt(path, line, column)
	f.bus.Publish(ctx, event.TopicBreakpointChanged, BreakpointEvent{Breakpoint: bp})
	f.verifyAsync(ctx, path)
	return nil
}

// SetHitCondition sets the canonical hit condition at the exact key.
// An empty string clears it.
func (f *Facade) SetHitCondition(ctx context.Context, path string, line, column int, hitCondition string) error {
	if err := f.store.SetHitCondition(path, line, column, hitCondition); err != nil {
		return err
	}
	bp, _ := f.store.FindAt(path, line, column)
	f.bus.Publish(ctx, event.TopicBreakpointChanged, BreakpointEvent{Breakpoint: bp})
	f.verifyAsync(ctx, path)
	return nil
}

// SetEnabled enables or disables the breakpoint at the exact key.
func (f *Facade) SetEnabled(ctx context.Context, path string, line, column int, enabled bool) error {
	if err := f.store.SetEnabled(path, line, column, enabled); err != nil {
		return err
	}
	bp, _ := f.store.FindAt(path, line, column)
	f.bus.Publish(ctx, event.TopicBreakpointChanged, BreakpointEvent{Breakpoint: bp})
	f.verifyAsync(ctx, path)
	return nil
}

// verifyAsync submits the file's breakpoints to the adapter and records the
// results. The call is best-effort: failures are published as ErrorEvents
// and the breakpoints stay unverified until the next attempt.
func (f *Facade) verifyAsync(ctx context.Context, path string) {
	if f.adapter == nil {
		return
	}

	bps := f.store.ForFile(path)
	go func() {
		results, err := f.adapter.VerifyBreakpoints(ctx, path, bps)
		if err != nil {
			f.bus.Publish(ctx, event.TopicDebugError, ErrorEvent{Op: "verify breakpoints", Err: err})
			return
		}
		for i, bp := range bps {
			if i >= len(results) {
				break
			}
			f.store.SetVerification(bp.ID, results[i].Verified, results[i].Message)
			if changed, ok := f.store.FindAt(bp.Path, bp.Line, bp.Column); ok {
				f.bus.Publish(ctx, event.TopicBreakpointChanged, BreakpointEvent{Breakpoint: changed})
			}
		}
	}()
}

// StepInTargets fetches candidate call targets for a frame. Frame ID 0
// falls back to the currently active frame.
func (f *Facade) StepInTargets(ctx context.Context, frameID int) ([]breakpoint.StepInTarget, error) {
	if f.adapter == nil {
		return nil, fmt.Errorf("no debug adapter attached")
	}
	if frameID == 0 {
		frameID = f.ActiveFrameID()
	}
	if frameID == 0 {
		return nil, fmt.Errorf("no active frame")
	}
	targets, err := f.adapter.StepInTargets(ctx, frameID)
	if err != nil {
		return nil, fmt.Errorf("step-in targets for frame %d: %w", frameID, err)
	}
	return targets, nil
}

// StepIntoTarget steps into the given target.
func (f *Facade) StepIntoTarget(ctx context.Context, targetID int) error {
	if f.adapter == nil {
		return fmt.Errorf("no debug adapter attached")
	}
	if err := f.adapter.StepInto(ctx, targetID); err != nil {
		f.bus.Publish(ctx, event.TopicDebugError, ErrorEvent{Op: "step into target", Err: err})
		return err
	}
	return nil
}

// SetPaused records the paused call stack and marks the session stopped.
// The first frame is the top frame; its ID becomes the active frame.
func (f *Facade) SetPaused(ctx context.Context, reason string, frames []StackFrame) {
	f.mu.Lock()
	f.paused = true
	f.frames = make([]StackFrame, len(frames))
	copy(f.frames, frames)
	if len(frames) > 0 {
		f.activeFrameID = frames[0].ID
	} else {
		f.activeFrameID = 0
	}
	top := StackFrame{}
	if len(frames) > 0 {
		top = frames[0]
	}
	f.mu.Unlock()

	f.bus.Publish(ctx, event.TopicSessionPaused, PauseEvent{Reason: reason, TopFrame: top})
}

// SetResumed clears the paused state.
func (f *Facade) SetResumed(ctx context.Context) {
	f.mu.Lock()
	f.paused = false
	f.frames = nil
	f.activeFrameID = 0
	f.mu.Unlock()

	f.bus.Publish(ctx, event.TopicSessionResumed, nil)
}

// IsPaused reports whether the session is stopped at a frame.
func (f *Facade) IsPaused() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.paused
}

// ActiveFrameID returns the currently active frame ID, or 0.
func (f *Facade) ActiveFrameID() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.activeFrameID
}

// StackFrames returns a copy of the paused call stack.
func (f *Facade) StackFrames() []StackFrame {
	f.mu.RLock()
	defer f.mu.RUnlock()
	frames := make([]StackFrame, len(f.frames))
	copy(frames, f.frames)
	return frames
}

// TopFrame returns the top frame of the paused stack.
func (f *Facade) TopFrame() (StackFrame, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.paused || len(f.frames) == 0 {
		return StackFrame{}, false
	}
	return f.frames[0], true
}
