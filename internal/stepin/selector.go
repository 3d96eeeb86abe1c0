// Package stepin provides the step-into target selector: a small state
// machine that fetches the candidate call targets for a paused frame and
// lets the user pick one.
package stepin

import (
	"context"
	"sync"

	"github.com/mfriel/breakline/internal/breakpoint"
)

// State is the selector's lifecycle state.
type State int

const (
	// StateClosed is the idle state.
	StateClosed State = iota
	// StateLoading is while the single fetch is in flight.
	StateLoading
	// StateReady holds a non-empty target list.
	StateReady
	// StateEmpty is the terminal message state for an empty result.
	StateEmpty
	// StateError is the terminal message state for a failed fetch.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is the slice of the debug session the selector needs.
type Session interface {
	StepInTargets(ctx context.Context, frameID int) ([]breakpoint.StepInTarget, error)
	StepIntoTarget(ctx context.Context, targetID int) error
}

// Selector drives the step-into target picker. One fetch per open, no
// retry: a failure or an empty result terminates in a message state that
// only closing leaves.
type Selector struct {
	sess Session

	mu         sync.Mutex
	state      State
	targets    []breakpoint.StepInTarget
	message    string
	selected   int
	generation int
	notify     func()
}

// NewSelector creates a closed selector.
func NewSelector(sess Session) *Selector {
	return &Selector{sess: sess}
}

// SetNotify registers a callback invoked when an in-flight fetch
// resolves. The host loop uses it to schedule a redraw.
func (s *Selector) SetNotify(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// State returns the current state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Message returns the text shown in the empty and error states.
func (s *Selector) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Targets returns the fetched target list.
func (s *Selector) Targets() []breakpoint.StepInTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]breakpoint.StepInTarget, len(s.targets))
	copy(result, s.targets)
	return result
}

// Selected returns the index of the highlighted target.
func (s *Selector) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Open starts a fetch for the given frame. Frame ID 0 falls back to the
// session's active frame. A fetch that resolves after the selector was
// closed or reopened is dropped: the generation token guards the
// continuation.
func (s *Selector) Open(ctx context.Context, frameID int) {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.state = StateLoading
	s.targets = nil
	s.message = ""
	s.selected = 0
	s.mu.Unlock()

	go func() {
		targets, err := s.sess.StepInTargets(ctx, frameID)

		s.mu.Lock()
		if s.generation != generation || s.state != StateLoading {
			s.mu.Unlock()
			return
		}
		switch {
		case err != nil:
			s.state = StateError
			s.message = err.Error()
		case len(targets) == 0:
			s.state = StateEmpty
			s.message = "No step-in targets available"
		default:
			s.state = StateReady
			s.targets = targets
		}
		notify := s.notify
		s.mu.Unlock()

		if notify != nil {
			notify()
		}
	}()
}

// MoveSelection moves the highlighted index by delta, wrapping at both
// ends. Ignored outside the ready state.
func (s *Selector) MoveSelection(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady || len(s.targets) == 0 {
		return
	}
	n := len(s.targets)
	s.selected = ((s.selected+delta)%n + n) % n
}

// Commit steps into the highlighted target and closes the selector.
// Outside the ready state it is a no-op.
func (s *Selector) Commit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady || s.selected >= len(s.targets) {
		s.mu.Unlock()
		return nil
	}
	target := s.targets[s.selected]
	s.closeLocked()
	s.mu.Unlock()

	return s.sess.StepIntoTarget(ctx, target.ID)
}

// Close dismisses the selector without committing. A fetch still in
// flight keeps running but its result is dropped.
func (s *Selector) Close() {
	s.mu.Lock()
	s.closeLocked()
	s.mu.Unlock()
}

func (s *Selector) closeLocked() {
	s.generation++
	s.state = StateClosed
	s.targets = nil
	s.message = ""
	s.selected = 0
}
