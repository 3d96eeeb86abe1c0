package decoration

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mfriel/breakline/internal/breakpoint"
	"github.com/mfriel/breakline/internal/session"
)

// Synchronizer owns the decoration state for one displayed file. Every
// Sync call recomputes the full descriptor list from the session snapshot
// and applies it as a delta against the previous call's handles; the
// synchronizer never accumulates decorations.
type Synchronizer struct {
	sess    *session.Facade
	surface Surface

	mu        sync.Mutex
	path      string
	handles   []string
	last      []Descriptor
	revealed  int
	revealOff bool
}

// NewSynchronizer creates a synchronizer over a session and surface.
func NewSynchronizer(sess *session.Facade, surface Surface) *Synchronizer {
	return &Synchronizer{sess: sess, surface: surface}
}

// SetFile switches the displayed file. Handles from the previous file are
// dropped, never reused: the old surface decorations are cleared first.
func (s *Synchronizer) SetFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == path {
		return
	}
	if len(s.handles) > 0 {
		// Best effort. A disposed surface reconciles on the next render.
		s.surface.ApplyDeltas(s.handles, nil)
	}
	s.path = path
	s.handles = nil
	s.last = nil
	s.revealed = 0
}

// SetReveal controls whether a new paused line scrolls into view.
// Enabled by default.
func (s *Synchronizer) SetReveal(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealOff = !enabled
}

// File returns the currently displayed file path.
func (s *Synchronizer) File() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Sync projects the current breakpoint set and paused frame into the
// surface. Idempotent: unchanged inputs produce the identical descriptor
// list and leave the surface untouched.
func (s *Synchronizer) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return fmt.Errorf("no file set")
	}

	next := s.build()

	if descriptorsEqual(s.last, next) {
		return nil
	}

	handles, err := s.surface.ApplyDeltas(s.handles, next)
	if err != nil {
		// Best-effort apply: drop the stale handles and let the next
		// natural re-render reconcile.
		s.handles = nil
		s.last = nil
		return fmt.Errorf("apply decorations: %w", err)
	}
	s.handles = handles
	s.last = next

	// Reveal is a one-shot side effect when the paused line first appears
	// or moves, not part of the decoration list.
	pausedLine := 0
	for _, d := range next {
		if d.Class == ClassCurrentLine {
			pausedLine = d.Line
			break
		}
	}
	if pausedLine != 0 && pausedLine != s.revealed && !s.revealOff {
		s.surface.Reveal(pausedLine)
	}
	s.revealed = pausedLine

	return nil
}

// build computes the ordered descriptor list for the current file.
func (s *Synchronizer) build() []Descriptor {
	records := s.sess.BreakpointsForFile(s.path)
	classified := breakpoint.Classify(records)

	descriptors := make([]Descriptor, 0, len(records)+1)
	for _, bp := range classified.LineLevel {
		descriptors = append(descriptors, Descriptor{
			Line:  bp.Line,
			Class: ClassFor(bp),
			Hover: HoverText(bp),
		})
	}
	for _, bp := range classified.Inline {
		descriptors = append(descriptors, Descriptor{
			Line:   bp.Line,
			Column: bp.Column,
			Class:  ClassFor(bp),
			Inline: true,
			Hover:  HoverText(bp),
		})
	}

	sort.SliceStable(descriptors, func(i, j int) bool {
		if descriptors[i].Line != descriptors[j].Line {
			return descriptors[i].Line < descriptors[j].Line
		}
		return descriptors[i].Column < descriptors[j].Column
	})

	if top, ok := s.sess.TopFrame(); ok && top.Source.Path == s.path {
		descriptors = append(descriptors, Descriptor{
			Line:  top.Line,
			Class: ClassCurrentLine,
			Hover: fmt.Sprintf("Paused in %s", top.Name),
		})
	}

	return descriptors
}

func descriptorsEqual(a, b []Descriptor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
