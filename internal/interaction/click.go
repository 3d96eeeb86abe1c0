package interaction

import "time"

// DoubleClickWindow is the timing window for gutter double-click
// detection.
const DoubleClickWindow = 300 * time.Millisecond

// clickState tracks the previous gutter click for double-click detection.
// It is an explicit value threaded through the dispatcher so the detector
// stays testable in isolation.
type clickState struct {
	lastLine int
	lastTime time.Time
}

// isDouble reports whether a click at line within the window chains with
// the previous click on the same line.
func (s *clickState) isDouble(line int, when time.Time, window time.Duration) bool {
	if s.lastLine != line || s.lastTime.IsZero() {
		return false
	}
	elapsed := when.Sub(s.lastTime)
	return elapsed >= 0 && elapsed <= window
}

// record updates the tracked click. Called unconditionally on every click,
// so a click on a different line or file always resets the window.
func (s *clickState) record(line int, when time.Time) {
	s.lastLine = line
	s.lastTime = when
}

// consume clears the tracked click after a detected double-click, making
// it ineligible for a third chained match.
func (s *clickState) consume() {
	s.lastLine = 0
	s.lastTime = time.Time{}
}
