package event

import "strings"

// Topic represents a hierarchical event type using dot notation.
// Examples: "debug.breakpoint.added", "config.changed".
type Topic string

// Separator is the character used to separate topic segments.
const Separator = "."

// Topics published by the engine.
const (
	// TopicBreakpointAdded is published when a breakpoint is set.
	TopicBreakpointAdded Topic = "debug.breakpoint.added"

	// TopicBreakpointRemoved is published when a breakpoint is cleared.
	TopicBreakpointRemoved Topic = "debug.breakpoint.removed"

	// TopicBreakpointChanged is published when a breakpoint is modified.
	TopicBreakpointChanged Topic = "debug.breakpoint.changed"

	// TopicSessionPaused is published when execution pauses.
	TopicSessionPaused Topic = "debug.session.paused"

	// TopicSessionResumed is published when execution resumes.
	TopicSessionResumed Topic = "debug.session.resumed"

	// TopicDebugError is published when an adapter call fails.
	TopicDebugError Topic = "debug.error"

	// TopicConfigChanged is published when configuration is reloaded.
	TopicConfigChanged Topic = "config.changed"
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Matches reports whether the topic matches a subscription pattern.
// A pattern matches its own topic exactly, and a pattern prefix matches
// every descendant: "debug.breakpoint" matches "debug.breakpoint.added".
func (t Topic) Matches(pattern Topic) bool {
	if t == pattern {
		return true
	}
	return strings.HasPrefix(string(t), string(pattern)+Separator)
}
