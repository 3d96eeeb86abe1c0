package interaction

// Action is one entry of the breakpoint context menu.
type Action int

const (
	// ActionAddBreakpoint adds a plain line breakpoint.
	ActionAddBreakpoint Action = iota
	// ActionAddInlineBreakpoint adds a column-qualified breakpoint.
	ActionAddInlineBreakpoint
	// ActionAddLogpoint opens the logpoint editor for a new logpoint.
	ActionAddLogpoint
	// ActionRemoveBreakpoint removes the line breakpoint.
	ActionRemoveBreakpoint
	// ActionRemoveInlineBreakpoint removes the inline breakpoint.
	ActionRemoveInlineBreakpoint
	// ActionConvertToLogpoint opens the logpoint editor over an existing
	// breakpoint.
	ActionConvertToLogpoint
	// ActionEditLogpoint opens the logpoint editor pre-filled.
	ActionEditLogpoint
	// ActionConvertToBreakpoint clears the logpoint's message.
	ActionConvertToBreakpoint
	// ActionRemoveLogpoint removes the logpoint.
	ActionRemoveLogpoint
)

// String returns the menu label for the action.
func (a Action) String() string {
	switch a {
	case ActionAddBreakpoint:
		return "Add Breakpoint"
	case ActionAddInlineBreakpoint:
		return "Add Inline Breakpoint"
	case ActionAddLogpoint:
		return "Add Logpoint…"
	case ActionRemoveBreakpoint:
		return "Remove Breakpoint"
	case ActionRemoveInlineBreakpoint:
		return "Remove Inline Breakpoint"
	case ActionConvertToLogpoint:
		return "Convert to Logpoint…"
	case ActionEditLogpoint:
		return "Edit Logpoint…"
	case ActionConvertToBreakpoint:
		return "Convert to Breakpoint"
	case ActionRemoveLogpoint:
		return "Remove Logpoint"
	default:
		return "unknown"
	}
}

// ActionsFor derives the context menu's action set from what exists at the
// resolved position. The four cases are mutually exclusive and exhaustive.
func ActionsFor(exists, isLogpoint, isInline bool) []Action {
	switch {
	case !exists:
		return []Action{ActionAddBreakpoint, ActionAddInlineBreakpoint, ActionAddLogpoint}
	case isLogpoint:
		return []Action{ActionEditLogpoint, ActionConvertToBreakpoint, ActionRemoveLogpoint}
	case isInline:
		// Inline breakpoints cannot spawn further inline breakpoints.
		return []Action{ActionRemoveInlineBreakpoint}
	default:
		return []Action{ActionRemoveBreakpoint, ActionAddInlineBreakpoint, ActionConvertToLogpoint}
	}
}

// Menu is the context menu descriptor handed to the host chrome.
type Menu struct {
	// Visible is true while the menu is open.
	Visible bool

	// X, Y is the screen anchor.
	X, Y int

	// Line is the resolved buffer line.
	Line int

	// Column is the resolved column for inline targets, 0 otherwise.
	Column int

	// TargetColumn is the column of the resolved target record: the
	// inline record's column, or 0 when the target is line-level or
	// nothing exists at the position.
	TargetColumn int

	// Actions is the derived action set.
	Actions []Action
}

// Editor is the logpoint editor descriptor handed to the host chrome.
type Editor struct {
	// Visible is true while the editor is open.
	Visible bool

	// X, Y is the screen anchor.
	X, Y int

	// Line is the target buffer line.
	Line int

	// Column is the target record's column, 0 for the line-level slot.
	Column int

	// Message is the current message text.
	Message string

	// IsNew is true when no logpoint existed at open time.
	IsNew bool

	// generation guards async continuations: a save commits its UI
	// transition only while its editor is still the active one.
	generation int
}

// Generation returns the editor instance's generation token.
func (e Editor) Generation() int {
	return e.generation
}
