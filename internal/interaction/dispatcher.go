package interaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mfriel/breakline/internal/breakpoint"
	"github.com/mfriel/breakline/internal/session"
)

// Dispatcher interprets pointer and keyboard events against the current
// breakpoint set and forwards the resulting mutations to the session. It
// holds only interaction state (click timing, menu, editor); the session
// snapshot is the single source of truth for what exists where.
type Dispatcher struct {
	sess *session.Facade

	mu     sync.Mutex
	path   string
	clicks clickState
	window time.Duration

	menu      Menu
	editor    Editor
	editorGen int

	// pending is a deferred toggle for a logpoint-bearing line; held back
	// for the double-click window so a chained click can claim the line
	// as an edit instead of a removal.
	pending *pendingToggle
}

type pendingToggle struct {
	line  int
	timer *time.Timer
}

// NewDispatcher creates a dispatcher for a file view.
func NewDispatcher(sess *session.Facade, path string) *Dispatcher {
	return &Dispatcher{
		sess:   sess,
		path:   path,
		window: DoubleClickWindow,
	}
}

// SetDoubleClickWindow overrides the double-click timing window.
func (d *Dispatcher) SetDoubleClickWindow(window time.Duration) {
	d.mu.Lock()
	if window > 0 {
		d.window = window
	}
	d.mu.Unlock()
}

// SetFile switches the dispatcher to another file view. Click timing,
// menu, and editor state never carry across files.
func (d *Dispatcher) SetFile(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.path == path {
		return
	}
	d.path = path
	d.clicks.consume()
	d.closeMenuLocked()
	d.closeEditorLocked()
}

// Menu returns a copy of the current context menu descriptor.
func (d *Dispatcher) Menu() Menu {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.menu
	m.Actions = append([]Action(nil), d.menu.Actions...)
	return m
}

// Editor returns a copy of the current logpoint editor descriptor.
func (d *Dispatcher) Editor() Editor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editor
}

// HandlePointer processes a resolved pointer event.
//
// Shift+click in the content area toggles an inline breakpoint at that
// exact column. A plain gutter click toggles the line-level breakpoint,
// unless it chains within the double-click window on a logpoint-bearing
// line, which opens the logpoint editor instead. A right click resolves
// the target and opens the context menu; the caller suppresses the
// platform's default menu.
func (d *Dispatcher) HandlePointer(ctx context.Context, ev PointerEvent) error {
	d.mu.Lock()

	if ev.Button == ButtonRight {
		d.clicks.record(ev.Line, ev.When)
		d.openMenuLocked(ev)
		d.mu.Unlock()
		return nil
	}
	if ev.Button != ButtonLeft {
		d.mu.Unlock()
		return nil
	}

	if ev.Shift && ev.Area == AreaContent {
		d.clicks.record(ev.Line, ev.When)
		path := d.path
		d.mu.Unlock()
		return d.sess.ToggleBreakpoint(ctx, path, ev.Line, ev.Column)
	}

	if ev.Area == AreaGutter {
		path := d.path
		existing, found := breakpoint.FindAt(d.sess.BreakpointsForFile(path), ev.Line, 0)
		if found && existing.IsLogpoint() {
			if d.clicks.isDouble(ev.Line, ev.When, d.window) {
				// Double-click on a logpoint line: edit instead of
				// toggling. The click is consumed, never part of a third
				// chained match, and the held-back removal is dropped.
				d.cancelPendingLocked(ev.Line)
				d.clicks.consume()
				d.openEditorLocked(ev.X, ev.Y, ev.Line, 0, existing.LogMessage, false)
				d.mu.Unlock()
				return nil
			}
			d.clicks.record(ev.Line, ev.When)
			d.deferToggleLocked(ctx, path, ev.Line)
			d.mu.Unlock()
			return nil
		}
		d.clicks.record(ev.Line, ev.When)
		d.mu.Unlock()
		return d.sess.ToggleBreakpoint(ctx, path, ev.Line, 0)
	}

	// Plain content click: no mutation, but the timing window still resets.
	d.clicks.record(ev.Line, ev.When)
	d.mu.Unlock()
	return nil
}

// HandleKey processes a keyboard event. Escape closes the context menu
// and the logpoint editor.
func (d *Dispatcher) HandleKey(_ context.Context, ev KeyEvent) {
	if !ev.Escape {
		return
	}
	d.mu.Lock()
	d.closeMenuLocked()
	d.closeEditorLocked()
	d.mu.Unlock()
}

// HandleOutsideClick processes a click outside the menu and editor
// surfaces. It closes the context menu; the logpoint editor accepts free
// text and closes only on Escape, Cancel, or Save.
func (d *Dispatcher) HandleOutsideClick() {
	d.mu.Lock()
	d.closeMenuLocked()
	d.mu.Unlock()
}

// openMenuLocked resolves the right-click target and derives the menu.
// Target priority: the inline breakpoint exactly at (line, column) when
// the click was in the content area, else the line-level breakpoint.
func (d *Dispatcher) openMenuLocked(ev PointerEvent) {
	records := d.sess.BreakpointsForFile(d.path)

	var target breakpoint.Breakpoint
	var exists, isInline bool
	if ev.Area == AreaContent {
		if bp, ok := breakpoint.FindAt(records, ev.Line, ev.Column); ok {
			target, exists, isInline = bp, true, true
		}
	}
	if !exists {
		if bp, ok := breakpoint.FindAt(records, ev.Line, 0); ok {
			target, exists = bp, true
		}
	}

	column := 0
	if ev.Area == AreaContent {
		column = ev.Column
	}

	d.menu = Menu{
		Visible:      true,
		X:            ev.X,
		Y:            ev.Y,
		Line:         ev.Line,
		Column:       column,
		TargetColumn: target.Column,
		Actions:      ActionsFor(exists, exists && target.IsLogpoint(), isInline),
	}
}

// ExecuteAction performs a context menu action and closes the menu.
// Editor-opening actions leave the menu closed and the editor open.
func (d *Dispatcher) ExecuteAction(ctx context.Context, action Action) error {
	d.mu.Lock()
	menu := d.menu
	if !menu.Visible {
		d.mu.Unlock()
		return fmt.Errorf("no open context menu")
	}
	d.closeMenuLocked()
	path := d.path

	switch action {
	case ActionAddLogpoint:
		d.openEditorLocked(menu.X, menu.Y, menu.Line, 0, "", true)
		d.mu.Unlock()
		return nil
	case ActionConvertToLogpoint:
		d.openEditorLocked(menu.X, menu.Y, menu.Line, 0, "", true)
		d.mu.Unlock()
		return nil
	case ActionEditLogpoint:
		// The resolved target may be an inline logpoint; the editor
		// saves back to the same key.
		message := ""
		if bp, ok := breakpoint.FindAt(d.sess.BreakpointsForFile(path), menu.Line, menu.TargetColumn); ok {
			message = bp.LogMessage
		}
		d.openEditorLocked(menu.X, menu.Y, menu.Line, menu.TargetColumn, message, false)
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	switch action {
	case ActionAddBreakpoint:
		return d.sess.ToggleBreakpoint(ctx, path, menu.Line, 0)
	case ActionAddInlineBreakpoint:
		column := menu.Column
		if column == 0 {
			column = 1
		}
		return d.sess.ToggleBreakpoint(ctx, path, menu.Line, column)
	case ActionRemoveBreakpoint, ActionRemoveInlineBreakpoint, ActionRemoveLogpoint:
		return d.sess.RemoveBreakpoint(ctx, path, menu.Line, menu.TargetColumn)
	case ActionConvertToBreakpoint:
		return d.sess.ConvertToBreakpoint(ctx, path, menu.Line, menu.TargetColumn)
	default:
		return fmt.Errorf("unknown action %d", action)
	}
}

// SaveLogpoint commits the editor's message for its target line. The
// generation token guards the continuation: a save from an editor that is
// no longer the active one mutates nothing and skips the UI transition.
func (d *Dispatcher) SaveLogpoint(ctx context.Context, generation int, message string) error {
	d.mu.Lock()
	if !d.editor.Visible || d.editor.generation != generation {
		d.mu.Unlock()
		return nil
	}
	line, column := d.editor.Line, d.editor.Column
	path := d.path
	d.mu.Unlock()

	err := d.sess.AddLogpoint(ctx, path, line, column, message)

	d.mu.Lock()
	if d.editor.Visible && d.editor.generation == generation {
		d.closeEditorLocked()
	}
	d.mu.Unlock()
	return err
}

// CancelEditor closes the editor without saving, if it is still the one
// identified by the generation token.
func (d *Dispatcher) CancelEditor(generation int) {
	d.mu.Lock()
	if d.editor.Visible && d.editor.generation == generation {
		d.closeEditorLocked()
	}
	d.mu.Unlock()
}

// deferToggleLocked schedules the toggle of a logpoint-bearing line for
// after the double-click window. The timer fires regardless of later
// clicks elsewhere; only a chained click on the same line cancels it.
func (d *Dispatcher) deferToggleLocked(ctx context.Context, path string, line int) {
	var timer *time.Timer
	timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		if d.pending != nil && d.pending.timer == timer {
			d.pending = nil
		}
		d.mu.Unlock()
		d.sess.ToggleBreakpoint(ctx, path, line, 0)
	})
	d.pending = &pendingToggle{line: line, timer: timer}
}

// cancelPendingLocked drops the held-back toggle for a line, if any.
func (d *Dispatcher) cancelPendingLocked(line int) {
	if d.pending != nil && d.pending.line == line {
		d.pending.timer.Stop()
		d.pending = nil
	}
}

func (d *Dispatcher) openEditorLocked(x, y, line, column int, message string, isNew bool) {
	d.editorGen++
	d.editor = Editor{
		Visible:    true,
		X:          x,
		Y:          y,
		Line:       line,
		Column:     column,
		Message:    message,
		IsNew:      isNew,
		generation: d.editorGen,
	}
}

func (d *Dispatcher) closeMenuLocked() {
	d.menu = Menu{}
}

func (d *Dispatcher) closeEditorLocked() {
	d.editor = Editor{}
}
