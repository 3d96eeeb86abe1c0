// Package interaction turns raw pointer and keyboard events into
// breakpoint model mutations and menu/dialog state. It never applies
// visual changes itself: the decoration pass re-renders from the session's
// change notifications.
package interaction

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// Area identifies which region of the editor surface a pointer event hit.
type Area int

const (
	// AreaGutter is the marker column left of the text.
	AreaGutter Area = iota
	// AreaContent is the text content area.
	AreaContent
)

// String returns a string representation of the area.
func (a Area) String() string {
	if a == AreaGutter {
		return "gutter"
	}
	return "content"
}

// Button is the pointer button of an event.
type Button int

const (
	// ButtonNone indicates no button.
	ButtonNone Button = iota
	// ButtonLeft is the primary button.
	ButtonLeft
	// ButtonRight is the secondary button.
	ButtonRight
)

// PointerEvent is a resolved pointer event in buffer coordinates.
type PointerEvent struct {
	// Area is the region the event hit.
	Area Area

	// Line is the buffer line (1-based).
	Line int

	// Column is the buffer column (1-based; 0 in the gutter).
	Column int

	// X, Y are the screen coordinates, kept for menu placement.
	X, Y int

	// Button is the pressed button.
	Button Button

	// Shift is true when the shift modifier was held.
	Shift bool

	// When is the event timestamp.
	When time.Time
}

// KeyEvent is a resolved keyboard event.
type KeyEvent struct {
	// Escape is true for the escape key.
	Escape bool
}

// Geometry resolves screen coordinates to buffer positions. The editor
// surface owns layout; the engine only needs the hit result.
type Geometry interface {
	// Hit maps a screen position to a buffer position and area. ok is
	// false when the position falls outside the file view.
	Hit(x, y int) (line, column int, area Area, ok bool)
}

// TranslateMouse converts a tcell mouse event into a pointer event using
// the surface geometry. Only press events with a primary or secondary
// button translate; everything else is ignored.
func TranslateMouse(ev *tcell.EventMouse, geom Geometry) (PointerEvent, bool) {
	var button Button
	switch {
	case ev.Buttons()&tcell.ButtonPrimary != 0:
		button = ButtonLeft
	case ev.Buttons()&tcell.ButtonSecondary != 0:
		button = ButtonRight
	default:
		return PointerEvent{}, false
	}

	x, y := ev.Position()
	line, column, area, ok := geom.Hit(x, y)
	if !ok {
		return PointerEvent{}, false
	}

	return PointerEvent{
		Area:   area,
		Line:   line,
		Column: column,
		X:      x,
		Y:      y,
		Button: button,
		Shift:  ev.Modifiers()&tcell.ModShift != 0,
		When:   ev.When(),
	}, true
}

// TranslateKey converts a tcell key event into a key event. Only keys the
// dispatcher reacts to translate.
func TranslateKey(ev *tcell.EventKey) (KeyEvent, bool) {
	if ev.Key() == tcell.KeyEscape {
		return KeyEvent{Escape: true}, true
	}
	return KeyEvent{}, false
}
