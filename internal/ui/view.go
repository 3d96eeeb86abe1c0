// Package ui renders a source file with a breakpoint gutter on a tcell
// screen and resolves pointer positions back to buffer coordinates.
package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/mfriel/breakline/internal/decoration"
	"github.com/mfriel/breakline/internal/interaction"
	"github.com/mfriel/breakline/internal/stepin"
)

// Gutter marks by decoration class.
var classMarks = map[decoration.Class]rune{
	decoration.ClassDisabled:    '◌',
	decoration.ClassLogpoint:    '◆',
	decoration.ClassConditional: '◈',
	decoration.ClassVerified:    '●',
	decoration.ClassUnverified:  '○',
	decoration.ClassCurrentLine: '▶',
}

var classStyles = map[decoration.Class]tcell.Style{
	decoration.ClassDisabled:    tcell.StyleDefault.Foreground(tcell.ColorGray),
	decoration.ClassLogpoint:    tcell.StyleDefault.Foreground(tcell.ColorRed),
	decoration.ClassConditional: tcell.StyleDefault.Foreground(tcell.ColorRed),
	decoration.ClassVerified:    tcell.StyleDefault.Foreground(tcell.ColorRed),
	decoration.ClassUnverified:  tcell.StyleDefault.Foreground(tcell.ColorDarkRed),
	decoration.ClassCurrentLine: tcell.StyleDefault.Foreground(tcell.ColorYellow),
}

// View is a single-file viewport. It doubles as the decoration surface
// and the hit-test geometry for the dispatcher.
type View struct {
	mu sync.Mutex

	screen      tcell.Screen
	path        string
	lines       []string
	gutterWidth int
	topLine     int

	decorations map[string]decoration.Descriptor
	menu        interaction.Menu
	editor      interaction.Editor
	selector    *stepin.Selector
	status      string
}

// NewView creates a view on the given screen.
func NewView(screen tcell.Screen, gutterWidth int) *View {
	if gutterWidth < 1 {
		gutterWidth = 1
	}
	return &View{
		screen:      screen,
		gutterWidth: gutterWidth,
		topLine:     1,
		decorations: make(map[string]decoration.Descriptor),
	}
}

// LoadFile reads a file into the viewport.
func (v *View) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.path = path
	v.lines = strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	v.topLine = 1
	v.decorations = make(map[string]decoration.Descriptor)
	return nil
}

// Path returns the displayed file path.
func (v *View) Path() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.path
}

// ApplyDeltas removes the old decoration handles and installs the next
// descriptor set, returning the new handles.
func (v *View) ApplyDeltas(old []string, next []decoration.Descriptor) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, handle := range old {
		delete(v.decorations, handle)
	}
	handles := make([]string, len(next))
	for i, desc := range next {
		handle := uuid.NewString()
		v.decorations[handle] = desc
		handles[i] = handle
	}
	return handles, nil
}

// Reveal scrolls the line into the viewport.
func (v *View) Reveal(line int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, height := v.screen.Size()
	if height < 1 {
		return
	}
	if line < v.topLine {
		v.topLine = line
	} else if line >= v.topLine+height {
		v.topLine = line - height + 1
	}
	if v.topLine < 1 {
		v.topLine = 1
	}
}

// Scroll moves the viewport by delta lines, clamped to the buffer.
func (v *View) Scroll(delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.topLine += delta
	if v.topLine < 1 {
		v.topLine = 1
	}
	if v.topLine > len(v.lines) {
		v.topLine = len(v.lines)
	}
}

// Hit maps screen coordinates to a buffer position.
func (v *View) Hit(x, y int) (line, column int, area interaction.Area, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	line = v.topLine + y
	if line < 1 || line > len(v.lines) {
		return 0, 0, 0, false
	}
	if x < v.gutterWidth {
		return line, 0, interaction.AreaGutter, true
	}
	return line, x - v.gutterWidth + 1, interaction.AreaContent, true
}

// SetOverlays records the menu and editor state for the next render.
func (v *View) SetOverlays(menu interaction.Menu, editor interaction.Editor) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.menu = menu
	v.editor = editor
}

// SetStepIn attaches the step-into target selector; its state is read
// live on every render.
func (v *View) SetStepIn(sel *stepin.Selector) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selector = sel
}

// SetStatus sets the message shown on the bottom row. An empty string
// clears it.
func (v *View) SetStatus(status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
}

// Render redraws the whole viewport.
func (v *View) Render() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.screen.Clear()
	width, height := v.screen.Size()

	for row := 0; row < height; row++ {
		line := v.topLine + row
		if line > len(v.lines) {
			break
		}
		v.renderGutter(row, line)
		v.renderText(row, line, width)
	}

	if v.menu.Visible {
		v.renderMenu()
	}
	if v.selector != nil && v.selector.State() != stepin.StateClosed {
		v.renderStepIn()
	}
	if v.status != "" && !v.editor.Visible {
		v.renderStatus(width, height)
	}
	if v.editor.Visible {
		v.renderEditor(width, height)
	}
	v.screen.Show()
}

// renderGutter draws the line's marker, if any. Line-level marks win
// the cell; inline marks are drawn in the text itself.
func (v *View) renderGutter(row, line int) {
	desc, ok := v.lineDecoration(line)
	if !ok {
		return
	}
	mark, style := classMarks[desc.Class], classStyles[desc.Class]
	v.screen.SetContent(0, row, mark, nil, style)
}

// lineDecoration picks the line-level descriptor for a buffer line.
// The execution marker wins over breakpoint marks.
func (v *View) lineDecoration(line int) (decoration.Descriptor, bool) {
	var found decoration.Descriptor
	var ok bool
	for _, desc := range v.decorations {
		if desc.Line != line || desc.Inline {
			continue
		}
		if desc.Class == decoration.ClassCurrentLine {
			return desc, true
		}
		found, ok = desc, true
	}
	return found, ok
}

func (v *View) renderText(row, line, width int) {
	text := v.lines[line-1]

	// Inline marks highlight their column.
	inline := make(map[int]decoration.Class)
	for _, desc := range v.decorations {
		if desc.Line == line && desc.Inline {
			inline[desc.Column] = desc.Class
		}
	}

	style := tcell.StyleDefault
	if desc, ok := v.lineDecoration(line); ok && desc.Class == decoration.ClassCurrentLine {
		style = style.Background(tcell.ColorDarkBlue)
	}

	x := v.gutterWidth
	for i, r := range []rune(text) {
		if x >= width {
			break
		}
		cellStyle := style
		if class, ok := inline[i+1]; ok {
			cellStyle = classStyles[class].Underline(true)
		}
		v.screen.SetContent(x, row, r, nil, cellStyle)
		x++
	}
}

func (v *View) renderMenu() {
	menuStyle := tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)

	maxWidth := 0
	for _, action := range v.menu.Actions {
		if n := len([]rune(action.String())); n > maxWidth {
			maxWidth = n
		}
	}

	for i, action := range v.menu.Actions {
		label := []rune(action.String())
		for x := 0; x < maxWidth+2; x++ {
			r := ' '
			if x >= 1 && x-1 < len(label) {
				r = label[x-1]
			}
			v.screen.SetContent(v.menu.X+x, v.menu.Y+1+i, r, nil, menuStyle)
		}
	}
}

// renderStepIn draws the step-into target picker. The loading, empty,
// and error states show a single message row; the ready state lists the
// targets with the selection reversed.
func (v *View) renderStepIn() {
	boxStyle := tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	selectedStyle := boxStyle.Reverse(true)

	rows := []string{"Step into:"}
	selected := -1
	switch v.selector.State() {
	case stepin.StateLoading:
		rows = append(rows, "Loading targets...")
	case stepin.StateEmpty, stepin.StateError:
		rows = append(rows, v.selector.Message())
	case stepin.StateReady:
		selected = v.selector.Selected()
		for _, target := range v.selector.Targets() {
			rows = append(rows, target.Label)
		}
	}

	maxWidth := 0
	for _, row := range rows {
		if n := len([]rune(row)); n > maxWidth {
			maxWidth = n
		}
	}

	left := v.gutterWidth + 1
	for i, row := range rows {
		style := boxStyle
		if i-1 == selected {
			style = selectedStyle
		}
		label := []rune(row)
		for x := 0; x < maxWidth+2; x++ {
			r := ' '
			if x >= 1 && x-1 < len(label) {
				r = label[x-1]
			}
			v.screen.SetContent(left+x, 1+i, r, nil, style)
		}
	}
}

// renderStatus draws the latest status message on the bottom row.
func (v *View) renderStatus(width, height int) {
	statusStyle := tcell.StyleDefault.Background(tcell.ColorDarkRed).Foreground(tcell.ColorWhite)

	row := height - 1
	runes := []rune(v.status)
	for x := 0; x < width; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		v.screen.SetContent(x, row, r, nil, statusStyle)
	}
}

func (v *View) renderEditor(width, height int) {
	promptStyle := tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorWhite)

	prompt := "Log message: " + v.editor.Message
	row := height - 1
	runes := []rune(prompt)
	for x := 0; x < width; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		v.screen.SetContent(x, row, r, nil, promptStyle)
	}
	v.screen.ShowCursor(len(runes), row)
}
