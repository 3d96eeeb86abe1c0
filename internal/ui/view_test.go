package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mfriel/breakline/internal/breakpoint"
	"github.com/mfriel/breakline/internal/decoration"
	"github.com/mfriel/breakline/internal/interaction"
	"github.com/mfriel/breakline/internal/stepin"
)

func newTestView(t *testing.T, content string) (*View, tcell.SimulationScreen) {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	screen.SetSize(40, 10)
	t.Cleanup(screen.Fini)

	path := filepath.Join(t.TempDir(), "main.go")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	v := NewView(screen, 3)
	if err := v.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	return v, screen
}

func TestViewHit(t *testing.T) {
	v, _ := newTestView(t, "package main\n\nfunc main() {\n}\n")

	line, column, area, ok := v.Hit(1, 0)
	if !ok || area != interaction.AreaGutter || line != 1 || column != 0 {
		t.Errorf("gutter hit = (%d,%d,%v,%v)", line, column, area, ok)
	}

	line, column, area, ok = v.Hit(3, 2)
	if !ok || area != interaction.AreaContent || line != 3 || column != 1 {
		t.Errorf("content hit = (%d,%d,%v,%v)", line, column, area, ok)
	}

	// Column offset inside the text.
	_, column, _, _ = v.Hit(7, 0)
	if column != 5 {
		t.Errorf("column = %d, want 5", column)
	}

	// Below the buffer.
	if _, _, _, ok := v.Hit(0, 9); ok {
		t.Error("hit past end of buffer should miss")
	}
}

func TestViewApplyDeltasReplacesHandles(t *testing.T) {
	v, _ := newTestView(t, "a\nb\nc\n")

	first, err := v.ApplyDeltas(nil, []decoration.Descriptor{
		{Line: 1, Class: decoration.ClassUnverified},
		{Line: 2, Class: decoration.ClassLogpoint},
	})
	if err != nil {
		t.Fatalf("ApplyDeltas failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("handles = %d, want 2", len(first))
	}

	second, err := v.ApplyDeltas(first, []decoration.Descriptor{
		{Line: 2, Class: decoration.ClassVerified},
	})
	if err != nil {
		t.Fatalf("ApplyDeltas failed: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("handles = %d, want 1", len(second))
	}
	if len(v.decorations) != 1 {
		t.Errorf("stale decorations retained: %d", len(v.decorations))
	}
}

func TestViewRenderGutterMark(t *testing.T) {
	v, screen := newTestView(t, "package main\nvar x = 1\n")

	if _, err := v.ApplyDeltas(nil, []decoration.Descriptor{
		{Line: 2, Class: decoration.ClassVerified},
	}); err != nil {
		t.Fatalf("ApplyDeltas failed: %v", err)
	}
	v.Render()

	mark, _, _, _ := screen.GetContent(0, 1)
	if mark != '●' {
		t.Errorf("gutter mark = %q, want ●", mark)
	}
	// Text starts after the gutter.
	first, _, _, _ := screen.GetContent(3, 0)
	if first != 'p' {
		t.Errorf("text cell = %q, want p", first)
	}
}

func TestViewRevealScrolls(t *testing.T) {
	content := ""
	for i := 0; i < 50; i++ {
		content += "line\n"
	}
	v, _ := newTestView(t, content)

	v.Reveal(30)
	if line, _, _, ok := v.Hit(0, 0); !ok || line != 21 {
		t.Errorf("top line after reveal = %d, want 21", line)
	}

	v.Reveal(5)
	if line, _, _, ok := v.Hit(0, 0); !ok || line != 5 {
		t.Errorf("top line after upward reveal = %d, want 5", line)
	}
}

func TestViewRenderMenuOverlay(t *testing.T) {
	v, screen := newTestView(t, "a\nb\nc\nd\ne\n")

	v.SetOverlays(interaction.Menu{
		Visible: true,
		X:       2,
		Y:       0,
		Actions: []interaction.Action{interaction.ActionAddBreakpoint},
	}, interaction.Editor{})
	v.Render()

	label := []rune(interaction.ActionAddBreakpoint.String())
	got, _, _, _ := screen.GetContent(3, 1)
	if got != label[0] {
		t.Errorf("menu cell = %q, want %q", got, label[0])
	}
}

// stepSession serves a fixed target list to the selector.
type stepSession struct {
	targets []breakpoint.StepInTarget
}

func (s *stepSession) StepInTargets(context.Context, int) ([]breakpoint.StepInTarget, error) {
	return s.targets, nil
}

func (s *stepSession) StepIntoTarget(context.Context, int) error {
	return nil
}

func TestViewRenderStepInOverlay(t *testing.T) {
	v, screen := newTestView(t, "a\nb\nc\nd\ne\n")

	sel := stepin.NewSelector(&stepSession{targets: []breakpoint.StepInTarget{
		{ID: 1, Label: "fmt.Println"},
		{ID: 2, Label: "os.Exit"},
	}})
	sel.Open(context.Background(), 7)
	deadline := time.Now().Add(time.Second)
	for sel.State() != stepin.StateReady {
		if time.Now().After(deadline) {
			t.Fatal("selector never became ready")
		}
		time.Sleep(time.Millisecond)
	}

	v.SetStepIn(sel)
	v.Render()

	// Header on row 1, first target on row 2, one column of padding
	// after the box's left edge.
	header, _, _, _ := screen.GetContent(5, 1)
	if header != 'S' {
		t.Errorf("header cell = %q, want S", header)
	}
	first, _, _, _ := screen.GetContent(5, 2)
	if first != 'f' {
		t.Errorf("target cell = %q, want f", first)
	}

	// Closing drops the overlay.
	sel.Close()
	v.Render()
	if got, _, _, _ := screen.GetContent(5, 2); got == 'f' {
		t.Error("overlay survived close")
	}
}

func TestViewRenderStatusLine(t *testing.T) {
	v, screen := newTestView(t, "a\nb\n")

	v.SetStatus("verify breakpoints: adapter gone")
	v.Render()

	got, _, _, _ := screen.GetContent(0, 9)
	if got != 'v' {
		t.Errorf("status cell = %q, want v", got)
	}

	// The logpoint editor owns the bottom row while open.
	v.SetOverlays(interaction.Menu{}, interaction.Editor{Visible: true, Message: "m"})
	v.Render()
	got, _, _, _ = screen.GetContent(0, 9)
	if got != 'L' {
		t.Errorf("bottom row cell = %q, want L", got)
	}

	v.SetOverlays(interaction.Menu{}, interaction.Editor{})
	v.SetStatus("")
	v.Render()
	if got, _, _, _ = screen.GetContent(0, 9); got == 'v' {
		t.Error("cleared status still rendered")
	}
}
