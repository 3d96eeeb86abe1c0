package hook

import (
	"context"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/mfriel/breakline/internal/breakpoint"
	"github.com/mfriel/breakline/internal/event"
	"github.com/mfriel/breakline/internal/session"
)

func newAttachedRunner(t *testing.T, script string) (*Runner, *event.Bus) {
	t.Helper()

	r := NewRunner()
	t.Cleanup(r.Close)

	if err := r.LoadString(script); err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}

	bus := event.NewBus()
	if err := r.Attach(bus); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	return r, bus
}

func globalString(r *Runner, name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lua.LVAsString(r.state.GetGlobal(name))
}

func globalNumber(r *Runner, name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return float64(lua.LVAsNumber(r.state.GetGlobal(name)))
}

func TestRunnerBreakpointAddedHook(t *testing.T) {
	r, bus := newAttachedRunner(t, `
		count = 0
		function on_breakpoint_added(bp)
			count = count + 1
			last = bp.path .. ":" .. bp.line
			kind = bp.kind
		end
	`)

	bus.Publish(context.Background(), event.TopicBreakpointAdded, session.BreakpointEvent{
		Breakpoint: breakpoint.Breakpoint{Path: "/src/a.go", Line: 5, Enabled: true, LogMessage: "x={x}"},
	})

	if got := globalNumber(r, "count"); got != 1 {
		t.Errorf("count = %v, want 1", got)
	}
	if got := globalString(r, "last"); got != "/src/a.go:5" {
		t.Errorf("last = %q", got)
	}
	if got := globalString(r, "kind"); got != "logpoint" {
		t.Errorf("kind = %q", got)
	}
}

func TestRunnerPauseHook(t *testing.T) {
	r, bus := newAttachedRunner(t, `
		function on_session_paused(p)
			where = p.reason .. "@" .. p.path
		end
	`)

	bus.Publish(context.Background(), event.TopicSessionPaused, session.PauseEvent{
		Reason: "breakpoint",
		TopFrame: session.StackFrame{
			Name:   "main.run",
			Source: session.Source{Path: "/src/main.go"},
			Line:   12,
		},
	})

	if got := globalString(r, "where"); got != "breakpoint@/src/main.go" {
		t.Errorf("where = %q", got)
	}
}

func TestRunnerUndefinedHookIgnored(t *testing.T) {
	_, bus := newAttachedRunner(t, `x = 1`)

	// No handler registered for this topic; must not fail.
	bus.Publish(context.Background(), event.TopicBreakpointRemoved, session.BreakpointEvent{
		Breakpoint: breakpoint.Breakpoint{Path: "/src/a.go", Line: 5},
	})
}

func TestRunnerErrorReported(t *testing.T) {
	r, bus := newAttachedRunner(t, `
		function on_breakpoint_added(bp)
			error("refused")
		end
	`)

	var got error
	r.OnError = func(err error) { got = err }

	bus.Publish(context.Background(), event.TopicBreakpointAdded, session.BreakpointEvent{
		Breakpoint: breakpoint.Breakpoint{Path: "/src/a.go", Line: 5},
	})

	if got == nil || !strings.Contains(got.Error(), "refused") {
		t.Errorf("error = %v", got)
	}
}

func TestRunnerSandboxBlocksIO(t *testing.T) {
	r, bus := newAttachedRunner(t, `
		function on_breakpoint_added(bp)
			io.write("leak")
		end
	`)

	var got error
	r.OnError = func(err error) { got = err }

	bus.Publish(context.Background(), event.TopicBreakpointAdded, session.BreakpointEvent{
		Breakpoint: breakpoint.Breakpoint{Path: "/src/a.go", Line: 5},
	})

	if got == nil {
		t.Error("expected error from closed io library")
	}
}

func TestRunnerDetach(t *testing.T) {
	r, bus := newAttachedRunner(t, `
		count = 0
		function on_breakpoint_added(bp)
			count = count + 1
		end
	`)

	ev := session.BreakpointEvent{Breakpoint: breakpoint.Breakpoint{Path: "/src/a.go", Line: 5}}
	bus.Publish(context.Background(), event.TopicBreakpointAdded, ev)
	r.Detach(bus)
	bus.Publish(context.Background(), event.TopicBreakpointAdded, ev)

	if got := globalNumber(r, "count"); got != 1 {
		t.Errorf("count = %v, want 1", got)
	}
}
