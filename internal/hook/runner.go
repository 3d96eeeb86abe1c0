// Package hook runs user Lua scripts in response to engine events.
//
// Scripts register plain global functions and are called with a table
// describing the event:
//
//	function on_breakpoint_added(bp)
//	    print("added " .. bp.path .. ":" .. bp.line)
//	end
//
// Recognized globals: on_breakpoint_added, on_breakpoint_removed,
// on_breakpoint_changed, on_session_paused, on_session_resumed.
package hook

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/mfriel/breakline/internal/breakpoint"
	"github.com/mfriel/breakline/internal/event"
	"github.com/mfriel/breakline/internal/session"
)

// Lua globals invoked per topic.
const (
	fnBreakpointAdded   = "on_breakpoint_added"
	fnBreakpointRemoved = "on_breakpoint_removed"
	fnBreakpointChanged = "on_breakpoint_changed"
	fnSessionPaused     = "on_session_paused"
	fnSessionResumed    = "on_session_resumed"
)

// Runner owns a single sandboxed Lua state. The state is not
// goroutine-safe; the mutex serializes every call into it.
type Runner struct {
	mu     sync.Mutex
	state  *lua.LState
	closed bool

	// OnError receives hook failures. Nil means failures are dropped.
	OnError func(error)

	subs []event.Subscription
}

// NewRunner creates a runner with only the safe Lua libraries open.
// io, os, and debug stay closed.
func NewRunner() *Runner {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	return &Runner{state: L}
}

// LoadFile executes a hook script so it can register its globals.
func (r *Runner) LoadFile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("hook runner closed")
	}
	if err := r.state.DoFile(path); err != nil {
		return fmt.Errorf("load hook %s: %w", path, err)
	}
	return nil
}

// LoadString executes inline hook code.
func (r *Runner) LoadString(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("hook runner closed")
	}
	if err := r.state.DoString(code); err != nil {
		return fmt.Errorf("load hook: %w", err)
	}
	return nil
}

// Attach subscribes the runner to breakpoint and session topics.
func (r *Runner) Attach(bus *event.Bus) error {
	type binding struct {
		topic event.Topic
		fn    string
	}
	bindings := []binding{
		{event.TopicBreakpointAdded, fnBreakpointAdded},
		{event.TopicBreakpointRemoved, fnBreakpointRemoved},
		{event.TopicBreakpointChanged, fnBreakpointChanged},
		{event.TopicSessionPaused, fnSessionPaused},
		{event.TopicSessionResumed, fnSessionResumed},
	}

	for _, b := range bindings {
		fn := b.fn
		sub, err := bus.Subscribe(b.topic, func(_ context.Context, ev event.Event) {
			r.dispatch(fn, ev.Payload)
		})
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.subs = append(r.subs, sub)
		r.mu.Unlock()
	}
	return nil
}

// Detach removes the bus subscriptions.
func (r *Runner) Detach(bus *event.Bus) {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		bus.Unsubscribe(sub)
	}
}

// Close tears down the Lua state.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.state.Close()
}

// dispatch calls the named global if the script defined it.
func (r *Runner) dispatch(fn string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	target := r.state.GetGlobal(fn)
	if target == lua.LNil {
		return
	}

	arg := r.payloadTable(payload)
	err := r.state.CallByParam(lua.P{
		Fn:      target,
		NRet:    0,
		Protect: true,
	}, arg)
	if err != nil && r.OnError != nil {
		r.OnError(fmt.Errorf("hook %s: %w", fn, err))
	}
}

// payloadTable converts an event payload to a Lua table.
func (r *Runner) payloadTable(payload any) lua.LValue {
	switch p := payload.(type) {
	case session.BreakpointEvent:
		return r.breakpointTable(p.Breakpoint)
	case session.PauseEvent:
		t := r.state.NewTable()
		r.state.SetField(t, "reason", lua.LString(p.Reason))
		r.state.SetField(t, "path", lua.LString(p.TopFrame.Source.Path))
		r.state.SetField(t, "line", lua.LNumber(p.TopFrame.Line))
		r.state.SetField(t, "frame", lua.LString(p.TopFrame.Name))
		return t
	default:
		return lua.LNil
	}
}

func (r *Runner) breakpointTable(bp breakpoint.Breakpoint) *lua.LTable {
	t := r.state.NewTable()
	r.state.SetField(t, "path", lua.LString(bp.Path))
	r.state.SetField(t, "line", lua.LNumber(bp.Line))
	r.state.SetField(t, "column", lua.LNumber(bp.Column))
	r.state.SetField(t, "kind", lua.LString(bp.Kind().String()))
	r.state.SetField(t, "enabled", lua.LBool(bp.Enabled))
	r.state.SetField(t, "verified", lua.LBool(bp.Verified))
	if bp.Condition != "" {
		r.state.SetField(t, "condition", lua.LString(bp.Condition))
	}
	if bp.HitCondition != "" {
		r.state.SetField(t, "hit_condition", lua.LString(bp.HitCondition))
	}
	if bp.LogMessage != "" {
		r.state.SetField(t, "log_message", lua.LString(bp.LogMessage))
	}
	return t
}
