package dap

import (
	"context"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mfriel/breakline/internal/breakpoint"
	"github.com/mfriel/breakline/internal/event"
	"github.com/mfriel/breakline/internal/session"
)

func TestBridgeVerifySkipsDisabled(t *testing.T) {
	fa, client := newFakeAdapter(t, func(command string, req []byte) (string, string) {
		if command != "setBreakpoints" {
			return "", "unexpected command"
		}
		return `{"breakpoints":[{"id":1,"verified":true,"line":3},{"id":2,"verified":false,"message":"bad line"}]}`, ""
	})
	bridge := NewBridge(client)

	bps := []breakpoint.Breakpoint{
		{ID: 1, Path: "/src/a.go", Line: 3, Enabled: true},
		{ID: 2, Path: "/src/a.go", Line: 5, Enabled: false, Condition: "x > 0"},
		{ID: 3, Path: "/src/a.go", Line: 8, Enabled: true},
	}

	results, err := bridge.VerifyBreakpoints(ctxShort(t), "/src/a.go", bps)
	if err != nil {
		t.Fatalf("VerifyBreakpoints failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected one result per submitted breakpoint, got %d", len(results))
	}
	if !results[0].Verified || results[0].Line != 3 {
		t.Errorf("result 0 = %+v", results[0])
	}
	if results[1].Verified || results[1].Message != "" {
		t.Errorf("disabled slot should stay zero, got %+v", results[1])
	}
	if results[2].Verified || results[2].Message != "bad line" {
		t.Errorf("result 2 = %+v", results[2])
	}

	// Only the enabled pair went over the wire.
	wire := gjson.GetBytes(fa.lastRequest(), "arguments.breakpoints").Array()
	if len(wire) != 2 {
		t.Fatalf("wire breakpoints = %d, want 2", len(wire))
	}
	if wire[0].Get("line").Int() != 3 || wire[1].Get("line").Int() != 8 {
		t.Errorf("wire lines = %s", gjson.GetBytes(fa.lastRequest(), "arguments.breakpoints").Raw)
	}
}

func TestBridgeStepIntoRequiresStoppedThread(t *testing.T) {
	_, client := newFakeAdapter(t, func(string, []byte) (string, string) {
		return "", ""
	})
	bridge := NewBridge(client)

	if err := bridge.StepInto(context.Background(), 4); err == nil {
		t.Error("expected error before any stopped event")
	}
}

func TestBridgeBindForwardsPause(t *testing.T) {
	fa, client := newFakeAdapter(t, func(command string, _ []byte) (string, string) {
		if command == "stackTrace" {
			return `{"stackFrames":[{"id":21,"name":"main.run","line":40,"column":2,"source":{"name":"main.go","path":"/src/main.go"}}]}`, ""
		}
		return "", ""
	})
	bridge := NewBridge(client)

	bus := event.NewBus()
	facade := session.NewFacade(breakpoint.NewStore(), bus, bridge)
	bridge.Bind(facade, bus)

	paused := make(chan session.PauseEvent, 1)
	bus.Subscribe(event.TopicSessionPaused, func(_ context.Context, ev event.Event) {
		if p, ok := ev.Payload.(session.PauseEvent); ok {
			paused <- p
		}
	})

	fa.emit("stopped", `{"reason":"breakpoint","threadId":9}`)

	select {
	case p := <-paused:
		if p.Reason != "breakpoint" || p.TopFrame.Source.Path != "/src/main.go" {
			t.Errorf("pause event = %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pause")
	}

	if !facade.IsPaused() || facade.ActiveFrameID() != 21 {
		t.Errorf("facade paused=%v frame=%d", facade.IsPaused(), facade.ActiveFrameID())
	}

	// After the stopped event the bridge can step into targets.
	if err := bridge.StepInto(ctxShort(t), 2); err != nil {
		t.Errorf("StepInto failed: %v", err)
	}
	req := fa.lastRequest()
	if gjson.GetBytes(req, "command").String() != "stepIn" {
		t.Errorf("last command = %s", gjson.GetBytes(req, "command"))
	}
	if gjson.GetBytes(req, "arguments.threadId").Int() != 9 {
		t.Error("threadId not carried from stopped event")
	}

	fa.emit("continued", `{"threadId":9}`)
	deadline := time.Now().Add(time.Second)
	for facade.IsPaused() {
		if time.Now().After(deadline) {
			t.Fatal("facade never resumed")
		}
		time.Sleep(time.Millisecond)
	}
}
