package dap

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// fakeAdapter answers framed requests like a debug adapter would.
// Each command handler receives the request and returns the response
// body, or an error message for a failed response.
type fakeAdapter struct {
	transport Transport

	mu       sync.Mutex
	requests [][]byte
}

func newFakeAdapter(t *testing.T, handle func(command string, req []byte) (body string, errMsg string)) (*fakeAdapter, *Client) {
	t.Helper()

	clientConn, serverConn := net.Pipe()
	fa := &fakeAdapter{transport: Wrap(serverConn)}

	go func() {
		for {
			req, err := fa.transport.Receive()
			if err != nil {
				return
			}
			fa.mu.Lock()
			fa.requests = append(fa.requests, req)
			fa.mu.Unlock()

			command := gjson.GetBytes(req, "command").String()
			body, errMsg := handle(command, req)

			resp, _ := sjson.SetBytes([]byte(`{}`), "type", "response")
			resp, _ = sjson.SetBytes(resp, "request_seq", gjson.GetBytes(req, "seq").Int())
			resp, _ = sjson.SetBytes(resp, "command", command)
			if errMsg != "" {
				resp, _ = sjson.SetBytes(resp, "success", false)
				resp, _ = sjson.SetBytes(resp, "message", errMsg)
			} else {
				resp, _ = sjson.SetBytes(resp, "success", true)
				if body != "" {
					resp, _ = sjson.SetRawBytes(resp, "body", []byte(body))
				}
			}
			fa.transport.Send(resp)
		}
	}()

	client := NewClient(Wrap(clientConn))
	t.Cleanup(func() {
		client.Close()
		fa.transport.Close()
	})
	return fa, client
}

// emit pushes an unsolicited event to the client.
func (fa *fakeAdapter) emit(event string, body string) {
	payload, _ := sjson.SetBytes([]byte(`{}`), "type", "event")
	payload, _ = sjson.SetBytes(payload, "event", event)
	if body != "" {
		payload, _ = sjson.SetRawBytes(payload, "body", []byte(body))
	}
	fa.transport.Send(payload)
}

func (fa *fakeAdapter) lastRequest() []byte {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if len(fa.requests) == 0 {
		return nil
	}
	return fa.requests[len(fa.requests)-1]
}

func ctxShort(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClientInitialize(t *testing.T) {
	_, client := newFakeAdapter(t, func(command string, _ []byte) (string, string) {
		if command != "initialize" {
			return "", "unexpected command"
		}
		return `{"supportsStepInTargetsRequest":true,"supportsLogPoints":true}`, ""
	})

	caps, err := client.Initialize(ctxShort(t), "delve")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !caps.StepInTargets || !caps.LogPoints {
		t.Errorf("capabilities = %+v", caps)
	}
	if caps.ConditionalBreakpoints {
		t.Error("unadvertised capability reported true")
	}
}

func TestClientSetBreakpoints(t *testing.T) {
	fa, client := newFakeAdapter(t, func(command string, _ []byte) (string, string) {
		return `{"breakpoints":[
			{"id":10,"verified":true,"line":5},
			{"id":11,"verified":false,"message":"no code at line"}
		]}`, ""
	})

	got, err := client.SetBreakpoints(ctxShort(t), "/src/main.go", []SourceBreakpoint{
		{Line: 5, Condition: "x > 1"},
		{Line: 9, Column: 14, LogMessage: "hit {x}"},
	})
	if err != nil {
		t.Fatalf("SetBreakpoints failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(got))
	}
	if !got[0].Verified || got[0].Line != 5 {
		t.Errorf("answer 0 = %+v", got[0])
	}
	if got[1].Verified || got[1].Message != "no code at line" {
		t.Errorf("answer 1 = %+v", got[1])
	}

	// The wire request carries the optional fields only when set.
	req := fa.lastRequest()
	if gjson.GetBytes(req, "arguments.source.path").String() != "/src/main.go" {
		t.Errorf("source.path = %s", gjson.GetBytes(req, "arguments.source.path"))
	}
	bps := gjson.GetBytes(req, "arguments.breakpoints").Array()
	if len(bps) != 2 {
		t.Fatalf("wire breakpoints = %d", len(bps))
	}
	if bps[0].Get("condition").String() != "x > 1" {
		t.Errorf("condition = %q", bps[0].Get("condition"))
	}
	if bps[0].Get("column").Exists() {
		t.Error("column should be omitted for line breakpoints")
	}
	if bps[1].Get("column").Int() != 14 || bps[1].Get("logMessage").String() != "hit {x}" {
		t.Errorf("inline logpoint entry = %s", bps[1].Raw)
	}
}

func TestClientFailedResponse(t *testing.T) {
	_, client := newFakeAdapter(t, func(string, []byte) (string, string) {
		return "", "unable to set breakpoints"
	})

	_, err := client.SetBreakpoints(ctxShort(t), "/src/main.go", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unable to set breakpoints") {
		t.Errorf("error = %v", err)
	}
}

func TestClientStepInTargets(t *testing.T) {
	fa, client := newFakeAdapter(t, func(string, []byte) (string, string) {
		return `{"targets":[{"id":1,"label":"fmt.Sprintf","line":12},{"id":2,"label":"strings.Join"}]}`, ""
	})

	targets, err := client.StepInTargets(ctxShort(t), 33)
	if err != nil {
		t.Fatalf("StepInTargets failed: %v", err)
	}
	if len(targets) != 2 || targets[0].Label != "fmt.Sprintf" || targets[0].Line != 12 {
		t.Errorf("targets = %+v", targets)
	}
	if gjson.GetBytes(fa.lastRequest(), "arguments.frameId").Int() != 33 {
		t.Error("frameId not forwarded")
	}
}

func TestClientStoppedEvent(t *testing.T) {
	fa, client := newFakeAdapter(t, func(string, []byte) (string, string) {
		return "", ""
	})

	got := make(chan Stopped, 1)
	client.OnStopped(func(s Stopped) { got <- s })

	fa.emit("stopped", `{"reason":"breakpoint","threadId":4,"hitBreakpointIds":[10,11]}`)

	select {
	case s := <-got:
		if s.Reason != "breakpoint" || s.ThreadID != 4 || len(s.HitBreakpoints) != 2 {
			t.Errorf("stopped = %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stopped event")
	}
}

func TestClientTransportFailureResolvesPending(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	client := NewClient(Wrap(clientConn))
	defer client.Close()

	errs := make(chan error, 1)
	go func() {
		_, err := client.StackTrace(context.Background(), 1)
		errs <- err
	}()

	// Give the request time to register, then kill the peer.
	time.Sleep(20 * time.Millisecond)
	serverConn.Close()

	select {
	case err := <-errs:
		if err == nil {
			t.Error("expected error after transport failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending request never resolved")
	}
}
