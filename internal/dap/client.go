package dap

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Client issues DAP requests and dispatches adapter events.
type Client struct {
	transport Transport
	seq       int64

	pendingMu sync.Mutex
	pending   map[int64]*pendingRequest

	handlerMu sync.RWMutex
	handlers  handlers

	done      chan struct{}
	closeOnce sync.Once

	errMu sync.RWMutex
	err   error
}

type pendingRequest struct {
	done chan struct{}
	once sync.Once
	body []byte
	err  error
}

func (p *pendingRequest) resolve() {
	p.once.Do(func() { close(p.done) })
}

type handlers struct {
	onInitialized func()
	onStopped     func(Stopped)
	onContinued   func(threadID int)
	onTerminated  func()
	onOutput      func(category, output string)
}

// Stopped is the payload of the adapter's stopped event.
type Stopped struct {
	Reason          string
	Description     string
	ThreadID        int
	HitBreakpoints  []int
	AllThreadsStill bool
}

// Capabilities is the subset of adapter capabilities the engine reads.
type Capabilities struct {
	StepInTargets           bool
	LogPoints               bool
	ConditionalBreakpoints  bool
	HitConditionBreakpoints bool
}

// SourceBreakpoint is one breakpoint submitted to setBreakpoints.
type SourceBreakpoint struct {
	Line         int
	Column       int
	Condition    string
	HitCondition string
	LogMessage   string
}

// Breakpoint is the adapter's verification answer for one breakpoint.
type Breakpoint struct {
	ID       int
	Verified bool
	Message  string
	Line     int
	Column   int
}

// StackFrame is one frame from a stackTrace response.
type StackFrame struct {
	ID         int
	Name       string
	Path       string
	SourceName string
	Line       int
	Column     int
}

// StepInTarget is one candidate from a stepInTargets response.
type StepInTarget struct {
	ID     int
	Label  string
	Line   int
	Column int
}

// NewClient wraps a transport and starts the receive loop.
func NewClient(transport Transport) *Client {
	c := &Client{
		transport: transport,
		pending:   make(map[int64]*pendingRequest),
		done:      make(chan struct{}),
	}
	go c.receiveLoop()
	return c
}

// Close stops the receive loop and closes the transport.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.transport.Close()
}

// Err reports a receive-loop failure, if any.
func (c *Client) Err() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()
	return c.err
}

func (c *Client) receiveLoop() {
	for {
		payload, err := c.transport.Receive()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			c.errMu.Lock()
			c.err = err
			c.errMu.Unlock()

			c.pendingMu.Lock()
			for _, req := range c.pending {
				req.err = err
				req.resolve()
			}
			c.pending = make(map[int64]*pendingRequest)
			c.pendingMu.Unlock()
			return
		}

		select {
		case <-c.done:
			return
		default:
		}

		switch gjson.GetBytes(payload, "type").String() {
		case "response":
			c.handleResponse(payload)
		case "event":
			c.handleEvent(payload)
		}
	}
}

func (c *Client) handleResponse(payload []byte) {
	seq := gjson.GetBytes(payload, "request_seq").Int()

	c.pendingMu.Lock()
	req, ok := c.pending[seq]
	if ok {
		delete(c.pending, seq)
	}
	c.pendingMu.Unlock()
	if !ok {
		return
	}

	if !gjson.GetBytes(payload, "success").Bool() {
		msg := gjson.GetBytes(payload, "message").String()
		if detail := gjson.GetBytes(payload, "body.error.format").String(); detail != "" {
			msg = detail
		}
		req.err = fmt.Errorf("%s failed: %s", gjson.GetBytes(payload, "command").String(), msg)
	} else {
		req.body = []byte(gjson.GetBytes(payload, "body").Raw)
	}
	req.resolve()
}

func (c *Client) handleEvent(payload []byte) {
	c.handlerMu.RLock()
	h := c.handlers
	c.handlerMu.RUnlock()

	switch gjson.GetBytes(payload, "event").String() {
	case "initialized":
		if h.onInitialized != nil {
			h.onInitialized()
		}
	case "stopped":
		if h.onStopped != nil {
			body := gjson.GetBytes(payload, "body")
			stopped := Stopped{
				Reason:          body.Get("reason").String(),
				Description:     body.Get("description").String(),
				ThreadID:        int(body.Get("threadId").Int()),
				AllThreadsStill: body.Get("allThreadsStopped").Bool(),
			}
			for _, id := range body.Get("hitBreakpointIds").Array() {
				stopped.HitBreakpoints = append(stopped.HitBreakpoints, int(id.Int()))
			}
			h.onStopped(stopped)
		}
	case "continued":
		if h.onContinued != nil {
			h.onContinued(int(gjson.GetBytes(payload, "body.threadId").Int()))
		}
	case "terminated", "exited":
		if h.onTerminated != nil {
			h.onTerminated()
		}
	case "output":
		if h.onOutput != nil {
			body := gjson.GetBytes(payload, "body")
			h.onOutput(body.Get("category").String(), body.Get("output").String())
		}
	}
}

// OnInitialized sets the handler for the initialized event.
func (c *Client) OnInitialized(fn func()) {
	c.handlerMu.Lock()
	c.handlers.onInitialized = fn
	c.handlerMu.Unlock()
}

// OnStopped sets the handler for the stopped event.
func (c *Client) OnStopped(fn func(Stopped)) {
	c.handlerMu.Lock()
	c.handlers.onStopped = fn
	c.handlerMu.Unlock()
}

// OnContinued sets the handler for the continued event.
func (c *Client) OnContinued(fn func(threadID int)) {
	c.handlerMu.Lock()
	c.handlers.onContinued = fn
	c.handlerMu.Unlock()
}

// OnTerminated sets the handler for terminated and exited events.
func (c *Client) OnTerminated(fn func()) {
	c.handlerMu.Lock()
	c.handlers.onTerminated = fn
	c.handlerMu.Unlock()
}

// OnOutput sets the handler for the output event.
func (c *Client) OnOutput(fn func(category, output string)) {
	c.handlerMu.Lock()
	c.handlers.onOutput = fn
	c.handlerMu.Unlock()
}

// sendRequest issues one request and waits for its response body.
func (c *Client) sendRequest(ctx context.Context, command string, args []byte) ([]byte, error) {
	seq := atomic.AddInt64(&c.seq, 1)

	payload, _ := sjson.SetBytes([]byte(`{}`), "seq", seq)
	payload, _ = sjson.SetBytes(payload, "type", "request")
	payload, _ = sjson.SetBytes(payload, "command", command)
	if len(args) > 0 {
		payload, _ = sjson.SetRawBytes(payload, "arguments", args)
	}

	req := &pendingRequest{done: make(chan struct{})}
	c.pendingMu.Lock()
	c.pending[seq] = req
	c.pendingMu.Unlock()

	if err := c.transport.Send(payload); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("send %s: %w", command, err)
	}

	select {
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	case <-req.done:
		return req.body, req.err
	}
}

// Initialize performs the DAP handshake and returns the adapter's
// capabilities.
func (c *Client) Initialize(ctx context.Context, adapterID string) (Capabilities, error) {
	args, _ := sjson.SetBytes([]byte(`{}`), "clientID", "breakline")
	args, _ = sjson.SetBytes(args, "adapterID", adapterID)
	args, _ = sjson.SetBytes(args, "linesStartAt1", true)
	args, _ = sjson.SetBytes(args, "columnsStartAt1", true)

	body, err := c.sendRequest(ctx, "initialize", args)
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{
		StepInTargets:           gjson.GetBytes(body, "supportsStepInTargetsRequest").Bool(),
		LogPoints:               gjson.GetBytes(body, "supportsLogPoints").Bool(),
		ConditionalBreakpoints:  gjson.GetBytes(body, "supportsConditionalBreakpoints").Bool(),
		HitConditionBreakpoints: gjson.GetBytes(body, "supportsHitConditionalBreakpoints").Bool(),
	}, nil
}

// SetBreakpoints replaces the breakpoint set for one source file and
// returns the adapter's verification answers in submission order.
func (c *Client) SetBreakpoints(ctx context.Context, path string, bps []SourceBreakpoint) ([]Breakpoint, error) {
	args, _ := sjson.SetBytes([]byte(`{}`), "source.path", path)
	args, _ = sjson.SetRawBytes(args, "breakpoints", []byte(`[]`))
	for _, bp := range bps {
		entry, _ := sjson.SetBytes([]byte(`{}`), "line", bp.Line)
		if bp.Column > 0 {
			entry, _ = sjson.SetBytes(entry, "column", bp.Column)
		}
		if bp.Condition != "" {
			entry, _ = sjson.SetBytes(entry, "condition", bp.Condition)
		}
		if bp.HitCondition != "" {
			entry, _ = sjson.SetBytes(entry, "hitCondition", bp.HitCondition)
		}
		if bp.LogMessage != "" {
			entry, _ = sjson.SetBytes(entry, "logMessage", bp.LogMessage)
		}
		args, _ = sjson.SetRawBytes(args, "breakpoints.-1", entry)
	}

	body, err := c.sendRequest(ctx, "setBreakpoints", args)
	if err != nil {
		return nil, err
	}

	var out []Breakpoint
	for _, item := range gjson.GetBytes(body, "breakpoints").Array() {
		out = append(out, Breakpoint{
			ID:       int(item.Get("id").Int()),
			Verified: item.Get("verified").Bool(),
			Message:  item.Get("message").String(),
			Line:     int(item.Get("line").Int()),
			Column:   int(item.Get("column").Int()),
		})
	}
	return out, nil
}

// StackTrace fetches the call stack of a stopped thread.
func (c *Client) StackTrace(ctx context.Context, threadID int) ([]StackFrame, error) {
	args, _ := sjson.SetBytes([]byte(`{}`), "threadId", threadID)

	body, err := c.sendRequest(ctx, "stackTrace", args)
	if err != nil {
		return nil, err
	}

	var frames []StackFrame
	for _, item := range gjson.GetBytes(body, "stackFrames").Array() {
		frames = append(frames, StackFrame{
			ID:         int(item.Get("id").Int()),
			Name:       item.Get("name").String(),
			Path:       item.Get("source.path").String(),
			SourceName: item.Get("source.name").String(),
			Line:       int(item.Get("line").Int()),
			Column:     int(item.Get("column").Int()),
		})
	}
	return frames, nil
}

// StepInTargets fetches the candidate call targets for a frame.
func (c *Client) StepInTargets(ctx context.Context, frameID int) ([]StepInTarget, error) {
	args, _ := sjson.SetBytes([]byte(`{}`), "frameId", frameID)

	body, err := c.sendRequest(ctx, "stepInTargets", args)
	if err != nil {
		return nil, err
	}

	var targets []StepInTarget
	for _, item := range gjson.GetBytes(body, "targets").Array() {
		targets = append(targets, StepInTarget{
			ID:     int(item.Get("id").Int()),
			Label:  item.Get("label").String(),
			Line:   int(item.Get("line").Int()),
			Column: int(item.Get("column").Int()),
		})
	}
	return targets, nil
}

// StepIn steps the thread into a specific target, or the default call
// when targetID is zero.
func (c *Client) StepIn(ctx context.Context, threadID, targetID int) error {
	args, _ := sjson.SetBytes([]byte(`{}`), "threadId", threadID)
	if targetID != 0 {
		args, _ = sjson.SetBytes(args, "targetId", targetID)
	}
	_, err := c.sendRequest(ctx, "stepIn", args)
	return err
}
