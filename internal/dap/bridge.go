package dap

import (
	"context"
	"fmt"
	"sync"

	"github.com/mfriel/breakline/internal/breakpoint"
	"github.com/mfriel/breakline/internal/event"
	"github.com/mfriel/breakline/internal/session"
)

// Bridge adapts the wire client to the engine's adapter contract and
// forwards adapter run-state events to the session facade.
type Bridge struct {
	client *Client

	mu       sync.Mutex
	threadID int
}

// NewBridge wraps a connected client.
func NewBridge(client *Client) *Bridge {
	return &Bridge{client: client}
}

// Client returns the underlying wire client.
func (b *Bridge) Client() *Client {
	return b.client
}

// Bind forwards stopped and continued events to the facade. Stack
// traces are fetched before the pause is announced so subscribers see
// a complete read model.
func (b *Bridge) Bind(facade *session.Facade, bus *event.Bus) {
	b.client.OnStopped(func(s Stopped) {
		b.mu.Lock()
		b.threadID = s.ThreadID
		b.mu.Unlock()

		// The handler runs on the receive loop; the stack trace request
		// needs that loop free to deliver its response.
		go func() {
			ctx := context.Background()
			frames, err := b.client.StackTrace(ctx, s.ThreadID)
			if err != nil {
				bus.Publish(ctx, event.TopicDebugError, session.ErrorEvent{Op: "fetch stack trace", Err: err})
			}
			facade.SetPaused(ctx, s.Reason, toSessionFrames(frames))
		}()
	})
	b.client.OnContinued(func(int) {
		facade.SetResumed(context.Background())
	})
	b.client.OnTerminated(func() {
		facade.SetResumed(context.Background())
	})
}

func toSessionFrames(frames []StackFrame) []session.StackFrame {
	out := make([]session.StackFrame, len(frames))
	for i, fr := range frames {
		out[i] = session.StackFrame{
			ID:     fr.ID,
			Name:   fr.Name,
			Source: session.Source{Name: fr.SourceName, Path: fr.Path},
			Line:   fr.Line,
			Column: fr.Column,
		}
	}
	return out
}

// VerifyBreakpoints submits the file's enabled breakpoints and maps the
// adapter's answers back onto the full submitted slice. Disabled
// breakpoints are not sent; their slots report unverified.
func (b *Bridge) VerifyBreakpoints(ctx context.Context, path string, bps []breakpoint.Breakpoint) ([]session.Verification, error) {
	subs := make([]SourceBreakpoint, 0, len(bps))
	for _, bp := range bps {
		if !bp.Enabled {
			continue
		}
		subs = append(subs, SourceBreakpoint{
			Line:         bp.Line,
			Column:       bp.Column,
			Condition:    bp.Condition,
			HitCondition: bp.HitCondition,
			LogMessage:   bp.LogMessage,
		})
	}

	answers, err := b.client.SetBreakpoints(ctx, path, subs)
	if err != nil {
		return nil, err
	}

	results := make([]session.Verification, len(bps))
	next := 0
	for i, bp := range bps {
		if !bp.Enabled || next >= len(answers) {
			continue
		}
		results[i] = session.Verification{
			Verified: answers[next].Verified,
			Message:  answers[next].Message,
			Line:     answers[next].Line,
		}
		next++
	}
	return results, nil
}

// StepInTargets fetches candidate call targets for a paused frame.
func (b *Bridge) StepInTargets(ctx context.Context, frameID int) ([]breakpoint.StepInTarget, error) {
	targets, err := b.client.StepInTargets(ctx, frameID)
	if err != nil {
		return nil, err
	}

	out := make([]breakpoint.StepInTarget, len(targets))
	for i, t := range targets {
		out[i] = breakpoint.StepInTarget{
			ID:     t.ID,
			Label:  t.Label,
			Line:   t.Line,
			Column: t.Column,
		}
	}
	return out, nil
}

// StepInto steps the stopped thread into the given target.
func (b *Bridge) StepInto(ctx context.Context, targetID int) error {
	b.mu.Lock()
	threadID := b.threadID
	b.mu.Unlock()

	if threadID == 0 {
		return fmt.Errorf("step into: no stopped thread")
	}
	return b.client.StepIn(ctx, threadID, targetID)
}
