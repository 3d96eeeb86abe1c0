package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/mfriel/breakline/internal/config"
	"github.com/mfriel/breakline/internal/decoration"
	"github.com/mfriel/breakline/internal/event"
	"github.com/mfriel/breakline/internal/interaction"
	"github.com/mfriel/breakline/internal/session"
	"github.com/mfriel/breakline/internal/stepin"
	"github.com/mfriel/breakline/internal/ui"
)

// quitRequest asks the event loop to exit.
type quitRequest struct{}

// redrawRequest asks the event loop to re-render.
type redrawRequest struct{}

type app struct {
	cfg    config.Config
	bus    *event.Bus
	facade *session.Facade
	screen tcell.Screen
	view   *ui.View

	dispatcher *interaction.Dispatcher
	sync       *decoration.Synchronizer
	selector   *stepin.Selector

	// Logpoint editor input, rebuilt when a new editor generation opens.
	editorGen int
	inputBuf  string
}

// openFile loads a file and points the engine at it.
func (a *app) openFile(path string) error {
	if err := a.view.LoadFile(path); err != nil {
		return err
	}

	a.dispatcher = interaction.NewDispatcher(a.facade, path)
	a.dispatcher.SetDoubleClickWindow(a.cfg.DoubleClickWindow())
	a.sync = decoration.NewSynchronizer(a.facade, a.view)
	a.sync.SetReveal(a.cfg.Decoration.RevealOnPause)
	a.sync.SetFile(path)

	a.selector = stepin.NewSelector(a.facade)
	a.selector.SetNotify(func() {
		a.screen.PostEvent(tcell.NewEventInterrupt(redrawRequest{}))
	})
	a.view.SetStepIn(a.selector)
	return nil
}

// subscribeRedraw wakes the event loop for changes that arrive outside
// it: async verification, pause events, config reloads.
func (a *app) subscribeRedraw() {
	wake := func(data any) {
		// PostEvent drops events when the queue is full; the next
		// interaction refreshes anyway.
		a.screen.PostEvent(tcell.NewEventInterrupt(data))
	}
	a.bus.Subscribe("debug.breakpoint", func(_ context.Context, _ event.Event) {
		wake(redrawRequest{})
	})
	a.bus.Subscribe("debug.session", func(_ context.Context, _ event.Event) {
		wake(redrawRequest{})
	})
	a.bus.Subscribe(event.TopicConfigChanged, func(_ context.Context, ev event.Event) {
		if cfg, ok := ev.Payload.(config.Config); ok {
			wake(cfg)
		}
	})
	a.bus.Subscribe(event.TopicDebugError, func(_ context.Context, ev event.Event) {
		if errEv, ok := ev.Payload.(session.ErrorEvent); ok {
			a.view.SetStatus(fmt.Sprintf("%s: %v", errEv.Op, errEv.Err))
			wake(redrawRequest{})
		}
	})
}

func (a *app) loop() {
	a.refresh()
	for {
		ev := a.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			switch data := ev.Data().(type) {
			case quitRequest:
				return
			case config.Config:
				a.applyConfig(data)
			}
		case *tcell.EventResize:
			a.screen.Sync()
		case *tcell.EventKey:
			if a.handleKey(ev) {
				return
			}
		case *tcell.EventMouse:
			a.handleMouse(ev)
		case nil:
			return
		}
		a.refresh()
	}
}

func (a *app) applyConfig(cfg config.Config) {
	a.cfg = cfg
	a.dispatcher.SetDoubleClickWindow(cfg.DoubleClickWindow())
	a.sync.SetReveal(cfg.Decoration.RevealOnPause)
}

// handleKey routes keys; the logpoint editor owns them while open.
// Returns true to quit.
func (a *app) handleKey(ev *tcell.EventKey) bool {
	ctx := context.Background()

	if editor := a.dispatcher.Editor(); editor.Visible {
		switch ev.Key() {
		case tcell.KeyEnter:
			if err := a.dispatcher.SaveLogpoint(ctx, editor.Generation(), a.inputBuf); err != nil {
				a.reportError("save logpoint", err)
			}
		case tcell.KeyEscape:
			a.dispatcher.CancelEditor(editor.Generation())
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(a.inputBuf) > 0 {
				runes := []rune(a.inputBuf)
				a.inputBuf = string(runes[:len(runes)-1])
			}
		case tcell.KeyRune:
			a.inputBuf += string(ev.Rune())
		}
		return false
	}

	if a.selector.State() != stepin.StateClosed {
		switch ev.Key() {
		case tcell.KeyUp:
			a.selector.MoveSelection(-1)
		case tcell.KeyDown:
			a.selector.MoveSelection(1)
		case tcell.KeyEnter:
			if err := a.selector.Commit(ctx); err != nil {
				a.reportError("step into", err)
			}
		case tcell.KeyEscape:
			a.selector.Close()
		case tcell.KeyRune:
			if ev.Rune() == ' ' {
				if err := a.selector.Commit(ctx); err != nil {
					a.reportError("step into", err)
				}
			}
		}
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		if key, ok := interaction.TranslateKey(ev); ok {
			a.dispatcher.HandleKey(ctx, key)
		}
	case tcell.KeyCtrlC:
		return true
	case tcell.KeyPgUp:
		a.view.Scroll(-pageSize(a.screen))
	case tcell.KeyPgDn:
		a.view.Scroll(pageSize(a.screen))
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 's':
			if a.facade.IsPaused() {
				a.selector.Open(ctx, 0)
			}
		}
	}
	return false
}

func pageSize(screen tcell.Screen) int {
	_, height := screen.Size()
	if height < 1 {
		return 1
	}
	return height
}

func (a *app) handleMouse(ev *tcell.EventMouse) {
	ctx := context.Background()

	if buttons := ev.Buttons(); buttons&tcell.WheelUp != 0 {
		a.view.Scroll(-3)
		return
	} else if buttons&tcell.WheelDown != 0 {
		a.view.Scroll(3)
		return
	}

	if a.selector.State() != stepin.StateClosed && ev.Buttons() != tcell.ButtonNone {
		// Outside click closes without committing.
		a.selector.Close()
		return
	}

	if menu := a.dispatcher.Menu(); menu.Visible && ev.Buttons() != tcell.ButtonNone {
		x, y := ev.Position()
		if action, ok := menuHit(menu, x, y); ok {
			if err := a.dispatcher.ExecuteAction(ctx, action); err != nil {
				a.reportError("menu action", err)
			}
			return
		}
		a.dispatcher.HandleOutsideClick()
		return
	}

	pev, ok := interaction.TranslateMouse(ev, a.view)
	if !ok {
		return
	}
	if err := a.dispatcher.HandlePointer(ctx, pev); err != nil {
		a.reportError("pointer", err)
	}
}

// menuHit resolves a click on the rendered menu to its action.
func menuHit(menu interaction.Menu, x, y int) (interaction.Action, bool) {
	width := 0
	for _, action := range menu.Actions {
		if n := len([]rune(action.String())); n > width {
			width = n
		}
	}

	row := y - menu.Y - 1
	if row < 0 || row >= len(menu.Actions) {
		return 0, false
	}
	if x < menu.X || x >= menu.X+width+2 {
		return 0, false
	}
	return menu.Actions[row], true
}

func (a *app) reportError(op string, err error) {
	go a.bus.Publish(context.Background(), event.TopicDebugError, session.ErrorEvent{Op: op, Err: err})
}

// refresh reconciles decorations and redraws.
func (a *app) refresh() {
	if err := a.sync.Sync(); err != nil {
		a.reportError("decoration sync", err)
	}

	editor := a.dispatcher.Editor()
	if editor.Visible && editor.Generation() != a.editorGen {
		a.editorGen = editor.Generation()
		a.inputBuf = editor.Message
	}
	if editor.Visible {
		editor.Message = a.inputBuf
	}

	a.view.SetOverlays(a.dispatcher.Menu(), editor)
	a.view.Render()
}
