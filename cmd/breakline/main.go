// Package main is the entry point for the breakline debugger front end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/mfriel/breakline/internal/breakpoint"
	"github.com/mfriel/breakline/internal/config"
	"github.com/mfriel/breakline/internal/dap"
	"github.com/mfriel/breakline/internal/event"
	"github.com/mfriel/breakline/internal/hook"
	"github.com/mfriel/breakline/internal/session"
	"github.com/mfriel/breakline/internal/ui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath  string
	adapterAddr string
	file        string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.adapterAddr != "" {
		cfg.Adapter.Address = opts.adapterAddr
	}

	bus := event.NewBus()
	store := breakpoint.NewStore()
	if cfg.Breakpoints.PersistPath != "" {
		store.SetPersistPath(cfg.Breakpoints.PersistPath)
		if err := store.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: load breakpoints: %v\n", err)
		}
	}

	var adapter session.Adapter
	var bridge *dap.Bridge
	if transport, err := connectAdapter(cfg.Adapter); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug adapter unavailable: %v\n", err)
	} else if transport != nil {
		client := dap.NewClient(transport)
		defer client.Close()
		bridge = dap.NewBridge(client)
		adapter = bridge
	}

	facade := session.NewFacade(store, bus, adapter)
	if bridge != nil {
		bridge.Bind(facade, bus)
		if _, err := bridge.Client().Initialize(context.Background(), "breakline"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: adapter handshake: %v\n", err)
		}
	}

	runner := hook.NewRunner()
	defer runner.Close()
	runner.OnError = func(err error) {
		go bus.Publish(context.Background(), event.TopicDebugError, session.ErrorEvent{Op: "hook", Err: err})
	}
	for _, path := range cfg.Hooks.Paths {
		if err := runner.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	if err := runner.Attach(bus); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: attach hooks: %v\n", err)
	}

	if opts.configPath != "" {
		watcher := config.NewWatcher(opts.configPath, bus)
		watcher.Start()
		defer watcher.Stop()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: init screen: %v\n", err)
		return 1
	}
	defer screen.Fini()
	screen.EnableMouse()

	app := &app{
		cfg:    cfg,
		bus:    bus,
		facade: facade,
		screen: screen,
		view:   ui.NewView(screen, cfg.Decoration.GutterWidth),
	}
	if err := app.openFile(opts.file); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// External changes redraw through the event loop, not directly.
	app.subscribeRedraw()

	// Save breakpoints on the way out, signals included.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		screen.PostEvent(tcell.NewEventInterrupt(quitRequest{}))
	}()

	app.loop()

	if cfg.Breakpoints.PersistPath != "" {
		if err := store.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: save breakpoints: %v\n", err)
		}
	}
	return 0
}

// connectAdapter dials the configured adapter. An empty address means
// run without one.
func connectAdapter(cfg config.AdapterConfig) (dap.Transport, error) {
	if cfg.Address == "" {
		return nil, nil
	}
	return dap.Dial(cfg.Address)
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.adapterAddr, "adapter", "", "Debug adapter TCP address")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Breakline - breakpoint and interaction engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: breakline [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("breakline %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.file = flag.Arg(0)
	return opts
}
