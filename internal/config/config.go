// Package config loads and validates engine configuration.
//
// Configuration is read from a TOML file, then overridden by
// BREAKLINE_* environment variables. A polling watcher reloads the
// file when it changes and announces the new configuration on the
// event bus.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Errors returned by validation.
var (
	ErrInvalidClickWindow = errors.New("double click window must be positive")
	ErrInvalidGutterWidth = errors.New("gutter width must be at least 1")
)

// Config is the engine configuration.
type Config struct {
	Input       InputConfig       `toml:"input"`
	Breakpoints BreakpointsConfig `toml:"breakpoints"`
	Decoration  DecorationConfig  `toml:"decoration"`
	Adapter     AdapterConfig     `toml:"adapter"`
	Hooks       HooksConfig       `toml:"hooks"`
}

// InputConfig controls pointer and key handling.
type InputConfig struct {
	// DoubleClickWindowMs is the chord window for gutter double clicks.
	DoubleClickWindowMs int `toml:"double_click_window_ms"`
}

// BreakpointsConfig controls breakpoint persistence.
type BreakpointsConfig struct {
	// PersistPath is where breakpoints are saved between runs.
	// Empty disables persistence.
	PersistPath string `toml:"persist_path"`
}

// DecorationConfig controls margin and editor decorations.
type DecorationConfig struct {
	// RevealOnPause scrolls the paused line into view.
	RevealOnPause bool `toml:"reveal_on_pause"`

	// GutterWidth is the breakpoint margin width in cells.
	GutterWidth int `toml:"gutter_width"`
}

// AdapterConfig describes how to reach the debug adapter. The adapter
// process is launched and owned elsewhere; the engine only connects.
type AdapterConfig struct {
	// Address is the TCP address of a running adapter. Empty runs the
	// engine without one.
	Address string `toml:"address"`
}

// HooksConfig lists Lua hook scripts.
type HooksConfig struct {
	// Paths are Lua files run at startup to register hooks.
	Paths []string `toml:"paths"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Input: InputConfig{
			DoubleClickWindowMs: 300,
		},
		Breakpoints: BreakpointsConfig{
			PersistPath: defaultPersistPath(),
		},
		Decoration: DecorationConfig{
			RevealOnPause: true,
			GutterWidth:   3,
		},
	}
}

// defaultPersistPath places breakpoint state under the user config dir.
func defaultPersistPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "breakline", "breakpoints.json")
}

// DoubleClickWindow returns the chord window as a duration.
func (c Config) DoubleClickWindow() time.Duration {
	return time.Duration(c.Input.DoubleClickWindowMs) * time.Millisecond
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if c.Input.DoubleClickWindowMs <= 0 {
		return fmt.Errorf("input.double_click_window_ms: %w", ErrInvalidClickWindow)
	}
	if c.Decoration.GutterWidth < 1 {
		return fmt.Errorf("decoration.gutter_width: %w", ErrInvalidGutterWidth)
	}
	return nil
}
