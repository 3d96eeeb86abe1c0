package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "BREAKLINE_"

// Load reads configuration from path, applies environment overrides,
// and validates the result. A missing file is not an error; overrides
// still apply on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus environment only.
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides configuration fields from BREAKLINE_* variables.
// Unset variables leave the file value in place; malformed numeric and
// boolean values are ignored rather than failing startup.
func applyEnv(cfg *Config) {
	if v, ok := envInt("DOUBLE_CLICK_MS"); ok {
		cfg.Input.DoubleClickWindowMs = v
	}
	if v, ok := lookup("PERSIST_PATH"); ok {
		cfg.Breakpoints.PersistPath = v
	}
	if v, ok := envBool("REVEAL_ON_PAUSE"); ok {
		cfg.Decoration.RevealOnPause = v
	}
	if v, ok := envInt("GUTTER_WIDTH"); ok {
		cfg.Decoration.GutterWidth = v
	}
	if v, ok := lookup("ADAPTER_ADDR"); ok {
		cfg.Adapter.Address = v
	}
	if v, ok := lookup("HOOKS"); ok {
		var paths []string
		for _, p := range strings.Split(v, string(os.PathListSeparator)) {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		cfg.Hooks.Paths = paths
	}
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}

func envInt(name string) (int, bool) {
	raw, ok := lookup(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envBool(name string) (bool, bool) {
	raw, ok := lookup(name)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
