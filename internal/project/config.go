package project

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the [check] section of vesper.toml. Zero values mean
// "use the built-in default".
type Config struct {
	MaxDiagnostics int    `toml:"max_diagnostics"`
	Color          string `toml:"color"` // auto|on|off
	Cache          bool   `toml:"cache"`
	Jobs           int    `toml:"jobs"`
}

type configFile struct {
	Check Config `toml:"check"`
}

// DefaultConfig holds the values used when no vesper.toml is found.
func DefaultConfig() Config {
	return Config{
		MaxDiagnostics: 100,
		Color:          "auto",
		Cache:          true,
	}
}

// LoadConfig parses vesper.toml. Missing sections keep defaults.
func LoadConfig(path string) (Config, error) {
	cfg := configFile{Check: DefaultConfig()}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("check") {
		return DefaultConfig(), nil
	}
	out := cfg.Check
	if out.MaxDiagnostics <= 0 {
		out.MaxDiagnostics = DefaultConfig().MaxDiagnostics
	}
	if out.Color == "" {
		out.Color = "auto"
	}
	return out, nil
}

// DiscoverConfig walks up from startDir for vesper.toml and loads it,
// falling back to defaults when none exists.
func DiscoverConfig(startDir string) (Config, error) {
	path, ok, err := FindVesperToml(startDir)
	if err != nil {
		return DefaultConfig(), err
	}
	if !ok {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
