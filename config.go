package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/BurntSushi/toml"
)

// configFileName is looked up in the analysed directory when no --config is given.
const configFileName = "previrt.toml"

// Config drives every subcommand. It is built once from previrt.toml and
// the command line and passed explicitly to each entry point.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Neo4j    Neo4jConfig    `toml:"neo4j"`
}

// AnalysisConfig selects the components and how their calls are abstracted.
type AnalysisConfig struct {
	Dir      string   `toml:"dir"`
	Patterns []string `toml:"patterns"`
	Out      string   `toml:"out"`
	Dynamic  bool     `toml:"dynamic"` // resolve dynamic calls through VTA
	Shapes   bool     `toml:"shapes"`  // classify pointer arguments by pointee type
	Jobs     int      `toml:"jobs"`
}

// Neo4jConfig holds the connection settings used by export.
type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Clean    bool   `toml:"clean"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Analysis: AnalysisConfig{
			Dir:      ".",
			Patterns: []string{"./..."},
			Out:      "interfaces",
			Jobs:     runtime.GOMAXPROCS(0),
		},
		Neo4j: Neo4jConfig{
			URI:  "bolt://localhost:7687",
			User: "neo4j",
		},
	}
}

// LoadConfig reads the configuration at path over the defaults. An empty
// path means previrt.toml in dir, which may be absent.
func LoadConfig(path, dir string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, configFileName)
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys %v", path, keys)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Analysis.Patterns) == 0 {
		return fmt.Errorf("analysis.patterns must not be empty")
	}
	if c.Analysis.Jobs < 1 {
		return fmt.Errorf("analysis.jobs must be positive, got %d", c.Analysis.Jobs)
	}
	return nil
}
