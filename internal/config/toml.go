// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Stats    StatsConfig    `toml:"stats"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Domain         *string `toml:"domain"`
	Tasks          *int    `toml:"tasks"`
	Seconds        *int    `toml:"seconds"`
	TableSize      *int    `toml:"table-size"`
	Content        *string `toml:"content"`
	ExclusionDepth *int    `toml:"exclusion-depth"`
	HistorySize    *int    `toml:"history-size"`
	Seed           *int64  `toml:"seed"`
}

// StatsConfig maps stats-related settings.
type StatsConfig struct {
	Last   *int `toml:"last"`
	Window *int `toml:"window"`
	Top    *int `toml:"top"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	return cfg, nil
}

// Template is the commented config written by `tuiquiz config`.
const Template = `# tuiquiz configuration
# Values here override saved settings; command-line flags override these.

[practice]
# domain = "arithmetic"   # or "spelling"
# tasks = 10
# seconds = 10            # per question, 3..120
# table-size = 10         # arithmetic facts 1..N
# content = ""            # spelling content file (lines, JSON, or NDJSON)
# exclusion-depth = 5     # recent items kept out of the draw (0 = default)
# history-size = 20
# seed = 0                # 0 picks a random seed

[stats]
# last = 50               # sessions shown
# window = 5              # moving-average window
# top = 10                # weakest items listed
`

// EnsureTemplate writes Template to path unless a file already exists.
func EnsureTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
