package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// configFilename is the project config file searched for in the working
// directory and its parents.
const configFilename = "templar.toml"

// Config is the templar.toml project configuration. Everything in it is a
// default; command-line flags win.
type Config struct {
	// TemplateDir is the local template directory.
	TemplateDir string `toml:"template_dir"`

	// DefaultStrategy applies when neither a fragment, a template, nor a
	// rule decides a path (replace when empty).
	DefaultStrategy string `toml:"default_strategy"`

	// MaxDepth bounds inheritance chains (pipeline default when zero).
	MaxDepth int `toml:"max_depth"`

	// Rules map path globs to composition strategies; later rules win.
	Rules []RuleConfig `toml:"rules"`

	// Registry configures a remote template registry.
	Registry RegistryConfig `toml:"registry"`
}

// RuleConfig is one per-path strategy rule.
type RuleConfig struct {
	Pattern  string `toml:"pattern"`
	Strategy string `toml:"strategy"`
}

// RegistryConfig points commands at a remote registry instead of a local
// template directory.
type RegistryConfig struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

// LoadConfig reads a templar.toml file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DiscoverConfig searches the working directory and its parents for
// templar.toml. A missing or unreadable config yields the zero config, so
// commands always have one to consult.
func DiscoverConfig() *Config {
	dir, err := os.Getwd()
	if err != nil {
		return &Config{}
	}
	for {
		path := filepath.Join(dir, configFilename)
		if _, err := os.Stat(path); err == nil {
			if cfg, err := LoadConfig(path); err == nil {
				return cfg
			}
			return &Config{}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return &Config{}
		}
		dir = parent
	}
}
