package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/hydraai/hydra/internal/hydraerr"
)

// Load discovers hydra.toml starting from the current working directory.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, hydraerr.Wrap(hydraerr.KindConfig, "getting working directory", err)
	}
	return LoadFrom(cwd)
}

// LoadFrom loads config using dir as the project root for file discovery.
// Returns the pure defaults, unmodified, when no hydra.toml is present.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, "hydra.toml")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if verr := validate(&cfg); verr != nil {
				return nil, verr
			}
			return &cfg, nil
		}
		return nil, hydraerr.Wrap(hydraerr.KindConfig, "stat hydra.toml", err)
	}

	if err := loadFromFile(path, &cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFromFile decodes path onto cfg (already seeded with defaults),
// rejecting any key the schema does not recognize.
func loadFromFile(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return hydraerr.Wrap(hydraerr.KindConfig, fmt.Sprintf("parsing %s", path), err)
	}

	undecoded := meta.Undecoded()
	if len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return hydraerr.New(hydraerr.KindConfig,
			fmt.Sprintf("unknown configuration key(s): %v", keys))
	}

	return nil
}

// validate enforces the schema's cross-field invariants that TOML decoding
// alone cannot: profile enum membership and retention enum membership.
func validate(cfg *Config) error {
	if cfg.Scoring.Profile != nil {
		switch *cfg.Scoring.Profile {
		case ProfileJSNode, ProfileRust, ProfilePython:
		default:
			return hydraerr.New(hydraerr.KindConfig,
				fmt.Sprintf("scoring.profile: unknown value %q", *cfg.Scoring.Profile))
		}
	}

	switch cfg.Worktree.Retain {
	case RetentionNone, RetentionFailed, RetentionAll:
	default:
		return hydraerr.New(hydraerr.KindConfig,
			fmt.Sprintf("worktree.retain: unknown value %q", cfg.Worktree.Retain))
	}

	return nil
}
