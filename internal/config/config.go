// Package config loads hydra.toml: a strict TOML document (unknown keys
// rejected) describing scoring weights and gates, adapter binary overrides,
// worktree retention, and supervisor timeouts.
package config

// ScoringProfile selects a language-specific preset for build/test/lint
// command discovery. The profile itself only changes which commands the
// scoring engine shells out to; it does not change the scoring formulas.
type ScoringProfile string

const (
	ProfileJSNode ScoringProfile = "js-node"
	ProfileRust   ScoringProfile = "rust"
	ProfilePython ScoringProfile = "python"
)

// RetentionPolicy controls which worktrees survive past race completion.
type RetentionPolicy string

const (
	RetentionNone   RetentionPolicy = "none"
	RetentionFailed RetentionPolicy = "failed"
	RetentionAll    RetentionPolicy = "all"
)

type ScoringWeights struct {
	Build     uint32 `toml:"build"`
	Tests     uint32 `toml:"tests"`
	Lint      uint32 `toml:"lint"`
	DiffScope uint32 `toml:"diff_scope"`
	Speed     uint32 `toml:"speed"`
}

type ScoringGates struct {
	RequireBuildPass       bool    `toml:"require_build_pass"`
	MaxTestRegressionPercent float64 `toml:"max_test_regression_percent"`
}

type DiffScopeConfig struct {
	MaxFilesSoft    uint32   `toml:"max_files_soft"`
	MaxChurnSoft    uint32   `toml:"max_churn_soft"`
	ProtectedPaths  []string `toml:"protected_paths"`
}

type ScoringConfig struct {
	Profile               *ScoringProfile `toml:"profile"`
	TimeoutPerCheckSeconds uint64         `toml:"timeout_per_check_seconds"`
	Weights               ScoringWeights  `toml:"weights"`
	Gates                 ScoringGates    `toml:"gates"`
	DiffScope             DiffScopeConfig `toml:"diff_scope"`
}

type AdaptersConfig struct {
	Claude *string `toml:"claude"`
	Codex  *string `toml:"codex"`
	Cursor *string `toml:"cursor"`
}

type WorktreeConfig struct {
	BaseDir string          `toml:"base_dir"`
	Retain  RetentionPolicy `toml:"retain"`
}

type SupervisorConfig struct {
	HardTimeoutSeconds uint64 `toml:"hard_timeout_seconds"`
	IdleTimeoutSeconds uint64 `toml:"idle_timeout_seconds"`
	OutputBufferBytes  uint64 `toml:"output_buffer_bytes"`
}

// Config is the root of hydra.toml.
type Config struct {
	Scoring    ScoringConfig    `toml:"scoring"`
	Adapters   AdaptersConfig   `toml:"adapters"`
	Worktree   WorktreeConfig   `toml:"worktree"`
	Supervisor SupervisorConfig `toml:"supervisor"`
}

const bytesPerMiB = 1024 * 1024

// Default returns the configuration with every default value from the
// schema, used as the base before an on-disk hydra.toml is merged in.
func Default() Config {
	return Config{
		Scoring: ScoringConfig{
			TimeoutPerCheckSeconds: 300,
			Weights: ScoringWeights{
				Build:     30,
				Tests:     30,
				Lint:      15,
				DiffScope: 15,
				Speed:     10,
			},
			Gates: ScoringGates{
				RequireBuildPass:         true,
				MaxTestRegressionPercent: 0.0,
			},
			DiffScope: DiffScopeConfig{
				MaxFilesSoft:   20,
				MaxChurnSoft:   800,
				ProtectedPaths: []string{},
			},
		},
		Worktree: WorktreeConfig{
			BaseDir: ".hydra/worktrees",
			Retain:  RetentionFailed,
		},
		Supervisor: SupervisorConfig{
			HardTimeoutSeconds: 1800,
			IdleTimeoutSeconds: 300,
			OutputBufferBytes:  10 * bytesPerMiB,
		},
	}
}
