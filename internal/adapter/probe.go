package adapter

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// ProbeTimeout bounds any single probe invocation (--version, --help).
const ProbeTimeout = 5 * time.Second

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// DiscoverBinary resolves a CLI binary: an explicit override (from
// config.AdaptersConfig) wins, otherwise PATH lookup by name.
func DiscoverBinary(override *string, name string) (string, error) {
	if override != nil && *override != "" {
		return *override, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	return path, nil
}

// RunVersion invokes binary --version (or the given flag) and returns the
// raw trimmed stdout plus the first dotted-number token found in it.
func RunVersion(ctx context.Context, binary string, flag string) (raw string, parsed string, err error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, binary, flag)
	out, runErr := cmd.Output()
	raw = strings.TrimSpace(string(out))
	if runErr != nil {
		return raw, "", runErr
	}
	parsed = versionPattern.FindString(raw)
	return raw, parsed, nil
}

// RunHelp invokes binary --help and returns its combined output for flag
// pattern-matching.
func RunHelp(ctx context.Context, binary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, binary, "--help")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// MeetsMinVersion reports whether the parsed version string satisfies min,
// mirroring gitexec's own git-version gate for each agent CLI's version
// instead of the underlying git binary. A version that fails to parse as
// semver is treated as unmet rather than erroring the whole probe: agent
// CLIs aren't guaranteed to emit strict semver, and an unparsable version
// should degrade to "unverified", not crash detection.
func MeetsMinVersion(parsed, min string) bool {
	if parsed == "" {
		return false
	}
	v, err := semver.NewVersion(parsed)
	if err != nil {
		return false
	}
	minV, err := semver.NewVersion(min)
	if err != nil {
		return false
	}
	return !v.LessThan(minV)
}

// MatchFlags returns the subset of candidateFlags that appear verbatim in
// helpText.
func MatchFlags(helpText string, candidateFlags []string) []string {
	var matched []string
	for _, f := range candidateFlags {
		if strings.Contains(helpText, f) {
			matched = append(matched, f)
		}
	}
	return matched
}
