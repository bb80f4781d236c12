// Package redact strips secrets out of text before it is persisted to the
// artifact store or published on the broadcast bus.
package redact

import (
	"regexp"
)

const replacement = "[REDACTED]"

// pattern pairs a compiled regex with a descriptive name; the name is not
// read anywhere in this package.
type pattern struct {
	name string
	re   *regexp.Regexp
}

// patterns mirrors the five literal patterns the scoring/security design
// requires verbatim. They are compiled once at package init and never
// mutated afterward. The only other process-wide state in this package is
// the lazily built gitleaks detector in gitleaks.go.
var patterns = []pattern{
	{"llm_api_key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"env_secret", regexp.MustCompile(`(?i)(ANTHROPIC_API_KEY|OPENAI_API_KEY|API_KEY|SECRET_KEY)\s*=\s*\S+`)},
	{"github_pat", regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`)},
	{"bearer_token", regexp.MustCompile(`Bearer\s+[A-Za-z0-9._\-]{10,}`)},
	{"password_assignment", regexp.MustCompile(`(?i)password\s*=\s*\S+`)},
}

// Redact replaces every match of the five secret patterns with [REDACTED].
// Patterns are applied in a fixed order so composite inputs (a line
// containing more than one kind of secret) are fully scrubbed.
func Redact(text string) string {
	result := text
	for _, p := range patterns {
		result = p.re.ReplaceAllString(result, replacement)
	}
	return result
}

// Contains reports whether text matches any of the five patterns, useful
// for tests asserting that a raw secret never reaches disk.
func Contains(text string) bool {
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}
