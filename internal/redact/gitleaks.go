package redact

import (
	"sync"

	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

var (
	gitleaksOnce     sync.Once
	gitleaksDetector *detect.Detector
	gitleaksErr      error
)

// secondaryRules is a small, self-contained rule set: three gitleaks rules
// that reuse the llm_api_key, github_pat and bearer_token regexes from
// redact.go unchanged, so they match nothing the literal pass misses. The
// literal pass is what every invariant in this codebase depends on; this
// pass only adds redactions, never removes them.
func secondaryRules() []config.Rule {
	return []config.Rule{
		{
			RuleID:      "hydra-llm-api-key",
			Description: "Generic LLM API key",
			Regex:       patterns[0].re,
		},
		{
			RuleID:      "hydra-github-pat",
			Description: "GitHub personal access token",
			Regex:       patterns[2].re,
		},
		{
			RuleID:      "hydra-bearer-token",
			Description: "Bearer token",
			Regex:       patterns[3].re,
		},
	}
}

func detector() (*detect.Detector, error) {
	gitleaksOnce.Do(func() {
		cfg := config.Config{Rules: secondaryRules()}
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			gitleaksErr = err
			return
		}
		d.Config = cfg
		gitleaksDetector = d
	})
	return gitleaksDetector, gitleaksErr
}

// RedactWithGitleaks runs the literal-pattern pass first, then a best-effort
// gitleaks scan over the result. A gitleaks construction or scan failure is
// swallowed: the literal pass above already satisfies every redaction
// invariant this system has, so a broken secondary detector degrades
// silently rather than failing the run.
func RedactWithGitleaks(text string) string {
	result := Redact(text)

	d, err := detector()
	if err != nil || d == nil {
		return result
	}

	findings := d.DetectString(result)
	for _, f := range findings {
		if f.Secret == "" {
			continue
		}
		result = replaceAllLiteral(result, f.Secret, replacement)
	}
	return result
}

func replaceAllLiteral(s, old, new string) string {
	if old == "" {
		return s
	}
	out := make([]byte, 0, len(s))
	for {
		idx := indexOf(s, old)
		if idx < 0 {
			out = append(out, s...)
			break
		}
		out = append(out, s[:idx]...)
		out = append(out, new...)
		s = s[idx+len(old):]
	}
	return string(out)
}

func indexOf(s, substr string) int {
	n, m := len(s), len(substr)
	if m == 0 || m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}
