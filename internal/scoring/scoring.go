// Package scoring implements the five scoring dimensions, gates, and
// ranking that decide which candidate branch wins a race.
package scoring

import (
	"sort"

	"github.com/hydraai/hydra/internal/config"
	"github.com/hydraai/hydra/internal/model"
)

// ScoreBuild scores 100 on success, 0 otherwise.
func ScoreBuild(res model.CommandResult) float64 {
	if res.Success {
		return 100
	}
	return 0
}

// ScoreTests scores the candidate test run against its baseline, penalizing
// newly introduced failures.
func ScoreTests(baseline, agent model.TestResult) float64 {
	if agent.Total == 0 {
		return 0
	}
	newFailures := maxInt(0, int(agent.Failed)-int(baseline.Failed))
	score := 100*float64(agent.Passed)/float64(agent.Total) - 10*float64(newFailures)
	return clamp(score, 0, 100)
}

// ScoreLint scores the candidate lint run against its baseline, penalizing
// new errors/warnings and rewarding resolved ones.
func ScoreLint(baseline, agent model.LintResult) float64 {
	newErrors := maxInt(0, int(agent.Errors)-int(baseline.Errors))
	newWarnings := maxInt(0, int(agent.Warnings)-int(baseline.Warnings))
	resolved := maxInt(0, int(baseline.Errors+baseline.Warnings)-int(agent.Errors+agent.Warnings))
	score := 100 - 12*float64(newErrors) - 2*float64(newWarnings) + float64(resolved)
	return clamp(score, 0, 100)
}

// ScoreDiffScope scores the candidate's change footprint against the
// configured soft limits.
func ScoreDiffScope(cfg config.DiffScopeConfig, res model.DiffScopeResult) float64 {
	score := 100.0
	if cfg.MaxFilesSoft > 0 {
		over := maxInt(0, int(res.FilesChanged)-int(cfg.MaxFilesSoft))
		score -= 50 * float64(over) / float64(cfg.MaxFilesSoft)
	}
	if cfg.MaxChurnSoft > 0 {
		over := maxInt(0, int(res.LinesChurned)-int(cfg.MaxChurnSoft))
		score -= 50 * float64(over) / float64(cfg.MaxChurnSoft)
	}
	if len(res.TouchedProtectedPaths) > 0 {
		score -= 40
	}
	return clamp(score, 0, 100)
}

// ScoreSpeed scores agentDurationMs against the fastest successful agent in
// the race; a zero-duration agent always scores 100.
func ScoreSpeed(fastestSuccessfulMs, agentDurationMs int64) float64 {
	if agentDurationMs <= 0 {
		return 100
	}
	return clamp(100*float64(fastestSuccessfulMs)/float64(agentDurationMs), 0, 100)
}

// Dimensions is the full set of per-agent scored dimensions plus evidence,
// ready to aggregate.
type Dimensions struct {
	Build     model.DimensionScore
	Tests     model.DimensionScore
	Lint      model.DimensionScore
	DiffScope model.DimensionScore
	Speed     model.DimensionScore
}

// Aggregate computes the weighted total across the five dimensions.
func Aggregate(weights config.ScoringWeights, d Dimensions) float64 {
	sumWeight := float64(weights.Build + weights.Tests + weights.Lint + weights.DiffScope + weights.Speed)
	if sumWeight == 0 {
		return 0
	}
	weighted := float64(weights.Build)*d.Build.Score +
		float64(weights.Tests)*d.Tests.Score +
		float64(weights.Lint)*d.Lint.Score +
		float64(weights.DiffScope)*d.DiffScope.Score +
		float64(weights.Speed)*d.Speed.Score
	return weighted / sumWeight
}

// Candidate is one scored agent, ready for gating and ranking.
type Candidate struct {
	AgentKey    string
	Dimensions  Dimensions
	Total       float64
	NewFailures int
	BaselineTotal int
	BuildSuccess bool
	Mergeable   bool
	GateReason  string
}

// ApplyGates marks c unmergeable if it fails require_build_pass or
// max_test_regression_percent.
func ApplyGates(gates config.ScoringGates, c *Candidate) {
	c.Mergeable = true
	c.GateReason = ""

	if gates.RequireBuildPass && !c.BuildSuccess {
		c.Mergeable = false
		c.GateReason = "build_failed"
		return
	}

	if c.BaselineTotal > 0 {
		regressionPercent := (float64(c.NewFailures) / float64(c.BaselineTotal)) * 100
		if regressionPercent > gates.MaxTestRegressionPercent {
			c.Mergeable = false
			c.GateReason = "test_regression_exceeded"
		}
	}
}

// Rank sorts mergeable candidates by total desc, then speed desc, then
// diff_scope desc, then agent_key asc — stable and deterministic.
func Rank(candidates []Candidate) []Candidate {
	mergeable := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Mergeable {
			mergeable = append(mergeable, c)
		}
	}
	sort.SliceStable(mergeable, func(i, j int) bool {
		a, b := mergeable[i], mergeable[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Dimensions.Speed.Score != b.Dimensions.Speed.Score {
			return a.Dimensions.Speed.Score > b.Dimensions.Speed.Score
		}
		if a.Dimensions.DiffScope.Score != b.Dimensions.DiffScope.Score {
			return a.Dimensions.DiffScope.Score > b.Dimensions.DiffScope.Score
		}
		return a.AgentKey < b.AgentKey
	})
	return mergeable
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
