package scoring

import "github.com/hydraai/hydra/internal/model"

// UsageAccumulator tracks token usage across a race for budget enforcement.
// Cost-budget enforcement is not implemented: no pricing table ships with
// this repo (EstimatedCostUSD stays nil throughout), so CheckCostBudget is a
// stubbed no-op kept for interface symmetry with CheckTokenBudget.
type UsageAccumulator struct {
	total model.TokenUsage
}

func (u *UsageAccumulator) Add(usage model.TokenUsage) {
	u.total = u.total.Add(usage)
}

func (u *UsageAccumulator) Total() model.TokenUsage { return u.total }

// CheckTokenBudget reports whether accumulated usage has reached maxTotal.
func (u *UsageAccumulator) CheckTokenBudget(maxTotal *uint64) bool {
	if maxTotal == nil {
		return false
	}
	return u.total.Total() >= *maxTotal
}

// CheckCostBudget always returns false: no cost model is wired up.
func (u *UsageAccumulator) CheckCostBudget(maxCostUSD *float64) bool {
	return false
}

func (u *UsageAccumulator) Estimate() model.CostEstimate {
	return model.CostEstimate{
		TokenUsage:       u.total,
		TotalTokens:      u.total.Total(),
		EstimatedCostUSD: nil,
	}
}
