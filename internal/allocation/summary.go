package allocation

import (
	"github.com/montanaflynn/stats"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

// Drift describes how far assets sit from their ideal share, in percentage points (0-1 scale).
type Drift struct {
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
}

// Summary aggregates a computed plan for presentation.
type Summary struct {
	Contribution decimal.Decimal `json:"contribution"`
	Allocated    decimal.Decimal `json:"allocated"`
	Unallocated  decimal.Decimal `json:"unallocated"`
	FundedAssets int             `json:"fundedAssets"`
	DriftBefore  Drift           `json:"driftBefore"`
	DriftAfter   Drift           `json:"driftAfter"`
}

// NothingSuggested reports whether the plan invests nothing, which happens when there are
// no assets or the contribution is smaller than every asset's minimum increment.
func (s Summary) NothingSuggested() bool {
	return s.FundedAssets == 0
}

// Summarize totals a plan and measures drift from the ideal shares before and after it.
func Summarize(results []domain.AllocationResult, contribution decimal.Decimal) Summary {
	allocated := lo.Reduce(results, func(acc decimal.Decimal, r domain.AllocationResult, _ int) decimal.Decimal {
		return acc.Add(r.SuggestedAmount)
	}, decimal.Zero)

	return Summary{
		Contribution: contribution,
		Allocated:    allocated,
		Unallocated:  contribution.Sub(allocated),
		FundedAssets: lo.CountBy(results, func(r domain.AllocationResult) bool { return r.SuggestedAmount.IsPositive() }),
		DriftBefore: drift(lo.Map(results, func(r domain.AllocationResult, _ int) float64 {
			return absDiff(r.IdealPercentage, r.CurrentPercentage)
		})),
		DriftAfter: drift(lo.Map(results, func(r domain.AllocationResult, _ int) float64 {
			return absDiff(r.IdealPercentage, r.NewPercentage)
		})),
	}
}

func absDiff(a, b decimal.Decimal) float64 {
	f, _ := a.Sub(b).Abs().Float64()
	return f
}

// drift returns zero values for an empty plan.
func drift(deviations []float64) Drift {
	data := stats.Float64Data(deviations)
	mean, err := data.Mean()
	if err != nil {
		return Drift{}
	}
	maxDev, _ := data.Max()
	stdDev, _ := data.StandardDeviation()
	return Drift{Mean: mean, Max: maxDev, StdDev: stdDev}
}
