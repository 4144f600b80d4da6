package allocation

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

// weights resolves the ideal share of each asset from its class target and score.
type weights struct {
	targets   map[string]decimal.Decimal
	scoreSums map[string]int
}

func newWeights(classes []domain.AssetClass, assets []domain.Asset) weights {
	targets := lo.SliceToMap(classes, func(c domain.AssetClass) (string, decimal.Decimal) {
		return c.ID, c.TargetPercentage
	})
	scoreSums := lo.MapValues(lo.GroupBy(assets, func(a domain.Asset) string { return a.ClassID }),
		func(group []domain.Asset, _ string) int {
			return lo.SumBy(group, func(a domain.Asset) int { return a.Score })
		})
	return weights{targets: targets, scoreSums: scoreSums}
}

// ideal returns score / Σ class scores × target / 100. A class whose scores sum to zero,
// or an asset pointing at an unknown class, gets zero.
func (w weights) ideal(a domain.Asset) decimal.Decimal {
	target, ok := w.targets[a.ClassID]
	if !ok {
		return decimal.Zero
	}
	sum := w.scoreSums[a.ClassID]
	if sum == 0 {
		return decimal.Zero
	}
	weight := decimal.NewFromInt(int64(a.Score)).Div(decimal.NewFromInt(int64(sum)))
	return weight.Mul(target).Div(hundred)
}

// IdealPercentages returns the ideal 0-1 share of the post-contribution total for each asset id.
// It does not depend on holdings or the contribution.
func IdealPercentages(classes []domain.AssetClass, assets []domain.Asset) map[string]decimal.Decimal {
	w := newWeights(classes, assets)
	return lo.SliceToMap(assets, func(a domain.Asset) (string, decimal.Decimal) {
		return a.ID, w.ideal(a)
	})
}
