// Package allocation splits a cash contribution across the assets of a portfolio so that
// it converges toward the class targets and per-asset scores.
//
// The computation is a pure function of its inputs: no I/O, no shared state, safe for
// concurrent use.
//
// Algorithm:
//  1. ideal share of every asset = score / Σ class scores × class target / 100
//  2. gap = ideal value (of the post-contribution total) − current value
//  3. assets are ordered by (ideal % − current %) descending; ties keep input order
//  4. primary pass: each asset with a positive gap buys floor(min(gap, remaining) / price)
//     units, rounded down to a multiple of its minimum increment
//  5. residual pass: leftover cash goes, one increment at a time, to the first asset in
//     priority order whose increment still fits, including assets already above ideal
//  6. results are returned sorted by suggested amount descending; ties keep priority order
package allocation

import (
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// candidate carries the working state of one asset through the passes.
type candidate struct {
	asset        domain.Asset
	ideal        decimal.Decimal
	currentValue decimal.Decimal
	currentPct   decimal.Decimal
	gap          decimal.Decimal
	pctGap       decimal.Decimal
	amount       decimal.Decimal
	units        decimal.Decimal
}

// buy adds n minimum increments and returns their cost.
func (c *candidate) buy(n decimal.Decimal) decimal.Decimal {
	cost := n.Mul(c.asset.IncrementCost())
	c.units = c.units.Add(n.Mul(c.asset.MinIncrement))
	c.amount = c.amount.Add(cost)
	return cost
}

// Allocate computes the suggested investment for every asset.
//
// currentTotal is the pre-contribution portfolio value (normally Σ price × quantity).
// The result holds exactly one entry per asset, sorted by SuggestedAmount descending.
// Σ SuggestedAmount never exceeds contribution; any shortfall is cash that no asset's
// minimum increment fits into.
func Allocate(classes []domain.AssetClass, assets []domain.Asset, currentTotal, contribution decimal.Decimal) ([]domain.AllocationResult, error) {
	if err := validate(assets, currentTotal, contribution); err != nil {
		return nil, err
	}

	newTotal := currentTotal.Add(contribution)
	w := newWeights(classes, assets)

	candidates := lo.Map(assets, func(a domain.Asset, _ int) *candidate {
		ideal := w.ideal(a)
		currentValue := a.Value()
		currentPct := domain.SafeDiv(currentValue, currentTotal)
		return &candidate{
			asset:        a,
			ideal:        ideal,
			currentValue: currentValue,
			currentPct:   currentPct,
			gap:          newTotal.Mul(ideal).Sub(currentValue),
			pctGap:       ideal.Sub(currentPct),
			amount:       decimal.Zero,
			units:        decimal.Zero,
		}
	})

	slices.SortStableFunc(candidates, func(x, y *candidate) int {
		return y.pctGap.Cmp(x.pctGap)
	})

	remaining := primaryPass(candidates, contribution)
	distributeResidual(candidates, remaining)

	results := lo.Map(candidates, func(c *candidate, _ int) domain.AllocationResult {
		return domain.AllocationResult{
			AssetID:           c.asset.ID,
			ClassID:           c.asset.ClassID,
			Ticker:            c.asset.Ticker,
			IdealPercentage:   c.ideal,
			CurrentPercentage: c.currentPct,
			SuggestedAmount:   c.amount,
			SuggestedUnits:    c.units,
			NewPercentage:     domain.SafeDiv(c.currentValue.Add(c.amount), newTotal),
		}
	})

	slices.SortStableFunc(results, func(x, y domain.AllocationResult) int {
		return y.SuggestedAmount.Cmp(x.SuggestedAmount)
	})

	return results, nil
}

// ForPortfolio runs Allocate over a wallet snapshot using its own total and contribution.
func ForPortfolio(p domain.Portfolio) ([]domain.AllocationResult, error) {
	return Allocate(p.AssetClasses, p.Assets, p.CurrentTotal(), p.ContributionAmount)
}

// primaryPass funds assets below their ideal value in priority order and returns the cash left.
// An asset needs at least one increment (price × minIncrement) of budget to be considered.
// Units are first floored to whole units of price and then to a multiple of minIncrement,
// so a fractional-increment asset only buys whole units here; its fractions come from the
// residual pass.
func primaryPass(candidates []*candidate, contribution decimal.Decimal) decimal.Decimal {
	remaining := contribution
	for _, c := range candidates {
		if !remaining.IsPositive() {
			break
		}
		if !c.gap.IsPositive() || c.asset.IncrementCost().GreaterThan(remaining) {
			continue
		}
		desired := decimal.Min(c.gap, remaining)
		maxUnits := desired.Div(c.asset.Price).Floor()
		increments := maxUnits.Div(c.asset.MinIncrement).Floor()
		if !increments.IsPositive() {
			continue
		}
		remaining = remaining.Sub(c.buy(increments))
	}
	return remaining
}

// distributeResidual spends leftover cash one increment at a time on the first asset, in
// priority order, whose increment fits. Assets skipped for not fitting stay skipped because
// remaining only shrinks, so the first fitting asset absorbs every increment it can before
// the scan moves on. The loop ends when no increment fits; cash may remain.
func distributeResidual(candidates []*candidate, remaining decimal.Decimal) decimal.Decimal {
	for remaining.IsPositive() {
		c, ok := lo.Find(candidates, func(c *candidate) bool {
			return c.asset.IncrementCost().LessThanOrEqual(remaining)
		})
		if !ok {
			break
		}
		increments, _ := remaining.QuoRem(c.asset.IncrementCost(), 0)
		remaining = remaining.Sub(c.buy(increments))
	}
	return remaining
}
