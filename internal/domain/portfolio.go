package domain

import (
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Portfolio is a wallet snapshot: class targets, holdings, the last computed plan and
// the contribution it was computed for. Snapshots are values; the With* helpers return
// deep copies and never mutate the receiver.
type Portfolio struct {
	AssetClasses       []AssetClass       `json:"assetClasses"`
	Assets             []Asset            `json:"assets"`
	Investments        []AllocationResult `json:"investments"`
	ContributionAmount decimal.Decimal    `json:"contributionAmount"`
}

// DefaultPortfolio returns an empty wallet pre-filled with the built-in asset classes.
func DefaultPortfolio() Portfolio {
	return Portfolio{
		AssetClasses: DefaultAssetClasses(),
		Assets:       []Asset{},
		Investments:  []AllocationResult{},
	}
}

// CurrentTotal returns Σ price × quantity over all assets.
func (p Portfolio) CurrentTotal() decimal.Decimal {
	return lo.Reduce(p.Assets, func(acc decimal.Decimal, a Asset, _ int) decimal.Decimal {
		return acc.Add(a.Value())
	}, decimal.Zero)
}

// Tickers returns the distinct tickers held, in input order.
func (p Portfolio) Tickers() []string {
	tickers := lo.FilterMap(p.Assets, func(a Asset, _ int) (string, bool) {
		return a.Ticker, a.Ticker != ""
	})
	return lo.Uniq(tickers)
}

// FindAsset returns the asset with the given id.
func (p Portfolio) FindAsset(id string) (Asset, bool) {
	return lo.Find(p.Assets, func(a Asset) bool { return a.ID == id })
}

// FindClass returns the asset class with the given id.
func (p Portfolio) FindClass(id string) (AssetClass, bool) {
	return lo.Find(p.AssetClasses, func(c AssetClass) bool { return c.ID == id })
}

// Clone returns a deep copy of the snapshot.
func (p Portfolio) Clone() Portfolio {
	return Portfolio{
		AssetClasses:       slices.Clone(p.AssetClasses),
		Assets:             slices.Clone(p.Assets),
		Investments:        slices.Clone(p.Investments),
		ContributionAmount: p.ContributionAmount,
	}
}

// WithAssetClasses returns a copy with the class list replaced.
func (p Portfolio) WithAssetClasses(classes []AssetClass) Portfolio {
	c := p.Clone()
	c.AssetClasses = slices.Clone(classes)
	return c
}

// WithAssets returns a copy with the asset list replaced.
func (p Portfolio) WithAssets(assets []Asset) Portfolio {
	c := p.Clone()
	c.Assets = slices.Clone(assets)
	return c
}

// WithAsset returns a copy with the asset inserted, or replaced when its id already exists.
func (p Portfolio) WithAsset(asset Asset) Portfolio {
	c := p.Clone()
	if _, idx, ok := lo.FindIndexOf(c.Assets, func(a Asset) bool { return a.ID == asset.ID }); ok {
		c.Assets[idx] = asset
		return c
	}
	c.Assets = append(c.Assets, asset)
	return c
}

// WithoutAsset returns a copy without the given asset and its stored investment.
func (p Portfolio) WithoutAsset(id string) Portfolio {
	c := p.Clone()
	c.Assets = lo.Reject(c.Assets, func(a Asset, _ int) bool { return a.ID == id })
	c.Investments = lo.Reject(c.Investments, func(r AllocationResult, _ int) bool { return r.AssetID == id })
	return c
}

// WithContribution returns a copy with the contribution amount replaced.
func (p Portfolio) WithContribution(amount decimal.Decimal) Portfolio {
	c := p.Clone()
	c.ContributionAmount = amount
	return c
}

// WithInvestments returns a copy with the computed plan replaced.
func (p Portfolio) WithInvestments(results []AllocationResult) Portfolio {
	c := p.Clone()
	c.Investments = slices.Clone(results)
	return c
}
