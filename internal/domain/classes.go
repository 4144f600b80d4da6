package domain

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ErrTargetsExceed indicates that class target percentages add up to more than 100.
var ErrTargetsExceed = errors.New("asset class targets exceed 100%")

// Built-in asset class ids. Stored wallets reference these ids, so they must not change.
const (
	ClassTesouroDireto       = "1"
	ClassFIIs                = "2"
	ClassAcoes               = "3"
	ClassCripto              = "4"
	ClassBDR                 = "5"
	ClassETF                 = "6"
	ClassETFInternacional    = "7"
	ClassFundoDeInvestimento = "8"
	ClassREIT                = "9"
	ClassRendaFixa           = "10"
	ClassStocks              = "11"
	ClassOutros              = "12"
)

type defaultClass struct {
	id         string
	name       string
	percentage int64
	color      string
}

var defaultClasses = []defaultClass{
	{ClassTesouroDireto, "Tesouro Direto", 50, "#1E90FF"},
	{ClassFIIs, "FIIs", 30, "#32CD32"},
	{ClassAcoes, "Ações", 10, "#FF4500"},
	{ClassCripto, "Criptomoedas", 0, "#FFD700"},
	{ClassBDR, "BDRs", 0, "#8A2BE2"},
	{ClassETF, "ETFs", 0, "#00CED1"},
	{ClassETFInternacional, "ETFs internacionais", 0, "#DC143C"},
	{ClassFundoDeInvestimento, "Fundos de investimento", 0, "#FF8C00"},
	{ClassREIT, "REITs", 0, "#8B0000"},
	{ClassRendaFixa, "Renda Fixa", 0, "#4682B4"},
	{ClassStocks, "Stocks", 0, "#2E8B57"},
	{ClassOutros, "Outros", 0, "#808080"},
}

// DefaultAssetClasses returns a fresh copy of the built-in classes.
// The defaults leave 10% unallocated; the user distributes it.
func DefaultAssetClasses() []AssetClass {
	return lo.Map(defaultClasses, func(d defaultClass, _ int) AssetClass {
		return AssetClass{
			ID:               d.id,
			Name:             d.name,
			TargetPercentage: decimal.NewFromInt(d.percentage),
			Color:            d.color,
		}
	})
}

// TargetsTotal returns the sum of all class target percentages.
func TargetsTotal(classes []AssetClass) decimal.Decimal {
	return lo.Reduce(classes, func(acc decimal.Decimal, c AssetClass, _ int) decimal.Decimal {
		return acc.Add(c.TargetPercentage)
	}, decimal.Zero)
}

// ValidateTargets rejects negative targets and totals above 100.
// A total below 100 is accepted; the remainder is simply unallocated.
func ValidateTargets(classes []AssetClass) error {
	for _, c := range classes {
		if c.TargetPercentage.IsNegative() {
			return fmt.Errorf("class %s has negative target %s", c.ID, c.TargetPercentage)
		}
	}
	if total := TargetsTotal(classes); total.GreaterThan(hundred) {
		return fmt.Errorf("%w: total is %s", ErrTargetsExceed, total)
	}
	return nil
}

// ClampClassPercentage sets the target of class id and returns the new class list.
// An increase that would push the total past 100 is cut down to whatever is left;
// a decrease is always applied. Unknown ids matching a built-in class are added with
// the built-in name and color.
func ClampClassPercentage(classes []AssetClass, id string, percentage decimal.Decimal) ([]AssetClass, error) {
	percentage = Clamp(percentage, decimal.Zero, hundred)

	others := lo.Reduce(classes, func(acc decimal.Decimal, c AssetClass, _ int) decimal.Decimal {
		if c.ID == id {
			return acc
		}
		return acc.Add(c.TargetPercentage)
	}, decimal.Zero)

	current := decimal.Zero
	existing, idx, found := lo.FindIndexOf(classes, func(c AssetClass) bool { return c.ID == id })
	if found {
		current = existing.TargetPercentage
	}

	if percentage.GreaterThan(current) && others.Add(percentage).GreaterThan(hundred) {
		percentage = decimal.Max(hundred.Sub(others), current)
	}

	out := make([]AssetClass, len(classes), len(classes)+1)
	copy(out, classes)
	if found {
		out[idx].TargetPercentage = percentage
		return out, nil
	}

	def, ok := lo.Find(defaultClasses, func(d defaultClass) bool { return d.id == id })
	if !ok {
		return nil, fmt.Errorf("unknown asset class %q", id)
	}
	return append(out, AssetClass{
		ID:               def.id,
		Name:             def.name,
		TargetPercentage: percentage,
		Color:            def.color,
	}), nil
}
