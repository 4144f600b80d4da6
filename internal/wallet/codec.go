package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

// storedPortfolio is the on-disk wallet layout. Older wallets used percentage,
// minInvestment, suggested and amount; both spellings are accepted.
type storedPortfolio struct {
	AssetClasses       []storedClass      `json:"assetClasses"`
	Assets             []storedAsset      `json:"assets"`
	Investments        []storedInvestment `json:"investments"`
	ContributionAmount *decimal.Decimal   `json:"contributionAmount"`
}

type storedClass struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	TargetPercentage *decimal.Decimal `json:"targetPercentage"`
	Percentage       *decimal.Decimal `json:"percentage"`
	Color            string           `json:"color"`
}

type storedAsset struct {
	ID            string           `json:"id"`
	Ticker        string           `json:"ticker"`
	ClassID       string           `json:"classId"`
	Quantity      *decimal.Decimal `json:"quantity"`
	Price         *decimal.Decimal `json:"price"`
	MinIncrement  *decimal.Decimal `json:"minIncrement"`
	MinInvestment *decimal.Decimal `json:"minInvestment"`
	Score         *decimal.Decimal `json:"score"`
}

type storedInvestment struct {
	AssetID           string              `json:"assetId"`
	ClassID           string              `json:"classId"`
	Ticker            string              `json:"ticker"`
	IdealPercentage   *decimal.Decimal    `json:"idealPercentage"`
	CurrentPercentage *decimal.Decimal    `json:"currentPercentage"`
	SuggestedAmount   *decimal.Decimal    `json:"suggestedAmount"`
	Suggested         *decimal.Decimal    `json:"suggested"`
	SuggestedUnits    *decimal.Decimal    `json:"suggestedUnits"`
	Amount            *decimal.Decimal    `json:"amount"`
	NewPercentage     *decimal.Decimal    `json:"newPercentage"`
	Actual            decimal.NullDecimal `json:"actual"`
}

// Encode serializes a wallet snapshot for storage.
func Encode(p domain.Portfolio) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding wallet: %w", err)
	}
	return data, nil
}

// Decode parses stored wallet JSON. Malformed data yields DefaultPortfolio together
// with the parse error so callers can choose to continue with an empty wallet.
func Decode(data []byte) (domain.Portfolio, error) {
	var sp storedPortfolio
	if err := json.Unmarshal(data, &sp); err != nil {
		return domain.DefaultPortfolio(), fmt.Errorf("decoding wallet: %w", err)
	}
	return sp.normalize(), nil
}

// DecodeFile reads a wallet from a JSON or TOML file, chosen by extension.
func DecodeFile(path string) (domain.Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("reading wallet file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		// Round-trip through JSON so both formats share one set of field names.
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return domain.Portfolio{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		data, err = json.Marshal(raw)
		if err != nil {
			return domain.Portfolio{}, fmt.Errorf("converting %s: %w", path, err)
		}
	}

	p, err := Decode(data)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

func (sp storedPortfolio) normalize() domain.Portfolio {
	p := domain.DefaultPortfolio()

	if sp.AssetClasses != nil {
		p.AssetClasses = lo.FilterMap(sp.AssetClasses, func(c storedClass, _ int) (domain.AssetClass, bool) {
			return c.normalize()
		})
	}

	p.Assets = lo.FilterMap(sp.Assets, func(a storedAsset, _ int) (domain.Asset, bool) {
		return a.normalize()
	})

	p.Investments = lo.Map(sp.Investments, func(inv storedInvestment, _ int) domain.AllocationResult {
		return inv.normalize()
	})

	if v := orZero(sp.ContributionAmount); v.IsPositive() {
		p.ContributionAmount = v
	}
	return p
}

func (c storedClass) normalize() (domain.AssetClass, bool) {
	if c.ID == "" {
		return domain.AssetClass{}, false
	}
	target := c.TargetPercentage
	if target == nil {
		target = c.Percentage
	}
	return domain.AssetClass{
		ID:               c.ID,
		Name:             c.Name,
		TargetPercentage: domain.Clamp(orZero(target), decimal.Zero, decimal.NewFromInt(100)),
		Color:            c.Color,
	}, true
}

func (a storedAsset) normalize() (domain.Asset, bool) {
	quantity := orZero(a.Quantity)
	price := orZero(a.Price)
	if quantity.IsNegative() || price.IsNegative() {
		return domain.Asset{}, false
	}

	minInc := a.MinIncrement
	if minInc == nil {
		minInc = a.MinInvestment
	}
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}

	score := domain.Clamp(orZero(a.Score).Round(0), decimal.NewFromInt(domain.MinScore), decimal.NewFromInt(domain.MaxScore))

	asset := domain.Asset{
		ID:           id,
		Ticker:       strings.ToUpper(strings.TrimSpace(a.Ticker)),
		ClassID:      a.ClassID,
		Quantity:     quantity,
		Price:        price,
		MinIncrement: orZero(minInc),
		Score:        int(score.IntPart()),
	}
	if !asset.MinIncrement.IsPositive() {
		asset.MinIncrement = decimal.NewFromInt(1)
		if asset.IsTesouroDireto() {
			asset.MinIncrement = domain.TesouroIncrement
		}
	}
	return asset, true
}

func (inv storedInvestment) normalize() domain.AllocationResult {
	amount := inv.SuggestedAmount
	if amount == nil {
		amount = inv.Suggested
	}
	units := inv.SuggestedUnits
	if units == nil {
		units = inv.Amount
	}
	return domain.AllocationResult{
		AssetID:           inv.AssetID,
		ClassID:           inv.ClassID,
		Ticker:            inv.Ticker,
		IdealPercentage:   orZero(inv.IdealPercentage),
		CurrentPercentage: orZero(inv.CurrentPercentage),
		SuggestedAmount:   orZero(amount),
		SuggestedUnits:    orZero(units),
		NewPercentage:     orZero(inv.NewPercentage),
		Actual:            inv.Actual,
	}
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
