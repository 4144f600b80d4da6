package domain

import (
	"github.com/shopspring/decimal"
)

// Score bounds for the per-asset quality weight.
const (
	MinScore = 0
	MaxScore = 10
)

// AssetClass is a target allocation bucket, e.g. "Tesouro Direto" at 50%.
type AssetClass struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	TargetPercentage decimal.Decimal `json:"targetPercentage"` // 0-100
	Color            string          `json:"color,omitempty"`
}

// Asset is a holding owned by exactly one AssetClass.
type Asset struct {
	ID           string          `json:"id"`
	Ticker       string          `json:"ticker"`
	ClassID      string          `json:"classId"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	MinIncrement decimal.Decimal `json:"minIncrement"`
	Score        int             `json:"score"`
}

// Value returns price × quantity.
func (a Asset) Value() decimal.Decimal {
	return a.Price.Mul(a.Quantity)
}

// IncrementCost returns the price of one minimum purchasable increment.
func (a Asset) IncrementCost() decimal.Decimal {
	return a.Price.Mul(a.MinIncrement)
}
