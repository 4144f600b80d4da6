package domain

import "github.com/shopspring/decimal"

// AllocationResult is the suggested investment for one asset after a contribution.
// Percentages are 0-1 fractions of the post-contribution portfolio total.
type AllocationResult struct {
	AssetID           string              `json:"assetId"`
	ClassID           string              `json:"classId"`
	Ticker            string              `json:"ticker"`
	IdealPercentage   decimal.Decimal     `json:"idealPercentage"`
	CurrentPercentage decimal.Decimal     `json:"currentPercentage"`
	SuggestedAmount   decimal.Decimal     `json:"suggestedAmount"`
	SuggestedUnits    decimal.Decimal     `json:"suggestedUnits"`
	NewPercentage     decimal.Decimal     `json:"newPercentage"`
	Actual            decimal.NullDecimal `json:"actual"` // amount the user reports having invested
}
