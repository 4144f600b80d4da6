package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAssetValueAndIncrementCost(t *testing.T) {
	a := Asset{
		Quantity:     decimal.RequireFromString("2.5"),
		Price:        decimal.RequireFromString("12.40"),
		MinIncrement: decimal.RequireFromString("0.01"),
	}

	if got := a.Value(); !got.Equal(decimal.RequireFromString("31")) {
		t.Errorf("Value() = %s, want 31", got)
	}
	if got := a.IncrementCost(); !got.Equal(decimal.RequireFromString("0.124")) {
		t.Errorf("IncrementCost() = %s, want 0.124", got)
	}
}
