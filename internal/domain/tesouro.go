package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tesouro Direto types offered for treasury assets, stored as the asset ticker.
const (
	TesouroSelic     = "SELIC"
	TesouroPrefixado = "PREFIXADO"
)

// TesouroIncrement is the smallest purchasable fraction of a treasury bond.
var TesouroIncrement = decimal.New(1, -2)

// TesouroType is a treasury bond type selectable for a Tesouro Direto asset.
type TesouroType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultTesouroTypes returns the built-in treasury bond types.
func DefaultTesouroTypes() []TesouroType {
	return []TesouroType{
		{ID: TesouroSelic, Name: "Selic"},
		{ID: TesouroPrefixado, Name: "Prefixado"},
	}
}

// IsTesouroType reports whether ticker is one of the built-in treasury types, ignoring case.
func IsTesouroType(ticker string) bool {
	switch strings.ToUpper(strings.TrimSpace(ticker)) {
	case TesouroSelic, TesouroPrefixado:
		return true
	}
	return false
}

// IsTesouroDireto reports whether the asset is a treasury bond, either by class or by
// type ticker. Treasury bonds are priced by hand and bought in TesouroIncrement steps.
func (a Asset) IsTesouroDireto() bool {
	return a.ClassID == ClassTesouroDireto || IsTesouroType(a.Ticker)
}
