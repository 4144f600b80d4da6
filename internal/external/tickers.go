package external

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

var tesouroPattern = regexp.MustCompile(`^(LFT|LTN|NTN)`)

// NormalizeTicker upper-cases a ticker and strips an exchange suffix such as ".SA".
func NormalizeTicker(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if i := strings.IndexByte(ticker, '.'); i > 0 {
		ticker = ticker[:i]
	}
	return ticker
}

// IsTesouroDireto reports whether the ticker names a Brazilian treasury bond, either a
// treasury type (SELIC, PREFIXADO) or an LFT/LTN/NTN bond code. Those are not listed on
// the quote API; their price is entered by hand.
func IsTesouroDireto(ticker string) bool {
	ticker = NormalizeTicker(ticker)
	return domain.IsTesouroType(ticker) || tesouroPattern.MatchString(ticker)
}

// MinIncrementFor returns the smallest purchasable quantity for a ticker:
// 0.01 of a unit for treasury bonds, one unit for everything else.
func MinIncrementFor(ticker string) decimal.Decimal {
	if IsTesouroDireto(ticker) {
		return domain.TesouroIncrement
	}
	return decimal.NewFromInt(1)
}
