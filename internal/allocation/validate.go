package allocation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

// ErrInvalidInput indicates that a precondition of Allocate was violated.
var ErrInvalidInput = errors.New("invalid allocation input")

// validate rejects inputs that would produce meaningless percentages.
// Class targets are not checked; they are used as given.
func validate(assets []domain.Asset, currentTotal, contribution decimal.Decimal) error {
	if contribution.IsNegative() {
		return fmt.Errorf("%w: contribution %s is negative", ErrInvalidInput, contribution)
	}
	if currentTotal.IsNegative() {
		return fmt.Errorf("%w: current total %s is negative", ErrInvalidInput, currentTotal)
	}
	for _, a := range assets {
		switch {
		case !a.Price.IsPositive():
			return fmt.Errorf("%w: asset %s: price must be positive, got %s", ErrInvalidInput, label(a), a.Price)
		case a.Quantity.IsNegative():
			return fmt.Errorf("%w: asset %s: quantity must not be negative, got %s", ErrInvalidInput, label(a), a.Quantity)
		case !a.MinIncrement.IsPositive():
			return fmt.Errorf("%w: asset %s: minimum increment must be positive, got %s", ErrInvalidInput, label(a), a.MinIncrement)
		case a.Score < domain.MinScore || a.Score > domain.MaxScore:
			return fmt.Errorf("%w: asset %s: score must be within %d-%d, got %d", ErrInvalidInput, label(a), domain.MinScore, domain.MaxScore, a.Score)
		}
	}
	return nil
}

func label(a domain.Asset) string {
	if a.Ticker != "" {
		return a.Ticker
	}
	return a.ID
}
