package wallet

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
)

// ErrInvalidCode indicates a malformed wallet code.
var ErrInvalidCode = errors.New("invalid wallet code")

// Generated codes are six digits; hand-picked codes from older wallets may be any short slug.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var codeSpace = big.NewInt(1_000_000)

// NewCode returns a random six-digit wallet code.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generating wallet code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidateCode checks that code can be used as a storage key.
func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return nil
}
