// Package session holds the working copy of one wallet while it is being edited.
//
// Every mutation builds a new domain.Portfolio snapshot and swaps it in under a lock;
// readers always see a complete snapshot and never a partially applied edit.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/allocation"
	"github.com/theryston/cerrado/internal/domain"
)

// ErrNegativeContribution is returned when a contribution below zero is entered.
var ErrNegativeContribution = errors.New("contribution must not be negative")

// ChangeFunc is invoked with every new snapshot, in the order the snapshots were made.
// It may read the session but must not mutate it.
type ChangeFunc func(code string, p domain.Portfolio)

// Session is the editable state of one wallet.
type Session struct {
	code     string
	onChange ChangeFunc

	publishMu sync.Mutex // serializes mutations with their notification

	mu       sync.RWMutex
	snapshot domain.Portfolio
}

// New creates a session for the wallet identified by code. onChange may be nil.
func New(code string, initial domain.Portfolio, onChange ChangeFunc) *Session {
	return &Session{
		code:     code,
		onChange: onChange,
		snapshot: initial.Clone(),
	}
}

// Code returns the wallet code the session edits.
func (s *Session) Code() string {
	return s.code
}

// Snapshot returns the current wallet snapshot.
func (s *Session) Snapshot() domain.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// update applies fn to the current snapshot and publishes the result. Nothing is
// published when fn fails.
func (s *Session) update(fn func(domain.Portfolio) (domain.Portfolio, error)) (domain.Portfolio, error) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	next, err := fn(s.snapshot)
	if err != nil {
		s.mu.Unlock()
		return domain.Portfolio{}, err
	}
	s.snapshot = next
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(s.code, next.Clone())
	}
	return next.Clone(), nil
}

// Replace swaps in a whole snapshot, e.g. after a wallet has been reloaded.
func (s *Session) Replace(p domain.Portfolio) domain.Portfolio {
	next, _ := s.update(func(domain.Portfolio) (domain.Portfolio, error) {
		return p.Clone(), nil
	})
	return next
}

// SetAssetClasses replaces the class list. Targets summing past 100 are rejected.
func (s *Session) SetAssetClasses(classes []domain.AssetClass) (domain.Portfolio, error) {
	if err := domain.ValidateTargets(classes); err != nil {
		return domain.Portfolio{}, err
	}
	return s.update(func(p domain.Portfolio) (domain.Portfolio, error) {
		return p.WithAssetClasses(classes), nil
	})
}

// SetClassPercentage changes one class target, clamping an increase so the total stays within 100.
func (s *Session) SetClassPercentage(classID string, percentage decimal.Decimal) (domain.Portfolio, error) {
	return s.update(func(p domain.Portfolio) (domain.Portfolio, error) {
		classes, err := domain.ClampClassPercentage(p.AssetClasses, classID, percentage)
		if err != nil {
			return domain.Portfolio{}, err
		}
		return p.WithAssetClasses(classes), nil
	})
}

// UpsertAsset adds an asset or replaces the one with the same id.
func (s *Session) UpsertAsset(asset domain.Asset) (domain.Portfolio, error) {
	if asset.ID == "" {
		return domain.Portfolio{}, fmt.Errorf("asset %q: id is required", asset.Ticker)
	}
	return s.update(func(p domain.Portfolio) (domain.Portfolio, error) {
		return p.WithAsset(asset), nil
	})
}

// RemoveAsset drops an asset and its last suggestion.
func (s *Session) RemoveAsset(id string) domain.Portfolio {
	next, _ := s.update(func(p domain.Portfolio) (domain.Portfolio, error) {
		return p.WithoutAsset(id), nil
	})
	return next
}

// SetContribution records the amount to invest without recomputing the plan.
func (s *Session) SetContribution(amount decimal.Decimal) (domain.Portfolio, error) {
	if amount.IsNegative() {
		return domain.Portfolio{}, ErrNegativeContribution
	}
	return s.update(func(p domain.Portfolio) (domain.Portfolio, error) {
		return p.WithContribution(amount), nil
	})
}

// Recalculate runs the allocation engine on the current snapshot and stores the plan.
func (s *Session) Recalculate() (domain.Portfolio, error) {
	return s.update(withPlan)
}

// Allocate sets the contribution and recomputes the plan as one edit. If the plan
// cannot be computed the snapshot keeps its previous contribution.
func (s *Session) Allocate(amount decimal.Decimal) (domain.Portfolio, error) {
	if amount.IsNegative() {
		return domain.Portfolio{}, ErrNegativeContribution
	}
	return s.update(func(p domain.Portfolio) (domain.Portfolio, error) {
		return withPlan(p.WithContribution(amount))
	})
}

func withPlan(p domain.Portfolio) (domain.Portfolio, error) {
	results, err := allocation.ForPortfolio(p)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("computing allocation: %w", err)
	}
	return p.WithInvestments(results), nil
}
