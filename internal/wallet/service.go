package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/theryston/cerrado/internal/domain"
)

const maxCodeAttempts = 5

// Service loads and saves wallet snapshots by code.
type Service struct {
	repo Repository
}

// NewService creates a new wallet Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Load returns the wallet stored under code. Unknown codes and unreadable data both
// yield the default wallet; only storage failures are reported.
func (s *Service) Load(ctx context.Context, code string) (domain.Portfolio, error) {
	if err := ValidateCode(code); err != nil {
		return domain.Portfolio{}, err
	}

	data, err := s.repo.Get(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.DefaultPortfolio(), nil
		}
		return domain.Portfolio{}, fmt.Errorf("loading wallet: %w", err)
	}

	p, err := Decode(data)
	if err != nil {
		slog.Warn("stored wallet is unreadable, using defaults", "code", code, "error", err)
	}
	return p, nil
}

// Save stores p under code and returns the code used. An empty code allocates a fresh one.
func (s *Service) Save(ctx context.Context, code string, p domain.Portfolio) (string, error) {
	if code == "" {
		generated, err := s.freeCode(ctx)
		if err != nil {
			return "", err
		}
		code = generated
	} else if err := ValidateCode(code); err != nil {
		return "", err
	}

	data, err := Encode(p)
	if err != nil {
		return "", err
	}
	if err := s.repo.Put(ctx, code, data); err != nil {
		return "", fmt.Errorf("saving wallet: %w", err)
	}
	return code, nil
}

func (s *Service) freeCode(ctx context.Context) (string, error) {
	for range maxCodeAttempts {
		code, err := NewCode()
		if err != nil {
			return "", err
		}
		_, err = s.repo.Get(ctx, code)
		if errors.Is(err, ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking wallet code: %w", err)
		}
	}
	return "", fmt.Errorf("no free wallet code after %d attempts", maxCodeAttempts)
}
