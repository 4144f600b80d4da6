package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

// QuoteFetcher looks up the live price of a single ticker.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// Service resolves asset prices from the cache, the live quote API and stored quotes.
type Service struct {
	client         QuoteFetcher
	repo           QuoteRepository
	cache          *quoteCache
	staleThreshold time.Duration
	now            func() time.Time
}

// NewService creates a new quote Service.
func NewService(client QuoteFetcher, repo QuoteRepository, cacheTTL, staleThreshold time.Duration) *Service {
	return &Service{
		client:         client,
		repo:           repo,
		cache:          newQuoteCache(cacheTTL),
		staleThreshold: staleThreshold,
		now:            time.Now,
	}
}

// GetQuote returns the best available price for a ticker. Treasury bonds are
// never looked up remotely; for everything else a failed live lookup falls back
// to the last stored quote.
func (s *Service) GetQuote(ctx context.Context, ticker string) (Quote, error) {
	return s.lookup(ctx, ticker, IsTesouroDireto(ticker))
}

// lookup resolves a quote from the cache, the live API unless manualOnly is set, and
// finally the repository.
func (s *Service) lookup(ctx context.Context, ticker string, manualOnly bool) (Quote, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return Quote{}, fmt.Errorf("%w: empty ticker", ErrNoQuote)
	}

	if q, ok := s.cache.get(ticker); ok {
		return q, nil
	}

	var liveErr error
	if manualOnly {
		liveErr = fmt.Errorf("%w: %s is priced manually", ErrNoQuote, ticker)
	} else {
		q, err := s.fetchLive(ctx, ticker)
		if err == nil {
			return q, nil
		}
		liveErr = err
	}

	stored, err := s.repo.GetQuote(ctx, ticker)
	if err != nil {
		if !errors.Is(err, ErrNoQuote) {
			slog.Warn("stored quote lookup failed", "ticker", ticker, "error", err)
		}
		if errors.Is(liveErr, ErrNoQuote) {
			return Quote{}, liveErr
		}
		return Quote{}, fmt.Errorf("%w for %s: %w", ErrNoQuote, ticker, liveErr)
	}

	stored.Stale = s.staleThreshold > 0 && s.now().Sub(stored.UpdatedAt) > s.staleThreshold
	return stored, nil
}

func (s *Service) fetchLive(ctx context.Context, ticker string) (Quote, error) {
	price, err := s.client.FetchQuote(ctx, ticker)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{
		Ticker:       ticker,
		Price:        price,
		MinIncrement: MinIncrementFor(ticker),
		Source:       SourceBrapi,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.repo.SaveQuote(ctx, q); err != nil {
		slog.Warn("failed to persist quote", "ticker", ticker, "error", err)
	}
	s.cache.set(ticker, q)
	return q, nil
}

// SaveManualQuote stores a user-entered price, used for treasury bonds and anything the API does not list.
func (s *Service) SaveManualQuote(ctx context.Context, ticker string, price decimal.Decimal) (Quote, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" || !price.IsPositive() {
		return Quote{}, fmt.Errorf("manual quote for %q: price must be positive", ticker)
	}

	q := Quote{
		Ticker:       ticker,
		Price:        price,
		MinIncrement: MinIncrementFor(ticker),
		Source:       SourceManual,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.repo.SaveQuote(ctx, q); err != nil {
		return Quote{}, fmt.Errorf("storing manual quote: %w", err)
	}
	s.cache.set(ticker, q)
	return q, nil
}

// FetchAndStoreQuotes refreshes every stored quote from the live API.
// Manually priced tickers are left untouched.
func (s *Service) FetchAndStoreQuotes(ctx context.Context) error {
	quotes, err := s.repo.GetAllQuotes(ctx)
	if err != nil {
		return fmt.Errorf("listing stored quotes: %w", err)
	}

	var errs []error
	for _, q := range quotes {
		if q.Source == SourceManual || IsTesouroDireto(q.Ticker) {
			continue
		}
		if _, err := s.fetchLive(ctx, q.Ticker); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, fmt.Errorf("refreshing %s: %w", q.Ticker, err))
		}
	}

	return errors.Join(errs...)
}

// ApplyQuotes returns a copy of p with every asset priced from its quote.
// Treasury assets, by class or ticker, only use manually stored quotes.
// Assets whose lookup fails keep their current price; their tickers are returned.
func (s *Service) ApplyQuotes(ctx context.Context, p domain.Portfolio) (domain.Portfolio, []string) {
	manual := make(map[string]bool)
	for _, a := range p.Assets {
		if a.IsTesouroDireto() {
			manual[NormalizeTicker(a.Ticker)] = true
		}
	}

	prices := make(map[string]decimal.Decimal)
	var failed []string

	for _, ticker := range p.Tickers() {
		q, err := s.lookup(ctx, ticker, manual[NormalizeTicker(ticker)] || IsTesouroDireto(ticker))
		if err != nil {
			slog.Warn("quote unavailable, keeping manual price", "ticker", ticker, "error", err)
			failed = append(failed, ticker)
			continue
		}
		prices[q.Ticker] = q.Price
	}

	assets := make([]domain.Asset, len(p.Assets))
	for i, a := range p.Assets {
		if price, ok := prices[NormalizeTicker(a.Ticker)]; ok {
			a.Price = price
		}
		assets[i] = a
	}
	return p.WithAssets(assets), failed
}
