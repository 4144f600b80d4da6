package external

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Quote sources.
const (
	SourceBrapi  = "brapi"
	SourceManual = "manual"
)

// Quote is a price observation for a ticker.
type Quote struct {
	Ticker       string          `json:"ticker"`
	Price        decimal.Decimal `json:"price"`
	MinIncrement decimal.Decimal `json:"minIncrement"`
	Source       string          `json:"source"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Stale        bool            `json:"stale,omitempty"`
}

// QuoteRepository defines persistent storage for quotes.
type QuoteRepository interface {
	SaveQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, ticker string) (Quote, error)
	GetAllQuotes(ctx context.Context) ([]Quote, error)
}

// PgQuoteRepository implements QuoteRepository with PostgreSQL.
type PgQuoteRepository struct {
	pool *pgxpool.Pool
}

// NewPgQuoteRepository creates a new PostgreSQL quote repository.
func NewPgQuoteRepository(pool *pgxpool.Pool) *PgQuoteRepository {
	return &PgQuoteRepository{pool: pool}
}

func (r *PgQuoteRepository) SaveQuote(ctx context.Context, q Quote) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO quotes (ticker, price, min_increment, source, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (ticker) DO UPDATE
		 SET price = $2, min_increment = $3, source = $4, updated_at = $5`,
		q.Ticker, q.Price, q.MinIncrement, q.Source, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving quote for %s: %w", q.Ticker, err)
	}
	return nil
}

func (r *PgQuoteRepository) GetQuote(ctx context.Context, ticker string) (Quote, error) {
	var q Quote
	err := r.pool.QueryRow(ctx,
		`SELECT ticker, price, min_increment, source, updated_at FROM quotes WHERE ticker = $1`,
		ticker).Scan(&q.Ticker, &q.Price, &q.MinIncrement, &q.Source, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, fmt.Errorf("%w: %s", ErrNoQuote, ticker)
		}
		return Quote{}, fmt.Errorf("getting quote for %s: %w", ticker, err)
	}
	return q, nil
}

func (r *PgQuoteRepository) GetAllQuotes(ctx context.Context) ([]Quote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ticker, price, min_increment, source, updated_at FROM quotes ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("getting all quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.Ticker, &q.Price, &q.MinIncrement, &q.Source, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// MemoryQuoteRepository is an in-process QuoteRepository used when no database is configured.
type MemoryQuoteRepository struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func NewMemoryQuoteRepository() *MemoryQuoteRepository {
	return &MemoryQuoteRepository{quotes: make(map[string]Quote)}
}

func (r *MemoryQuoteRepository) SaveQuote(_ context.Context, q Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes[q.Ticker] = q
	return nil
}

func (r *MemoryQuoteRepository) GetQuote(_ context.Context, ticker string) (Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quotes[ticker]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrNoQuote, ticker)
	}
	return q, nil
}

func (r *MemoryQuoteRepository) GetAllQuotes(_ context.Context) ([]Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quotes := lo.Values(r.quotes)
	slices.SortFunc(quotes, func(a, b Quote) int {
		return strings.Compare(a.Ticker, b.Ticker)
	})
	return quotes, nil
}
