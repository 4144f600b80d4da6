package wallet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that no wallet is stored under the requested code.
var ErrNotFound = errors.New("wallet not found")

// Repository defines persistent storage for encoded wallet snapshots.
type Repository interface {
	Get(ctx context.Context, code string) ([]byte, error)
	Put(ctx context.Context, code string, data []byte) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL wallet repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Get(ctx context.Context, code string) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM wallets WHERE code = $1`, code).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting wallet %s: %w", code, err)
	}
	return data, nil
}

func (r *PgRepository) Put(ctx context.Context, code string, data []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wallets (code, data, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (code)
		 DO UPDATE SET data = $2::jsonb, updated_at = NOW()`,
		code, string(data))
	if err != nil {
		return fmt.Errorf("saving wallet %s: %w", code, err)
	}
	return nil
}

// MemoryRepository keeps wallets in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	wallets map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{wallets: make(map[string][]byte)}
}

func (r *MemoryRepository) Get(_ context.Context, code string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.wallets[code]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (r *MemoryRepository) Put(_ context.Context, code string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[code] = slices.Clone(data)
	return nil
}
