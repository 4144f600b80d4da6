package worker

import (
	"context"
	"log/slog"
	"time"
)

// QuoteRefresher refreshes every stored quote from the live quote API.
type QuoteRefresher interface {
	FetchAndStoreQuotes(ctx context.Context) error
}

// QuoteWorker periodically refreshes stored quotes.
type QuoteWorker struct {
	refresher QuoteRefresher
	interval  time.Duration
}

// NewQuoteWorker creates a new QuoteWorker.
func NewQuoteWorker(refresher QuoteRefresher, interval time.Duration) *QuoteWorker {
	return &QuoteWorker{
		refresher: refresher,
		interval:  interval,
	}
}

func (w *QuoteWorker) refresh(ctx context.Context, initial bool) {
	started := time.Now()
	if err := w.refresher.FetchAndStoreQuotes(ctx); err != nil {
		slog.Error("QuoteWorker: refresh failed", "initial", initial, "error", err)
		return
	}
	slog.Info("QuoteWorker: refresh completed", "initial", initial, "elapsed", time.Since(started))
}

// Run starts the quote worker loop. It blocks until the context is cancelled.
func (w *QuoteWorker) Run(ctx context.Context) {
	slog.Info("QuoteWorker: starting", "interval", w.interval)

	w.refresh(ctx, true)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("QuoteWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx, false)
		}
	}
}
