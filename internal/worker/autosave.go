package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/theryston/cerrado/internal/domain"
)

const shutdownFlushTimeout = 10 * time.Second

// WalletSaver persists a wallet snapshot under its code.
type WalletSaver interface {
	Save(ctx context.Context, code string, p domain.Portfolio) (string, error)
}

// AfterSaveHook is called after each successful wallet save.
type AfterSaveHook interface {
	Export(ctx context.Context, code string, p domain.Portfolio) error
}

type pendingSave struct {
	snapshot  domain.Portfolio
	changedAt time.Time
	version   uint64
}

// Autosaver is a debounced write-behind cache for wallet snapshots. Rapid edits to
// the same wallet collapse into a single write once the wallet has been idle for delay.
type Autosaver struct {
	saver WalletSaver
	delay time.Duration
	hook  AfterSaveHook // optional
	now   func() time.Time

	mu      sync.Mutex
	pending map[string]pendingSave
	version uint64
}

// NewAutosaver creates a new Autosaver with an optional post-save hook.
func NewAutosaver(saver WalletSaver, delay time.Duration, hook AfterSaveHook) *Autosaver {
	return &Autosaver{
		saver:   saver,
		delay:   delay,
		hook:    hook,
		now:     time.Now,
		pending: make(map[string]pendingSave),
	}
}

// Schedule records p as the latest snapshot of the wallet and restarts its idle timer.
func (a *Autosaver) Schedule(code string, p domain.Portfolio) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.version++
	a.pending[code] = pendingSave{
		snapshot:  p.Clone(),
		changedAt: a.now(),
		version:   a.version,
	}
}

// Pending returns the unsaved snapshot of a wallet, if any.
func (a *Autosaver) Pending(code string) (domain.Portfolio, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.pending[code]
	if !ok {
		return domain.Portfolio{}, false
	}
	return entry.snapshot.Clone(), true
}

// PendingCount returns the number of wallets waiting to be written.
func (a *Autosaver) PendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Flush writes every pending wallet regardless of its idle time.
func (a *Autosaver) Flush(ctx context.Context) {
	a.flush(ctx, func(pendingSave) bool { return true })
}

func (a *Autosaver) flushIdle(ctx context.Context) {
	cutoff := a.now().Add(-a.delay)
	a.flush(ctx, func(e pendingSave) bool { return !e.changedAt.After(cutoff) })
}

func (a *Autosaver) flush(ctx context.Context, due func(pendingSave) bool) {
	a.mu.Lock()
	batch := make(map[string]pendingSave)
	for code, entry := range a.pending {
		if due(entry) {
			batch[code] = entry
		}
	}
	a.mu.Unlock()

	for code, entry := range batch {
		if _, err := a.saver.Save(ctx, code, entry.snapshot); err != nil {
			slog.Error("Autosaver: save failed", "code", code, "error", err)
			continue
		}

		a.mu.Lock()
		// An edit that arrived during the write stays queued.
		if cur, ok := a.pending[code]; ok && cur.version == entry.version {
			delete(a.pending, code)
		}
		a.mu.Unlock()

		slog.Debug("Autosaver: wallet saved", "code", code)
		a.runHook(ctx, code, entry.snapshot)
	}
}

func (a *Autosaver) runHook(ctx context.Context, code string, p domain.Portfolio) {
	if a.hook == nil {
		return
	}
	if err := a.hook.Export(ctx, code, p); err != nil {
		slog.Error("Autosaver: export hook failed", "code", code, "error", err)
	}
}

// Run starts the autosave loop. It blocks until the context is cancelled, then
// writes whatever is still pending.
func (a *Autosaver) Run(ctx context.Context) {
	slog.Info("Autosaver: starting", "delay", a.delay)

	tick := a.delay / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			a.Flush(flushCtx)
			cancel()
			slog.Info("Autosaver: shutting down", "unsaved", a.PendingCount())
			return
		case <-ticker.C:
			a.flushIdle(ctx)
		}
	}
}
