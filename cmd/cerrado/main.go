package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/theryston/cerrado/internal/api"
	"github.com/theryston/cerrado/internal/config"
	"github.com/theryston/cerrado/internal/database"
	"github.com/theryston/cerrado/internal/export"
	"github.com/theryston/cerrado/internal/external"
	"github.com/theryston/cerrado/internal/wallet"
	"github.com/theryston/cerrado/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "cerrado",
		Usage: "split a monthly contribution across a portfolio by class targets and asset scores",
		Commands: []*cli.Command{
			serveCommand(),
			allocateCommand(),
			quoteCommand(),
			scoreCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP API with quote refresh and wallet autosave workers",
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	walletRepo, quoteRepo, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	brapi := external.NewBrapiClient(cfg.BrapiURL, cfg.BrapiToken, cfg.BrapiRetryMax, cfg.BrapiRetryBaseDelay, cfg.BrapiRateLimit)
	quoteSvc := external.NewService(brapi, quoteRepo, cfg.QuoteCacheTTL, cfg.QuoteStaleThreshold)
	walletSvc := wallet.NewService(walletRepo)

	// Optional Google Sheets mirror of saved wallets
	var hook worker.AfterSaveHook
	if cfg.SheetsSpreadsheetID != "" && cfg.GoogleCredentialsJSON != "" {
		sheetsWriter, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			slog.Warn("Google Sheets export disabled", "error", err)
		} else {
			hook = sheetsWriter
		}
	}

	// The autosaver outlives the signal context so it can drain after the server stops.
	autosaveCtx, stopAutosave := context.WithCancel(context.WithoutCancel(ctx))
	defer stopAutosave()
	autosaver := worker.NewAutosaver(walletSvc, cfg.AutosaveDelay, hook)
	autosaveDone := make(chan struct{})
	go func() {
		autosaver.Run(autosaveCtx)
		close(autosaveDone)
	}()

	quoteWorker := worker.NewQuoteWorker(quoteSvc, cfg.QuoteWorkerInterval)
	go quoteWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, quote refresh endpoint is unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, api.NewHandler(walletSvc, quoteSvc, autosaver), cfg.AdminAPIKey)

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	stopAutosave()
	<-autosaveDone

	slog.Info("Shutdown complete")
	return nil
}

// openStores connects to PostgreSQL and applies migrations, or falls back to
// process memory when no database is configured.
func openStores(ctx context.Context, cfg config.Config) (wallet.Repository, external.QuoteRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory storage; wallets are lost on restart")
		return wallet.NewMemoryRepository(), external.NewMemoryQuoteRepository(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	return wallet.NewPgRepository(pool), external.NewPgQuoteRepository(pool), pool.Close, nil
}
