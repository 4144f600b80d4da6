package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/theryston/cerrado/internal/allocation"
	"github.com/theryston/cerrado/internal/checklist"
	"github.com/theryston/cerrado/internal/config"
	"github.com/theryston/cerrado/internal/domain"
	"github.com/theryston/cerrado/internal/export"
	"github.com/theryston/cerrado/internal/external"
	"github.com/theryston/cerrado/internal/session"
	"github.com/theryston/cerrado/internal/wallet"
)

func allocateCommand() *cli.Command {
	return &cli.Command{
		Name:  "allocate",
		Usage: "compute a contribution plan for a wallet file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "wallet file (.json or .toml)", Required: true},
			&cli.StringFlag{Name: "contribution", Aliases: []string{"c"}, Usage: "amount to invest, overrides the wallet's contributionAmount"},
			&cli.BoolFlag{Name: "refresh-prices", Usage: "fetch current prices before allocating"},
			&cli.StringFlag{Name: "xlsx", Usage: "also write the plan to this XLSX file"},
		},
		Action: runAllocate,
	}
}

func runAllocate(c *cli.Context) error {
	p, err := wallet.DecodeFile(c.String("file"))
	if err != nil {
		return err
	}

	if raw := c.String("contribution"); raw != "" {
		amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return fmt.Errorf("invalid contribution %q: %w", raw, err)
		}
		p = p.WithContribution(amount)
	}

	if c.Bool("refresh-prices") {
		var failed []string
		p, failed = newQuoteService(config.Load()).ApplyQuotes(c.Context, p)
		if len(failed) > 0 {
			slog.Warn("no price for some tickers, keeping wallet prices", "tickers", failed)
		}
	}

	p, err = session.New("cli", p, nil).Allocate(p.ContributionAmount)
	if err != nil {
		return err
	}

	if err := printPlan(c.App.Writer, p, p.Investments); err != nil {
		return err
	}

	if path := c.String("xlsx"); path != "" {
		if err := export.SaveXLSX(path, p, p.Investments); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "\nplan written to %s\n", path)
	}
	return nil
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Usage:     "show the current price of a ticker",
		ArgsUsage: "TICKER",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("expected exactly one ticker")
			}
			q, err := newQuoteService(config.Load()).GetQuote(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s %s (source %s, min increment %s)\n",
				q.Ticker, q.Price.StringFixed(2), q.Source, q.MinIncrement.String())
			return nil
		},
	}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "turn checklist answers into an asset score",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{Name: "points", Usage: "raw points per criterion, e.g. --points 1 --points -1"},
			&cli.StringFlag{Name: "class", Usage: "asset class id whose checklist to use", Value: domain.ClassAcoes},
			&cli.StringFlag{Name: "checklist", Usage: "checklist label when a class has several"},
			&cli.StringSliceFlag{Name: "checked", Usage: "keys of the items answered yes"},
		},
		Action: runScore,
	}
}

func runScore(c *cli.Context) error {
	var res checklist.Result
	if c.IsSet("points") {
		res = checklist.FromPoints(c.IntSlice("points"))
	} else {
		var (
			list checklist.Checklist
			ok   bool
		)
		if label := c.String("checklist"); label != "" {
			list, ok = checklist.Find(c.String("class"), label)
		} else if lists := checklist.ForClass(c.String("class")); len(lists) > 0 {
			list, ok = lists[0], true
		}
		if !ok {
			return fmt.Errorf("no checklist for class %q", c.String("class"))
		}
		res = checklist.Score(list.Items, c.StringSlice("checked"))
	}

	verdict := "below the investing threshold"
	if res.ShouldInvest {
		verdict = "worth investing"
	}
	fmt.Fprintf(c.App.Writer, "score %d/%d (raw %d, asset score %d): %s\n", res.Score, domain.MaxScore, res.Raw, res.AssetScore, verdict)
	return nil
}

// newQuoteService builds a quote service that keeps quotes in memory for the
// lifetime of a single command.
func newQuoteService(cfg config.Config) *external.Service {
	client := external.NewBrapiClient(cfg.BrapiURL, cfg.BrapiToken, cfg.BrapiRetryMax, cfg.BrapiRetryBaseDelay, cfg.BrapiRateLimit)
	return external.NewService(client, external.NewMemoryQuoteRepository(), cfg.QuoteCacheTTL, cfg.QuoteStaleThreshold)
}

func summaryLine(s allocation.Summary) string {
	if s.NothingSuggested() {
		return fmt.Sprintf("nothing to buy with %s", domain.FormatMoney(s.Contribution))
	}
	return fmt.Sprintf("allocated %s of %s across %d assets, %s left over",
		domain.FormatMoney(s.Allocated), domain.FormatMoney(s.Contribution), s.FundedAssets, domain.FormatMoney(s.Unallocated))
}
