package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/theryston/cerrado/internal/allocation"
	"github.com/theryston/cerrado/internal/domain"
	"github.com/theryston/cerrado/internal/export"
)

// printPlan writes the plan as an aligned table followed by per-class totals and a summary line.
func printPlan(out io.Writer, p domain.Portfolio, results []domain.AllocationResult) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tCLASS\tPRICE\tIDEAL\tCURRENT\tAFTER\tBUY\tUNITS")
	for _, r := range export.Rows(p, results) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Ticker,
			r.ClassName,
			domain.FormatMoney(r.Price),
			domain.FormatPercent(r.IdealPercentage),
			domain.FormatPercent(r.CurrentPercentage),
			domain.FormatPercent(r.NewPercentage),
			domain.FormatMoney(r.SuggestedAmount),
			domain.FormatUnits(r.SuggestedUnits),
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tTARGET\tCURRENT\tAFTER\tBUY")
	for _, c := range export.ClassRows(p, results) {
		fmt.Fprintf(tw, "%s\t%s%%\t%s\t%s\t%s\n",
			c.Name,
			c.TargetPercentage.StringFixed(2),
			domain.FormatPercent(c.CurrentPercentage),
			domain.FormatPercent(c.NewPercentage),
			domain.FormatMoney(c.SuggestedAmount),
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing class totals: %w", err)
	}

	_, err := fmt.Fprintf(out, "\n%s\n", summaryLine(allocation.Summarize(results, p.ContributionAmount)))
	return err
}
