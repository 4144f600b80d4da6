package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

var planHeader = []any{
	"Ticker", "Class", "Quantity", "Price",
	"Ideal %", "Current %", "New %",
	"Suggested amount", "Units",
}

var classHeader = []any{"Class", "Target %", "Current %", "New %", "Suggested amount"}

// planValues builds the plan table. Percentages are fractions so spreadsheets can format them.
func planValues(rows []Row) [][]any {
	data := make([][]any, 0, len(rows)+1)
	data = append(data, planHeader)

	for _, r := range rows {
		data = append(data, []any{
			r.Ticker, r.ClassName,
			toFloat(r.Quantity), toFloat(r.Price),
			toFloat(r.IdealPercentage), toFloat(r.CurrentPercentage), toFloat(r.NewPercentage),
			toFloat(r.SuggestedAmount), toFloat(r.SuggestedUnits),
		})
	}
	return data
}

func classValues(rows []ClassRow) [][]any {
	data := make([][]any, 0, len(rows)+1)
	data = append(data, classHeader)

	for _, r := range rows {
		data = append(data, []any{
			r.Name,
			toFloat(r.TargetPercentage.Div(hundred)),
			toFloat(r.CurrentPercentage), toFloat(r.NewPercentage),
			toFloat(r.SuggestedAmount),
		})
	}
	return data
}

var historyHeader = []any{"Date", "Wallet", "Total", "Contribution", "Allocated", "Assets"}

// historyRow summarizes one saved wallet, dated dd.mm.yyyy hh:mm in UTC.
func historyRow(code string, p domain.Portfolio, at time.Time) []any {
	allocated := sumBy(p.Investments, func(r domain.AllocationResult) decimal.Decimal { return r.SuggestedAmount })
	return []any{
		at.UTC().Format("02.01.2006 15:04"),
		code,
		toFloat(p.CurrentTotal()),
		toFloat(p.ContributionAmount),
		toFloat(allocated),
		len(p.Assets),
	}
}
