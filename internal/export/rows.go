// Package export renders an allocation plan as spreadsheet rows for XLSX files and Google Sheets.
package export

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

// Row is one asset line of an allocation plan.
type Row struct {
	Ticker            string
	ClassName         string
	Quantity          decimal.Decimal
	Price             decimal.Decimal
	IdealPercentage   decimal.Decimal
	CurrentPercentage decimal.Decimal
	NewPercentage     decimal.Decimal
	SuggestedAmount   decimal.Decimal
	SuggestedUnits    decimal.Decimal
}

// ClassRow aggregates a plan per asset class.
type ClassRow struct {
	Name              string
	TargetPercentage  decimal.Decimal
	CurrentPercentage decimal.Decimal
	NewPercentage     decimal.Decimal
	SuggestedAmount   decimal.Decimal
}

// Rows joins plan results with the wallet's assets and classes, keeping result order.
func Rows(p domain.Portfolio, results []domain.AllocationResult) []Row {
	assets := lo.KeyBy(p.Assets, func(a domain.Asset) string { return a.ID })
	classes := lo.KeyBy(p.AssetClasses, func(c domain.AssetClass) string { return c.ID })

	return lo.Map(results, func(r domain.AllocationResult, _ int) Row {
		row := Row{
			Ticker:            r.Ticker,
			IdealPercentage:   r.IdealPercentage,
			CurrentPercentage: r.CurrentPercentage,
			NewPercentage:     r.NewPercentage,
			SuggestedAmount:   r.SuggestedAmount,
			SuggestedUnits:    r.SuggestedUnits,
		}
		if a, ok := assets[r.AssetID]; ok {
			row.Quantity = a.Quantity
			row.Price = a.Price
			if row.Ticker == "" {
				row.Ticker = a.Ticker
			}
		}
		if c, ok := classes[r.ClassID]; ok {
			row.ClassName = c.Name
		} else {
			row.ClassName = r.ClassID
		}
		return row
	})
}

// ClassRows sums plan results per class, in the wallet's class order.
// Classes with neither a target nor holdings are omitted.
func ClassRows(p domain.Portfolio, results []domain.AllocationResult) []ClassRow {
	byClass := lo.GroupBy(results, func(r domain.AllocationResult) string { return r.ClassID })

	return lo.FilterMap(p.AssetClasses, func(c domain.AssetClass, _ int) (ClassRow, bool) {
		rs := byClass[c.ID]
		if c.TargetPercentage.IsZero() && len(rs) == 0 {
			return ClassRow{}, false
		}
		return ClassRow{
			Name:              c.Name,
			TargetPercentage:  c.TargetPercentage,
			CurrentPercentage: sumBy(rs, func(r domain.AllocationResult) decimal.Decimal { return r.CurrentPercentage }),
			NewPercentage:     sumBy(rs, func(r domain.AllocationResult) decimal.Decimal { return r.NewPercentage }),
			SuggestedAmount:   sumBy(rs, func(r domain.AllocationResult) decimal.Decimal { return r.SuggestedAmount }),
		}, true
	})
}

func sumBy(rs []domain.AllocationResult, f func(domain.AllocationResult) decimal.Decimal) decimal.Decimal {
	return lo.Reduce(rs, func(acc decimal.Decimal, r domain.AllocationResult, _ int) decimal.Decimal {
		return acc.Add(f(r))
	}, decimal.Zero)
}

var hundred = decimal.NewFromInt(100)

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
