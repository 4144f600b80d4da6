// Package checklist turns a quality checklist into an asset score.
//
// The checked points are summed into a raw total. The asset receives that total
// clamped to 0-10, so an asset meeting no criterion scores 0 and gets no new money.
// The displayed rating is the same total clamped to 1-10, and decides ShouldInvest.
package checklist

import (
	"github.com/samber/lo"

	"github.com/theryston/cerrado/internal/domain"
)

// MinInvestScore is the lowest score at which an asset is considered worth buying.
const MinInvestScore = 5

// Item is one yes/no quality criterion.
type Item struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Points int    `json:"points"`
}

// Checklist is a named set of criteria for one asset class.
type Checklist struct {
	Label   string `json:"label"`
	ClassID string `json:"classId"`
	Items   []Item `json:"items"`
}

// Result is the outcome of scoring a checklist.
type Result struct {
	Raw          int  `json:"raw"`
	Score        int  `json:"score"`      // displayed rating, 1-10
	AssetScore   int  `json:"assetScore"` // value stored on the asset, 0-10
	ShouldInvest bool `json:"shouldInvest"`
}

// Score sums the points of the checked items and rates the total with FromPoints.
// Unknown keys are ignored and each item counts once.
func Score(items []Item, checked []string) Result {
	selected := lo.SliceToMap(lo.Uniq(checked), func(k string) (string, struct{}) {
		return k, struct{}{}
	})
	matched := lo.Filter(items, func(it Item, _ int) bool {
		_, ok := selected[it.Key]
		return ok
	})
	return FromPoints(lo.Map(matched, func(it Item, _ int) int { return it.Points }))
}

// FromPoints scores a list of already-selected item points.
func FromPoints(points []int) Result {
	raw := lo.Sum(points)
	score := max(1, min(raw, domain.MaxScore))
	return Result{
		Raw:          raw,
		Score:        score,
		AssetScore:   max(domain.MinScore, min(raw, domain.MaxScore)),
		ShouldInvest: score >= MinInvestScore,
	}
}

// ForClass returns the built-in checklists for an asset class.
func ForClass(classID string) []Checklist {
	return lo.Filter(defaults, func(c Checklist, _ int) bool { return c.ClassID == classID })
}

// Find returns the checklist with the given label for an asset class.
func Find(classID, label string) (Checklist, bool) {
	return lo.Find(ForClass(classID), func(c Checklist) bool { return c.Label == label })
}

// Defaults returns every built-in checklist.
func Defaults() []Checklist {
	return append([]Checklist(nil), defaults...)
}

var defaults = []Checklist{
	{
		Label:   "Ações",
		ClassID: domain.ClassAcoes,
		Items: []Item{
			{Key: "roe", Label: "ROE acima de 10% nos últimos anos", Points: 1},
			{Key: "revenue_growth", Label: "Receita crescendo nos últimos 5 anos", Points: 1},
			{Key: "profit_growth", Label: "Lucro crescendo nos últimos 5 anos", Points: 1},
			{Key: "dividends", Label: "Histórico consistente de dividendos", Points: 1},
			{Key: "debt", Label: "Dívida líquida menor que o patrimônio líquido", Points: 1},
			{Key: "no_losses", Label: "Sem prejuízo nos últimos 20 trimestres", Points: 1},
			{Key: "age", Label: "Mais de 30 anos de mercado", Points: 1},
			{Key: "governance", Label: "Listada no Novo Mercado ou com tag along de 100%", Points: 1},
			{Key: "perennial", Label: "Setor perene", Points: 1},
			{Key: "independent", Label: "Não depende de decisões do governo", Points: 1},
		},
	},
	{
		Label:   "FIIs de tijolo",
		ClassID: domain.ClassFIIs,
		Items: []Item{
			{Key: "vacancy", Label: "Vacância abaixo de 10%", Points: 1},
			{Key: "pvp", Label: "P/VP abaixo de 1", Points: 1},
			{Key: "dividends", Label: "Rendimentos consistentes nos últimos 5 anos", Points: 1},
			{Key: "liquidity", Label: "Liquidez diária acima de R$ 1 milhão", Points: 1},
			{Key: "properties", Label: "Mais de 5 imóveis", Points: 1},
			{Key: "tenants", Label: "Inquilinos diversificados", Points: 1},
			{Key: "location", Label: "Imóveis em regiões nobres", Points: 1},
			{Key: "contracts", Label: "Contratos atípicos ou de longo prazo", Points: 1},
			{Key: "manager", Label: "Gestora com bom histórico", Points: 1},
			{Key: "age", Label: "Mais de 5 anos de existência", Points: 1},
		},
	},
	{
		Label:   "FIIs de papel",
		ClassID: domain.ClassFIIs,
		Items: []Item{
			{Key: "pvp", Label: "P/VP abaixo de 1,05", Points: 1},
			{Key: "dividends", Label: "Rendimentos consistentes nos últimos 5 anos", Points: 1},
			{Key: "liquidity", Label: "Liquidez diária acima de R$ 1 milhão", Points: 1},
			{Key: "high_grade", Label: "Maioria dos CRIs high grade", Points: 1},
			{Key: "diversified", Label: "Carteira com mais de 20 CRIs", Points: 1},
			{Key: "guarantees", Label: "CRIs com garantias reais", Points: 1},
			{Key: "no_default", Label: "Sem inadimplência relevante no histórico", Points: 1},
			{Key: "indexers", Label: "Indexadores diversificados", Points: 1},
			{Key: "manager", Label: "Gestora com bom histórico", Points: 1},
			{Key: "age", Label: "Mais de 5 anos de existência", Points: 1},
		},
	},
}
