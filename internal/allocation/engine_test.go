package allocation

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func class(id string, pct string) domain.AssetClass {
	return domain.AssetClass{ID: id, Name: id, TargetPercentage: d(pct)}
}

func asset(id, classID string, score int, price, qty, inc string) domain.Asset {
	return domain.Asset{
		ID:           id,
		Ticker:       id,
		ClassID:      classID,
		Score:        score,
		Price:        d(price),
		Quantity:     d(qty),
		MinIncrement: d(inc),
	}
}

func byID(results []domain.AllocationResult) map[string]domain.AllocationResult {
	m := make(map[string]domain.AllocationResult, len(results))
	for _, r := range results {
		m[r.AssetID] = r
	}
	return m
}

func total(assets []domain.Asset) decimal.Decimal {
	return domain.Portfolio{Assets: assets}.CurrentTotal()
}

func TestAllocateSingleAssetExactFit(t *testing.T) {
	classes := []domain.AssetClass{class("bonds", "100")}
	assets := []domain.Asset{asset("a", "bonds", 10, "10", "0", "1")}

	results, err := Allocate(classes, assets, decimal.Zero, d("95"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}

	r := results[0]
	if !r.SuggestedUnits.Equal(d("9")) {
		t.Errorf("SuggestedUnits = %s, want 9", r.SuggestedUnits)
	}
	if !r.SuggestedAmount.Equal(d("90")) {
		t.Errorf("SuggestedAmount = %s, want 90", r.SuggestedAmount)
	}
	if !r.IdealPercentage.Equal(d("1")) {
		t.Errorf("IdealPercentage = %s, want 1", r.IdealPercentage)
	}

	s := Summarize(results, d("95"))
	if !s.Unallocated.Equal(d("5")) {
		t.Errorf("Unallocated = %s, want 5", s.Unallocated)
	}
}

func TestAllocateScoreWeightedSplit(t *testing.T) {
	classes := []domain.AssetClass{class("equities", "100")}
	assets := []domain.Asset{
		asset("A", "equities", 8, "10", "0", "1"),
		asset("B", "equities", 2, "10", "0", "1"),
	}

	results, err := Allocate(classes, assets, decimal.Zero, d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := byID(results)
	if !got["A"].IdealPercentage.Equal(d("0.8")) {
		t.Errorf("A ideal = %s, want 0.8", got["A"].IdealPercentage)
	}
	if !got["B"].IdealPercentage.Equal(d("0.2")) {
		t.Errorf("B ideal = %s, want 0.2", got["B"].IdealPercentage)
	}
	if !got["A"].SuggestedAmount.Equal(d("80")) {
		t.Errorf("A amount = %s, want 80", got["A"].SuggestedAmount)
	}
	if !got["B"].SuggestedAmount.Equal(d("20")) {
		t.Errorf("B amount = %s, want 20", got["B"].SuggestedAmount)
	}
	if results[0].AssetID != "A" {
		t.Errorf("first result = %s, want A (largest amount first)", results[0].AssetID)
	}
	if !got["A"].NewPercentage.Equal(d("0.8")) {
		t.Errorf("A new percentage = %s, want 0.8", got["A"].NewPercentage)
	}
}

func TestAllocateBalancedAssetSkippedInPrimaryPass(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	// newTotal = 120, ideal value 60 each: X is exactly at ideal, Y is 20 short.
	assets := []domain.Asset{
		asset("X", "c", 5, "10", "6", "1"),
		asset("Y", "c", 5, "10", "4", "1"),
	}

	results, err := Allocate(classes, assets, total(assets), d("20"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := byID(results)
	if !got["X"].SuggestedAmount.IsZero() {
		t.Errorf("X amount = %s, want 0", got["X"].SuggestedAmount)
	}
	if !got["Y"].SuggestedAmount.Equal(d("20")) {
		t.Errorf("Y amount = %s, want 20", got["Y"].SuggestedAmount)
	}
}

func TestAllocateResidualFundsAssetAboveIdeal(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	// Y is 20 below ideal but one unit costs 40, so the primary pass funds nobody.
	// The residual pass walks priority order (Y, X) and X is the first whose unit fits.
	assets := []domain.Asset{
		asset("X", "c", 5, "10", "6", "1"),
		asset("Y", "c", 5, "40", "1", "1"),
	}

	results, err := Allocate(classes, assets, total(assets), d("20"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := byID(results)
	if !got["X"].SuggestedAmount.Equal(d("20")) {
		t.Errorf("X amount = %s, want 20", got["X"].SuggestedAmount)
	}
	if !got["X"].SuggestedUnits.Equal(d("2")) {
		t.Errorf("X units = %s, want 2", got["X"].SuggestedUnits)
	}
	if !got["Y"].SuggestedAmount.IsZero() {
		t.Errorf("Y amount = %s, want 0", got["Y"].SuggestedAmount)
	}
}

func TestAllocateResidualMovesDownPriorityList(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	// Equal gaps, so priority is input order: A then B.
	assets := []domain.Asset{
		asset("A", "c", 5, "30", "0", "1"),
		asset("B", "c", 5, "4", "0", "1"),
	}

	results, err := Allocate(classes, assets, decimal.Zero, d("70"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// newTotal 70, gap 35 each. A: floor(35/30)=1 -> 30, remaining 40.
	// B: desired min(35,40)=35, floor(35/4)=8 -> 32, remaining 8.
	// Residual: A unit 30 > 8; B unit 4 fits twice -> B total 40, remaining 0.
	got := byID(results)
	if !got["A"].SuggestedAmount.Equal(d("30")) {
		t.Errorf("A amount = %s, want 30", got["A"].SuggestedAmount)
	}
	if !got["B"].SuggestedAmount.Equal(d("40")) {
		t.Errorf("B amount = %s, want 40", got["B"].SuggestedAmount)
	}
	if !got["B"].SuggestedUnits.Equal(d("10")) {
		t.Errorf("B units = %s, want 10", got["B"].SuggestedUnits)
	}
}

func TestAllocateTiesKeepInputOrder(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	first := asset("first", "c", 5, "10", "0", "1")
	second := asset("second", "c", 5, "10", "0", "1")

	// Both have the same gap (5) which is below one unit (10), so only the residual pass
	// funds anything and it picks the first asset in input order.
	results, err := Allocate(classes, []domain.Asset{first, second}, decimal.Zero, d("10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := byID(results); !got["first"].SuggestedAmount.Equal(d("10")) || !got["second"].SuggestedAmount.IsZero() {
		t.Errorf("amounts = first %s, second %s; want 10, 0", got["first"].SuggestedAmount, got["second"].SuggestedAmount)
	}

	results, err = Allocate(classes, []domain.Asset{second, first}, decimal.Zero, d("10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := byID(results); !got["second"].SuggestedAmount.Equal(d("10")) || !got["first"].SuggestedAmount.IsZero() {
		t.Errorf("swapped amounts = first %s, second %s; want 0, 10", got["first"].SuggestedAmount, got["second"].SuggestedAmount)
	}
}

func TestAllocateOutputSortedByAmountThenPriority(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	assets := []domain.Asset{
		asset("small", "c", 1, "10", "0", "1"),
		asset("big", "c", 8, "10", "0", "1"),
		asset("zero1", "c", 0, "1000", "0", "1"),
		asset("mid", "c", 1, "10", "0", "1"),
	}

	results, err := Allocate(classes, assets, decimal.Zero, d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"big", "small", "mid", "zero1"}
	for i, id := range want {
		if results[i].AssetID != id {
			t.Errorf("results[%d] = %s, want %s", i, results[i].AssetID, id)
		}
	}
	if len(assets) != 4 || assets[0].ID != "small" {
		t.Error("input slice reordered")
	}
}

func TestAllocateFractionalIncrement(t *testing.T) {
	classes := []domain.AssetClass{class("td", "100")}
	assets := []domain.Asset{asset("LFT", "td", 10, "100", "0", "0.01")}

	results, err := Allocate(classes, assets, decimal.Zero, d("55.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := results[0]
	if !r.SuggestedUnits.Equal(d("0.55")) {
		t.Errorf("units = %s, want 0.55", r.SuggestedUnits)
	}
	if !r.SuggestedAmount.Equal(d("55")) {
		t.Errorf("amount = %s, want 55", r.SuggestedAmount)
	}
}

func TestAllocateFractionalIncrementBuysWholeUnitsFirst(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	assets := []domain.Asset{
		asset("X", "c", 1, "7", "0", "1"),
		asset("A", "c", 3, "100", "0", "0.01"),
		asset("B", "c", 6, "10", "0", "1"),
	}

	results, err := Allocate(classes, assets, decimal.Zero, d("500"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Primary pass: B 30 units (300), A floor(150/100)=1 unit (100), X 7 units (49).
	// Residual 51: B takes five more units, the last 1 buys 0.01 of A.
	tests := []struct {
		id     string
		amount string
		units  string
	}{
		{"B", "350", "35"},
		{"A", "101", "1.01"},
		{"X", "49", "7"},
	}

	got := byID(results)
	for _, tt := range tests {
		r := got[tt.id]
		if !r.SuggestedAmount.Equal(d(tt.amount)) {
			t.Errorf("%s amount = %s, want %s", tt.id, r.SuggestedAmount, tt.amount)
		}
		if !r.SuggestedUnits.Equal(d(tt.units)) {
			t.Errorf("%s units = %s, want %s", tt.id, r.SuggestedUnits, tt.units)
		}
	}
	if results[0].AssetID != "B" || results[1].AssetID != "A" || results[2].AssetID != "X" {
		t.Errorf("order = %s,%s,%s, want B,A,X", results[0].AssetID, results[1].AssetID, results[2].AssetID)
	}
}

func TestAllocateLotIncrement(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	assets := []domain.Asset{asset("LOT", "c", 10, "2", "0", "5")}

	results, err := Allocate(classes, assets, decimal.Zero, d("27"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One lot costs 10: two lots fit, 7 is left over.
	if !results[0].SuggestedUnits.Equal(d("10")) || !results[0].SuggestedAmount.Equal(d("20")) {
		t.Errorf("got units %s amount %s, want 10 units for 20", results[0].SuggestedUnits, results[0].SuggestedAmount)
	}
}

func TestAllocateZeroScoreStarvedInPrimaryPass(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	assets := []domain.Asset{
		asset("good", "c", 10, "10", "0", "1"),
		asset("bad", "c", 0, "10", "0", "1"),
	}

	results, err := Allocate(classes, assets, decimal.Zero, d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := byID(results)
	if !got["bad"].IdealPercentage.IsZero() {
		t.Errorf("bad ideal = %s, want 0", got["bad"].IdealPercentage)
	}
	if !got["bad"].SuggestedAmount.IsZero() {
		t.Errorf("bad amount = %s, want 0", got["bad"].SuggestedAmount)
	}
	if !got["good"].SuggestedAmount.Equal(d("100")) {
		t.Errorf("good amount = %s, want 100", got["good"].SuggestedAmount)
	}
}

func TestAllocateZeroDivisionSafety(t *testing.T) {
	classes := []domain.AssetClass{class("zero", "60"), class("empty", "40")}
	assets := []domain.Asset{
		asset("z1", "zero", 0, "10", "0", "1"),
		asset("z2", "zero", 0, "25", "0", "1"),
	}

	results, err := Allocate(classes, assets, decimal.Zero, d("30"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, r := range results {
		if !r.IdealPercentage.IsZero() || !r.CurrentPercentage.IsZero() {
			t.Errorf("%s ideal=%s current=%s, want 0", r.AssetID, r.IdealPercentage, r.CurrentPercentage)
		}
		if r.SuggestedAmount.IsNegative() {
			t.Errorf("%s negative amount", r.AssetID)
		}
	}
}

func TestAllocateEmptyPortfolio(t *testing.T) {
	results, err := Allocate(nil, nil, decimal.Zero, d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
	if !Summarize(results, d("100")).NothingSuggested() {
		t.Error("expected NothingSuggested for empty portfolio")
	}
}

func TestAllocateContributionBelowEveryIncrement(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	assets := []domain.Asset{
		asset("a", "c", 5, "50", "1", "1"),
		asset("b", "c", 5, "30", "0", "1"),
	}

	results, err := Allocate(classes, assets, total(assets), d("20"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if !r.SuggestedAmount.IsZero() {
			t.Errorf("%s amount = %s, want 0", r.AssetID, r.SuggestedAmount)
		}
	}
	s := Summarize(results, d("20"))
	if !s.NothingSuggested() || !s.Unallocated.Equal(d("20")) {
		t.Errorf("summary = %+v, want nothing suggested and 20 unallocated", s)
	}
}

func TestAllocateZeroContribution(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	assets := []domain.Asset{asset("a", "c", 5, "10", "3", "1")}

	results, err := Allocate(classes, assets, total(assets), decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[0].SuggestedAmount.IsZero() {
		t.Errorf("amount = %s, want 0", results[0].SuggestedAmount)
	}
	if !results[0].NewPercentage.Equal(d("1")) {
		t.Errorf("new percentage = %s, want 1", results[0].NewPercentage)
	}
}

func TestAllocateTargetsNotRenormalized(t *testing.T) {
	classes := []domain.AssetClass{class("c", "50")}
	assets := []domain.Asset{asset("a", "c", 10, "1", "0", "1")}

	results, err := Allocate(classes, assets, decimal.Zero, d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := results[0]
	if !r.IdealPercentage.Equal(d("0.5")) {
		t.Errorf("ideal = %s, want 0.5", r.IdealPercentage)
	}
	// 50 from the gap-driven pass, the other 50 from the residual pass.
	if !r.SuggestedAmount.Equal(d("100")) {
		t.Errorf("amount = %s, want 100", r.SuggestedAmount)
	}
}

func TestAllocateUnknownClassStillReported(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	assets := []domain.Asset{
		asset("known", "c", 5, "10", "0", "1"),
		asset("orphan", "gone", 5, "10", "0", "1"),
	}

	results, err := Allocate(classes, assets, decimal.Zero, d("50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := byID(results)
	orphan, ok := got["orphan"]
	if !ok {
		t.Fatal("orphan asset missing from results")
	}
	if !orphan.IdealPercentage.IsZero() || !orphan.SuggestedAmount.IsZero() {
		t.Errorf("orphan = %+v, want zero ideal and amount", orphan)
	}
}

func TestAllocateRejectsInvalidInput(t *testing.T) {
	classes := []domain.AssetClass{class("c", "100")}
	tests := []struct {
		name         string
		asset        domain.Asset
		currentTotal string
		contribution string
	}{
		{"zero price", asset("a", "c", 5, "0", "1", "1"), "0", "10"},
		{"negative price", asset("a", "c", 5, "-1", "1", "1"), "0", "10"},
		{"negative quantity", asset("a", "c", 5, "10", "-1", "1"), "0", "10"},
		{"zero increment", asset("a", "c", 5, "10", "1", "0"), "10", "10"},
		{"score above range", asset("a", "c", 11, "10", "1", "1"), "10", "10"},
		{"negative score", asset("a", "c", -1, "10", "1", "1"), "10", "10"},
		{"negative contribution", asset("a", "c", 5, "10", "1", "1"), "10", "-10"},
		{"negative total", asset("a", "c", 5, "10", "1", "1"), "-10", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Allocate(classes, []domain.Asset{tt.asset}, d(tt.currentTotal), d(tt.contribution))
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAllocateDeterministic(t *testing.T) {
	classes := []domain.AssetClass{class("a", "50"), class("b", "50")}
	assets := []domain.Asset{
		asset("1", "a", 7, "12.34", "3", "1"),
		asset("2", "a", 3, "98.10", "1", "0.01"),
		asset("3", "b", 10, "5.5", "20", "1"),
	}

	first, err := Allocate(classes, assets, total(assets), d("777.77"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := Allocate(classes, assets, total(assets), d("777.77"))

	for i := range first {
		if first[i].AssetID != second[i].AssetID || !first[i].SuggestedAmount.Equal(second[i].SuggestedAmount) {
			t.Fatalf("run mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// TestAllocateInvariants checks conservation, purchasability and non-negativity over
// randomly generated portfolios.
func TestAllocateInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	increments := []string{"1", "0.01", "0.1", "5"}

	for iter := range 200 {
		nClasses := 1 + rng.IntN(4)
		var classes []domain.AssetClass
		for c := range nClasses {
			classes = append(classes, class(string(rune('A'+c)), decimal.NewFromInt(int64(rng.IntN(60))).String()))
		}

		var assets []domain.Asset
		for i := range 1 + rng.IntN(8) {
			price := decimal.NewFromInt(int64(1 + rng.IntN(50000))).Div(decimal.NewFromInt(100))
			assets = append(assets, domain.Asset{
				ID:           string(rune('a' + i)),
				ClassID:      classes[rng.IntN(nClasses)].ID,
				Score:        rng.IntN(11),
				Price:        price,
				Quantity:     decimal.NewFromInt(int64(rng.IntN(40))),
				MinIncrement: d(increments[rng.IntN(len(increments))]),
			})
		}
		contribution := decimal.NewFromInt(int64(rng.IntN(500000))).Div(decimal.NewFromInt(100))

		results, err := Allocate(classes, assets, total(assets), contribution)
		if err != nil {
			t.Fatalf("iter %d: unexpected error: %v", iter, err)
		}
		if len(results) != len(assets) {
			t.Fatalf("iter %d: %d results for %d assets", iter, len(results), len(assets))
		}

		costs := make(map[string]decimal.Decimal, len(assets))
		for _, a := range assets {
			costs[a.ID] = a.IncrementCost()
		}

		sum := decimal.Zero
		for _, r := range results {
			if r.SuggestedAmount.IsNegative() || r.SuggestedUnits.IsNegative() {
				t.Fatalf("iter %d: negative allocation %+v", iter, r)
			}
			if !r.SuggestedAmount.Mod(costs[r.AssetID]).IsZero() {
				t.Fatalf("iter %d: %s amount %s not a multiple of %s", iter, r.AssetID, r.SuggestedAmount, costs[r.AssetID])
			}
			sum = sum.Add(r.SuggestedAmount)
		}
		if sum.GreaterThan(contribution) {
			t.Fatalf("iter %d: allocated %s > contribution %s", iter, sum, contribution)
		}

		// Whatever is left must be smaller than every increment.
		left := contribution.Sub(sum)
		for id, cost := range costs {
			if cost.LessThanOrEqual(left) {
				t.Fatalf("iter %d: %s left over but asset %s costs %s per increment", iter, left, id, cost)
			}
		}
	}
}

func TestIdealPercentagesIdempotent(t *testing.T) {
	classes := []domain.AssetClass{class("a", "70"), class("b", "30")}
	assets := []domain.Asset{
		asset("1", "a", 7, "1", "0", "1"),
		asset("2", "a", 3, "1", "0", "1"),
		asset("3", "b", 4, "1", "0", "1"),
	}

	first := IdealPercentages(classes, assets)
	second := IdealPercentages(classes, assets)

	want := map[string]string{"1": "0.49", "2": "0.21", "3": "0.3"}
	for id, w := range want {
		if !first[id].Equal(d(w)) {
			t.Errorf("ideal[%s] = %s, want %s", id, first[id], w)
		}
		if !first[id].Equal(second[id]) {
			t.Errorf("ideal[%s] changed between runs: %s vs %s", id, first[id], second[id])
		}
	}
}

func TestForPortfolioUsesSnapshotTotals(t *testing.T) {
	p := domain.Portfolio{
		AssetClasses:       []domain.AssetClass{class("c", "100")},
		Assets:             []domain.Asset{asset("a", "c", 10, "10", "5", "1")},
		ContributionAmount: d("50"),
	}

	results, err := ForPortfolio(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[0].CurrentPercentage.Equal(d("1")) || !results[0].SuggestedAmount.Equal(d("50")) {
		t.Errorf("result = %+v, want current 1 and amount 50", results[0])
	}
}
