package allocation

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/domain"
)

func TestSummarizeDrift(t *testing.T) {
	classes := []domain.AssetClass{class("equities", "100")}
	assets := []domain.Asset{
		asset("A", "equities", 8, "10", "0", "1"),
		asset("B", "equities", 2, "10", "0", "1"),
	}
	results, err := Allocate(classes, assets, decimal.Zero, d("100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := Summarize(results, d("100"))

	if !s.Allocated.Equal(d("100")) || !s.Unallocated.IsZero() {
		t.Errorf("allocated %s unallocated %s, want 100 and 0", s.Allocated, s.Unallocated)
	}
	if s.FundedAssets != 2 {
		t.Errorf("FundedAssets = %d, want 2", s.FundedAssets)
	}
	// Before: deviations 0.8 and 0.2.
	if math.Abs(s.DriftBefore.Mean-0.5) > 1e-9 {
		t.Errorf("DriftBefore.Mean = %v, want 0.5", s.DriftBefore.Mean)
	}
	if math.Abs(s.DriftBefore.Max-0.8) > 1e-9 {
		t.Errorf("DriftBefore.Max = %v, want 0.8", s.DriftBefore.Max)
	}
	if math.Abs(s.DriftBefore.StdDev-0.3) > 1e-9 {
		t.Errorf("DriftBefore.StdDev = %v, want 0.3", s.DriftBefore.StdDev)
	}
	if s.DriftAfter.Mean != 0 || s.DriftAfter.Max != 0 {
		t.Errorf("DriftAfter = %+v, want zero", s.DriftAfter)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, d("10"))
	if s.DriftBefore != (Drift{}) || s.DriftAfter != (Drift{}) {
		t.Errorf("drift on empty plan = %+v / %+v, want zero", s.DriftBefore, s.DriftAfter)
	}
	if !s.Unallocated.Equal(d("10")) {
		t.Errorf("Unallocated = %s, want 10", s.Unallocated)
	}
}
