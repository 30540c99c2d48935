package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSalesComp_BasePricePerUnit(t *testing.T) {
	comp := &SalesComp{
		PriceSqFt: dec("150"),
		PriceBed:  dec("40000"),
		PriceUnit: dec("90000"),
		PriceAcre: dec("250000"),
	}

	if got := comp.BasePricePerUnit(ComparisonBasisSF, CompTypeBuildingWithLand); !got.Equal(dec("150")) {
		t.Fatalf("SF base = %s, want 150", got)
	}
	if got := comp.BasePricePerUnit(ComparisonBasisBed, CompTypeBuildingWithLand); !got.Equal(dec("40000")) {
		t.Fatalf("bed base = %s, want 40000", got)
	}
	if got := comp.BasePricePerUnit(ComparisonBasisUnit, CompTypeBuildingWithLand); !got.Equal(dec("90000")) {
		t.Fatalf("unit base = %s, want 90000", got)
	}
	// land sells by the acre whatever basis the parent is on
	if got := comp.BasePricePerUnit(ComparisonBasisBed, CompTypeLandOnly); !got.Equal(dec("250000")) {
		t.Fatalf("land-only base = %s, want 250000", got)
	}
}

func TestSalesComp_RecomputeAdjusted(t *testing.T) {
	comp := &SalesComp{
		PriceSqFt:       dec("100"),
		TotalAdjustment: dec("10"),
		Weight:          dec("50"),
	}
	comp.RecomputeAdjusted(ComparisonBasisSF, CompTypeBuildingWithLand)

	if !comp.AdjustedPsf.Equal(dec("110")) {
		t.Fatalf("adjusted = %s, want 110", comp.AdjustedPsf)
	}
	if !comp.AveragedPsf.Equal(dec("55")) {
		t.Fatalf("averaged = %s, want 55", comp.AveragedPsf)
	}
	if !comp.BlendedPsf.Equal(dec("50")) {
		t.Fatalf("blended = %s, want 50", comp.BlendedPsf)
	}
}

func TestSalesComp_NegativeAdjustment(t *testing.T) {
	comp := &SalesComp{
		PriceSqFt:       dec("200"),
		TotalAdjustment: dec("-25"),
		Weight:          dec("100"),
	}
	comp.RecomputeAdjusted(ComparisonBasisSF, CompTypeBuildingWithLand)

	if !comp.AdjustedPsf.Equal(dec("150")) {
		t.Fatalf("adjusted = %s, want 150", comp.AdjustedPsf)
	}
}

func TestRecomputeSalesTotals(t *testing.T) {
	comps := []*SalesComp{
		{PriceSqFt: dec("100"), TotalAdjustment: dec("10"), Weight: dec("50")},
		{PriceSqFt: dec("120"), TotalAdjustment: dec("-5"), Weight: dec("50")},
	}

	totalAdj, averaged := RecomputeSalesTotals(comps, ComparisonBasisSF, CompTypeBuildingWithLand)

	if !totalAdj.Equal(dec("5")) {
		t.Fatalf("total adjustment = %s, want 5", totalAdj)
	}
	// 110*0.5 + 114*0.5
	if !averaged.Equal(dec("112")) {
		t.Fatalf("averaged psf = %s, want 112", averaged)
	}
}

func TestRecomputeSalesTotals_NoComps(t *testing.T) {
	totalAdj, averaged := RecomputeSalesTotals(nil, ComparisonBasisSF, CompTypeBuildingWithLand)
	if !totalAdj.IsZero() || !averaged.IsZero() {
		t.Fatalf("empty comps must roll up to zero, got %s / %s", totalAdj, averaged)
	}
}

func TestNormalizeCompAdjustments_SumsAndRenumbers(t *testing.T) {
	items := []*CompAdjustment{
		{AdjKey: "location", AdjValue: dec("5"), Order: 10},
		{AdjKey: "", AdjValue: dec("99")},
		{AdjKey: "condition", AdjValue: dec("-3"), Order: 99},
	}

	kept, total := NormalizeCompAdjustments(items)

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept adjustments, got %d", len(kept))
	}
	if kept[0].Order != 1 || kept[1].Order != 2 {
		t.Fatalf("orders = %d,%d, want 1,2", kept[0].Order, kept[1].Order)
	}
	if !total.Equal(dec("2")) {
		t.Fatalf("total adjustment = %s, want 2 (blank-key row excluded)", total)
	}
}

func TestCostImprovement_DepreciatedCost(t *testing.T) {
	imp := &Improvement{ReplacementCost: dec("400000"), Depreciation: dec("25")}
	imp.RecomputeDepreciatedCost()

	if !imp.DepreciatedCost.Equal(dec("300000")) {
		t.Fatalf("depreciated cost = %s, want 300000", imp.DepreciatedCost)
	}
}

func TestRecomputeCostTotals(t *testing.T) {
	comps := []*CostComp{
		{PriceAcre: dec("50000"), TotalAdjustment: dec("10"), Weight: dec("100")},
	}
	improvements := []*Improvement{
		{ReplacementCost: dec("200000"), Depreciation: dec("50")},
		{ReplacementCost: dec("100000"), Depreciation: decimal.Zero},
	}

	totalAdj, averaged, improvementsValue := RecomputeCostTotals(comps, improvements)

	if !totalAdj.Equal(dec("10")) {
		t.Fatalf("total adjustment = %s, want 10", totalAdj)
	}
	if !averaged.Equal(dec("55000")) {
		t.Fatalf("averaged price/acre = %s, want 55000", averaged)
	}
	if !improvementsValue.Equal(dec("200000")) {
		t.Fatalf("improvements value = %s, want 200000", improvementsValue)
	}
}

func TestAveragedLeaseRate(t *testing.T) {
	comps := []*LeaseComp{
		{LeaseRate: dec("20"), Weight: dec("50")},
		{LeaseRate: dec("30"), Weight: dec("50")},
	}

	if got := AveragedLeaseRate(comps); !got.Equal(dec("25")) {
		t.Fatalf("averaged lease rate = %s, want 25", got)
	}
}
