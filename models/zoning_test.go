package models

import "testing"

func intPtr(v int) *int { return &v }

func TestNormalizeZoningBasis(t *testing.T) {
	fresh := func() []*Zoning {
		return []*Zoning{{Bed: intPtr(4), Unit: intPtr(2)}}
	}

	z := fresh()
	NormalizeZoningBasis(z, ComparisonBasisSF)
	if z[0].Bed != nil || z[0].Unit != nil {
		t.Fatal("SF basis must clear both bed and unit")
	}

	z = fresh()
	NormalizeZoningBasis(z, ComparisonBasisUnit)
	if z[0].Bed != nil {
		t.Fatal("unit basis must clear bed")
	}
	if z[0].Unit == nil || *z[0].Unit != 2 {
		t.Fatal("unit basis must keep unit")
	}

	z = fresh()
	NormalizeZoningBasis(z, ComparisonBasisBed)
	if z[0].Unit != nil {
		t.Fatal("bed basis must clear unit")
	}
	if z[0].Bed == nil || *z[0].Bed != 4 {
		t.Fatal("bed basis must keep bed")
	}
}

func TestRollUpZonings_Sums(t *testing.T) {
	totals := RollUpZonings([]Zoning{
		{Bed: intPtr(4), Unit: intPtr(2)},
		{Bed: intPtr(6), Unit: intPtr(3)},
	})

	if totals.TotalBeds == nil || *totals.TotalBeds != 10 {
		t.Fatalf("total beds = %v, want 10", totals.TotalBeds)
	}
	if totals.TotalUnits == nil || *totals.TotalUnits != 5 {
		t.Fatalf("total units = %v, want 5", totals.TotalUnits)
	}
}

func TestRollUpZonings_ZeroSumFoldsToNil(t *testing.T) {
	totals := RollUpZonings([]Zoning{
		{Bed: intPtr(0)},
		{Bed: intPtr(0)},
	})

	if totals.TotalBeds != nil {
		t.Fatalf("total beds = %v, want nil for a zero sum", *totals.TotalBeds)
	}
	if totals.TotalUnits != nil {
		t.Fatal("total units must be nil when no zoning carries units")
	}
}

func TestRollUpZonings_Empty(t *testing.T) {
	totals := RollUpZonings(nil)
	if totals.TotalBeds != nil || totals.TotalUnits != nil {
		t.Fatal("empty zonings must roll up to nil totals")
	}
}

func TestResolveBasis_LandOnlyForcesSF(t *testing.T) {
	if got := resolveBasis(ComparisonBasisBed, CompTypeLandOnly); got != ComparisonBasisSF {
		t.Fatalf("basis = %s, want SF for land-only", got)
	}
	if got := resolveBasis(ComparisonBasisBed, CompTypeBuildingWithLand); got != ComparisonBasisBed {
		t.Fatalf("basis = %s, want Bed preserved", got)
	}
}

func TestEvaluationSubjectQuantity(t *testing.T) {
	e := Evaluation{ComparisonBasis: ComparisonBasisSF, SqFt: 2400}
	if got := e.SubjectQuantity(); !got.Equal(dec("2400")) {
		t.Fatalf("SF quantity = %s, want 2400", got)
	}

	e = Evaluation{ComparisonBasis: ComparisonBasisBed, TotalBeds: intPtr(12)}
	if got := e.SubjectQuantity(); !got.Equal(dec("12")) {
		t.Fatalf("bed quantity = %s, want 12", got)
	}

	e = Evaluation{ComparisonBasis: ComparisonBasisUnit}
	if got := e.SubjectQuantity(); !got.IsZero() {
		t.Fatalf("unit quantity with no roll-up = %s, want 0", got)
	}
}

// Land-only comps price per acre, so the approach value multiplies by land
// size, not by the square footage the SF basis would suggest.
func TestEvaluationSubjectQuantity_LandOnlyUsesAcres(t *testing.T) {
	e := Evaluation{
		ComparisonBasis: ComparisonBasisSF,
		CompType:        CompTypeLandOnly,
		SqFt:            87120,
		Acres:           2,
	}
	if got := e.SubjectQuantity(); !got.Equal(dec("2")) {
		t.Fatalf("land-only quantity = %s, want 2 acres", got)
	}

	// A $100,000/acre comp at full weight values the 2-acre parcel at
	// 200,000, not per-acre price times square footage.
	comps := []*SalesComp{{PriceAcre: dec("100000"), Weight: dec("100")}}
	_, averagedPsf := RecomputeSalesTotals(comps, e.ComparisonBasis, e.CompType)
	value := averagedPsf.Mul(e.SubjectQuantity())
	if !value.Equal(dec("200000")) {
		t.Fatalf("land-only sales value = %s, want 200000", value)
	}
}
