package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestReconcileScenarioValue_WeightedAverage(t *testing.T) {
	values := []ApproachValue{
		{Value: dec("500000"), Weight: dec("60")},
		{Value: dec("600000"), Weight: dec("40")},
	}

	got := ReconcileScenarioValue(values, 0)
	if !got.Equal(dec("540000")) {
		t.Fatalf("weighted value = %s, want 540000", got)
	}
}

func TestReconcileScenarioValue_RoundsToNearestUnit(t *testing.T) {
	values := []ApproachValue{
		{Value: dec("512345"), Weight: dec("100")},
	}

	got := ReconcileScenarioValue(values, RoundingThousand)
	if !got.Equal(dec("512000")) {
		t.Fatalf("rounded value = %s, want 512000", got)
	}

	got = ReconcileScenarioValue(values, RoundingTenThousand)
	if !got.Equal(dec("510000")) {
		t.Fatalf("rounded value = %s, want 510000", got)
	}
}

func TestReconcileScenarioValue_ZeroWeightExcludedFromNumerator(t *testing.T) {
	values := []ApproachValue{
		{Value: dec("500000"), Weight: dec("100")},
		{Value: dec("9999999"), Weight: decimal.Zero},
	}

	got := ReconcileScenarioValue(values, 0)
	if !got.Equal(dec("500000")) {
		t.Fatalf("weighted value = %s, want 500000", got)
	}
}

func TestReconcileScenarioValue_ZeroWeightSumIsZero(t *testing.T) {
	values := []ApproachValue{
		{Value: dec("500000"), Weight: decimal.Zero},
	}

	got := ReconcileScenarioValue(values, RoundingThousand)
	if !got.IsZero() {
		t.Fatalf("weighted value = %s, want 0 on all-zero weights", got)
	}
}

func TestReconcileScenarioValue_NoApproaches(t *testing.T) {
	if got := ReconcileScenarioValue(nil, RoundingThousand); !got.IsZero() {
		t.Fatalf("weighted value = %s, want 0 with no approaches", got)
	}
}

func TestDeriveScenarioStatus_Lifecycle(t *testing.T) {
	finalVal := dec("500000")

	cases := []struct {
		name   string
		states []ApproachState
		want   ScenarioStatus
	}{
		{
			name:   "no data anywhere is draft",
			states: []ApproachState{{Enabled: true}, {Enabled: true}},
			want:   ScenarioStatusDraft,
		},
		{
			name: "partial data is in progress",
			states: []ApproachState{
				{Enabled: true, HasData: true, FinalValue: &finalVal},
				{Enabled: true},
			},
			want: ScenarioStatusInProgress,
		},
		{
			name: "every enabled approach final is complete",
			states: []ApproachState{
				{Enabled: true, HasData: true, FinalValue: &finalVal},
				{Enabled: true, HasData: true, FinalValue: &finalVal},
			},
			want: ScenarioStatusComplete,
		},
		{
			name: "data without a final value keeps it in progress",
			states: []ApproachState{
				{Enabled: true, HasData: true},
			},
			want: ScenarioStatusInProgress,
		},
		{
			name: "disabled approach with data does not block complete",
			states: []ApproachState{
				{Enabled: true, HasData: true, FinalValue: &finalVal},
				{Enabled: false, HasData: true},
			},
			want: ScenarioStatusComplete,
		},
		{
			name:   "nothing enabled, nothing touched is draft",
			states: []ApproachState{{}, {}},
			want:   ScenarioStatusDraft,
		},
	}
	for _, tc := range cases {
		if got := DeriveScenarioStatus(tc.states); got != tc.want {
			t.Fatalf("%s: status = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func boolPtr(b bool) *bool { return &b }

// The setup payload carries only name and approach flags; a resubmit must not
// lose the review fields stored on the persisted row.
func TestBuildScenarioRows_ResubmitKeepsReviewFields(t *testing.T) {
	existing := []Scenario{{
		ChildModel:          ChildModel{ID: 7},
		Name:                "As Stabilized",
		HasIncomeApproach:   boolPtr(true),
		WeightedMarketValue: dec("1400000"),
		Rounding:            RoundingThousand,
		Status:              ScenarioStatusComplete,
		ReviewSummary:       "reviewed against Q2 comps",
	}}
	payload := []*NewScenario{{
		Id:                7,
		Name:              "As Stabilized (rev)",
		HasIncomeApproach: boolPtr(true),
		HasCapApproach:    boolPtr(true),
	}}

	kept, keptIds := buildScenarioRows(payload, existing)
	if len(kept) != 1 || !keptIds[7] {
		t.Fatalf("kept %d rows, keptIds = %v, want the resubmitted scenario kept", len(kept), keptIds)
	}
	got := kept[0]
	if !got.WeightedMarketValue.Equal(dec("1400000")) {
		t.Fatalf("weighted market value = %s, want 1400000 carried over", got.WeightedMarketValue)
	}
	if got.Rounding != RoundingThousand {
		t.Fatalf("rounding = %d, want %d carried over", got.Rounding, RoundingThousand)
	}
	if got.Status != ScenarioStatusComplete {
		t.Fatalf("status = %s, want Complete carried over", got.Status)
	}
	if got.ReviewSummary != "reviewed against Q2 comps" {
		t.Fatalf("review summary = %q, want it carried over", got.ReviewSummary)
	}
	if got.Name != "As Stabilized (rev)" || !*got.HasCapApproach {
		t.Fatal("submitted name and approach flags must overwrite the persisted setup")
	}
}

func TestBuildScenarioRows_NewScenarioStartsDraft(t *testing.T) {
	payload := []*NewScenario{{Name: "As Is", HasSalesApproach: boolPtr(true)}}

	kept, keptIds := buildScenarioRows(payload, nil)
	if len(kept) != 1 {
		t.Fatalf("kept %d rows, want 1", len(kept))
	}
	if len(keptIds) != 0 {
		t.Fatalf("keptIds = %v, want empty for a not-yet-persisted row", keptIds)
	}
	if kept[0].Status != ScenarioStatusDraft {
		t.Fatalf("status = %q, want Draft on a new scenario", kept[0].Status)
	}
	if !kept[0].WeightedMarketValue.IsZero() || kept[0].ReviewSummary != "" {
		t.Fatal("new scenario must start without review data")
	}
}

// A persisted Draft with no enabled approaches is dropped from the kept set;
// its absence from keptIds routes it through the cascade pass. Non-draft
// scenarios survive regardless of flags.
func TestBuildScenarioRows_PrunesEmptyDraft(t *testing.T) {
	existing := []Scenario{
		{ChildModel: ChildModel{ID: 3}, Name: "Empty Draft", Status: ScenarioStatusDraft},
		{ChildModel: ChildModel{ID: 4}, Name: "Reviewed", Status: ScenarioStatusComplete, WeightedMarketValue: dec("900000")},
	}
	payload := []*NewScenario{
		{Id: 3, Name: "Empty Draft"},
		{Id: 4, Name: "Reviewed"},
	}

	kept, keptIds := buildScenarioRows(payload, existing)
	if len(kept) != 1 || kept[0].ID != 4 {
		t.Fatalf("kept %d rows, want only the reviewed scenario", len(kept))
	}
	if keptIds[3] {
		t.Fatal("pruned draft must not count as kept")
	}
	if !keptIds[4] {
		t.Fatal("completed scenario with no enabled approaches must survive")
	}
}

func TestFinalValuePerQuantity(t *testing.T) {
	beds := 20
	units := 8
	totals := ZoningTotals{TotalBeds: &beds, TotalUnits: &units}

	if got := FinalValuePerQuantity(dec("500000"), ComparisonBasisBed, totals); !got.Equal(dec("25000")) {
		t.Fatalf("per-bed value = %s, want 25000", got)
	}
	if got := FinalValuePerQuantity(dec("500000"), ComparisonBasisUnit, totals); !got.Equal(dec("62500")) {
		t.Fatalf("per-unit value = %s, want 62500", got)
	}
	if got := FinalValuePerQuantity(dec("500000"), ComparisonBasisSF, totals); !got.IsZero() {
		t.Fatalf("per-quantity value under SF = %s, want 0", got)
	}
	if got := FinalValuePerQuantity(dec("500000"), ComparisonBasisBed, ZoningTotals{}); !got.IsZero() {
		t.Fatalf("per-bed value with no beds = %s, want 0", got)
	}
}

func TestCapitalizedValue(t *testing.T) {
	if got := CapitalizedValue(dec("90000"), dec("6")); !got.Equal(dec("1500000")) {
		t.Fatalf("capitalized value = %s, want 1500000", got)
	}
	if got := CapitalizedValue(dec("90000"), decimal.Zero); !got.IsZero() {
		t.Fatalf("capitalized value at zero rate = %s, want 0", got)
	}
}
