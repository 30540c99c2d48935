package models

import "testing"

func TestNormalizeComparisonAttributes_DropsBlankKeysAndRenumbers(t *testing.T) {
	items := []*ComparisonAttribute{
		{ComparisonKey: "frontage", ComparisonValue: "120 ft", Order: 7},
		{ComparisonKey: "   ", ComparisonValue: "ignored"},
		{ComparisonKey: "access", ComparisonValue: "corner lot", Order: 2},
		{ComparisonKey: "", ComparisonValue: "also ignored"},
		{ComparisonKey: "topography", ComparisonValue: "level"},
	}

	kept := NormalizeComparisonAttributes(items)

	if len(kept) != 3 {
		t.Fatalf("expected 3 kept attributes, got %d", len(kept))
	}
	for i, attr := range kept {
		if attr.Order != i+1 {
			t.Fatalf("attribute %d order = %d, want %d", i, attr.Order, i+1)
		}
	}
	if kept[0].ComparisonKey != "frontage" || kept[2].ComparisonKey != "topography" {
		t.Fatal("submission order not preserved")
	}
}

func TestNormalizeComparisonAttributes_Empty(t *testing.T) {
	if kept := NormalizeComparisonAttributes(nil); len(kept) != 0 {
		t.Fatalf("expected empty result, got %d", len(kept))
	}
}

func TestNormalizeQualitativeAdjustments_Renumbers(t *testing.T) {
	items := []*QualitativeAdjustment{
		{AdjKey: "view", AdjValue: "superior", Order: 5},
		{AdjKey: "", AdjValue: "dropped"},
		{AdjKey: "parking", AdjValue: "inferior"},
	}

	kept := NormalizeQualitativeAdjustments(items)

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept rows, got %d", len(kept))
	}
	if kept[0].Order != 1 || kept[1].Order != 2 {
		t.Fatalf("orders = %d,%d, want 1,2", kept[0].Order, kept[1].Order)
	}
}

func TestNormalizeSubjectAdjustments_Renumbers(t *testing.T) {
	items := []*SubjectPropertyAdjustment{
		{AdjKey: "zoning", AdjValue: "C-2"},
		{AdjKey: " ", AdjValue: "dropped"},
		{AdjKey: "utilities", AdjValue: "all public"},
	}

	kept := NormalizeSubjectAdjustments(items)

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept rows, got %d", len(kept))
	}
	if kept[1].AdjKey != "utilities" || kept[1].Order != 2 {
		t.Fatalf("second row = %s/%d, want utilities/2", kept[1].AdjKey, kept[1].Order)
	}
}
