package models

import (
	"context"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
)

// Zoning is one zoning row on an appraisal, evaluation or comp. Bed and Unit
// are nullable: only the column matching the parent's comparison basis carries
// data, the other is cleared on save.
type Zoning struct {
	ChildModel
	ParentRef
	Zone      string    `gorm:"size:100" json:"zone"`
	SubZone   string    `gorm:"size:100" json:"sub_zone"`
	Acres     float64   `gorm:"default:0" json:"acres"`
	SqFt      int       `gorm:"default:0" json:"sq_ft"`
	Bed       *int      `gorm:"default:null" json:"bed"`
	Unit      *int      `gorm:"default:null" json:"unit"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NormalizeZoningBasis clears the bed/unit columns that are not driven by the
// parent's comparison basis. Under SF neither carries data.
func NormalizeZoningBasis(zonings []*Zoning, basis ComparisonBasis) {
	for _, z := range zonings {
		switch basis {
		case ComparisonBasisSF:
			z.Bed = nil
			z.Unit = nil
		case ComparisonBasisUnit:
			z.Bed = nil
		case ComparisonBasisBed:
			z.Unit = nil
		}
	}
}

// ZoningTotals is the bed/unit roll-up across a parent's zonings. A nil total
// means "no data": the historical behavior folds a summed zero into null, so a
// confirmed zero is indistinguishable from an empty column. Kept explicit here
// as pointers until product decides whether zero should survive.
type ZoningTotals struct {
	TotalBeds  *int `json:"total_beds"`
	TotalUnits *int `json:"total_units"`
}

func RollUpZonings(zonings []Zoning) ZoningTotals {
	var beds, units int
	for _, z := range zonings {
		if z.Bed != nil {
			beds += *z.Bed
		}
		if z.Unit != nil {
			units += *z.Unit
		}
	}
	var totals ZoningTotals
	if beds != 0 {
		totals.TotalBeds = &beds
	}
	if units != 0 {
		totals.TotalUnits = &units
	}
	return totals
}

// ReconcileZonings synchronizes a parent's zonings with the submitted set.
func ReconcileZonings(ctx context.Context, objectColumn string, objectId int, zonings []*Zoning) bool {
	store := NewGormChildStore[Zoning](config.GetDB())
	_, ok := ReconcileChildren(ctx, store, objectColumn, objectId, AsChildRecords(zonings))
	return ok
}

// ClearZonings removes all zonings of a parent, used when comp type flips to
// land only.
func ClearZonings(ctx context.Context, objectColumn string, objectId int) bool {
	return ReconcileZonings(ctx, objectColumn, objectId, nil)
}
