package models

import (
	"context"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
)

// ParentRef identifies the single owner of an association row. Exactly one of
// the columns is set on a persisted row; which one depends on whether the row
// hangs off an appraisal, an evaluation or a comp.
type ParentRef struct {
	AppraisalId  int `gorm:"index;default:null" json:"appraisal_id"`
	EvaluationId int `gorm:"index;default:null" json:"evaluation_id"`
	CompId       int `gorm:"index;default:null" json:"comp_id"`
}

func (r *ParentRef) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnAppraisalId:
		r.AppraisalId = objectId
	case ObjectColumnEvaluationId:
		r.EvaluationId = objectId
	case ObjectColumnCompId:
		r.CompId = objectId
	}
}

// Utility is one included utility (water, sewer, gas...) on a property record.
type Utility struct {
	ChildModel
	ParentRef
	Name      string    `gorm:"size:100;not null" json:"name"`
	IsPublic  *bool     `gorm:"default:null" json:"is_public"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PropertyUnit is one rentable unit row (beds/baths/sq ft) on a property record.
type PropertyUnit struct {
	ChildModel
	ParentRef
	Beds      int       `gorm:"default:0" json:"beds"`
	Baths     int       `gorm:"default:0" json:"baths"`
	SqFt      int       `gorm:"default:0" json:"sq_ft"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ReconcileUtilities synchronizes a parent's utilities with the submitted set.
// Duplicate names are allowed to persist; callers pre-filter if they care.
func ReconcileUtilities(ctx context.Context, objectColumn string, objectId int, utilities []*Utility) bool {
	store := NewGormChildStore[Utility](config.GetDB())
	_, ok := ReconcileChildren(ctx, store, objectColumn, objectId, AsChildRecords(utilities))
	return ok
}

// ReconcilePropertyUnits synchronizes a parent's unit rows with the submitted set.
func ReconcilePropertyUnits(ctx context.Context, objectColumn string, objectId int, units []*PropertyUnit) bool {
	store := NewGormChildStore[PropertyUnit](config.GetDB())
	_, ok := ReconcileChildren(ctx, store, objectColumn, objectId, AsChildRecords(units))
	return ok
}

// PropertyUnitTotals sums beds/baths across a parent's unit rows.
func PropertyUnitTotals(units []PropertyUnit) (totalBeds int, totalBaths int) {
	for _, u := range units {
		totalBeds += u.Beds
		totalBaths += u.Baths
	}
	return totalBeds, totalBaths
}
