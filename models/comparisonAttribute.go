package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
)

// ComparisonAttribute is one ordered key/value row shown in an approach's
// comparison grid. Order is reassigned 1..N on every save.
type ComparisonAttribute struct {
	ChildModel
	IncomeApproachId int       `gorm:"index;default:null" json:"income_approach_id"`
	CostApproachId   int       `gorm:"index;default:null" json:"cost_approach_id"`
	SalesApproachId  int       `gorm:"index;default:null" json:"sales_approach_id"`
	LeaseApproachId  int       `gorm:"index;default:null" json:"lease_approach_id"`
	ComparisonKey    string    `gorm:"size:255" json:"comparison_key"`
	ComparisonValue  string    `gorm:"size:255" json:"comparison_value"`
	Order            int       `gorm:"column:order_no;default:0" json:"order"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *ComparisonAttribute) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnIncomeApproachId:
		a.IncomeApproachId = objectId
	case ObjectColumnCostApproachId:
		a.CostApproachId = objectId
	case ObjectColumnSalesApproachId:
		a.SalesApproachId = objectId
	case ObjectColumnLeaseApproachId:
		a.LeaseApproachId = objectId
	}
}

// NormalizeComparisonAttributes drops entries with a blank key and renumbers
// the survivors 1..N in submission order, discarding client-side gaps.
func NormalizeComparisonAttributes(items []*ComparisonAttribute) []*ComparisonAttribute {
	kept := make([]*ComparisonAttribute, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ComparisonKey) == "" {
			continue
		}
		item.Order = len(kept) + 1
		kept = append(kept, item)
	}
	return kept
}

// ReconcileComparisonAttributes normalizes then synchronizes an approach's
// comparison grid. A dropped blank entry that carried a persisted id is
// deleted by the missing-id pass.
func ReconcileComparisonAttributes(ctx context.Context, objectColumn string, objectId int, items []*ComparisonAttribute) bool {
	store := NewGormChildStore[ComparisonAttribute](config.GetDB())
	normalized := NormalizeComparisonAttributes(items)
	_, ok := ReconcileChildren(ctx, store, objectColumn, objectId, AsChildRecords(normalized))
	return ok
}
