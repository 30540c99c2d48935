package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"github.com/shopspring/decimal"
)

// CompAdjustment is one percentage adjustment row on a comp. The comp's
// total_adjustment cache is the sum of its adjustment values.
type CompAdjustment struct {
	ChildModel
	SalesCompId int             `gorm:"index;default:null" json:"sales_comp_id"`
	CostCompId  int             `gorm:"index;default:null" json:"cost_comp_id"`
	AdjKey      string          `gorm:"size:255" json:"adj_key"`
	AdjValue    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"adj_value"`
	Order       int             `gorm:"column:order_no;default:0" json:"order"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *CompAdjustment) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnSalesCompId:
		a.SalesCompId = objectId
	case ObjectColumnCostCompId:
		a.CostCompId = objectId
	}
}

// QualitativeAdjustment is a descriptive (non-numeric) adjustment row on a comp.
type QualitativeAdjustment struct {
	ChildModel
	SalesCompId int       `gorm:"index;default:null" json:"sales_comp_id"`
	CostCompId  int       `gorm:"index;default:null" json:"cost_comp_id"`
	AdjKey      string    `gorm:"size:255" json:"adj_key"`
	AdjValue    string    `gorm:"size:255" json:"adj_value"`
	Order       int       `gorm:"column:order_no;default:0" json:"order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *QualitativeAdjustment) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnSalesCompId:
		a.SalesCompId = objectId
	case ObjectColumnCostCompId:
		a.CostCompId = objectId
	}
}

// SubjectPropertyAdjustment is one adjustment row describing the subject
// property itself within an approach's comparison grid.
type SubjectPropertyAdjustment struct {
	ChildModel
	SalesApproachId int       `gorm:"index;default:null" json:"sales_approach_id"`
	CostApproachId  int       `gorm:"index;default:null" json:"cost_approach_id"`
	AdjKey          string    `gorm:"size:255" json:"adj_key"`
	AdjValue        string    `gorm:"size:255" json:"adj_value"`
	Order           int       `gorm:"column:order_no;default:0" json:"order"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *SubjectPropertyAdjustment) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnSalesApproachId:
		a.SalesApproachId = objectId
	case ObjectColumnCostApproachId:
		a.CostApproachId = objectId
	}
}

// NormalizeCompAdjustments drops blank-key rows and renumbers survivors 1..N,
// returning the sum of the surviving values for the comp's total_adjustment
// cache.
func NormalizeCompAdjustments(items []*CompAdjustment) ([]*CompAdjustment, decimal.Decimal) {
	kept := make([]*CompAdjustment, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		if strings.TrimSpace(item.AdjKey) == "" {
			continue
		}
		item.Order = len(kept) + 1
		kept = append(kept, item)
		total = total.Add(item.AdjValue)
	}
	return kept, total
}

// NormalizeQualitativeAdjustments drops blank-key rows and renumbers 1..N.
func NormalizeQualitativeAdjustments(items []*QualitativeAdjustment) []*QualitativeAdjustment {
	kept := make([]*QualitativeAdjustment, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.AdjKey) == "" {
			continue
		}
		item.Order = len(kept) + 1
		kept = append(kept, item)
	}
	return kept
}

// NormalizeSubjectAdjustments drops blank-key rows and renumbers 1..N.
func NormalizeSubjectAdjustments(items []*SubjectPropertyAdjustment) []*SubjectPropertyAdjustment {
	kept := make([]*SubjectPropertyAdjustment, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.AdjKey) == "" {
			continue
		}
		item.Order = len(kept) + 1
		kept = append(kept, item)
	}
	return kept
}

// ReconcileSubjectAdjustments normalizes then synchronizes an approach's
// subject-property adjustment grid.
func ReconcileSubjectAdjustments(ctx context.Context, objectColumn string, objectId int, items []*SubjectPropertyAdjustment) bool {
	store := NewGormChildStore[SubjectPropertyAdjustment](config.GetDB())
	normalized := NormalizeSubjectAdjustments(items)
	_, ok := ReconcileChildren(ctx, store, objectColumn, objectId, AsChildRecords(normalized))
	return ok
}
