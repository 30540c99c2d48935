package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/utils"
	"github.com/shopspring/decimal"
)

// SalesApproach holds the sales-comparison valuation of one scenario.
type SalesApproach struct {
	ChildModel
	ScenarioId  int `gorm:"index;default:null" json:"scenario_id"`
	AppraisalId int `gorm:"index;default:null" json:"appraisal_id"`

	TotalCompAdj        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_comp_adj"`
	AveragedAdjustedPsf decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"averaged_adjusted_psf"`
	SalesApproachValue  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_approach_value"`
	EvalWeight          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"eval_weight"`
	Note                string          `gorm:"type:text" json:"note"`

	Comps                []SalesComp                 `gorm:"foreignKey:SalesApproachId" json:"comps"`
	SubjectAdjustments   []SubjectPropertyAdjustment `gorm:"foreignKey:SalesApproachId" json:"subject_adjustments"`
	ComparisonAttributes []ComparisonAttribute       `gorm:"foreignKey:SalesApproachId" json:"comparison_attributes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *SalesApproach) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnScenarioId:
		a.ScenarioId = objectId
	case ObjectColumnAppraisalId:
		a.AppraisalId = objectId
	}
}

// SalesComp links a comparable sale into a sales approach. The price columns
// carry the sale price expressed per square foot, bed, unit and acre; which
// one is the base depends on the parent's comparison basis and comp type.
type SalesComp struct {
	ChildModel
	SalesApproachId int `gorm:"index;not null" json:"sales_approach_id"`
	CompId          int `gorm:"index;default:null" json:"comp_id"`

	Order           int             `gorm:"column:order_no;default:0" json:"order"`
	PriceSqFt       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_sq_ft"`
	PriceBed        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_bed"`
	PriceUnit       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_unit"`
	PriceAcre       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_acre"`
	TotalAdjustment decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_adjustment"`
	AdjustedPsf     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"adjusted_psf"`
	AveragedPsf     decimal.Decimal `gorm:"column:averaged_adjusted_psf;type:decimal(20,4);default:0" json:"averaged_adjusted_psf"`
	BlendedPsf      decimal.Decimal `gorm:"column:blended_adjusted_psf;type:decimal(20,4);default:0" json:"blended_adjusted_psf"`
	Weight          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"weight"`

	Adjustments            []CompAdjustment        `gorm:"foreignKey:SalesCompId" json:"comps_adjustments"`
	QualitativeAdjustments []QualitativeAdjustment `gorm:"foreignKey:SalesCompId" json:"comps_qualitative_adjustments"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *SalesComp) StampParent(objectColumn string, objectId int) {
	if objectColumn == ObjectColumnSalesApproachId {
		c.SalesApproachId = objectId
	}
}

// BasePricePerUnit selects the price column the adjustments apply to: price
// per acre for land-only comps, otherwise per SF/bed/unit by comparison basis.
func (c *SalesComp) BasePricePerUnit(basis ComparisonBasis, compType CompType) decimal.Decimal {
	if compType == CompTypeLandOnly {
		return c.PriceAcre
	}
	switch basis {
	case ComparisonBasisBed:
		return c.PriceBed
	case ComparisonBasisUnit:
		return c.PriceUnit
	default:
		return c.PriceSqFt
	}
}

// RecomputeAdjusted refreshes the comp's derived price columns:
//
//	adjusted  = base + (total_adjustment/100) * base
//	averaged  = adjusted * weight/100
//	blended   = base * weight/100
func (c *SalesComp) RecomputeAdjusted(basis ComparisonBasis, compType CompType) {
	base := c.BasePricePerUnit(basis, compType)
	c.AdjustedPsf = base.Add(c.TotalAdjustment.DivRound(decimalOneHundred, 4).Mul(base))
	c.AveragedPsf = c.AdjustedPsf.Mul(c.Weight).DivRound(decimalOneHundred, 4)
	c.BlendedPsf = base.Mul(c.Weight).DivRound(decimalOneHundred, 4)
}

// Recompute comp-level derived columns and roll them up to the approach:
// total adjustment across comps and the weighted per-unit value.
func RecomputeSalesTotals(comps []*SalesComp, basis ComparisonBasis, compType CompType) (totalCompAdj, averagedPsf decimal.Decimal) {
	for _, comp := range comps {
		comp.RecomputeAdjusted(basis, compType)
		totalCompAdj = totalCompAdj.Add(comp.TotalAdjustment)
		averagedPsf = averagedPsf.Add(comp.AveragedPsf)
	}
	return totalCompAdj, averagedPsf
}

type NewSalesComp struct {
	Id                     int                      `json:"id"`
	CompId                 int                      `json:"comp_id"`
	PriceSqFt              decimal.Decimal          `json:"price_sq_ft"`
	PriceBed               decimal.Decimal          `json:"price_bed"`
	PriceUnit              decimal.Decimal          `json:"price_unit"`
	PriceAcre              decimal.Decimal          `json:"price_acre"`
	Weight                 decimal.Decimal          `json:"weight"`
	Adjustments            []*CompAdjustment        `json:"comps_adjustments"`
	QualitativeAdjustments []*QualitativeAdjustment `json:"comps_qualitative_adjustments"`
}

type NewSalesApproach struct {
	ScenarioId           int                          `json:"scenario_id" validate:"required"`
	EvalWeight           decimal.Decimal              `json:"eval_weight"`
	Note                 string                       `json:"note"`
	Comps                []*NewSalesComp              `json:"comps"`
	SubjectAdjustments   []*SubjectPropertyAdjustment `json:"subject_adjustments"`
	ComparisonAttributes []*ComparisonAttribute       `json:"comparison_attributes"`
}

// SaveSalesApproach creates or updates the sales approach of a scenario:
// comps and their adjustment grids are reconciled in submission order
// (renumbered 1..N), derived price columns are recomputed and rolled up, and
// the scenario status refreshed.
func SaveSalesApproach(ctx context.Context, payload *NewSalesApproach) (*SalesApproach, error) {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return nil, errors.New("account id is required")
	}
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}
	scenario, err := GetScenario(ctx, payload.ScenarioId)
	if err != nil {
		return nil, err
	}
	parent, err := utils.FetchModel[Evaluation](ctx, accountId, scenario.EvaluationId)
	if err != nil {
		return nil, err
	}

	release, err := utils.AcquireParentEditLock(ctx, "models", ObjectColumnScenarioId, scenario.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	approach := &SalesApproach{}
	if err := findOrCreateApproach(ctx, ObjectColumnScenarioId, scenario.ID, approach); err != nil {
		return nil, err
	}

	comps := make([]*SalesComp, 0, len(payload.Comps))
	for i, submitted := range payload.Comps {
		comp := &SalesComp{
			ChildModel: ChildModel{ID: submitted.Id},
			CompId:     submitted.CompId,
			Order:      i + 1,
			PriceSqFt:  submitted.PriceSqFt,
			PriceBed:   submitted.PriceBed,
			PriceUnit:  submitted.PriceUnit,
			PriceAcre:  submitted.PriceAcre,
			Weight:     submitted.Weight,
		}
		_, total := NormalizeCompAdjustments(submitted.Adjustments)
		comp.TotalAdjustment = total
		comps = append(comps, comp)
	}
	totalCompAdj, averagedPsf := RecomputeSalesTotals(comps, parent.ComparisonBasis, parent.CompType)

	if _, ok := ReconcileChildren(ctx, NewGormChildStore[SalesComp](db), ObjectColumnSalesApproachId, approach.ID, AsChildRecords(comps)); !ok {
		return nil, errors.New("sales comps update failed")
	}

	// each comp owns its adjustment rows; reconcile them per comp now that ids exist
	for i, submitted := range payload.Comps {
		adjustments, _ := NormalizeCompAdjustments(submitted.Adjustments)
		if _, ok := ReconcileChildren(ctx, NewGormChildStore[CompAdjustment](db), ObjectColumnSalesCompId, comps[i].ID, AsChildRecords(adjustments)); !ok {
			return nil, errors.New("comp adjustments update failed")
		}
		qualitative := NormalizeQualitativeAdjustments(submitted.QualitativeAdjustments)
		if _, ok := ReconcileChildren(ctx, NewGormChildStore[QualitativeAdjustment](db), ObjectColumnSalesCompId, comps[i].ID, AsChildRecords(qualitative)); !ok {
			return nil, errors.New("comp qualitative adjustments update failed")
		}
	}

	if !ReconcileSubjectAdjustments(ctx, ObjectColumnSalesApproachId, approach.ID, payload.SubjectAdjustments) {
		return nil, errors.New("subject adjustments update failed")
	}
	if !ReconcileComparisonAttributes(ctx, ObjectColumnSalesApproachId, approach.ID, payload.ComparisonAttributes) {
		return nil, errors.New("comparison attributes update failed")
	}

	approach.TotalCompAdj = totalCompAdj
	approach.AveragedAdjustedPsf = averagedPsf
	approach.SalesApproachValue = averagedPsf.Mul(parent.SubjectQuantity())
	approach.EvalWeight = payload.EvalWeight
	approach.Note = payload.Note

	if err := db.WithContext(ctx).Save(approach).Error; err != nil {
		return nil, err
	}
	if err := RefreshScenarioStatus(ctx, scenario.ID); err != nil {
		return nil, err
	}
	_ = utils.RemoveRedis[Evaluation](parent.ID)

	return approach, nil
}
