package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/utils"
	"github.com/shopspring/decimal"
)

// CostApproach values a scenario as land value plus depreciated improvement
// cost. Land value comes from land comps, improvements carry their own
// replacement cost and depreciation.
type CostApproach struct {
	ChildModel
	ScenarioId  int `gorm:"index;default:null" json:"scenario_id"`
	AppraisalId int `gorm:"index;default:null" json:"appraisal_id"`

	TotalCompAdj        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_comp_adj"`
	AveragedAdjustedPsf decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"averaged_adjusted_psf"`
	LandValue           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"land_value"`
	ImprovementsValue   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"improvements_value"`
	TotalCostValuation  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost_valuation"`
	EvalWeight          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"eval_weight"`
	Note                string          `gorm:"type:text" json:"note"`

	Comps                []CostComp                  `gorm:"foreignKey:CostApproachId" json:"comps"`
	Improvements         []Improvement               `gorm:"foreignKey:CostApproachId" json:"improvements"`
	SubjectAdjustments   []SubjectPropertyAdjustment `gorm:"foreignKey:CostApproachId" json:"subject_adjustments"`
	ComparisonAttributes []ComparisonAttribute       `gorm:"foreignKey:CostApproachId" json:"comparison_attributes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *CostApproach) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnScenarioId:
		a.ScenarioId = objectId
	case ObjectColumnAppraisalId:
		a.AppraisalId = objectId
	}
}

// CostComp is a land comparable inside a cost approach. Land sells by the
// acre, so price per acre is the base regardless of the parent's basis.
type CostComp struct {
	ChildModel
	CostApproachId int `gorm:"index;not null" json:"cost_approach_id"`
	CompId         int `gorm:"index;default:null" json:"comp_id"`

	Order           int             `gorm:"column:order_no;default:0" json:"order"`
	PriceAcre       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_acre"`
	TotalAdjustment decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_adjustment"`
	AdjustedPsf     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"adjusted_psf"`
	AveragedPsf     decimal.Decimal `gorm:"column:averaged_adjusted_psf;type:decimal(20,4);default:0" json:"averaged_adjusted_psf"`
	Weight          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"weight"`

	Adjustments            []CompAdjustment        `gorm:"foreignKey:CostCompId" json:"comps_adjustments"`
	QualitativeAdjustments []QualitativeAdjustment `gorm:"foreignKey:CostCompId" json:"comps_qualitative_adjustments"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *CostComp) StampParent(objectColumn string, objectId int) {
	if objectColumn == ObjectColumnCostApproachId {
		c.CostApproachId = objectId
	}
}

func (c *CostComp) RecomputeAdjusted() {
	c.AdjustedPsf = c.PriceAcre.Add(c.TotalAdjustment.DivRound(decimalOneHundred, 4).Mul(c.PriceAcre))
	c.AveragedPsf = c.AdjustedPsf.Mul(c.Weight).DivRound(decimalOneHundred, 4)
}

// Improvement is a building or site improvement costed at replacement value
// less straight percentage depreciation.
type Improvement struct {
	ChildModel
	CostApproachId int `gorm:"index;not null" json:"cost_approach_id"`

	Name            string          `json:"name"`
	ReplacementCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"replacement_cost"`
	Depreciation    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"depreciation"`
	DepreciatedCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"depreciated_cost"`
	Comments        string          `gorm:"type:text" json:"comments"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Improvement) StampParent(objectColumn string, objectId int) {
	if objectColumn == ObjectColumnCostApproachId {
		i.CostApproachId = objectId
	}
}

func (i *Improvement) RecomputeDepreciatedCost() {
	remaining := decimalOneHundred.Sub(i.Depreciation)
	i.DepreciatedCost = i.ReplacementCost.Mul(remaining).DivRound(decimalOneHundred, 4)
}

func RecomputeCostTotals(comps []*CostComp, improvements []*Improvement) (totalCompAdj, averagedPsf, improvementsValue decimal.Decimal) {
	for _, comp := range comps {
		comp.RecomputeAdjusted()
		totalCompAdj = totalCompAdj.Add(comp.TotalAdjustment)
		averagedPsf = averagedPsf.Add(comp.AveragedPsf)
	}
	for _, improvement := range improvements {
		improvement.RecomputeDepreciatedCost()
		improvementsValue = improvementsValue.Add(improvement.DepreciatedCost)
	}
	return totalCompAdj, averagedPsf, improvementsValue
}

type NewCostComp struct {
	Id                     int                      `json:"id"`
	CompId                 int                      `json:"comp_id"`
	PriceAcre              decimal.Decimal          `json:"price_acre"`
	Weight                 decimal.Decimal          `json:"weight"`
	Adjustments            []*CompAdjustment        `json:"comps_adjustments"`
	QualitativeAdjustments []*QualitativeAdjustment `json:"comps_qualitative_adjustments"`
}

type NewImprovement struct {
	Id              int             `json:"id"`
	Name            string          `json:"name"`
	ReplacementCost decimal.Decimal `json:"replacement_cost"`
	Depreciation    decimal.Decimal `json:"depreciation"`
	Comments        string          `json:"comments"`
}

type NewCostApproach struct {
	ScenarioId           int                          `json:"scenario_id" validate:"required"`
	EvalWeight           decimal.Decimal              `json:"eval_weight"`
	Note                 string                       `json:"note"`
	Comps                []*NewCostComp               `json:"comps"`
	Improvements         []*NewImprovement            `json:"improvements"`
	SubjectAdjustments   []*SubjectPropertyAdjustment `json:"subject_adjustments"`
	ComparisonAttributes []*ComparisonAttribute       `json:"comparison_attributes"`
}

// SaveCostApproach creates or updates the cost approach of a scenario. Land
// value is the averaged adjusted price per acre across comps applied to the
// subject acreage; total valuation adds depreciated improvements on top.
func SaveCostApproach(ctx context.Context, payload *NewCostApproach) (*CostApproach, error) {
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
	approach := &CostApproach{}
	if err := findOrCreateApproach(ctx, ObjectColumnScenarioId, scenario.ID, approach); err != nil {
		return nil, err
	}

	comps := make([]*CostComp, 0, len(payload.Comps))
	for i, submitted := range payload.Comps {
		comp := &CostComp{
			ChildModel: ChildModel{ID: submitted.Id},
			CompId:     submitted.CompId,
			Order:      i + 1,
			PriceAcre:  submitted.PriceAcre,
			Weight:     submitted.Weight,
		}
		_, total := NormalizeCompAdjustments(submitted.Adjustments)
		comp.TotalAdjustment = total
		comps = append(comps, comp)
	}
	improvements := make([]*Improvement, 0, len(payload.Improvements))
	for _, submitted := range payload.Improvements {
		improvements = append(improvements, &Improvement{
			ChildModel:      ChildModel{ID: submitted.Id},
			Name:            submitted.Name,
			ReplacementCost: submitted.ReplacementCost,
			Depreciation:    submitted.Depreciation,
			Comments:        submitted.Comments,
		})
	}
	totalCompAdj, averagedPsf, improvementsValue := RecomputeCostTotals(comps, improvements)

	if _, ok := ReconcileChildren(ctx, NewGormChildStore[CostComp](db), ObjectColumnCostApproachId, approach.ID, AsChildRecords(comps)); !ok {
		return nil, errors.New("cost comps update failed")
	}
	for i, submitted := range payload.Comps {
		adjustments, _ := NormalizeCompAdjustments(submitted.Adjustments)
		if _, ok := ReconcileChildren(ctx, NewGormChildStore[CompAdjustment](db), ObjectColumnCostCompId, comps[i].ID, AsChildRecords(adjustments)); !ok {
			return nil, errors.New("comp adjustments update failed")
		}
		qualitative := NormalizeQualitativeAdjustments(submitted.QualitativeAdjustments)
		if _, ok := ReconcileChildren(ctx, NewGormChildStore[QualitativeAdjustment](db), ObjectColumnCostCompId, comps[i].ID, AsChildRecords(qualitative)); !ok {
			return nil, errors.New("comp qualitative adjustments update failed")
		}
	}
	if _, ok := ReconcileChildren(ctx, NewGormChildStore[Improvement](db), ObjectColumnCostApproachId, approach.ID, AsChildRecords(improvements)); !ok {
		return nil, errors.New("improvements update failed")
	}
	if !ReconcileSubjectAdjustments(ctx, ObjectColumnCostApproachId, approach.ID, payload.SubjectAdjustments) {
		return nil, errors.New("subject adjustments update failed")
	}
	if !ReconcileComparisonAttributes(ctx, ObjectColumnCostApproachId, approach.ID, payload.ComparisonAttributes) {
		return nil, errors.New("comparison attributes update failed")
	}

	approach.TotalCompAdj = totalCompAdj
	approach.AveragedAdjustedPsf = averagedPsf
	approach.LandValue = averagedPsf.Mul(decimal.NewFromFloat(parent.Acres))
	approach.ImprovementsValue = improvementsValue
	approach.TotalCostValuation = approach.LandValue.Add(improvementsValue)
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
