package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/utils"
	"github.com/shopspring/decimal"
)

// Evaluation is the subject property record scenarios hang off. It owns the
// comparison basis every approach computes against, plus the zoning, utility
// and unit-mix child collections.
type Evaluation struct {
	ID        int    `gorm:"primary_key" json:"id"`
	AccountId int    `gorm:"index;not null" json:"account_id"`
	Name      string `gorm:"size:255" json:"name"`
	Address   string `gorm:"size:255" json:"address"`

	ComparisonBasis ComparisonBasis `gorm:"size:10;default:'SF'" json:"comparison_basis"`
	CompType        CompType        `gorm:"size:30;default:'building_with_land'" json:"comp_type"`
	SqFt            int             `gorm:"default:0" json:"sq_ft"`
	Acres           float64         `gorm:"default:0" json:"acres"`
	TotalBeds       *int            `gorm:"default:null" json:"total_beds"`
	TotalUnits      *int            `gorm:"default:null" json:"total_units"`

	Zonings       []Zoning       `gorm:"foreignKey:EvaluationId" json:"zonings"`
	Utilities     []Utility      `gorm:"foreignKey:EvaluationId" json:"utilities"`
	PropertyUnits []PropertyUnit `gorm:"foreignKey:EvaluationId" json:"property_units"`
	Scenarios     []Scenario     `gorm:"foreignKey:EvaluationId" json:"scenarios"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e Evaluation) GetAccountId() int { return e.AccountId }

// SubjectQuantity is the divisor/multiplier every per-unit rate is applied
// to: land size in acres for a land-only subject (its comp prices are per
// acre), square footage under SF, the zoning roll-up totals under Unit and
// Bed. A missing roll-up yields zero so callers fall back to a zero value
// rather than dividing by a stale cache.
func (e *Evaluation) SubjectQuantity() decimal.Decimal {
	if e.CompType == CompTypeLandOnly {
		return decimal.NewFromFloat(e.Acres)
	}
	switch e.ComparisonBasis {
	case ComparisonBasisBed:
		if e.TotalBeds != nil {
			return decimal.NewFromInt(int64(*e.TotalBeds))
		}
		return decimal.Zero
	case ComparisonBasisUnit:
		if e.TotalUnits != nil {
			return decimal.NewFromInt(int64(*e.TotalUnits))
		}
		return decimal.Zero
	default:
		return decimal.NewFromInt(int64(e.SqFt))
	}
}

type NewEvaluation struct {
	Name            string          `json:"name" validate:"required"`
	Address         string          `json:"address"`
	ComparisonBasis string          `json:"comparison_basis" validate:"required"`
	CompType        string          `json:"comp_type"`
	SqFt            int             `json:"sq_ft"`
	Acres           float64         `json:"acres"`
	Zonings         []*Zoning       `json:"zonings"`
	Utilities       []*Utility      `json:"utilities"`
	PropertyUnits   []*PropertyUnit `json:"property_units"`
}

// resolveBasis applies the land-only rule: a land-only subject has no
// rentable area, so it is always compared by square footage of land and its
// zoning rows drop bed/unit data entirely.
func resolveBasis(basis ComparisonBasis, compType CompType) ComparisonBasis {
	if compType == CompTypeLandOnly {
		return ComparisonBasisSF
	}
	return basis
}

// CreateEvaluation inserts a new subject property with its child collections.
func CreateEvaluation(ctx context.Context, payload *NewEvaluation) (*Evaluation, error) {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return nil, errors.New("account id is required")
	}
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}
	basis, err := ParseComparisonBasis(payload.ComparisonBasis)
	if err != nil {
		return nil, err
	}
	compType := CompType(payload.CompType)
	if compType == "" {
		compType = CompTypeBuildingWithLand
	}
	basis = resolveBasis(basis, compType)

	evaluation := &Evaluation{
		AccountId:       accountId,
		Name:            payload.Name,
		Address:         payload.Address,
		ComparisonBasis: basis,
		CompType:        compType,
		SqFt:            payload.SqFt,
		Acres:           payload.Acres,
	}
	if err := config.GetDB().WithContext(ctx).Create(evaluation).Error; err != nil {
		return nil, err
	}
	return saveEvaluationChildren(ctx, evaluation, payload)
}

// UpdateEvaluation rewrites the subject property and synchronizes its child
// collections with the submitted sets.
func UpdateEvaluation(ctx context.Context, id int, payload *NewEvaluation) (*Evaluation, error) {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return nil, errors.New("account id is required")
	}
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}
	evaluation, err := utils.FetchModel[Evaluation](ctx, accountId, id)
	if err != nil {
		return nil, err
	}
	basis, err := ParseComparisonBasis(payload.ComparisonBasis)
	if err != nil {
		return nil, err
	}
	compType := CompType(payload.CompType)
	if compType == "" {
		compType = CompTypeBuildingWithLand
	}

	release, err := utils.AcquireParentEditLock(ctx, "models", ObjectColumnEvaluationId, evaluation.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	evaluation.Name = payload.Name
	evaluation.Address = payload.Address
	evaluation.ComparisonBasis = resolveBasis(basis, compType)
	evaluation.CompType = compType
	evaluation.SqFt = payload.SqFt
	evaluation.Acres = payload.Acres

	return saveEvaluationChildren(ctx, evaluation, payload)
}

func saveEvaluationChildren(ctx context.Context, evaluation *Evaluation, payload *NewEvaluation) (*Evaluation, error) {
	NormalizeZoningBasis(payload.Zonings, evaluation.ComparisonBasis)
	if !ReconcileZonings(ctx, ObjectColumnEvaluationId, evaluation.ID, payload.Zonings) {
		return nil, errors.New("zonings update failed")
	}
	if !ReconcileUtilities(ctx, ObjectColumnEvaluationId, evaluation.ID, payload.Utilities) {
		return nil, errors.New("utilities update failed")
	}
	if !ReconcilePropertyUnits(ctx, ObjectColumnEvaluationId, evaluation.ID, payload.PropertyUnits) {
		return nil, errors.New("property units update failed")
	}

	zonings := make([]Zoning, 0, len(payload.Zonings))
	for _, z := range payload.Zonings {
		zonings = append(zonings, *z)
	}
	totals := RollUpZonings(zonings)
	evaluation.TotalBeds = totals.TotalBeds
	evaluation.TotalUnits = totals.TotalUnits

	if err := config.GetDB().WithContext(ctx).Save(evaluation).Error; err != nil {
		return nil, err
	}
	_ = utils.RemoveRedis[Evaluation](evaluation.ID)
	return evaluation, nil
}

// GetEvaluation reads the subject property with its child collections, going
// through the redis read-through cache when one is connected.
func GetEvaluation(ctx context.Context, id int) (*Evaluation, error) {
	return GetResource[Evaluation](ctx, id, "Zonings", "Utilities", "PropertyUnits", "Scenarios")
}

// DeleteEvaluation removes the subject property and everything reachable
// from it: scenarios with their approaches and comps, and the association
// children keyed by evaluation_id.
func DeleteEvaluation(ctx context.Context, id int) error {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return errors.New("account id is required")
	}
	evaluation, err := utils.FetchModel[Evaluation](ctx, accountId, id, "Scenarios")
	if err != nil {
		return err
	}

	db := config.GetDB().WithContext(ctx)
	for _, scenario := range evaluation.Scenarios {
		if err := deleteScenarioCascade(ctx, scenario.ID); err != nil {
			return err
		}
	}
	for _, model := range []any{&Zoning{}, &Utility{}, &PropertyUnit{}} {
		if err := db.Where("evaluation_id = ?", evaluation.ID).Delete(model).Error; err != nil {
			return err
		}
	}
	if err := db.Delete(&Evaluation{}, evaluation.ID).Error; err != nil {
		return err
	}
	return utils.RemoveRedis[Evaluation](evaluation.ID)
}
