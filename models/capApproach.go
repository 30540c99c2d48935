package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/utils"
	"github.com/shopspring/decimal"
)

// CapApproach capitalizes the scenario's net operating income into a value.
// A zero cap rate yields a zero indicated value rather than an error.
type CapApproach struct {
	ChildModel
	ScenarioId  int `gorm:"index;default:null" json:"scenario_id"`
	AppraisalId int `gorm:"index;default:null" json:"appraisal_id"`

	NetOperatingIncome decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"net_operating_income"`
	CapRate            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cap_rate"`
	IndicatedValue     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"indicated_value"`
	EvalWeight         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"eval_weight"`
	Note               string          `gorm:"type:text" json:"note"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *CapApproach) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnScenarioId:
		a.ScenarioId = objectId
	case ObjectColumnAppraisalId:
		a.AppraisalId = objectId
	}
}

// CapitalizedValue converts an annual net income and a percentage cap rate
// into a value. noi 90000 at 6 percent gives 1500000.
func CapitalizedValue(noi, capRate decimal.Decimal) decimal.Decimal {
	if capRate.IsZero() {
		return decimal.Zero
	}
	return noi.Div(capRate.DivRound(decimalOneHundred, 8)).Round(4)
}

type NewCapApproach struct {
	ScenarioId         int              `json:"scenario_id" validate:"required"`
	NetOperatingIncome *decimal.Decimal `json:"net_operating_income"`
	CapRate            decimal.Decimal  `json:"cap_rate"`
	EvalWeight         decimal.Decimal  `json:"eval_weight"`
	Note               string           `json:"note"`
}

// SaveCapApproach creates or updates the cap-rate approach of a scenario.
// When no net operating income is submitted it is pulled from the scenario's
// income approach, so the two stay consistent after an income edit.
func SaveCapApproach(ctx context.Context, payload *NewCapApproach) (*CapApproach, error) {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return nil, errors.New("account id is required")
	}
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}
	if payload.CapRate.IsNegative() {
		return nil, errors.New("cap rate cannot be negative")
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

	approach := &CapApproach{}
	if err := findOrCreateApproach(ctx, ObjectColumnScenarioId, scenario.ID, approach); err != nil {
		return nil, err
	}

	noi := decimal.Zero
	if payload.NetOperatingIncome != nil {
		noi = *payload.NetOperatingIncome
	} else if income, err := loadApproach[IncomeApproach](ctx, scenario.ID); err != nil {
		return nil, err
	} else if income != nil {
		noi = income.NetOperatingIncome
	}

	approach.NetOperatingIncome = noi
	approach.CapRate = payload.CapRate
	approach.IndicatedValue = CapitalizedValue(noi, payload.CapRate)
	approach.EvalWeight = payload.EvalWeight
	approach.Note = payload.Note

	if err := config.GetDB().WithContext(ctx).Save(approach).Error; err != nil {
		return nil, err
	}
	if err := RefreshScenarioStatus(ctx, scenario.ID); err != nil {
		return nil, err
	}
	_ = utils.RemoveRedis[Evaluation](parent.ID)

	return approach, nil
}
