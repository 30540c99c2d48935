package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/utils"
	"github.com/shopspring/decimal"
)

// LeaseApproach values a scenario from comparable lease rates. The averaged
// weighted rate across lease comps, applied to the subject quantity, gives
// the indicated value.
type LeaseApproach struct {
	ChildModel
	ScenarioId  int `gorm:"index;default:null" json:"scenario_id"`
	AppraisalId int `gorm:"index;default:null" json:"appraisal_id"`

	AveragedLeaseRate decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"averaged_lease_rate"`
	IndicatedValue    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"indicated_value"`
	EvalWeight        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"eval_weight"`
	Note              string          `gorm:"type:text" json:"note"`

	Comps []LeaseComp `gorm:"foreignKey:LeaseApproachId" json:"comps"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *LeaseApproach) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnScenarioId:
		a.ScenarioId = objectId
	case ObjectColumnAppraisalId:
		a.AppraisalId = objectId
	}
}

type LeaseComp struct {
	ChildModel
	LeaseApproachId int `gorm:"index;not null" json:"lease_approach_id"`
	CompId          int `gorm:"index;default:null" json:"comp_id"`

	Order     int             `gorm:"column:order_no;default:0" json:"order"`
	LeaseRate decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"lease_rate"`
	Weight    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"weight"`
	Comments  string          `gorm:"type:text" json:"comments"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *LeaseComp) StampParent(objectColumn string, objectId int) {
	if objectColumn == ObjectColumnLeaseApproachId {
		c.LeaseApproachId = objectId
	}
}

func AveragedLeaseRate(comps []*LeaseComp) decimal.Decimal {
	rate := decimal.Zero
	for _, comp := range comps {
		rate = rate.Add(comp.LeaseRate.Mul(comp.Weight).DivRound(decimalOneHundred, 4))
	}
	return rate
}

type NewLeaseComp struct {
	Id        int             `json:"id"`
	CompId    int             `json:"comp_id"`
	LeaseRate decimal.Decimal `json:"lease_rate"`
	Weight    decimal.Decimal `json:"weight"`
	Comments  string          `json:"comments"`
}

type NewLeaseApproach struct {
	ScenarioId int             `json:"scenario_id" validate:"required"`
	EvalWeight decimal.Decimal `json:"eval_weight"`
	Note       string          `json:"note"`
	Comps      []*NewLeaseComp `json:"comps"`
}

// SaveLeaseApproach creates or updates the lease approach of a scenario.
func SaveLeaseApproach(ctx context.Context, payload *NewLeaseApproach) (*LeaseApproach, error) {
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

	approach := &LeaseApproach{}
	if err := findOrCreateApproach(ctx, ObjectColumnScenarioId, scenario.ID, approach); err != nil {
		return nil, err
	}

	comps := make([]*LeaseComp, 0, len(payload.Comps))
	for i, submitted := range payload.Comps {
		comps = append(comps, &LeaseComp{
			ChildModel: ChildModel{ID: submitted.Id},
			CompId:     submitted.CompId,
			Order:      i + 1,
			LeaseRate:  submitted.LeaseRate,
			Weight:     submitted.Weight,
			Comments:   submitted.Comments,
		})
	}
	if _, ok := ReconcileChildren(ctx, NewGormChildStore[LeaseComp](config.GetDB()), ObjectColumnLeaseApproachId, approach.ID, AsChildRecords(comps)); !ok {
		return nil, errors.New("lease comps update failed")
	}

	approach.AveragedLeaseRate = AveragedLeaseRate(comps)
	approach.IndicatedValue = approach.AveragedLeaseRate.Mul(parent.SubjectQuantity())
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
