package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/utils"
	"github.com/shopspring/decimal"
)

// Scenario is one valuation run of an evaluation: it selects which approaches
// are in play and carries the weighted market value they reconcile to.
type Scenario struct {
	ChildModel
	EvaluationId int    `gorm:"index;not null" json:"evaluation_id"`
	Name         string `gorm:"size:255" json:"name"`

	HasIncomeApproach *bool `gorm:"not null;default:false" json:"has_income_approach"`
	HasCostApproach   *bool `gorm:"not null;default:false" json:"has_cost_approach"`
	HasSalesApproach  *bool `gorm:"not null;default:false" json:"has_sales_approach"`
	HasCapApproach    *bool `gorm:"not null;default:false" json:"has_cap_approach"`
	HasLeaseApproach  *bool `gorm:"not null;default:false" json:"has_lease_approach"`

	WeightedMarketValue decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"weighted_market_value"`
	Rounding            int64           `gorm:"default:0" json:"rounding"`
	Status              ScenarioStatus  `gorm:"type:enum('Draft','InProgress','Complete');default:'Draft'" json:"status"`
	ReviewSummary       string          `gorm:"type:text" json:"review_summary"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Scenario) StampParent(objectColumn string, objectId int) {
	if objectColumn == ObjectColumnEvaluationId {
		s.EvaluationId = objectId
	}
}

func (s *Scenario) hasAnyApproach() bool {
	return utils.DereferencePtr(s.HasIncomeApproach) ||
		utils.DereferencePtr(s.HasCostApproach) ||
		utils.DereferencePtr(s.HasSalesApproach) ||
		utils.DereferencePtr(s.HasCapApproach) ||
		utils.DereferencePtr(s.HasLeaseApproach)
}

// GetScenario fetches a scenario, verifying the caller's account owns its
// evaluation.
func GetScenario(ctx context.Context, id int) (*Scenario, error) {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return nil, errors.New("account id is required")
	}
	scenario, err := utils.FetchSingleModel[Scenario](ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := utils.FetchModel[Evaluation](ctx, accountId, scenario.EvaluationId); err != nil {
		return nil, err
	}
	return scenario, nil
}

// ReconcileScenarioValue weight-averages approach values into one market
// value, then rounds to the nearest rounding unit. A zero-weight approach
// counts toward the denominator check but adds nothing to the numerator; a
// zero weight sum resolves to 0.
func ReconcileScenarioValue(values []ApproachValue, rounding int64) decimal.Decimal {
	numerator := decimal.Zero
	denominator := decimal.Zero
	for _, v := range values {
		denominator = denominator.Add(v.Weight)
		if v.Weight.IsZero() {
			continue
		}
		numerator = numerator.Add(v.Value.Mul(v.Weight))
	}
	if denominator.IsZero() {
		return decimal.Zero
	}
	return utils.RoundToNearest(numerator.DivRound(denominator, 4), rounding)
}

// DeriveScenarioStatus folds per-approach states into the scenario lifecycle:
// Draft until any approach has data, Complete once every enabled approach has
// a final value, InProgress otherwise. Editing an approach re-derives the
// status, so Complete can fall back to InProgress.
func DeriveScenarioStatus(states []ApproachState) ScenarioStatus {
	enabled := 0
	withData := 0
	complete := 0
	for _, s := range states {
		if s.Enabled {
			enabled++
			if s.FinalValue != nil {
				complete++
			}
		}
		if s.HasData {
			withData++
		}
	}
	if withData == 0 {
		return ScenarioStatusDraft
	}
	if enabled > 0 && complete == enabled {
		return ScenarioStatusComplete
	}
	return ScenarioStatusInProgress
}

// collectScenarioApproaches loads each enabled approach's state and weighted
// contribution in one pass.
func collectScenarioApproaches(ctx context.Context, scenario *Scenario) ([]ApproachState, []ApproachValue, error) {
	states := make([]ApproachState, 0, 5)
	values := make([]ApproachValue, 0, 5)

	appendApproach := func(enabled bool, hasData bool, value, weight decimal.Decimal) {
		state := ApproachState{Enabled: enabled, HasData: hasData}
		if hasData && !value.IsZero() {
			v := value
			state.FinalValue = &v
		}
		states = append(states, state)
		if enabled && hasData {
			values = append(values, ApproachValue{Value: value, Weight: weight})
		}
	}

	income, err := loadApproach[IncomeApproach](ctx, scenario.ID)
	if err != nil {
		return nil, nil, err
	}
	if income != nil {
		appendApproach(utils.DereferencePtr(scenario.HasIncomeApproach), true, income.IndicatedValue, income.EvalWeight)
	} else {
		appendApproach(utils.DereferencePtr(scenario.HasIncomeApproach), false, decimal.Zero, decimal.Zero)
	}

	cost, err := loadApproach[CostApproach](ctx, scenario.ID)
	if err != nil {
		return nil, nil, err
	}
	if cost != nil {
		appendApproach(utils.DereferencePtr(scenario.HasCostApproach), true, cost.TotalCostValuation, cost.EvalWeight)
	} else {
		appendApproach(utils.DereferencePtr(scenario.HasCostApproach), false, decimal.Zero, decimal.Zero)
	}

	sales, err := loadApproach[SalesApproach](ctx, scenario.ID)
	if err != nil {
		return nil, nil, err
	}
	if sales != nil {
		appendApproach(utils.DereferencePtr(scenario.HasSalesApproach), true, sales.SalesApproachValue, sales.EvalWeight)
	} else {
		appendApproach(utils.DereferencePtr(scenario.HasSalesApproach), false, decimal.Zero, decimal.Zero)
	}

	capApproach, err := loadApproach[CapApproach](ctx, scenario.ID)
	if err != nil {
		return nil, nil, err
	}
	if capApproach != nil {
		appendApproach(utils.DereferencePtr(scenario.HasCapApproach), true, capApproach.IndicatedValue, capApproach.EvalWeight)
	} else {
		appendApproach(utils.DereferencePtr(scenario.HasCapApproach), false, decimal.Zero, decimal.Zero)
	}

	lease, err := loadApproach[LeaseApproach](ctx, scenario.ID)
	if err != nil {
		return nil, nil, err
	}
	if lease != nil {
		appendApproach(utils.DereferencePtr(scenario.HasLeaseApproach), true, lease.IndicatedValue, lease.EvalWeight)
	} else {
		appendApproach(utils.DereferencePtr(scenario.HasLeaseApproach), false, decimal.Zero, decimal.Zero)
	}

	return states, values, nil
}

// RefreshScenarioStatus re-derives and persists a scenario's status after an
// approach save.
func RefreshScenarioStatus(ctx context.Context, scenarioId int) error {
	db := config.GetDB()
	scenario, err := utils.FetchSingleModel[Scenario](ctx, scenarioId)
	if err != nil {
		return err
	}
	states, _, err := collectScenarioApproaches(ctx, scenario)
	if err != nil {
		return err
	}
	status := DeriveScenarioStatus(states)
	if status == scenario.Status {
		return nil
	}
	return db.WithContext(ctx).Model(scenario).UpdateColumn("status", status).Error
}

// RecomputeScenario re-derives both the status and the weighted market value
// from the current approach rows, keeping the stored rounding choice.
func RecomputeScenario(ctx context.Context, scenarioId int) error {
	scenario, err := utils.FetchSingleModel[Scenario](ctx, scenarioId)
	if err != nil {
		return err
	}
	states, values, err := collectScenarioApproaches(ctx, scenario)
	if err != nil {
		return err
	}
	scenario.Status = DeriveScenarioStatus(states)
	scenario.WeightedMarketValue = ReconcileScenarioValue(values, scenario.Rounding)
	return config.GetDB().WithContext(ctx).Save(scenario).Error
}

type NewScenarioReview struct {
	ScenarioId    int    `json:"scenario_id" validate:"required"`
	Rounding      int64  `json:"rounding"`
	ReviewSummary string `json:"review_summary"`
}

// SaveScenarioReview recomputes a scenario's weighted market value from its
// enabled approaches and persists it with the chosen rounding.
func SaveScenarioReview(ctx context.Context, payload *NewScenarioReview) (*Scenario, error) {
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}
	if !IsValidRounding(payload.Rounding) {
		return nil, errors.New("invalid rounding value")
	}
	scenario, err := GetScenario(ctx, payload.ScenarioId)
	if err != nil {
		return nil, err
	}

	release, err := utils.AcquireParentEditLock(ctx, "models", ObjectColumnScenarioId, scenario.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	states, values, err := collectScenarioApproaches(ctx, scenario)
	if err != nil {
		return nil, err
	}

	scenario.WeightedMarketValue = ReconcileScenarioValue(values, payload.Rounding)
	scenario.Rounding = payload.Rounding
	scenario.ReviewSummary = payload.ReviewSummary
	scenario.Status = DeriveScenarioStatus(states)

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(scenario).Error; err != nil {
		return nil, err
	}
	_ = utils.RemoveRedis[Evaluation](scenario.EvaluationId)
	return scenario, nil
}

// ReconcileScenarios synchronizes an evaluation's scenarios with the
// submitted set. Callers prune empty drafts before handing rows in; see
// buildScenarioRows.
func ReconcileScenarios(ctx context.Context, evaluationId int, scenarios []*Scenario) ([]int, bool) {
	store := NewGormChildStore[Scenario](config.GetDB())
	return ReconcileChildren(ctx, store, ObjectColumnEvaluationId, evaluationId, AsChildRecords(scenarios))
}

// deleteScenarioCascade removes a scenario with its approaches and their
// child rows. Comp-level grids are keyed by the comp ids, so comps are read
// before their approach rows go.
func deleteScenarioCascade(ctx context.Context, scenarioId int) error {
	db := config.GetDB().WithContext(ctx)

	if sales, err := loadApproach[SalesApproach](ctx, scenarioId); err != nil {
		return err
	} else if sales != nil {
		var comps []SalesComp
		if err := db.Where("sales_approach_id = ?", sales.ID).Find(&comps).Error; err != nil {
			return err
		}
		for _, comp := range comps {
			if err := db.Where("sales_comp_id = ?", comp.ID).Delete(&CompAdjustment{}).Error; err != nil {
				return err
			}
			if err := db.Where("sales_comp_id = ?", comp.ID).Delete(&QualitativeAdjustment{}).Error; err != nil {
				return err
			}
		}
		if err := db.Where("sales_approach_id = ?", sales.ID).Delete(&SalesComp{}).Error; err != nil {
			return err
		}
		if err := db.Where("sales_approach_id = ?", sales.ID).Delete(&SubjectPropertyAdjustment{}).Error; err != nil {
			return err
		}
		if err := db.Where("sales_approach_id = ?", sales.ID).Delete(&ComparisonAttribute{}).Error; err != nil {
			return err
		}
	}
	if cost, err := loadApproach[CostApproach](ctx, scenarioId); err != nil {
		return err
	} else if cost != nil {
		var comps []CostComp
		if err := db.Where("cost_approach_id = ?", cost.ID).Find(&comps).Error; err != nil {
			return err
		}
		for _, comp := range comps {
			if err := db.Where("cost_comp_id = ?", comp.ID).Delete(&CompAdjustment{}).Error; err != nil {
				return err
			}
			if err := db.Where("cost_comp_id = ?", comp.ID).Delete(&QualitativeAdjustment{}).Error; err != nil {
				return err
			}
		}
		for _, model := range []any{&CostComp{}, &Improvement{}, &SubjectPropertyAdjustment{}, &ComparisonAttribute{}} {
			if err := db.Where("cost_approach_id = ?", cost.ID).Delete(model).Error; err != nil {
				return err
			}
		}
	}
	if income, err := loadApproach[IncomeApproach](ctx, scenarioId); err != nil {
		return err
	} else if income != nil {
		for _, model := range []any{&IncomeSource{}, &OtherIncome{}, &OperatingExpense{}, &ComparisonAttribute{}} {
			if err := db.Where("income_approach_id = ?", income.ID).Delete(model).Error; err != nil {
				return err
			}
		}
	}
	if lease, err := loadApproach[LeaseApproach](ctx, scenarioId); err != nil {
		return err
	} else if lease != nil {
		if err := db.Where("lease_approach_id = ?", lease.ID).Delete(&LeaseComp{}).Error; err != nil {
			return err
		}
	}

	for _, model := range []any{&IncomeApproach{}, &CostApproach{}, &SalesApproach{}, &CapApproach{}, &LeaseApproach{}} {
		if err := db.Where("scenario_id = ?", scenarioId).Delete(model).Error; err != nil {
			return err
		}
	}
	return db.Delete(&Scenario{}, scenarioId).Error
}

func orFalse(b *bool) *bool {
	if b == nil {
		return utils.NewFalse()
	}
	return b
}

type NewScenario struct {
	Id                int    `json:"id"`
	Name              string `json:"name" validate:"required"`
	HasIncomeApproach *bool  `json:"has_income_approach"`
	HasCostApproach   *bool  `json:"has_cost_approach"`
	HasSalesApproach  *bool  `json:"has_sales_approach"`
	HasCapApproach    *bool  `json:"has_cap_approach"`
	HasLeaseApproach  *bool  `json:"has_lease_approach"`
}

// buildScenarioRows materializes the submitted scenario setups against the
// persisted rows. The setup payload carries only the name and approach flags,
// so a resubmit of an existing scenario takes its weighted value, rounding,
// status and review summary from the persisted row; otherwise the full-row
// save in the reconciler would zero them. A Draft scenario with no enabled
// approaches is dropped from the kept set, so the cascade pass removes it
// along with anything the submission left out.
func buildScenarioRows(payload []*NewScenario, existing []Scenario) ([]*Scenario, map[int]bool) {
	existingById := make(map[int]Scenario, len(existing))
	for _, s := range existing {
		existingById[s.ID] = s
	}

	kept := make([]*Scenario, 0, len(payload))
	keptIds := make(map[int]bool, len(payload))
	for _, s := range payload {
		scenario := &Scenario{
			ChildModel:        ChildModel{ID: s.Id},
			Name:              s.Name,
			HasIncomeApproach: orFalse(s.HasIncomeApproach),
			HasCostApproach:   orFalse(s.HasCostApproach),
			HasSalesApproach:  orFalse(s.HasSalesApproach),
			HasCapApproach:    orFalse(s.HasCapApproach),
			HasLeaseApproach:  orFalse(s.HasLeaseApproach),
			Status:            ScenarioStatusDraft,
		}
		if prev, found := existingById[s.Id]; found {
			scenario.WeightedMarketValue = prev.WeightedMarketValue
			scenario.Rounding = prev.Rounding
			scenario.Status = prev.Status
			scenario.ReviewSummary = prev.ReviewSummary
		}
		if scenario.Status == ScenarioStatusDraft && !scenario.hasAnyApproach() {
			continue
		}
		kept = append(kept, scenario)
		if s.Id > 0 {
			keptIds[s.Id] = true
		}
	}
	return kept, keptIds
}

// SaveScenarios synchronizes an evaluation's scenarios with the submitted
// set. A scenario dropped from the submission takes its approach tree with
// it.
func SaveScenarios(ctx context.Context, evaluationId int, payload []*NewScenario) ([]*Scenario, error) {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return nil, errors.New("account id is required")
	}
	evaluation, err := utils.FetchModel[Evaluation](ctx, accountId, evaluationId)
	if err != nil {
		return nil, err
	}
	for _, s := range payload {
		if err := utils.ValidateStruct(s); err != nil {
			return nil, err
		}
	}

	release, err := utils.AcquireParentEditLock(ctx, "models", ObjectColumnEvaluationId, evaluation.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	var existing []Scenario
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("evaluation_id = ?", evaluation.ID).Find(&existing).Error; err != nil {
		return nil, err
	}
	scenarios, keptIds := buildScenarioRows(payload, existing)

	// cascade the dropped and pruned trees before the diff removes the rows
	for _, s := range existing {
		if !keptIds[s.ID] {
			if err := deleteScenarioCascade(ctx, s.ID); err != nil {
				return nil, err
			}
		}
	}

	if _, ok := ReconcileScenarios(ctx, evaluation.ID, scenarios); !ok {
		return nil, errors.New("scenarios update failed")
	}
	for _, s := range scenarios {
		if err := RefreshScenarioStatus(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	_ = utils.RemoveRedis[Evaluation](evaluation.ID)
	return scenarios, nil
}

// FinalValuePerQuantity divides the rounded market value by the parent's
// total beds or units for the per-quantity figure shown beside it. SF basis
// or a missing divisor yields zero.
func FinalValuePerQuantity(weightedValue decimal.Decimal, basis ComparisonBasis, totals ZoningTotals) decimal.Decimal {
	switch basis {
	case ComparisonBasisBed:
		if totals.TotalBeds == nil {
			return decimal.Zero
		}
		return utils.SafeDiv(weightedValue, decimal.NewFromInt(int64(*totals.TotalBeds)))
	case ComparisonBasisUnit:
		if totals.TotalUnits == nil {
			return decimal.Zero
		}
		return utils.SafeDiv(weightedValue, decimal.NewFromInt(int64(*totals.TotalUnits)))
	default:
		return decimal.Zero
	}
}
