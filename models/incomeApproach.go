package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/utils"
	"github.com/shopspring/decimal"
)

var decimalTwelve = decimal.NewFromInt(12)
var decimalOneHundred = decimal.NewFromInt(100)

// IncomeApproach holds the income valuation of one scenario. Total fields are
// caches recomputed from the child collections on every save, never sources
// of truth.
type IncomeApproach struct {
	ChildModel
	ScenarioId  int `gorm:"index;default:null" json:"scenario_id"`
	AppraisalId int `gorm:"index;default:null" json:"appraisal_id"`

	Vacancy               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vacancy"`
	TotalAnnualIncome     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_annual_income"`
	TotalMonthlyIncome    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_monthly_income"`
	TotalSqFt             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_sq_ft"`
	TotalUnit             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_unit"`
	TotalBed              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_bed"`
	TotalRentSqFt         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_rent_sq_ft"`
	VacantAmount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vacant_amount"`
	AdjustedGrossAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"adjusted_gross_amount"`
	TotalOtherIncome      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_other_income"`
	TotalOperatingExpense decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_operating_expense"`
	NetOperatingIncome    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"net_operating_income"`

	IndicatedValue decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"indicated_value"`
	EvalWeight     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"eval_weight"`
	Note           string          `gorm:"type:text" json:"note"`

	IncomeSources        []IncomeSource        `gorm:"foreignKey:IncomeApproachId" json:"income_sources"`
	OtherIncomes         []OtherIncome         `gorm:"foreignKey:IncomeApproachId" json:"other_incomes"`
	OperatingExpenses    []OperatingExpense    `gorm:"foreignKey:IncomeApproachId" json:"operating_expenses"`
	ComparisonAttributes []ComparisonAttribute `gorm:"foreignKey:IncomeApproachId" json:"comparison_attributes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IncomeSource is one income line. MonthlyIncome, AnnualIncome and RentSqFt
// are mutually dependent; which of SfSource/Unit/RentBed drives RentSqFt is
// selected by the parent's comparison basis. The two non-authoritative
// quantities are kept as entered, not cleared.
type IncomeSource struct {
	ChildModel
	IncomeApproachId int `gorm:"index;not null" json:"income_approach_id"`

	Space         string          `gorm:"size:255" json:"space"`
	MonthlyIncome decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"monthly_income"`
	AnnualIncome  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"annual_income"`
	RentSqFt      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rent_sq_ft"`
	SfSource      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sf_source"`
	Unit          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit"`
	RentBed       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rent_bed"`
	Comments      string          `gorm:"type:text" json:"comments"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *IncomeApproach) StampParent(objectColumn string, objectId int) {
	switch objectColumn {
	case ObjectColumnScenarioId:
		a.ScenarioId = objectId
	case ObjectColumnAppraisalId:
		a.AppraisalId = objectId
	}
}

func (s *IncomeSource) StampParent(objectColumn string, objectId int) {
	if objectColumn == ObjectColumnIncomeApproachId {
		s.IncomeApproachId = objectId
	}
}

// OtherIncome is one ancillary income line (laundry, parking, signage). It
// sits outside the vacancy cascade: added to effective income after the
// vacancy deduction.
type OtherIncome struct {
	ChildModel
	IncomeApproachId int `gorm:"index;not null" json:"income_approach_id"`

	Name         string          `gorm:"size:255" json:"name"`
	AnnualAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"annual_amount"`
	Comments     string          `gorm:"type:text" json:"comments"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *OtherIncome) StampParent(objectColumn string, objectId int) {
	if objectColumn == ObjectColumnIncomeApproachId {
		o.IncomeApproachId = objectId
	}
}

// TotalOtherIncomes sums the ancillary income lines.
func TotalOtherIncomes(incomes []OtherIncome) decimal.Decimal {
	total := decimal.Zero
	for _, o := range incomes {
		total = total.Add(o.AnnualAmount)
	}
	return total
}

// OperatingExpense is one expense line deducted from effective income.
type OperatingExpense struct {
	ChildModel
	IncomeApproachId int `gorm:"index;not null" json:"income_approach_id"`

	Name         string          `gorm:"size:255" json:"name"`
	AnnualAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"annual_amount"`
	Comments     string          `gorm:"type:text" json:"comments"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *OperatingExpense) StampParent(objectColumn string, objectId int) {
	if objectColumn == ObjectColumnIncomeApproachId {
		e.IncomeApproachId = objectId
	}
}

// LastEditedField marks which income-line cell the user touched last, so the
// UI can keep that cell editable while the derived two render read-only. It is
// view state only: never persisted, no effect on computed values.
type LastEditedField struct {
	Row   int             `json:"row"`
	Field IncomeLineField `json:"field"`
}

// AuthoritativeQty returns the quantity driving RentSqFt under the given basis.
func (s *IncomeSource) AuthoritativeQty(basis ComparisonBasis) decimal.Decimal {
	switch basis {
	case ComparisonBasisBed:
		return s.RentBed
	case ComparisonBasisUnit:
		return s.Unit
	default:
		return s.SfSource
	}
}

// ComputeIncomeLine applies a single-field edit to an income line and
// recomputes the other two of the monthly/annual/rate triangle. A zero or
// missing quantity resolves the rate to 0, never Infinity/NaN.
func ComputeIncomeLine(line *IncomeSource, basis ComparisonBasis, edited IncomeLineField, value decimal.Decimal) {
	qty := line.AuthoritativeQty(basis)
	switch edited {
	case IncomeFieldAnnual:
		line.AnnualIncome = value
		line.MonthlyIncome = value.DivRound(decimalTwelve, 4)
		line.RentSqFt = utils.SafeDiv(value, qty)
	case IncomeFieldMonthly:
		line.MonthlyIncome = value
		line.AnnualIncome = value.Mul(decimalTwelve)
		line.RentSqFt = utils.SafeDiv(line.AnnualIncome, qty)
	case IncomeFieldRentRate:
		line.RentSqFt = value
		line.AnnualIncome = value.Mul(qty)
		line.MonthlyIncome = line.AnnualIncome.DivRound(decimalTwelve, 4)
	}
}

// IncomeTotals is the roll-up of an income-line collection plus the vacancy
// cascade.
type IncomeTotals struct {
	TotalAnnualIncome   decimal.Decimal
	TotalMonthlyIncome  decimal.Decimal
	TotalSqFt           decimal.Decimal
	TotalUnit           decimal.Decimal
	TotalBed            decimal.Decimal
	TotalRentSqFt       decimal.Decimal
	VacantAmount        decimal.Decimal
	AdjustedGrossAmount decimal.Decimal
}

// RecomputeIncomeTotals recomputes every cached total from the lines. vacancy
// is a percentage; the effective (adjusted gross) income is total annual
// income less the vacant amount.
func RecomputeIncomeTotals(lines []IncomeSource, basis ComparisonBasis, vacancy decimal.Decimal) IncomeTotals {
	var t IncomeTotals
	for _, line := range lines {
		t.TotalAnnualIncome = t.TotalAnnualIncome.Add(line.AnnualIncome)
		t.TotalMonthlyIncome = t.TotalMonthlyIncome.Add(line.MonthlyIncome)
		if basis == ComparisonBasisSF {
			t.TotalSqFt = t.TotalSqFt.Add(line.SfSource)
		}
		t.TotalUnit = t.TotalUnit.Add(line.Unit)
		t.TotalBed = t.TotalBed.Add(line.RentBed)
	}

	switch basis {
	case ComparisonBasisBed:
		t.TotalRentSqFt = utils.SafeDiv(t.TotalAnnualIncome, t.TotalBed)
	case ComparisonBasisUnit:
		t.TotalRentSqFt = utils.SafeDiv(t.TotalAnnualIncome, t.TotalUnit)
	default:
		t.TotalRentSqFt = utils.SafeDiv(t.TotalAnnualIncome, t.TotalSqFt)
	}

	t.VacantAmount = vacancy.Mul(t.TotalAnnualIncome).DivRound(decimalOneHundred, 4)
	t.AdjustedGrossAmount = t.TotalAnnualIncome.Sub(t.VacantAmount)
	return t
}

// TotalOperatingExpenses sums the expense lines.
func TotalOperatingExpenses(expenses []OperatingExpense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.AnnualAmount)
	}
	return total
}

type NewIncomeSource struct {
	Id            int             `json:"id"`
	Space         string          `json:"space"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	AnnualIncome  decimal.Decimal `json:"annual_income"`
	RentSqFt      decimal.Decimal `json:"rent_sq_ft"`
	SfSource      decimal.Decimal `json:"sf_source"`
	Unit          decimal.Decimal `json:"unit"`
	RentBed       decimal.Decimal `json:"rent_bed"`
	Comments      string          `json:"comments"`
}

type NewOtherIncome struct {
	Id           int             `json:"id"`
	Name         string          `json:"name"`
	AnnualAmount decimal.Decimal `json:"annual_amount"`
	Comments     string          `json:"comments"`
}

type NewOperatingExpense struct {
	Id           int             `json:"id"`
	Name         string          `json:"name"`
	AnnualAmount decimal.Decimal `json:"annual_amount"`
	Comments     string          `json:"comments"`
}

type NewIncomeApproach struct {
	ScenarioId           int                    `json:"scenario_id" validate:"required"`
	Vacancy              *decimal.Decimal       `json:"vacancy"`
	IndicatedValue       decimal.Decimal        `json:"indicated_value"`
	EvalWeight           decimal.Decimal        `json:"eval_weight"`
	Note                 string                 `json:"note"`
	IncomeSources        []*NewIncomeSource     `json:"income_sources"`
	OtherIncomes         []*NewOtherIncome      `json:"other_incomes"`
	OperatingExpenses    []*NewOperatingExpense `json:"operating_expenses"`
	ComparisonAttributes []*ComparisonAttribute `json:"comparison_attributes"`
}

// SaveIncomeApproach creates or updates the income approach of a scenario:
// children are reconciled against the submitted sets, every cached total is
// recomputed from the surviving lines, and the scenario status is refreshed.
func SaveIncomeApproach(ctx context.Context, payload *NewIncomeApproach) (*IncomeApproach, error) {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return nil, errors.New("account id is required")
	}
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}

	// blank vacancy is 0, negative vacancy is rejected before any mutation
	vacancy := utils.DereferencePtr(payload.Vacancy, decimal.Zero)
	if vacancy.IsNegative() {
		return nil, errors.New("vacancy cannot be negative")
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
	approach := &IncomeApproach{}
	if err := findOrCreateApproach(ctx, ObjectColumnScenarioId, scenario.ID, approach); err != nil {
		return nil, err
	}

	sources := make([]*IncomeSource, 0, len(payload.IncomeSources))
	for _, src := range payload.IncomeSources {
		sources = append(sources, &IncomeSource{
			ChildModel:    ChildModel{ID: src.Id},
			Space:         src.Space,
			MonthlyIncome: src.MonthlyIncome,
			AnnualIncome:  src.AnnualIncome,
			RentSqFt:      src.RentSqFt,
			SfSource:      src.SfSource,
			Unit:          src.Unit,
			RentBed:       src.RentBed,
			Comments:      src.Comments,
		})
	}
	if _, ok := ReconcileChildren(ctx, NewGormChildStore[IncomeSource](db), ObjectColumnIncomeApproachId, approach.ID, AsChildRecords(sources)); !ok {
		return nil, errors.New("income sources update failed")
	}

	otherIncomes := make([]*OtherIncome, 0, len(payload.OtherIncomes))
	for _, oi := range payload.OtherIncomes {
		otherIncomes = append(otherIncomes, &OtherIncome{
			ChildModel:   ChildModel{ID: oi.Id},
			Name:         oi.Name,
			AnnualAmount: oi.AnnualAmount,
			Comments:     oi.Comments,
		})
	}
	if _, ok := ReconcileChildren(ctx, NewGormChildStore[OtherIncome](db), ObjectColumnIncomeApproachId, approach.ID, AsChildRecords(otherIncomes)); !ok {
		return nil, errors.New("other income update failed")
	}

	expenses := make([]*OperatingExpense, 0, len(payload.OperatingExpenses))
	for _, exp := range payload.OperatingExpenses {
		expenses = append(expenses, &OperatingExpense{
			ChildModel:   ChildModel{ID: exp.Id},
			Name:         exp.Name,
			AnnualAmount: exp.AnnualAmount,
			Comments:     exp.Comments,
		})
	}
	if _, ok := ReconcileChildren(ctx, NewGormChildStore[OperatingExpense](db), ObjectColumnIncomeApproachId, approach.ID, AsChildRecords(expenses)); !ok {
		return nil, errors.New("operating expenses update failed")
	}

	if !ReconcileComparisonAttributes(ctx, ObjectColumnIncomeApproachId, approach.ID, payload.ComparisonAttributes) {
		return nil, errors.New("comparison attributes update failed")
	}

	// recompute caches from the surviving children
	kept := make([]IncomeSource, len(sources))
	for i, src := range sources {
		kept[i] = *src
	}
	totals := RecomputeIncomeTotals(kept, parent.ComparisonBasis, vacancy)
	keptOther := make([]OtherIncome, len(otherIncomes))
	for i, oi := range otherIncomes {
		keptOther[i] = *oi
	}
	totalOther := TotalOtherIncomes(keptOther)
	keptExpenses := make([]OperatingExpense, len(expenses))
	for i, exp := range expenses {
		keptExpenses[i] = *exp
	}
	totalOpEx := TotalOperatingExpenses(keptExpenses)

	approach.Vacancy = vacancy
	approach.TotalAnnualIncome = totals.TotalAnnualIncome
	approach.TotalMonthlyIncome = totals.TotalMonthlyIncome
	approach.TotalSqFt = totals.TotalSqFt
	approach.TotalUnit = totals.TotalUnit
	approach.TotalBed = totals.TotalBed
	approach.TotalRentSqFt = totals.TotalRentSqFt
	approach.VacantAmount = totals.VacantAmount
	approach.AdjustedGrossAmount = totals.AdjustedGrossAmount
	approach.TotalOtherIncome = totalOther
	approach.TotalOperatingExpense = totalOpEx
	approach.NetOperatingIncome = totals.AdjustedGrossAmount.Add(totalOther).Sub(totalOpEx)
	approach.IndicatedValue = payload.IndicatedValue
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
