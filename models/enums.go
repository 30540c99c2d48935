package models

import "errors"

type ComparisonBasis string

const (
	ComparisonBasisSF   ComparisonBasis = "SF"
	ComparisonBasisUnit ComparisonBasis = "Unit"
	ComparisonBasisBed  ComparisonBasis = "Bed"
)

func ParseComparisonBasis(s string) (ComparisonBasis, error) {
	switch s {
	case "SF":
		return ComparisonBasisSF, nil
	case "Unit":
		return ComparisonBasisUnit, nil
	case "Bed":
		return ComparisonBasisBed, nil
	default:
		return "", errors.New("invalid comparison basis")
	}
}

type CompType string

const (
	CompTypeBuildingWithLand CompType = "building_with_land"
	CompTypeLandOnly         CompType = "land_only"
)

type ApproachType string

const (
	ApproachTypeIncome ApproachType = "income"
	ApproachTypeCost   ApproachType = "cost"
	ApproachTypeSales  ApproachType = "sales"
	ApproachTypeCap    ApproachType = "cap"
	ApproachTypeLease  ApproachType = "lease"
)

type ScenarioStatus string

const (
	ScenarioStatusDraft      ScenarioStatus = "Draft"
	ScenarioStatusInProgress ScenarioStatus = "InProgress"
	ScenarioStatusComplete   ScenarioStatus = "Complete"
)

// parent columns association children are keyed on
const (
	ObjectColumnAppraisalId  = "appraisal_id"
	ObjectColumnEvaluationId = "evaluation_id"
	ObjectColumnCompId       = "comp_id"

	ObjectColumnScenarioId       = "scenario_id"
	ObjectColumnIncomeApproachId = "income_approach_id"
	ObjectColumnCostApproachId   = "cost_approach_id"
	ObjectColumnSalesApproachId  = "sales_approach_id"
	ObjectColumnLeaseApproachId  = "lease_approach_id"
	ObjectColumnSalesCompId      = "sales_comp_id"
	ObjectColumnCostCompId       = "cost_comp_id"
)

// rounding units offered for a scenario's weighted market value
const (
	RoundingThousand           int64 = 1000
	RoundingFiveThousand       int64 = 5000
	RoundingTenThousand        int64 = 10000
	RoundingOneHundredThousand int64 = 100000
	RoundingOneMillion         int64 = 1000000
)

func IsValidRounding(v int64) bool {
	switch v {
	case 0, RoundingThousand, RoundingFiveThousand, RoundingTenThousand,
		RoundingOneHundredThousand, RoundingOneMillion:
		return true
	}
	return false
}

// IncomeLineField names the cell of an income line the user edited last.
type IncomeLineField string

const (
	IncomeFieldMonthly  IncomeLineField = "monthly_income"
	IncomeFieldAnnual   IncomeLineField = "annual_income"
	IncomeFieldRentRate IncomeLineField = "rent_sq_ft"
)
