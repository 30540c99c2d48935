package models

import (
	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/utils"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Appraisal{}, &Evaluation{}, &Comp{},
		&Zoning{}, &Utility{}, &PropertyUnit{},
		&Scenario{},
		&IncomeApproach{}, &IncomeSource{}, &OtherIncome{}, &OperatingExpense{},
		&SalesApproach{}, &SalesComp{},
		&CostApproach{}, &CostComp{}, &Improvement{},
		&CapApproach{}, &LeaseApproach{}, &LeaseComp{},
		&CompAdjustment{}, &QualitativeAdjustment{}, &SubjectPropertyAdjustment{},
		&ComparisonAttribute{},
	)
	utils.ErrorPanic(err)
}
