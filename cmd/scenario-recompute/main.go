package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/models"
	"bitbucket.org/parcelworks/valuation_backend/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Recomputes stored scenario statuses and weighted market values from the
// current approach rows. Useful after a manual data fix or a formula change.
func main() {
	accountID := flag.Int("account-id", 0, "Required: account id to recompute for")
	evaluationID := flag.Int("evaluation-id", 0, "Optional: restrict to one evaluation")
	dryRun := flag.Bool("dry-run", false, "Report drift without writing")
	flag.Parse()

	if *accountID == 0 {
		fmt.Fprintln(os.Stderr, "--account-id is required")
		os.Exit(1)
	}

	_ = godotenv.Load()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	ctx := utils.SetAccountIdInContext(context.Background(), *accountID)

	query := db.Model(&models.Evaluation{}).Where("account_id = ?", *accountID)
	if *evaluationID > 0 {
		query = query.Where("id = ?", *evaluationID)
	}
	var evaluations []models.Evaluation
	if err := query.Find(&evaluations).Error; err != nil {
		logger.WithError(err).Fatal("failed to list evaluations")
	}

	recomputed, drifted := 0, 0
	for _, evaluation := range evaluations {
		var scenarios []models.Scenario
		if err := db.Where("evaluation_id = ?", evaluation.ID).Find(&scenarios).Error; err != nil {
			logger.WithError(err).Fatalf("failed to list scenarios for evaluation %d", evaluation.ID)
		}
		for _, scenario := range scenarios {
			before := scenario.WeightedMarketValue
			if *dryRun {
				logger.WithFields(logrus.Fields{
					"scenario_id": scenario.ID,
					"stored":      before,
				}).Info("would recompute")
				continue
			}
			if err := models.RecomputeScenario(ctx, scenario.ID); err != nil {
				logger.WithError(err).Errorf("scenario %d recompute failed", scenario.ID)
				continue
			}
			recomputed++
			var after models.Scenario
			if err := db.First(&after, scenario.ID).Error; err == nil && !after.WeightedMarketValue.Equal(before) {
				drifted++
				logger.WithFields(logrus.Fields{
					"scenario_id": scenario.ID,
					"stored":      before,
					"recomputed":  after.WeightedMarketValue,
				}).Warn("weighted market value drifted")
			}
		}
	}
	logger.Infof("done: %d scenarios recomputed, %d drifted", recomputed, drifted)
}
