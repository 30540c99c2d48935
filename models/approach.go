package models

import (
	"context"
	"errors"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// findOrCreateApproach loads the approach row belonging to a parent, creating
// an empty one stamped with the parent column on first save.
func findOrCreateApproach(ctx context.Context, objectColumn string, objectId int, approach ChildRecord) error {
	db := config.GetDB()
	err := db.WithContext(ctx).Where(objectColumn+" = ?", objectId).First(approach).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	approach.StampParent(objectColumn, objectId)
	return db.WithContext(ctx).Create(approach).Error
}

// ApproachValue is one approach's contribution to a scenario's weighted
// market value.
type ApproachValue struct {
	Value  decimal.Decimal `json:"value"`
	Weight decimal.Decimal `json:"weight"`
}

// ApproachState summarizes one approach for scenario status derivation.
type ApproachState struct {
	Enabled    bool
	HasData    bool
	FinalValue *decimal.Decimal
}

// loadApproach returns the approach row of a scenario, or nil when none was
// saved yet.
func loadApproach[T any](ctx context.Context, scenarioId int) (*T, error) {
	db := config.GetDB()
	var approach T
	err := db.WithContext(ctx).Where("scenario_id = ?", scenarioId).First(&approach).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &approach, nil
}
