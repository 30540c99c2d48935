package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/utils"
)

// Appraisal is the standalone property write-up used outside the scenario
// flow. It shares the association child tables with evaluations and comps
// through the appraisal_id column.
type Appraisal struct {
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

	Zonings       []Zoning       `gorm:"foreignKey:AppraisalId" json:"zonings"`
	Utilities     []Utility      `gorm:"foreignKey:AppraisalId" json:"utilities"`
	PropertyUnits []PropertyUnit `gorm:"foreignKey:AppraisalId" json:"property_units"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a Appraisal) GetAccountId() int { return a.AccountId }

// Comp is a comparable-property record referenced by approach comps. Its
// association children hang off comp_id.
type Comp struct {
	ID        int    `gorm:"primary_key" json:"id"`
	AccountId int    `gorm:"index;not null" json:"account_id"`
	Name      string `gorm:"size:255" json:"name"`
	Address   string `gorm:"size:255" json:"address"`

	CompType CompType   `gorm:"size:30;default:'building_with_land'" json:"comp_type"`
	SqFt     int        `gorm:"default:0" json:"sq_ft"`
	Acres    float64    `gorm:"default:0" json:"acres"`
	SaleDate *time.Time `gorm:"default:null" json:"sale_date"`

	Zonings       []Zoning       `gorm:"foreignKey:CompId" json:"zonings"`
	Utilities     []Utility      `gorm:"foreignKey:CompId" json:"utilities"`
	PropertyUnits []PropertyUnit `gorm:"foreignKey:CompId" json:"property_units"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Comp) GetAccountId() int { return c.AccountId }

type NewAppraisal struct {
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

// CreateAppraisal inserts a new appraisal record with its child collections.
func CreateAppraisal(ctx context.Context, payload *NewAppraisal) (*Appraisal, error) {
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

	appraisal := &Appraisal{
		AccountId:       accountId,
		Name:            payload.Name,
		Address:         payload.Address,
		ComparisonBasis: resolveBasis(basis, compType),
		CompType:        compType,
		SqFt:            payload.SqFt,
		Acres:           payload.Acres,
	}
	if err := config.GetDB().WithContext(ctx).Create(appraisal).Error; err != nil {
		return nil, err
	}
	return saveAppraisalChildren(ctx, appraisal, payload)
}

// UpdateAppraisal rewrites an appraisal and synchronizes its child
// collections with the submitted sets.
func UpdateAppraisal(ctx context.Context, id int, payload *NewAppraisal) (*Appraisal, error) {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return nil, errors.New("account id is required")
	}
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}
	appraisal, err := utils.FetchModel[Appraisal](ctx, accountId, id)
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

	release, err := utils.AcquireParentEditLock(ctx, "models", ObjectColumnAppraisalId, appraisal.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	appraisal.Name = payload.Name
	appraisal.Address = payload.Address
	appraisal.ComparisonBasis = resolveBasis(basis, compType)
	appraisal.CompType = compType
	appraisal.SqFt = payload.SqFt
	appraisal.Acres = payload.Acres

	return saveAppraisalChildren(ctx, appraisal, payload)
}

func saveAppraisalChildren(ctx context.Context, appraisal *Appraisal, payload *NewAppraisal) (*Appraisal, error) {
	NormalizeZoningBasis(payload.Zonings, appraisal.ComparisonBasis)
	if !ReconcileZonings(ctx, ObjectColumnAppraisalId, appraisal.ID, payload.Zonings) {
		return nil, errors.New("zonings update failed")
	}
	if !ReconcileUtilities(ctx, ObjectColumnAppraisalId, appraisal.ID, payload.Utilities) {
		return nil, errors.New("utilities update failed")
	}
	if !ReconcilePropertyUnits(ctx, ObjectColumnAppraisalId, appraisal.ID, payload.PropertyUnits) {
		return nil, errors.New("property units update failed")
	}

	zonings := make([]Zoning, 0, len(payload.Zonings))
	for _, z := range payload.Zonings {
		zonings = append(zonings, *z)
	}
	totals := RollUpZonings(zonings)
	appraisal.TotalBeds = totals.TotalBeds
	appraisal.TotalUnits = totals.TotalUnits

	if err := config.GetDB().WithContext(ctx).Save(appraisal).Error; err != nil {
		return nil, err
	}
	_ = utils.RemoveRedis[Appraisal](appraisal.ID)
	return appraisal, nil
}

// GetAppraisal reads the appraisal with its child collections.
func GetAppraisal(ctx context.Context, id int) (*Appraisal, error) {
	return GetResource[Appraisal](ctx, id, "Zonings", "Utilities", "PropertyUnits")
}

// DeleteAppraisal removes an appraisal and its association children.
func DeleteAppraisal(ctx context.Context, id int) error {
	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return errors.New("account id is required")
	}
	appraisal, err := utils.FetchModel[Appraisal](ctx, accountId, id)
	if err != nil {
		return err
	}
	db := config.GetDB().WithContext(ctx)
	for _, model := range []any{&Zoning{}, &Utility{}, &PropertyUnit{}} {
		if err := db.Where("appraisal_id = ?", appraisal.ID).Delete(model).Error; err != nil {
			return err
		}
	}
	if err := db.Delete(&Appraisal{}, appraisal.ID).Error; err != nil {
		return err
	}
	return utils.RemoveRedis[Appraisal](appraisal.ID)
}
