package models

import (
	"context"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChildRecord is implemented by every reconcilable child row: income sources,
// comps, adjustments, utilities, zonings, property units, scenarios.
type ChildRecord interface {
	GetID() int
	SetID(id int)
	// StampParent sets the owning parent column before a create. A persisted
	// child belongs to exactly one parent at a time.
	StampParent(objectColumn string, objectId int)
}

// ChildStore is the persistence surface the reconciler needs. GormChildStore
// is the production implementation; tests substitute an in-memory store.
type ChildStore interface {
	Exists(ctx context.Context, id int) (bool, error)
	Create(ctx context.Context, item ChildRecord) error
	Update(ctx context.Context, item ChildRecord) error
	// DeleteMissing removes every child of the parent whose id is not in keepIds.
	DeleteMissing(ctx context.Context, objectColumn string, objectId int, keepIds []int) error
}

// ChildModel is the embedded base of every child row.
type ChildModel struct {
	ID int `gorm:"primary_key" json:"id"`
}

func (m *ChildModel) GetID() int   { return m.ID }
func (m *ChildModel) SetID(id int) { m.ID = id }

// ReconcileChildren synchronizes the persisted children of one parent with the
// submitted set, in submission order:
// Every item is stamped with the parent column first, then:
//   - an item with a known id is updated in place; if the id no longer exists
//     it falls through to create
//   - an item without an id is created
//   - every existing child whose id is not in the resulting keep set is deleted
//
// An empty submitted set deletes all existing children; callers that don't
// want clear-all semantics must gate on that before calling.
//
// Any persistence error aborts the remaining steps and reports false; writes
// already applied are not rolled back here. Wrap the store's DB in a
// transaction (see ReconcileInTransaction) to get atomicity.
func ReconcileChildren(ctx context.Context, store ChildStore, objectColumn string, objectId int, items []ChildRecord) ([]int, bool) {
	logger := config.GetLogger()
	attemptId := uuid.NewString()

	keepIds := make([]int, 0, len(items))
	for _, item := range items {
		item.StampParent(objectColumn, objectId)
		if id := item.GetID(); id > 0 {
			exists, err := store.Exists(ctx, id)
			if err != nil {
				config.LogError(logger, "models", "ReconcileChildren", "lookup "+objectColumn, map[string]any{"attemptId": attemptId, "id": id}, err)
				return nil, false
			}
			if exists {
				if err := store.Update(ctx, item); err != nil {
					config.LogError(logger, "models", "ReconcileChildren", "update "+objectColumn, map[string]any{"attemptId": attemptId, "id": id}, err)
					return nil, false
				}
				keepIds = append(keepIds, id)
				continue
			}
			// stale id from the client; treat as new
			item.SetID(0)
		}
		if err := store.Create(ctx, item); err != nil {
			config.LogError(logger, "models", "ReconcileChildren", "create "+objectColumn, map[string]any{"attemptId": attemptId, "parentId": objectId}, err)
			return nil, false
		}
		keepIds = append(keepIds, item.GetID())
	}

	if err := store.DeleteMissing(ctx, objectColumn, objectId, keepIds); err != nil {
		config.LogError(logger, "models", "ReconcileChildren", "delete missing "+objectColumn, map[string]any{"attemptId": attemptId, "parentId": objectId}, err)
		return nil, false
	}
	return keepIds, true
}

// GormChildStore persists children of type T through GORM.
type GormChildStore[T any] struct {
	db *gorm.DB
}

func NewGormChildStore[T any](db *gorm.DB) GormChildStore[T] {
	return GormChildStore[T]{db: db}
}

func (s GormChildStore[T]) Exists(ctx context.Context, id int) (bool, error) {
	var model T
	var count int64
	err := s.db.WithContext(ctx).Model(&model).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s GormChildStore[T]) Create(ctx context.Context, item ChildRecord) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s GormChildStore[T]) Update(ctx context.Context, item ChildRecord) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s GormChildStore[T]) DeleteMissing(ctx context.Context, objectColumn string, objectId int, keepIds []int) error {
	var model T
	dbCtx := s.db.WithContext(ctx).Where(objectColumn+" = ?", objectId)
	if len(keepIds) > 0 {
		dbCtx = dbCtx.Where("id NOT IN ?", keepIds)
	}
	return dbCtx.Delete(&model).Error
}

// AsChildRecords converts a typed child slice for ReconcileChildren.
func AsChildRecords[T ChildRecord](items []T) []ChildRecord {
	records := make([]ChildRecord, len(items))
	for i, item := range items {
		records[i] = item
	}
	return records
}

// ReconcileInTransaction runs fn inside one DB transaction when the
// TRANSACTIONAL_RECONCILE flag is on; otherwise fn runs on the shared handle
// and partial writes survive a mid-stream failure, matching the historical
// behavior.
func ReconcileInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := config.GetDB()
	if config.TransactionalReconcile() {
		return db.WithContext(ctx).Transaction(fn)
	}
	return fn(db.WithContext(ctx))
}
