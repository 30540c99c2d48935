package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// return nil if boolean expression is true, else the given default
func NilOrElse[T any](b bool, elseValue T) *T {
	if b {
		return nil
	}
	return &elseValue
}

/* decimal helpers */

// RoundToNearest rounds v to the nearest multiple of unit (half away from
// zero). unit <= 0 leaves v untouched.
func RoundToNearest(v decimal.Decimal, unit int64) decimal.Decimal {
	if unit <= 0 {
		return v
	}
	acc := decimal.NewFromInt(unit)
	return v.Div(acc).Round(0).Mul(acc)
}

// SafeDiv divides a by b, returning zero when b is zero so a blank or zero
// quantity never surfaces as Infinity/NaN downstream.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, 4)
}

/* redis lock */

// AcquireParentEditLock serializes saves for one parent record
// (objectColumn:objectId). Returns a release func. When locking is disabled
// or redis is absent it returns a no-op release and no error.
func AcquireParentEditLock(ctx context.Context, moduleName string, objectColumn string, objectId int) (func(), error) {
	if !config.ParentEditLocking() {
		return func() {}, nil
	}
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when the redis lock isn't initialized yet.
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("ParentEditLock:%s:%d", objectColumn, objectId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, "AcquireParentEditLock", "could not obtain lock", lockKey, err)
		return nil, errors.New("could not obtain lock for parent")
	} else if err != nil {
		config.LogError(logger, moduleName, "AcquireParentEditLock", "error obtaining lock", lockKey, err)
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
	}, nil
}
