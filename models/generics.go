package models

import (
	"context"
	"errors"

	"bitbucket.org/parcelworks/valuation_backend/utils"
)

type Resource interface {
	GetAccountId() int
}

// first find in redis, then in db, using ctx's account_id in WHERE, cache result
// (may return RecordNotFound error)
func GetResource[T Resource](ctx context.Context, id int, associations ...string) (*T, error) {

	accountId, ok := utils.GetAccountIdFromContext(ctx)
	if !ok || accountId == 0 {
		return nil, errors.New("account id is required")
	}
	// find in redis
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		return nil, err
	}
	// if not found in redis
	if result == nil {
		// fetch from db
		result, err = utils.FetchModel[T](ctx, accountId, id, associations...)
		if err != nil {
			return nil, err
		}

		// store in redis
		if err := utils.StoreRedis[T](result, id); err != nil {
			return nil, err
		}
	} else {
		// if found in redis
		// check if account ids match
		if (*result).GetAccountId() != accountId {
			return nil, errors.New("cannot access resource owned by other account")
		}
	}

	return result, nil
}
