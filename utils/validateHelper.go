package utils

import (
	"context"
	"errors"
	"strings"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the `binding`-style validate tags on an input payload.
// Rejected payloads must never reach a mutation path.
func ValidateStruct(payload interface{}) error {
	if err := validate.Struct(payload); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return err
		}
		fields := make([]string, 0)
		for _, fe := range err.(validator.ValidationErrors) {
			fields = append(fields, fe.Field())
		}
		return errors.New("invalid value for " + strings.Join(fields, ", "))
	}
	return nil
}

// check if id exists, using ctx's account_id in WHERE, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, accountId int, id int) error {
	db := config.GetDB()
	var model T
	var count int64
	err := db.WithContext(ctx).Model(&model).
		Where("account_id = ? AND id = ?", accountId, id).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}
