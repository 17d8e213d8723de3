package datacontext

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kbukum/attachkit/database/query"
)

// Find loads the T with primary key id. A missing row returns (nil, nil).
func Find[T any](ctx context.Context, dc DataContext, id any) (*T, error) {
	var out T
	err := dc.Session(ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Pluck reads one column of the T with primary key id without loading the
// rest of the row. ok is false when the row does not exist.
func Pluck[T any, V any](ctx context.Context, dc DataContext, id any, column string) (value V, ok bool, err error) {
	var values []V
	err = dc.Session(ctx).Model(new(T)).Where("id = ?", id).Limit(1).Pluck(column, &values).Error
	if err != nil || len(values) == 0 {
		return value, false, err
	}
	return values[0], true, nil
}

// Exists reports whether a T with primary key id exists.
func Exists[T any](ctx context.Context, dc DataContext, id any) (bool, error) {
	var n int64
	err := dc.Session(ctx).Model(new(T)).Where("id = ?", id).Limit(1).Count(&n).Error
	return n > 0, err
}

// List returns one page of T.
func List[T any](ctx context.Context, dc DataContext, params query.Params, config query.Config) (*query.Result[T], error) {
	return query.ApplyToGorm[T](dc.Session(ctx).Model(new(T)), params, config)
}
