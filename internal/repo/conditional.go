package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cond is an extra precondition evaluated in the same UPDATE statement.
type Cond struct {
	Query string
	Args  []any
}

func Where(query string, args ...any) Cond {
	return Cond{Query: query, Args: args}
}

// CompareAndAdd adds delta to column on the row with id only when every cond
// holds at write time. It reports whether the row was changed.
func CompareAndAdd(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, column string, delta int64, conds ...Cond) (bool, error) {
	q := db.WithContext(ctx).Model(model).Where("id = ?", id)
	for _, c := range conds {
		q = q.Where(c.Query, c.Args...)
	}
	res := q.UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CompareAndDecrement subtracts amount from column unless the result would
// drop below minValue.
func CompareAndDecrement(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, column string, amount, minValue int64, conds ...Cond) (bool, error) {
	guard := Where(column+" - ? >= ?", amount, minValue)
	return CompareAndAdd(ctx, db, model, id, column, -amount, append([]Cond{guard}, conds...)...)
}
