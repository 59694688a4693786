package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository is a generic gorm-backed table accessor for one row type.
// Query structs follow gorm semantics: zero-valued fields are not filtered on.
type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...QueryOption) (*T, error)
	Create(ctx context.Context, row *T) error
	BatchCreate(ctx context.Context, rows []*T) error
	DeleteWhere(ctx context.Context, query *T) error
}

// QueryOption customizes a query before it is executed.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// WithOrder sorts results by the given column expression.
func WithOrder(expr string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(expr)
	})
}

type table[T any] struct {
	db *gorm.DB
}

// ProvideStore binds a Repository to db, which may be a transaction.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &table[T]{db: db}
}

func (r *table[T]) Find(ctx context.Context, query *T, opts ...QueryOption) ([]*T, error) {
	var rows []*T
	err := r.where(ctx, query, opts...).Find(&rows).Error
	return rows, err
}

// FindOne returns nil without error when nothing matches.
func (r *table[T]) FindOne(ctx context.Context, query *T, opts ...QueryOption) (*T, error) {
	var row T
	err := r.where(ctx, query, opts...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *table[T]) Create(ctx context.Context, row *T) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *table[T]) BatchCreate(ctx context.Context, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// DeleteWhere refuses an empty filter through gorm's missing where clause check.
func (r *table[T]) DeleteWhere(ctx context.Context, query *T) error {
	var model T
	return r.db.WithContext(ctx).Where(query).Delete(&model).Error
}

func (r *table[T]) where(ctx context.Context, query *T, opts ...QueryOption) *gorm.DB {
	db := r.db.WithContext(ctx).Where(query)
	for _, opt := range opts {
		db = opt.Apply(db)
	}
	return db
}
