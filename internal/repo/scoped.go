package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// Scoped is the ownership-scoped CRUD repository shared by the simple tenant
// entities. Every read and write takes the owner explicitly and applies the
// scope in SQL, so ids from other tenants behave as missing rows.
type Scoped[T any] struct {
	Base
	table string
	scope ScopeFunc
}

// NewScoped builds a repository for table using scope.
func NewScoped[T any](db *gorm.DB, table string, scope ScopeFunc) *Scoped[T] {
	return &Scoped[T]{Base: NewBase(db), table: table, scope: scope}
}

// WithTx returns a copy bound to tx.
func (r *Scoped[T]) WithTx(tx *gorm.DB) *Scoped[T] {
	if tx == nil {
		return r
	}
	return &Scoped[T]{Base: NewBase(tx), table: r.table, scope: r.scope}
}

// Query starts a statement on the table restricted to ownerID.
func (r *Scoped[T]) Query(ctx context.Context, ownerID uuid.UUID) *gorm.DB {
	var model T
	return r.DB(ctx).Model(&model).Scopes(r.scope(ownerID))
}

func (r *Scoped[T]) Create(ctx context.Context, entity *T) error {
	return r.DB(ctx).Omit(clause.Associations).Create(entity).Error
}

// Get returns gorm.ErrRecordNotFound when the id is unknown or not the owner's.
func (r *Scoped[T]) Get(ctx context.Context, ownerID, id uuid.UUID) (*T, error) {
	var entity T
	err := r.DB(ctx).
		Scopes(r.scope(ownerID)).
		Where(r.table+".id = ?", id).
		Take(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Exists is Get without loading the row.
func (r *Scoped[T]) Exists(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.Query(ctx, ownerID).Where(r.table+".id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns one keyset page; filters narrow the query further.
func (r *Scoped[T]) List(ctx context.Context, ownerID uuid.UUID, cursor *pagination.Cursor, limit int, filters ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	var rows []T
	err := r.DB(ctx).
		Scopes(r.scope(ownerID)).
		Scopes(filters...).
		Scopes(pagination.Keyset(r.table, cursor, limit)).
		Find(&rows).Error
	return rows, err
}

// Update writes every column except identity and ownership. It returns
// gorm.ErrRecordNotFound when nothing matched inside the owner's scope.
func (r *Scoped[T]) Update(ctx context.Context, ownerID uuid.UUID, entity *T) error {
	res := r.DB(ctx).
		Model(entity).
		Scopes(r.scope(ownerID)).
		Select("*").
		Omit("id", "owner_id", "created_at", clause.Associations).
		Updates(entity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes one row; gorm.ErrRecordNotFound when nothing matched.
func (r *Scoped[T]) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	var model T
	res := r.DB(ctx).
		Scopes(r.scope(ownerID)).
		Where(r.table+".id = ?", id).
		Delete(&model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
