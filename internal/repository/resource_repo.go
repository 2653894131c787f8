package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go-utang-ledger/internal/model"
	"go-utang-ledger/internal/resource"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Delegate is the storage accessor bound to one resource kind.
type Delegate interface {
	Kind() resource.Kind
	FindMany(ctx context.Context, q resource.Query) ([]model.Record, error)
	Count(ctx context.Context, where resource.Predicate) (int64, error)
	// FindUnique loads a record and the listed relations.
	FindUnique(ctx context.Context, id string, include ...string) (model.Record, error)
	// FindForAccess loads a record with its ownership chain, keeping only the
	// membership rows of userID at the end of the chain.
	FindForAccess(ctx context.Context, id, userID string) (model.Record, error)
	Create(ctx context.Context, rec model.Record) error
	// Decode unmarshals a JSON body into a fresh record of this kind.
	Decode(data []byte) (model.Record, error)
	// Update writes columns from patch to the row matching id and guard.
	Update(ctx context.Context, id string, patch model.Record, columns []string, guard resource.Clause) (model.Record, error)
	// Delete removes the row matching id and guard and returns what it was.
	Delete(ctx context.Context, id string, guard resource.Clause) (model.Record, error)
}

type recordPtr[T any] interface {
	*T
	model.Record
}

type gormDelegate[T any, PT recordPtr[T]] struct {
	db   *gorm.DB
	desc resource.Descriptor
}

func newDelegate[T any, PT recordPtr[T]](db *gorm.DB, k resource.Kind) Delegate {
	return &gormDelegate[T, PT]{db: db, desc: resource.Describe(k)}
}

func applyWhere(tx *gorm.DB, clauses ...resource.Clause) *gorm.DB {
	for _, c := range clauses {
		if c.SQL == "" {
			continue
		}
		tx = tx.Where(c.SQL, c.Args...)
	}
	return tx
}

func (d *gormDelegate[T, PT]) idClause(id string) resource.Clause {
	return resource.Clause{SQL: d.desc.Table + ".id = ?", Args: []any{id}}
}

func (d *gormDelegate[T, PT]) Kind() resource.Kind { return d.desc.Kind }

func (d *gormDelegate[T, PT]) FindMany(ctx context.Context, q resource.Query) ([]model.Record, error) {
	var rows []T
	tx := applyWhere(d.db.WithContext(ctx).Model(new(T)), q.Where...).
		Offset(q.Skip).
		Limit(q.Take)
	if q.Sort != nil {
		tx = tx.Order(q.Sort.String())
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	out := make([]model.Record, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, nil
}

func (d *gormDelegate[T, PT]) Count(ctx context.Context, where resource.Predicate) (int64, error) {
	var total int64
	err := applyWhere(d.db.WithContext(ctx).Model(new(T)), where...).Count(&total).Error
	return total, translate(err)
}

func (d *gormDelegate[T, PT]) FindUnique(ctx context.Context, id string, include ...string) (model.Record, error) {
	rec := PT(new(T))
	tx := d.db.WithContext(ctx)
	for _, rel := range include {
		tx = tx.Preload(rel)
	}
	if err := applyWhere(tx, d.idClause(id)).First(rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (d *gormDelegate[T, PT]) FindForAccess(ctx context.Context, id, userID string) (model.Record, error) {
	rec := PT(new(T))
	tx := d.db.WithContext(ctx)
	if d.desc.AccessPreload != "" {
		tx = tx.Preload(d.desc.AccessPreload, "user_id = ?", userID)
	}
	if err := applyWhere(tx, d.idClause(id)).First(rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (d *gormDelegate[T, PT]) Create(ctx context.Context, rec model.Record) error {
	if _, ok := rec.(PT); !ok {
		return fmt.Errorf("repository: %s delegate cannot create %T", d.desc.Kind, rec)
	}
	return translate(d.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error)
}

func (d *gormDelegate[T, PT]) Decode(data []byte) (model.Record, error) {
	rec := PT(new(T))
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *gormDelegate[T, PT]) Update(ctx context.Context, id string, patch model.Record, columns []string, guard resource.Clause) (model.Record, error) {
	var updated model.Record
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(columns) > 0 {
			res := applyWhere(tx.Model(new(T)), d.idClause(id), guard).
				Select(columns).
				Updates(patch)
			if res.Error != nil {
				return res.Error
			}
			// The row vanished or left the caller's stores after the access check.
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
		}

		rec := PT(new(T))
		if err := applyWhere(tx, d.idClause(id), guard).First(rec).Error; err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

func (d *gormDelegate[T, PT]) Delete(ctx context.Context, id string, guard resource.Clause) (model.Record, error) {
	var deleted model.Record
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := PT(new(T))
		err := applyWhere(tx.Clauses(clause.Locking{Strength: "UPDATE"}), d.idClause(id), guard).
			First(rec).Error
		if err != nil {
			return err
		}

		res := tx.Omit(clause.Associations).Delete(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		deleted = rec
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return deleted, nil
}

// Registry maps every resource kind to its delegate.
type Registry struct {
	delegates map[resource.Kind]Delegate
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{delegates: map[resource.Kind]Delegate{
		resource.Stores:     newDelegate[model.Store](db, resource.Stores),
		resource.StoreUsers: newDelegate[model.StoreUser](db, resource.StoreUsers),
		resource.Customers:  newDelegate[model.Customer](db, resource.Customers),
		resource.Items:      newDelegate[model.Item](db, resource.Items),
		resource.Utang:      newDelegate[model.Utang](db, resource.Utang),
		resource.UtangItems: newDelegate[model.UtangItem](db, resource.UtangItems),
		resource.Payments:   newDelegate[model.Payment](db, resource.Payments),
		resource.Users:      newDelegate[model.User](db, resource.Users),
	}}
}

// Delegate returns the accessor for k. Callers must have validated k with
// resource.Parse; any other value panics.
func (r *Registry) Delegate(k resource.Kind) Delegate {
	d, ok := r.delegates[k]
	if !ok {
		panic(fmt.Sprintf("repository: no delegate for kind %q", string(k)))
	}
	return d
}
