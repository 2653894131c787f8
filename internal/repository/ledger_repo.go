package repository

import (
	"context"
	"errors"
	"fmt"

	"go-utang-ledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository holds the composite writes and membership lookups that do
// not fit the generic per-kind delegates.
type LedgerRepository interface {
	// CreateStore inserts the store and an OWNER membership for ownerID in
	// one transaction.
	CreateStore(ctx context.Context, store *model.Store, ownerID string) error
	// CreateCustomer connects the customer to an existing store.
	CreateCustomer(ctx context.Context, customer *model.Customer) error
	// CreateUtang inserts the record with its line items and payments in one
	// transaction.
	CreateUtang(ctx context.Context, utang *model.Utang) error
	MemberRole(ctx context.Context, storeID, userID string) (model.Role, error)
	MemberIDs(ctx context.Context, storeID string) ([]string, error)
	UtangStoreID(ctx context.Context, utangID string) (string, error)
	ItemStoreID(ctx context.Context, itemID string) (string, error)
	StoreExists(ctx context.Context, storeID string) (bool, error)
}

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

func (r *ledgerRepo) CreateStore(ctx context.Context, store *model.Store, ownerID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store.Members = nil
		if err := tx.Omit(clause.Associations).Create(store).Error; err != nil {
			return err
		}

		owner := model.StoreUser{UserID: ownerID, StoreID: store.ID, Role: model.RoleOwner}
		if err := tx.Omit(clause.Associations).Create(&owner).Error; err != nil {
			return err
		}
		store.Members = []model.StoreUser{owner}
		return nil
	})
	return translate(err)
}

// connectStore loads the store row so a child is attached to a store that
// exists, rather than trusting a bare foreign key.
func connectStore(tx *gorm.DB, storeID string) (*model.Store, error) {
	var store model.Store
	if err := tx.Select("id").First(&store, "id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: store %q", ErrInvalidReference, storeID)
		}
		return nil, err
	}
	return &store, nil
}

func (r *ledgerRepo) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store, err := connectStore(tx, customer.StoreID)
		if err != nil {
			return err
		}
		customer.StoreID = store.ID
		customer.Store = nil
		return tx.Omit(clause.Associations).Create(customer).Error
	})
	return translate(err)
}

func (r *ledgerRepo) CreateUtang(ctx context.Context, utang *model.Utang) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := connectStore(tx, utang.StoreID); err != nil {
			return err
		}

		var customerCount int64
		if err := tx.Model(&model.Customer{}).
			Where("id = ? AND store_id = ?", utang.CustomerID, utang.StoreID).
			Count(&customerCount).Error; err != nil {
			return err
		}
		if customerCount == 0 {
			return fmt.Errorf("%w: customer %q in store %q", ErrInvalidReference, utang.CustomerID, utang.StoreID)
		}

		if err := checkItemsInStore(tx, utang.StoreID, utang.Items); err != nil {
			return err
		}

		items, payments := utang.Items, utang.Payments
		utang.Items, utang.Payments = nil, nil
		if utang.Status == "" {
			utang.Status = model.UtangStatusUnpaid
		}
		if err := tx.Omit(clause.Associations).Create(utang).Error; err != nil {
			return err
		}

		if len(items) > 0 {
			for i := range items {
				items[i].UtangID = utang.ID
			}
			if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
				return err
			}
		}
		if len(payments) > 0 {
			for i := range payments {
				payments[i].UtangID = utang.ID
			}
			if err := tx.Omit(clause.Associations).Create(&payments).Error; err != nil {
				return err
			}
		}

		utang.Items, utang.Payments = items, payments
		return nil
	})
	return translate(err)
}

func checkItemsInStore(tx *gorm.DB, storeID string, lines []model.UtangItem) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ItemID] {
			seen[l.ItemID] = true
			ids = append(ids, l.ItemID)
		}
	}

	var found int64
	if err := tx.Model(&model.Item{}).
		Where("id IN ? AND store_id = ?", ids, storeID).
		Count(&found).Error; err != nil {
		return err
	}
	if found != int64(len(ids)) {
		return fmt.Errorf("%w: item outside store %q", ErrInvalidReference, storeID)
	}
	return nil
}

func (r *ledgerRepo) MemberRole(ctx context.Context, storeID, userID string) (model.Role, error) {
	var m model.StoreUser
	err := r.db.WithContext(ctx).
		Select("role").
		Where("store_id = ? AND user_id = ?", storeID, userID).
		First(&m).Error
	if err != nil {
		return "", translate(err)
	}
	return m.Role, nil
}

func (r *ledgerRepo) MemberIDs(ctx context.Context, storeID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.StoreUser{}).
		Where("store_id = ?", storeID).
		Pluck("user_id", &ids).Error
	return ids, translate(err)
}

func (r *ledgerRepo) UtangStoreID(ctx context.Context, utangID string) (string, error) {
	var u model.Utang
	if err := r.db.WithContext(ctx).Select("store_id").First(&u, "id = ?", utangID).Error; err != nil {
		return "", translate(err)
	}
	return u.StoreID, nil
}

func (r *ledgerRepo) ItemStoreID(ctx context.Context, itemID string) (string, error) {
	var it model.Item
	if err := r.db.WithContext(ctx).Select("store_id").First(&it, "id = ?", itemID).Error; err != nil {
		return "", translate(err)
	}
	return it.StoreID, nil
}

func (r *ledgerRepo) StoreExists(ctx context.Context, storeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Store{}).Where("id = ?", storeID).Count(&n).Error
	return n > 0, translate(err)
}
