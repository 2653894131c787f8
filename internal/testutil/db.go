// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"testing"

	"go-utang-ledger/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database. The pool is pinned to a
// single connection because every new SQLite memory connection is a fresh
// empty database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := model.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// User inserts an account with the given email.
func User(t testing.TB, db *gorm.DB, email string) *model.User {
	t.Helper()
	u := &model.User{Name: email, Email: email, Password: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// Store inserts a store and memberships for the given users; the first
// user becomes OWNER and the rest STAFF.
func Store(t testing.TB, db *gorm.DB, name string, members ...*model.User) *model.Store {
	t.Helper()
	s := &model.Store{Name: name}
	if err := db.Omit("Members").Create(s).Error; err != nil {
		t.Fatalf("create store %s: %v", name, err)
	}
	for i, u := range members {
		role := model.RoleStaff
		if i == 0 {
			role = model.RoleOwner
		}
		m := &model.StoreUser{UserID: u.ID, StoreID: s.ID, Role: role}
		if err := db.Omit("Store", "User").Create(m).Error; err != nil {
			t.Fatalf("create membership: %v", err)
		}
	}
	return s
}

// Customer inserts a customer under store.
func Customer(t testing.TB, db *gorm.DB, store *model.Store, name string) *model.Customer {
	t.Helper()
	c := &model.Customer{StoreID: store.ID, Name: name}
	if err := db.Omit("Store").Create(c).Error; err != nil {
		t.Fatalf("create customer %s: %v", name, err)
	}
	return c
}

// Item inserts an item under store.
func Item(t testing.TB, db *gorm.DB, store *model.Store, name string, price float64, stock int) *model.Item {
	t.Helper()
	i := &model.Item{StoreID: store.ID, Name: name, Price: price, Stock: stock, Unit: "pc"}
	if err := db.Omit("Store").Create(i).Error; err != nil {
		t.Fatalf("create item %s: %v", name, err)
	}
	return i
}

// Utang inserts a bare utang record for customer.
func Utang(t testing.TB, db *gorm.DB, customer *model.Customer, total float64) *model.Utang {
	t.Helper()
	u := &model.Utang{StoreID: customer.StoreID, CustomerID: customer.ID, Status: model.UtangStatusUnpaid, TotalAmount: total}
	if err := db.Omit("Store", "Customer", "Items", "Payments").Create(u).Error; err != nil {
		t.Fatalf("create utang: %v", err)
	}
	return u
}
