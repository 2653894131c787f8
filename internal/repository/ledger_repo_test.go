package repository

import (
	"context"
	"errors"
	"testing"

	"go-utang-ledger/internal/model"
	"go-utang-ledger/internal/resource"
	"go-utang-ledger/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLedgerRepo_CreateStoreAddsOwner(t *testing.T) {
	db := testutil.NewDB(t)
	u1 := testutil.User(t, db, "u1@example.com")
	repo := NewLedgerRepo(db)

	store := &model.Store{Name: "Sari-sari"}
	require.NoError(t, repo.CreateStore(context.Background(), store, u1.ID))
	require.NotEmpty(t, store.ID)

	var members []model.StoreUser
	require.NoError(t, db.Where("store_id = ?", store.ID).Find(&members).Error)
	require.Len(t, members, 1)
	assert.Equal(t, u1.ID, members[0].UserID)
	assert.Equal(t, model.RoleOwner, members[0].Role)

	role, err := repo.MemberRole(context.Background(), store.ID, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, role)
}

func TestLedgerRepo_CreateStoreRollsBackWithoutMembership(t *testing.T) {
	db := testutil.NewDB(t)
	failMembership(t, db)

	err := NewLedgerRepo(db).CreateStore(context.Background(), &model.Store{Name: "Orphan"}, "u1")
	require.Error(t, err)

	var n int64
	db.Model(&model.Store{}).Count(&n)
	assert.Zero(t, n, "store must not survive a failed membership insert")
}

func TestLedgerRepo_CreateCustomerConnectsExistingStore(t *testing.T) {
	db := testutil.NewDB(t)
	u1 := testutil.User(t, db, "u1@example.com")
	store := testutil.Store(t, db, "Store A", u1)
	repo := NewLedgerRepo(db)

	c := &model.Customer{StoreID: store.ID, Name: "Ana"}
	require.NoError(t, repo.CreateCustomer(context.Background(), c))
	assert.NotEmpty(t, c.ID)

	err := repo.CreateCustomer(context.Background(), &model.Customer{StoreID: "no-such-store", Name: "Ghost"})
	assert.ErrorIs(t, err, ErrInvalidReference)

	var n int64
	db.Model(&model.Customer{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestLedgerRepo_CreateUtangWithChildren(t *testing.T) {
	db := testutil.NewDB(t)
	u1 := testutil.User(t, db, "u1@example.com")
	store := testutil.Store(t, db, "Store A", u1)
	cust := testutil.Customer(t, db, store, "Ana")
	rice := testutil.Item(t, db, store, "Rice", 50, 10)
	oil := testutil.Item(t, db, store, "Oil", 30, 10)

	utang := &model.Utang{
		StoreID: store.ID, CustomerID: cust.ID, TotalAmount: 130,
		Items: []model.UtangItem{
			{ItemID: rice.ID, Quantity: 2, UnitPrice: 50},
			{ItemID: oil.ID, Quantity: 1, UnitPrice: 30},
		},
		Payments: []model.Payment{{PayerName: "Ana", Amount: 20, PaymentMethod: model.PaymentCash}},
	}
	require.NoError(t, NewLedgerRepo(db).CreateUtang(context.Background(), utang))

	assert.Equal(t, model.UtangStatusUnpaid, utang.Status)
	require.Len(t, utang.Items, 2)
	require.Len(t, utang.Payments, 1)
	for _, li := range utang.Items {
		assert.Equal(t, utang.ID, li.UtangID)
		assert.NotEmpty(t, li.ID)
	}
	assert.False(t, utang.Payments[0].PaymentDate.IsZero())

	var stored model.Utang
	require.NoError(t, db.Preload("Items").Preload("Payments").First(&stored, "id = ?", utang.ID).Error)
	assert.Len(t, stored.Items, 2)
	assert.Len(t, stored.Payments, 1)
}

func TestLedgerRepo_CreateUtangIsAtomic(t *testing.T) {
	db := testutil.NewDB(t)
	u1 := testutil.User(t, db, "u1@example.com")
	store := testutil.Store(t, db, "Store A", u1)
	cust := testutil.Customer(t, db, store, "Ana")
	rice := testutil.Item(t, db, store, "Rice", 50, 10)

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_payments", func(tx *gorm.DB) {
		if tx.Statement.Table == "payments" {
			tx.AddError(errors.New("payment insert failed"))
		}
	}))

	utang := &model.Utang{
		StoreID: store.ID, CustomerID: cust.ID, TotalAmount: 100,
		Items:    []model.UtangItem{{ItemID: rice.ID, Quantity: 2, UnitPrice: 50}},
		Payments: []model.Payment{{PayerName: "Ana", Amount: 20, PaymentMethod: model.PaymentCash}},
	}
	require.Error(t, NewLedgerRepo(db).CreateUtang(context.Background(), utang))

	for _, m := range []any{&model.Utang{}, &model.UtangItem{}, &model.Payment{}} {
		var n int64
		db.Model(m).Count(&n)
		assert.Zero(t, n, "%T left behind", m)
	}
}

func TestLedgerRepo_CreateUtangRejectsForeignReferences(t *testing.T) {
	db := testutil.NewDB(t)
	u1 := testutil.User(t, db, "u1@example.com")
	u2 := testutil.User(t, db, "u2@example.com")
	storeA := testutil.Store(t, db, "Store A", u1)
	storeB := testutil.Store(t, db, "Store B", u2)
	custA := testutil.Customer(t, db, storeA, "Ana")
	custB := testutil.Customer(t, db, storeB, "Ben")
	itemB := testutil.Item(t, db, storeB, "Soap", 20, 4)
	repo := NewLedgerRepo(db)

	err := repo.CreateUtang(context.Background(), &model.Utang{StoreID: storeA.ID, CustomerID: custB.ID, TotalAmount: 10})
	assert.ErrorIs(t, err, ErrInvalidReference)

	err = repo.CreateUtang(context.Background(), &model.Utang{
		StoreID: storeA.ID, CustomerID: custA.ID, TotalAmount: 10,
		Items: []model.UtangItem{{ItemID: itemB.ID, Quantity: 1, UnitPrice: 20}},
	})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestLedgerRepo_DuplicateMembershipConflicts(t *testing.T) {
	db := testutil.NewDB(t)
	u1 := testutil.User(t, db, "u1@example.com")
	store := testutil.Store(t, db, "Store A", u1)

	dup := &model.StoreUser{UserID: u1.ID, StoreID: store.ID, Role: model.RoleStaff}
	err := NewRegistry(db).Delegate(resource.StoreUsers).Create(context.Background(), dup)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLedgerRepo_Lookups(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u1 := testutil.User(t, db, "u1@example.com")
	staff := testutil.User(t, db, "staff@example.com")
	outsider := testutil.User(t, db, "out@example.com")
	store := testutil.Store(t, db, "Store A", u1, staff)
	utang := testutil.Utang(t, db, testutil.Customer(t, db, store, "Ana"), 10)
	repo := NewLedgerRepo(db)

	ids, err := repo.MemberIDs(ctx, store.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{u1.ID, staff.ID}, ids)

	role, err := repo.MemberRole(ctx, store.ID, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, role)

	_, err = repo.MemberRole(ctx, store.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	storeID, err := repo.UtangStoreID(ctx, utang.ID)
	require.NoError(t, err)
	assert.Equal(t, store.ID, storeID)

	item := testutil.Item(t, db, store, "Rice", 50, 3)
	storeID, err = repo.ItemStoreID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, store.ID, storeID)
	_, err = repo.ItemStoreID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := repo.StoreExists(ctx, store.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.StoreExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func failMembership(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_membership", func(tx *gorm.DB) {
		if tx.Statement.Table == "store_users" {
			tx.AddError(errors.New("membership insert failed"))
		}
	}))
}
