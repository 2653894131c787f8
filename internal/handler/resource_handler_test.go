package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go-utang-ledger/internal/event"
	"go-utang-ledger/internal/middleware"
	"go-utang-ledger/internal/model"
	"go-utang-ledger/internal/repository"
	"go-utang-ledger/internal/resource"
	"go-utang-ledger/internal/service"
	"go-utang-ledger/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubSessions maps bearer tokens straight to user ids.
type stubSessions map[string]string

func (s stubSessions) Resolve(_ context.Context, authHeader string) string {
	return s[strings.TrimPrefix(authHeader, "Bearer ")]
}

func (s stubSessions) ResolveToken(_ context.Context, token string) string {
	return s[token]
}

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	u1     *model.User
	u2     *model.User
	storeA *model.Store
	storeB *model.Store
	notes  *capturedChanges
}

// capturedChanges keeps every change event the service emits.
type capturedChanges struct {
	mu      sync.Mutex
	changes []event.Change
}

func (c *capturedChanges) Notify(_ context.Context, ch event.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, ch)
}

func (c *capturedChanges) all() []event.Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Change(nil), c.changes...)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	e := &testEnv{db: db, notes: &capturedChanges{}}
	e.u1 = testutil.User(t, db, "u1@example.com")
	e.u2 = testutil.User(t, db, "u2@example.com")
	e.storeA = testutil.Store(t, db, "Store A", e.u1)
	e.storeB = testutil.Store(t, db, "Store B", e.u2)

	ledger := repository.NewLedgerRepo(db)
	users := repository.NewUserRepo(db)
	resources := service.NewResourceService(repository.NewRegistry(db), ledger, users, e.notes)
	dashboard := service.NewDashboardService(repository.NewSummaryRepo(db), ledger)

	e.app = fiber.New()
	e.app.Use(middleware.Session(stubSessions{"t1": e.u1.ID, "t2": e.u2.ID}))
	api := e.app.Group("/api")
	NewDashboardHandler(dashboard).Register(api)
	NewResourceHandler(resources).Register(api)
	return e
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestList_WithoutSessionIsUnauthorizedAndSkipsStorage(t *testing.T) {
	e := newTestEnv(t)

	var queries int32
	count := func(*gorm.DB) { atomic.AddInt32(&queries, 1) }
	require.NoError(t, e.db.Callback().Query().Before("gorm:query").Register("test:count_query", count))
	require.NoError(t, e.db.Callback().Row().Before("gorm:row").Register("test:count_row", count))

	for _, k := range resource.Kinds {
		resp, _ := e.do(t, "GET", "/api/"+string(k), "", nil)
		assert.Equal(t, 401, resp.StatusCode, string(k))
	}
	assert.Zero(t, atomic.LoadInt32(&queries))
}

func TestUnknownResource(t *testing.T) {
	e := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/widgets"},
		{"POST", "/api/widgets"},
		{"GET", "/api/widgets/1"},
		{"PATCH", "/api/widgets/1"},
		{"DELETE", "/api/widgets/1"},
	} {
		resp, body := e.do(t, tc.method, tc.path, "t1", nil)
		assert.Equal(t, 404, resp.StatusCode, tc.method+" "+tc.path)
		assert.Contains(t, string(body), "Unknown resource")
	}
}

func TestOptions(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, "OPTIONS", "/api/customers", "", nil)
	assert.Equal(t, 204, resp.StatusCode)
	resp, _ = e.do(t, "OPTIONS", "/api/customers/any", "", nil)
	assert.Equal(t, 204, resp.StatusCode)
	resp, body := e.do(t, "OPTIONS", "/api/widgets", "", nil)
	assert.Equal(t, 204, resp.StatusCode)
	assert.Empty(t, body)
	resp, _ = e.do(t, "OPTIONS", "/api/widgets/1", "", nil)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestChangeEvents_OutliveTheRequest(t *testing.T) {
	e := newTestEnv(t)
	customer := testutil.Customer(t, e.db, e.storeA, "Ana")
	item := testutil.Item(t, e.db, e.storeA, "Rice", 50, 20)

	resp, _ := e.do(t, "PATCH", "/api/items/"+item.ID, "t1", map[string]interface{}{"stock": 3})
	require.Equal(t, 200, resp.StatusCode)
	resp, _ = e.do(t, "DELETE", "/api/customers/"+customer.ID, "t1", nil)
	require.Equal(t, 200, resp.StatusCode)

	// Later requests recycle the buffers the earlier path params lived in.
	filler := "/api/payments/" + strings.Repeat("z", len(customer.ID))
	for i := 0; i < 50; i++ {
		e.do(t, "GET", filler, "t1", nil)
	}

	changes := e.notes.all()
	require.Len(t, changes, 2)
	assert.Equal(t, "items", changes[0].Resource)
	assert.Equal(t, item.ID, changes[0].ID)
	assert.Equal(t, "customers", changes[1].Resource)
	assert.Equal(t, customer.ID, changes[1].ID)
}

func TestList_PaginationAndTotalCount(t *testing.T) {
	e := newTestEnv(t)
	for _, name := range []string{"Ana", "Ben", "Cora"} {
		testutil.Customer(t, e.db, e.storeA, name)
	}
	testutil.Customer(t, e.db, e.storeB, "Dario")

	resp, body := e.do(t, "GET", "/api/customers?_start=0&_end=2&_sort=name&_order=asc", "t1", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "3", resp.Header.Get("x-total-count"))
	var page []model.Customer
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page, 2)
	assert.Equal(t, "Ana", page[0].Name)

	resp, body = e.do(t, "GET", "/api/customers?page=2&perPage=2&_sort=name&_order=DESC", "t1", nil)
	require.Equal(t, 200, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page, 1)
	assert.Equal(t, "Ana", page[0].Name)

	resp, body = e.do(t, "GET", "/api/customers?_start=abc&page=-1&perPage=zero&_sort=bogus&q=ben", "t1", nil)
	require.Equal(t, 200, resp.StatusCode, "malformed paging degrades to defaults")
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page, 1)
	assert.Equal(t, "Ben", page[0].Name)
	assert.Equal(t, "1", resp.Header.Get("x-total-count"))

	resp, body = e.do(t, "GET", "/api/items", "t1", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))
	assert.Equal(t, "0", resp.Header.Get("x-total-count"))
}

func TestGet_StatusCodesAndIdempotence(t *testing.T) {
	e := newTestEnv(t)
	customer := testutil.Customer(t, e.db, e.storeA, "Ana")

	resp, _ := e.do(t, "GET", "/api/customers/missing", "t1", nil)
	assert.Equal(t, 404, resp.StatusCode)

	resp, _ = e.do(t, "GET", "/api/customers/"+customer.ID, "t2", nil)
	assert.Equal(t, 403, resp.StatusCode)

	resp, first := e.do(t, "GET", "/api/customers/"+customer.ID, "t1", nil)
	require.Equal(t, 200, resp.StatusCode)
	resp, second := e.do(t, "GET", "/api/customers/"+customer.ID, "t1", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, first, second)
}

func TestDelete_DeniedForNonMember(t *testing.T) {
	e := newTestEnv(t)
	customer := testutil.Customer(t, e.db, e.storeA, "Ana")

	resp, _ := e.do(t, "DELETE", "/api/customers/"+customer.ID, "t2", nil)
	assert.Equal(t, 403, resp.StatusCode)

	var n int64
	e.db.Model(&model.Customer{}).Where("id = ?", customer.ID).Count(&n)
	assert.EqualValues(t, 1, n)

	resp, body := e.do(t, "DELETE", "/api/customers/"+customer.ID, "t1", nil)
	require.Equal(t, 200, resp.StatusCode)
	var deleted model.Customer
	require.NoError(t, json.Unmarshal(body, &deleted))
	assert.Equal(t, customer.ID, deleted.ID)
}

func TestCreate_StoreAddsOwnerMembership(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(t, "POST", "/api/stores", "", map[string]string{"name": "Anon"})
	assert.Equal(t, 401, resp.StatusCode)

	resp, body := e.do(t, "POST", "/api/stores", "t2", map[string]string{"name": "Second Store"})
	require.Equal(t, 201, resp.StatusCode)
	var store model.Store
	require.NoError(t, json.Unmarshal(body, &store))

	resp, body = e.do(t, "GET", "/api/store_users?storeId="+store.ID, "t2", nil)
	require.Equal(t, 200, resp.StatusCode)
	var members []model.StoreUser
	require.NoError(t, json.Unmarshal(body, &members))
	require.Len(t, members, 1)
	assert.Equal(t, model.RoleOwner, members[0].Role)
	assert.Equal(t, e.u2.ID, members[0].UserID)
}

func TestCreate_NestedUtang(t *testing.T) {
	e := newTestEnv(t)
	customer := testutil.Customer(t, e.db, e.storeA, "Ana")
	rice := testutil.Item(t, e.db, e.storeA, "Rice", 50, 20)
	soap := testutil.Item(t, e.db, e.storeA, "Soap", 25, 20)

	resp, body := e.do(t, "POST", "/api/utang", "t1", map[string]interface{}{
		"storeId":     e.storeA.ID,
		"customerId":  customer.ID,
		"totalAmount": 125,
		"dueDate":     "2026-12-01T00:00:00Z",
		"items": []map[string]interface{}{
			{"itemId": rice.ID, "quantity": 2, "unitPrice": 50},
			{"itemId": soap.ID, "quantity": 1, "unitPrice": 25},
		},
		"payments": []map[string]interface{}{
			{"payerName": "Ana", "amount": 25, "paymentMethod": "CASH"},
		},
	})
	require.Equal(t, 201, resp.StatusCode, string(body))

	var utang model.Utang
	require.NoError(t, json.Unmarshal(body, &utang))
	assert.Len(t, utang.Items, 2)
	assert.Len(t, utang.Payments, 1)
	assert.Equal(t, "UNPAID", utang.Status)
	require.NotNil(t, utang.DueDate)

	resp, body = e.do(t, "GET", "/api/utang/"+utang.ID, "t1", nil)
	require.Equal(t, 200, resp.StatusCode)
	var fetched model.Utang
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Len(t, fetched.Items, 2)
	assert.Len(t, fetched.Payments, 1)
	require.NotNil(t, fetched.Customer)
	assert.Equal(t, "Ana", fetched.Customer.Name)
}

func TestCreate_ValidationAndConflict(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, "POST", "/api/customers", "t1", map[string]string{"name": "No Store"})
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, string(body), "storeId")

	resp, _ = e.do(t, "POST", "/api/customers", "t1", `{"name":`)
	assert.Equal(t, 400, resp.StatusCode)

	resp, _ = e.do(t, "POST", "/api/customers", "t2", map[string]string{"storeId": e.storeA.ID, "name": "Intruder"})
	assert.Equal(t, 403, resp.StatusCode)

	resp, _ = e.do(t, "POST", "/api/store_users", "t1", map[string]string{
		"userId": e.u1.ID, "storeId": e.storeA.ID, "role": "STAFF",
	})
	assert.Equal(t, 409, resp.StatusCode, "membership already exists")
}

func TestUpdate_PutMatchesPatch(t *testing.T) {
	e := newTestEnv(t)
	customer := testutil.Customer(t, e.db, e.storeA, "Ana")

	resp, body := e.do(t, "PATCH", "/api/customers/"+customer.ID, "t1", map[string]string{"phone": "0917"})
	require.Equal(t, 200, resp.StatusCode)
	var patched model.Customer
	require.NoError(t, json.Unmarshal(body, &patched))
	assert.Equal(t, "0917", patched.Phone)
	assert.Equal(t, "Ana", patched.Name)

	resp, body = e.do(t, "PUT", "/api/customers/"+customer.ID, "t1", map[string]string{"phone": "0918"})
	require.Equal(t, 200, resp.StatusCode)
	var put model.Customer
	require.NoError(t, json.Unmarshal(body, &put))
	assert.Equal(t, "0918", put.Phone)
	assert.Equal(t, "Ana", put.Name)

	resp, _ = e.do(t, "PATCH", "/api/customers/"+customer.ID, "t2", map[string]string{"phone": "x"})
	assert.Equal(t, 403, resp.StatusCode)
}

func TestDashboard_StoreSummary(t *testing.T) {
	e := newTestEnv(t)
	testutil.Item(t, e.db, e.storeA, "Rice", 50, 3)

	resp, _ := e.do(t, "GET", "/api/dashboard/stores/"+e.storeA.ID+"/summary", "t2", nil)
	assert.Equal(t, 403, resp.StatusCode)

	resp, _ = e.do(t, "GET", "/api/dashboard/stores/missing/summary", "t1", nil)
	assert.Equal(t, 404, resp.StatusCode)

	resp, body := e.do(t, "GET", "/api/dashboard/stores/"+e.storeA.ID+"/summary", "t1", nil)
	require.Equal(t, 200, resp.StatusCode)
	var summary repository.StoreSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.EqualValues(t, 1, summary.Items)
	assert.EqualValues(t, 1, summary.LowStockItems)
}
