package resource

import "fmt"

// Kind is one of the fixed resource collections exposed under /api/{resource}.
type Kind string

const (
	Stores     Kind = "stores"
	StoreUsers Kind = "store_users"
	Customers  Kind = "customers"
	Items      Kind = "items"
	Utang      Kind = "utang"
	UtangItems Kind = "utang_items"
	Payments   Kind = "payments"
	Users      Kind = "user"
)

// Kinds lists every allowed resource in a stable order.
var Kinds = []Kind{Stores, StoreUsers, Customers, Items, Utang, UtangItems, Payments, Users}

// OwnerPath describes how a row reaches the store-membership table.
// Exactly one of Self, StoreColumn or Parent is set.
type OwnerPath struct {
	// Self compares a column of the row directly with the user id.
	Self string
	// StoreColumn holds the owning store id on the row itself.
	StoreColumn string
	// Parent reaches the store through one more table.
	Parent *ParentHop
}

// ParentHop is a single foreign-key hop to a table that carries the store id.
type ParentHop struct {
	Column      string // foreign key on the row
	Table       string // parent table
	StoreColumn string // store id column on the parent
}

// Descriptor holds the per-kind behaviour used by the query translator,
// the access filter and the storage delegates.
type Descriptor struct {
	Kind  Kind
	Table string
	Owner OwnerPath

	// Search lists the text columns matched by the `q` parameter.
	Search []string
	// Equals maps equality-filter query keys to columns.
	Equals map[string]string
	// Sortable maps JSON field names accepted by `_sort` to columns.
	Sortable map[string]string
	// Updatable maps JSON field names a PATCH may change to columns.
	Updatable map[string]string

	// AccessPreload is the relation chain needed for a point access check.
	AccessPreload string
	// Include lists the relations returned with a single record.
	Include []string
}

var baseSortable = map[string]string{
	"id":        "id",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func sortable(extra map[string]string) map[string]string {
	out := make(map[string]string, len(baseSortable)+len(extra))
	for k, v := range baseSortable {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var viaUtang = &ParentHop{Column: "utang_id", Table: "utangs", StoreColumn: "store_id"}

var descriptors = map[Kind]Descriptor{
	Stores: {
		Kind:          Stores,
		Table:         "stores",
		Owner:         OwnerPath{StoreColumn: "id"},
		Search:        []string{"name"},
		Sortable:      sortable(map[string]string{"name": "name"}),
		Updatable:     map[string]string{"name": "name", "address": "address"},
		AccessPreload: "Members",
	},
	StoreUsers: {
		Kind:  StoreUsers,
		Table: "store_users",
		Owner: OwnerPath{Self: "user_id"},
		Equals: map[string]string{
			"storeId": "store_id",
			"userId":  "user_id",
			"role":    "role",
		},
		Sortable:  sortable(map[string]string{"role": "role"}),
		Updatable: map[string]string{"role": "role"},
		Include:   []string{"Store"},
	},
	Customers: {
		Kind:          Customers,
		Table:         "customers",
		Owner:         OwnerPath{StoreColumn: "store_id"},
		Search:        []string{"name", "phone"},
		Equals:        map[string]string{"storeId": "store_id"},
		Sortable:      sortable(map[string]string{"name": "name", "phone": "phone"}),
		Updatable:     map[string]string{"name": "name", "phone": "phone"},
		AccessPreload: "Store.Members",
	},
	Items: {
		Kind:   Items,
		Table:  "items",
		Owner:  OwnerPath{StoreColumn: "store_id"},
		Search: []string{"name", "category"},
		Equals: map[string]string{"storeId": "store_id", "category": "category"},
		Sortable: sortable(map[string]string{
			"name": "name", "category": "category", "price": "price", "stock": "stock",
		}),
		Updatable: map[string]string{
			"name": "name", "category": "category", "price": "price", "stock": "stock", "unit": "unit",
		},
		AccessPreload: "Store.Members",
	},
	Utang: {
		Kind:   Utang,
		Table:  "utangs",
		Owner:  OwnerPath{StoreColumn: "store_id"},
		Search: []string{"description"},
		Equals: map[string]string{
			"storeId":    "store_id",
			"customerId": "customer_id",
			"status":     "status",
		},
		Sortable: sortable(map[string]string{
			"status": "status", "totalAmount": "total_amount", "dueDate": "due_date",
		}),
		Updatable: map[string]string{
			"status": "status", "description": "description", "totalAmount": "total_amount", "dueDate": "due_date",
		},
		AccessPreload: "Store.Members",
		Include:       []string{"Customer", "Items", "Payments"},
	},
	UtangItems: {
		Kind:   UtangItems,
		Table:  "utang_items",
		Owner:  OwnerPath{Parent: viaUtang},
		Equals: map[string]string{"utangId": "utang_id", "itemId": "item_id"},
		Sortable: sortable(map[string]string{
			"quantity": "quantity", "unitPrice": "unit_price",
		}),
		Updatable:     map[string]string{"quantity": "quantity", "unitPrice": "unit_price"},
		AccessPreload: "Utang.Store.Members",
		Include:       []string{"Item"},
	},
	Payments: {
		Kind:   Payments,
		Table:  "payments",
		Owner:  OwnerPath{Parent: viaUtang},
		Search: []string{"payer_name", "payment_reference"},
		Equals: map[string]string{"utangId": "utang_id", "paymentMethod": "payment_method"},
		Sortable: sortable(map[string]string{
			"payerName": "payer_name", "amount": "amount", "paymentDate": "payment_date",
		}),
		Updatable: map[string]string{
			"payerName": "payer_name", "amount": "amount", "paymentMethod": "payment_method",
			"paymentReference": "payment_reference", "paymentDate": "payment_date",
		},
		AccessPreload: "Utang.Store.Members",
	},
	Users: {
		Kind:      Users,
		Table:     "users",
		Owner:     OwnerPath{Self: "id"},
		Search:    []string{"name", "email"},
		Sortable:  sortable(map[string]string{"name": "name", "email": "email"}),
		Updatable: map[string]string{"name": "name", "email": "email"},
	},
}

// IsAllowed reports whether name is one of the eight resource kinds.
func IsAllowed(name string) bool {
	_, ok := descriptors[Kind(name)]
	return ok
}

// Parse converts a path segment into a Kind. The returned value is one of
// the package constants and never aliases name.
func Parse(name string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Describe returns the descriptor of k. It panics for a kind that was not
// obtained from Parse or the constants above; that is a programming error.
func Describe(k Kind) Descriptor {
	d, ok := descriptors[k]
	if !ok {
		panic(fmt.Sprintf("resource: unregistered kind %q", string(k)))
	}
	return d
}
