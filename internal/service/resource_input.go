package service

import (
	"time"

	"go-utang-ledger/internal/model"
	"go-utang-ledger/internal/resource"
)

// Create payloads, one per resource kind. Fields outside these structs are
// dropped on decode.

type StoreInput struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

func (in StoreInput) model() *model.Store {
	return &model.Store{Name: in.Name, Address: in.Address}
}

type StoreUserInput struct {
	UserID  string `json:"userId" validate:"required"`
	StoreID string `json:"storeId" validate:"required"`
	Role    string `json:"role" validate:"required,oneof=OWNER STAFF"`
}

func (in StoreUserInput) model() *model.StoreUser {
	return &model.StoreUser{UserID: in.UserID, StoreID: in.StoreID, Role: model.Role(in.Role)}
}

type CustomerInput struct {
	StoreID string `json:"storeId" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
}

func (in CustomerInput) model() *model.Customer {
	return &model.Customer{StoreID: in.StoreID, Name: in.Name, Phone: in.Phone}
}

type ItemInput struct {
	StoreID  string  `json:"storeId" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category"`
	Price    float64 `json:"price" validate:"gt=0"`
	Stock    int     `json:"stock" validate:"gte=0"`
	Unit     string  `json:"unit" validate:"required"`
}

func (in ItemInput) model() *model.Item {
	return &model.Item{
		StoreID:  in.StoreID,
		Name:     in.Name,
		Category: in.Category,
		Price:    in.Price,
		Stock:    in.Stock,
		Unit:     in.Unit,
	}
}

type UtangLineInput struct {
	ItemID    string  `json:"itemId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	UnitPrice float64 `json:"unitPrice" validate:"gt=0"`
}

type PaymentLineInput struct {
	PayerName        string     `json:"payerName" validate:"required"`
	Amount           float64    `json:"amount" validate:"gt=0"`
	PaymentMethod    string     `json:"paymentMethod" validate:"required,oneof=CASH EWALLET BANK_TRANSFER"`
	PaymentReference *string    `json:"paymentReference"`
	PaymentDate      *time.Time `json:"paymentDate"`
}

func (in PaymentLineInput) model(utangID string) model.Payment {
	p := model.Payment{
		UtangID:          utangID,
		PayerName:        in.PayerName,
		Amount:           in.Amount,
		PaymentMethod:    model.PaymentMethod(in.PaymentMethod),
		PaymentReference: in.PaymentReference,
	}
	if in.PaymentDate != nil {
		p.PaymentDate = *in.PaymentDate
	}
	return p
}

type UtangInput struct {
	StoreID     string             `json:"storeId" validate:"required"`
	CustomerID  string             `json:"customerId" validate:"required"`
	Status      string             `json:"status"`
	Description string             `json:"description"`
	TotalAmount float64            `json:"totalAmount" validate:"gt=0"`
	DueDate     *time.Time         `json:"dueDate"`
	Items       []UtangLineInput   `json:"items" validate:"omitempty,dive"`
	Payments    []PaymentLineInput `json:"payments" validate:"omitempty,dive"`
}

func (in UtangInput) model() *model.Utang {
	u := &model.Utang{
		StoreID:     in.StoreID,
		CustomerID:  in.CustomerID,
		Status:      in.Status,
		Description: in.Description,
		TotalAmount: in.TotalAmount,
		DueDate:     in.DueDate,
	}
	for _, line := range in.Items {
		u.Items = append(u.Items, model.UtangItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	for _, p := range in.Payments {
		u.Payments = append(u.Payments, p.model(""))
	}
	return u
}

type UtangItemInput struct {
	UtangID string `json:"utangId" validate:"required"`
	UtangLineInput
}

func (in UtangItemInput) model() *model.UtangItem {
	return &model.UtangItem{
		UtangID:   in.UtangID,
		ItemID:    in.ItemID,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
	}
}

type PaymentInput struct {
	UtangID string `json:"utangId" validate:"required"`
	PaymentLineInput
}

// updateRules are checked against the fields present in a PATCH body.
var updateRules = map[resource.Kind]map[string]string{
	resource.Stores:     {"name": "required"},
	resource.StoreUsers: {"role": "required,oneof=OWNER STAFF"},
	resource.Customers:  {"name": "required"},
	resource.Items: {
		"name":  "required",
		"price": "gt=0",
		"stock": "gte=0",
		"unit":  "required",
	},
	resource.Utang:      {"totalAmount": "gt=0"},
	resource.UtangItems: {"quantity": "gt=0", "unitPrice": "gt=0"},
	resource.Payments: {
		"payerName":     "required",
		"amount":        "gt=0",
		"paymentMethod": "required,oneof=CASH EWALLET BANK_TRANSFER",
	},
	resource.Users: {"name": "required", "email": "required,email"},
}
