package model

import (
	"time"

	"gorm.io/gorm"
)

// UtangStatusUnpaid is the status given to a new record when the client sends none.
// Status is otherwise free-form.
const UtangStatusUnpaid = "UNPAID"

// UtangStatusPaid marks a fully settled record.
const UtangStatusPaid = "PAID"

// Utang is goods given to a customer on credit.
type Utang struct {
	BaseModel
	StoreID     string      `gorm:"type:varchar(36);not null;index" json:"storeId"`
	Store       *Store      `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"store,omitempty"`
	CustomerID  string      `gorm:"type:varchar(36);not null;index" json:"customerId"`
	Customer    *Customer   `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"customer,omitempty"`
	Status      string      `gorm:"type:varchar(30);not null;default:UNPAID;index" json:"status"`
	Description string      `gorm:"type:text" json:"description"`
	TotalAmount float64     `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	DueDate     *time.Time  `json:"dueDate"`
	Items       []UtangItem `gorm:"foreignKey:UtangID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments    []Payment   `gorm:"foreignKey:UtangID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// TableName specifies the table name for GORM
func (Utang) TableName() string {
	return "utangs"
}

func (u *Utang) VisibleTo(userID string) bool { return u.Store.HasMember(userID) }

func (u *Utang) StoreRef() string { return u.StoreID }

// UtangItem is one line of an utang. UnitPrice is a snapshot taken at the
// time of the sale and does not follow later Item price changes.
type UtangItem struct {
	BaseModel
	UtangID   string  `gorm:"type:varchar(36);not null;index" json:"utangId"`
	Utang     *Utang  `gorm:"foreignKey:UtangID" json:"utang,omitempty"`
	ItemID    string  `gorm:"type:varchar(36);not null;index" json:"itemId"`
	Item      *Item   `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"item,omitempty"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
}

func (li *UtangItem) VisibleTo(userID string) bool {
	return li.Utang != nil && li.Utang.Store.HasMember(userID)
}

func (li *UtangItem) StoreRef() string {
	if li.Utang == nil {
		return ""
	}
	return li.Utang.StoreID
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentEWallet      PaymentMethod = "EWALLET"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

type Payment struct {
	BaseModel
	UtangID          string        `gorm:"type:varchar(36);not null;index" json:"utangId"`
	Utang            *Utang        `gorm:"foreignKey:UtangID" json:"utang,omitempty"`
	PayerName        string        `gorm:"type:varchar(255);not null" json:"payerName"`
	Amount           float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod    PaymentMethod `gorm:"type:varchar(20);not null;index" json:"paymentMethod"`
	PaymentReference *string       `gorm:"type:varchar(255)" json:"paymentReference"`
	PaymentDate      time.Time     `gorm:"not null" json:"paymentDate"`
}

func (p *Payment) VisibleTo(userID string) bool {
	return p.Utang != nil && p.Utang.Store.HasMember(userID)
}

func (p *Payment) StoreRef() string {
	if p.Utang == nil {
		return ""
	}
	return p.Utang.StoreID
}

// BeforeCreate stamps PaymentDate when the client did not send one.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	return p.BaseModel.BeforeCreate(tx)
}
