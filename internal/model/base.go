package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles the opaque string ID and timestamps shared by every table.
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID unless the caller already picked one.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	return
}

// PrimaryKey returns the row id.
func (base *BaseModel) PrimaryKey() string { return base.ID }

// Record is implemented by every resource row served through the generic API.
type Record interface {
	PrimaryKey() string
	// VisibleTo evaluates store membership against relations that were
	// already loaded for the access check.
	VisibleTo(userID string) bool
	// StoreRef returns the owning store id when it is known from the row.
	StoreRef() string
}

// Migrate creates or updates every table of the ledger.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Store{},
		&StoreUser{},
		&Customer{},
		&Item{},
		&Utang{},
		&UtangItem{},
		&Payment{},
	)
}
