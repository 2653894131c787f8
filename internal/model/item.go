package model

// Item is a product a store sells, possibly on credit.
type Item struct {
	BaseModel
	StoreID  string  `gorm:"type:varchar(36);not null;index" json:"storeId"`
	Store    *Store  `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"store,omitempty"`
	Name     string  `gorm:"type:varchar(255);not null" json:"name"`
	Category string  `gorm:"type:varchar(100);index" json:"category"`
	Price    float64 `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Stock    int     `gorm:"not null;default:0" json:"stock"`
	Unit     string  `gorm:"type:varchar(20);not null" json:"unit"`
}

func (i *Item) VisibleTo(userID string) bool { return i.Store.HasMember(userID) }

func (i *Item) StoreRef() string { return i.StoreID }
