package model

type Customer struct {
	BaseModel
	StoreID string `gorm:"type:varchar(36);not null;index" json:"storeId"`
	Store   *Store `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"store,omitempty"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Phone   string `gorm:"type:varchar(30)" json:"phone"`
}

func (c *Customer) VisibleTo(userID string) bool { return c.Store.HasMember(userID) }

func (c *Customer) StoreRef() string { return c.StoreID }
