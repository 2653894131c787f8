package model

// Role is the membership level a user holds in a store.
type Role string

const (
	RoleOwner Role = "OWNER"
	RoleStaff Role = "STAFF"
)

type Store struct {
	BaseModel
	Name    string      `gorm:"type:varchar(255);not null" json:"name"`
	Address string      `gorm:"type:text" json:"address"`
	Members []StoreUser `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// HasMember reports whether userID appears in the loaded Members.
func (s *Store) HasMember(userID string) bool {
	if s == nil || userID == "" {
		return false
	}
	for _, m := range s.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (s *Store) VisibleTo(userID string) bool { return s.HasMember(userID) }

func (s *Store) StoreRef() string { return s.ID }

// StoreUser binds a user to a store. One row per (user, store).
type StoreUser struct {
	BaseModel
	UserID  string `gorm:"type:varchar(36);not null;uniqueIndex:idx_store_users_member" json:"userId"`
	StoreID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_store_users_member;index" json:"storeId"`
	Role    Role   `gorm:"type:varchar(10);not null;default:STAFF" json:"role"`
	Store   *Store `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	User    *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for GORM
func (StoreUser) TableName() string {
	return "store_users"
}

func (m *StoreUser) VisibleTo(userID string) bool {
	return userID != "" && m.UserID == userID
}

func (m *StoreUser) StoreRef() string { return m.StoreID }
