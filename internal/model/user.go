package model

import (
	"golang.org/x/crypto/bcrypt"
)

// User represents an account that can be a member of stores
type User struct {
	BaseModel
	Name         string      `gorm:"type:varchar(255)" json:"name"`
	Email        string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string      `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	TokenVersion string      `gorm:"type:varchar(64);default:''" json:"-"` // For single session enforcement
	Memberships  []StoreUser `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// VisibleTo only lets a user see their own account.
func (u *User) VisibleTo(userID string) bool {
	return userID != "" && u.ID == userID
}

func (u *User) StoreRef() string { return "" }
