package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a blog author. Passwords are stored as one-way hashes only.
// Users are never hard-deleted; deactivation clears IsActive.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:64;not null" json:"name"`
	Surname      string    `gorm:"size:64;not null" json:"surname"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	PasswordHash string    `gorm:"column:hashed_password;size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Posts        []Post    `gorm:"foreignKey:OwnerID" json:"posts,omitempty"`
}

// BeforeSave keeps the email column in its canonical form so lookups by token subject match.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Email != "" {
		u.Email = NormalizeEmail(u.Email)
	}
	return nil
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
