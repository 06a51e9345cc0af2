package usersgorm

import (
	"time"

	"github.com/cuihairu/faultline/internal/repo/gorm/org"
)

// UserAccount is a person who reports, dispatches or resolves faults.
// PasswordHash holds a bcrypt hash and never leaves the repository layer.
type UserAccount struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	Name         string `gorm:"size:128"`
	Role         string `gorm:"size:32;index;not null"`
	ChiefdomID   *uint  `gorm:"index"`
	Chiefdom     *org.Chiefdom
	Email        string `gorm:"size:128"`
	Phone        string `gorm:"size:32"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserAccount) TableName() string { return "users" }

// ListOptions narrows ListUsers; zero values mean no filter.
type ListOptions struct {
	Role       string
	ChiefdomID uint
}
