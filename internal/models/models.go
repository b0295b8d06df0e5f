package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case "":
		return RolePatient, true
	case RoleAdmin, RolePatient, RoleProvider:
		return Role(s), true
	}
	return "", false
}

type Account struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"            json:"id"`
	Username           string     `gorm:"uniqueIndex;not null"            json:"username"`
	Email              string     `gorm:"uniqueIndex;not null"            json:"email"`
	PasswordHash       string     `gorm:"not null"                        json:"-"`
	Role               Role       `gorm:"type:varchar(16);not null"       json:"role"`
	IsActive           bool       `gorm:"not null"                        json:"isActive"`
	LoginCode          *string    `gorm:"type:varchar(16)"                json:"-"`
	LoginCodeExpiresAt *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns the id and fills the role before the first insert.
func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Role == "" {
		a.Role = RolePatient
	}
	return nil
}

// HasLoginCode reports whether a code is outstanding.
func (a *Account) HasLoginCode() bool {
	return a.LoginCode != nil && a.LoginCodeExpiresAt != nil
}
