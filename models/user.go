package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role определяет права пользователя
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type User struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	FullName  string    `gorm:"column:full_name;not null;size:100"`
	Email     string    `gorm:"column:email;unique;not null;size:100;index"`
	Password  string    `gorm:"column:password;not null;size:100"`
	Role      Role      `gorm:"column:role;type:varchar(20);not null;default:'staff'"`
	Branch    string    `gorm:"column:branch;size:100"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate хук для валидации перед созданием
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.FullName) < 2 || len(u.FullName) > 100 {
		return errors.New("full name must be between 2 and 100 characters")
	}
	if len(u.Email) < 3 || len(u.Email) > 100 {
		return errors.New("email must be between 3 and 100 characters")
	}
	if u.Role == RoleStaff && u.Branch == "" {
		return errors.New("staff member must belong to a branch")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin сообщает, является ли пользователь администратором
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
