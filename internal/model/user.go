package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin UserRole = "admin" // администратор: скидки, отмены, сверка
	RoleStaff UserRole = "staff" // оператор: приемка, платежи, продления
)

type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Role      UserRole  `json:"role" db:"role"`
	PINHash   string    `json:"-" db:"pin_hash"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SignInInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=64"`
}

type CreateUserInput struct {
	Username string   `json:"username" validate:"required,min=3,max=50"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8,max=64"`
	Role     UserRole `json:"role" validate:"required,oneof=admin staff"`
	PIN      string   `json:"pin" validate:"required,len=4"`
}

var pinRegex = regexp.MustCompile(`^\d{4}$`)

func (u *CreateUserInput) Validate() error {
	// Проверка роли
	if u.Role != RoleAdmin && u.Role != RoleStaff {
		return fmt.Errorf("role must be admin or staff")
	}

	// PIN - ровно 4 цифры
	if !pinRegex.MatchString(u.PIN) {
		return fmt.Errorf("pin must be exactly 4 digits")
	}

	if len(u.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	if !isValidEmail(u.Email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
