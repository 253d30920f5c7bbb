package user

import (
	"errors"
	"time"

	"amenpay/internal/pkg/i18n"
)

var ErrInvalidRole = errors.New("invalid role")

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupport  Role = "support"
	RoleAdmin    Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleSupport, RoleAdmin:
		return true
	default:
		return false
	}
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// User is read-only from the processing pipeline's perspective: jobs resolve
// contact details and language, never create or delete accounts.
type User struct {
	ID           int64
	Email        string
	Phone        string
	Language     i18n.Locale
	Role         Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) HasPhone() bool {
	return u.Phone != ""
}

func (u *User) HasEmail() bool {
	return u.Email != ""
}
