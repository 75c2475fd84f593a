package user

import (
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/utils"
)

// Role scopes what a signed-in user may reach.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleVolunteer Role = "volunteer"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleVolunteer }

// Allows reports whether a holder of r may use routes that require need.
// Administrators may use volunteer routes; the reverse is never true.
func (r Role) Allows(need Role) bool {
	if r == need {
		return true
	}
	return r == RoleAdmin && need == RoleVolunteer
}

// Collection is the store collection name for users.
const Collection = "users"

// User is an administrator or volunteer account.
type User struct {
	domain.Entity
	Email        string `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	Name         string `json:"name" validate:"max=200"`
	PasswordHash string `json:"-" validate:"required"`
	Role         Role   `json:"role" validate:"required,oneof=admin volunteer"`
}

func (User) TableName() string { return Collection }

// New creates a User with a hashed password.
func New(email, name, password string, role Role) (*User, error) {
	email = utils.NormalizeEmail(email)
	if !utils.IsEmail(email) {
		return nil, domain.NewValidationError("email", "is not a valid email address")
	}
	if len(password) < 8 {
		return nil, domain.NewValidationError("password", "must be at least 8 characters")
	}
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "must be admin or volunteer")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &User{Email: email, Name: name, PasswordHash: hash, Role: role}, nil
}

// SetPassword replaces the stored hash.
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return domain.NewValidationError("password", "must be at least 8 characters")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}
