package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// MinPasswordLength is the shortest accepted plain-text password.
const MinPasswordLength = 6

// User represents an account of the system
type User struct {
	id           id.ID
	name         string
	email        string
	passwordHash string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a new user. The password must already be hashed.
func NewUser(name, email, passwordHash string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.ErrInvalidInput
	}
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, errs.ErrInvalidInput
	}

	now := time.Now().UTC()
	return &User{
		id:           id.New(),
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct восстанавливает user from storage
func Reconstruct(
	userID id.ID,
	name, email, passwordHash string,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:           userID,
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errs.ErrInvalidInput
	}
	return email, nil
}

// ID returns ID user
func (u *User) ID() id.ID {
	return u.id
}

// Name returns display name
func (u *User) Name() string {
	return u.name
}

// Email returns email user
func (u *User) Email() string {
	return u.email
}

// PasswordHash returns the stored bcrypt hash
func (u *User) PasswordHash() string {
	return u.passwordHash
}

// CreatedAt returns creation time
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns last modification time
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}
