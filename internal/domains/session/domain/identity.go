package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrAuth signals that an action needs an identity and none could be derived.
	ErrAuth           = errors.New("authentication required")
	ErrEmptyEmail     = errors.New("email is required")
	ErrInvalidEmail   = errors.New("email must contain '@'")
	ErrEmptyPassword  = errors.New("password is required")
	ErrEmptyName      = errors.New("name is required")
	ErrEmptyPhone     = errors.New("phone number is required")
	ErrMissingSubject = errors.New("credential carries no subject identifier")
)

// Identity is derived from the stored credential on demand and never persisted.
type Identity struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the credential advertised an expiry that has passed.
// The check is informational; the server stays the authority.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Credentials are the login inputs.
type Credentials struct {
	Email    string
	Password string
}

// NewCredentials trims and validates login input.
func NewCredentials(email, password string) (Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Credentials{}, ErrEmptyEmail
	}
	if strings.TrimSpace(password) == "" {
		return Credentials{}, ErrEmptyPassword
	}
	return Credentials{Email: email, Password: password}, nil
}

// Registration describes a new account.
type Registration struct {
	Email       string
	Password    string
	PhoneNumber string
	Name        string
}

// NewRegistration builds a registration ensuring required fields are present.
func NewRegistration(email, password, phoneNumber, name string) (Registration, error) {
	r := Registration{
		Email:       strings.TrimSpace(email),
		Password:    password,
		PhoneNumber: strings.TrimSpace(phoneNumber),
		Name:        strings.TrimSpace(name),
	}
	if err := r.Validate(); err != nil {
		return Registration{}, err
	}
	return r, nil
}

// Validate re-applies the registration invariants.
func (r Registration) Validate() error {
	if r.Name == "" {
		return ErrEmptyName
	}
	if r.PhoneNumber == "" {
		return ErrEmptyPhone
	}
	if r.Email == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(r.Email, "@") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(r.Password) == "" {
		return ErrEmptyPassword
	}
	return nil
}
