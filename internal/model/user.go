package model

import (
	"strings"
	"time"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserView is the public shape of a user. IsAdmin is derived, not the stored flag.
type UserView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	IsAdmin   bool       `json:"isAdmin"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Normalize trims surrounding whitespace from the identifying fields.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

// Validate checks the request independently of the HTTP binding layer.
func (r RegisterRequest) Validate() error {
	if r.Username == "" || r.Email == "" || r.Password == "" {
		return NewValidationError("", "Username, email, and password are required")
	}
	if !strings.Contains(r.Email, "@") {
		return NewValidationError("email", "email must be a valid email address")
	}
	if len(r.Password) < MinPasswordLength {
		return NewValidationError("password", "Password must be at least 6 characters")
	}
	if len(r.Password) > MaxPasswordBytes {
		return NewValidationError("password", "Password must be at most 72 bytes")
	}
	return nil
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return NewValidationError("", "Email and password are required")
	}
	return nil
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// UserPatch lists the user fields that may change after registration.
type UserPatch struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	IsAdmin  *bool   `json:"isAdmin,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.IsAdmin == nil
}

// Validate rejects blank identifiers.
func (p UserPatch) Validate() error {
	if p.Username != nil && strings.TrimSpace(*p.Username) == "" {
		return NewValidationError("username", "username cannot be empty")
	}
	if p.Email != nil && !strings.Contains(*p.Email, "@") {
		return NewValidationError("email", "email must be a valid email address")
	}
	return nil
}

// Apply copies the set fields onto u.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
}

// Allowlist holds the configured admin email addresses.
type Allowlist []string

// NewAllowlist drops blank entries and surrounding whitespace.
func NewAllowlist(emails []string) Allowlist {
	out := make(Allowlist, 0, len(emails))
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Contains matches email case-insensitively.
func (a Allowlist) Contains(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, e := range a {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// IsAdmin is true when the stored flag is set or the email is allow-listed.
// It is evaluated per request and never cached in a token.
func IsAdmin(u *User, allowlist Allowlist) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin || allowlist.Contains(u.Email)
}

// NewUserView builds the response shape for u.
func NewUserView(u *User, allowlist Allowlist) UserView {
	v := UserView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  IsAdmin(u, allowlist),
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt
		v.CreatedAt = &created
	}
	return v
}
