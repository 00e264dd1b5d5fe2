package models

import (
	"net/mail"
	"strings"
	"time"
)

// Roles a user account can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Currencies supported for the monthly budget.
var Currencies = []string{"USD", "EUR", "GBP", "INR", "CAD", "AUD"}

// User represents a user account in the system.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // Never expose this to the client
	Role          string     `json:"role"`
	MonthlyBudget float64    `json:"monthlyBudget"`
	Currency      string     `json:"currency"`
	IsActive      bool       `json:"isActive"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Sanitize clears fields that must never reach a client.
func (u *User) Sanitize() {
	u.PasswordHash = ""
}

// NormalizeEmail lowercases and trims an email address so that uniqueness
// checks and logins are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address parses as an email.
func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// ValidRole reports whether role is a known account role.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// ValidCurrency reports whether c is a supported currency code.
func ValidCurrency(c string) bool {
	for _, v := range Currencies {
		if v == c {
			return true
		}
	}
	return false
}
