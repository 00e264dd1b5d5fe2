package models

import "time"

// Categories is the fixed set of expense categories.
var Categories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Healthcare",
	"Education",
	"Housing",
	"Utilities",
	"Insurance",
	"Travel",
	"Gifts",
	"Personal Care",
	"Subscriptions",
	"Other",
}

// PaymentMethods is the fixed set of payment methods.
var PaymentMethods = []string{
	"Cash",
	"Credit Card",
	"Debit Card",
	"Bank Transfer",
	"Digital Wallet",
	"Other",
}

// Recurring intervals. Advisory only; nothing schedules recurring expenses.
var RecurringTypes = []string{"daily", "weekly", "monthly", "yearly"}

// Expense statuses.
var ExpenseStatuses = []string{"pending", "completed", "cancelled"}

// Attachment is a reference to an externally hosted file. There is no upload
// pipeline; clients supply the URL.
type Attachment struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Expense represents a single expense record owned by a user.
type Expense struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user"`
	Title         string       `json:"title"`
	Amount        float64      `json:"amount"`
	Category      string       `json:"category"`
	Description   string       `json:"description,omitempty"`
	Date          time.Time    `json:"date"`
	PaymentMethod string       `json:"paymentMethod"`
	Location      string       `json:"location,omitempty"`
	Tags          []string     `json:"tags"`
	IsRecurring   bool         `json:"isRecurring"`
	RecurringType string       `json:"recurringType"`
	Attachments   []Attachment `json:"attachments"`
	Status        string       `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ValidCategory reports whether c is one of the fixed categories.
func ValidCategory(c string) bool { return contains(Categories, c) }

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m string) bool { return contains(PaymentMethods, m) }

// ValidRecurringType reports whether t is a known recurring interval.
func ValidRecurringType(t string) bool { return contains(RecurringTypes, t) }

// ValidExpenseStatus reports whether s is a known expense status.
func ValidExpenseStatus(s string) bool { return contains(ExpenseStatuses, s) }
