package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"spendwise-be/internal/apperrors"
	"spendwise-be/internal/auth"
	"spendwise-be/internal/models"
	"spendwise-be/internal/services"
)

// ExpenseHandler handles the expense CRUD and statistics endpoints.
type ExpenseHandler struct {
	expenses services.ExpenseServiceProvider
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenses services.ExpenseServiceProvider) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// ExpensePayload defines the structure for create and update requests.
// Amount is a pointer so that an explicit 0 passes the required check.
type ExpensePayload struct {
	Title         string              `json:"title" validate:"required,max=100"`
	Amount        *float64            `json:"amount" validate:"required,gte=0"`
	Category      string              `json:"category" validate:"required"`
	Description   string              `json:"description" validate:"omitempty,max=500"`
	Date          *time.Time          `json:"date"`
	PaymentMethod string              `json:"paymentMethod"`
	Location      string              `json:"location" validate:"omitempty,max=100"`
	Tags          []string            `json:"tags" validate:"omitempty,dive,max=20"`
	IsRecurring   bool                `json:"isRecurring"`
	RecurringType string              `json:"recurringType"`
	Attachments   []models.Attachment `json:"attachments"`
	Status        string              `json:"status"`
}

// toExpense converts a validated payload into a model, checking the enums
// the validator tags cannot express (values containing spaces).
func (p *ExpensePayload) toExpense() (models.Expense, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return models.Expense{}, apperrors.NewValidation("title", "This field is required")
	}
	if !models.ValidCategory(p.Category) {
		return models.Expense{}, apperrors.NewValidation("category", "Unknown category")
	}
	if p.PaymentMethod != "" && !models.ValidPaymentMethod(p.PaymentMethod) {
		return models.Expense{}, apperrors.NewValidation("paymentMethod", "Unknown payment method")
	}
	if p.RecurringType != "" && !models.ValidRecurringType(p.RecurringType) {
		return models.Expense{}, apperrors.NewValidation("recurringType", "Unknown recurring type")
	}
	if p.Status != "" && !models.ValidExpenseStatus(p.Status) {
		return models.Expense{}, apperrors.NewValidation("status", "Unknown status")
	}

	expense := models.Expense{
		Title:         title,
		Amount:        *p.Amount,
		Category:      p.Category,
		Description:   p.Description,
		PaymentMethod: p.PaymentMethod,
		Location:      p.Location,
		Tags:          p.Tags,
		IsRecurring:   p.IsRecurring,
		RecurringType: p.RecurringType,
		Attachments:   p.Attachments,
		Status:        p.Status,
	}
	if p.Date != nil {
		expense.Date = *p.Date
	}
	return expense, nil
}

// Create handles the request to record a new expense for the caller.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var payload ExpensePayload
	if err := decodeAndValidate(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	expense, err := payload.toExpense()
	if err != nil {
		respondError(w, err)
		return
	}
	expense.UserID = identity.ID

	created, err := h.expenses.Create(expense)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.ID).Msg("Failed to create expense")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, "Expense created successfully", map[string]any{"expense": created})
}

// List returns one page of the caller's expenses, filtered and sorted per
// the query parameters.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	q := r.URL.Query()

	startDate, err := parseDateParam(q, "startDate")
	if err != nil {
		respondError(w, err)
		return
	}
	endDate, err := parseDateParam(q, "endDate")
	if err != nil {
		respondError(w, err)
		return
	}

	filter := services.ExpenseFilter{
		Category:  q.Get("category"),
		StartDate: startDate,
		EndDate:   endDate,
		MinAmount: parseFloatParam(q, "minAmount"),
		MaxAmount: parseFloatParam(q, "maxAmount"),
		Page:      parseIntParam(q, "page", 1),
		Limit:     parseIntParam(q, "limit", 10),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	expenses, pagination, err := h.expenses.ListForUser(identity.ID, filter)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.ID).Msg("Failed to list expenses")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]any{
		"expenses":   expenses,
		"pagination": pagination,
	})
}

// Get returns a single expense. Non-admin callers may only read their own.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	expense, err := h.authorizedExpense(r)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]any{"expense": expense})
}

// Update replaces an expense after the same ownership check as Get.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.authorizedExpense(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var payload ExpensePayload
	if err := decodeAndValidate(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	expense, err := payload.toExpense()
	if err != nil {
		respondError(w, err)
		return
	}
	expense.UserID = existing.UserID

	updated, err := h.expenses.Update(existing.ID, expense)
	if err != nil {
		log.Error().Err(err).Str("expense_id", existing.ID).Msg("Failed to update expense")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Expense updated successfully", map[string]any{"expense": updated})
}

// Delete removes an expense after the same ownership check as Get.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	expense, err := h.authorizedExpense(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.expenses.Delete(expense.ID); err != nil {
		log.Error().Err(err).Str("expense_id", expense.ID).Msg("Failed to delete expense")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Expense deleted successfully", nil)
}

// Stats returns the caller's aggregate spending view, optionally bounded by
// a date range.
func (h *ExpenseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	q := r.URL.Query()

	startDate, err := parseDateParam(q, "startDate")
	if err != nil {
		respondError(w, err)
		return
	}
	endDate, err := parseDateParam(q, "endDate")
	if err != nil {
		respondError(w, err)
		return
	}

	stats, err := h.expenses.StatsForUser(identity.ID, startDate, endDate)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.ID).Msg("Failed to compute stats")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]any{"stats": stats})
}

// authorizedExpense loads the expense from the URL and enforces the
// ownership rule: owners and admins pass, everyone else gets ErrForbidden.
// A missing record is reported as not found before any ownership check.
func (h *ExpenseHandler) authorizedExpense(r *http.Request) (models.Expense, error) {
	identity, _ := auth.IdentityFrom(r.Context())
	id := chi.URLParam(r, "id")

	expense, err := h.expenses.GetByID(id)
	if err != nil {
		return models.Expense{}, err
	}

	if expense.UserID != identity.ID && identity.Role != models.RoleAdmin {
		return models.Expense{}, apperrors.ErrForbidden
	}
	return expense, nil
}
