package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"spendwise-be/internal/auth"
	"spendwise-be/internal/services"
)

// AdminHandler handles the admin panel endpoints. Every route using it sits
// behind the admin gate.
type AdminHandler struct {
	admin services.AdminServiceProvider
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin services.AdminServiceProvider) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// AdminUserUpdatePayload is a partial update of any user by an admin.
type AdminUserUpdatePayload struct {
	Name          *string  `json:"name" validate:"omitempty,min=2,max=50"`
	Email         *string  `json:"email" validate:"omitempty,email"`
	Role          *string  `json:"role" validate:"omitempty,oneof=user admin"`
	IsActive      *bool    `json:"isActive"`
	MonthlyBudget *float64 `json:"monthlyBudget" validate:"omitempty,gte=0"`
	Currency      *string  `json:"currency" validate:"omitempty,oneof=USD EUR GBP INR CAD AUD"`
}

// Dashboard returns the system-wide overview.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Dashboard()
	if err != nil {
		log.Error().Err(err).Msg("Failed to build dashboard")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]any{"dashboard": stats})
}

// ListUsers returns one page of users matching the query filters.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := services.UserFilter{
		Search:   q.Get("search"),
		Role:     q.Get("role"),
		IsActive: parseBoolParam(q, "isActive"),
		Page:     parseIntParam(q, "page", 1),
		Limit:    parseIntParam(q, "limit", 10),
	}

	users, pagination, err := h.admin.ListUsers(filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]any{
		"users":      users,
		"pagination": pagination,
	})
}

// GetUser returns any user by id.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.admin.GetUser(id)
	if err != nil {
		respondError(w, err)
		return
	}

	user.Sanitize()
	respondSuccess(w, http.StatusOK, "", map[string]any{"user": user})
}

// UpdateUser applies a partial update, which may change role and active
// status, to any user.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload AdminUserUpdatePayload
	if err := decodeAndValidate(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.admin.UpdateUser(id, services.AdminUserUpdate{
		Name:          payload.Name,
		Email:         payload.Email,
		Role:          payload.Role,
		IsActive:      payload.IsActive,
		MonthlyBudget: payload.MonthlyBudget,
		Currency:      payload.Currency,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Admin user update failed")
		respondError(w, err)
		return
	}

	user.Sanitize()
	respondSuccess(w, http.StatusOK, "User updated successfully", map[string]any{"user": user})
}

// DeleteUser removes any user except the calling admin themself.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.admin.DeleteUser(identity.ID, id); err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Admin user deletion failed")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "User deleted successfully", nil)
}

// ListExpenses returns one page of expenses across all users, each carrying
// its owner's name and email.
func (h *AdminHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
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

	filter := services.AdminExpenseFilter{
		UserID:    q.Get("userId"),
		Category:  q.Get("category"),
		StartDate: startDate,
		EndDate:   endDate,
		Page:      parseIntParam(q, "page", 1),
		Limit:     parseIntParam(q, "limit", 10),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	expenses, pagination, err := h.admin.ListExpenses(filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list expenses")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "", map[string]any{
		"expenses":   expenses,
		"pagination": pagination,
	})
}
