package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"spendwise-be/internal/auth"
	"spendwise-be/internal/services"
)

// UserHandler handles the self-service profile endpoints.
type UserHandler struct {
	users services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider) *UserHandler {
	return &UserHandler{users: users}
}

// ProfileUpdatePayload is a partial profile update; absent fields are left
// untouched.
type ProfileUpdatePayload struct {
	Name          *string  `json:"name" validate:"omitempty,min=2,max=50"`
	Email         *string  `json:"email" validate:"omitempty,email"`
	MonthlyBudget *float64 `json:"monthlyBudget" validate:"omitempty,gte=0"`
	Currency      *string  `json:"currency" validate:"omitempty,oneof=USD EUR GBP INR CAD AUD"`
}

// ChangePasswordPayload carries a password change request.
type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// DeleteAccountPayload carries the password re-confirmation for account
// deletion.
type DeleteAccountPayload struct {
	Password string `json:"password" validate:"required"`
}

// GetProfile returns the caller's profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	user, err := h.users.GetUserByID(identity.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	user.Sanitize()
	respondSuccess(w, http.StatusOK, "", map[string]any{"user": user})
}

// UpdateProfile applies a partial update to the caller's profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var payload ProfileUpdatePayload
	if err := decodeAndValidate(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(identity.ID, services.ProfileUpdate{
		Name:          payload.Name,
		Email:         payload.Email,
		MonthlyBudget: payload.MonthlyBudget,
		Currency:      payload.Currency,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", identity.ID).Msg("Profile update failed")
		respondError(w, err)
		return
	}

	user.Sanitize()
	respondSuccess(w, http.StatusOK, "Profile updated successfully", map[string]any{"user": user})
}

// ChangePassword verifies the current password and stores a new hash.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var payload ChangePasswordPayload
	if err := decodeAndValidate(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	if err := h.users.ChangePassword(identity.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		log.Warn().Err(err).Str("user_id", identity.ID).Msg("Password change failed")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Password updated successfully", nil)
}

// DeleteAccount deletes the caller's account after password re-confirmation.
// Their expenses are left in place.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var payload DeleteAccountPayload
	if err := decodeAndValidate(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	if err := h.users.DeleteAccount(identity.ID, payload.Password); err != nil {
		log.Warn().Err(err).Str("user_id", identity.ID).Msg("Account deletion failed")
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Account deleted successfully", nil)
}
