package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"spendwise-be/internal/apperrors"
	"spendwise-be/internal/auth"
	"spendwise-be/internal/config"
	"spendwise-be/internal/services"
)

// AuthHandler handles registration, login, and session endpoints.
type AuthHandler struct {
	users  services.UserServiceProvider
	tokens *auth.TokenManager
	cfg    *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.TokenManager, cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, cfg: cfg}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := decodeAndValidate(r, &payload); err != nil {
		respondError(w, err)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if len(payload.Name) < 2 {
		respondError(w, apperrors.NewValidation("name", "Must be at least 2 characters"))
		return
	}

	user, err := h.users.Register(payload.Name, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Registration failed")
		respondError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		respondError(w, err)
		return
	}

	user.Sanitize()
	respondSuccess(w, http.StatusCreated, "User registered successfully", map[string]any{
		"user":  user,
		"token": token,
	})
}

// Login handles user authentication and token issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeAndValidate(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		respondError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		respondError(w, err)
		return
	}

	user.Sanitize()
	respondSuccess(w, http.StatusOK, "Login successful", map[string]any{
		"user":  user,
		"token": token,
	})
}

// AdminLogin validates the submitted credentials against the fixed operator
// credentials from configuration, then finds or creates the admin account.
// The comparison is plaintext-to-plaintext, unlike normal login.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeAndValidate(r, &payload); err != nil {
		respondError(w, err)
		return
	}

	if payload.Email != h.cfg.AdminEmail || payload.Password != h.cfg.AdminPassword {
		log.Warn().Str("email", payload.Email).Msg("Failed admin login attempt")
		respondError(w, apperrors.ErrInvalidCredentials)
		return
	}

	user, err := h.users.EnsureAdmin("Administrator", h.cfg.AdminEmail, h.cfg.AdminPassword)
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve admin account")
		respondError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		respondError(w, err)
		return
	}

	user.Sanitize()
	respondSuccess(w, http.StatusOK, "Admin login successful", map[string]any{
		"user":  user,
		"token": token,
	})
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		respondError(w, apperrors.ErrForbidden)
		return
	}

	user, err := h.users.GetUserByID(identity.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	user.Sanitize()
	respondSuccess(w, http.StatusOK, "", map[string]any{"user": user})
}

// Logout acknowledges a logout. Tokens are not revoked server-side; they
// remain valid until expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "Logged out successfully", nil)
}
