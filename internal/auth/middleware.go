package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"spendwise-be/internal/models"
)

// Identity is the resolved caller attached to the request context by
// RequireUser.
type Identity struct {
	ID   string
	Role string
}

type contextKey string

// identityKey is the context key for the resolved caller identity.
const identityKey = contextKey("identity")

// IdentityFrom extracts the caller identity set by RequireUser.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// UserStore is the subset of the user service the middleware needs to
// resolve a token's user id to a live account.
type UserStore interface {
	GetUserByID(id string) (models.User, error)
}

// Middleware provides the authentication and admin gates.
type Middleware struct {
	tokens *TokenManager
	users  UserStore
}

// NewMiddleware creates the authorization middleware.
func NewMiddleware(tokens *TokenManager, users UserStore) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// RequireUser extracts the bearer token, verifies it, resolves the user id to
// a live account, and attaches the identity to the request context. Requests
// without a valid token for an existing user receive 401.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "Missing authorization token")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			unauthorized(w, "Invalid authorization header")
			return
		}

		claims, err := m.tokens.Verify(parts[1])
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}

		// A token outlives account deletion; re-resolve on every request.
		user, err := m.users.GetUserByID(claims.UserID)
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, Identity{ID: user.ID, Role: user.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects callers whose resolved role is not admin. It must run
// after RequireUser.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			unauthorized(w, "Missing authorization token")
			return
		}
		if identity.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "error",
		"error":  msg,
	})
}
