package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise-be/internal/apperrors"
	"spendwise-be/internal/auth"
	"spendwise-be/internal/models"
)

type stubUserStore struct {
	users map[string]models.User
}

func (s *stubUserStore) GetUserByID(id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, apperrors.ErrNotFound
	}
	return user, nil
}

func newTestRouter(store *stubUserStore, tm *auth.TokenManager) *chi.Mux {
	mw := auth.NewMiddleware(tm, store)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireUser)
		r.Get("/protected", func(w http.ResponseWriter, req *http.Request) {
			identity, _ := auth.IdentityFrom(req.Context())
			w.Write([]byte(identity.ID + ":" + identity.Role))
		})
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)
			r.Get("/admin-only", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		})
	})
	return r
}

func doRequest(t *testing.T, router *chi.Mux, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireUserAttachesIdentity(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	store := &stubUserStore{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleUser},
	}}
	router := newTestRouter(store, tm)

	token, err := tm.Issue("u1", models.RoleUser)
	require.NoError(t, err)

	rec := doRequest(t, router, "/protected", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1:user", rec.Body.String())
}

func TestRequireUserRejectsMissingHeader(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	router := newTestRouter(&stubUserStore{users: map[string]models.User{}}, tm)

	rec := doRequest(t, router, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestRequireUserRejectsMalformedHeader(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	router := newTestRouter(&stubUserStore{users: map[string]models.User{}}, tm)

	for _, header := range []string{"Bearer", "Bearer ", "Token abc", "abc"} {
		rec := doRequest(t, router, "/protected", header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q should be rejected", header)
	}
}

func TestRequireUserRejectsBadToken(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	router := newTestRouter(&stubUserStore{users: map[string]models.User{}}, tm)

	other := auth.NewTokenManager("other-secret", time.Hour)
	token, err := other.Issue("u1", models.RoleUser)
	require.NoError(t, err)

	rec := doRequest(t, router, "/protected", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserRejectsDeletedUser(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	// Valid token, but the user no longer exists in the store.
	router := newTestRouter(&stubUserStore{users: map[string]models.User{}}, tm)

	token, err := tm.Issue("ghost", models.RoleUser)
	require.NoError(t, err)

	rec := doRequest(t, router, "/protected", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdminBlocksRegularUser(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	store := &stubUserStore{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleUser},
		"a1": {ID: "a1", Role: models.RoleAdmin},
	}}
	router := newTestRouter(store, tm)

	userToken, err := tm.Issue("u1", models.RoleUser)
	require.NoError(t, err)
	adminToken, err := tm.Issue("a1", models.RoleAdmin)
	require.NoError(t, err)

	rec := doRequest(t, router, "/admin-only", "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, "/admin-only", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminTrustsStoreRoleOverTokenRole(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	// Token claims admin, but the account was demoted since issuance.
	store := &stubUserStore{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleUser},
	}}
	router := newTestRouter(store, tm)

	token, err := tm.Issue("u1", models.RoleAdmin)
	require.NoError(t, err)

	rec := doRequest(t, router, "/admin-only", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
