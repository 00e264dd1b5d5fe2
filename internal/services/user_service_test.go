package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"spendwise-be/internal/apperrors"
	"spendwise-be/internal/database"
)

// newTestDB opens a fresh in-memory database with the schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err, "failed to open test database")
	// Keep the single in-memory connection alive across the test.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

type UserServiceSuite struct {
	suite.Suite
	db    *sql.DB
	users *UserService
}

func (s *UserServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.users = NewUserService(s.db)
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) TestRegisterAppliesDefaults() {
	user, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	s.NotEmpty(user.ID)
	s.Equal("Alice", user.Name)
	s.Equal("alice@example.com", user.Email)
	s.Equal("user", user.Role)
	s.Equal(0.0, user.MonthlyBudget)
	s.Equal("USD", user.Currency)
	s.True(user.IsActive)
	s.Nil(user.LastLogin)
	s.Empty(user.PasswordHash, "hash must not be returned")
}

func (s *UserServiceSuite) TestRegisterDistinctEmailsYieldDistinctIDs() {
	first, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)
	second, err := s.users.Register("Bob", "bob@example.com", "password2")
	s.Require().NoError(err)

	s.NotEqual(first.ID, second.ID)
}

func (s *UserServiceSuite) TestRegisterNormalizesEmail() {
	user, err := s.users.Register("Alice", "  Alice@Example.COM ", "password1")
	s.Require().NoError(err)
	s.Equal("alice@example.com", user.Email)
}

func (s *UserServiceSuite) TestRegisterRejectsMalformedEmail() {
	_, err := s.users.Register("Alice", "not-an-email", "password1")

	var verr *apperrors.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "email")
}

func (s *UserServiceSuite) TestRegisterDuplicateEmailFails() {
	_, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	_, err = s.users.Register("Imposter", "ALICE@example.com", "password2")
	s.Require().ErrorIs(err, apperrors.ErrDuplicateEmail)

	var count int
	s.Require().NoError(s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	s.Equal(1, count, "no second record may be created")
}

func (s *UserServiceSuite) TestAuthenticateSuccessUpdatesLastLogin() {
	registered, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	first, err := s.users.Authenticate("alice@example.com", "password1")
	s.Require().NoError(err)
	s.Equal(registered.ID, first.ID)
	s.Require().NotNil(first.LastLogin)

	second, err := s.users.Authenticate("Alice@Example.com", "password1")
	s.Require().NoError(err)
	s.Require().NotNil(second.LastLogin)
	s.False(second.LastLogin.Before(*first.LastLogin), "lastLogin must not move backwards")
}

func (s *UserServiceSuite) TestAuthenticateFailuresAreIndistinguishable() {
	_, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	_, wrongPassword := s.users.Authenticate("alice@example.com", "nope")
	_, unknownUser := s.users.Authenticate("nobody@example.com", "password1")

	s.Require().ErrorIs(wrongPassword, apperrors.ErrInvalidCredentials)
	s.Require().ErrorIs(unknownUser, apperrors.ErrInvalidCredentials)
	s.Equal(wrongPassword.Error(), unknownUser.Error())
}

func (s *UserServiceSuite) TestAuthenticateDisabledAccount() {
	user, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	_, err = s.db.Exec("UPDATE users SET is_active = 0 WHERE id = ?", user.ID)
	s.Require().NoError(err)

	// Disabled wins regardless of password correctness.
	_, err = s.users.Authenticate("alice@example.com", "password1")
	s.Require().ErrorIs(err, apperrors.ErrAccountDisabled)

	_, err = s.users.Authenticate("alice@example.com", "wrong")
	s.Require().ErrorIs(err, apperrors.ErrAccountDisabled)
}

func (s *UserServiceSuite) TestEnsureAdminFindOrCreate() {
	created, err := s.users.EnsureAdmin("Administrator", "admin@spendwise.local", "secret")
	s.Require().NoError(err)
	s.Equal("admin", created.Role)
	s.NotNil(created.LastLogin)

	found, err := s.users.EnsureAdmin("Administrator", "admin@spendwise.local", "secret")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID, "second login must reuse the account")
}

func (s *UserServiceSuite) TestEnsureAdminPromotesExistingUser() {
	user, err := s.users.Register("Eve", "admin@spendwise.local", "password1")
	s.Require().NoError(err)
	s.Equal("user", user.Role)

	promoted, err := s.users.EnsureAdmin("Administrator", "admin@spendwise.local", "secret")
	s.Require().NoError(err)
	s.Equal(user.ID, promoted.ID)
	s.Equal("admin", promoted.Role)
}

func (s *UserServiceSuite) TestUpdateProfilePartial() {
	user, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	budget := 1500.0
	updated, err := s.users.UpdateProfile(user.ID, ProfileUpdate{MonthlyBudget: &budget})
	s.Require().NoError(err)

	s.Equal(1500.0, updated.MonthlyBudget)
	s.Equal("Alice", updated.Name, "untouched fields must survive")
	s.Equal("alice@example.com", updated.Email)
}

func (s *UserServiceSuite) TestUpdateProfileEmailConflict() {
	_, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)
	bob, err := s.users.Register("Bob", "bob@example.com", "password2")
	s.Require().NoError(err)

	taken := "alice@example.com"
	_, err = s.users.UpdateProfile(bob.ID, ProfileUpdate{Email: &taken})
	s.Require().ErrorIs(err, apperrors.ErrDuplicateEmail)
}

func (s *UserServiceSuite) TestUpdateProfileRejectsUnknownCurrency() {
	user, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	bogus := "DOGE"
	_, err = s.users.UpdateProfile(user.ID, ProfileUpdate{Currency: &bogus})

	var verr *apperrors.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "currency")
}

func (s *UserServiceSuite) TestUpdateProfileKeepOwnEmail() {
	user, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	same := "Alice@example.com"
	updated, err := s.users.UpdateProfile(user.ID, ProfileUpdate{Email: &same})
	s.Require().NoError(err)
	s.Equal("alice@example.com", updated.Email)
}

func (s *UserServiceSuite) TestChangePassword() {
	user, err := s.users.Register("Alice", "alice@example.com", "oldpassword")
	s.Require().NoError(err)

	err = s.users.ChangePassword(user.ID, "wrong", "newpassword")
	s.Require().ErrorIs(err, apperrors.ErrInvalidCredentials)

	s.Require().NoError(s.users.ChangePassword(user.ID, "oldpassword", "newpassword"))

	_, err = s.users.Authenticate("alice@example.com", "oldpassword")
	s.Require().ErrorIs(err, apperrors.ErrInvalidCredentials)
	_, err = s.users.Authenticate("alice@example.com", "newpassword")
	s.Require().NoError(err)
}

func (s *UserServiceSuite) TestDeleteAccountRequiresPassword() {
	user, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	err = s.users.DeleteAccount(user.ID, "wrong")
	s.Require().ErrorIs(err, apperrors.ErrInvalidCredentials)

	_, err = s.users.GetUserByID(user.ID)
	s.Require().NoError(err, "account must survive a failed confirmation")

	s.Require().NoError(s.users.DeleteAccount(user.ID, "password1"))

	_, err = s.users.GetUserByID(user.ID)
	s.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func (s *UserServiceSuite) TestDeleteAccountLeavesExpenses() {
	user, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)

	expenses := NewExpenseService(s.db)
	created, err := expenses.Create(testExpense(user.ID, "Coffee", 4.5, "Food & Dining"))
	s.Require().NoError(err)

	s.Require().NoError(s.users.DeleteAccount(user.ID, "password1"))

	// No cascade: the expense record survives its owner.
	orphan, err := expenses.GetByID(created.ID)
	s.Require().NoError(err)
	assert.Equal(s.T(), user.ID, orphan.UserID)
}
