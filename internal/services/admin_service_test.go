package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"spendwise-be/internal/apperrors"
	"spendwise-be/internal/models"
)

type AdminServiceSuite struct {
	suite.Suite
	db       *sql.DB
	users    *UserService
	expenses *ExpenseService
	admin    *AdminService
}

func (s *AdminServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.users = NewUserService(s.db)
	s.expenses = NewExpenseService(s.db)
	s.admin = NewAdminService(s.db, s.users)
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) seedUsers() (models.User, models.User, models.User) {
	alice, err := s.users.Register("Alice", "alice@example.com", "password1")
	s.Require().NoError(err)
	bob, err := s.users.Register("Bob", "bob@example.com", "password2")
	s.Require().NoError(err)
	admin, err := s.users.EnsureAdmin("Administrator", "admin@spendwise.local", "secret")
	s.Require().NoError(err)
	return alice, bob, admin
}

func (s *AdminServiceSuite) TestDashboard() {
	alice, bob, _ := s.seedUsers()

	_, err := s.db.Exec("UPDATE users SET is_active = 0 WHERE id = ?", bob.ID)
	s.Require().NoError(err)

	year := time.Now().Year()
	for _, f := range []struct {
		userID   string
		amount   float64
		category string
		month    time.Month
	}{
		{alice.ID, 40, "Food & Dining", time.January},
		{alice.ID, 60, "Housing", time.February},
		{bob.ID, 25, "Food & Dining", time.February},
	} {
		e := testExpense(f.userID, "seed", f.amount, f.category)
		e.Date = time.Date(year, f.month, 10, 12, 0, 0, 0, time.Local)
		_, err := s.expenses.Create(e)
		s.Require().NoError(err)
	}

	stats, err := s.admin.Dashboard()
	s.Require().NoError(err)

	// The admin account does not count towards user totals.
	s.Equal(2, stats.TotalUsers)
	s.Equal(1, stats.ActiveUsers)
	s.InDelta(125, stats.TotalExpenseAmount, 0.001)
	s.Equal(3, stats.TotalExpenseCount)

	s.Require().Len(stats.ByCategory, 2)
	s.Equal("Food & Dining", stats.ByCategory[0].Category)
	s.InDelta(65, stats.ByCategory[0].Total, 0.001)

	s.Require().Len(stats.MonthlyTrend, 2)
	s.Equal(MonthStat{Month: 1, Total: 40, Count: 1}, stats.MonthlyTrend[0])
	s.Equal(MonthStat{Month: 2, Total: 85, Count: 2}, stats.MonthlyTrend[1])

	s.Len(stats.RecentUsers, 3)
	s.Len(stats.RecentExpenses, 3)
	s.NotEmpty(stats.RecentExpenses[0].OwnerEmail)
}

func (s *AdminServiceSuite) TestListUsersFilters() {
	alice, bob, _ := s.seedUsers()

	_, err := s.db.Exec("UPDATE users SET is_active = 0 WHERE id = ?", bob.ID)
	s.Require().NoError(err)

	// Case-insensitive substring on name or email.
	users, _, err := s.admin.ListUsers(UserFilter{Search: "ALI"})
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal(alice.ID, users[0].ID)

	users, _, err = s.admin.ListUsers(UserFilter{Search: "example.com"})
	s.Require().NoError(err)
	s.Len(users, 2)

	users, _, err = s.admin.ListUsers(UserFilter{Role: "admin"})
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal("admin", users[0].Role)

	active := true
	users, pagination, err := s.admin.ListUsers(UserFilter{Role: "user", IsActive: &active})
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal(alice.ID, users[0].ID)
	s.Equal(1, pagination.TotalItems)

	for _, u := range users {
		s.Empty(u.PasswordHash)
	}
}

func (s *AdminServiceSuite) TestUpdateUserCanChangeRoleAndStatus() {
	alice, _, _ := s.seedUsers()

	role := "admin"
	inactive := false
	updated, err := s.admin.UpdateUser(alice.ID, AdminUserUpdate{Role: &role, IsActive: &inactive})
	s.Require().NoError(err)

	s.Equal("admin", updated.Role)
	s.False(updated.IsActive)
	s.Equal("Alice", updated.Name)
}

func (s *AdminServiceSuite) TestUpdateUserRejectsUnknownRole() {
	alice, _, _ := s.seedUsers()

	role := "superuser"
	_, err := s.admin.UpdateUser(alice.ID, AdminUserUpdate{Role: &role})

	var verr *apperrors.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "role")
}

func (s *AdminServiceSuite) TestUpdateUserEmailConflict() {
	_, bob, _ := s.seedUsers()

	taken := "alice@example.com"
	_, err := s.admin.UpdateUser(bob.ID, AdminUserUpdate{Email: &taken})
	s.Require().ErrorIs(err, apperrors.ErrDuplicateEmail)
}

func (s *AdminServiceSuite) TestDeleteUserRejectsSelf() {
	_, _, admin := s.seedUsers()

	err := s.admin.DeleteUser(admin.ID, admin.ID)
	s.Require().ErrorIs(err, apperrors.ErrSelfDelete)

	_, err = s.users.GetUserByID(admin.ID)
	s.Require().NoError(err, "account must still be present")
}

func (s *AdminServiceSuite) TestDeleteUser() {
	alice, _, admin := s.seedUsers()

	s.Require().NoError(s.admin.DeleteUser(admin.ID, alice.ID))

	_, err := s.users.GetUserByID(alice.ID)
	s.Require().ErrorIs(err, apperrors.ErrNotFound)

	s.Require().ErrorIs(s.admin.DeleteUser(admin.ID, alice.ID), apperrors.ErrNotFound)
}

func (s *AdminServiceSuite) TestListExpensesWithOwner() {
	alice, bob, _ := s.seedUsers()

	_, err := s.expenses.Create(testExpense(alice.ID, "Coffee", 4.5, "Food & Dining"))
	s.Require().NoError(err)
	_, err = s.expenses.Create(testExpense(bob.ID, "Taxi", 12, "Transportation"))
	s.Require().NoError(err)

	all, pagination, err := s.admin.ListExpenses(AdminExpenseFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal(2, pagination.TotalItems)

	byOwner, _, err := s.admin.ListExpenses(AdminExpenseFilter{UserID: alice.ID})
	s.Require().NoError(err)
	s.Require().Len(byOwner, 1)
	s.Equal("Coffee", byOwner[0].Title)
	s.Equal("Alice", byOwner[0].OwnerName)
	s.Equal("alice@example.com", byOwner[0].OwnerEmail)

	byCategory, _, err := s.admin.ListExpenses(AdminExpenseFilter{Category: "Transportation"})
	s.Require().NoError(err)
	s.Require().Len(byCategory, 1)
	s.Equal("Taxi", byCategory[0].Title)
}

func (s *AdminServiceSuite) TestListExpensesKeepsOrphans() {
	alice, _, admin := s.seedUsers()

	_, err := s.expenses.Create(testExpense(alice.ID, "Coffee", 4.5, "Food & Dining"))
	s.Require().NoError(err)

	s.Require().NoError(s.admin.DeleteUser(admin.ID, alice.ID))

	all, _, err := s.admin.ListExpenses(AdminExpenseFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 1, "expenses survive their owner")
	s.Empty(all[0].OwnerName)
	s.Empty(all[0].OwnerEmail)
}
