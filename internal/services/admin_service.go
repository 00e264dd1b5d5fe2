package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"spendwise-be/internal/apperrors"
	"spendwise-be/internal/models"
)

// UserFilter narrows and pages the admin user listing.
type UserFilter struct {
	Search   string // case-insensitive substring on name OR email
	Role     string
	IsActive *bool
	Page     int
	Limit    int
}

// AdminUserUpdate is a partial update of any user by an admin. Unlike
// self-service updates it may change role and active status.
type AdminUserUpdate struct {
	Name          *string
	Email         *string
	Role          *string
	IsActive      *bool
	MonthlyBudget *float64
	Currency      *string
}

// AdminExpenseFilter narrows and pages the global expense listing.
type AdminExpenseFilter struct {
	UserID    string
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// ExpenseWithOwner is an expense joined with its owner's name and email.
// Owner fields are empty for expenses whose user was deleted.
type ExpenseWithOwner struct {
	models.Expense
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail"`
}

// UserSummary is the trimmed user view shown on the dashboard.
type UserSummary struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// DashboardStats is the admin overview of the whole system.
type DashboardStats struct {
	TotalUsers         int                `json:"totalUsers"`
	ActiveUsers        int                `json:"activeUsers"`
	TotalExpenseAmount float64            `json:"totalExpenseAmount"`
	TotalExpenseCount  int                `json:"totalExpenseCount"`
	ByCategory         []CategoryStat     `json:"byCategory"`
	RecentUsers        []UserSummary      `json:"recentUsers"`
	RecentExpenses     []ExpenseWithOwner `json:"recentExpenses"`
	MonthlyTrend       []MonthStat        `json:"monthlyTrend"`
}

// AdminServiceProvider defines the interface for admin services.
type AdminServiceProvider interface {
	Dashboard() (DashboardStats, error)
	ListUsers(filter UserFilter) ([]models.User, Pagination, error)
	GetUser(id string) (models.User, error)
	UpdateUser(id string, upd AdminUserUpdate) (models.User, error)
	DeleteUser(callerID, id string) error
	ListExpenses(filter AdminExpenseFilter) ([]ExpenseWithOwner, Pagination, error)
}

// AdminService provides the oversight operations behind the admin panel.
type AdminService struct {
	db    *sql.DB
	users UserServiceProvider
}

// NewAdminService creates a new AdminService.
func NewAdminService(db *sql.DB, users UserServiceProvider) *AdminService {
	return &AdminService{db: db, users: users}
}

// Dashboard aggregates the system-wide overview.
func (s *AdminService) Dashboard() (DashboardStats, error) {
	var stats DashboardStats

	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = ?", models.RoleUser).Scan(&stats.TotalUsers)
	if err != nil {
		return DashboardStats{}, err
	}
	err = s.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = ? AND is_active = 1", models.RoleUser).Scan(&stats.ActiveUsers)
	if err != nil {
		return DashboardStats{}, err
	}
	err = s.db.QueryRow("SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses").Scan(&stats.TotalExpenseAmount, &stats.TotalExpenseCount)
	if err != nil {
		return DashboardStats{}, err
	}

	stats.ByCategory, err = s.globalCategoryBreakdown()
	if err != nil {
		return DashboardStats{}, err
	}
	stats.RecentUsers, err = s.recentUsers()
	if err != nil {
		return DashboardStats{}, err
	}
	stats.RecentExpenses, err = s.recentExpensesWithOwner()
	if err != nil {
		return DashboardStats{}, err
	}
	stats.MonthlyTrend, err = s.globalMonthlyTotals()
	if err != nil {
		return DashboardStats{}, err
	}

	return stats, nil
}

func (s *AdminService) globalCategoryBreakdown() ([]CategoryStat, error) {
	rows, err := s.db.Query("SELECT category, SUM(amount), COUNT(*) FROM expenses GROUP BY category ORDER BY SUM(amount) DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := []CategoryStat{}
	for rows.Next() {
		var c CategoryStat
		if err := rows.Scan(&c.Category, &c.Total, &c.Count); err != nil {
			return nil, err
		}
		breakdown = append(breakdown, c)
	}
	return breakdown, rows.Err()
}

func (s *AdminService) recentUsers() ([]UserSummary, error) {
	rows, err := s.db.Query("SELECT name, email, created_at, last_login FROM users ORDER BY created_at DESC LIMIT 5")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []UserSummary{}
	for rows.Next() {
		var u UserSummary
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.Name, &u.Email, &u.CreatedAt, &lastLogin); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			u.LastLogin = &lastLogin.Time
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *AdminService) recentExpensesWithOwner() ([]ExpenseWithOwner, error) {
	rows, err := s.db.Query(expenseWithOwnerQuery + " ORDER BY e.date DESC LIMIT 5")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExpensesWithOwner(rows)
}

// globalMonthlyTotals buckets the current calendar year across all users,
// window [Jan 1, next Jan 1) in UTC, same as the per-user variant.
func (s *AdminService) globalMonthlyTotals() ([]MonthStat, error) {
	yearStart := time.Date(time.Now().UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	rows, err := s.db.Query(
		"SELECT CAST(strftime('%m', date) AS INTEGER), SUM(amount), COUNT(*) FROM expenses WHERE date >= ? AND date < ? GROUP BY 1 ORDER BY 1",
		yearStart, yearEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	months := []MonthStat{}
	for rows.Next() {
		var m MonthStat
		if err := rows.Scan(&m.Month, &m.Total, &m.Count); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// ListUsers returns one page of users matching the filter. Password hashes
// are never selected.
func (s *AdminService) ListUsers(filter UserFilter) ([]models.User, Pagination, error) {
	where := []string{"1=1"}
	args := []any{}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if filter.Role != "" {
		where = append(where, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *filter.IsActive)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, Pagination{}, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	rows, err := s.db.Query(
		"SELECT "+userColumns+" FROM users WHERE "+whereClause+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		var lastLogin sql.NullTime
		err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.MonthlyBudget,
			&user.Currency, &user.IsActive, &lastLogin, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, Pagination{}, err
		}
		if lastLogin.Valid {
			user.LastLogin = &lastLogin.Time
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}

	return users, buildPagination(page, limit, total), nil
}

// GetUser retrieves any user by id.
func (s *AdminService) GetUser(id string) (models.User, error) {
	return s.users.GetUserByID(id)
}

// UpdateUser applies a partial update to any user. Email collisions with
// another user fail with ErrDuplicateEmail.
func (s *AdminService) UpdateUser(id string, upd AdminUserUpdate) (models.User, error) {
	user, err := s.users.GetUserByID(id)
	if err != nil {
		return models.User{}, err
	}

	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		newEmail := models.NormalizeEmail(*upd.Email)
		if !models.ValidEmail(newEmail) {
			return models.User{}, apperrors.NewValidation("email", "Must be a valid email address")
		}
		if newEmail != user.Email {
			var other string
			err := s.db.QueryRow("SELECT id FROM users WHERE email = ? AND id != ?", newEmail, id).Scan(&other)
			if err == nil {
				return models.User{}, apperrors.ErrDuplicateEmail
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return models.User{}, err
			}
		}
		user.Email = newEmail
	}
	if upd.Role != nil {
		if !models.ValidRole(*upd.Role) {
			return models.User{}, apperrors.NewValidation("role", "Unknown role")
		}
		user.Role = *upd.Role
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}
	if upd.MonthlyBudget != nil {
		user.MonthlyBudget = *upd.MonthlyBudget
	}
	if upd.Currency != nil {
		if !models.ValidCurrency(*upd.Currency) {
			return models.User{}, apperrors.NewValidation("currency", "Unknown currency")
		}
		user.Currency = *upd.Currency
	}

	_, err = s.db.Exec(
		"UPDATE users SET name = ?, email = ?, role = ?, is_active = ?, monthly_budget = ?, currency = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		user.Name, user.Email, user.Role, user.IsActive, user.MonthlyBudget, user.Currency, id,
	)
	if err != nil {
		if isUniqueEmailViolation(err) {
			return models.User{}, apperrors.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return s.users.GetUserByID(id)
}

// DeleteUser removes any user except the calling admin themself. The user's
// expenses are left in place.
func (s *AdminService) DeleteUser(callerID, id string) error {
	if callerID == id {
		return apperrors.ErrSelfDelete
	}

	res, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const expenseWithOwnerQuery = `
	SELECT e.id, e.user_id, e.title, e.amount, e.category, e.description, e.date,
		e.payment_method, e.location, e.tags_json, e.is_recurring, e.recurring_type,
		e.attachments_json, e.status, e.created_at, e.updated_at, u.name, u.email
	FROM expenses e
	LEFT JOIN users u ON u.id = e.user_id`

func scanExpensesWithOwner(rows *sql.Rows) ([]ExpenseWithOwner, error) {
	expenses := []ExpenseWithOwner{}
	for rows.Next() {
		var e ExpenseWithOwner
		var tagsJSON, attachmentsJSON string
		var ownerName, ownerEmail sql.NullString
		err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Category, &e.Description,
			&e.Date, &e.PaymentMethod, &e.Location, &tagsJSON, &e.IsRecurring,
			&e.RecurringType, &attachmentsJSON, &e.Status, &e.CreatedAt, &e.UpdatedAt,
			&ownerName, &ownerEmail)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(attachmentsJSON), &e.Attachments); err != nil {
			return nil, err
		}
		e.OwnerName = ownerName.String
		e.OwnerEmail = ownerEmail.String
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ListExpenses returns one page of expenses across all users, each carrying
// its owner's name and email.
func (s *AdminService) ListExpenses(filter AdminExpenseFilter) ([]ExpenseWithOwner, Pagination, error) {
	where := []string{"1=1"}
	args := []any{}

	if filter.UserID != "" {
		where = append(where, "e.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Category != "" {
		where = append(where, "e.category = ?")
		args = append(args, filter.Category)
	}
	if filter.StartDate != nil {
		where = append(where, "e.date >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		where = append(where, "e.date <= ?")
		args = append(args, filter.EndDate.UTC())
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM expenses e WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, Pagination{}, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	orderClause := buildOrderClause(filter.SortBy, filter.SortOrder)

	rows, err := s.db.Query(
		expenseWithOwnerQuery+" WHERE "+whereClause+" ORDER BY e."+orderClause+" LIMIT ? OFFSET ?",
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	expenses, err := scanExpensesWithOwner(rows)
	if err != nil {
		return nil, Pagination{}, err
	}

	return expenses, buildPagination(page, limit, total), nil
}
