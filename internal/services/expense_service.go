package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendwise-be/internal/apperrors"
	"spendwise-be/internal/models"
)

// ExpenseFilter narrows and pages an expense listing.
type ExpenseFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *float64
	MaxAmount *float64
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Pagination is the page metadata returned alongside every listing.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// CategoryStat is a per-category subtotal.
type CategoryStat struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// MonthStat is a per-calendar-month subtotal. Months with no expenses are
// absent, not zero-filled.
type MonthStat struct {
	Month int     `json:"month"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// RecentExpense is the trimmed view of an expense used in stats responses.
type RecentExpense struct {
	Title    string    `json:"title"`
	Amount   float64   `json:"amount"`
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
}

// ExpenseStats is the aggregate view of a user's spending.
type ExpenseStats struct {
	TotalAmount  float64         `json:"totalAmount"`
	TotalCount   int             `json:"totalCount"`
	ByCategory   []CategoryStat  `json:"byCategory"`
	MonthlyTrend []MonthStat     `json:"monthlyTrend"`
	Recent       []RecentExpense `json:"recentExpenses"`
}

// ExpenseServiceProvider defines the interface for expense services.
type ExpenseServiceProvider interface {
	Create(expense models.Expense) (models.Expense, error)
	GetByID(id string) (models.Expense, error)
	ListForUser(userID string, filter ExpenseFilter) ([]models.Expense, Pagination, error)
	Update(id string, expense models.Expense) (models.Expense, error)
	Delete(id string) error
	StatsForUser(userID string, start, end *time.Time) (ExpenseStats, error)
}

// ExpenseService provides business logic for expense records.
type ExpenseService struct {
	db *sql.DB
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(db *sql.DB) *ExpenseService {
	return &ExpenseService{db: db}
}

// sortColumns whitelists the fields a listing can be sorted by.
var sortColumns = map[string]string{
	"date":      "date",
	"amount":    "amount",
	"title":     "title",
	"category":  "category",
	"createdAt": "created_at",
}

const expenseColumns = "id, user_id, title, amount, category, description, date, payment_method, location, tags_json, is_recurring, recurring_type, attachments_json, status, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (models.Expense, error) {
	var e models.Expense
	var tagsJSON, attachmentsJSON string
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Category, &e.Description,
		&e.Date, &e.PaymentMethod, &e.Location, &tagsJSON, &e.IsRecurring,
		&e.RecurringType, &attachmentsJSON, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.Expense{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
		return models.Expense{}, fmt.Errorf("corrupt tags for expense %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(attachmentsJSON), &e.Attachments); err != nil {
		return models.Expense{}, fmt.Errorf("corrupt attachments for expense %s: %w", e.ID, err)
	}
	return e, nil
}

// Create persists a new expense, applying field defaults.
func (s *ExpenseService) Create(expense models.Expense) (models.Expense, error) {
	expense.ID = uuid.New().String()
	applyExpenseDefaults(&expense)

	tagsJSON, attachmentsJSON, err := marshalListColumns(expense)
	if err != nil {
		return models.Expense{}, err
	}

	_, err = s.db.Exec(`
		INSERT INTO expenses (id, user_id, title, amount, category, description, date, payment_method, location, tags_json, is_recurring, recurring_type, attachments_json, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.UserID, strings.TrimSpace(expense.Title), expense.Amount,
		expense.Category, expense.Description, expense.Date, expense.PaymentMethod,
		expense.Location, tagsJSON, expense.IsRecurring, expense.RecurringType,
		attachmentsJSON, expense.Status,
	)
	if err != nil {
		return models.Expense{}, err
	}
	return s.GetByID(expense.ID)
}

// GetByID retrieves a single expense. Ownership is the caller's concern.
func (s *ExpenseService) GetByID(id string) (models.Expense, error) {
	row := s.db.QueryRow("SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	expense, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Expense{}, apperrors.ErrNotFound
		}
		return models.Expense{}, err
	}
	return expense, nil
}

// ListForUser returns one page of the user's expenses plus page metadata.
// A page past the end yields an empty list with consistent metadata.
func (s *ExpenseService) ListForUser(userID string, filter ExpenseFilter) ([]models.Expense, Pagination, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if filter.MinAmount != nil {
		where = append(where, "amount >= ?")
		args = append(args, *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		where = append(where, "amount <= ?")
		args = append(args, *filter.MaxAmount)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM expenses WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, Pagination{}, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	orderClause := buildOrderClause(filter.SortBy, filter.SortOrder)

	query := fmt.Sprintf("SELECT %s FROM expenses WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		expenseColumns, whereClause, orderClause)
	rows, err := s.db.Query(query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, Pagination{}, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, err
	}

	return expenses, buildPagination(page, limit, total), nil
}

// Update replaces the stored record with the given one, re-applying defaults.
func (s *ExpenseService) Update(id string, expense models.Expense) (models.Expense, error) {
	applyExpenseDefaults(&expense)

	tagsJSON, attachmentsJSON, err := marshalListColumns(expense)
	if err != nil {
		return models.Expense{}, err
	}

	res, err := s.db.Exec(`
		UPDATE expenses SET title = ?, amount = ?, category = ?, description = ?, date = ?,
			payment_method = ?, location = ?, tags_json = ?, is_recurring = ?, recurring_type = ?,
			attachments_json = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		strings.TrimSpace(expense.Title), expense.Amount, expense.Category, expense.Description,
		expense.Date, expense.PaymentMethod, expense.Location, tagsJSON, expense.IsRecurring,
		expense.RecurringType, attachmentsJSON, expense.Status, id,
	)
	if err != nil {
		return models.Expense{}, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return models.Expense{}, apperrors.ErrNotFound
	}
	return s.GetByID(id)
}

// Delete removes an expense record.
func (s *ExpenseService) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// StatsForUser computes the user's aggregate spending view: grand total,
// per-category subtotals (largest first), per-month subtotals for the current
// year, and the five most recent expenses. Pure read.
func (s *ExpenseService) StatsForUser(userID string, start, end *time.Time) (ExpenseStats, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if start != nil {
		where = append(where, "date >= ?")
		args = append(args, start.UTC())
	}
	if end != nil {
		where = append(where, "date <= ?")
		args = append(args, end.UTC())
	}
	whereClause := strings.Join(where, " AND ")

	var stats ExpenseStats
	err := s.db.QueryRow(
		"SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses WHERE "+whereClause, args...,
	).Scan(&stats.TotalAmount, &stats.TotalCount)
	if err != nil {
		return ExpenseStats{}, err
	}

	stats.ByCategory, err = s.categoryBreakdown(whereClause, args)
	if err != nil {
		return ExpenseStats{}, err
	}

	stats.MonthlyTrend, err = s.monthlyTotals("user_id = ?", []any{userID})
	if err != nil {
		return ExpenseStats{}, err
	}

	stats.Recent, err = s.recentExpenses(whereClause, args)
	if err != nil {
		return ExpenseStats{}, err
	}

	return stats, nil
}

func (s *ExpenseService) categoryBreakdown(whereClause string, args []any) ([]CategoryStat, error) {
	rows, err := s.db.Query(
		"SELECT category, SUM(amount), COUNT(*) FROM expenses WHERE "+whereClause+
			" GROUP BY category ORDER BY SUM(amount) DESC", args...)
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

// monthlyTotals buckets the current calendar year, window [Jan 1, next Jan 1).
// The window and the buckets are both UTC: dates are stored in UTC and
// strftime resolves months against UTC.
func (s *ExpenseService) monthlyTotals(whereClause string, args []any) ([]MonthStat, error) {
	yearStart := time.Date(time.Now().UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	query := "SELECT CAST(strftime('%m', date) AS INTEGER), SUM(amount), COUNT(*) FROM expenses WHERE " +
		whereClause + " AND date >= ? AND date < ? GROUP BY 1 ORDER BY 1"
	rows, err := s.db.Query(query, append(args, yearStart, yearEnd)...)
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

func (s *ExpenseService) recentExpenses(whereClause string, args []any) ([]RecentExpense, error) {
	rows, err := s.db.Query(
		"SELECT title, amount, category, date FROM expenses WHERE "+whereClause+
			" ORDER BY date DESC LIMIT 5", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := []RecentExpense{}
	for rows.Next() {
		var r RecentExpense
		if err := rows.Scan(&r.Title, &r.Amount, &r.Category, &r.Date); err != nil {
			return nil, err
		}
		recent = append(recent, r)
	}
	return recent, rows.Err()
}

// applyExpenseDefaults fills the optional fields. Dates are normalized to
// UTC so every stored date literal carries the same offset; range filters
// and SQLite's date functions both depend on that uniformity.
func applyExpenseDefaults(e *models.Expense) {
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	e.Date = e.Date.UTC()
	if e.PaymentMethod == "" {
		e.PaymentMethod = "Cash"
	}
	if e.RecurringType == "" {
		e.RecurringType = "monthly"
	}
	if e.Status == "" {
		e.Status = "completed"
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.Attachments == nil {
		e.Attachments = []models.Attachment{}
	}
}

func marshalListColumns(e models.Expense) (string, string, error) {
	tagsJSON, err := json.Marshal(e.Tags)
	if err != nil {
		return "", "", err
	}
	attachmentsJSON, err := json.Marshal(e.Attachments)
	if err != nil {
		return "", "", err
	}
	return string(tagsJSON), string(attachmentsJSON), nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func buildOrderClause(sortBy, sortOrder string) string {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "date"
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}

func buildPagination(page, limit, total int) Pagination {
	totalPages := (total + limit - 1) / limit
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}
