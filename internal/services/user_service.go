package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"spendwise-be/internal/apperrors"
	"spendwise-be/internal/auth"
	"spendwise-be/internal/models"
)

// ProfileUpdate is a partial update of a user's own profile. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Name          *string
	Email         *string
	MonthlyBudget *float64
	Currency      *string
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
	Register(name, email, password string) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	EnsureAdmin(name, email, password string) (models.User, error)
	UpdateProfile(id string, upd ProfileUpdate) (models.User, error)
	ChangePassword(id, currentPassword, newPassword string) error
	DeleteAccount(id, password string) error
}

// UserService provides business logic for user accounts.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = "id, name, email, role, monthly_budget, currency, is_active, last_login, created_at, updated_at"

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.MonthlyBudget,
		&user.Currency, &user.IsActive, &lastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID. The password hash is not
// included.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperrors.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their normalized email, including
// the password hash. Used by the login path.
func (s *UserService) GetUserByEmail(email string) (models.User, error) {
	var user models.User
	var lastLogin sql.NullTime
	row := s.db.QueryRow("SELECT id, name, email, password_hash, role, monthly_budget, currency, is_active, last_login, created_at, updated_at FROM users WHERE email = ?",
		models.NormalizeEmail(email))
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.MonthlyBudget, &user.Currency, &user.IsActive, &lastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperrors.ErrNotFound
		}
		return models.User{}, err
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

// Register creates a new user account with a hashed password and defaults.
// A duplicate email fails with ErrDuplicateEmail, whether detected by the
// existence check or by the unique index when two registrations race.
func (s *UserService) Register(name, email, password string) (models.User, error) {
	email = models.NormalizeEmail(email)
	if !models.ValidEmail(email) {
		return models.User{}, apperrors.NewValidation("email", "Must be a valid email address")
	}

	var existing string
	err := s.db.QueryRow("SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	if err == nil {
		return models.User{}, apperrors.ErrDuplicateEmail
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.Exec(
		"INSERT INTO users(id, name, email, password_hash, role) VALUES(?, ?, ?, ?, ?)",
		id, strings.TrimSpace(name), email, hashed, models.RoleUser,
	)
	if err != nil {
		if isUniqueEmailViolation(err) {
			return models.User{}, apperrors.ErrDuplicateEmail
		}
		return models.User{}, err
	}

	return s.GetUserByID(id)
}

// Authenticate verifies a user's credentials and records the login time.
// A missing account and a wrong password produce the same error; a
// deactivated account fails regardless of password correctness.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.User{}, apperrors.ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if !user.IsActive {
		return models.User{}, apperrors.ErrAccountDisabled
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return models.User{}, apperrors.ErrInvalidCredentials
	}

	if err := s.touchLastLogin(user.ID); err != nil {
		return models.User{}, err
	}
	return s.GetUserByID(user.ID)
}

// EnsureAdmin finds the admin account for the given email, creating or
// promoting it as needed, and records the login time. Called after the
// operator credentials have been checked.
func (s *UserService) EnsureAdmin(name, email, password string) (models.User, error) {
	email = models.NormalizeEmail(email)

	user, err := s.GetUserByEmail(email)
	switch {
	case err == nil:
		if user.Role != models.RoleAdmin {
			if _, err := s.db.Exec("UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", models.RoleAdmin, user.ID); err != nil {
				return models.User{}, err
			}
		}
	case errors.Is(err, apperrors.ErrNotFound):
		hashed, herr := auth.HashPassword(password)
		if herr != nil {
			return models.User{}, fmt.Errorf("failed to hash password: %w", herr)
		}
		user.ID = uuid.New().String()
		_, err = s.db.Exec(
			"INSERT INTO users(id, name, email, password_hash, role) VALUES(?, ?, ?, ?, ?)",
			user.ID, name, email, hashed, models.RoleAdmin,
		)
		if err != nil {
			return models.User{}, err
		}
	default:
		return models.User{}, err
	}

	if err := s.touchLastLogin(user.ID); err != nil {
		return models.User{}, err
	}
	return s.GetUserByID(user.ID)
}

// UpdateProfile applies a partial update to the user's own profile. Changing
// the email to one held by another user fails with ErrDuplicateEmail.
func (s *UserService) UpdateProfile(id string, upd ProfileUpdate) (models.User, error) {
	user, err := s.GetUserByID(id)
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
		"UPDATE users SET name = ?, email = ?, monthly_budget = ?, currency = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		user.Name, user.Email, user.MonthlyBudget, user.Currency, id,
	)
	if err != nil {
		if isUniqueEmailViolation(err) {
			return models.User{}, apperrors.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return s.GetUserByID(id)
}

// ChangePassword verifies the current password, then stores a hash of the
// new one.
func (s *UserService) ChangePassword(id, currentPassword, newPassword string) error {
	var hash string
	err := s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", id).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return err
	}

	if !auth.CheckPassword(currentPassword, hash) {
		return apperrors.ErrInvalidCredentials
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.db.Exec("UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", hashed, id)
	return err
}

// DeleteAccount removes the user's own account after re-confirming their
// password. The user's expenses are left in place.
func (s *UserService) DeleteAccount(id, password string) error {
	var hash string
	err := s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", id).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return err
	}

	if !auth.CheckPassword(password, hash) {
		return apperrors.ErrInvalidCredentials
	}

	_, err = s.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

func (s *UserService) touchLastLogin(id string) error {
	_, err := s.db.Exec("UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}

func isUniqueEmailViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: users.email")
}
