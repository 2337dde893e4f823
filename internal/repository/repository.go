package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aplatonov-me/Bank-REST/internal/models"
	"github.com/lib/pq"
)

// Postgres error codes of interest.
const (
	pqUniqueViolation   = "23505"
	pqLockNotAvailable  = "55P03"
	pqDeadlockDetected  = "40P01"
	pqSerializationFail = "40001"
)

// Repository provides database operations
type Repository struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewRepository initializes a new repository. lockTimeout bounds the wait
// for row locks during transfers.
func NewRepository(db *sql.DB, lockTimeout time.Duration) *Repository {
	return &Repository{db: db, lockTimeout: lockTimeout}
}

// CreateUser creates a new user and grants the default USER role.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bank.users (username, email, password_hash, created_at)
		VALUES ($1, NULLIF($2, ''), $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return models.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bank.user_roles (user_id, role_id)
		SELECT $1, id FROM bank.roles WHERE name = $2`, user.ID, models.RoleUser)
	if err != nil {
		return fmt.Errorf("failed to grant default role: %w", err)
	}
	user.Roles = []string{models.RoleUser}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UserByID retrieves a user with their roles.
func (r *Repository) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findUser(ctx, "u.id = $1", id)
}

// UserByUsername retrieves a user with their roles.
func (r *Repository) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "u.username = $1", username)
}

func (r *Repository) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	var email sql.NullString
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at
		FROM bank.users u
		WHERE ` + where
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user.Email = email.String

	user.Roles, err = r.userRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) userRoles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.name
		FROM bank.roles r
		JOIN bank.user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}

// Users returns a page of users and the total count.
func (r *Repository) Users(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bank.users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, created_at
		FROM bank.users
		ORDER BY id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, total, nil
}

// DeleteUser hard-deletes a user; role links cascade.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bank.users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// AssignRole grants a named role to a user.
func (r *Repository) AssignRole(ctx context.Context, userID int64, role string) error {
	var roleID int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM bank.roles WHERE name = $1`, role).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrRoleNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find role: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO bank.user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID)
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return models.ErrRoleAlreadyAssigned
		}
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// RemoveRole revokes a named role from a user.
func (r *Repository) RemoveRole(ctx context.Context, userID int64, role string) error {
	var roleID int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM bank.roles WHERE name = $1`, role).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrRoleNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find role: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bank.user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return models.ErrRoleNotAssigned
	}
	return nil
}

func isPQError(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
