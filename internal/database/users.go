package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"deskbook/internal/models"

	sqlite3 "github.com/mattn/go-sqlite3"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (student_id, password, name) VALUES (?, ?, ?)`
	_, err := db.ExecContext(ctx, query, user.StudentID, user.Password, user.Name)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// EnsureUser inserts the user if missing and leaves an existing row untouched.
// Used to seed the admin account at startup.
func (db *DB) EnsureUser(ctx context.Context, user *models.User) error {
	query := `INSERT OR IGNORE INTO users (student_id, password, name) VALUES (?, ?, ?)`
	_, err := db.ExecContext(ctx, query, user.StudentID, user.Password, user.Name)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// FindUser matches both student id and password in one query, so a failed
// lookup never reveals which of the two was wrong.
func (db *DB) FindUser(ctx context.Context, studentID, password string) (*models.User, error) {
	query := `SELECT student_id, password, name FROM users WHERE student_id = ? AND password = ?`
	var user models.User
	err := db.QueryRowContext(ctx, query, studentID, password).Scan(
		&user.StudentID, &user.Password, &user.Name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT student_id, password, name FROM users ORDER BY student_id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.StudentID, &user.Password, &user.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
