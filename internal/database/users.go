package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"snapstream/internal/logging"
	"snapstream/internal/media"
	"snapstream/internal/store"
)

// Seed credentials for a fresh database, matching the offline default
// admin so demos behave the same with or without the API.
const (
	seedAdminID       = "user-admin-01"
	seedAdminName     = "Admin User"
	seedAdminEmail    = "admin@snapstream.io"
	seedAdminPassword = "password123"
)

// seedAdmin creates the default administrator when the users table is
// empty.
func (d *Database) seedAdmin(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	if err := d.db.QueryRowContext(queryCtx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	_, err = d.db.ExecContext(queryCtx,
		"INSERT INTO users (id, name, email, password_hash, role) VALUES (?, ?, ?, ?, ?)",
		seedAdminID, seedAdminName, seedAdminEmail, string(hash), media.RoleAdmin,
	)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	logging.Info("Seeded default admin account %s", seedAdminEmail)
	return nil
}

// Authenticate verifies credentials and updates last_login. Unknown
// accounts and wrong passwords both return store.ErrUnauthorized.
func (d *Database) Authenticate(ctx context.Context, email, password string) (*media.User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("authenticate", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user media.User
	var hash string
	var lastLogin sql.NullString
	err = d.db.QueryRowContext(queryCtx,
		"SELECT id, name, email, password_hash, role, mfa_enabled, last_login FROM users WHERE email = ? COLLATE NOCASE",
		strings.TrimSpace(email),
	).Scan(&user.ID, &user.Name, &user.Email, &hash, &user.Role, &user.MFAEnabled, &lastLogin)
	if err == sql.ErrNoRows {
		err = store.ErrUnauthorized
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		err = store.ErrUnauthorized
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, updateErr := d.db.ExecContext(queryCtx,
		"UPDATE users SET last_login = ? WHERE id = ?", now, user.ID); updateErr != nil {
		logging.Warn("Failed to record last login for %s: %v", user.Email, updateErr)
	}
	user.LastLogin = now
	return &user, nil
}

// CreateUser inserts a new account with a bcrypt password hash. A
// duplicate email returns store.ErrConflict.
func (d *Database) CreateUser(ctx context.Context, id, name, email, password string, role media.Role) (*media.User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_user", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	_, err = d.db.ExecContext(execCtx,
		"INSERT INTO users (id, name, email, password_hash, role) VALUES (?, ?, ?, ?, ?)",
		id, name, email, string(hash), role,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = store.ErrConflict
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &media.User{ID: id, Name: name, Email: email, Role: role}, nil
}

// ListUsers returns all accounts without credential material.
func (d *Database) ListUsers(ctx context.Context) ([]media.User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_users", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(queryCtx,
		"SELECT id, name, email, role, mfa_enabled, last_login FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []media.User{}
	for rows.Next() {
		var user media.User
		var lastLogin sql.NullString
		if err = rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.MFAEnabled, &lastLogin); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.LastLogin = lastLogin.String
		users = append(users, user)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SetPassword replaces the password hash for an existing account.
func (d *Database) SetPassword(ctx context.Context, email, password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_password", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := d.db.ExecContext(execCtx,
		"UPDATE users SET password_hash = ? WHERE email = ? COLLATE NOCASE",
		string(hash), strings.TrimSpace(email),
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = store.ErrNotFound
		return err
	}
	return nil
}

// isUniqueViolation reports whether the error is a SQLite UNIQUE or
// PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
