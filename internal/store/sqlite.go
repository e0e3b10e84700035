package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/roshansubedi/apphub-auth/internal/models"
)

// SQLite is a UserStore backed by an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed user store.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

const userColumns = "id, firstname, lastname, email, username, password_hash, is_verified, verification_code, verification_expires, created_at"

// utc normalizes an optional timestamp to UTC before binding. Timestamps are
// stored as text and compared lexicographically, so they must share a zone
// with CURRENT_TIMESTAMP (which is UTC).
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Create inserts a new user record.
func (s *SQLite) Create(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, firstname, lastname, email, username, password_hash, is_verified, verification_code, verification_expires)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Firstname, user.Lastname, user.Email, user.Username,
		user.PasswordHash, user.IsVerified, user.VerificationCode, utc(user.VerificationExpires))
	return translateErr(err)
}

// GetByID retrieves a single user by their ID.
func (s *SQLite) GetByID(ctx context.Context, id string) (models.User, error) {
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByEmail retrieves a single user by their email.
func (s *SQLite) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

// GetByUsername retrieves a single user by their username.
func (s *SQLite) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

// GetByUsernameAndEmail retrieves the user matching both username and email.
func (s *SQLite) GetByUsernameAndEmail(ctx context.Context, username, email string) (models.User, error) {
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username = ? AND email = ?", username, email)
}

func (s *SQLite) getOne(ctx context.Context, query string, args ...any) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, query, args...)
	err := row.Scan(&user.ID, &user.Firstname, &user.Lastname, &user.Email, &user.Username,
		&user.PasswordHash, &user.IsVerified, &user.VerificationCode, &user.VerificationExpires, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Update persists all mutable fields of an existing user record.
func (s *SQLite) Update(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET firstname = ?, lastname = ?, email = ?, username = ?, password_hash = ?,
		 is_verified = ?, verification_code = ?, verification_expires = ? WHERE id = ?`,
		user.Firstname, user.Lastname, user.Email, user.Username, user.PasswordHash,
		user.IsVerified, user.VerificationCode, utc(user.VerificationExpires), user.ID)
	if err != nil {
		return translateErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user record.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PruneExpiredCodes clears expired verification codes on unverified accounts.
func (s *SQLite) PruneExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET verification_code = NULL, verification_expires = NULL
		 WHERE is_verified = 0 AND verification_expires IS NOT NULL AND verification_expires < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteStaleUnverified removes unverified accounts created before the cutoff.
func (s *SQLite) DeleteStaleUnverified(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM users WHERE is_verified = 0 AND created_at < ?", before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// translateErr maps SQLite unique-constraint violations to the store's
// duplicate errors. The driver exposes the violated constraint only in the
// error text, e.g. "UNIQUE constraint failed: users.email".
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	if strings.Contains(msg, "users.email") {
		return ErrDuplicateEmail
	}
	if strings.Contains(msg, "users.username") {
		return ErrDuplicateUsername
	}
	return err
}
