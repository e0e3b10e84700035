// Package store provides durable persistence for user accounts.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/roshansubedi/apphub-auth/internal/models"
)

var (
	// ErrNotFound means no account matched the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail means the email uniqueness constraint was violated.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrDuplicateUsername means the username uniqueness constraint was violated.
	ErrDuplicateUsername = errors.New("username already in use")
)

// UserStore is the persistence interface the account service depends on.
// Implementations must enforce uniqueness of username and email and report
// violations as ErrDuplicateUsername / ErrDuplicateEmail; the constraint,
// not any pre-check, is the authoritative safety net against races.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByUsernameAndEmail(ctx context.Context, username, email string) (models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	// PruneExpiredCodes clears code+expiry pairs whose window has passed
	// on accounts that are still unverified.
	PruneExpiredCodes(ctx context.Context, now time.Time) (int64, error)
	// DeleteStaleUnverified removes unverified accounts created before
	// the given cutoff.
	DeleteStaleUnverified(ctx context.Context, before time.Time) (int64, error)
}
