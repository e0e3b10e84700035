package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/roshansubedi/apphub-auth/internal/auth"
	"github.com/roshansubedi/apphub-auth/internal/mail"
	"github.com/roshansubedi/apphub-auth/internal/models"
	"github.com/roshansubedi/apphub-auth/internal/store"
	"github.com/roshansubedi/apphub-auth/internal/verification"
)

// SignupInput carries the fields required to create an account.
type SignupInput struct {
	Username  string
	Email     string
	Firstname string
	Lastname  string
	Password  string
}

// AccountProvider defines the interface for account lifecycle services.
type AccountProvider interface {
	Signup(ctx context.Context, in SignupInput) error
	VerifyEmail(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	Login(ctx context.Context, username, password string) (string, error)
	GetUserInfo(ctx context.Context, userID string) (models.User, error)
	RequestUsernameReminder(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, username, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	UpdateEmail(ctx context.Context, userID, newEmail string) error
	DeleteAccount(ctx context.Context, userID string) error
	UpdateProfile(ctx context.Context, userID, firstname, lastname string) error
}

// AccountService orchestrates the account lifecycle: signup, verification,
// login, the reset flows and profile mutations. Email sends are best-effort:
// a failure is logged and never rolls back the account mutation.
type AccountService struct {
	store    store.UserStore
	notifier mail.Notifier
	tokens   *auth.TokenService

	sessionTTL   time.Duration
	resetTTL     time.Duration
	resetURLBase string

	now func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(st store.UserStore, notifier mail.Notifier, tokens *auth.TokenService,
	sessionTTL, resetTTL time.Duration, resetURLBase string) *AccountService {
	return &AccountService{
		store:        st,
		notifier:     notifier,
		tokens:       tokens,
		sessionTTL:   sessionTTL,
		resetTTL:     resetTTL,
		resetURLBase: resetURLBase,
		now:          time.Now,
	}
}

// Signup creates a new unverified account and sends a verification code to
// its email address. Email is checked for duplicates before username; the
// store's uniqueness constraints remain the authority under races.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) error {
	if _, err := s.store.GetByEmail(ctx, in.Email); err == nil {
		return store.ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if _, err := s.store.GetByUsername(ctx, in.Username); err == nil {
		return store.ErrDuplicateUsername
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	code, err := verification.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	expires := s.now().Add(verification.CodeTTL)

	user := &models.User{
		ID:                  uuid.New().String(),
		Firstname:           in.Firstname,
		Lastname:            in.Lastname,
		Email:               in.Email,
		Username:            in.Username,
		PasswordHash:        hash,
		IsVerified:          false,
		VerificationCode:    &code,
		VerificationExpires: &expires,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return err
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, user.Firstname, code); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to send verification email")
	}
	return nil
}

// VerifyEmail transitions an account to verified when presented with a
// matching, unexpired code, and clears the code.
func (s *AccountService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if user.VerificationCode == nil || *user.VerificationCode != code {
		return ErrInvalidCode
	}
	if user.VerificationExpires != nil && s.now().After(*user.VerificationExpires) {
		return ErrCodeExpired
	}

	user.IsVerified = true
	user.VerificationCode = nil
	user.VerificationExpires = nil
	return s.store.Update(ctx, &user)
}

// ResendCode regenerates the verification code for an unverified account
// and re-sends the notification.
func (s *AccountService) ResendCode(ctx context.Context, email string) error {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	code, err := verification.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	expires := s.now().Add(verification.CodeTTL)
	user.VerificationCode = &code
	user.VerificationExpires = &expires
	if err := s.store.Update(ctx, &user); err != nil {
		return err
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, user.Firstname, code); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to send verification email")
	}
	return nil
}

// Login checks credentials and issues a session token. A missing user and a
// wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", &NotVerifiedError{Email: user.Email}
	}

	return s.tokens.Issue(user.ID, auth.PurposeSession, s.sessionTTL)
}

// GetUserInfo returns the account behind an authenticated subject id.
func (s *AccountService) GetUserInfo(ctx context.Context, userID string) (models.User, error) {
	return s.store.GetByID(ctx, userID)
}

// RequestUsernameReminder emails the username to the given address when an
// account exists. It succeeds either way so callers can return a uniform
// response that does not leak account existence.
func (s *AccountService) RequestUsernameReminder(ctx context.Context, email string) error {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.notifier.SendUsernameReminder(ctx, user.Email, user.Username); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to send username reminder")
	}
	return nil
}

// RequestPasswordReset issues a short-lived reset token for the account
// matching both username and email, and mails a link embedding it.
func (s *AccountService) RequestPasswordReset(ctx context.Context, username, email string) error {
	user, err := s.store.GetByUsernameAndEmail(ctx, username, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.Issue(user.ID, auth.PurposeReset, s.resetTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	link := s.resetURLBase + "?token=" + url.QueryEscape(token)

	if err := s.notifier.SendPasswordResetLink(ctx, user.Email, link); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to send password reset email")
	}
	return nil
}

// ConfirmPasswordReset sets a new password for the subject of a valid
// reset token.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.Validate(token, auth.PurposeReset)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	return s.store.Update(ctx, &user)
}

// UpdatePassword verifies the current password, then stores the new one.
func (s *AccountService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return ErrIncorrectPassword
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	return s.store.Update(ctx, &user)
}

// UpdateEmail changes the account email. The change requires re-verification:
// the account drops back to unverified and a fresh code goes to the new
// address.
func (s *AccountService) UpdateEmail(ctx context.Context, userID, newEmail string) error {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	code, err := verification.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	expires := s.now().Add(verification.CodeTTL)

	user.Email = newEmail
	user.IsVerified = false
	user.VerificationCode = &code
	user.VerificationExpires = &expires
	if err := s.store.Update(ctx, &user); err != nil {
		return err
	}

	if err := s.notifier.SendVerificationCode(ctx, newEmail, user.Firstname, code); err != nil {
		log.Error().Err(err).Str("email", newEmail).Msg("failed to send verification email")
	}
	return nil
}

// DeleteAccount permanently removes the account.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID)
}

// UpdateProfile updates the name fields.
func (s *AccountService) UpdateProfile(ctx context.Context, userID, firstname, lastname string) error {
	if strings.TrimSpace(firstname) == "" || strings.TrimSpace(lastname) == "" {
		return ErrMissingFields
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Firstname = firstname
	user.Lastname = lastname
	return s.store.Update(ctx, &user)
}
