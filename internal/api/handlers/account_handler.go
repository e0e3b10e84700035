package handlers

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/rs/zerolog/log"

	"github.com/roshansubedi/apphub-auth/internal/auth"
	"github.com/roshansubedi/apphub-auth/internal/services"
)

// AccountHandler handles HTTP requests for the account lifecycle.
type AccountHandler struct {
	service services.AccountProvider
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service services.AccountProvider) *AccountHandler {
	return &AccountHandler{service: service}
}

// SignupPayload defines the structure for signup requests.
type SignupPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Password  string `json:"password"`
}

func (p SignupPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Firstname, validation.Required),
		validation.Field(&p.Lastname, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

// Signup handles new account registration.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	err := h.service.Signup(r.Context(), services.SignupInput{
		Username:  payload.Username,
		Email:     payload.Email,
		Firstname: payload.Firstname,
		Lastname:  payload.Lastname,
		Password:  payload.Password,
	})
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("signup failed")
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message":  "Signup successful! Please verify your email.",
		"redirect": "email-verify.html",
	})
}

// VerifyEmailPayload defines the structure for email verification requests.
type VerifyEmailPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (p VerifyEmailPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Code, validation.Required),
	)
}

// VerifyEmail handles verification code submission.
func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var payload VerifyEmailPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), payload.Email, payload.Code); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Email verified successfully!")
}

// EmailPayload carries a single email field.
type EmailPayload struct {
	Email string `json:"email"`
}

func (p EmailPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

// ResendCode regenerates and re-sends a verification code.
func (h *AccountHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var payload EmailPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.ResendCode(r.Context(), payload.Email); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Verification code resent.")
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles credential checks and session token issuance.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	token, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		var notVerified *services.NotVerifiedError
		if errors.As(err, &notVerified) {
			respondJSON(w, http.StatusForbidden, map[string]string{
				"message":  "Email not verified",
				"redirect": "email-verify.html",
				"email":    notVerified.Email,
			})
			return
		}
		log.Warn().Err(err).Str("username", payload.Username).Msg("failed login attempt")
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"token":   token,
	})
}

// UserInfo returns the authenticated account's public details.
func (h *AccountHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.service.GetUserInfo(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"userId":    user.ID,
		"username":  user.Username,
		"firstname": user.Firstname,
	})
}

// ResetUsername emails the username to the address on file. The response is
// identical whether or not an account exists.
func (h *AccountHandler) ResetUsername(w http.ResponseWriter, r *http.Request) {
	var payload EmailPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.RequestUsernameReminder(r.Context(), payload.Email); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "If an account with that email exists, the username has been sent to it.")
}

// ResetPasswordRequestPayload defines the structure for reset requests.
type ResetPasswordRequestPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (p ResetPasswordRequestPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

// ResetPasswordRequest mails a reset link to the matching account.
func (h *AccountHandler) ResetPasswordRequest(w http.ResponseWriter, r *http.Request) {
	var payload ResetPasswordRequestPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), payload.Username, payload.Email); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Password reset link sent to your email.")
}

// ResetPasswordConfirmPayload defines the structure for reset confirmation.
type ResetPasswordConfirmPayload struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (p ResetPasswordConfirmPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.NewPassword, validation.Required),
	)
}

// ResetPasswordConfirm sets a new password using a reset token.
func (h *AccountHandler) ResetPasswordConfirm(w http.ResponseWriter, r *http.Request) {
	var payload ResetPasswordConfirmPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), payload.Token, payload.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Password has been reset successfully.")
}

// UpdatePasswordPayload defines the structure for password changes.
type UpdatePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (p UpdatePasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.CurrentPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required),
	)
}

// UpdatePassword changes the authenticated account's password.
func (h *AccountHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload UpdatePasswordPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), userID, payload.CurrentPassword, payload.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Password updated successfully.")
}

// UpdateEmailPayload defines the structure for email changes.
type UpdateEmailPayload struct {
	NewEmail string `json:"newEmail"`
}

func (p UpdateEmailPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.NewEmail, validation.Required, is.Email),
	)
}

// UpdateEmail changes the authenticated account's email address, dropping
// it back to unverified.
func (h *AccountHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload UpdateEmailPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := payload.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.UpdateEmail(r.Context(), userID, payload.NewEmail); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Email updated. Please verify your new email address.")
}

// UpdateProfilePayload defines the structure for profile updates.
type UpdateProfilePayload struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// UpdateProfile updates the authenticated account's name fields.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload UpdateProfilePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	if err := h.service.UpdateProfile(r.Context(), userID, payload.Firstname, payload.Lastname); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Profile updated successfully.")
}

// DeleteAccount permanently removes the authenticated account.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Account deleted successfully.")
}
