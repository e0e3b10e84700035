package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog/log"

	"github.com/roshansubedi/apphub-auth/internal/services"
	"github.com/roshansubedi/apphub-auth/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondError maps service and store errors to HTTP statuses and client
// messages in one place. Internal detail is never echoed to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		respondMessage(w, http.StatusBadRequest, "Email already used! Please reset password.")
	case errors.Is(err, store.ErrDuplicateUsername):
		respondMessage(w, http.StatusBadRequest, "Username taken. Please try another username.")
	case errors.Is(err, store.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "User not found.")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondMessage(w, http.StatusBadRequest, "Invalid username or password")
	case errors.Is(err, services.ErrAlreadyVerified):
		respondMessage(w, http.StatusBadRequest, "User is already verified.")
	case errors.Is(err, services.ErrInvalidCode):
		respondMessage(w, http.StatusBadRequest, "Invalid verification code!")
	case errors.Is(err, services.ErrCodeExpired):
		respondMessage(w, http.StatusBadRequest, "Verification code has expired. Please request a new one.")
	case errors.Is(err, services.ErrInvalidOrExpiredToken):
		respondMessage(w, http.StatusBadRequest, "Invalid or expired token.")
	case errors.Is(err, services.ErrIncorrectPassword):
		respondMessage(w, http.StatusBadRequest, "Current password is incorrect.")
	case errors.Is(err, services.ErrMissingFields):
		respondMessage(w, http.StatusBadRequest, "Firstname and lastname are required.")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondMessage(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
