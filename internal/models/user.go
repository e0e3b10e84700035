package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           string `json:"id"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never expose this to the client
	IsVerified   bool   `json:"isVerified"`

	// VerificationCode and VerificationExpires are both nil or both set:
	// set on signup, resend and email change, cleared on verification.
	VerificationCode    *string    `json:"-"`
	VerificationExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}
