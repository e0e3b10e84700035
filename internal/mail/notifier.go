// Package mail sends transactional email for account flows.
package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Notifier sends templated transactional messages to an address.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, firstname, code string) error
	SendUsernameReminder(ctx context.Context, email, username string) error
	SendPasswordResetLink(ctx context.Context, email, link string) error
}

func verificationBody(firstname, code string) (subject, text string) {
	subject = "Verify your email | AppHub"
	greeting := "Hi"
	if firstname != "" {
		greeting = "Hi " + firstname
	}
	text = fmt.Sprintf("%s,\n\nYour verification code is: %s\n\nIt will expire in 15 minutes.\n\nThank you!", greeting, code)
	return subject, text
}

func usernameReminderBody(username string) (subject, text string) {
	subject = "Your username | AppHub"
	text = fmt.Sprintf("Hi,\n\nYour username is: %s\n\nThank you!", username)
	return subject, text
}

func passwordResetBody(link string) (subject, html string) {
	subject = "Reset your password | AppHub"
	html = fmt.Sprintf(`<p>Click <a href="%s">here</a> to reset your password. The link will expire in 15 minutes.</p>`, link)
	return subject, html
}

// LogNotifier writes outbound mail to the log instead of sending it. Used
// in development when Mailgun is not configured.
type LogNotifier struct{}

func (LogNotifier) SendVerificationCode(ctx context.Context, email, firstname, code string) error {
	log.Info().Str("to", email).Str("code", code).Msg("mail disabled, verification code not sent")
	return nil
}

func (LogNotifier) SendUsernameReminder(ctx context.Context, email, username string) error {
	log.Info().Str("to", email).Str("username", username).Msg("mail disabled, username reminder not sent")
	return nil
}

func (LogNotifier) SendPasswordResetLink(ctx context.Context, email, link string) error {
	log.Info().Str("to", email).Str("link", link).Msg("mail disabled, reset link not sent")
	return nil
}
