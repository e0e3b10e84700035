package mail

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.mailgun.net/v3"

// Mailgun sends mail through the Mailgun HTTP API using a fixed sender
// identity (noreply@<domain>).
type Mailgun struct {
	apiKey  string
	domain  string
	apiBase string
	client  *http.Client
}

// NewMailgun creates a Mailgun notifier for the given sending domain.
func NewMailgun(apiKey, domain string) *Mailgun {
	return &Mailgun{
		apiKey:  apiKey,
		domain:  domain,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *Mailgun) SendVerificationCode(ctx context.Context, email, firstname, code string) error {
	subject, text := verificationBody(firstname, code)
	return m.send(ctx, email, subject, text, "")
}

func (m *Mailgun) SendUsernameReminder(ctx context.Context, email, username string) error {
	subject, text := usernameReminderBody(username)
	return m.send(ctx, email, subject, text, "")
}

func (m *Mailgun) SendPasswordResetLink(ctx context.Context, email, link string) error {
	subject, html := passwordResetBody(link)
	return m.send(ctx, email, subject, "", html)
}

func (m *Mailgun) send(ctx context.Context, to, subject, text, html string) error {
	form := url.Values{}
	form.Set("from", "noreply@"+m.domain)
	form.Set("to", to)
	form.Set("subject", subject)
	if text != "" {
		form.Set("text", text)
	}
	if html != "" {
		form.Set("html", html)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", m.apiBase, m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailgun request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mailgun responded %d", resp.StatusCode)
	}
	return nil
}
