package services

import (
	"context"
	"fmt"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// EmailAlerter mirrors alerts to an email address via Brevo. Best-effort:
// the pipeline logs failures and never lets them affect the terminal
// status of a delivery.
type EmailAlerter struct {
	client    *brevo.APIClient
	fromEmail string
	fromName  string
	toEmail   string
}

// NewEmailAlerter creates a Brevo-backed alerter
func NewEmailAlerter(apiKey, fromEmail, fromName, toEmail string) *EmailAlerter {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	return &EmailAlerter{
		client:    brevo.NewAPIClient(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		toEmail:   toEmail,
	}
}

// SendAlert sends the alert text to the tenant's address, falling back to
// the globally configured one. No address configured means no email.
func (a *EmailAlerter) SendAlert(ctx context.Context, subject, text, overrideTo string) error {
	to := a.toEmail
	if overrideTo != "" {
		to = overrideTo
	}
	if to == "" {
		return nil
	}

	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Email: a.fromEmail,
			Name:  a.fromName,
		},
		To:          []brevo.SendSmtpEmailTo{{Email: to}},
		Subject:     subject,
		TextContent: text,
	}

	if _, _, err := a.client.TransactionalEmailsApi.SendTransacEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}
