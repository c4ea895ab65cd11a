package email

import (
	"fmt"

	"github.com/resendlabs/resend-go"

	"github.com/resumeforge/resumeforge-backend/internal/config"
)

type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
}

func NewEmailService(cfg config.EmailConfig) *EmailService {
	return &EmailService{
		client:   resend.NewClient(cfg.APIKey),
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

// SendPaymentReceipt confirms a reconciled payment to the user. Callers
// treat failures as non-fatal.
func (s *EmailService) SendPaymentReceipt(email, fullName, sessionID string) error {
	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{email},
		Subject: "Your ResumeForge payment is confirmed",
		Html: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your payment has been received and your CV is ready to download.</p><p>Payment reference: %s</p>",
			fullName, sessionID),
	}

	if _, err := s.client.Emails.Send(params); err != nil {
		return fmt.Errorf("send receipt email: %w", err)
	}
	return nil
}
