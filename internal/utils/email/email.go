package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/aplatonov-me/Bank-REST/internal/config"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendTransferReceipt sends a receipt for a completed card-to-card transfer.
// Only masked card numbers appear in the message.
func (s *Sender) SendTransferReceipt(to, username, sourceMasked, destMasked string, amount, newBalance decimal.Decimal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Transfer Notification"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"An amount of %s has been transferred from your card %s to card %s.\n"+
			"Transaction time: %s\n"+
			"Remaining balance: %s\n"+
			"\nBest regards,\nBank Service",
		username, amount.StringFixed(2), sourceMasked, destMasked,
		time.Now().Format("2006-01-02 15:04:05"), newBalance.StringFixed(2),
	)
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
