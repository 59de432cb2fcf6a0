// Package email delivers transactional mail for marketplace events over
// the configured SMTP server. When SMTP is not configured the module
// degrades to a logging no-op so the rest of the system keeps working.
package email

import (
	"context"

	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
)

// Sender is the outbound email surface the notification module depends on.
type Sender interface {
	SendPurchaseReceipt(ctx context.Context, toEmail string, data PurchaseReceiptData) error
	SendTopUpConfirmation(ctx context.Context, toEmail string, data TopUpConfirmationData) error
	SendLowBalanceWarning(ctx context.Context, toEmail string, balance int) error
	SendLeadMatch(ctx context.Context, toEmail string, data LeadMatchData) error
}

// PurchaseReceiptData fills the purchase receipt email.
type PurchaseReceiptData struct {
	CompanyName      string
	CreditsSpent     int
	RemainingCredits int
}

// TopUpConfirmationData fills the top-up confirmation email.
type TopUpConfirmationData struct {
	PackageName string
	Credits     int
	NewBalance  int
	AmountCents int
}

// LeadMatchData fills the new-lead match notification.
type LeadMatchData struct {
	CompanyName string
	Location    string
	Price       int
	LeadURL     string
}

// NewSender picks the SMTP sender when email is configured and a logging
// no-op otherwise.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if !cfg.GetEmailEnabled() {
		log.Info("email sending disabled, using noop sender")
		return &NoopSender{log: log}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

// NoopSender logs instead of sending. Used in development and tests.
type NoopSender struct {
	log *logger.Logger
}

func (n *NoopSender) SendPurchaseReceipt(_ context.Context, toEmail string, data PurchaseReceiptData) error {
	n.log.Info("email skipped", "kind", "purchase_receipt", "to", toEmail, "company", data.CompanyName)
	return nil
}

func (n *NoopSender) SendTopUpConfirmation(_ context.Context, toEmail string, data TopUpConfirmationData) error {
	n.log.Info("email skipped", "kind", "topup_confirmation", "to", toEmail, "package", data.PackageName)
	return nil
}

func (n *NoopSender) SendLowBalanceWarning(_ context.Context, toEmail string, balance int) error {
	n.log.Info("email skipped", "kind", "low_balance", "to", toEmail, "balance", balance)
	return nil
}

func (n *NoopSender) SendLeadMatch(_ context.Context, toEmail string, data LeadMatchData) error {
	n.log.Info("email skipped", "kind", "lead_match", "to", toEmail, "company", data.CompanyName)
	return nil
}

var _ Sender = (*NoopSender)(nil)
var _ Sender = (*SMTPSender)(nil)
