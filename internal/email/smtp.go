package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendPurchaseReceipt(ctx context.Context, toEmail string, data PurchaseReceiptData) error {
	content, err := renderEmailTemplate("purchase_receipt.html", purchaseReceiptEmailData{
		baseEmailData: baseEmailData{
			Title:      "Aankoopbevestiging",
			Heading:    "Lead gekocht",
			Subheading: "U heeft toegang tot de contactgegevens van deze lead.",
		},
		CompanyName:      data.CompanyName,
		CreditsSpent:     data.CreditsSpent,
		RemainingCredits: data.RemainingCredits,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectPurchaseReceiptFmt, data.CompanyName), content)
}

func (s *SMTPSender) SendTopUpConfirmation(ctx context.Context, toEmail string, data TopUpConfirmationData) error {
	content, err := renderEmailTemplate("topup_confirmation.html", topUpEmailData{
		baseEmailData: baseEmailData{
			Title:      "Credits bijgeschreven",
			Heading:    "Bedankt voor uw aankoop",
			Subheading: "Uw betaling is verwerkt en uw credits zijn direct beschikbaar.",
		},
		PackageName:     data.PackageName,
		Credits:         data.Credits,
		NewBalance:      data.NewBalance,
		AmountFormatted: formatCurrencyEUR(data.AmountCents),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectTopUpConfirmation, content)
}

func (s *SMTPSender) SendLowBalanceWarning(ctx context.Context, toEmail string, balance int) error {
	content, err := renderEmailTemplate("low_balance.html", lowBalanceEmailData{
		baseEmailData: baseEmailData{
			Title:      "Saldo bijna op",
			Heading:    "Uw creditsaldo is bijna op",
			Subheading: "Koop tijdig nieuwe credits zodat u geen leads misloopt.",
		},
		Balance: balance,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectLowBalance, content)
}

func (s *SMTPSender) SendLeadMatch(ctx context.Context, toEmail string, data LeadMatchData) error {
	content, err := renderEmailTemplate("lead_match.html", leadMatchEmailData{
		baseEmailData: baseEmailData{
			Title:      "Nieuwe lead",
			Heading:    "Er staat een nieuwe lead voor u klaar",
			Subheading: "Deze lead past bij uw profiel.",
			CTALabel:   "Bekijk lead",
			CTAURL:     data.LeadURL,
		},
		CompanyName:    data.CompanyName,
		Location:       data.Location,
		PriceFormatted: formatCredits(data.Price),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadMatchFmt, data.CompanyName), content)
}
