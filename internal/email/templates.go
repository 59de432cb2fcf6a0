package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type purchaseReceiptEmailData struct {
	baseEmailData
	CompanyName      string
	CreditsSpent     int
	RemainingCredits int
}

type topUpEmailData struct {
	baseEmailData
	PackageName     string
	Credits         int
	NewBalance      int
	AmountFormatted string
}

type lowBalanceEmailData struct {
	baseEmailData
	Balance int
}

type leadMatchEmailData struct {
	baseEmailData
	CompanyName    string
	Location       string
	PriceFormatted string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyEUR(cents int) string {
	return fmt.Sprintf("€%.2f", float64(cents)/100)
}

func formatCredits(credits int) string {
	if credits == 1 {
		return "1 credit"
	}
	return fmt.Sprintf("%d credits", credits)
}
