package transport

import "time"

type CheckoutRequest struct {
	PackageID string `json:"packageId" validate:"required"`
}

type CheckoutResponse struct {
	SessionID   string    `json:"sessionId"`
	RedirectURL string    `json:"redirectUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type InvoiceResponse struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	AmountCents int       `json:"amountCents"`
	Status      string    `json:"status"`
	HasPDF      bool      `json:"hasPdf"`
	CreatedAt   time.Time `json:"createdAt"`
}

type InvoiceDownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
