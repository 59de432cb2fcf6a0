// Package provider is the HTTP client for the external checkout provider.
// Payment capture happens entirely on the provider's hosted page; this
// client only creates sessions and fetches the resulting invoice PDFs.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadmarket_backend/platform/config"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.CheckoutConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetCheckoutProviderURL(), "/"),
		apiKey:  cfg.GetCheckoutAPIKey(),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateSessionParams describes the hosted checkout session to create.
type CreateSessionParams struct {
	Reference   string `json:"reference"`
	AmountCents int    `json:"amountCents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	SuccessURL  string `json:"successUrl"`
	CancelURL   string `json:"cancelUrl"`
	ExpiresIn   int    `json:"expiresInSeconds"`
}

// Session is the provider's view of a created checkout session.
type Session struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
}

// CreateSession creates a hosted checkout session and returns the URL the
// buyer must be redirected to.
func (c *Client) CreateSession(ctx context.Context, params CreateSessionParams) (Session, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Session{}, fmt.Errorf("checkout provider returned %d: %s", resp.StatusCode, string(payload))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return Session{}, fmt.Errorf("decode session response: %w", err)
	}
	if session.ID == "" || session.RedirectURL == "" {
		return Session{}, fmt.Errorf("checkout provider returned an incomplete session")
	}
	return session, nil
}

// FetchInvoicePDF downloads the invoice PDF for a completed session.
// The caller must close the returned reader.
func (c *Client) FetchInvoicePDF(ctx context.Context, providerInvoiceID string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/invoices/"+providerInvoiceID+"/pdf", nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build invoice request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch invoice pdf: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("invoice provider returned %d", resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}
