package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"leadmarket_backend/internal/billing/provider"
	"leadmarket_backend/internal/billing/service"
	"leadmarket_backend/internal/billing/transport"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SignatureHeader carries the provider's HMAC over the webhook body.
const SignatureHeader = "X-Webhook-Signature"

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *service.Service
	cfg      config.CheckoutConfig
	log      *logger.Logger
	validate *validator.Validator
}

func New(svc *service.Service, cfg config.CheckoutConfig, log *logger.Logger, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log, validate: validate}
}

// Checkout starts a credit top-up via the hosted payment page.
func (h *Handler) Checkout(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	redirect, err := h.svc.CreateCheckout(c.Request.Context(), identity.UserID(), req.PackageID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.CheckoutResponse{
		SessionID:   redirect.SessionID.String(),
		RedirectURL: redirect.RedirectURL,
		ExpiresAt:   redirect.ExpiresAt,
	})
}

// Webhook receives settlement events from the payment provider. The
// signature is verified over the raw body before anything is parsed.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if signature == "" || !provider.VerifySignature(h.cfg.GetCheckoutWebhookSecret(), body, signature) {
		h.log.Warn("webhook signature rejected", "remote", c.ClientIP())
		httpkit.Error(c, http.StatusUnauthorized, "invalid signature", nil)
		return
	}

	var event service.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), event); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"received": true})
}

// ListInvoices returns the caller's invoices.
func (h *Handler) ListInvoices(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.svc.ListInvoices(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	results := make([]transport.InvoiceResponse, 0, len(items))
	for _, invoice := range items {
		results = append(results, transport.InvoiceResponse{
			ID:          invoice.ID.String(),
			Number:      invoice.Number,
			AmountCents: invoice.AmountCents,
			Status:      invoice.Status,
			HasPDF:      invoice.PDFKey != nil,
			CreatedAt:   invoice.CreatedAt,
		})
	}
	httpkit.OK(c, results)
}

// DownloadInvoice presigns a short-lived PDF download link.
func (h *Handler) DownloadInvoice(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	url, expiresAt, err := h.svc.InvoiceDownloadURL(c.Request.Context(), invoiceID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.InvoiceDownloadResponse{URL: url, ExpiresAt: expiresAt})
}
