package handler

import (
	"net/http"

	"leadmarket_backend/internal/credits/service"
	"leadmarket_backend/internal/credits/transport"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) Balance(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	balance, err := h.svc.Balance(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BalanceResponse{Credits: balance})
}

func (h *Handler) Transactions(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var query transport.ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.validate.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	items, err := h.svc.Transactions(c.Request.Context(), identity.UserID(), query.Limit, query.Offset)
	if httpkit.HandleError(c, err) {
		return
	}

	results := make([]transport.TransactionResponse, 0, len(items))
	for _, item := range items {
		response := transport.TransactionResponse{
			ID:          item.ID.String(),
			Amount:      item.Amount,
			Type:        item.Type,
			Status:      item.Status,
			Description: item.Description,
			CreatedAt:   item.CreatedAt,
		}
		if item.LeadID != nil {
			leadID := item.LeadID.String()
			response.LeadID = &leadID
		}
		results = append(results, response)
	}
	httpkit.OK(c, results)
}

func (h *Handler) Packages(c *gin.Context) {
	httpkit.OK(c, h.svc.Packages())
}
