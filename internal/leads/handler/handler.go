package handler

import (
	"net/http"

	"leadmarket_backend/internal/leads/domain"
	"leadmarket_backend/internal/leads/feed"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/internal/leads/service"
	"leadmarket_backend/internal/leads/transport"
	"leadmarket_backend/platform/httpkit"
	"leadmarket_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *service.Service
	cache    *feed.Cache
	validate *validator.Validator
}

func New(svc *service.Service, cache *feed.Cache, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, cache: cache, validate: validate}
}

// Create handles admin lead intake.
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	creator := identity.UserID()
	lead, err := h.svc.Create(c.Request.Context(), repository.CreateLeadParams{
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Description: req.Description,
		BudgetRange: req.BudgetRange,
		Timeline:    req.Timeline,
		Location:    req.Location,
		CreatedBy:   &creator,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toLeadResponse(lead))
}

// List serves both audiences: admins get every lead with full detail,
// marketers get the published-only market view.
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	filter := repository.ListFilter{
		Status:   query.Status,
		Location: query.Location,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}

	if identity.HasRole("admin") {
		items, err := h.svc.ListForAdmin(c.Request.Context(), filter)
		if httpkit.HandleError(c, err) {
			return
		}
		results := make([]transport.LeadResponse, 0, len(items))
		for _, lead := range items {
			results = append(results, toLeadResponse(lead))
		}
		httpkit.OK(c, results)
		return
	}

	items, purchased, err := h.svc.ListMarket(c.Request.Context(), identity.UserID(), filter)
	if httpkit.HandleError(c, err) {
		return
	}
	results := make([]transport.MarketLeadResponse, 0, len(items))
	for _, lead := range items {
		results = append(results, toMarketResponse(lead, purchased[lead.ID]))
	}
	httpkit.OK(c, results)
}

// Feed serves the cached published-lead snapshot.
func (h *Handler) Feed(c *gin.Context) {
	items := h.cache.All()
	results := make([]transport.MarketLeadResponse, 0, len(items))
	for _, summary := range items {
		results = append(results, transport.MarketLeadResponse{
			ID:               summary.ID.String(),
			CompanyName:      summary.CompanyName,
			Description:      summary.Description,
			BudgetRange:      summary.BudgetRange,
			Timeline:         summary.Timeline,
			Location:         summary.Location,
			Price:            summary.Price,
			CurrentPurchases: summary.CurrentPurchases,
			MaxPurchases:     domain.MaxPurchasesPerLead,
			PublishedAt:      summary.PublishedAt,
		})
	}
	httpkit.OK(c, results)
}

// Get returns a single lead. Admins and purchasers see contact details;
// other marketers get the redacted market view.
func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if identity.HasRole("admin") {
		lead, err := h.svc.GetForAdmin(c.Request.Context(), id)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, toLeadResponse(lead))
		return
	}

	lead, purchased, err := h.svc.GetForMarketer(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	if purchased {
		httpkit.OK(c, toLeadResponse(lead))
		return
	}
	httpkit.OK(c, toMarketResponse(lead, false))
}

// Purchase buys the lead for the caller.
func (h *Handler) Purchase(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Purchase(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PurchaseResponse{
		LeadID:           result.LeadID.String(),
		CreditsSpent:     result.CreditsSpent,
		RemainingCredits: result.RemainingCredits,
		PurchasedAt:      result.PurchasedAt,
	})
}

// ListPurchased returns the caller's bought leads with full contact detail.
func (h *Handler) ListPurchased(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.svc.ListPurchased(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	results := make([]transport.PurchasedLeadResponse, 0, len(items))
	for _, item := range items {
		results = append(results, transport.PurchasedLeadResponse{
			LeadResponse: toLeadResponse(item.Lead),
			PurchasedAt:  item.PurchasedAt,
			PricePaid:    item.PricePaid,
		})
	}
	httpkit.OK(c, results)
}

// Publish puts a lead up for sale (admin only).
func (h *Handler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.PublishLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Publish(c.Request.Context(), id, req.Price)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(lead))
}

// UpdateStatus moderates a lead (admin only).
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(lead))
}

// UpdateCallStatus records calling progress (admin only).
func (h *Handler) UpdateCallStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateCallStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateCallStatus(c.Request.Context(), id, req.CallStatus)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(lead))
}

// Reconcile triggers an on-demand purchase-counter repair (admin only).
func (h *Handler) Reconcile(c *gin.Context) {
	repaired, err := h.svc.Reconcile(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	ids := make([]string, 0, len(repaired))
	for _, id := range repaired {
		ids = append(ids, id.String())
	}
	httpkit.OK(c, transport.ReconcileResponse{RepairedLeadIDs: ids})
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:               lead.ID.String(),
		CompanyName:      lead.CompanyName,
		ContactName:      lead.ContactName,
		Email:            lead.Email,
		Phone:            lead.Phone,
		Description:      lead.Description,
		BudgetRange:      lead.BudgetRange,
		Timeline:         lead.Timeline,
		Location:         lead.Location,
		Price:            lead.Price,
		Status:           lead.Status,
		CallStatus:       lead.CallStatus,
		Published:        lead.Published,
		PublishedAt:      lead.PublishedAt,
		CurrentPurchases: lead.CurrentPurchases,
		CreatedAt:        lead.CreatedAt,
		UpdatedAt:        lead.UpdatedAt,
	}
}

func toMarketResponse(lead repository.Lead, purchased bool) transport.MarketLeadResponse {
	return transport.MarketLeadResponse{
		ID:               lead.ID.String(),
		CompanyName:      lead.CompanyName,
		Description:      lead.Description,
		BudgetRange:      lead.BudgetRange,
		Timeline:         lead.Timeline,
		Location:         lead.Location,
		Price:            lead.Price,
		CurrentPurchases: lead.CurrentPurchases,
		MaxPurchases:     domain.MaxPurchasesPerLead,
		Purchased:        purchased,
		PublishedAt:      lead.PublishedAt,
	}
}
