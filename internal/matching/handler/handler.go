package handler

import (
	"net/http"
	"time"

	"leadmarket_backend/internal/matching/repository"
	"leadmarket_backend/internal/matching/service"
	"leadmarket_backend/internal/matching/transport"
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

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.svc.Settings(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSettingsPayload(settings))
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req transport.SettingsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	saved, err := h.svc.UpdateSettings(c.Request.Context(), repository.Settings{
		MinScore:          req.MinScore,
		MaxMatchesPerLead: req.MaxMatchesPerLead,
		ConsiderExpertise: req.ConsiderExpertise,
		ConsiderPortfolio: req.ConsiderPortfolio,
		ConsiderBudget:    req.ConsiderBudget,
		WeightExpertise:   req.WeightExpertise,
		WeightPortfolio:   req.WeightPortfolio,
		WeightBudget:      req.WeightBudget,
		WeightLocation:    req.WeightLocation,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSettingsPayload(saved))
}

func (h *Handler) GetProfile(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	profile, err := h.svc.Profile(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toProfileResponse(profile))
}

func (h *Handler) SaveProfile(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	profile, err := h.svc.SaveProfile(c.Request.Context(), repository.Profile{
		UserID:         identity.UserID(),
		Expertise:      req.Expertise,
		PortfolioCount: req.PortfolioCount,
		BudgetBucket:   req.BudgetBucket,
		Location:       req.Location,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toProfileResponse(profile))
}

func toSettingsPayload(settings repository.Settings) transport.SettingsPayload {
	return transport.SettingsPayload{
		MinScore:          settings.MinScore,
		MaxMatchesPerLead: settings.MaxMatchesPerLead,
		ConsiderExpertise: settings.ConsiderExpertise,
		ConsiderPortfolio: settings.ConsiderPortfolio,
		ConsiderBudget:    settings.ConsiderBudget,
		WeightExpertise:   settings.WeightExpertise,
		WeightPortfolio:   settings.WeightPortfolio,
		WeightBudget:      settings.WeightBudget,
		WeightLocation:    settings.WeightLocation,
	}
}

func toProfileResponse(profile repository.Profile) transport.ProfileResponse {
	expertise := profile.Expertise
	if expertise == nil {
		expertise = []string{}
	}
	return transport.ProfileResponse{
		UserID:         profile.UserID.String(),
		Expertise:      expertise,
		PortfolioCount: profile.PortfolioCount,
		BudgetBucket:   profile.BudgetBucket,
		Location:       profile.Location,
		UpdatedAt:      profile.UpdatedAt.Format(time.RFC3339),
	}
}
