package profile

import (
	"errors"
	"net/http"

	"fixhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	service *Service
	log     zerolog.Logger
}

func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterCommon wires endpoints for any authenticated user.
func (h *Handler) RegisterCommon(rg *gin.RouterGroup) {
	rg.GET("/profile/me", h.Me)
	rg.PUT("/profile/me", h.UpdateMe)
}

// RegisterRepairer wires the repairer profile endpoints.
func (h *Handler) RegisterRepairer(rg *gin.RouterGroup) {
	rg.GET("/repairer/profile", h.GetRepairerProfile)
	rg.PUT("/repairer/profile", h.UpsertRepairerProfile)
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.service.GetMe(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil || u == nil {
		h.log.Error().Err(err).Msg("profile lookup failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var in UpdateMeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	u, err := h.service.UpdateMe(c.Request.Context(), c.GetInt64("user_id"), in)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", vErr.Fields)
			return
		}
		h.log.Error().Err(err).Msg("profile update failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) GetRepairerProfile(c *gin.Context) {
	p, err := h.service.GetRepairerProfile(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.log.Error().Err(err).Msg("repairer profile lookup failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile")
		return
	}
	if p == nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Repairer profile not set up yet")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": p})
}

func (h *Handler) UpsertRepairerProfile(c *gin.Context) {
	var in UpsertProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, err := h.service.UpsertRepairerProfile(c.Request.Context(), c.GetInt64("user_id"), in)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", vErr.Fields)
			return
		}
		h.log.Error().Err(err).Msg("repairer profile upsert failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save profile")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"profile": p})
}
