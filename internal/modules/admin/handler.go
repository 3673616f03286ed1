package admin

import (
	"errors"
	"net/http"
	"strconv"

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

// RegisterRoutes expects a group already guarded by AdminOnly.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/settlements", h.ListSettlements)
	rg.PUT("/admin/settlements/:id/settle", h.MarkSettled)
	rg.GET("/admin/stats", h.Stats)
	rg.GET("/admin/users", h.ListUsers)
}

func (h *Handler) ListSettlements(c *gin.Context) {
	list, err := h.service.ListSettlements(c.Request.Context(), c.Query("status"))
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown settlement status")
			return
		}
		h.log.Error().Err(err).Msg("settlement list failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load settlements")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settlements": list})
}

func (h *Handler) MarkSettled(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid settlement ID")
		return
	}

	settled, err := h.service.MarkSettled(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrSettlementNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Settlement not found")
		case errors.Is(err, ErrAlreadySettled):
			response.Error(c, http.StatusConflict, "ALREADY_SETTLED", "Settlement is already settled")
		default:
			h.log.Error().Err(err).Msg("settlement update failed")
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to settle")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"settlement": settled})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("stats failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load stats")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), c.DefaultQuery("role", "customer"))
	if err != nil {
		h.log.Error().Err(err).Msg("user list failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load users")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}
