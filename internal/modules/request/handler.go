package request

import (
	"errors"
	"net/http"
	"strconv"

	"fixhub/internal/domain"
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

// RegisterPublic wires the open-jobs browsing endpoint. The group is
// expected to carry OptionalAuth so repairers get their matching view.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/service-requests/by-location", h.ListByLocation)
}

func (h *Handler) RegisterCustomer(rg *gin.RouterGroup) {
	rg.POST("/service-requests", h.CreateRequest)
	rg.GET("/service-requests/user/my-requests", h.ListMyRequests)
	rg.PUT("/service-requests/user/:id/status", h.UpdateStatusAsCustomer)
	rg.POST("/service-requests/:id/rating", h.RateRequest)
}

func (h *Handler) RegisterRepairer(rg *gin.RouterGroup) {
	rg.GET("/repairer/my-requests", h.ListRepairerRequests)
	rg.POST("/service-requests/:id/accept", h.AcceptRequest)
	rg.PUT("/service-requests/repairer/:id/status", h.UpdateStatusAsRepairer)
}

// RegisterAuthed wires endpoints shared by all authenticated roles.
func (h *Handler) RegisterAuthed(rg *gin.RouterGroup) {
	rg.GET("/service-requests/:id", h.GetRequest)
}

func (h *Handler) CreateRequest(c *gin.Context) {
	var in CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	req, err := h.service.Create(c.Request.Context(), c.GetInt64("user_id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"request": req})
}

func (h *Handler) ListByLocation(c *gin.Context) {
	ctx := c.Request.Context()

	// Repairer context: matching is driven by the stored profile.
	if c.GetString("role") == string(domain.RoleRepairer) {
		list, err := h.service.ListForRepairer(ctx, c.GetInt64("user_id"), c.Query("status"), c.Query("service_type"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"requests": list})
		return
	}

	q := BrowseQuery{
		Pincode:     c.Query("pincode"),
		ServiceType: c.Query("service_type"),
	}
	if v, err := strconv.ParseFloat(c.Query("latitude"), 64); err == nil {
		q.Latitude = &v
	}
	if v, err := strconv.ParseFloat(c.Query("longitude"), 64); err == nil {
		q.Longitude = &v
	}
	if v, err := strconv.ParseFloat(c.Query("radius_km"), 64); err == nil {
		q.RadiusKm = &v
	}

	list, err := h.service.BrowseOpen(ctx, q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"requests": list})
}

func (h *Handler) ListRepairerRequests(c *gin.Context) {
	list, err := h.service.ListForRepairer(c.Request.Context(), c.GetInt64("user_id"), c.Query("status"), c.Query("service_type"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"requests": list})
}

func (h *Handler) ListMyRequests(c *gin.Context) {
	list, err := h.service.ListByCustomer(c.Request.Context(), c.GetInt64("user_id"), c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"requests": list})
}

func (h *Handler) AcceptRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.service.Accept(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request": req})
}

func (h *Handler) UpdateStatusAsCustomer(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var in UpdateStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	req, err := h.service.UpdateStatusAsCustomer(c.Request.Context(), id, c.GetInt64("user_id"), in.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "status updated",
		"request": req,
	})
}

func (h *Handler) UpdateStatusAsRepairer(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var in UpdateStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	req, err := h.service.UpdateStatusAsRepairer(c.Request.Context(), id, c.GetInt64("user_id"), in.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "status updated",
		"request": req,
	})
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.service.GetByID(c.Request.Context(), id, c.GetInt64("user_id"), domain.Role(c.GetString("role")))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request": req})
}

func (h *Handler) RateRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var in RatingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	req, err := h.service.Rate(c.Request.Context(), id, c.GetInt64("user_id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request": req})
}

func (h *Handler) requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid request ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var vErr *ValidationError
	var tErr *InvalidTransitionError

	switch {
	case errors.As(err, &vErr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", vErr.Fields)
	case errors.As(err, &tErr):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_TRANSITION", tErr.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Service request not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this request")
	case errors.Is(err, ErrAssignedElsewhere):
		response.Error(c, http.StatusForbidden, "ASSIGNED_ELSEWHERE", "Request is assigned to another repairer")
	case errors.Is(err, ErrAlreadyAssigned):
		response.Error(c, http.StatusConflict, "ALREADY_ASSIGNED", "Request is no longer available")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "CONFLICT", "Request was modified concurrently, reload and retry")
	case errors.Is(err, ErrNotCompleted):
		response.Error(c, http.StatusConflict, "NOT_COMPLETED", "Request is not completed yet")
	case errors.Is(err, ErrAlreadyRated):
		response.Error(c, http.StatusConflict, "ALREADY_RATED", "Request has already been rated")
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request handler failure")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
