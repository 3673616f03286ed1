package auth

import (
	"errors"
	"net/http"

	"fixhub/internal/middleware"
	"fixhub/internal/pkg/response"
	"fixhub/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	service   *Service
	tokenTTL  int // cookie max-age seconds
	secureEnv bool
	log       zerolog.Logger
}

func NewHandler(service *Service, tokenTTLSeconds int, secureEnv bool, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		tokenTTL:  tokenTTLSeconds,
		secureEnv: secureEnv,
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.Register)
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/logout", h.Logout)
	rg.POST("/auth/verify/request", h.RequestVerification)
	rg.POST("/auth/verify/confirm", h.ConfirmVerification)
}

func (h *Handler) Register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(in); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", fields)
		return
	}

	u, err := h.service.Register(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			response.Error(c, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
		case errors.Is(err, ErrInvalidRole):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Role must be customer or repairer")
		default:
			h.log.Error().Err(err).Msg("register failed")
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": u})
}

func (h *Handler) Login(c *gin.Context) {
	var in LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(in); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", fields)
		return
	}

	res, err := h.service.Login(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, res.Token, h.tokenTTL, "/", "", h.secureEnv, true)

	response.Success(c, http.StatusOK, gin.H{
		"user":  res.User,
		"token": res.Token,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureEnv, true)
	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) RequestVerification(c *gin.Context) {
	var in VerifyRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.RequestEmailVerification(c.Request.Context(), in.Email)
	if err != nil {
		if errors.Is(err, ErrRateLimitExceeded) {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Please wait before requesting another code")
			return
		}
		h.log.Error().Err(err).Msg("verification request failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to request verification")
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": res.Status})
}

func (h *Handler) ConfirmVerification(c *gin.Context) {
	var in VerifyConfirmInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	err := h.service.ConfirmEmailVerification(c.Request.Context(), in.Email, in.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeInvalid):
			response.Error(c, http.StatusBadRequest, "CODE_INVALID", "Verification code is invalid")
		case errors.Is(err, ErrCodeExpired):
			response.Error(c, http.StatusBadRequest, "CODE_EXPIRED", "Verification code has expired")
		case errors.Is(err, ErrTooManyAttempts):
			response.Error(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many attempts, request a new code")
		default:
			h.log.Error().Err(err).Msg("verification confirm failed")
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to confirm verification")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "email verified"})
}
