package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-auth/internal/domain"
	"user-auth/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	auth     *service.Authenticator
	baseURL  string
	maxTTL   time.Duration
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, auth *service.Authenticator, baseURL string, maxTTL time.Duration) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{
		logger:   logger,
		userServ: userServ,
		auth:     auth,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxTTL:   maxTTL,
	}
}

type registerResponse struct {
	domain.UserView
	URI string `json:"uri"`
}

// Register maneja POST /users/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		Password  string `json:"password" binding:"required"`
		Email     string `json:"email" binding:"required"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reg, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		var conflict *service.ConflictError
		switch {
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, gin.H{"error": "already exists", "field": conflict.Field})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		default:
			h.logger.Error("register failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register user"})
		}
		return
	}

	resp := registerResponse{
		UserView: reg.User.View(),
		URI:      h.userURI(c, reg.User.Username),
	}

	if err := h.userServ.DeliverRegistrationCode(c.Request.Context(), reg); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "failed to email registration code",
			"user":  resp,
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ConfirmRegistration maneja POST /users/:username/confirm.
func (h *UserHandler) ConfirmRegistration(c *gin.Context) {
	caller, ok := GetAuthenticatedUser(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req struct {
		RegistrationCode *int `json:"registrationCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid confirm request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.userServ.ConfirmRegistration(c.Request.Context(), caller, c.Param("username"), *req.RegistrationCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		case errors.Is(err, service.ErrCodeMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "registration code did not match"})
		default:
			h.logger.Error("confirm registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not confirm registration"})
		}
		return
	}

	c.JSON(http.StatusOK, user.View())
}

// GetUser maneja GET /users/:username.
func (h *UserHandler) GetUser(c *gin.Context) {
	caller, ok := GetAuthenticatedUser(c)
	if !ok {
		unauthorized(c)
		return
	}

	view, err := h.userServ.GetUser(c.Request.Context(), caller, c.Param("username"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get user"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// IssueToken maneja GET /users/token.
func (h *UserHandler) IssueToken(c *gin.Context) {
	caller, ok := GetAuthenticatedUser(c)
	if !ok {
		unauthorized(c)
		return
	}

	var ttl time.Duration
	if raw := strings.TrimSpace(c.Query("ttl")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ttl"})
			return
		}
		ttl = time.Duration(seconds) * time.Second
		if h.maxTTL > 0 && ttl > h.maxTTL {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ttl too large"})
			return
		}
	}

	token, err := h.auth.IssueToken(caller, ttl)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	if ttl <= 0 {
		ttl = h.auth.DefaultTokenTTL()
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int64(ttl.Seconds())})
}

func (h *UserHandler) userURI(c *gin.Context, username string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
			scheme = fwd
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/users/" + url.PathEscape(username)
}
