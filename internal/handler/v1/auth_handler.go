package v1

import (
	"context"
	"net/http"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type authService interface {
	Register(ctx context.Context, cmd service.RegisterCommand, ip string) (*service.IdentityView, error)
	Login(ctx context.Context, username, password, ip string) (*domain.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Me(ctx context.Context, callerID uuid.UUID) (*service.IdentityView, error)
}

type AuthHandler struct {
	svc authService
	log *zap.Logger
}

func NewAuthHandler(svc authService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.svc.Register(c.Request.Context(), service.RegisterCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondCreated(c, view)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, pair)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.RefreshToken(c.Request.Context(), req.Refresh)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, pair)
}

func (h *AuthHandler) Me(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	view, err := h.svc.Me(c.Request.Context(), who.ID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse[*service.IdentityView]{Data: view})
}
