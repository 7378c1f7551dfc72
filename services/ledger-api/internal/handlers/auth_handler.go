package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/services"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/views"
	"go.uber.org/zap"
)

type AuthHandler struct {
	logger  *zap.Logger
	service services.AccountService
}

func NewAuthHandler(logger *zap.Logger, svc services.AccountService) *AuthHandler {
	return &AuthHandler{logger: logger, service: svc}
}

// RegisterRoutes registers auth routes on the provided Gin group.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, guards Guards) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", guards.Authenticated, h.Me)
	r.PUT("/auth/me", guards.Authenticated, h.UpdateMe)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req views.RegisterRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	account, token, err := h.service.Register(c.Request.Context(), c.GetString(pkg.TraceId), req)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    account.ToView(),
		"token":   token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req views.LoginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	account, token, err := h.service.Login(c.Request.Context(), c.GetString(pkg.TraceId), req)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{
		"user":  account.ToView(),
		"token": token,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	account, err := h.service.Me(c.Request.Context(), c.GetString(pkg.TraceId), p)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"user": account.ToView()})
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	var req views.ProfileRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	account, err := h.service.UpdateProfile(c.Request.Context(), c.GetString(pkg.TraceId), p, req)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"user": account.ToView()})
}
