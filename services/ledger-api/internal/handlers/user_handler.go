package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	pkgviews "github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/services"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/views"
	"go.uber.org/zap"
)

// UserHandler serves the admin account management routes.
type UserHandler struct {
	logger  *zap.Logger
	service services.AccountService
}

func NewUserHandler(logger *zap.Logger, svc services.AccountService) *UserHandler {
	return &UserHandler{logger: logger, service: svc}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, guards Guards) {
	users := r.Group("/users", guards.Authenticated, guards.Admin)
	users.GET("", h.List)
	users.PUT("/:id", h.Update)
	users.POST("/:id/balance-adjustments", h.AdjustBalance)
}

func (h *UserHandler) List(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	limit, offset := utils.ParsePagination(c)
	accounts, err := h.service.List(c.Request.Context(), c.GetString(pkg.TraceId), p, limit, offset)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	users := make([]pkgviews.AccountView, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, account.ToView())
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *UserHandler) Update(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}
	var req views.AdminUpdateRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	account, err := h.service.AdminUpdate(c.Request.Context(), c.GetString(pkg.TraceId), p, id, req)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{
		"message": "User updated successfully",
		"user":    account.ToView(),
	})
}

func (h *UserHandler) AdjustBalance(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}
	var req views.BalanceAdjustmentRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	account, err := h.service.AdjustBalance(c.Request.Context(), c.GetString(pkg.TraceId), p, id, req.Delta)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"user": account.ToView()})
}
