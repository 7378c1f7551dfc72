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

type WalletHandler struct {
	logger  *zap.Logger
	service services.WalletService
}

func NewWalletHandler(logger *zap.Logger, svc services.WalletService) *WalletHandler {
	return &WalletHandler{logger: logger, service: svc}
}

func (h *WalletHandler) RegisterRoutes(r *gin.RouterGroup, guards Guards) {
	r.GET("/wallets", h.List)
	r.GET("/wallets/:method", h.Get)
	r.PUT("/wallets/:method", guards.Authenticated, guards.Admin, h.Set)
}

func (h *WalletHandler) List(c *gin.Context) {
	wallets, err := h.service.List(c.Request.Context(), c.GetString(pkg.TraceId))
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"wallets": wallets})
}

func (h *WalletHandler) Get(c *gin.Context) {
	wallet, err := h.service.Get(c.Request.Context(), c.GetString(pkg.TraceId), c.Param("method"))
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"wallet": wallet})
}

func (h *WalletHandler) Set(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	var req views.WalletRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	wallet, err := h.service.Set(c.Request.Context(), c.GetString(pkg.TraceId), p, c.Param("method"), req.Address)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"wallet": wallet})
}
