package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/services"
	"go.uber.org/zap"
)

type StatsHandler struct {
	logger  *zap.Logger
	service services.StatsService
}

func NewStatsHandler(logger *zap.Logger, svc services.StatsService) *StatsHandler {
	return &StatsHandler{logger: logger, service: svc}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup, guards Guards) {
	r.GET("/admin/stats", guards.Authenticated, guards.Admin, h.AdminStats)
	r.GET("/dashboard/stats", guards.Authenticated, h.DashboardStats)
}

func (h *StatsHandler) AdminStats(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	stats, err := h.service.AdminStats(c.Request.Context(), c.GetString(pkg.TraceId), p)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"stats": stats})
}

func (h *StatsHandler) DashboardStats(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	stats, err := h.service.DashboardStats(c.Request.Context(), c.GetString(pkg.TraceId), p)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"stats": stats})
}
