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

type CatalogHandler struct {
	logger  *zap.Logger
	service services.CatalogService
}

func NewCatalogHandler(logger *zap.Logger, svc services.CatalogService) *CatalogHandler {
	return &CatalogHandler{logger: logger, service: svc}
}

// RegisterRoutes registers the public catalog and the caller's copy positions.
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, guards Guards) {
	r.GET("/traders", h.ListTraders)
	r.POST("/traders", guards.Authenticated, guards.Admin, h.CreateTrader)
	r.GET("/plans", h.ListPlans)
	r.POST("/plans", guards.Authenticated, guards.Admin, h.CreatePlan)
	r.GET("/copy-trades", guards.Authenticated, h.ListCopies)
	r.POST("/copy-trades", guards.Authenticated, h.StartCopy)
	r.PUT("/copy-trades/:id/stop", guards.Authenticated, h.StopCopy)
}

func (h *CatalogHandler) ListTraders(c *gin.Context) {
	traders, err := h.service.ListTraders(c.Request.Context(), c.GetString(pkg.TraceId))
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"traders": traders})
}

func (h *CatalogHandler) CreateTrader(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	var req views.TraderRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	trader, err := h.service.CreateTrader(c.Request.Context(), c.GetString(pkg.TraceId), p, req)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusCreated, map[string]interface{}{"trader": trader})
}

func (h *CatalogHandler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context(), c.GetString(pkg.TraceId))
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"plans": plans})
}

func (h *CatalogHandler) CreatePlan(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	var req views.PlanRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	plan, err := h.service.CreatePlan(c.Request.Context(), c.GetString(pkg.TraceId), p, req)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusCreated, map[string]interface{}{"plan": plan})
}

func (h *CatalogHandler) ListCopies(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	limit, offset := utils.ParsePagination(c)
	copies, err := h.service.ListCopies(c.Request.Context(), c.GetString(pkg.TraceId), p, limit, offset)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"copyTrades": copies})
}

func (h *CatalogHandler) StartCopy(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	var req views.CopyTradeRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	copyTrade, err := h.service.StartCopy(c.Request.Context(), c.GetString(pkg.TraceId), p, req)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusCreated, map[string]interface{}{"copyTrade": copyTrade})
}

func (h *CatalogHandler) StopCopy(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}
	copyTrade, err := h.service.StopCopy(c.Request.Context(), c.GetString(pkg.TraceId), p, id)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"copyTrade": copyTrade})
}
