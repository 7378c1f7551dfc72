package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	pkgviews "github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/services"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/views"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	logger   *zap.Logger
	intake   services.IntakeService
	approval services.ApprovalService
}

func NewTransactionHandler(logger *zap.Logger, intake services.IntakeService, approval services.ApprovalService) *TransactionHandler {
	return &TransactionHandler{logger: logger, intake: intake, approval: approval}
}

// RegisterRoutes registers transaction routes on the provided Gin group.
func (h *TransactionHandler) RegisterRoutes(r *gin.RouterGroup, guards Guards) {
	r.POST("/transactions", guards.Authenticated, guards.IntakeLimit, h.Create)
	r.GET("/transactions/mine", guards.Authenticated, h.ListMine)
	r.GET("/transactions", guards.Authenticated, guards.Admin, h.ListAll)
	r.PUT("/transactions/:id/approve", guards.Authenticated, guards.Admin, h.Approve)
	r.PUT("/transactions/:id/reject", guards.Authenticated, guards.Admin, h.Reject)
}

// Create records a pending transaction. A replayed Idempotency-Key returns the original with 200.
func (h *TransactionHandler) Create(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	var idempotencyKey *uuid.UUID
	if raw := c.GetHeader(pkg.HeaderIdempotencyKey); raw != "" {
		key, err := uuid.Parse(raw)
		if err != nil {
			utils.AbortWithError(c, h.logger, pkg.NewValidationError("Idempotency-Key must be a UUID"))
			return
		}
		idempotencyKey = &key
	}
	var req views.TransactionRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	txn, created, err := h.intake.Submit(c.Request.Context(), c.GetString(pkg.TraceId), p, req, idempotencyKey)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	utils.RespondOK(c, status, map[string]interface{}{"transaction": txn.ToView()})
}

func (h *TransactionHandler) ListMine(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	limit, offset := utils.ParsePagination(c)
	txns, err := h.intake.ListMine(c.Request.Context(), c.GetString(pkg.TraceId), p, limit, offset)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"transactions": toTransactionViews(txns)})
}

func (h *TransactionHandler) ListAll(c *gin.Context) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	var status *pkg.TransactionStatus
	if raw := c.Query("status"); raw != "" {
		s := pkg.TransactionStatus(raw)
		status = &s
	}
	limit, offset := utils.ParsePagination(c)
	txns, err := h.intake.ListAll(c.Request.Context(), c.GetString(pkg.TraceId), p, status, limit, offset)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{"transactions": toTransactionViews(txns)})
}

func (h *TransactionHandler) Approve(c *gin.Context) {
	h.transition(c, "Transaction approved", h.approval.Approve)
}

func (h *TransactionHandler) Reject(c *gin.Context) {
	h.transition(c, "Transaction rejected", h.approval.Reject)
}

func (h *TransactionHandler) transition(c *gin.Context, message string, apply func(ctx context.Context, traceID string, principal pkgviews.Principal, id uuid.UUID) (models.Transaction, error)) {
	p, ok := principal(c, h.logger)
	if !ok {
		return
	}
	id, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}
	txn, err := apply(c.Request.Context(), c.GetString(pkg.TraceId), p, id)
	if err != nil {
		utils.AbortWithError(c, h.logger, err)
		return
	}
	utils.RespondOK(c, http.StatusOK, map[string]interface{}{
		"message":     message,
		"transaction": txn.ToView(),
	})
}

func toTransactionViews(txns []models.Transaction) []pkgviews.TransactionView {
	out := make([]pkgviews.TransactionView, 0, len(txns))
	for _, txn := range txns {
		out = append(out, txn.ToView())
	}
	return out
}
