package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/observability"
	"go.uber.org/zap"
)

// ApprovalService moves a pending transaction to a terminal state. Approve is the only path
// that changes a balance as a result of a transaction.
type ApprovalService interface {
	Approve(ctx context.Context, traceID string, principal views.Principal, transactionID uuid.UUID) (models.Transaction, error)
	Reject(ctx context.Context, traceID string, principal views.Principal, transactionID uuid.UUID) (models.Transaction, error)
}

type ApprovalServiceImpl struct {
	logger      *zap.Logger
	db          database.Store
	txnRepo     repositories.TransactionRepository
	accountRepo repositories.AccountRepository
	publisher   EventPublisher
}

func NewApprovalService(logger *zap.Logger, db database.Store, txnRepo repositories.TransactionRepository, accountRepo repositories.AccountRepository, publisher EventPublisher) ApprovalService {
	return &ApprovalServiceImpl{
		logger:      logger,
		db:          db,
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

// Approve locks the transaction row then the owner's account row, applies the balance effect and
// marks the transaction completed, all in one database transaction.
func (s *ApprovalServiceImpl) Approve(ctx context.Context, traceID string, principal views.Principal, transactionID uuid.UUID) (models.Transaction, error) {
	if err := requireAdmin(principal); err != nil {
		return models.Transaction{}, err
	}

	var completed models.Transaction
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		txn, err := s.lockPending(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		account, err := s.accountRepo.FindByIDForUpdate(ctx, tx, txn.OwnerID)
		if err != nil {
			return err
		}

		delta := txn.BalanceDelta()
		if account.Balance.Add(delta).IsNegative() {
			return pkg.NewInsufficientFundsError()
		}
		if !delta.IsZero() {
			// Guarded as well; the row lock above makes the precheck authoritative.
			if _, err = s.accountRepo.AdjustBalance(ctx, tx, account.ID, delta); err != nil {
				return err
			}
		}

		completed, err = s.txnRepo.MarkCompleted(ctx, tx, txn.ID, principal.AccountID)
		return err
	})
	observability.TransitionsTotal.WithLabelValues("approve", string(completed.Type), observability.Outcome(err)).Inc()
	if err != nil {
		return models.Transaction{}, s.transitionError(traceID, "approve", transactionID, err)
	}

	s.logger.Info("transaction approved",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.TransactionId, completed.ID.String()),
		zap.String(pkg.AccountId, completed.OwnerID.String()),
		zap.String("type", string(completed.Type)),
		zap.String("amount", completed.Amount.StringFixed(2)),
		zap.String("processed_by", principal.AccountID.String()))
	s.publisher.Publish(ctx, traceID, completed.ToLedgerEvent(pkg.EventTransactionCompleted))
	return completed, nil
}

// Reject marks a pending transaction rejected without touching any balance.
func (s *ApprovalServiceImpl) Reject(ctx context.Context, traceID string, principal views.Principal, transactionID uuid.UUID) (models.Transaction, error) {
	if err := requireAdmin(principal); err != nil {
		return models.Transaction{}, err
	}

	var rejected models.Transaction
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		txn, err := s.lockPending(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		rejected, err = s.txnRepo.MarkRejected(ctx, tx, txn.ID, principal.AccountID)
		return err
	})
	observability.TransitionsTotal.WithLabelValues("reject", string(rejected.Type), observability.Outcome(err)).Inc()
	if err != nil {
		return models.Transaction{}, s.transitionError(traceID, "reject", transactionID, err)
	}

	s.logger.Info("transaction rejected",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.TransactionId, rejected.ID.String()),
		zap.String(pkg.AccountId, rejected.OwnerID.String()),
		zap.String("processed_by", principal.AccountID.String()))
	s.publisher.Publish(ctx, traceID, rejected.ToLedgerEvent(pkg.EventTransactionRejected))
	return rejected, nil
}

func (s *ApprovalServiceImpl) lockPending(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID) (models.Transaction, error) {
	txn, err := s.txnRepo.FindByIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	if !txn.IsPending() {
		return models.Transaction{}, pkg.NewAlreadyProcessedError()
	}
	return txn, nil
}

func (s *ApprovalServiceImpl) transitionError(traceID, action string, transactionID uuid.UUID, err error) error {
	s.logger.Warn("transaction transition failed",
		zap.String(pkg.TraceId, traceID),
		zap.String("action", action),
		zap.String(pkg.TransactionId, transactionID.String()),
		zap.Error(err))
	return pkg.HandleSQLError(traceID, s.logger, err)
}

func requireAdmin(principal views.Principal) error {
	if !principal.IsAdmin() {
		return pkg.NewAppError(pkg.ErrForbiddenCode, "admin access required", nil)
	}
	return nil
}
