package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/ledger"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/observability"
	ledgerviews "github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/views"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const amountScale = 2

// IntakeService validates transaction requests and records them as pending ledger entries.
type IntakeService interface {
	// Submit validates req and creates a pending transaction. With an idempotency key, a repeat of the
	// same request returns the original transaction and created=false.
	Submit(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.TransactionRequest, idempotencyKey *uuid.UUID) (txn models.Transaction, created bool, err error)
	ListMine(ctx context.Context, traceID string, principal views.Principal, limit, offset int) ([]models.Transaction, error)
	ListAll(ctx context.Context, traceID string, principal views.Principal, status *pkg.TransactionStatus, limit, offset int) ([]models.Transaction, error)
}

type IntakeServiceImpl struct {
	logger      *zap.Logger
	limits      *ledger.Limits
	db          database.Store
	txnRepo     repositories.TransactionRepository
	accountRepo repositories.AccountRepository
	publisher   EventPublisher
}

func NewIntakeService(logger *zap.Logger, limits *ledger.Limits, db database.Store, txnRepo repositories.TransactionRepository, accountRepo repositories.AccountRepository, publisher EventPublisher) IntakeService {
	return &IntakeServiceImpl{
		logger:      logger,
		limits:      limits,
		db:          db,
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

func (s *IntakeServiceImpl) Submit(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.TransactionRequest, idempotencyKey *uuid.UUID) (models.Transaction, bool, error) {
	txn, created, err := s.submit(ctx, traceID, principal, req, idempotencyKey)
	observability.IntakeTotal.WithLabelValues(metricType(req.Type), observability.Outcome(err)).Inc()
	if err != nil {
		return models.Transaction{}, false, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return txn, created, nil
}

func (s *IntakeServiceImpl) submit(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.TransactionRequest, idempotencyKey *uuid.UUID) (models.Transaction, bool, error) {
	draft, err := s.validate(req)
	if err != nil {
		return models.Transaction{}, false, err
	}
	draft.OwnerID = principal.AccountID

	if idempotencyKey != nil {
		existing, found, err := s.findReplay(ctx, principal.AccountID, *idempotencyKey, draft)
		if err != nil || found {
			return existing, false, err
		}
		draft.IdempotencyKey = idempotencyKey
	}

	// Advisory only; Approve re-checks under a row lock.
	if draft.Type == pkg.TransactionTypeWithdrawal {
		account, err := s.accountRepo.FindByID(ctx, s.db, principal.AccountID)
		if err != nil {
			return models.Transaction{}, false, err
		}
		if account.Balance.LessThan(draft.Amount) {
			return models.Transaction{}, false, pkg.NewInsufficientFundsError()
		}
	}

	var txn models.Transaction
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		txn, err = s.txnRepo.Create(ctx, tx, draft)
		return err
	})
	if err != nil && idempotencyKey != nil && pkg.IsUniqueViolation(err) {
		// A concurrent request with the same key won the insert.
		existing, found, findErr := s.findReplay(ctx, principal.AccountID, *idempotencyKey, draft)
		if findErr == nil && found {
			return existing, false, nil
		}
	}
	if err != nil {
		return models.Transaction{}, false, err
	}

	s.logger.Info("transaction requested",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.TransactionId, txn.ID.String()),
		zap.String(pkg.AccountId, txn.OwnerID.String()),
		zap.String("type", string(txn.Type)),
		zap.String("amount", txn.Amount.StringFixed(2)))
	s.publisher.Publish(ctx, traceID, txn.ToLedgerEvent(pkg.EventTransactionCreated))
	return txn, true, nil
}

// validate applies the field rules in order; the first failure wins.
func (s *IntakeServiceImpl) validate(req ledgerviews.TransactionRequest) (models.Transaction, error) {
	txType := pkg.TransactionType(strings.TrimSpace(req.Type))
	if txType == "" {
		return models.Transaction{}, pkg.NewValidationError("type is required")
	}
	if !txType.Valid() {
		return models.Transaction{}, pkg.NewValidationError("type must be one of deposit, withdrawal, trade")
	}

	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return models.Transaction{}, err
	}

	method := trimmedOrNil(req.Method)
	if txType.RequiresMethod() && method == nil {
		return models.Transaction{}, pkg.NewValidationError("method is required")
	}

	if err := s.limits.Check(txType, amount); err != nil {
		return models.Transaction{}, err
	}

	details, err := models.ParseDetails(txType, req.Details)
	if err != nil {
		return models.Transaction{}, pkg.NewValidationError(err.Error())
	}
	if txType == pkg.TransactionTypeWithdrawal {
		withdrawal, ok := details.(models.WithdrawalDetails)
		if !ok || withdrawal.Destination() == "" {
			return models.Transaction{}, pkg.NewValidationError("details.address is required")
		}
	}

	return models.Transaction{
		Type:    txType,
		Amount:  amount,
		Method:  method,
		Asset:   trimmedOrNil(req.Asset),
		Details: details,
	}, nil
}

// findReplay looks up a prior request with the same key. A different payload under the same key is a conflict.
func (s *IntakeServiceImpl) findReplay(ctx context.Context, ownerID, key uuid.UUID, draft models.Transaction) (models.Transaction, bool, error) {
	// Read from the primary: after a unique violation the winning row may not have reached a replica.
	existing, err := s.txnRepo.FindByIdempotencyKey(ctx, s.db.Primary(), ownerID, key)
	if pkg.HasCode(err, pkg.ErrRecordNotFoundCode) || errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, false, nil
	}
	if err != nil {
		return models.Transaction{}, false, err
	}
	if !sameRequest(existing, draft) {
		return models.Transaction{}, false, pkg.NewAppError(pkg.ErrIdempotencyConflictCode,
			"idempotency key was already used with a different request", nil)
	}
	return existing, true, nil
}

func (s *IntakeServiceImpl) ListMine(ctx context.Context, traceID string, principal views.Principal, limit, offset int) ([]models.Transaction, error) {
	txns, err := s.txnRepo.ListByOwner(ctx, s.db, principal.AccountID, limit, offset)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return txns, nil
}

func (s *IntakeServiceImpl) ListAll(ctx context.Context, traceID string, principal views.Principal, status *pkg.TransactionStatus, limit, offset int) ([]models.Transaction, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if status != nil && !status.Valid() {
		return nil, pkg.NewValidationError("status must be one of pending, completed, rejected")
	}
	txns, err := s.txnRepo.ListAll(ctx, s.db, repositories.TransactionFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return txns, nil
}

// ParseAmount accepts a JSON number or numeric string with at most two decimal places.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, pkg.NewValidationError("amount is required")
	}
	text := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return decimal.Zero, pkg.NewValidationError("amount must be a number")
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return decimal.Zero, pkg.NewValidationError("amount is required")
		}
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, pkg.NewValidationError("amount must be a number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, pkg.NewValidationError("amount must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(amountScale)) {
		return decimal.Zero, pkg.NewValidationError(fmt.Sprintf("amount must have at most %d decimal places", amountScale))
	}
	return amount, nil
}

func sameRequest(existing, draft models.Transaction) bool {
	if existing.Type != draft.Type || !existing.Amount.Equal(draft.Amount) {
		return false
	}
	if !equalStringPtr(existing.Method, draft.Method) || !equalStringPtr(existing.Asset, draft.Asset) {
		return false
	}
	a, errA := models.MarshalDetails(existing.Details)
	b, errB := models.MarshalDetails(draft.Details)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func metricType(raw string) string {
	t := pkg.TransactionType(strings.TrimSpace(raw))
	if t.Valid() {
		return string(t)
	}
	return "invalid"
}
