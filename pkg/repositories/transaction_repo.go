package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
)

const transactionColumns = `id, owner_id, type, amount, method, asset, details, status, processed_by, processed_at, idempotency_key, created_at`

// TransactionFilter narrows List and Count. Nil fields match everything.
type TransactionFilter struct {
	OwnerID *uuid.UUID
	Type    *pkg.TransactionType
	Status  *pkg.TransactionStatus
	Limit   int
	Offset  int
}

// TransactionRepository defines the interface for the transaction ledger.
// Rows are append-only apart from the single pending -> completed|rejected transition.
type TransactionRepository interface {
	// Create always inserts with status pending, whatever the caller sets.
	Create(ctx context.Context, q database.Querier, txn models.Transaction) (models.Transaction, error)
	FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Transaction, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, q database.Querier, ownerID, key uuid.UUID) (models.Transaction, error)
	// ListByOwner returns the owner's history, newest first.
	ListByOwner(ctx context.Context, q database.Querier, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	// ListAll returns every transaction matching filter, newest first.
	ListAll(ctx context.Context, q database.Querier, filter TransactionFilter) ([]models.Transaction, error)
	Count(ctx context.Context, q database.Querier, filter TransactionFilter) (int64, error)
	// MarkCompleted and MarkRejected only move a pending row; anything else is AlreadyProcessed.
	MarkCompleted(ctx context.Context, q database.Querier, id, processorID uuid.UUID) (models.Transaction, error)
	MarkRejected(ctx context.Context, q database.Querier, id, processorID uuid.UUID) (models.Transaction, error)
}

type TransactionRepositoryImpl struct {
}

func NewTransactionRepository() TransactionRepository {
	return &TransactionRepositoryImpl{}
}

// PrepareForInsert validates txn and resets the fields a new ledger row may not carry.
func PrepareForInsert(txn models.Transaction) (models.Transaction, error) {
	if !txn.Type.Valid() {
		return models.Transaction{}, pkg.NewValidationError("invalid transaction type")
	}
	if !txn.Amount.IsPositive() {
		return models.Transaction{}, pkg.NewValidationError("amount must be greater than zero")
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.Status = pkg.TransactionStatusPending
	txn.ProcessedBy = nil
	txn.ProcessedAt = nil
	return txn, nil
}

func (t TransactionRepositoryImpl) Create(ctx context.Context, q database.Querier, txn models.Transaction) (models.Transaction, error) {
	txn, err := PrepareForInsert(txn)
	if err != nil {
		return models.Transaction{}, err
	}
	details, err := models.MarshalDetails(txn.Details)
	if err != nil {
		return models.Transaction{}, pkg.NewValidationError("invalid transaction details")
	}
	row := q.QueryRow(ctx, `
		INSERT INTO transactions (id, owner_id, type, amount, method, asset, details, status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING `+transactionColumns,
		txn.ID,
		txn.OwnerID,
		txn.Type,
		txn.Amount,
		txn.Method,
		txn.Asset,
		details,
		txn.Status,
		txn.IdempotencyKey,
	)
	return scanTransaction(row)
}

func (t TransactionRepositoryImpl) FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Transaction, error) {
	txn, err := scanTransaction(q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	return txn, notFound(err, "transaction not found")
}

func (t TransactionRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Transaction, error) {
	txn, err := scanTransaction(tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
	return txn, notFound(err, "transaction not found")
}

func (t TransactionRepositoryImpl) FindByIdempotencyKey(ctx context.Context, q database.Querier, ownerID, key uuid.UUID) (models.Transaction, error) {
	txn, err := scanTransaction(q.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = $1 AND idempotency_key = $2`, ownerID, key))
	return txn, notFound(err, "transaction not found")
}

func (t TransactionRepositoryImpl) ListByOwner(ctx context.Context, q database.Querier, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	return t.ListAll(ctx, q, TransactionFilter{OwnerID: &ownerID, Limit: limit, Offset: offset})
}

func (t TransactionRepositoryImpl) ListAll(ctx context.Context, q database.Querier, filter TransactionFilter) ([]models.Transaction, error) {
	where, args := filter.where()
	sql := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txns := make([]models.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (t TransactionRepositoryImpl) Count(ctx context.Context, q database.Querier, filter TransactionFilter) (int64, error) {
	where, args := filter.where()
	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&count)
	return count, err
}

func (t TransactionRepositoryImpl) MarkCompleted(ctx context.Context, q database.Querier, id, processorID uuid.UUID) (models.Transaction, error) {
	return t.markProcessed(ctx, q, id, processorID, pkg.TransactionStatusCompleted)
}

func (t TransactionRepositoryImpl) MarkRejected(ctx context.Context, q database.Querier, id, processorID uuid.UUID) (models.Transaction, error) {
	return t.markProcessed(ctx, q, id, processorID, pkg.TransactionStatusRejected)
}

func (t TransactionRepositoryImpl) markProcessed(ctx context.Context, q database.Querier, id, processorID uuid.UUID, status pkg.TransactionStatus) (models.Transaction, error) {
	txn, err := scanTransaction(q.QueryRow(ctx, `
		UPDATE transactions SET status = $1, processed_by = $2, processed_at = NOW()
		WHERE id = $3 AND status = 'pending'
		RETURNING `+transactionColumns, status, processorID, id))
	if !errors.Is(err, pgx.ErrNoRows) {
		return txn, err
	}
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return models.Transaction{}, err
	}
	if !exists {
		return models.Transaction{}, pkg.NewNotFoundError("transaction not found")
	}
	return models.Transaction{}, pkg.NewAlreadyProcessedError()
}

func (f TransactionFilter) where() (string, []any) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.Type != nil {
		args = append(args, *f.Type)
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var (
		txn     models.Transaction
		details []byte
	)
	err := row.Scan(
		&txn.ID,
		&txn.OwnerID,
		&txn.Type,
		&txn.Amount,
		&txn.Method,
		&txn.Asset,
		&details,
		&txn.Status,
		&txn.ProcessedBy,
		&txn.ProcessedAt,
		&txn.IdempotencyKey,
		&txn.CreatedAt,
	)
	if err != nil {
		return models.Transaction{}, err
	}
	txn.Details, err = models.ParseDetails(txn.Type, details)
	return txn, err
}
