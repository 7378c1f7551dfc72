package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, email, password_hash, full_name, role, status, balance, phone, country, picture, created_at, updated_at`

// AccountRepository defines the interface for the account store.
// Balance is the single source of truth; every mutation bumps updated_at.
type AccountRepository interface {
	// Create inserts a new account. A duplicate email surfaces as a postgres unique_violation.
	Create(ctx context.Context, q database.Querier, account models.Account) (models.Account, error)
	FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Account, error)
	// FindByIDForUpdate locks the account row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Account, error)
	FindByEmail(ctx context.Context, q database.Querier, email string) (models.Account, error)
	// AdjustBalance applies delta in one guarded statement; it never produces a negative balance.
	AdjustBalance(ctx context.Context, q database.Querier, id uuid.UUID, delta decimal.Decimal) (models.Account, error)
	// SetBalance is the admin override; newBalance must be >= 0.
	SetBalance(ctx context.Context, q database.Querier, id uuid.UUID, newBalance decimal.Decimal) (models.Account, error)
	UpdateProfile(ctx context.Context, q database.Querier, id uuid.UUID, update models.ProfileUpdate) (models.Account, error)
	UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status pkg.AccountStatus) (models.Account, error)
	UpdateRole(ctx context.Context, q database.Querier, id uuid.UUID, role pkg.Role) (models.Account, error)
	List(ctx context.Context, q database.Querier, limit, offset int) ([]models.Account, error)
	CountByRole(ctx context.Context, q database.Querier, role pkg.Role) (int64, error)
	SumBalance(ctx context.Context, q database.Querier, role pkg.Role) (decimal.Decimal, error)
}

type AccountRepositoryImpl struct {
}

func NewAccountRepository() AccountRepository {
	return &AccountRepositoryImpl{}
}

func (a AccountRepositoryImpl) Create(ctx context.Context, q database.Querier, account models.Account) (models.Account, error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	row := q.QueryRow(ctx, `
		INSERT INTO accounts (id, email, password_hash, full_name, role, status, balance, phone, country, picture, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING `+accountColumns,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.FullName,
		account.Role,
		account.Status,
		account.Balance,
		account.Phone,
		account.Country,
		account.Picture,
	)
	return scanAccount(row)
}

func (a AccountRepositoryImpl) FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Account, error) {
	account, err := scanAccount(q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	return account, notFound(err, "account not found")
}

func (a AccountRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Account, error) {
	account, err := scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
	return account, notFound(err, "account not found")
}

func (a AccountRepositoryImpl) FindByEmail(ctx context.Context, q database.Querier, email string) (models.Account, error) {
	account, err := scanAccount(q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
	return account, notFound(err, "account not found")
}

func (a AccountRepositoryImpl) AdjustBalance(ctx context.Context, q database.Querier, id uuid.UUID, delta decimal.Decimal) (models.Account, error) {
	account, err := scanAccount(q.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND balance + $1 >= 0
		RETURNING `+accountColumns, delta, id))
	if !errors.Is(err, pgx.ErrNoRows) {
		return account, err
	}
	// Either the row is gone or the guard refused the delta.
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return models.Account{}, err
	}
	if !exists {
		return models.Account{}, pkg.NewNotFoundError("account not found")
	}
	return models.Account{}, pkg.NewInsufficientFundsError()
}

func (a AccountRepositoryImpl) SetBalance(ctx context.Context, q database.Querier, id uuid.UUID, newBalance decimal.Decimal) (models.Account, error) {
	if newBalance.IsNegative() {
		return models.Account{}, pkg.NewValidationError("balance must not be negative")
	}
	account, err := scanAccount(q.QueryRow(ctx, `
		UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2
		RETURNING `+accountColumns, newBalance, id))
	return account, notFound(err, "account not found")
}

func (a AccountRepositoryImpl) UpdateProfile(ctx context.Context, q database.Querier, id uuid.UUID, update models.ProfileUpdate) (models.Account, error) {
	account, err := scanAccount(q.QueryRow(ctx, `
		UPDATE accounts SET
			full_name = COALESCE($1, full_name),
			phone = COALESCE($2, phone),
			country = COALESCE($3, country),
			picture = COALESCE($4, picture),
			updated_at = NOW()
		WHERE id = $5
		RETURNING `+accountColumns,
		update.FullName, update.Phone, update.Country, update.Picture, id))
	return account, notFound(err, "account not found")
}

func (a AccountRepositoryImpl) UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status pkg.AccountStatus) (models.Account, error) {
	account, err := scanAccount(q.QueryRow(ctx, `
		UPDATE accounts SET status = $1, updated_at = NOW() WHERE id = $2
		RETURNING `+accountColumns, status, id))
	return account, notFound(err, "account not found")
}

func (a AccountRepositoryImpl) UpdateRole(ctx context.Context, q database.Querier, id uuid.UUID, role pkg.Role) (models.Account, error) {
	account, err := scanAccount(q.QueryRow(ctx, `
		UPDATE accounts SET role = $1, updated_at = NOW() WHERE id = $2
		RETURNING `+accountColumns, role, id))
	return account, notFound(err, "account not found")
}

func (a AccountRepositoryImpl) List(ctx context.Context, q database.Querier, limit, offset int) ([]models.Account, error) {
	rows, err := q.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accounts := make([]models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (a AccountRepositoryImpl) CountByRole(ctx context.Context, q database.Querier, role pkg.Role) (int64, error) {
	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE role = $1`, role).Scan(&count)
	return count, err
}

func (a AccountRepositoryImpl) SumBalance(ctx context.Context, q database.Querier, role pkg.Role) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE role = $1`, role).Scan(&total)
	return total, err
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.FullName,
		&account.Role,
		&account.Status,
		&account.Balance,
		&account.Phone,
		&account.Country,
		&account.Picture,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}

// notFound maps pgx.ErrNoRows to a NotFound AppError and passes everything else through.
func notFound(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return pkg.NewNotFoundError(msg)
	}
	return err
}
