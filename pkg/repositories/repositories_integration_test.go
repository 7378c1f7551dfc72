//go:build integration

package repositories_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database/dbtest"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAccount(t *testing.T, db *database.DB, email, balance string) models.Account {
	t.Helper()
	var account models.Account
	err := db.WithTransaction(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		var err error
		account, err = repositories.NewAccountRepository().Create(ctx, tx, models.Account{
			Email:        email,
			PasswordHash: "hash",
			FullName:     "Integration " + email,
			Role:         pkg.RoleUser,
			Status:       pkg.AccountStatusActive,
			Balance:      decimal.RequireFromString(balance),
		})
		return err
	})
	require.NoError(t, err)
	return account
}

func inTx[T any](t *testing.T, db *database.DB, fn func(ctx context.Context, tx pgx.Tx) (T, error)) (T, error) {
	t.Helper()
	var out T
	err := db.WithTransaction(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		var err error
		out, err = fn(ctx, tx)
		return err
	})
	return out, err
}

func TestRepositories_Postgres(t *testing.T) {
	db := dbtest.StartPostgres(t)
	accounts := repositories.NewAccountRepository()
	txns := repositories.NewTransactionRepository()
	wallets := repositories.NewWalletRepository()
	ctx := context.Background()

	t.Run("duplicate email is a unique violation", func(t *testing.T) {
		createAccount(t, db, "dup@example.com", "0")
		_, err := inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Account, error) {
			return accounts.Create(ctx, tx, models.Account{
				Email: "dup@example.com", PasswordHash: "x", FullName: "Dup", Role: pkg.RoleUser, Status: pkg.AccountStatusActive,
			})
		})
		assert.True(t, pkg.IsUniqueViolation(err), "got %v", err)
	})

	t.Run("balance guard", func(t *testing.T) {
		account := createAccount(t, db, "guard@example.com", "100.00")

		updated, err := inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Account, error) {
			return accounts.AdjustBalance(ctx, tx, account.ID, decimal.RequireFromString("-99.99"))
		})
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.01").Equal(updated.Balance), "got %s", updated.Balance)

		_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Account, error) {
			return accounts.AdjustBalance(ctx, tx, account.ID, decimal.RequireFromString("-0.02"))
		})
		assert.True(t, pkg.HasCode(err, pkg.ErrInsufficientFundsCode), "got %v", err)

		_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Account, error) {
			return accounts.AdjustBalance(ctx, tx, uuid.New(), decimal.NewFromInt(1))
		})
		assert.True(t, pkg.HasCode(err, pkg.ErrRecordNotFoundCode), "got %v", err)

		_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Account, error) {
			return accounts.SetBalance(ctx, tx, account.ID, decimal.NewFromInt(-1))
		})
		assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode), "got %v", err)
	})

	t.Run("profile update keeps omitted fields", func(t *testing.T) {
		account := createAccount(t, db, "profile@example.com", "0")
		country := "NZ"
		updated, err := inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Account, error) {
			return accounts.UpdateProfile(ctx, tx, account.ID, models.ProfileUpdate{Country: &country})
		})
		require.NoError(t, err)
		assert.Equal(t, account.FullName, updated.FullName)
		require.NotNil(t, updated.Country)
		assert.Equal(t, "NZ", *updated.Country)
		assert.False(t, updated.UpdatedAt.Before(account.UpdatedAt))
	})

	t.Run("transaction lifecycle", func(t *testing.T) {
		owner := createAccount(t, db, "owner@example.com", "500")
		admin := createAccount(t, db, "approver@example.com", "0")
		method := "usdt_trc20"
		key := uuid.New()

		created, err := inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Transaction, error) {
			return txns.Create(ctx, tx, models.Transaction{
				OwnerID:        owner.ID,
				Type:           pkg.TransactionTypeWithdrawal,
				Amount:         decimal.RequireFromString("120.50"),
				Method:         &method,
				Details:        models.WithdrawalDetails{Address: "TXYZ1234"},
				Status:         pkg.TransactionStatusCompleted,
				IdempotencyKey: &key,
			})
		})
		require.NoError(t, err)
		assert.Equal(t, pkg.TransactionStatusPending, created.Status, "inserts are always pending")
		assert.Equal(t, models.WithdrawalDetails{Address: "TXYZ1234"}, created.Details)

		found, err := txns.FindByIdempotencyKey(ctx, db, owner.ID, key)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)

		_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Transaction, error) {
			return txns.Create(ctx, tx, models.Transaction{
				OwnerID: owner.ID, Type: pkg.TransactionTypeDeposit, Amount: decimal.NewFromInt(300), Method: &method, IdempotencyKey: &key,
			})
		})
		assert.True(t, pkg.IsUniqueViolation(err), "got %v", err)

		completed, err := inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Transaction, error) {
			return txns.MarkCompleted(ctx, tx, created.ID, admin.ID)
		})
		require.NoError(t, err)
		assert.Equal(t, pkg.TransactionStatusCompleted, completed.Status)
		require.NotNil(t, completed.ProcessedBy)
		assert.Equal(t, admin.ID, *completed.ProcessedBy)
		assert.NotNil(t, completed.ProcessedAt)

		_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Transaction, error) {
			return txns.MarkRejected(ctx, tx, created.ID, admin.ID)
		})
		assert.True(t, pkg.HasCode(err, pkg.ErrAlreadyProcessedCode), "got %v", err)

		_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Transaction, error) {
			return txns.MarkCompleted(ctx, tx, uuid.New(), admin.ID)
		})
		assert.True(t, pkg.HasCode(err, pkg.ErrRecordNotFoundCode), "got %v", err)
	})

	t.Run("filters and ordering", func(t *testing.T) {
		owner := createAccount(t, db, "filters@example.com", "0")
		ids := make([]uuid.UUID, 0, 3)
		for _, txType := range []pkg.TransactionType{pkg.TransactionTypeTrade, pkg.TransactionTypeDeposit, pkg.TransactionTypeTrade} {
			txn, err := inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Transaction, error) {
				return txns.Create(ctx, tx, models.Transaction{OwnerID: owner.ID, Type: txType, Amount: decimal.NewFromInt(300)})
			})
			require.NoError(t, err)
			ids = append(ids, txn.ID)
		}

		mine, err := txns.ListByOwner(ctx, db, owner.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, mine, 3)
		assert.Equal(t, ids[2], mine[0].ID, "newest first")

		trade := pkg.TransactionTypeTrade
		n, err := txns.Count(ctx, db, repositories.TransactionFilter{OwnerID: &owner.ID, Type: &trade})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		paged, err := txns.ListByOwner(ctx, db, owner.ID, 1, 1)
		require.NoError(t, err)
		require.Len(t, paged, 1)
		assert.Equal(t, ids[1], paged[0].ID)
	})

	t.Run("wallet upsert", func(t *testing.T) {
		_, err := wallets.Find(ctx, db, "bitcoin")
		assert.True(t, pkg.HasCode(err, pkg.ErrRecordNotFoundCode), "got %v", err)

		for _, address := range []string{`"bc1qfirst"`, `"bc1qsecond"`} {
			_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.WalletAddress, error) {
				return wallets.Upsert(ctx, tx, "bitcoin", json.RawMessage(address))
			})
			require.NoError(t, err)
		}
		wallet, err := wallets.Find(ctx, db, "bitcoin")
		require.NoError(t, err)
		assert.JSONEq(t, `"bc1qsecond"`, string(wallet.Address))

		all, err := wallets.List(ctx, db)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("catalog and copy positions", func(t *testing.T) {
		traders := repositories.NewTraderRepository()
		plans := repositories.NewPlanRepository()
		copies := repositories.NewCopyTradeRepository()
		owner := createAccount(t, db, "copier@example.com", "1000")

		trader, err := inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Trader, error) {
			return traders.Create(ctx, tx, models.Trader{Name: "Ada", Profit: "+120%", Risk: pkg.RiskLow, WinRate: "71%", Followers: 40})
		})
		require.NoError(t, err)
		assert.True(t, trader.IsActive)
		_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Plan, error) {
			return plans.Create(ctx, tx, models.Plan{Name: "Pro", Price: decimal.RequireFromString("299"), Duration: "monthly", Features: []string{"Copy up to 5 traders"}})
		})
		require.NoError(t, err)
		_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.Plan, error) {
			return plans.Create(ctx, tx, models.Plan{Name: "Pro", Price: decimal.RequireFromString("1"), Duration: "monthly"})
		})
		assert.True(t, pkg.IsUniqueViolation(err), "got %v", err)

		activePlans, err := plans.ListActive(ctx, db)
		require.NoError(t, err)
		require.Len(t, activePlans, 1)
		assert.Equal(t, []string{"Copy up to 5 traders"}, activePlans[0].Features)

		position, err := inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.CopyTrade, error) {
			return copies.Create(ctx, tx, models.CopyTrade{OwnerID: owner.ID, TraderID: trader.ID, Amount: decimal.NewFromInt(200), CurrentProfit: decimal.RequireFromString("12.50")})
		})
		require.NoError(t, err)
		_, err = inTx(t, db, func(ctx context.Context, tx pgx.Tx) (models.CopyTrade, error) {
			return copies.Create(ctx, tx, models.CopyTrade{OwnerID: owner.ID, TraderID: trader.ID, Amount: decimal.NewFromInt(50)})
		})
		assert.True(t, pkg.IsUniqueViolation(err), "second active copy of one trader: %v", err)

		summary, err := copies.ActiveSummary(ctx, db, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.ActiveCopies)
		assert.True(t, decimal.RequireFromString("12.50").Equal(summary.Profit))

		stop := func(ctx context.Context, tx pgx.Tx) (models.CopyTrade, error) {
			return copies.Stop(ctx, tx, position.ID, owner.ID)
		}
		stopped, err := inTx(t, db, stop)
		require.NoError(t, err)
		assert.Equal(t, pkg.CopyTradeStopped, stopped.Status)
		assert.NotNil(t, stopped.EndedAt)
		_, err = inTx(t, db, stop)
		assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode), "got %v", err)

		summary, err = copies.ActiveSummary(ctx, db, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), summary.ActiveCopies)
		assert.True(t, summary.Profit.IsZero())
	})
}
