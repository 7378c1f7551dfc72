package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/auth"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const TokenSecret = "test-secret-0123456789abcdef"

func NewTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(TokenSecret, time.Hour)
}

// SeedAccount stores an active account with the given role and balance. The password is "password123".
func SeedAccount(t *testing.T, store *MemStore, email string, role pkg.Role, balance string) models.Account {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	repo := &AccountRepo{Store: store}
	account, err := repo.Create(context.Background(), store, models.Account{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test " + string(role),
		Role:         role,
		Status:       pkg.AccountStatusActive,
		Balance:      decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return account
}

// SeedPending stores a pending transaction owned by ownerID.
func SeedPending(t *testing.T, store *MemStore, ownerID uuid.UUID, txType pkg.TransactionType, amount string) models.Transaction {
	t.Helper()
	method := "usdt_trc20"
	txn := models.Transaction{
		OwnerID: ownerID,
		Type:    txType,
		Amount:  decimal.RequireFromString(amount),
		Method:  &method,
	}
	if txType == pkg.TransactionTypeWithdrawal {
		txn.Details = models.WithdrawalDetails{Address: "TXYZ1234"}
	}
	repo := &TransactionRepo{Store: store}
	created, err := repo.Create(context.Background(), store, txn)
	require.NoError(t, err)
	return created
}

func PrincipalOf(a models.Account) views.Principal {
	return views.Principal{AccountID: a.ID, Role: a.Role}
}

// RecordingPublisher keeps every published event in order.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []views.LedgerEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, _ string, event views.LedgerEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *RecordingPublisher) Close() {}

func (p *RecordingPublisher) Events() []views.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]views.LedgerEvent(nil), p.events...)
}

// Types returns the event types in publish order.
func (p *RecordingPublisher) Types() []pkg.EventType {
	events := p.Events()
	out := make([]pkg.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

// SeedTrader stores an active trader with the given follower count.
func SeedTrader(t *testing.T, store *MemStore, name string, followers int) models.Trader {
	t.Helper()
	trader, err := (&TraderRepo{Store: store}).Create(context.Background(), store, models.Trader{
		Name:      name,
		Profit:    "+100%",
		Followers: followers,
		Risk:      pkg.RiskMedium,
		WinRate:   "70%",
	})
	require.NoError(t, err)
	return trader
}

// SeedCopyTrade stores an active position of ownerID on traderID carrying profit.
func SeedCopyTrade(t *testing.T, store *MemStore, ownerID, traderID uuid.UUID, amount, profit string) models.CopyTrade {
	t.Helper()
	copyTrade, err := (&CopyTradeRepo{Store: store}).Create(context.Background(), store, models.CopyTrade{
		OwnerID:       ownerID,
		TraderID:      traderID,
		Amount:        decimal.RequireFromString(amount),
		CurrentProfit: decimal.RequireFromString(profit),
	})
	require.NoError(t, err)
	return copyTrade
}

// StatsRepos wires every in-memory repository the stats service reads.
func StatsRepos(store *MemStore) services.StatsRepositories {
	return services.StatsRepositories{
		Accounts:     &AccountRepo{Store: store},
		Transactions: &TransactionRepo{Store: store},
		Traders:      &TraderRepo{Store: store},
		Plans:        &PlanRepo{Store: store},
		CopyTrades:   &CopyTradeRepo{Store: store},
	}
}
