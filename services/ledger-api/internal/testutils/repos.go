package testutils

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/shopspring/decimal"
)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// txOf returns the MemTx behind q, or nil when q is the store itself.
func txOf(q database.Querier) *MemTx {
	tx, _ := q.(*MemTx)
	return tx
}

// lagging reports whether q is the replica-routed store with ReplicaLag set.
func lagging(q database.Querier) bool {
	s, ok := q.(*MemStore)
	return ok && s.ReplicaLag.Load()
}

// AccountRepo mirrors repositories.AccountRepositoryImpl against a MemStore.
type AccountRepo struct {
	Store *MemStore
}

var _ repositories.AccountRepository = (*AccountRepo)(nil)

func (r *AccountRepo) Create(_ context.Context, q database.Querier, account models.Account) (models.Account, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return models.Account{}, uniqueViolation("accounts_email_key")
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := time.Now().UTC()
	account.CreatedAt, account.UpdatedAt = now, now
	s.accounts[account.ID] = account
	if tx := txOf(q); tx != nil {
		id := account.ID
		tx.onRollback(func() { delete(s.accounts, id) })
	}
	return account, nil
}

func (r *AccountRepo) FindByID(_ context.Context, q database.Querier, id uuid.UUID) (models.Account, error) {
	if lagging(q) {
		return models.Account{}, pkg.NewNotFoundError("account not found")
	}
	a, ok := r.Store.Account(id)
	if !ok {
		return models.Account{}, pkg.NewNotFoundError("account not found")
	}
	return a, nil
}

func (r *AccountRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Account, error) {
	if memTx, ok := tx.(*MemTx); ok {
		memTx.lock("acct:" + id.String())
	}
	return r.FindByID(ctx, tx, id)
}

func (r *AccountRepo) FindByEmail(_ context.Context, q database.Querier, email string) (models.Account, error) {
	if lagging(q) {
		return models.Account{}, pkg.NewNotFoundError("account not found")
	}
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return models.Account{}, pkg.NewNotFoundError("account not found")
}

// update applies fn to the stored row and records an undo step when running inside a MemTx.
func (r *AccountRepo) update(q database.Querier, id uuid.UUID, fn func(a *models.Account) error) (models.Account, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.accounts[id]
	if !ok {
		return models.Account{}, pkg.NewNotFoundError("account not found")
	}
	after := before
	if err := fn(&after); err != nil {
		return models.Account{}, err
	}
	after.UpdatedAt = time.Now().UTC()
	s.accounts[id] = after
	if tx := txOf(q); tx != nil {
		tx.onRollback(func() { s.accounts[id] = before })
	}
	return after, nil
}

func (r *AccountRepo) AdjustBalance(_ context.Context, q database.Querier, id uuid.UUID, delta decimal.Decimal) (models.Account, error) {
	return r.update(q, id, func(a *models.Account) error {
		next := a.Balance.Add(delta)
		if next.IsNegative() {
			return pkg.NewInsufficientFundsError()
		}
		a.Balance = next
		return nil
	})
}

func (r *AccountRepo) SetBalance(_ context.Context, q database.Querier, id uuid.UUID, newBalance decimal.Decimal) (models.Account, error) {
	if newBalance.IsNegative() {
		return models.Account{}, pkg.NewValidationError("balance must not be negative")
	}
	return r.update(q, id, func(a *models.Account) error {
		a.Balance = newBalance
		return nil
	})
}

func (r *AccountRepo) UpdateProfile(_ context.Context, q database.Querier, id uuid.UUID, update models.ProfileUpdate) (models.Account, error) {
	return r.update(q, id, func(a *models.Account) error {
		if update.FullName != nil {
			a.FullName = *update.FullName
		}
		if update.Phone != nil {
			a.Phone = update.Phone
		}
		if update.Country != nil {
			a.Country = update.Country
		}
		if update.Picture != nil {
			a.Picture = update.Picture
		}
		return nil
	})
}

func (r *AccountRepo) UpdateStatus(_ context.Context, q database.Querier, id uuid.UUID, status pkg.AccountStatus) (models.Account, error) {
	return r.update(q, id, func(a *models.Account) error {
		a.Status = status
		return nil
	})
}

func (r *AccountRepo) UpdateRole(_ context.Context, q database.Querier, id uuid.UUID, role pkg.Role) (models.Account, error) {
	return r.update(q, id, func(a *models.Account) error {
		a.Role = role
		return nil
	})
}

func (r *AccountRepo) List(_ context.Context, _ database.Querier, limit, offset int) ([]models.Account, error) {
	s := r.Store
	s.mu.Lock()
	all := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		all = append(all, a)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return page(all, limit, offset), nil
}

func (r *AccountRepo) CountByRole(_ context.Context, _ database.Querier, role pkg.Role) (int64, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *AccountRepo) SumBalance(_ context.Context, _ database.Querier, role pkg.Role) (decimal.Decimal, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, a := range s.accounts {
		if a.Role == role {
			sum = sum.Add(a.Balance)
		}
	}
	return sum, nil
}

// TransactionRepo mirrors repositories.TransactionRepositoryImpl against a MemStore.
type TransactionRepo struct {
	Store *MemStore
}

var _ repositories.TransactionRepository = (*TransactionRepo)(nil)

func (r *TransactionRepo) Create(_ context.Context, q database.Querier, txn models.Transaction) (models.Transaction, error) {
	txn, err := repositories.PrepareForInsert(txn)
	if err != nil {
		return models.Transaction{}, err
	}
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[txn.OwnerID]; !ok {
		return models.Transaction{}, &pgconn.PgError{Code: "23503", ConstraintName: "transactions_owner_id_fkey"}
	}
	if txn.IdempotencyKey != nil {
		for _, existing := range s.transactions {
			if existing.OwnerID == txn.OwnerID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *txn.IdempotencyKey {
				return models.Transaction{}, uniqueViolation("transactions_owner_idempotency_key")
			}
		}
	}
	txn.CreatedAt = time.Now().UTC()
	s.transactions[txn.ID] = txn
	s.txnOrder = append(s.txnOrder, txn.ID)
	if tx := txOf(q); tx != nil {
		id := txn.ID
		tx.onRollback(func() {
			delete(s.transactions, id)
			for i, v := range s.txnOrder {
				if v == id {
					s.txnOrder = append(s.txnOrder[:i], s.txnOrder[i+1:]...)
					break
				}
			}
		})
	}
	return txn, nil
}

func (r *TransactionRepo) FindByID(_ context.Context, _ database.Querier, id uuid.UUID) (models.Transaction, error) {
	t, ok := r.Store.Transaction(id)
	if !ok {
		return models.Transaction{}, pkg.NewNotFoundError("transaction not found")
	}
	return t, nil
}

func (r *TransactionRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Transaction, error) {
	if memTx, ok := tx.(*MemTx); ok {
		memTx.lock("txn:" + id.String())
	}
	return r.FindByID(ctx, tx, id)
}

func (r *TransactionRepo) FindByIdempotencyKey(_ context.Context, q database.Querier, ownerID, key uuid.UUID) (models.Transaction, error) {
	if lagging(q) {
		return models.Transaction{}, pkg.NewNotFoundError("transaction not found")
	}
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.OwnerID == ownerID && t.IdempotencyKey != nil && *t.IdempotencyKey == key {
			return t, nil
		}
	}
	return models.Transaction{}, pkg.NewNotFoundError("transaction not found")
}

func (r *TransactionRepo) ListByOwner(ctx context.Context, q database.Querier, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	return r.ListAll(ctx, q, repositories.TransactionFilter{OwnerID: &ownerID, Limit: limit, Offset: offset})
}

// ListAll returns matches newest first; insertion order stands in for created_at.
func (r *TransactionRepo) ListAll(_ context.Context, _ database.Querier, filter repositories.TransactionFilter) ([]models.Transaction, error) {
	return page(r.matching(filter), filter.Limit, filter.Offset), nil
}

func (r *TransactionRepo) Count(_ context.Context, _ database.Querier, filter repositories.TransactionFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *TransactionRepo) matching(filter repositories.TransactionFilter) []models.Transaction {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, 0)
	for i := len(s.txnOrder) - 1; i >= 0; i-- {
		t := s.transactions[s.txnOrder[i]]
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (r *TransactionRepo) MarkCompleted(_ context.Context, q database.Querier, id, processorID uuid.UUID) (models.Transaction, error) {
	if r.Store.FailMarkCompleted.Load() {
		return models.Transaction{}, &pgconn.PgError{Code: "57014", Message: "canceling statement due to user request"}
	}
	return r.mark(q, id, processorID, pkg.TransactionStatusCompleted)
}

func (r *TransactionRepo) MarkRejected(_ context.Context, q database.Querier, id, processorID uuid.UUID) (models.Transaction, error) {
	return r.mark(q, id, processorID, pkg.TransactionStatusRejected)
}

func (r *TransactionRepo) mark(q database.Querier, id, processorID uuid.UUID, status pkg.TransactionStatus) (models.Transaction, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, pkg.NewNotFoundError("transaction not found")
	}
	if !before.IsPending() {
		return models.Transaction{}, pkg.NewAlreadyProcessedError()
	}
	after := before
	now := time.Now().UTC()
	after.Status = status
	after.ProcessedBy = &processorID
	after.ProcessedAt = &now
	s.transactions[id] = after
	if tx := txOf(q); tx != nil {
		tx.onRollback(func() { s.transactions[id] = before })
	}
	return after, nil
}

// WalletRepo mirrors repositories.WalletRepositoryImpl against a MemStore.
type WalletRepo struct {
	Store *MemStore
}

var _ repositories.WalletRepository = (*WalletRepo)(nil)

func (r *WalletRepo) List(_ context.Context, _ database.Querier) ([]models.WalletAddress, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WalletAddress, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out, nil
}

func (r *WalletRepo) Find(_ context.Context, _ database.Querier, method string) (models.WalletAddress, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[method]
	if !ok {
		return models.WalletAddress{}, pkg.NewNotFoundError("wallet address not found")
	}
	return w, nil
}

func (r *WalletRepo) Upsert(_ context.Context, q database.Querier, method string, address json.RawMessage) (models.WalletAddress, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	before, existed := s.wallets[method]
	w := models.WalletAddress{Method: strings.TrimSpace(method), Address: address, UpdatedAt: time.Now().UTC()}
	s.wallets[method] = w
	if tx := txOf(q); tx != nil {
		tx.onRollback(func() {
			if existed {
				s.wallets[method] = before
				return
			}
			delete(s.wallets, method)
		})
	}
	return w, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
