package testutils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
)

var errRawSQL = errors.New("memstore: raw SQL is not supported")

// MemStore is an in-memory database.Store. Row locks taken through a MemTx are held until the
// transaction ends, and a failed transaction rolls its writes back.
type MemStore struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]models.Account
	transactions map[uuid.UUID]models.Transaction
	txnOrder     []uuid.UUID
	wallets      map[string]models.WalletAddress
	traders      map[uuid.UUID]models.Trader
	plans        map[uuid.UUID]models.Plan
	copyTrades   map[uuid.UUID]models.CopyTrade

	lockMu   sync.Mutex
	rowLocks map[string]*sync.Mutex

	// FailMarkCompleted makes the next MarkCompleted calls fail, to exercise rollback.
	FailMarkCompleted atomic.Bool
	// PingErr is returned from Ping.
	PingErr error
	// ReplicaLag makes point lookups through the store itself miss, like a replica that has not
	// caught up. Reads through Primary() and inside transactions are unaffected.
	ReplicaLag atomic.Bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		accounts:     make(map[uuid.UUID]models.Account),
		transactions: make(map[uuid.UUID]models.Transaction),
		wallets:      make(map[string]models.WalletAddress),
		traders:      make(map[uuid.UUID]models.Trader),
		plans:        make(map[uuid.UUID]models.Plan),
		copyTrades:   make(map[uuid.UUID]models.CopyTrade),
		rowLocks:     make(map[string]*sync.Mutex),
	}
}

func (s *MemStore) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errRawSQL
}

func (s *MemStore) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errRawSQL
}

func (s *MemStore) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

// Primary returns a view of the store that never lags.
func (s *MemStore) Primary() database.Querier {
	return primaryView{s}
}

type primaryView struct {
	*MemStore
}

func (s *MemStore) Ping(context.Context) error {
	return s.PingErr
}

// WithTransaction runs fn with a MemTx. Locks are released after commit or rollback.
func (s *MemStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx := &MemTx{store: s, held: make(map[string]*sync.Mutex)}
	err := fn(ctx, tx)
	if err != nil {
		tx.rollback()
	}
	tx.release()
	return err
}

// Account returns a snapshot of the stored account.
func (s *MemStore) Account(id uuid.UUID) (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

// Transaction returns a snapshot of the stored transaction.
func (s *MemStore) Transaction(id uuid.UUID) (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	return t, ok
}

func (s *MemStore) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

func (s *MemStore) rowLock(key string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.rowLocks[key]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[key] = m
	}
	return m
}

// MemTx is the pgx.Tx handed to repositories inside MemStore.WithTransaction. Only the methods
// the fake repositories use are implemented; the embedded nil pgx.Tx panics on anything else.
type MemTx struct {
	pgx.Tx
	store *MemStore
	held  map[string]*sync.Mutex
	undo  []func()
}

// lock takes the row lock for key once per transaction, like SELECT ... FOR UPDATE.
func (tx *MemTx) lock(key string) {
	if _, ok := tx.held[key]; ok {
		return
	}
	m := tx.store.rowLock(key)
	m.Lock()
	tx.held[key] = m
}

// onRollback registers an undo step; callers hold store.mu.
func (tx *MemTx) onRollback(fn func()) {
	tx.undo = append(tx.undo, fn)
}

func (tx *MemTx) rollback() {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *MemTx) release() {
	for key, m := range tx.held {
		m.Unlock()
		delete(tx.held, key)
	}
}

func (tx *MemTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errRawSQL
}

func (tx *MemTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errRawSQL
}

func (tx *MemTx) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

type errRow struct{}

func (errRow) Scan(...any) error { return errRawSQL }
