package repositories

import (
	"context"
	"encoding/json"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
)

// WalletRepository stores admin overrides of deposit destinations.
type WalletRepository interface {
	List(ctx context.Context, q database.Querier) ([]models.WalletAddress, error)
	Find(ctx context.Context, q database.Querier, method string) (models.WalletAddress, error)
	Upsert(ctx context.Context, q database.Querier, method string, address json.RawMessage) (models.WalletAddress, error)
}

type WalletRepositoryImpl struct {
}

func NewWalletRepository() WalletRepository {
	return &WalletRepositoryImpl{}
}

func (w WalletRepositoryImpl) List(ctx context.Context, q database.Querier) ([]models.WalletAddress, error) {
	rows, err := q.Query(ctx, `SELECT method, address, updated_at FROM wallet_addresses ORDER BY method`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	wallets := make([]models.WalletAddress, 0)
	for rows.Next() {
		var wallet models.WalletAddress
		if err := rows.Scan(&wallet.Method, &wallet.Address, &wallet.UpdatedAt); err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	return wallets, rows.Err()
}

func (w WalletRepositoryImpl) Find(ctx context.Context, q database.Querier, method string) (models.WalletAddress, error) {
	var wallet models.WalletAddress
	err := q.QueryRow(ctx, `SELECT method, address, updated_at FROM wallet_addresses WHERE method = $1`, method).
		Scan(&wallet.Method, &wallet.Address, &wallet.UpdatedAt)
	return wallet, notFound(err, "wallet address not found")
}

func (w WalletRepositoryImpl) Upsert(ctx context.Context, q database.Querier, method string, address json.RawMessage) (models.WalletAddress, error) {
	var wallet models.WalletAddress
	err := q.QueryRow(ctx, `
		INSERT INTO wallet_addresses (method, address, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (method) DO UPDATE SET address = EXCLUDED.address, updated_at = NOW()
		RETURNING method, address, updated_at`, method, []byte(address)).
		Scan(&wallet.Method, &wallet.Address, &wallet.UpdatedAt)
	return wallet, err
}
