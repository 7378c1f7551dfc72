package services

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"go.uber.org/zap"
)

// defaultWallets are the built-in deposit destinations; rows in wallet_addresses override them.
var defaultWallets = map[string]json.RawMessage{
	"bitcoin":       json.RawMessage(`"bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"`),
	"ethereum":      json.RawMessage(`"0x742d35Cc6634C0532925a3b844Bc454e4438f44e"`),
	"usdt_trc20":    json.RawMessage(`"TN3W4H6rK2ce4vX9YnFQHwKENnHjoxb3m9"`),
	"usdt_erc20":    json.RawMessage(`"0x742d35Cc6634C0532925a3b844Bc454e4438f44e"`),
	"bank_transfer": json.RawMessage(`{"bankName":"CopyTrade Bank","accountName":"CopyTrade Ltd","accountNumber":"1234567890","routingNumber":"021000021","swift":"CTBKUS33"}`),
	"paypal":        json.RawMessage(`"payments@copytrade.example"`),
}

// WalletService is the deposit destination directory.
type WalletService interface {
	List(ctx context.Context, traceID string) ([]views.WalletView, error)
	Get(ctx context.Context, traceID, method string) (views.WalletView, error)
	Set(ctx context.Context, traceID string, principal views.Principal, method string, address json.RawMessage) (views.WalletView, error)
}

type WalletServiceImpl struct {
	logger     *zap.Logger
	db         database.Store
	walletRepo repositories.WalletRepository
}

func NewWalletService(logger *zap.Logger, db database.Store, walletRepo repositories.WalletRepository) WalletService {
	return &WalletServiceImpl{logger: logger, db: db, walletRepo: walletRepo}
}

func (s *WalletServiceImpl) List(ctx context.Context, traceID string) ([]views.WalletView, error) {
	stored, err := s.walletRepo.List(ctx, s.db)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	merged := make(map[string]json.RawMessage, len(defaultWallets)+len(stored))
	for method, address := range defaultWallets {
		merged[method] = address
	}
	for _, wallet := range stored {
		merged[wallet.Method] = wallet.Address
	}
	wallets := make([]views.WalletView, 0, len(merged))
	for method, address := range merged {
		wallets = append(wallets, views.WalletView{Method: method, Address: address})
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Method < wallets[j].Method })
	return wallets, nil
}

func (s *WalletServiceImpl) Get(ctx context.Context, traceID, method string) (views.WalletView, error) {
	method = normalizeMethod(method)
	wallet, err := s.walletRepo.Find(ctx, s.db, method)
	if err == nil {
		return views.WalletView{Method: wallet.Method, Address: wallet.Address}, nil
	}
	if !pkg.HasCode(err, pkg.ErrRecordNotFoundCode) {
		return views.WalletView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if address, ok := defaultWallets[method]; ok {
		return views.WalletView{Method: method, Address: address}, nil
	}
	return views.WalletView{}, pkg.NewNotFoundError("payment method not found")
}

func (s *WalletServiceImpl) Set(ctx context.Context, traceID string, principal views.Principal, method string, address json.RawMessage) (views.WalletView, error) {
	if err := requireAdmin(principal); err != nil {
		return views.WalletView{}, err
	}
	method = normalizeMethod(method)
	if method == "" {
		return views.WalletView{}, pkg.NewValidationError("method is required")
	}
	address, err := validateAddress(address)
	if err != nil {
		return views.WalletView{}, err
	}

	var view views.WalletView
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		wallet, err := s.walletRepo.Upsert(ctx, tx, method, address)
		view = views.WalletView{Method: wallet.Method, Address: wallet.Address}
		return err
	})
	if err != nil {
		return views.WalletView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("wallet address updated",
		zap.String(pkg.TraceId, traceID),
		zap.String("method", method),
		zap.String("admin_id", principal.AccountID.String()))
	return view, nil
}

// validateAddress accepts a non-empty JSON string or a non-empty JSON object.
func validateAddress(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	missing := pkg.NewValidationError("address is required")
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, missing
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil || strings.TrimSpace(s) == "" {
			return nil, missing
		}
		return json.Marshal(strings.TrimSpace(s))
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, pkg.NewValidationError("address must be a string or an object")
		}
		if len(obj) == 0 {
			return nil, missing
		}
		return json.RawMessage(trimmed), nil
	default:
		return nil, pkg.NewValidationError("address must be a string or an object")
	}
}

func normalizeMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}
