package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/auth"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/configs"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var seedMethods = []string{"usdt_trc20", "usdt_erc20", "btc", "eth", "bank_transfer"}

func strPtr(s string) *string { return &s }

var seedTraders = []models.Trader{
	{Name: "John Martinez", Image: strPtr("https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=200"), Profit: "+58.24%", Followers: 1250, Risk: pkg.RiskMedium, Trades: 342, WinRate: "76.71%"},
	{Name: "Sarah Chen", Image: strPtr("https://images.unsplash.com/photo-1494790108377-be9c29b29330?w=200"), Profit: "+92.15%", Followers: 2100, Risk: pkg.RiskHigh, Trades: 521, WinRate: "82.34%"},
	{Name: "Michael Johnson", Image: strPtr("https://images.unsplash.com/photo-1500648767791-00dcc994a43e?w=200"), Profit: "+45.67%", Followers: 890, Risk: pkg.RiskLow, Trades: 289, WinRate: "71.23%"},
	{Name: "Emma Williams", Image: strPtr("https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=200"), Profit: "+73.89%", Followers: 1780, Risk: pkg.RiskMedium, Trades: 456, WinRate: "79.45%"},
}

var seedPlans = []models.Plan{
	{Name: "Starter", Price: decimal.NewFromInt(500), Duration: "30 days", Features: []string{
		"Copy up to 2 traders", "Basic risk management", "Email support", "Market analysis reports"}},
	{Name: "Professional", Price: decimal.NewFromInt(2000), Duration: "30 days", Popular: true, Features: []string{
		"Copy up to 5 traders", "Advanced risk management", "Priority support", "Daily market analysis", "Trading signals"}},
	{Name: "Elite", Price: decimal.NewFromInt(5000), Duration: "30 days", Features: []string{
		"Copy unlimited traders", "Custom risk management", "24/7 VIP support", "Personal account manager", "Premium trading signals", "Exclusive webinars"}},
}

// main seeds demo accounts and pending requests into the database.
// Inserts run inside a single transaction so a failed run leaves nothing behind.
func main() {
	noOfUsers := flag.Int("noOfUsers", 20, "Number of demo users to seed")
	maxRequests := flag.Int("maxRequests", 3, "Max pending requests per user")
	minBalance := flag.Float64("minBalance", 500.0, "Min starting balance")
	maxBalance := flag.Float64("maxBalance", 5000.0, "Max starting balance")
	password := flag.String("password", "password123", "Password for every demo user")
	flag.Parse()

	_ = godotenv.Load()

	// Initialize logger
	pkg.InitLogger()
	logger := pkg.Logger
	defer logger.Sync()

	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	dbConfig := database.Config{
		PrimaryDSN:  cfg.PrimaryDbAddr,
		ReplicaDSNs: []string{cfg.ReplicaDbAddr},
		MaxConns:    cfg.MaxDbCons,
		MinConns:    cfg.MinDbCons,
	}

	ctx := context.Background()
	db, closer, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		logger.Fatal("failed to init DB", zap.Error(err))
	}
	defer closer()

	if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		logger.Fatal("failed to hash demo password", zap.Error(err))
	}

	accountRepo := repositories.NewAccountRepository()
	txnRepo := repositories.NewTransactionRepository()
	traderRepo := repositories.NewTraderRepository()
	planRepo := repositories.NewPlanRepository()
	copyTradeRepo := repositories.NewCopyTradeRepository()

	minBal, maxBal := *minBalance, *maxBalance
	if minBal > maxBal {
		minBal, maxBal = maxBal, minBal
	}
	maxReq := *maxRequests
	if maxReq < 1 {
		maxReq = 1
	}

	err = db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		traders, err := seedCatalog(ctx, logger, tx, traderRepo, planRepo)
		if err != nil {
			return err
		}
		for i := 1; i <= *noOfUsers; i++ {
			bal := decimal.NewFromFloat(minBal + rand.Float64()*(maxBal-minBal)).Round(2)
			account, err := accountRepo.Create(ctx, tx, models.Account{
				Email:        fmt.Sprintf("trader_%d@example.com", i),
				PasswordHash: hash,
				FullName:     fmt.Sprintf("Demo Trader %d", i),
				Role:         pkg.RoleUser,
				Status:       pkg.AccountStatusActive,
				Balance:      bal,
			})
			if err != nil {
				return err
			}
			logger.Info("seeded account", zap.String(pkg.AccountId, account.ID.String()), zap.String("balance", bal.StringFixed(2)))

			for k := 0; k < rand.Intn(maxReq)+1; k++ {
				txn, err := txnRepo.Create(ctx, tx, demoRequest(account.ID, bal))
				if err != nil {
					return err
				}
				logger.Info("seeded pending request",
					zap.String(pkg.TransactionId, txn.ID.String()),
					zap.String("type", string(txn.Type)),
					zap.String("amount", txn.Amount.StringFixed(2)))
			}

			// up to two simulated copy positions, each a slice of the balance
			rand.Shuffle(len(traders), func(a, b int) { traders[a], traders[b] = traders[b], traders[a] })
			copies := min(rand.Intn(3), len(traders))
			for k := 0; k < copies; k++ {
				amount := bal.Div(decimal.NewFromInt(4)).Round(2)
				if !amount.IsPositive() {
					break
				}
				profit := amount.Mul(decimal.NewFromFloat(rand.Float64()*0.3 - 0.05)).Round(2)
				if _, err := copyTradeRepo.Create(ctx, tx, models.CopyTrade{
					OwnerID:       account.ID,
					TraderID:      traders[k].ID,
					Amount:        amount,
					CurrentProfit: profit,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.Fatal("failed to seed data", zap.Error(err))
	}
	logger.Info("seed completed", zap.Int("users", *noOfUsers))
}

// seedCatalog inserts the demo traders and plans unless a catalog already exists, and returns the active traders.
func seedCatalog(ctx context.Context, logger *zap.Logger, tx pgx.Tx, traderRepo repositories.TraderRepository, planRepo repositories.PlanRepository) ([]models.Trader, error) {
	count, err := traderRepo.CountActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		for _, trader := range seedTraders {
			if _, err := traderRepo.Create(ctx, tx, trader); err != nil {
				return nil, err
			}
		}
		logger.Info("seeded traders", zap.Int("count", len(seedTraders)))
	}
	count, err = planRepo.CountActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		for _, plan := range seedPlans {
			if _, err := planRepo.Create(ctx, tx, plan); err != nil {
				return nil, err
			}
		}
		logger.Info("seeded plans", zap.Int("count", len(seedPlans)))
	}
	return traderRepo.ListActive(ctx, tx)
}

// demoRequest builds a pending deposit, or a withdrawal within balance when the account can afford one.
func demoRequest(ownerID uuid.UUID, balance decimal.Decimal) models.Transaction {
	method := seedMethods[rand.Intn(len(seedMethods))]
	if rand.Intn(2) == 0 && balance.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		amount := decimal.NewFromInt(int64(100 + rand.Intn(int(balance.IntPart())-99)))
		return models.Transaction{
			OwnerID: ownerID,
			Type:    pkg.TransactionTypeWithdrawal,
			Amount:  amount,
			Method:  &method,
			Details: models.WithdrawalDetails{Address: fmt.Sprintf("demo-%s", ownerID.String()[:8])},
		}
	}
	amount := decimal.NewFromInt(int64(250 + rand.Intn(4751)))
	return models.Transaction{
		OwnerID: ownerID,
		Type:    pkg.TransactionTypeDeposit,
		Amount:  amount,
		Method:  &method,
	}
}
