package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/auth"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	ledgerviews "github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/views"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountService covers registration, login, self-service profile and the admin account operations.
type AccountService interface {
	Register(ctx context.Context, traceID string, req ledgerviews.RegisterRequest) (models.Account, string, error)
	Login(ctx context.Context, traceID string, req ledgerviews.LoginRequest) (models.Account, string, error)
	Me(ctx context.Context, traceID string, principal views.Principal) (models.Account, error)
	UpdateProfile(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.ProfileRequest) (models.Account, error)
	List(ctx context.Context, traceID string, principal views.Principal, limit, offset int) ([]models.Account, error)
	AdminUpdate(ctx context.Context, traceID string, principal views.Principal, accountID uuid.UUID, req ledgerviews.AdminUpdateRequest) (models.Account, error)
	AdjustBalance(ctx context.Context, traceID string, principal views.Principal, accountID uuid.UUID, delta decimal.Decimal) (models.Account, error)
	// SeedAdmin creates the admin account if the email is free; an existing account is promoted to admin.
	SeedAdmin(ctx context.Context, email, password, fullName string) (models.Account, error)
}

type AccountServiceImpl struct {
	logger          *zap.Logger
	db              database.Store
	accountRepo     repositories.AccountRepository
	tokens          *auth.TokenManager
	publisher       EventPublisher
	caseInsensitive bool
}

func NewAccountService(logger *zap.Logger, db database.Store, accountRepo repositories.AccountRepository, tokens *auth.TokenManager, publisher EventPublisher, caseInsensitiveEmails bool) AccountService {
	return &AccountServiceImpl{
		logger:          logger,
		db:              db,
		accountRepo:     accountRepo,
		tokens:          tokens,
		publisher:       publisher,
		caseInsensitive: caseInsensitiveEmails,
	}
}

func (s *AccountServiceImpl) Register(ctx context.Context, traceID string, req ledgerviews.RegisterRequest) (models.Account, string, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return models.Account{}, "", pkg.NewValidationError("fullName is required")
	}
	if len(req.Password) < auth.MinPasswordLength {
		return models.Account{}, "", pkg.NewValidationError("password is too short")
	}
	account, err := s.create(ctx, s.normalizeEmail(req.Email), req.Password, fullName, pkg.RoleUser)
	if err != nil {
		return models.Account{}, "", pkg.HandleSQLError(traceID, s.logger, err)
	}
	token, err := s.tokens.Issue(account.ID, account.Role, account.Email)
	if err != nil {
		return models.Account{}, "", err
	}

	s.logger.Info("account registered", zap.String(pkg.TraceId, traceID), zap.String(pkg.AccountId, account.ID.String()))
	s.publisher.Publish(ctx, traceID, account.ToRegisteredEvent())
	return account, token, nil
}

func (s *AccountServiceImpl) Login(ctx context.Context, traceID string, req ledgerviews.LoginRequest) (models.Account, string, error) {
	invalid := pkg.NewAppError(pkg.ErrInvalidCredentialCode, "invalid credentials", nil)

	account, err := s.accountRepo.FindByEmail(ctx, s.db, s.normalizeEmail(req.Email))
	if pkg.HasCode(err, pkg.ErrRecordNotFoundCode) {
		return models.Account{}, "", invalid
	}
	if err != nil {
		return models.Account{}, "", pkg.HandleSQLError(traceID, s.logger, err)
	}
	ok, err := auth.CheckPassword(account.PasswordHash, req.Password)
	if err != nil {
		s.logger.Error("stored credential unreadable", zap.String(pkg.TraceId, traceID), zap.String(pkg.AccountId, account.ID.String()), zap.Error(err))
		return models.Account{}, "", invalid
	}
	if !ok {
		return models.Account{}, "", invalid
	}
	if !account.IsActive() {
		return models.Account{}, "", pkg.NewAppError(pkg.ErrForbiddenCode, "account is inactive", nil)
	}
	token, err := s.tokens.Issue(account.ID, account.Role, account.Email)
	if err != nil {
		return models.Account{}, "", err
	}
	return account, token, nil
}

func (s *AccountServiceImpl) Me(ctx context.Context, traceID string, principal views.Principal) (models.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, s.db, principal.AccountID)
	if err != nil {
		return models.Account{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return account, nil
}

func (s *AccountServiceImpl) UpdateProfile(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.ProfileRequest) (models.Account, error) {
	update := models.ProfileUpdate{
		FullName: trimmedOrNil(req.FullName),
		Phone:    trimmedOrNil(req.Phone),
		Country:  trimmedOrNil(req.Country),
		Picture:  trimmedOrNil(req.Picture),
	}
	if update.IsEmpty() {
		return models.Account{}, pkg.NewValidationError("no update fields provided")
	}
	var account models.Account
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		account, err = s.accountRepo.UpdateProfile(ctx, tx, principal.AccountID, update)
		return err
	})
	if err != nil {
		return models.Account{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return account, nil
}

func (s *AccountServiceImpl) List(ctx context.Context, traceID string, principal views.Principal, limit, offset int) ([]models.Account, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.List(ctx, s.db, limit, offset)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return accounts, nil
}

// AdminUpdate applies status, role and balance overrides under the account row lock.
func (s *AccountServiceImpl) AdminUpdate(ctx context.Context, traceID string, principal views.Principal, accountID uuid.UUID, req ledgerviews.AdminUpdateRequest) (models.Account, error) {
	if err := requireAdmin(principal); err != nil {
		return models.Account{}, err
	}
	if req.Status == nil && req.Role == nil && req.Balance == nil {
		return models.Account{}, pkg.NewValidationError("no update fields provided")
	}
	if req.Status != nil && !req.Status.Valid() {
		return models.Account{}, pkg.NewValidationError("status must be one of active, inactive")
	}
	if req.Role != nil && !req.Role.Valid() {
		return models.Account{}, pkg.NewValidationError("role must be one of user, admin")
	}
	if req.Balance != nil && !req.Balance.Equal(req.Balance.Truncate(amountScale)) {
		return models.Account{}, pkg.NewValidationError("balance must have at most 2 decimal places")
	}

	var account models.Account
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		if account, err = s.accountRepo.FindByIDForUpdate(ctx, tx, accountID); err != nil {
			return err
		}
		if req.Status != nil {
			if account, err = s.accountRepo.UpdateStatus(ctx, tx, accountID, *req.Status); err != nil {
				return err
			}
		}
		if req.Role != nil {
			if account, err = s.accountRepo.UpdateRole(ctx, tx, accountID, *req.Role); err != nil {
				return err
			}
		}
		if req.Balance != nil {
			if account, err = s.accountRepo.SetBalance(ctx, tx, accountID, *req.Balance); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Account{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("account updated by admin",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.AccountId, accountID.String()),
		zap.String("admin_id", principal.AccountID.String()))
	return account, nil
}

func (s *AccountServiceImpl) AdjustBalance(ctx context.Context, traceID string, principal views.Principal, accountID uuid.UUID, delta decimal.Decimal) (models.Account, error) {
	if err := requireAdmin(principal); err != nil {
		return models.Account{}, err
	}
	if delta.IsZero() {
		return models.Account{}, pkg.NewValidationError("delta must not be zero")
	}
	if !delta.Equal(delta.Truncate(amountScale)) {
		return models.Account{}, pkg.NewValidationError("delta must have at most 2 decimal places")
	}
	var account models.Account
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		account, err = s.accountRepo.AdjustBalance(ctx, tx, accountID, delta)
		return err
	})
	if err != nil {
		return models.Account{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("balance adjusted by admin",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.AccountId, accountID.String()),
		zap.String("delta", delta.StringFixed(2)),
		zap.String("admin_id", principal.AccountID.String()))
	return account, nil
}

func (s *AccountServiceImpl) SeedAdmin(ctx context.Context, email, password, fullName string) (models.Account, error) {
	email = s.normalizeEmail(email)
	existing, err := s.accountRepo.FindByEmail(ctx, s.db, email)
	switch {
	case err == nil:
		if existing.Role == pkg.RoleAdmin {
			return existing, nil
		}
		var promoted models.Account
		err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			var err error
			promoted, err = s.accountRepo.UpdateRole(ctx, tx, existing.ID, pkg.RoleAdmin)
			return err
		})
		if err == nil {
			s.logger.Info("existing account promoted to admin", zap.String(pkg.AccountId, promoted.ID.String()))
		}
		return promoted, err
	case !pkg.HasCode(err, pkg.ErrRecordNotFoundCode):
		return models.Account{}, err
	}

	if strings.TrimSpace(fullName) == "" {
		fullName = "Admin User"
	}
	account, err := s.create(ctx, email, password, fullName, pkg.RoleAdmin)
	if err != nil {
		return models.Account{}, err
	}
	s.logger.Info("admin account seeded", zap.String(pkg.AccountId, account.ID.String()))
	return account, nil
}

func (s *AccountServiceImpl) create(ctx context.Context, email, password, fullName string, role pkg.Role) (models.Account, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.Account{}, err
	}
	var account models.Account
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		account, err = s.accountRepo.Create(ctx, tx, models.Account{
			Email:        email,
			PasswordHash: hash,
			FullName:     fullName,
			Role:         role,
			Status:       pkg.AccountStatusActive,
			Balance:      decimal.Zero,
		})
		return err
	})
	if pkg.IsUniqueViolation(err) {
		return models.Account{}, pkg.NewAppError(pkg.ErrDuplicateEmailCode, "email already registered", err)
	}
	return account, err
}

// normalizeEmail trims the address and, under case-insensitive collation, lower-cases it.
func (s *AccountServiceImpl) normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if s.caseInsensitive {
		return strings.ToLower(email)
	}
	return email
}
