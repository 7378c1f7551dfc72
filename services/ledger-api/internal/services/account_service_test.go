package services_test

import (
	"context"
	"testing"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/auth"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/services"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/testutils"
	ledgerviews "github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/views"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type accountFixture struct {
	store     *testutils.MemStore
	publisher *testutils.RecordingPublisher
	tokens    *auth.TokenManager
	svc       services.AccountService
}

func newAccountFixture(caseInsensitive bool) accountFixture {
	store := testutils.NewMemStore()
	publisher := &testutils.RecordingPublisher{}
	tokens := testutils.NewTokenManager()
	svc := services.NewAccountService(zap.NewNop(), store, &testutils.AccountRepo{Store: store}, tokens, publisher, caseInsensitive)
	return accountFixture{store: store, publisher: publisher, tokens: tokens, svc: svc}
}

func TestRegister_CreatesUserWithZeroBalance(t *testing.T) {
	f := newAccountFixture(false)

	account, token, err := f.svc.Register(context.Background(), "trace", ledgerviews.RegisterRequest{
		Email: "alice@example.com", Password: "secret1", FullName: " Alice ",
	})
	require.NoError(t, err)
	assert.Equal(t, pkg.RoleUser, account.Role)
	assert.Equal(t, pkg.AccountStatusActive, account.Status)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, "Alice", account.FullName)
	assert.NotEqual(t, "secret1", account.PasswordHash)

	id, claims, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, id)
	assert.Equal(t, pkg.RoleUser, claims.Role)
	assert.Equal(t, []pkg.EventType{pkg.EventAccountRegistered}, f.publisher.Types())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAccountFixture(false)
	req := ledgerviews.RegisterRequest{Email: "alice@example.com", Password: "secret1", FullName: "Alice"}
	_, _, err := f.svc.Register(context.Background(), "trace", req)
	require.NoError(t, err)

	_, _, err = f.svc.Register(context.Background(), "trace", req)
	assert.True(t, pkg.HasCode(err, pkg.ErrDuplicateEmailCode), "got %v", err)
}

func TestRegister_EmailCollation(t *testing.T) {
	sensitive := newAccountFixture(false)
	_, _, err := sensitive.svc.Register(context.Background(), "trace", ledgerviews.RegisterRequest{Email: "Bob@example.com", Password: "secret1", FullName: "Bob"})
	require.NoError(t, err)
	_, _, err = sensitive.svc.Register(context.Background(), "trace", ledgerviews.RegisterRequest{Email: "bob@example.com", Password: "secret1", FullName: "Bob"})
	assert.NoError(t, err, "case-sensitive collation treats differently cased emails as distinct")

	insensitive := newAccountFixture(true)
	_, _, err = insensitive.svc.Register(context.Background(), "trace", ledgerviews.RegisterRequest{Email: "Bob@example.com", Password: "secret1", FullName: "Bob"})
	require.NoError(t, err)
	_, _, err = insensitive.svc.Register(context.Background(), "trace", ledgerviews.RegisterRequest{Email: "bob@EXAMPLE.com", Password: "secret1", FullName: "Bob"})
	assert.True(t, pkg.HasCode(err, pkg.ErrDuplicateEmailCode), "got %v", err)

	_, _, err = insensitive.svc.Login(context.Background(), "trace", ledgerviews.LoginRequest{Email: "BOB@example.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestRegister_RejectsBlankNameAndShortPassword(t *testing.T) {
	f := newAccountFixture(false)
	_, _, err := f.svc.Register(context.Background(), "trace", ledgerviews.RegisterRequest{Email: "a@example.com", Password: "secret1", FullName: "   "})
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode), "got %v", err)

	_, _, err = f.svc.Register(context.Background(), "trace", ledgerviews.RegisterRequest{Email: "a@example.com", Password: "abc", FullName: "A"})
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode), "got %v", err)
}

func TestLogin(t *testing.T) {
	f := newAccountFixture(false)
	account := testutils.SeedAccount(t, f.store, "carol@example.com", pkg.RoleUser, "10")

	got, token, err := f.svc.Login(context.Background(), "trace", ledgerviews.LoginRequest{Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.NotEmpty(t, token)

	_, _, err = f.svc.Login(context.Background(), "trace", ledgerviews.LoginRequest{Email: "carol@example.com", Password: "wrong-password"})
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidCredentialCode), "got %v", err)

	_, _, err = f.svc.Login(context.Background(), "trace", ledgerviews.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidCredentialCode), "unknown email must look like a bad password, got %v", err)
}

func TestLogin_InactiveAccount(t *testing.T) {
	f := newAccountFixture(false)
	account := testutils.SeedAccount(t, f.store, "dave@example.com", pkg.RoleUser, "10")
	_, err := (&testutils.AccountRepo{Store: f.store}).UpdateStatus(context.Background(), f.store, account.ID, pkg.AccountStatusInactive)
	require.NoError(t, err)

	_, _, err = f.svc.Login(context.Background(), "trace", ledgerviews.LoginRequest{Email: "dave@example.com", Password: "password123"})
	assert.True(t, pkg.HasCode(err, pkg.ErrForbiddenCode), "got %v", err)
}

func TestUpdateProfile(t *testing.T) {
	f := newAccountFixture(false)
	account := testutils.SeedAccount(t, f.store, "erin@example.com", pkg.RoleUser, "10")
	principal := testutils.PrincipalOf(account)

	updated, err := f.svc.UpdateProfile(context.Background(), "trace", principal, ledgerviews.ProfileRequest{
		Country: strPtr(" NZ "),
		Phone:   strPtr("+64 21 000 000"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Country)
	assert.Equal(t, "NZ", *updated.Country)
	assert.Equal(t, account.FullName, updated.FullName)
	assert.True(t, decimal.NewFromInt(10).Equal(updated.Balance), "profile updates never touch the balance")

	_, err = f.svc.UpdateProfile(context.Background(), "trace", principal, ledgerviews.ProfileRequest{})
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode), "got %v", err)
}

func TestAdminUpdate(t *testing.T) {
	f := newAccountFixture(false)
	admin := testutils.SeedAccount(t, f.store, "admin@example.com", pkg.RoleAdmin, "0")
	user := testutils.SeedAccount(t, f.store, "user@example.com", pkg.RoleUser, "10")
	ctx := context.Background()

	inactive := pkg.AccountStatusInactive
	balance := decimal.RequireFromString("750.25")
	updated, err := f.svc.AdminUpdate(ctx, "trace", testutils.PrincipalOf(admin), user.ID, ledgerviews.AdminUpdateRequest{
		Status:  &inactive,
		Balance: &balance,
	})
	require.NoError(t, err)
	assert.Equal(t, pkg.AccountStatusInactive, updated.Status)
	assert.True(t, balance.Equal(updated.Balance))

	negative := decimal.NewFromInt(-1)
	_, err = f.svc.AdminUpdate(ctx, "trace", testutils.PrincipalOf(admin), user.ID, ledgerviews.AdminUpdateRequest{Balance: &negative})
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode), "got %v", err)

	bogus := pkg.Role("owner")
	_, err = f.svc.AdminUpdate(ctx, "trace", testutils.PrincipalOf(admin), user.ID, ledgerviews.AdminUpdateRequest{Role: &bogus})
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode), "got %v", err)

	_, err = f.svc.AdminUpdate(ctx, "trace", testutils.PrincipalOf(user), admin.ID, ledgerviews.AdminUpdateRequest{Status: &inactive})
	assert.True(t, pkg.HasCode(err, pkg.ErrForbiddenCode), "got %v", err)
}

func TestAdminUpdate_PartialFailureRollsBack(t *testing.T) {
	f := newAccountFixture(false)
	admin := testutils.SeedAccount(t, f.store, "admin@example.com", pkg.RoleAdmin, "0")
	user := testutils.SeedAccount(t, f.store, "user@example.com", pkg.RoleUser, "10")

	promoted := pkg.RoleAdmin
	negative := decimal.NewFromInt(-5)
	_, err := f.svc.AdminUpdate(context.Background(), "trace", testutils.PrincipalOf(admin), user.ID, ledgerviews.AdminUpdateRequest{
		Role:    &promoted,
		Balance: &negative,
	})
	require.Error(t, err)

	stored, _ := f.store.Account(user.ID)
	assert.Equal(t, pkg.RoleUser, stored.Role)
}

func TestAdjustBalance(t *testing.T) {
	f := newAccountFixture(false)
	admin := testutils.SeedAccount(t, f.store, "admin@example.com", pkg.RoleAdmin, "0")
	user := testutils.SeedAccount(t, f.store, "user@example.com", pkg.RoleUser, "100")
	ctx := context.Background()
	principal := testutils.PrincipalOf(admin)

	updated, err := f.svc.AdjustBalance(ctx, "trace", principal, user.ID, decimal.RequireFromString("-40.50"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("59.50").Equal(updated.Balance))

	_, err = f.svc.AdjustBalance(ctx, "trace", principal, user.ID, decimal.NewFromInt(-60))
	assert.True(t, pkg.HasCode(err, pkg.ErrInsufficientFundsCode), "got %v", err)

	_, err = f.svc.AdjustBalance(ctx, "trace", principal, user.ID, decimal.Zero)
	assert.True(t, pkg.HasCode(err, pkg.ErrInvalidInputCode), "got %v", err)

	_, err = f.svc.AdjustBalance(ctx, "trace", testutils.PrincipalOf(user), user.ID, decimal.NewFromInt(10))
	assert.True(t, pkg.HasCode(err, pkg.ErrForbiddenCode), "got %v", err)
}

func TestList_AdminOnly(t *testing.T) {
	f := newAccountFixture(false)
	admin := testutils.SeedAccount(t, f.store, "admin@example.com", pkg.RoleAdmin, "0")
	user := testutils.SeedAccount(t, f.store, "user@example.com", pkg.RoleUser, "0")

	accounts, err := f.svc.List(context.Background(), "trace", testutils.PrincipalOf(admin), 50, 0)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	_, err = f.svc.List(context.Background(), "trace", testutils.PrincipalOf(user), 50, 0)
	assert.True(t, pkg.HasCode(err, pkg.ErrForbiddenCode), "got %v", err)
}

func TestSeedAdmin_CreatesThenPromotes(t *testing.T) {
	f := newAccountFixture(false)

	created, err := f.svc.SeedAdmin(context.Background(), "root@example.com", "rootpass", "")
	require.NoError(t, err)
	assert.Equal(t, pkg.RoleAdmin, created.Role)
	assert.Equal(t, "Admin User", created.FullName)

	again, err := f.svc.SeedAdmin(context.Background(), "root@example.com", "rootpass", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	user := testutils.SeedAccount(t, f.store, "ops@example.com", pkg.RoleUser, "0")
	promoted, err := f.svc.SeedAdmin(context.Background(), "ops@example.com", "ignored", "Ops")
	require.NoError(t, err)
	assert.Equal(t, user.ID, promoted.ID)
	assert.Equal(t, pkg.RoleAdmin, promoted.Role)
}
