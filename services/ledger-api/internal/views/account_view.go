package views

import (
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	pkgviews "github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	FullName string `json:"fullName" binding:"required,max=200"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User  pkgviews.AccountView `json:"user"`
	Token string               `json:"token"`
}

// ProfileRequest carries the self-service profile fields; omitted fields stay unchanged.
type ProfileRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,min=1,max=200"`
	Phone    *string `json:"phone" binding:"omitempty,max=40"`
	Country  *string `json:"country" binding:"omitempty,max=80"`
	Picture  *string `json:"picture" binding:"omitempty,url"`
}

// AdminUpdateRequest is the admin override of an account.
type AdminUpdateRequest struct {
	Status  *pkg.AccountStatus `json:"status"`
	Role    *pkg.Role          `json:"role"`
	Balance *decimal.Decimal   `json:"balance"`
}

type BalanceAdjustmentRequest struct {
	Delta decimal.Decimal `json:"delta"`
}
