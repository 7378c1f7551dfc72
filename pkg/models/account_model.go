package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/shopspring/decimal"
)

// Account maps to table `accounts`
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Role         pkg.Role
	Status       pkg.AccountStatus
	Balance      decimal.Decimal
	Phone        *string
	Country      *string
	Picture      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a Account) IsActive() bool {
	return a.Status == pkg.AccountStatusActive
}

// ToView drops the credential hash.
func (a Account) ToView() views.AccountView {
	return views.AccountView{
		ID:        a.ID.String(),
		Email:     a.Email,
		FullName:  a.FullName,
		Role:      a.Role,
		Status:    a.Status,
		Balance:   a.Balance,
		Phone:     a.Phone,
		Country:   a.Country,
		Picture:   a.Picture,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ProfileUpdate carries optional profile fields; nil leaves the column unchanged.
type ProfileUpdate struct {
	FullName *string
	Phone    *string
	Country  *string
	Picture  *string
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.FullName == nil && p.Phone == nil && p.Country == nil && p.Picture == nil
}

func (a Account) ToRegisteredEvent() views.LedgerEvent {
	return views.LedgerEvent{
		ID:         uuid.NewString(),
		Type:       pkg.EventAccountRegistered,
		AccountID:  a.ID.String(),
		Email:      a.Email,
		OccurredAt: time.Now().UTC(),
	}
}
