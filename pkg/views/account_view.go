package views

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/shopspring/decimal"
)

// Principal is the authenticated identity performing an action, resolved once by the authentication gate.
type Principal struct {
	AccountID uuid.UUID
	Role      pkg.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == pkg.RoleAdmin
}

type AccountView struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	FullName  string            `json:"fullName"`
	Role      pkg.Role          `json:"role"`
	Status    pkg.AccountStatus `json:"status"`
	Balance   decimal.Decimal   `json:"balance"`
	Phone     *string           `json:"phone,omitempty"`
	Country   *string           `json:"country,omitempty"`
	Picture   *string           `json:"picture,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
