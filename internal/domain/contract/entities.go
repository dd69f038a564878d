package contract

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("contract not found")

type Status string

const (
	StatusActive     Status = "active"
	StatusTerminated Status = "terminated"
	StatusExpired    Status = "expired"
)

type Contract struct {
	ID         uint64 `gorm:"primaryKey;column:id" json:"-"`
	ContractID string `gorm:"size:32;uniqueIndex:ux_contracts_contract_id_active" json:"contract_id"`
	OwnerID    string `gorm:"size:32;index:idx_contracts_owner" json:"owner_id"`
	TenantID   string `gorm:"size:32;index:idx_contracts_tenant" json:"tenant_id"`
	// OwnerWallet receives the receivable token on mint and sends it on sale.
	OwnerWallet    string          `gorm:"size:64" json:"owner_wallet"`
	City           string          `gorm:"size:64" json:"city"`
	TenantScore    int             `gorm:"column:tenant_score" json:"tenant_score"`
	MonthlyRent    decimal.Decimal `gorm:"type:decimal(18,2)" json:"monthly_rent"`
	StartDate      time.Time       `gorm:"column:start_date" json:"start_date"`
	DurationMonths int             `gorm:"column:duration_months" json:"duration_months"`
	// TokenID is the on-chain id of the minted receivable; empty until the
	// contract is tokenized.
	TokenID        string         `gorm:"size:64;column:token_id" json:"token_id"`
	ReceivableSold bool           `gorm:"column:receivable_sold" json:"receivable_sold"`
	Status         Status         `gorm:"type:enum('active','terminated','expired');default:'active'" json:"status"`
	StateUpdatedAt time.Time      `gorm:"autoCreateTime" json:"state_updated_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Contract) TableName() string { return "contracts" }

// RemainingMonths counts the unexpired months as of `at`.
func (c *Contract) RemainingMonths(at time.Time) int {
	end := c.StartDate.AddDate(0, c.DurationMonths, 0)
	if !at.Before(end) {
		return 0
	}
	rem := 0
	for cursor := c.StartDate; cursor.Before(end); cursor = cursor.AddDate(0, 1, 0) {
		if cursor.After(at) || cursor.Equal(at) {
			rem++
		}
	}
	if rem > c.DurationMonths {
		rem = c.DurationMonths
	}
	return rem
}

// RemainingFaceValue is the receivable still collectible as of `at`.
func (c *Contract) RemainingFaceValue(at time.Time) decimal.Decimal {
	return c.MonthlyRent.Mul(decimal.NewFromInt(int64(c.RemainingMonths(at)))).Round(2)
}
