package mysql

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// --- SQLite-friendly mirror schemas for tests (no enums/engine specifics).
// Decimal columns use NUMERIC affinity so SQL comparisons behave.

type contractSQLite struct {
	ID             uint64          `gorm:"primaryKey;column:id;autoIncrement"`
	ContractID     string          `gorm:"size:32;uniqueIndex;column:contract_id"`
	OwnerID        string          `gorm:"column:owner_id"`
	TenantID       string          `gorm:"column:tenant_id"`
	OwnerWallet    string          `gorm:"column:owner_wallet"`
	City           string          `gorm:"column:city"`
	TenantScore    int             `gorm:"column:tenant_score"`
	MonthlyRent    decimal.Decimal `gorm:"type:NUMERIC;column:monthly_rent"`
	StartDate      time.Time       `gorm:"column:start_date"`
	DurationMonths int             `gorm:"column:duration_months"`
	TokenID        string          `gorm:"column:token_id"`
	ReceivableSold bool            `gorm:"column:receivable_sold"`
	Status         string          `gorm:"column:status"`
	StateUpdatedAt time.Time       `gorm:"column:state_updated_at"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"column:deleted_at"`
}

func (contractSQLite) TableName() string { return "contracts" }

type propertySQLite struct {
	ID             uint64          `gorm:"primaryKey;column:id;autoIncrement"`
	PropertyID     string          `gorm:"size:32;uniqueIndex;column:property_id"`
	OwnerID        string          `gorm:"column:owner_id"`
	City           string          `gorm:"column:city"`
	AppraisedValue decimal.Decimal `gorm:"type:NUMERIC;column:appraised_value"`
	GuarantorScore int             `gorm:"column:guarantor_score"`
	Status         string          `gorm:"column:status"`
	StateUpdatedAt time.Time       `gorm:"column:state_updated_at"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"column:deleted_at"`
}

func (propertySQLite) TableName() string { return "guarantor_properties" }

type pledgeSQLite struct {
	ID             uint64          `gorm:"primaryKey;column:id;autoIncrement"`
	PledgeID       string          `gorm:"size:32;uniqueIndex;column:pledge_id"`
	PropertyID     uint64          `gorm:"column:property_id"`
	ContractID     string          `gorm:"column:contract_id"`
	PledgedAmount  decimal.Decimal `gorm:"type:NUMERIC;column:pledged_amount"`
	LockHash       string          `gorm:"column:lock_hash"`
	StartDate      time.Time       `gorm:"column:start_date"`
	EndDate        time.Time       `gorm:"column:end_date"`
	Status         string          `gorm:"column:status"`
	StateUpdatedAt time.Time       `gorm:"column:state_updated_at"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"column:deleted_at"`
}

func (pledgeSQLite) TableName() string { return "property_pledges" }

type listingSQLite struct {
	ID              uint64          `gorm:"primaryKey;column:id;autoIncrement"`
	ListingID       string          `gorm:"size:32;uniqueIndex;column:listing_id"`
	ContractID      string          `gorm:"column:contract_id"`
	SellerID        string          `gorm:"column:seller_id"`
	FaceValue       decimal.Decimal `gorm:"type:NUMERIC;column:face_value"`
	AskingPrice     decimal.Decimal `gorm:"type:NUMERIC;column:asking_price"`
	DiscountPercent decimal.Decimal `gorm:"type:NUMERIC;column:discount_percent"`
	Status          string          `gorm:"column:status"`
	StateUpdatedAt  time.Time       `gorm:"column:state_updated_at"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"column:deleted_at"`
}

func (listingSQLite) TableName() string { return "listings" }

type intentSQLite struct {
	ID                uint64          `gorm:"primaryKey;column:id;autoIncrement"`
	IntentID          string          `gorm:"size:32;uniqueIndex;column:intent_id"`
	ListingID         uint64          `gorm:"column:listing_id"`
	BuyerID           string          `gorm:"column:buyer_id"`
	BuyerWallet       string          `gorm:"column:buyer_wallet"`
	SellerID          string          `gorm:"column:seller_id"`
	Amount            decimal.Decimal `gorm:"type:NUMERIC;column:amount"`
	TokenID           string          `gorm:"column:token_id"`
	GatewayChargeID   string          `gorm:"column:gateway_charge_id"`
	ExternalReference string          `gorm:"column:external_reference"`
	TxHash            string          `gorm:"column:tx_hash"`
	FailureReason     string          `gorm:"column:failure_reason"`
	Status            string          `gorm:"column:status"`
	StateUpdatedAt    time.Time       `gorm:"column:state_updated_at"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"column:deleted_at"`
}

func (intentSQLite) TableName() string { return "purchase_intents" }

// openTestDB migrates ONLY the sqlite-safe mirrors, never the domain models.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&contractSQLite{},
		&propertySQLite{},
		&pledgeSQLite{},
		&listingSQLite{},
		&intentSQLite{},
	)
	if err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}
