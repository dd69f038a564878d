package marketplace

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

type IntentStatus string

const (
	IntentPending IntentStatus = "pending"
	IntentPaid    IntentStatus = "paid"
	// IntentSettling is the short-lived guard state claimed by exactly one
	// settle call; it is what makes the paid->settled transition single-shot.
	IntentSettling  IntentStatus = "settling"
	IntentSettled   IntentStatus = "settled"
	IntentFailed    IntentStatus = "failed"
	IntentCancelled IntentStatus = "cancelled"
)

// Terminal reports whether the intent can never transition again.
func (s IntentStatus) Terminal() bool {
	return s == IntentSettled || s == IntentFailed || s == IntentCancelled
}

type Listing struct {
	ID        uint64 `gorm:"primaryKey;column:id" json:"-"`
	ListingID string `gorm:"size:32;uniqueIndex:ux_listings_listing_id_active" json:"listing_id"`
	// ContractID is the public id of the lease whose receivable is for sale.
	ContractID string          `gorm:"size:32;index:idx_listings_contract" json:"contract_id"`
	SellerID   string          `gorm:"size:32;index:idx_listings_seller" json:"seller_id"`
	FaceValue  decimal.Decimal `gorm:"type:decimal(18,2)" json:"face_value"`
	// AskingPrice ≤ FaceValue; enforced at creation time.
	AskingPrice     decimal.Decimal `gorm:"type:decimal(18,2)" json:"asking_price"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(6,4)" json:"discount_percent"`
	Status          ListingStatus   `gorm:"type:enum('active','sold','cancelled');default:'active'" json:"status"`
	StateUpdatedAt  time.Time       `gorm:"autoCreateTime" json:"state_updated_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Listing) TableName() string { return "listings" }

type PurchaseIntent struct {
	ID       uint64 `gorm:"primaryKey;column:id" json:"-"`
	IntentID string `gorm:"size:32;uniqueIndex:ux_purchase_intents_intent_id_active" json:"intent_id"`
	// ListingID is the numeric FK to listings.id.
	ListingID   uint64          `gorm:"column:listing_id;index:idx_purchase_intents_listing" json:"-"`
	BuyerID     string          `gorm:"size:32;index:idx_purchase_intents_buyer" json:"buyer_id"`
	BuyerWallet string          `gorm:"size:64" json:"buyer_wallet"`
	SellerID    string          `gorm:"size:32" json:"seller_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	// TokenID is the on-chain id of the receivable being bought.
	TokenID string `gorm:"size:64;column:token_id" json:"token_id"`
	// GatewayChargeID is the payment processor's charge reference;
	// ExternalReference is ours, echoed back in webhooks.
	GatewayChargeID   string         `gorm:"size:64;index:idx_purchase_intents_charge" json:"gateway_charge_id"`
	ExternalReference string         `gorm:"size:36;index:idx_purchase_intents_ext_ref" json:"external_reference"`
	TxHash            string         `gorm:"size:80;column:tx_hash" json:"tx_hash"`
	FailureReason     string         `gorm:"type:text" json:"failure_reason,omitempty"`
	Status            IntentStatus   `gorm:"type:enum('pending','paid','settling','settled','failed','cancelled');default:'pending'" json:"status"`
	StateUpdatedAt    time.Time      `gorm:"autoCreateTime" json:"state_updated_at"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PurchaseIntent) TableName() string { return "purchase_intents" }
