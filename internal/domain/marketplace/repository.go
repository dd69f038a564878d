package marketplace

import (
	"context"

	"github.com/shopspring/decimal"
)

// ListingFilter narrows the public marketplace query surface.
type ListingFilter struct {
	MinDiscount    *decimal.Decimal
	MaxDiscount    *decimal.Decimal
	MinTenantScore int
	City           string
}

// ActiveListingRow is a listing joined with the tenant attributes investors
// filter on.
type ActiveListingRow struct {
	ListingID       string          `json:"listing_id"`
	ContractID      string          `json:"contract_id"`
	SellerID        string          `json:"seller_id"`
	FaceValue       decimal.Decimal `json:"face_value"`
	AskingPrice     decimal.Decimal `json:"asking_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TenantScore     int             `json:"tenant_score"`
	City            string          `json:"city"`
}

type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	Save(ctx context.Context, l *Listing) error
	GetByListingID(ctx context.Context, listingID string) (*Listing, error)
	GetByListingIDForUpdate(ctx context.Context, listingID string) (*Listing, error)
	GetByID(ctx context.Context, id uint64) (*Listing, error)
	// GetNonCancelledByContract enforces at most one live listing per contract.
	GetNonCancelledByContract(ctx context.Context, contractID string) (*Listing, error)
	// TransitionStatus is a conditional update; false means the listing was
	// not in `from` and nothing changed.
	TransitionStatus(ctx context.Context, id uint64, from, to ListingStatus) (bool, error)
	ListActiveWithContract(ctx context.Context, f ListingFilter) ([]ActiveListingRow, error)
	ListAll(ctx context.Context) ([]Listing, error)
}

type IntentRepository interface {
	Create(ctx context.Context, in *PurchaseIntent) error
	GetByIntentID(ctx context.Context, intentID string) (*PurchaseIntent, error)
	// GetByChargeRef matches either the gateway charge id or our external
	// reference, whichever the webhook carries.
	GetByChargeRef(ctx context.Context, paymentID, externalRef string) (*PurchaseIntent, error)
	GetNonTerminalByListing(ctx context.Context, listingID uint64) (*PurchaseIntent, error)
	// SetChargeID records the processor's charge id once the charge is opened.
	SetChargeID(ctx context.Context, intentID, chargeID string) error
	// TransitionStatus is a conditional update keyed on the current status;
	// false means another caller already moved the intent.
	TransitionStatus(ctx context.Context, intentID string, from, to IntentStatus) (bool, error)
	// MarkSettled finalizes a settling intent with its transaction hash.
	MarkSettled(ctx context.Context, intentID, txHash string) (bool, error)
	// MarkFailed records the ledger failure on a settling intent.
	MarkFailed(ctx context.Context, intentID, reason string) (bool, error)
}
