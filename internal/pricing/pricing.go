// Package pricing holds the money math for the receivables marketplace:
// listing discounts, the 85/15 rent split, and early-exit fines.
// All monetary values use shopspring/decimal, never float64.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

type AgencyModel string

const (
	// AgencyDeductFromOwner takes the commission out of the owner's 85% block.
	AgencyDeductFromOwner AgencyModel = "DEDUCT_FROM_OWNER"
	// AgencyAddOnPrice grosses the commission up on top of the owner's request.
	AgencyAddOnPrice AgencyModel = "ADD_ON_PRICE"
)

var (
	ErrInvalidPrice      = errors.New("pricing: asking price must be positive and not exceed face value")
	ErrInvalidNetRequest = errors.New("pricing: owner net request must be positive")
	ErrInvalidAgencyRate = errors.New("pricing: agency rate must be in [0,1)")
	// ErrRoundingInvariant means the owner block and service block no longer
	// sum to the total rent. That is a configuration bug, not a user error;
	// callers must surface it, never round it away.
	ErrRoundingInvariant = errors.New("pricing: owner and service blocks do not sum to total rent")
)

var (
	ownerShare    = decimal.RequireFromString("0.85")
	serviceShare  = decimal.RequireFromString("0.15")
	guarantorRate = decimal.RequireFromString("0.05")
	// Largest rounding drift tolerated when revalidating the split.
	splitTolerance = decimal.RequireFromString("0.02")

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// DefaultInsuranceFee is the fixed monthly insurance block unless overridden
// through settings.
var DefaultInsuranceFee = decimal.RequireFromString("50.00")

// PriceListing validates a receivable sale price against the remaining face
// value and derives the discount. Premium sales (asking > face) are rejected.
// The returned discount is in [0, 1).
func PriceListing(faceValue, askingPrice decimal.Decimal) (decimal.Decimal, error) {
	if faceValue.Sign() <= 0 || askingPrice.Sign() <= 0 || askingPrice.Cmp(faceValue) > 0 {
		return decimal.Zero, ErrInvalidPrice
	}
	return one.Sub(askingPrice.DivRound(faceValue, 8)).Round(4), nil
}

type GrossUpInput struct {
	OwnerNetRequest decimal.Decimal
	HasAgency       bool
	AgencyRate      decimal.Decimal
	AgencyModel     AgencyModel
	// InsuranceFee overrides DefaultInsuranceFee when positive.
	InsuranceFee decimal.Decimal
}

type RentalBreakdown struct {
	TotalRent         decimal.Decimal `json:"total_rent"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	GuarantorFee      decimal.Decimal `json:"guarantor_fee"`
	InsuranceFee      decimal.Decimal `json:"insurance_fee"`
	PlatformMargin    decimal.Decimal `json:"platform_margin"`
	AgencyCommission  decimal.Decimal `json:"agency_commission"`
	OwnerNet          decimal.Decimal `json:"owner_net"`
	OwnerPercentage   decimal.Decimal `json:"owner_percentage"`
	ServicePercentage decimal.Decimal `json:"service_percentage"`
}

// GrossUpRent computes the tenant-facing rent for a desired owner net payout.
// The owner block is exactly 85% of the total; the 15% service block is the
// guarantor fee (5% of total) plus the fixed insurance fee plus whatever
// remains as platform margin. Outputs are rounded to 2 decimal places and the
// split is revalidated within splitTolerance.
func GrossUpRent(in GrossUpInput) (*RentalBreakdown, error) {
	if in.OwnerNetRequest.Sign() <= 0 {
		return nil, ErrInvalidNetRequest
	}
	insurance := DefaultInsuranceFee
	if in.InsuranceFee.Sign() > 0 {
		insurance = in.InsuranceFee.Round(2)
	}

	base := in.OwnerNetRequest
	if in.HasAgency {
		if in.AgencyRate.Sign() < 0 || in.AgencyRate.Cmp(one) >= 0 {
			return nil, ErrInvalidAgencyRate
		}
		if in.AgencyModel == AgencyAddOnPrice {
			// Gross the commission up so the owner still nets the request.
			base = in.OwnerNetRequest.DivRound(one.Sub(in.AgencyRate), 8)
		}
	}

	total := base.DivRound(ownerShare, 8).Round(2)
	base = base.Round(2)
	guarantorFee := total.Mul(guarantorRate).Round(2)
	serviceBlock := total.Mul(serviceShare).Round(2)
	margin := serviceBlock.Sub(guarantorFee).Sub(insurance)

	commission := decimal.Zero
	ownerNet := base
	if in.HasAgency {
		commission = base.Mul(in.AgencyRate).Round(2)
		ownerNet = base.Sub(commission)
	}

	if base.Add(serviceBlock).Sub(total).Abs().Cmp(splitTolerance) > 0 {
		return nil, ErrRoundingInvariant
	}

	return &RentalBreakdown{
		TotalRent:         total,
		BaseAmount:        base,
		GuarantorFee:      guarantorFee,
		InsuranceFee:      insurance,
		PlatformMargin:    margin,
		AgencyCommission:  commission,
		OwnerNet:          ownerNet,
		OwnerPercentage:   ownerShare.Mul(hundred),
		ServicePercentage: serviceShare.Mul(hundred),
	}, nil
}
