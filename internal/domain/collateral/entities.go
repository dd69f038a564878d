package collateral

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "available"
	// PropertyPledged is a summary state reached when no margin remains. It
	// never blocks new pledges by itself; only PropertyBlocked does.
	PropertyPledged PropertyStatus = "pledged"
	PropertyBlocked PropertyStatus = "blocked"
)

type PledgeStatus string

const (
	PledgeActive   PledgeStatus = "active"
	PledgeReleased PledgeStatus = "released"
)

// LoanToValue caps how much of a property's appraised value may be pledged
// at any point in time.
var LoanToValue = decimal.RequireFromString("0.80")

type GuarantorProperty struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	PropertyID     string          `gorm:"size:32;uniqueIndex:ux_guarantor_properties_property_id_active" json:"property_id"`
	OwnerID        string          `gorm:"size:32;index:idx_guarantor_properties_owner" json:"owner_id"`
	City           string          `gorm:"size:64" json:"city"`
	AppraisedValue decimal.Decimal `gorm:"type:decimal(18,2)" json:"appraised_value"`
	// GuarantorScore is the owning guarantor's credit score (0–1000).
	GuarantorScore int            `gorm:"column:guarantor_score" json:"guarantor_score"`
	Status         PropertyStatus `gorm:"type:enum('available','pledged','blocked');default:'available'" json:"status"`
	StateUpdatedAt time.Time      `gorm:"autoCreateTime" json:"state_updated_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GuarantorProperty) TableName() string { return "guarantor_properties" }

// Capacity is the maximum total pledgeable amount: appraised × LTV.
func (p *GuarantorProperty) Capacity() decimal.Decimal {
	return p.AppraisedValue.Mul(LoanToValue)
}

type PropertyPledge struct {
	ID       uint64 `gorm:"primaryKey;column:id" json:"-"`
	PledgeID string `gorm:"size:32;uniqueIndex:ux_property_pledges_pledge_id_active" json:"pledge_id"`
	// PropertyID is the numeric FK to guarantor_properties.id.
	PropertyID    uint64          `gorm:"column:property_id;index:idx_property_pledges_property" json:"-"`
	ContractID    string          `gorm:"size:32;index:idx_property_pledges_contract" json:"contract_id"`
	PledgedAmount decimal.Decimal `gorm:"type:decimal(18,2)" json:"pledged_amount"`
	// LockHash is the opaque ledger reference recorded when the collateral
	// lock was registered.
	LockHash       string         `gorm:"size:64" json:"lock_hash"`
	StartDate      time.Time      `gorm:"column:start_date" json:"start_date"`
	EndDate        time.Time      `gorm:"column:end_date" json:"end_date"`
	Status         PledgeStatus   `gorm:"type:enum('active','released');default:'active'" json:"status"`
	StateUpdatedAt time.Time      `gorm:"autoCreateTime" json:"state_updated_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PropertyPledge) TableName() string { return "property_pledges" }

// AvailableMargin is the unpledged part of the property's capacity given its
// currently active pledges, floored at zero.
func AvailableMargin(p *GuarantorProperty, active []PropertyPledge) decimal.Decimal {
	pledged := decimal.Zero
	for i := range active {
		if active[i].Status == PledgeActive {
			pledged = pledged.Add(active[i].PledgedAmount)
		}
	}
	margin := p.Capacity().Sub(pledged)
	if margin.Sign() < 0 {
		return decimal.Zero
	}
	return margin
}
