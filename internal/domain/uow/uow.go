package uow

import (
	"context"

	"rentfi-backend/internal/domain/collateral"
	"rentfi-backend/internal/domain/contract"
	"rentfi-backend/internal/domain/marketplace"
)

type Repos struct {
	Contracts  contract.Repository
	Collateral collateral.Repository
	Listings   marketplace.ListingRepository
	Intents    marketplace.IntentRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the property row first, then pass it in. Serializes
	// concurrent pledge/release work against the same property.
	WithinPropertyTx(ctx context.Context, propertyID string, fn func(r Repos, p *collateral.GuarantorProperty) error) error
	// convenience: lock the listing row first. Serializes purchase-intent
	// creation and cancellation per listing.
	WithinListingTx(ctx context.Context, listingID string, fn func(r Repos, l *marketplace.Listing) error) error
}
