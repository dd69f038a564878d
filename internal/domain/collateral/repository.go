package collateral

import "context"

type Repository interface {
	CreateProperty(ctx context.Context, p *GuarantorProperty) error
	SaveProperty(ctx context.Context, p *GuarantorProperty) error
	GetByPropertyID(ctx context.Context, propertyID string) (*GuarantorProperty, error)
	GetByNumericID(ctx context.Context, id uint64) (*GuarantorProperty, error)
	GetByPropertyIDForUpdate(ctx context.Context, propertyID string) (*GuarantorProperty, error)
	ListPropertiesByOwner(ctx context.Context, ownerID string) ([]GuarantorProperty, error)
	// ListUnblockedProperties feeds guarantor matching; blocked properties are
	// excluded at the query level.
	ListUnblockedProperties(ctx context.Context) ([]GuarantorProperty, error)

	CreatePledge(ctx context.Context, pl *PropertyPledge) error
	SavePledge(ctx context.Context, pl *PropertyPledge) error
	GetByPledgeID(ctx context.Context, pledgeID string) (*PropertyPledge, error)
	GetByPledgeIDForUpdate(ctx context.Context, pledgeID string) (*PropertyPledge, error)
	ListActivePledges(ctx context.Context, propertyID uint64) ([]PropertyPledge, error)
	GetActivePledgeByContract(ctx context.Context, contractID string) (*PropertyPledge, error)
}
