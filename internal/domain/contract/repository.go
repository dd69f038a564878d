package contract

import "context"

type Repository interface {
	Create(ctx context.Context, c *Contract) error
	Save(ctx context.Context, c *Contract) error
	GetByContractID(ctx context.Context, contractID string) (*Contract, error)
	GetByContractIDForUpdate(ctx context.Context, contractID string) (*Contract, error)
}
