package collateralmock

import (
	"context"

	domain "rentfi-backend/internal/domain/collateral"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Only methods you need are included; add more as tests require.
type Repo struct {
	CreatePropertyFn           func(ctx context.Context, p *domain.GuarantorProperty) error
	SavePropertyFn             func(ctx context.Context, p *domain.GuarantorProperty) error
	GetByPropertyIDFn          func(ctx context.Context, propertyID string) (*domain.GuarantorProperty, error)
	GetByNumericIDFn           func(ctx context.Context, id uint64) (*domain.GuarantorProperty, error)
	GetByPropertyIDForUpdateFn func(ctx context.Context, propertyID string) (*domain.GuarantorProperty, error)
	ListPropertiesByOwnerFn    func(ctx context.Context, ownerID string) ([]domain.GuarantorProperty, error)
	ListUnblockedPropertiesFn  func(ctx context.Context) ([]domain.GuarantorProperty, error)

	CreatePledgeFn              func(ctx context.Context, pl *domain.PropertyPledge) error
	SavePledgeFn                func(ctx context.Context, pl *domain.PropertyPledge) error
	GetByPledgeIDFn             func(ctx context.Context, pledgeID string) (*domain.PropertyPledge, error)
	GetByPledgeIDForUpdateFn    func(ctx context.Context, pledgeID string) (*domain.PropertyPledge, error)
	ListActivePledgesFn         func(ctx context.Context, propertyID uint64) ([]domain.PropertyPledge, error)
	GetActivePledgeByContractFn func(ctx context.Context, contractID string) (*domain.PropertyPledge, error)
}

func (m *Repo) CreateProperty(ctx context.Context, p *domain.GuarantorProperty) error {
	if m.CreatePropertyFn != nil {
		return m.CreatePropertyFn(ctx, p)
	}
	return nil
}

func (m *Repo) SaveProperty(ctx context.Context, p *domain.GuarantorProperty) error {
	if m.SavePropertyFn != nil {
		return m.SavePropertyFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByPropertyID(ctx context.Context, propertyID string) (*domain.GuarantorProperty, error) {
	if m.GetByPropertyIDFn != nil {
		return m.GetByPropertyIDFn(ctx, propertyID)
	}
	return nil, domain.ErrPropertyNotFound
}

func (m *Repo) GetByNumericID(ctx context.Context, id uint64) (*domain.GuarantorProperty, error) {
	if m.GetByNumericIDFn != nil {
		return m.GetByNumericIDFn(ctx, id)
	}
	return nil, domain.ErrPropertyNotFound
}

func (m *Repo) GetByPropertyIDForUpdate(ctx context.Context, propertyID string) (*domain.GuarantorProperty, error) {
	if m.GetByPropertyIDForUpdateFn != nil {
		return m.GetByPropertyIDForUpdateFn(ctx, propertyID)
	}
	return nil, domain.ErrPropertyNotFound
}

func (m *Repo) ListPropertiesByOwner(ctx context.Context, ownerID string) ([]domain.GuarantorProperty, error) {
	if m.ListPropertiesByOwnerFn != nil {
		return m.ListPropertiesByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *Repo) ListUnblockedProperties(ctx context.Context) ([]domain.GuarantorProperty, error) {
	if m.ListUnblockedPropertiesFn != nil {
		return m.ListUnblockedPropertiesFn(ctx)
	}
	return nil, nil
}

func (m *Repo) CreatePledge(ctx context.Context, pl *domain.PropertyPledge) error {
	if m.CreatePledgeFn != nil {
		return m.CreatePledgeFn(ctx, pl)
	}
	return nil
}

func (m *Repo) SavePledge(ctx context.Context, pl *domain.PropertyPledge) error {
	if m.SavePledgeFn != nil {
		return m.SavePledgeFn(ctx, pl)
	}
	return nil
}

func (m *Repo) GetByPledgeID(ctx context.Context, pledgeID string) (*domain.PropertyPledge, error) {
	if m.GetByPledgeIDFn != nil {
		return m.GetByPledgeIDFn(ctx, pledgeID)
	}
	return nil, domain.ErrPledgeNotFound
}

func (m *Repo) GetByPledgeIDForUpdate(ctx context.Context, pledgeID string) (*domain.PropertyPledge, error) {
	if m.GetByPledgeIDForUpdateFn != nil {
		return m.GetByPledgeIDForUpdateFn(ctx, pledgeID)
	}
	return nil, domain.ErrPledgeNotFound
}

func (m *Repo) ListActivePledges(ctx context.Context, propertyID uint64) ([]domain.PropertyPledge, error) {
	if m.ListActivePledgesFn != nil {
		return m.ListActivePledgesFn(ctx, propertyID)
	}
	return nil, nil
}

func (m *Repo) GetActivePledgeByContract(ctx context.Context, contractID string) (*domain.PropertyPledge, error) {
	if m.GetActivePledgeByContractFn != nil {
		return m.GetActivePledgeByContractFn(ctx, contractID)
	}
	return nil, domain.ErrPledgeNotFound
}
