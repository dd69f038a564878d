package mysql

import (
	"context"

	collateralDomain "rentfi-backend/internal/domain/collateral"

	"gorm.io/gorm"
)

type CollateralRepository struct{ db *gorm.DB }

func NewCollateralRepository(db *gorm.DB) *CollateralRepository {
	return &CollateralRepository{db: db}
}

func (r *CollateralRepository) CreateProperty(ctx context.Context, p *collateralDomain.GuarantorProperty) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *CollateralRepository) SaveProperty(ctx context.Context, p *collateralDomain.GuarantorProperty) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *CollateralRepository) GetByPropertyID(ctx context.Context, propertyID string) (*collateralDomain.GuarantorProperty, error) {
	var out collateralDomain.GuarantorProperty
	res := r.db.WithContext(ctx).Where("property_id = ?", propertyID).First(&out)
	return &out, res.Error
}

func (r *CollateralRepository) GetByNumericID(ctx context.Context, id uint64) (*collateralDomain.GuarantorProperty, error) {
	var out collateralDomain.GuarantorProperty
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *CollateralRepository) GetByPropertyIDForUpdate(ctx context.Context, propertyID string) (*collateralDomain.GuarantorProperty, error) {
	var out collateralDomain.GuarantorProperty
	res := forUpdate(r.db.WithContext(ctx)).Where("property_id = ?", propertyID).First(&out)
	return &out, res.Error
}

func (r *CollateralRepository) ListPropertiesByOwner(ctx context.Context, ownerID string) ([]collateralDomain.GuarantorProperty, error) {
	var out []collateralDomain.GuarantorProperty
	res := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *CollateralRepository) ListUnblockedProperties(ctx context.Context) ([]collateralDomain.GuarantorProperty, error) {
	var out []collateralDomain.GuarantorProperty
	res := r.db.WithContext(ctx).
		Where("status <> ?", collateralDomain.PropertyBlocked).
		Find(&out)
	return out, res.Error
}

func (r *CollateralRepository) CreatePledge(ctx context.Context, pl *collateralDomain.PropertyPledge) error {
	return r.db.WithContext(ctx).Create(pl).Error
}

func (r *CollateralRepository) SavePledge(ctx context.Context, pl *collateralDomain.PropertyPledge) error {
	return r.db.WithContext(ctx).Save(pl).Error
}

func (r *CollateralRepository) GetByPledgeID(ctx context.Context, pledgeID string) (*collateralDomain.PropertyPledge, error) {
	var out collateralDomain.PropertyPledge
	res := r.db.WithContext(ctx).Where("pledge_id = ?", pledgeID).First(&out)
	return &out, res.Error
}

func (r *CollateralRepository) GetByPledgeIDForUpdate(ctx context.Context, pledgeID string) (*collateralDomain.PropertyPledge, error) {
	var out collateralDomain.PropertyPledge
	res := forUpdate(r.db.WithContext(ctx)).Where("pledge_id = ?", pledgeID).First(&out)
	return &out, res.Error
}

func (r *CollateralRepository) ListActivePledges(ctx context.Context, propertyID uint64) ([]collateralDomain.PropertyPledge, error) {
	var out []collateralDomain.PropertyPledge
	res := r.db.WithContext(ctx).
		Where("property_id = ? AND status = ?", propertyID, collateralDomain.PledgeActive).
		Order("start_date ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *CollateralRepository) GetActivePledgeByContract(ctx context.Context, contractID string) (*collateralDomain.PropertyPledge, error) {
	var out collateralDomain.PropertyPledge
	res := r.db.WithContext(ctx).
		Where("contract_id = ? AND status = ?", contractID, collateralDomain.PledgeActive).
		Order("id DESC").
		First(&out)
	return &out, res.Error
}
