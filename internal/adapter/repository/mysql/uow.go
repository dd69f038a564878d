package mysql

import (
	"context"

	"rentfi-backend/internal/domain/collateral"
	"rentfi-backend/internal/domain/marketplace"
	"rentfi-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func txRepos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Contracts:  &ContractRepository{db: tx},
		Collateral: &CollateralRepository{db: tx},
		Listings:   &ListingRepository{db: tx},
		Intents:    &IntentRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txRepos(tx))
	})
}

func (u *GormUoW) WithinPropertyTx(ctx context.Context, propertyID string, fn func(r uow.Repos, p *collateral.GuarantorProperty) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := txRepos(tx)
		// lock the property row up-front so margin checks cannot race
		p, err := r.Collateral.GetByPropertyIDForUpdate(ctx, propertyID)
		if err != nil {
			return err
		}
		return fn(r, p)
	})
}

func (u *GormUoW) WithinListingTx(ctx context.Context, listingID string, fn func(r uow.Repos, l *marketplace.Listing) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := txRepos(tx)
		// lock the listing row up-front to serialize intent creation
		l, err := r.Listings.GetByListingIDForUpdate(ctx, listingID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
