package uowmock

import (
	"context"
	"errors"

	"rentfi-backend/internal/domain/collateral"
	"rentfi-backend/internal/domain/marketplace"
	"rentfi-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn         func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinPropertyTxFn func(ctx context.Context, propertyID string, fn func(r uow.Repos, p *collateral.GuarantorProperty) error) error
	WithinListingTxFn  func(ctx context.Context, listingID string, fn func(r uow.Repos, l *marketplace.Listing) error) error
}

func New() *UoW { return &UoW{} }

// Passthrough wires every tx method to run its body against the given repos,
// with the row lookup served by the repos themselves. Covers the common case
// where a test just wants the usecase body to run.
func Passthrough(r uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error {
			return fn(r)
		},
		WithinPropertyTxFn: func(ctx context.Context, propertyID string, fn func(uow.Repos, *collateral.GuarantorProperty) error) error {
			p, err := r.Collateral.GetByPropertyIDForUpdate(ctx, propertyID)
			if err != nil {
				return err
			}
			return fn(r, p)
		},
		WithinListingTxFn: func(ctx context.Context, listingID string, fn func(uow.Repos, *marketplace.Listing) error) error {
			l, err := r.Listings.GetByListingIDForUpdate(ctx, listingID)
			if err != nil {
				return err
			}
			return fn(r, l)
		},
	}
}

func (m *UoW) Reset() { *m = UoW{} }

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinPropertyTx(ctx context.Context, propertyID string, fn func(r uow.Repos, p *collateral.GuarantorProperty) error) error {
	if m.WithinPropertyTxFn != nil {
		return m.WithinPropertyTxFn(ctx, propertyID, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinListingTx(ctx context.Context, listingID string, fn func(r uow.Repos, l *marketplace.Listing) error) error {
	if m.WithinListingTxFn != nil {
		return m.WithinListingTxFn(ctx, listingID, fn)
	}
	return errUnimplemented
}
