package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentfi-backend/internal/domain/contract"
	domain "rentfi-backend/internal/domain/marketplace"
	"rentfi-backend/internal/domain/uow"
	"rentfi-backend/internal/pricing"

	"gorm.io/gorm"
)

type TerminationResult struct {
	ContractID string `json:"contract_id"`
	pricing.TerminationCalculation
	ListingCancelled bool   `json:"listing_cancelled"`
	PledgeReleased   string `json:"pledge_released,omitempty"`
}

// Terminate ends a lease early: prices the exit, withdraws any still-active
// listing for the contract and frees its collateral. Both side effects are
// idempotent, so a retried termination callback settles into the same state.
func (u *Usecase) Terminate(ctx context.Context, contractID string, exitDate time.Time, baseFineMonths int) (*TerminationResult, error) {
	var res *TerminationResult

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Contracts.GetByContractIDForUpdate(ctx, contractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return contract.ErrNotFound
			}
			return err
		}
		if c.Status != contract.StatusActive {
			return fmt.Errorf("%w: contract %s is %s", domain.ErrInvalidTransition, contractID, c.Status)
		}

		calc, err := pricing.CalculateTermination(pricing.TerminationInput{
			MonthlyRent:    c.MonthlyRent,
			StartDate:      c.StartDate,
			DurationMonths: c.DurationMonths,
			ReceivableSold: c.ReceivableSold,
		}, exitDate, baseFineMonths)
		if err != nil {
			return err
		}

		res = &TerminationResult{ContractID: contractID, TerminationCalculation: *calc}

		l, err := r.Listings.GetNonCancelledByContract(ctx, contractID)
		switch {
		case err == nil && l.Status == domain.ListingActive:
			cancelled, err := r.Listings.TransitionStatus(ctx, l.ID, domain.ListingActive, domain.ListingCancelled)
			if err != nil {
				return err
			}
			res.ListingCancelled = cancelled
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		c.Status = contract.StatusTerminated
		c.StateUpdatedAt = time.Now().UTC()
		return r.Contracts.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	released, err := u.pledges.ReleaseByContract(ctx, contractID)
	if err != nil {
		u.log.Warn().Err(err).Str("contract_id", contractID).Msg("pledge release on termination failed")
	} else if released.Sign() > 0 {
		res.PledgeReleased = released.StringFixed(2)
	}

	u.log.Info().Str("contract_id", contractID).
		Bool("shortfall", res.HasShortfall).
		Str("fine", res.Fine.StringFixed(2)).
		Msg("contract terminated")
	return res, nil
}
