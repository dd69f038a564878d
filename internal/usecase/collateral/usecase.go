package collateral

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	domain "rentfi-backend/internal/domain/collateral"
	"rentfi-backend/internal/domain/uow"
	"rentfi-backend/internal/infrastructure/cache"
	"rentfi-backend/pkg/id"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Usecase struct {
	repo     domain.Repository
	uow      uow.UnitOfWork
	settings cache.Settings
	log      zerolog.Logger
}

func NewUsecase(repo domain.Repository, tx uow.UnitOfWork, settings cache.Settings, log zerolog.Logger) *Usecase {
	return &Usecase{repo: repo, uow: tx, settings: settings, log: log}
}

type RegisterPropertyInput struct {
	OwnerID        string
	City           string
	AppraisedValue decimal.Decimal
	GuarantorScore int
}

// RegisterProperty onboards a guarantor property. Properties are never hard
// deleted afterwards, only status-transitioned.
func (u *Usecase) RegisterProperty(ctx context.Context, in RegisterPropertyInput) (*domain.GuarantorProperty, error) {
	if in.AppraisedValue.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	p := &domain.GuarantorProperty{
		PropertyID:     id.NewID32(),
		OwnerID:        in.OwnerID,
		City:           in.City,
		AppraisedValue: in.AppraisedValue.Round(2),
		GuarantorScore: in.GuarantorScore,
		Status:         domain.PropertyAvailable,
		StateUpdatedAt: time.Now().UTC(),
	}
	if err := u.repo.CreateProperty(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type PledgeInput struct {
	PropertyID string
	ContractID string
	Amount     decimal.Decimal
	EndDate    time.Time
}

type PledgeDTO struct {
	PledgeID        string          `json:"pledge_id"`
	PropertyID      string          `json:"property_id"`
	ContractID      string          `json:"contract_id"`
	PledgedAmount   decimal.Decimal `json:"pledged_amount"`
	LockHash        string          `json:"lock_hash"`
	EndDate         time.Time       `json:"end_date"`
	RemainingMargin decimal.Decimal `json:"remaining_margin"`
}

// Pledge commits part of a property's margin to a contract. The whole
// read-check-write runs under a per-property row lock so concurrent pledges
// cannot jointly overshoot the LTV ceiling.
func (u *Usecase) Pledge(ctx context.Context, in PledgeInput) (*PledgeDTO, error) {
	if in.Amount.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	var dto *PledgeDTO

	err := u.uow.WithinPropertyTx(ctx, in.PropertyID, func(r uow.Repos, p *domain.GuarantorProperty) error {
		if p.Status == domain.PropertyBlocked {
			return domain.ErrPropertyBlocked
		}

		if _, err := r.Collateral.GetActivePledgeByContract(ctx, in.ContractID); err == nil {
			return domain.ErrDuplicatePledge
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		active, err := r.Collateral.ListActivePledges(ctx, p.ID)
		if err != nil {
			return err
		}
		margin := domain.AvailableMargin(p, active)
		if in.Amount.Cmp(margin) > 0 {
			return fmt.Errorf("%w: requested %s, available %s",
				domain.ErrMarginExceeded, in.Amount.StringFixed(2), margin.StringFixed(2))
		}

		now := time.Now().UTC()
		pl := &domain.PropertyPledge{
			PledgeID:       id.NewID32(),
			PropertyID:     p.ID,
			ContractID:     in.ContractID,
			PledgedAmount:  in.Amount.Round(2),
			LockHash:       lockHash(p.PropertyID, in.ContractID, now),
			StartDate:      now,
			EndDate:        in.EndDate,
			Status:         domain.PledgeActive,
			StateUpdatedAt: now,
		}
		if err := r.Collateral.CreatePledge(ctx, pl); err != nil {
			return err
		}

		remaining := margin.Sub(pl.PledgedAmount)
		if err := u.refreshPropertyStatus(ctx, r.Collateral, p, remaining); err != nil {
			return err
		}

		dto = &PledgeDTO{
			PledgeID:        pl.PledgeID,
			PropertyID:      p.PropertyID,
			ContractID:      pl.ContractID,
			PledgedAmount:   pl.PledgedAmount,
			LockHash:        pl.LockHash,
			EndDate:         pl.EndDate,
			RemainingMargin: remaining,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, err
	}
	return dto, nil
}

// Release frees a pledge and returns the released amount. Releasing an
// already-released pledge is a no-op returning zero, so duplicate termination
// callbacks are harmless.
func (u *Usecase) Release(ctx context.Context, pledgeID string) (decimal.Decimal, error) {
	released := decimal.Zero

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		pl, err := r.Collateral.GetByPledgeIDForUpdate(ctx, pledgeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPledgeNotFound
			}
			return err
		}
		if pl.Status == domain.PledgeReleased {
			u.log.Debug().Str("pledge_id", pledgeID).Msg("pledge already released, no-op")
			return nil
		}

		pl.Status = domain.PledgeReleased
		pl.StateUpdatedAt = time.Now().UTC()
		if err := r.Collateral.SavePledge(ctx, pl); err != nil {
			return err
		}
		released = pl.PledgedAmount

		active, err := r.Collateral.ListActivePledges(ctx, pl.PropertyID)
		if err != nil {
			return err
		}
		// reload the owning property to recompute its summary status
		p, err := r.Collateral.GetByNumericID(ctx, pl.PropertyID)
		if err != nil {
			return err
		}
		return u.refreshPropertyStatus(ctx, r.Collateral, p, domain.AvailableMargin(p, active))
	})
	if err != nil {
		return decimal.Zero, err
	}
	return released, nil
}

// ReleaseByContract releases whatever active pledge backs the contract;
// nothing to release is not an error.
func (u *Usecase) ReleaseByContract(ctx context.Context, contractID string) (decimal.Decimal, error) {
	pl, err := u.repo.GetActivePledgeByContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return u.Release(ctx, pl.PledgeID)
}

type PropertySummary struct {
	PropertyID      string                  `json:"property_id"`
	City            string                  `json:"city"`
	AppraisedValue  decimal.Decimal         `json:"appraised_value"`
	Capacity        decimal.Decimal         `json:"capacity"`
	PledgedAmount   decimal.Decimal         `json:"pledged_amount"`
	AvailableMargin decimal.Decimal         `json:"available_margin"`
	Status          domain.PropertyStatus   `json:"status"`
	ActivePledges   []domain.PropertyPledge `json:"active_pledges"`
}

// Summary reports margin and pledge usage across a guarantor's properties.
func (u *Usecase) Summary(ctx context.Context, ownerID string) ([]PropertySummary, error) {
	props, err := u.repo.ListPropertiesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]PropertySummary, 0, len(props))
	for i := range props {
		p := &props[i]
		active, err := u.repo.ListActivePledges(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		pledged := decimal.Zero
		for j := range active {
			pledged = pledged.Add(active[j].PledgedAmount)
		}
		out = append(out, PropertySummary{
			PropertyID:      p.PropertyID,
			City:            p.City,
			AppraisedValue:  p.AppraisedValue,
			Capacity:        p.Capacity().Round(2),
			PledgedAmount:   pledged,
			AvailableMargin: domain.AvailableMargin(p, active).Round(2),
			Status:          p.Status,
			ActivePledges:   active,
		})
	}
	return out, nil
}

func (u *Usecase) refreshPropertyStatus(ctx context.Context, repo domain.Repository, p *domain.GuarantorProperty, margin decimal.Decimal) error {
	next := domain.PropertyAvailable
	if margin.Sign() <= 0 {
		next = domain.PropertyPledged
	}
	if p.Status == domain.PropertyBlocked || p.Status == next {
		return nil
	}
	p.Status = next
	p.StateUpdatedAt = time.Now().UTC()
	return repo.SaveProperty(ctx, p)
}

func lockHash(propertyID, contractID string, at time.Time) string {
	sum := sha256.Sum256([]byte(propertyID + ":" + contractID + ":" + at.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
