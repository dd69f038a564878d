package marketplace

import (
	"context"
	"errors"
	"time"

	"rentfi-backend/internal/domain/contract"
	domain "rentfi-backend/internal/domain/marketplace"
	"rentfi-backend/internal/domain/uow"
	"rentfi-backend/internal/gateway"
	"rentfi-backend/internal/pricing"
	"rentfi-backend/pkg/id"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Usecase struct {
	listings  domain.ListingRepository
	intents   domain.IntentRepository
	contracts contract.Repository
	ledger    gateway.Ledger
	uow       uow.UnitOfWork
	log       zerolog.Logger
}

func NewUsecase(listings domain.ListingRepository, intents domain.IntentRepository, contracts contract.Repository, ledger gateway.Ledger, tx uow.UnitOfWork, log zerolog.Logger) *Usecase {
	return &Usecase{listings: listings, intents: intents, contracts: contracts, ledger: ledger, uow: tx, log: log}
}

type OnboardContractInput struct {
	OwnerID        string
	TenantID       string
	OwnerWallet    string
	City           string
	TenantScore    int
	MonthlyRent    decimal.Decimal
	StartDate      time.Time
	DurationMonths int
}

// OnboardContract registers a signed lease so its receivable can later be
// listed. Tokenization is deferred to the first listing.
func (u *Usecase) OnboardContract(ctx context.Context, in OnboardContractInput) (*contract.Contract, error) {
	c := &contract.Contract{
		ContractID:     id.NewID32(),
		OwnerID:        in.OwnerID,
		TenantID:       in.TenantID,
		OwnerWallet:    in.OwnerWallet,
		City:           in.City,
		TenantScore:    in.TenantScore,
		MonthlyRent:    in.MonthlyRent.Round(2),
		StartDate:      in.StartDate,
		DurationMonths: in.DurationMonths,
		Status:         contract.StatusActive,
	}
	if err := u.contracts.Create(ctx, c); err != nil {
		return nil, err
	}
	u.log.Info().Str("contract_id", c.ContractID).Str("owner_id", c.OwnerID).Msg("contract onboarded")
	return c, nil
}

// GetContract returns the lease behind a listing for buyer due diligence.
func (u *Usecase) GetContract(ctx context.Context, contractID string) (*contract.Contract, error) {
	c, err := u.contracts.GetByContractID(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

type CreateListingInput struct {
	ContractID  string
	SellerID    string
	AskingPrice decimal.Decimal
}

type ListingDTO struct {
	ListingID       string          `json:"listing_id"`
	ContractID      string          `json:"contract_id"`
	SellerID        string          `json:"seller_id"`
	FaceValue       decimal.Decimal `json:"face_value"`
	AskingPrice     decimal.Decimal `json:"asking_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TokenID         string          `json:"token_id"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CreateListing puts a contract's remaining receivable up for sale. The
// receivable is minted on-chain first if the contract was never tokenized;
// the mint runs before the listing transaction opens, so no row lock is held
// across the ledger call.
func (u *Usecase) CreateListing(ctx context.Context, in CreateListingInput) (*ListingDTO, error) {
	c, err := u.contracts.GetByContractID(ctx, in.ContractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.ErrNotFound
		}
		return nil, err
	}
	if c.Status != contract.StatusActive || c.OwnerID != in.SellerID {
		return nil, domain.ErrListingNotActive
	}
	if _, err := pricing.PriceListing(c.RemainingFaceValue(time.Now().UTC()), in.AskingPrice); err != nil {
		return nil, err
	}

	tokenID := c.TokenID
	if tokenID == "" {
		if tokenID, err = u.mintReceivable(ctx, c); err != nil {
			return nil, err
		}
	}

	var dto *ListingDTO
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		cur, err := r.Contracts.GetByContractIDForUpdate(ctx, in.ContractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return contract.ErrNotFound
			}
			return err
		}
		if cur.Status != contract.StatusActive || cur.OwnerID != in.SellerID {
			return domain.ErrListingNotActive
		}

		if _, err := r.Listings.GetNonCancelledByContract(ctx, in.ContractID); err == nil {
			return domain.ErrDuplicateListing
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		face := cur.RemainingFaceValue(time.Now().UTC())
		discount, err := pricing.PriceListing(face, in.AskingPrice)
		if err != nil {
			return err
		}

		l := &domain.Listing{
			ListingID:       id.NewID32(),
			ContractID:      cur.ContractID,
			SellerID:        in.SellerID,
			FaceValue:       face,
			AskingPrice:     in.AskingPrice.Round(2),
			DiscountPercent: discount,
			Status:          domain.ListingActive,
			StateUpdatedAt:  time.Now().UTC(),
		}
		if err := r.Listings.Create(ctx, l); err != nil {
			return err
		}

		dto = listingDTO(l, tokenID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// mintReceivable tokenizes the contract on-chain, then records the token
// under a row lock; a concurrent first listing keeps whichever token
// committed first.
func (u *Usecase) mintReceivable(ctx context.Context, c *contract.Contract) (string, error) {
	tokenID, err := u.ledger.MintReceivable(ctx, c.ContractID, c.OwnerWallet)
	if err != nil {
		return "", err
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		cur, err := r.Contracts.GetByContractIDForUpdate(ctx, c.ContractID)
		if err != nil {
			return err
		}
		if cur.TokenID != "" {
			tokenID = cur.TokenID
			return nil
		}
		cur.TokenID = tokenID
		return r.Contracts.Save(ctx, cur)
	})
	if err != nil {
		return "", err
	}
	u.log.Info().Str("contract_id", c.ContractID).Str("token_id", tokenID).Msg("receivable minted")
	return tokenID, nil
}

// CancelListing withdraws an active listing. Only the seller may cancel, and
// only while no payment has landed; a still-pending intent is cancelled with
// it.
func (u *Usecase) CancelListing(ctx context.Context, listingID, requesterID string) error {
	err := u.uow.WithinListingTx(ctx, listingID, func(r uow.Repos, l *domain.Listing) error {
		if l.SellerID != requesterID {
			return domain.ErrNotSeller
		}
		if l.Status != domain.ListingActive {
			return domain.ErrListingNotOpen
		}

		in, err := r.Intents.GetNonTerminalByListing(ctx, l.ID)
		switch {
		case err == nil:
			if in.Status != domain.IntentPending {
				return domain.ErrListingNotOpen
			}
			if ok, err := r.Intents.TransitionStatus(ctx, in.IntentID, domain.IntentPending, domain.IntentCancelled); err != nil {
				return err
			} else if !ok {
				return domain.ErrListingNotOpen
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		ok, err := r.Listings.TransitionStatus(ctx, l.ID, domain.ListingActive, domain.ListingCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrListingNotOpen
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrListingNotFound
	}
	return err
}

// ListActive returns the filtered public marketplace view.
func (u *Usecase) ListActive(ctx context.Context, f domain.ListingFilter) ([]domain.ActiveListingRow, error) {
	return u.listings.ListActiveWithContract(ctx, f)
}

type Stats struct {
	TotalListings   int             `json:"total_listings"`
	ActiveListings  int             `json:"active_listings"`
	TotalSales      int             `json:"total_sales"`
	TotalVolume     decimal.Decimal `json:"total_volume"`
	AverageDiscount decimal.Decimal `json:"average_discount"`
}

// Stats aggregates marketplace activity. Average discount is over sold
// listings only; open asks are not realized sales.
func (u *Usecase) Stats(ctx context.Context) (*Stats, error) {
	all, err := u.listings.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	s := &Stats{TotalVolume: decimal.Zero, AverageDiscount: decimal.Zero}
	discountSum := decimal.Zero
	for i := range all {
		l := &all[i]
		s.TotalListings++
		switch l.Status {
		case domain.ListingActive:
			s.ActiveListings++
		case domain.ListingSold:
			s.TotalSales++
			s.TotalVolume = s.TotalVolume.Add(l.AskingPrice)
			discountSum = discountSum.Add(l.DiscountPercent)
		}
	}
	if s.TotalSales > 0 {
		s.AverageDiscount = discountSum.DivRound(decimal.NewFromInt(int64(s.TotalSales)), 4)
	}
	return s, nil
}

func listingDTO(l *domain.Listing, tokenID string) *ListingDTO {
	return &ListingDTO{
		ListingID:       l.ListingID,
		ContractID:      l.ContractID,
		SellerID:        l.SellerID,
		FaceValue:       l.FaceValue,
		AskingPrice:     l.AskingPrice,
		DiscountPercent: l.DiscountPercent,
		TokenID:         tokenID,
		Status:          string(l.Status),
		CreatedAt:       l.CreatedAt,
	}
}
