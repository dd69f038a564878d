package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentfi-backend/internal/domain/contract"
	domain "rentfi-backend/internal/domain/marketplace"
	"rentfi-backend/internal/domain/uow"
	"rentfi-backend/internal/gateway"
	"rentfi-backend/pkg/id"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PledgeReleaser frees the collateral backing a contract once its receivable
// is fully transferred. The release must be idempotent.
type PledgeReleaser interface {
	ReleaseByContract(ctx context.Context, contractID string) (decimal.Decimal, error)
}

type Usecase struct {
	uow       uow.UnitOfWork
	intents   domain.IntentRepository
	listings  domain.ListingRepository
	contracts contract.Repository
	payments  gateway.PaymentGateway
	ledger    gateway.Ledger
	pledges   PledgeReleaser
	log       zerolog.Logger
}

func NewUsecase(
	tx uow.UnitOfWork,
	intents domain.IntentRepository,
	listings domain.ListingRepository,
	contracts contract.Repository,
	payments gateway.PaymentGateway,
	ledger gateway.Ledger,
	pledges PledgeReleaser,
	log zerolog.Logger,
) *Usecase {
	return &Usecase{
		uow:       tx,
		intents:   intents,
		listings:  listings,
		contracts: contracts,
		payments:  payments,
		ledger:    ledger,
		pledges:   pledges,
		log:       log,
	}
}

type IntentDTO struct {
	IntentID          string          `json:"intent_id"`
	ListingID         string          `json:"listing_id"`
	BuyerID           string          `json:"buyer_id"`
	SellerID          string          `json:"seller_id"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	GatewayChargeID   string          `json:"gateway_charge_id"`
	ExternalReference string          `json:"external_reference"`
	CheckoutURL       string          `json:"checkout_url,omitempty"`
	TxHash            string          `json:"tx_hash,omitempty"`
}

type CreateIntentInput struct {
	ListingID   string
	BuyerID     string
	BuyerWallet string
}

// CreatePurchaseIntent reserves an active listing for a buyer and opens the
// external charge. An active listing with a non-terminal intent is already
// reserved, so at most one purchase is ever in flight per listing. The charge
// is opened only after the reservation committed; no row lock is held across
// the processor call, and a charge failure voids the reservation again.
func (u *Usecase) CreatePurchaseIntent(ctx context.Context, in CreateIntentInput) (*IntentDTO, error) {
	var (
		pi        *domain.PurchaseIntent
		listingID string
	)

	err := u.uow.WithinListingTx(ctx, in.ListingID, func(r uow.Repos, l *domain.Listing) error {
		if l.Status != domain.ListingActive {
			return domain.ErrListingNotActive
		}
		if _, err := r.Intents.GetNonTerminalByListing(ctx, l.ID); err == nil {
			return fmt.Errorf("%w: listing %s is reserved", domain.ErrListingNotActive, l.ListingID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		c, err := r.Contracts.GetByContractID(ctx, l.ContractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return contract.ErrNotFound
			}
			return err
		}

		pi = &domain.PurchaseIntent{
			IntentID:          id.NewID32(),
			ListingID:         l.ID,
			BuyerID:           in.BuyerID,
			BuyerWallet:       in.BuyerWallet,
			SellerID:          l.SellerID,
			Amount:            l.AskingPrice,
			TokenID:           c.TokenID,
			ExternalReference: uuid.NewString(),
			Status:            domain.IntentPending,
			StateUpdatedAt:    time.Now().UTC(),
		}
		listingID = l.ListingID
		return r.Intents.Create(ctx, pi)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}

	charge, err := u.payments.CreateCharge(ctx, gateway.CreateChargeInput{
		Amount:      pi.Amount,
		Reference:   pi.ExternalReference,
		Description: "receivable purchase " + listingID,
		PayerID:     in.BuyerID,
	})
	if err != nil {
		if ok, cerr := u.intents.TransitionStatus(ctx, pi.IntentID, domain.IntentPending, domain.IntentCancelled); cerr != nil || !ok {
			u.log.Error().Err(cerr).Str("intent_id", pi.IntentID).Msg("could not void intent after charge failure")
		}
		return nil, err
	}
	// A confirmation webhook racing this write still finds the intent by its
	// external reference.
	if err := u.intents.SetChargeID(ctx, pi.IntentID, charge.ChargeID); err != nil {
		u.log.Error().Err(err).Str("intent_id", pi.IntentID).Str("charge_id", charge.ChargeID).
			Msg("charge id not recorded")
	}
	pi.GatewayChargeID = charge.ChargeID

	dto := intentDTO(pi, listingID)
	dto.CheckoutURL = charge.CheckoutURL
	return dto, nil
}

// OnPaymentConfirmed handles the processor's PAYMENT_CONFIRMED webhook. The
// lookup is forgiving on purpose: a charge we don't know, a replayed delivery
// and an already-paid intent are all logged no-ops, never errors, so the
// gateway can retry as often as it likes. The bool reports whether this call
// performed the pending->paid transition (and the intent now needs settling).
func (u *Usecase) OnPaymentConfirmed(ctx context.Context, paymentID, externalRef string) (string, bool) {
	in, err := u.intents.GetByChargeRef(ctx, paymentID, externalRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u.log.Warn().Str("payment_id", paymentID).Str("external_reference", externalRef).
				Msg("payment confirmation for unknown charge, ignoring")
		} else {
			u.log.Error().Err(err).Str("payment_id", paymentID).Msg("charge lookup failed, ignoring")
		}
		return "", false
	}
	if in.Status != domain.IntentPending {
		u.log.Debug().Str("intent_id", in.IntentID).Str("status", string(in.Status)).
			Msg("payment already processed, no-op")
		return in.IntentID, false
	}

	ok, err := u.intents.TransitionStatus(ctx, in.IntentID, domain.IntentPending, domain.IntentPaid)
	if err != nil {
		u.log.Error().Err(err).Str("intent_id", in.IntentID).Msg("pending->paid transition failed")
		return "", false
	}
	if !ok {
		// a concurrent delivery won the transition
		return in.IntentID, false
	}
	u.log.Info().Str("intent_id", in.IntentID).Str("payment_id", paymentID).Msg("intent paid")
	return in.IntentID, true
}

// Settle drives a paid intent through the on-chain transfer. The claim is a
// compare-and-swap on the status column: of two concurrent calls exactly one
// proceeds, the other gets ErrInvalidTransition and must not touch the chain.
// Any failure before the transfer returns the claim to paid; a ledger failure
// or a commit failure after the transfer parks the intent in failed for
// explicit reprocessing. Transfers are never retried automatically.
func (u *Usecase) Settle(ctx context.Context, intentID string) (*IntentDTO, error) {
	ok, err := u.intents.TransitionStatus(ctx, intentID, domain.IntentPaid, domain.IntentSettling)
	if err != nil {
		return nil, err
	}
	if !ok {
		cur, gerr := u.intents.GetByIntentID(ctx, intentID)
		if gerr != nil {
			if errors.Is(gerr, gorm.ErrRecordNotFound) {
				return nil, domain.ErrIntentNotFound
			}
			return nil, gerr
		}
		return nil, fmt.Errorf("%w: intent %s is %s", domain.ErrInvalidTransition, intentID, cur.Status)
	}

	in, err := u.intents.GetByIntentID(ctx, intentID)
	if err != nil {
		u.returnClaim(ctx, intentID)
		return nil, err
	}
	l, err := u.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		u.returnClaim(ctx, intentID)
		return nil, err
	}
	c, err := u.contracts.GetByContractID(ctx, l.ContractID)
	if err != nil {
		u.returnClaim(ctx, intentID)
		return nil, err
	}

	receipt, err := u.ledger.TransferToken(ctx, in.TokenID, c.OwnerWallet, in.BuyerWallet)
	if err != nil {
		if _, ferr := u.intents.MarkFailed(ctx, intentID, err.Error()); ferr != nil {
			u.log.Error().Err(ferr).Str("intent_id", intentID).Msg("could not record ledger failure")
		}
		u.log.Error().Err(err).Str("intent_id", intentID).Str("token_id", in.TokenID).
			Msg("token transfer failed, intent parked for reprocessing")
		return nil, err
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ok, err := r.Intents.MarkSettled(ctx, intentID, receipt.TxHash)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: intent %s left settling", domain.ErrInvalidTransition, intentID)
		}
		if _, err := r.Listings.TransitionStatus(ctx, l.ID, domain.ListingActive, domain.ListingSold); err != nil {
			return err
		}
		c.ReceivableSold = true
		return r.Contracts.Save(ctx, c)
	})
	if err != nil {
		// The token already moved, so the claim cannot go back to paid. Park
		// the intent with the transfer hash on record for the operator.
		reason := fmt.Sprintf("settle commit failed after transfer %s: %v", receipt.TxHash, err)
		if ok, ferr := u.intents.MarkFailed(ctx, intentID, reason); ferr != nil || !ok {
			u.log.Error().Err(ferr).Str("intent_id", intentID).Msg("could not record commit failure")
		}
		u.log.Error().Err(err).Str("intent_id", intentID).Str("tx_hash", receipt.TxHash).
			Msg("settle commit failed after transfer, intent parked for reprocessing")
		return nil, err
	}

	// The full receivable moved, so the collateral lock has nothing left to
	// secure. Release is idempotent; a failure here only delays the release.
	if _, err := u.pledges.ReleaseByContract(ctx, l.ContractID); err != nil {
		u.log.Warn().Err(err).Str("contract_id", l.ContractID).Msg("pledge release after settlement failed")
	}

	u.log.Info().Str("intent_id", intentID).Str("tx_hash", receipt.TxHash).Msg("intent settled")

	in.Status = domain.IntentSettled
	in.TxHash = receipt.TxHash
	return intentDTO(in, l.ListingID), nil
}

// Reprocess is the operator path for intents stuck in paid (e.g. the worker
// died between webhook and settle). With force, a failed intent, or one
// stranded in settling by a crash mid-settle, is first moved back to paid, an
// explicit human decision, since the previous transfer attempt must be known
// to have not landed.
func (u *Usecase) Reprocess(ctx context.Context, idOrChargeRef string, force bool) (*IntentDTO, error) {
	in, err := u.intents.GetByIntentID(ctx, idOrChargeRef)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		in, err = u.intents.GetByChargeRef(ctx, idOrChargeRef, idOrChargeRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrIntentNotFound
			}
			return nil, err
		}
	}

	if force && (in.Status == domain.IntentFailed || in.Status == domain.IntentSettling) {
		ok, err := u.intents.TransitionStatus(ctx, in.IntentID, in.Status, domain.IntentPaid)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: intent %s moved concurrently", domain.ErrInvalidTransition, in.IntentID)
		}
		u.log.Info().Str("intent_id", in.IntentID).Str("was", string(in.Status)).
			Msg("intent reset to paid by operator")
	} else if in.Status != domain.IntentPaid {
		return nil, fmt.Errorf("%w: intent %s is %s", domain.ErrInvalidTransition, in.IntentID, in.Status)
	}

	return u.Settle(ctx, in.IntentID)
}

// returnClaim undoes a settling claim when the transfer was never attempted.
func (u *Usecase) returnClaim(ctx context.Context, intentID string) {
	ok, err := u.intents.TransitionStatus(ctx, intentID, domain.IntentSettling, domain.IntentPaid)
	if err != nil || !ok {
		u.log.Error().Err(err).Str("intent_id", intentID).Msg("claimed intent not returned to paid")
	}
}

func intentDTO(in *domain.PurchaseIntent, listingID string) *IntentDTO {
	return &IntentDTO{
		IntentID:          in.IntentID,
		ListingID:         listingID,
		BuyerID:           in.BuyerID,
		SellerID:          in.SellerID,
		Amount:            in.Amount,
		Status:            string(in.Status),
		GatewayChargeID:   in.GatewayChargeID,
		ExternalReference: in.ExternalReference,
		TxHash:            in.TxHash,
	}
}
