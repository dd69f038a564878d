package settlement

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"rentfi-backend/internal/domain/contract"
	domain "rentfi-backend/internal/domain/marketplace"
	"rentfi-backend/internal/domain/uow"
	"rentfi-backend/internal/gateway"
	"rentfi-backend/internal/testutil/contractmock"
	"rentfi-backend/internal/testutil/gatewaymock"
	"rentfi-backend/internal/testutil/marketplacemock"
	"rentfi-backend/internal/testutil/uowmock"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// settleStore is a mutex-guarded double for the settlement tables. The
// conditional status updates mirror the SQL CAS semantics, which is what the
// exactly-once properties below lean on.
type settleStore struct {
	mu       sync.Mutex
	intents  map[string]*domain.PurchaseIntent
	listing  *domain.Listing
	contract *contract.Contract
	nextID   uint64
}

func (s *settleStore) intentRepo() *marketplacemock.IntentRepo {
	return &marketplacemock.IntentRepo{
		CreateFn: func(_ context.Context, in *domain.PurchaseIntent) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.nextID++
			in.ID = s.nextID
			cp := *in
			s.intents[in.IntentID] = &cp
			return nil
		},
		GetByIntentIDFn: func(_ context.Context, intentID string) (*domain.PurchaseIntent, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if in, ok := s.intents[intentID]; ok {
				cp := *in
				return &cp, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		GetByChargeRefFn: func(_ context.Context, paymentID, externalRef string) (*domain.PurchaseIntent, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, in := range s.intents {
				if (paymentID != "" && in.GatewayChargeID == paymentID) ||
					(externalRef != "" && in.ExternalReference == externalRef) {
					cp := *in
					return &cp, nil
				}
			}
			return nil, gorm.ErrRecordNotFound
		},
		GetNonTerminalByListingFn: func(_ context.Context, listingID uint64) (*domain.PurchaseIntent, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, in := range s.intents {
				if in.ListingID == listingID && !in.Status.Terminal() {
					cp := *in
					return &cp, nil
				}
			}
			return nil, gorm.ErrRecordNotFound
		},
		SetChargeIDFn: func(_ context.Context, intentID, chargeID string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			in, ok := s.intents[intentID]
			if !ok {
				return gorm.ErrRecordNotFound
			}
			in.GatewayChargeID = chargeID
			return nil
		},
		TransitionStatusFn: func(_ context.Context, intentID string, from, to domain.IntentStatus) (bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			in, ok := s.intents[intentID]
			if !ok || in.Status != from {
				return false, nil
			}
			in.Status = to
			return true, nil
		},
		MarkSettledFn: func(_ context.Context, intentID, txHash string) (bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			in, ok := s.intents[intentID]
			if !ok || in.Status != domain.IntentSettling {
				return false, nil
			}
			in.Status = domain.IntentSettled
			in.TxHash = txHash
			return true, nil
		},
		MarkFailedFn: func(_ context.Context, intentID, reason string) (bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			in, ok := s.intents[intentID]
			if !ok || in.Status != domain.IntentSettling {
				return false, nil
			}
			in.Status = domain.IntentFailed
			in.FailureReason = reason
			return true, nil
		},
	}
}

func (s *settleStore) listingRepo() *marketplacemock.ListingRepo {
	return &marketplacemock.ListingRepo{
		GetByIDFn: func(_ context.Context, id uint64) (*domain.Listing, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.listing != nil && s.listing.ID == id {
				cp := *s.listing
				return &cp, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		GetByListingIDForUpdateFn: func(_ context.Context, listingID string) (*domain.Listing, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.listing != nil && s.listing.ListingID == listingID {
				return s.listing, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		TransitionStatusFn: func(_ context.Context, id uint64, from, to domain.ListingStatus) (bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.listing != nil && s.listing.ID == id && s.listing.Status == from {
				s.listing.Status = to
				return true, nil
			}
			return false, nil
		},
	}
}

func (s *settleStore) contractRepo() *contractmock.Repo {
	return &contractmock.Repo{
		GetByContractIDFn: func(_ context.Context, contractID string) (*contract.Contract, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.contract != nil && s.contract.ContractID == contractID {
				return s.contract, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		SaveFn: func(_ context.Context, c *contract.Contract) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.contract = c
			return nil
		},
	}
}

type releaserStub struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *releaserStub) ReleaseByContract(_ context.Context, contractID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, contractID)
	return decimal.Zero, r.err
}

func newSettleStore() *settleStore {
	return &settleStore{
		intents: map[string]*domain.PurchaseIntent{},
		listing: &domain.Listing{
			ID:          7,
			ListingID:   "lst-1",
			ContractID:  "ct-1",
			SellerID:    "owner-1",
			FaceValue:   dec("6000.00"),
			AskingPrice: dec("5400.00"),
			Status:      domain.ListingActive,
		},
		contract: &contract.Contract{
			ID:          1,
			ContractID:  "ct-1",
			OwnerID:     "owner-1",
			OwnerWallet: "0xseller",
			TokenID:     "tok-1",
			Status:      contract.StatusActive,
		},
	}
}

func newSettleUsecase(s *settleStore, payments gateway.PaymentGateway, ledger gateway.Ledger, releaser PledgeReleaser) *Usecase {
	intents := s.intentRepo()
	listings := s.listingRepo()
	contracts := s.contractRepo()
	tx := uowmock.Passthrough(uow.Repos{Contracts: contracts, Listings: listings, Intents: intents})
	if releaser == nil {
		releaser = &releaserStub{}
	}
	return NewUsecase(tx, intents, listings, contracts, payments, ledger, releaser, zerolog.Nop())
}

func paidIntent(s *settleStore, intentID string) {
	s.intents[intentID] = &domain.PurchaseIntent{
		ID:                1,
		IntentID:          intentID,
		ListingID:         s.listing.ID,
		BuyerID:           "buyer-1",
		BuyerWallet:       "0xbuyer",
		SellerID:          "owner-1",
		Amount:            dec("5400.00"),
		TokenID:           "tok-1",
		GatewayChargeID:   "ch-1",
		ExternalReference: "ref-1",
		Status:            domain.IntentPaid,
	}
}

func TestCreatePurchaseIntent(t *testing.T) {
	s := newSettleStore()
	payments := &gatewaymock.Payments{
		CreateChargeFn: func(_ context.Context, in gateway.CreateChargeInput) (*gateway.Charge, error) {
			if !in.Amount.Equal(dec("5400.00")) {
				t.Fatalf("charge amount: %s", in.Amount)
			}
			s.mu.Lock()
			n := len(s.intents)
			s.mu.Unlock()
			if n != 1 {
				t.Fatalf("reservation must be durable before the charge opens, have %d intents", n)
			}
			return &gateway.Charge{
				ChargeID:          "ch-1",
				ExternalReference: in.Reference,
				Amount:            in.Amount,
				CheckoutURL:       "https://pay.example/ch-1",
			}, nil
		},
	}
	uc := newSettleUsecase(s, payments, &gatewaymock.Ledger{}, nil)

	dto, err := uc.CreatePurchaseIntent(context.Background(), CreateIntentInput{
		ListingID: "lst-1", BuyerID: "buyer-1", BuyerWallet: "0xbuyer",
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if dto.Status != string(domain.IntentPending) {
		t.Fatalf("status: %s", dto.Status)
	}
	if dto.CheckoutURL == "" || dto.GatewayChargeID != "ch-1" || dto.ExternalReference == "" {
		t.Fatalf("charge not wired: %+v", dto)
	}

	// the pending intent reserves the listing
	_, err = uc.CreatePurchaseIntent(context.Background(), CreateIntentInput{
		ListingID: "lst-1", BuyerID: "buyer-2", BuyerWallet: "0xother",
	})
	if !errors.Is(err, domain.ErrListingNotActive) {
		t.Fatalf("reserved listing: want ErrListingNotActive, got %v", err)
	}
}

func TestCreatePurchaseIntent_Guards(t *testing.T) {
	t.Run("unknown listing", func(t *testing.T) {
		uc := newSettleUsecase(newSettleStore(), &gatewaymock.Payments{}, &gatewaymock.Ledger{}, nil)
		_, err := uc.CreatePurchaseIntent(context.Background(), CreateIntentInput{ListingID: "missing", BuyerID: "b", BuyerWallet: "0x"})
		if !errors.Is(err, domain.ErrListingNotFound) {
			t.Fatalf("want ErrListingNotFound, got %v", err)
		}
	})

	t.Run("sold listing", func(t *testing.T) {
		s := newSettleStore()
		s.listing.Status = domain.ListingSold
		uc := newSettleUsecase(s, &gatewaymock.Payments{}, &gatewaymock.Ledger{}, nil)
		_, err := uc.CreatePurchaseIntent(context.Background(), CreateIntentInput{ListingID: "lst-1", BuyerID: "b", BuyerWallet: "0x"})
		if !errors.Is(err, domain.ErrListingNotActive) {
			t.Fatalf("want ErrListingNotActive, got %v", err)
		}
	})

	t.Run("charge failure voids the reservation", func(t *testing.T) {
		s := newSettleStore()
		gerr := &gateway.GatewayError{Op: "create charge", Err: errors.New("processor down")}
		payments := &gatewaymock.Payments{
			CreateChargeFn: func(context.Context, gateway.CreateChargeInput) (*gateway.Charge, error) { return nil, gerr },
		}
		uc := newSettleUsecase(s, payments, &gatewaymock.Ledger{}, nil)
		_, err := uc.CreatePurchaseIntent(context.Background(), CreateIntentInput{ListingID: "lst-1", BuyerID: "b", BuyerWallet: "0x"})
		var got *gateway.GatewayError
		if !errors.As(err, &got) {
			t.Fatalf("want GatewayError, got %v", err)
		}
		if len(s.intents) != 1 {
			t.Fatalf("intents: want 1, got %d", len(s.intents))
		}
		for _, in := range s.intents {
			if in.Status != domain.IntentCancelled {
				t.Fatalf("intent status: %s", in.Status)
			}
		}

		// the cancelled intent no longer reserves the listing
		ok := &gatewaymock.Payments{
			CreateChargeFn: func(_ context.Context, in gateway.CreateChargeInput) (*gateway.Charge, error) {
				return &gateway.Charge{ChargeID: "ch-2", ExternalReference: in.Reference, Amount: in.Amount}, nil
			},
		}
		uc2 := newSettleUsecase(s, ok, &gatewaymock.Ledger{}, nil)
		if _, err := uc2.CreatePurchaseIntent(context.Background(), CreateIntentInput{ListingID: "lst-1", BuyerID: "b2", BuyerWallet: "0x2"}); err != nil {
			t.Fatalf("second buyer: %v", err)
		}
	})
}

// Two identical webhook deliveries perform exactly one pending->paid
// transition; the replay is a reported no-op.
func TestOnPaymentConfirmed_Replay(t *testing.T) {
	s := newSettleStore()
	paidIntent(s, "in-1")
	s.intents["in-1"].Status = domain.IntentPending
	uc := newSettleUsecase(s, &gatewaymock.Payments{}, &gatewaymock.Ledger{}, nil)
	ctx := context.Background()

	id1, ok1 := uc.OnPaymentConfirmed(ctx, "ch-1", "ref-1")
	if id1 != "in-1" || !ok1 {
		t.Fatalf("first delivery: got (%q, %v)", id1, ok1)
	}
	id2, ok2 := uc.OnPaymentConfirmed(ctx, "ch-1", "ref-1")
	if id2 != "in-1" || ok2 {
		t.Fatalf("replay: got (%q, %v), want no-op", id2, ok2)
	}
	if s.intents["in-1"].Status != domain.IntentPaid {
		t.Fatalf("status: %s", s.intents["in-1"].Status)
	}
}

func TestOnPaymentConfirmed_UnknownCharge(t *testing.T) {
	uc := newSettleUsecase(newSettleStore(), &gatewaymock.Payments{}, &gatewaymock.Ledger{}, nil)
	id, ok := uc.OnPaymentConfirmed(context.Background(), "ch-unknown", "ref-unknown")
	if id != "" || ok {
		t.Fatalf("unknown charge must be ignored, got (%q, %v)", id, ok)
	}
}

func TestSettle_Success(t *testing.T) {
	s := newSettleStore()
	paidIntent(s, "in-1")
	transfers := 0
	ledger := &gatewaymock.Ledger{
		TransferTokenFn: func(_ context.Context, tokenID, from, to string) (*gateway.TransferReceipt, error) {
			transfers++
			if tokenID != "tok-1" || from != "0xseller" || to != "0xbuyer" {
				t.Fatalf("transfer args: %s %s %s", tokenID, from, to)
			}
			return &gateway.TransferReceipt{TxHash: "0xdeadbeef", BlockNumber: 42}, nil
		},
	}
	releaser := &releaserStub{}
	uc := newSettleUsecase(s, &gatewaymock.Payments{}, ledger, releaser)

	dto, err := uc.Settle(context.Background(), "in-1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if transfers != 1 {
		t.Fatalf("transfers: want 1, got %d", transfers)
	}
	if dto.Status != string(domain.IntentSettled) || dto.TxHash != "0xdeadbeef" {
		t.Fatalf("dto: %+v", dto)
	}
	if s.intents["in-1"].Status != domain.IntentSettled {
		t.Fatalf("intent status: %s", s.intents["in-1"].Status)
	}
	if s.listing.Status != domain.ListingSold {
		t.Fatalf("listing status: %s", s.listing.Status)
	}
	if !s.contract.ReceivableSold {
		t.Fatalf("contract not marked sold")
	}
	if len(releaser.calls) != 1 || releaser.calls[0] != "ct-1" {
		t.Fatalf("pledge release calls: %v", releaser.calls)
	}
}

// Of two concurrent settle calls for the same intent exactly one reaches the
// ledger; the loser must observe ErrInvalidTransition.
func TestSettle_ConcurrentExactlyOnce(t *testing.T) {
	s := newSettleStore()
	paidIntent(s, "in-1")

	var transferMu sync.Mutex
	transfers := 0
	ledger := &gatewaymock.Ledger{
		TransferTokenFn: func(context.Context, string, string, string) (*gateway.TransferReceipt, error) {
			transferMu.Lock()
			transfers++
			transferMu.Unlock()
			return &gateway.TransferReceipt{TxHash: "0x1", BlockNumber: 1}, nil
		},
	}
	uc := newSettleUsecase(s, &gatewaymock.Payments{}, ledger, nil)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Settle(context.Background(), "in-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrInvalidTransition):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("want exactly one winner, got %d wins / %d losses", wins, losses)
	}
	if transfers != 1 {
		t.Fatalf("transfers: want 1, got %d", transfers)
	}
	if s.intents["in-1"].Status != domain.IntentSettled {
		t.Fatalf("intent status: %s", s.intents["in-1"].Status)
	}
}

func TestSettle_LedgerFailureParksIntent(t *testing.T) {
	s := newSettleStore()
	paidIntent(s, "in-1")
	lerr := &gateway.LedgerError{Op: "transfer", TokenID: "tok-1", Err: errors.New("chain down")}
	ledger := &gatewaymock.Ledger{
		TransferTokenFn: func(context.Context, string, string, string) (*gateway.TransferReceipt, error) {
			return nil, lerr
		},
	}
	releaser := &releaserStub{}
	uc := newSettleUsecase(s, &gatewaymock.Payments{}, ledger, releaser)

	_, err := uc.Settle(context.Background(), "in-1")
	var got *gateway.LedgerError
	if !errors.As(err, &got) {
		t.Fatalf("want LedgerError, got %v", err)
	}
	if s.intents["in-1"].Status != domain.IntentFailed {
		t.Fatalf("intent status: %s", s.intents["in-1"].Status)
	}
	if s.intents["in-1"].FailureReason == "" {
		t.Fatalf("failure reason not recorded")
	}
	if s.listing.Status != domain.ListingActive {
		t.Fatalf("listing must stay active, got %s", s.listing.Status)
	}
	if len(releaser.calls) != 0 {
		t.Fatalf("pledge must not be released on failure")
	}
}

// A lookup failure after the claim must hand the intent back to paid so the
// worker or the operator can settle it later; the chain is never touched.
func TestSettle_LookupFailureReturnsClaim(t *testing.T) {
	s := newSettleStore()
	paidIntent(s, "in-1")
	listing := s.listing
	s.listing = nil
	transfers := 0
	ledger := &gatewaymock.Ledger{
		TransferTokenFn: func(context.Context, string, string, string) (*gateway.TransferReceipt, error) {
			transfers++
			return &gateway.TransferReceipt{TxHash: "0x3", BlockNumber: 3}, nil
		},
	}
	uc := newSettleUsecase(s, &gatewaymock.Payments{}, ledger, nil)

	if _, err := uc.Settle(context.Background(), "in-1"); err == nil {
		t.Fatal("expected lookup error")
	}
	if transfers != 0 {
		t.Fatalf("transfer must not run, got %d", transfers)
	}
	if s.intents["in-1"].Status != domain.IntentPaid {
		t.Fatalf("claim not returned: %s", s.intents["in-1"].Status)
	}

	// once the lookup recovers the intent settles without operator help
	s.listing = listing
	dto, err := uc.Settle(context.Background(), "in-1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if dto.Status != string(domain.IntentSettled) {
		t.Fatalf("status: %s", dto.Status)
	}
}

// A commit failure after the token moved must not lose the transfer: the
// intent is parked in failed with the transaction hash in the reason.
func TestSettle_CommitFailureRecordsTransfer(t *testing.T) {
	s := newSettleStore()
	paidIntent(s, "in-1")
	intents := s.intentRepo()
	intents.MarkSettledFn = func(context.Context, string, string) (bool, error) {
		return false, errors.New("connection reset")
	}
	listings := s.listingRepo()
	contracts := s.contractRepo()
	tx := uowmock.Passthrough(uow.Repos{Contracts: contracts, Listings: listings, Intents: intents})
	ledger := &gatewaymock.Ledger{
		TransferTokenFn: func(context.Context, string, string, string) (*gateway.TransferReceipt, error) {
			return &gateway.TransferReceipt{TxHash: "0xfeed", BlockNumber: 9}, nil
		},
	}
	uc := NewUsecase(tx, intents, listings, contracts, &gatewaymock.Payments{}, ledger, &releaserStub{}, zerolog.Nop())

	if _, err := uc.Settle(context.Background(), "in-1"); err == nil {
		t.Fatal("expected commit error")
	}
	in := s.intents["in-1"]
	if in.Status != domain.IntentFailed {
		t.Fatalf("intent status: %s", in.Status)
	}
	if !strings.Contains(in.FailureReason, "0xfeed") {
		t.Fatalf("transfer hash not recorded: %q", in.FailureReason)
	}
}

func TestSettle_WrongState(t *testing.T) {
	s := newSettleStore()
	paidIntent(s, "in-1")
	s.intents["in-1"].Status = domain.IntentPending
	uc := newSettleUsecase(s, &gatewaymock.Payments{}, &gatewaymock.Ledger{}, nil)

	_, err := uc.Settle(context.Background(), "in-1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}

	_, err = uc.Settle(context.Background(), "missing")
	if !errors.Is(err, domain.ErrIntentNotFound) {
		t.Fatalf("want ErrIntentNotFound, got %v", err)
	}
}

func TestReprocess(t *testing.T) {
	okLedger := func() *gatewaymock.Ledger {
		return &gatewaymock.Ledger{
			TransferTokenFn: func(context.Context, string, string, string) (*gateway.TransferReceipt, error) {
				return &gateway.TransferReceipt{TxHash: "0x2", BlockNumber: 2}, nil
			},
		}
	}

	t.Run("paid intent by charge reference", func(t *testing.T) {
		s := newSettleStore()
		paidIntent(s, "in-1")
		uc := newSettleUsecase(s, &gatewaymock.Payments{}, okLedger(), nil)

		dto, err := uc.Reprocess(context.Background(), "ref-1", false)
		if err != nil {
			t.Fatalf("reprocess: %v", err)
		}
		if dto.Status != string(domain.IntentSettled) {
			t.Fatalf("status: %s", dto.Status)
		}
	})

	t.Run("failed needs force", func(t *testing.T) {
		s := newSettleStore()
		paidIntent(s, "in-1")
		s.intents["in-1"].Status = domain.IntentFailed
		uc := newSettleUsecase(s, &gatewaymock.Payments{}, okLedger(), nil)

		_, err := uc.Reprocess(context.Background(), "in-1", false)
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("without force: want ErrInvalidTransition, got %v", err)
		}

		dto, err := uc.Reprocess(context.Background(), "in-1", true)
		if err != nil {
			t.Fatalf("with force: %v", err)
		}
		if dto.Status != string(domain.IntentSettled) {
			t.Fatalf("status: %s", dto.Status)
		}
	})

	t.Run("stranded settling needs force", func(t *testing.T) {
		s := newSettleStore()
		paidIntent(s, "in-1")
		s.intents["in-1"].Status = domain.IntentSettling
		uc := newSettleUsecase(s, &gatewaymock.Payments{}, okLedger(), nil)

		_, err := uc.Reprocess(context.Background(), "in-1", false)
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("without force: want ErrInvalidTransition, got %v", err)
		}

		dto, err := uc.Reprocess(context.Background(), "in-1", true)
		if err != nil {
			t.Fatalf("with force: %v", err)
		}
		if dto.Status != string(domain.IntentSettled) {
			t.Fatalf("status: %s", dto.Status)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		uc := newSettleUsecase(newSettleStore(), &gatewaymock.Payments{}, okLedger(), nil)
		_, err := uc.Reprocess(context.Background(), "nope", false)
		if !errors.Is(err, domain.ErrIntentNotFound) {
			t.Fatalf("want ErrIntentNotFound, got %v", err)
		}
	})
}
