package marketplacemock

import (
	"context"

	domain "rentfi-backend/internal/domain/marketplace"
)

// ListingRepo is a function-backed mock that satisfies domain.ListingRepository.
type ListingRepo struct {
	CreateFn                    func(ctx context.Context, l *domain.Listing) error
	SaveFn                      func(ctx context.Context, l *domain.Listing) error
	GetByListingIDFn            func(ctx context.Context, listingID string) (*domain.Listing, error)
	GetByListingIDForUpdateFn   func(ctx context.Context, listingID string) (*domain.Listing, error)
	GetByIDFn                   func(ctx context.Context, id uint64) (*domain.Listing, error)
	GetNonCancelledByContractFn func(ctx context.Context, contractID string) (*domain.Listing, error)
	TransitionStatusFn          func(ctx context.Context, id uint64, from, to domain.ListingStatus) (bool, error)
	ListActiveWithContractFn    func(ctx context.Context, f domain.ListingFilter) ([]domain.ActiveListingRow, error)
	ListAllFn                   func(ctx context.Context) ([]domain.Listing, error)
}

func (m *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *ListingRepo) Save(ctx context.Context, l *domain.Listing) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *ListingRepo) GetByListingID(ctx context.Context, listingID string) (*domain.Listing, error) {
	if m.GetByListingIDFn != nil {
		return m.GetByListingIDFn(ctx, listingID)
	}
	return nil, domain.ErrListingNotFound
}

func (m *ListingRepo) GetByListingIDForUpdate(ctx context.Context, listingID string) (*domain.Listing, error) {
	if m.GetByListingIDForUpdateFn != nil {
		return m.GetByListingIDForUpdateFn(ctx, listingID)
	}
	return nil, domain.ErrListingNotFound
}

func (m *ListingRepo) GetByID(ctx context.Context, id uint64) (*domain.Listing, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, domain.ErrListingNotFound
}

func (m *ListingRepo) GetNonCancelledByContract(ctx context.Context, contractID string) (*domain.Listing, error) {
	if m.GetNonCancelledByContractFn != nil {
		return m.GetNonCancelledByContractFn(ctx, contractID)
	}
	return nil, domain.ErrListingNotFound
}

func (m *ListingRepo) TransitionStatus(ctx context.Context, id uint64, from, to domain.ListingStatus) (bool, error) {
	if m.TransitionStatusFn != nil {
		return m.TransitionStatusFn(ctx, id, from, to)
	}
	return true, nil
}

func (m *ListingRepo) ListActiveWithContract(ctx context.Context, f domain.ListingFilter) ([]domain.ActiveListingRow, error) {
	if m.ListActiveWithContractFn != nil {
		return m.ListActiveWithContractFn(ctx, f)
	}
	return nil, nil
}

func (m *ListingRepo) ListAll(ctx context.Context) ([]domain.Listing, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	return nil, nil
}

// IntentRepo is a function-backed mock that satisfies domain.IntentRepository.
type IntentRepo struct {
	CreateFn                  func(ctx context.Context, in *domain.PurchaseIntent) error
	GetByIntentIDFn           func(ctx context.Context, intentID string) (*domain.PurchaseIntent, error)
	GetByChargeRefFn          func(ctx context.Context, paymentID, externalRef string) (*domain.PurchaseIntent, error)
	GetNonTerminalByListingFn func(ctx context.Context, listingID uint64) (*domain.PurchaseIntent, error)
	SetChargeIDFn             func(ctx context.Context, intentID, chargeID string) error
	TransitionStatusFn        func(ctx context.Context, intentID string, from, to domain.IntentStatus) (bool, error)
	MarkSettledFn             func(ctx context.Context, intentID, txHash string) (bool, error)
	MarkFailedFn              func(ctx context.Context, intentID, reason string) (bool, error)
}

func (m *IntentRepo) Create(ctx context.Context, in *domain.PurchaseIntent) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, in)
	}
	return nil
}

func (m *IntentRepo) GetByIntentID(ctx context.Context, intentID string) (*domain.PurchaseIntent, error) {
	if m.GetByIntentIDFn != nil {
		return m.GetByIntentIDFn(ctx, intentID)
	}
	return nil, domain.ErrIntentNotFound
}

func (m *IntentRepo) GetByChargeRef(ctx context.Context, paymentID, externalRef string) (*domain.PurchaseIntent, error) {
	if m.GetByChargeRefFn != nil {
		return m.GetByChargeRefFn(ctx, paymentID, externalRef)
	}
	return nil, domain.ErrIntentNotFound
}

func (m *IntentRepo) GetNonTerminalByListing(ctx context.Context, listingID uint64) (*domain.PurchaseIntent, error) {
	if m.GetNonTerminalByListingFn != nil {
		return m.GetNonTerminalByListingFn(ctx, listingID)
	}
	return nil, domain.ErrIntentNotFound
}

func (m *IntentRepo) SetChargeID(ctx context.Context, intentID, chargeID string) error {
	if m.SetChargeIDFn != nil {
		return m.SetChargeIDFn(ctx, intentID, chargeID)
	}
	return nil
}

func (m *IntentRepo) TransitionStatus(ctx context.Context, intentID string, from, to domain.IntentStatus) (bool, error) {
	if m.TransitionStatusFn != nil {
		return m.TransitionStatusFn(ctx, intentID, from, to)
	}
	return true, nil
}

func (m *IntentRepo) MarkSettled(ctx context.Context, intentID, txHash string) (bool, error) {
	if m.MarkSettledFn != nil {
		return m.MarkSettledFn(ctx, intentID, txHash)
	}
	return true, nil
}

func (m *IntentRepo) MarkFailed(ctx context.Context, intentID, reason string) (bool, error) {
	if m.MarkFailedFn != nil {
		return m.MarkFailedFn(ctx, intentID, reason)
	}
	return true, nil
}
