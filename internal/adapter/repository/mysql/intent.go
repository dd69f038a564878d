package mysql

import (
	"context"

	marketDomain "rentfi-backend/internal/domain/marketplace"

	"gorm.io/gorm"
)

type IntentRepository struct{ db *gorm.DB }

func NewIntentRepository(db *gorm.DB) *IntentRepository { return &IntentRepository{db: db} }

func (r *IntentRepository) Create(ctx context.Context, in *marketDomain.PurchaseIntent) error {
	return r.db.WithContext(ctx).Create(in).Error
}

func (r *IntentRepository) GetByIntentID(ctx context.Context, intentID string) (*marketDomain.PurchaseIntent, error) {
	var out marketDomain.PurchaseIntent
	res := r.db.WithContext(ctx).Where("intent_id = ?", intentID).First(&out)
	return &out, res.Error
}

func (r *IntentRepository) GetByChargeRef(ctx context.Context, paymentID, externalRef string) (*marketDomain.PurchaseIntent, error) {
	var out marketDomain.PurchaseIntent
	q := r.db.WithContext(ctx)
	switch {
	case paymentID != "" && externalRef != "":
		q = q.Where("gateway_charge_id = ? OR external_reference = ?", paymentID, externalRef)
	case paymentID != "":
		q = q.Where("gateway_charge_id = ?", paymentID)
	default:
		q = q.Where("external_reference = ?", externalRef)
	}
	res := q.Order("id DESC").First(&out)
	return &out, res.Error
}

func (r *IntentRepository) GetNonTerminalByListing(ctx context.Context, listingID uint64) (*marketDomain.PurchaseIntent, error) {
	var out marketDomain.PurchaseIntent
	res := r.db.WithContext(ctx).
		Where("listing_id = ? AND status IN ?", listingID, []marketDomain.IntentStatus{
			marketDomain.IntentPending, marketDomain.IntentPaid, marketDomain.IntentSettling,
		}).
		Order("id DESC").
		First(&out)
	return &out, res.Error
}

func (r *IntentRepository) SetChargeID(ctx context.Context, intentID, chargeID string) error {
	return r.db.WithContext(ctx).Model(&marketDomain.PurchaseIntent{}).
		Where("intent_id = ?", intentID).
		Update("gateway_charge_id", chargeID).Error
}

// TransitionStatus is the compare-and-swap used by every state-machine step:
// the UPDATE only lands when the row is still in `from`.
func (r *IntentRepository) TransitionStatus(ctx context.Context, intentID string, from, to marketDomain.IntentStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&marketDomain.PurchaseIntent{}).
		Where("intent_id = ? AND status = ?", intentID, from).
		Updates(map[string]any{"status": to, "state_updated_at": nowUTC()})
	return res.RowsAffected == 1, res.Error
}

func (r *IntentRepository) MarkSettled(ctx context.Context, intentID, txHash string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&marketDomain.PurchaseIntent{}).
		Where("intent_id = ? AND status = ?", intentID, marketDomain.IntentSettling).
		Updates(map[string]any{
			"status":           marketDomain.IntentSettled,
			"tx_hash":          txHash,
			"state_updated_at": nowUTC(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *IntentRepository) MarkFailed(ctx context.Context, intentID, reason string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&marketDomain.PurchaseIntent{}).
		Where("intent_id = ? AND status = ?", intentID, marketDomain.IntentSettling).
		Updates(map[string]any{
			"status":           marketDomain.IntentFailed,
			"failure_reason":   reason,
			"state_updated_at": nowUTC(),
		})
	return res.RowsAffected == 1, res.Error
}
