package mysql

import (
	"context"

	marketDomain "rentfi-backend/internal/domain/marketplace"

	"gorm.io/gorm"
)

type ListingRepository struct{ db *gorm.DB }

func NewListingRepository(db *gorm.DB) *ListingRepository { return &ListingRepository{db: db} }

func (r *ListingRepository) Create(ctx context.Context, l *marketDomain.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *ListingRepository) Save(ctx context.Context, l *marketDomain.Listing) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *ListingRepository) GetByListingID(ctx context.Context, listingID string) (*marketDomain.Listing, error) {
	var out marketDomain.Listing
	res := r.db.WithContext(ctx).Where("listing_id = ?", listingID).First(&out)
	return &out, res.Error
}

func (r *ListingRepository) GetByListingIDForUpdate(ctx context.Context, listingID string) (*marketDomain.Listing, error) {
	var out marketDomain.Listing
	res := forUpdate(r.db.WithContext(ctx)).Where("listing_id = ?", listingID).First(&out)
	return &out, res.Error
}

func (r *ListingRepository) GetByID(ctx context.Context, id uint64) (*marketDomain.Listing, error) {
	var out marketDomain.Listing
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *ListingRepository) GetNonCancelledByContract(ctx context.Context, contractID string) (*marketDomain.Listing, error) {
	var out marketDomain.Listing
	res := r.db.WithContext(ctx).
		Where("contract_id = ? AND status <> ?", contractID, marketDomain.ListingCancelled).
		Order("id DESC").
		First(&out)
	return &out, res.Error
}

// TransitionStatus flips the listing status only when the row is still in
// `from`; the rows-affected count tells the caller whether it won.
func (r *ListingRepository) TransitionStatus(ctx context.Context, id uint64, from, to marketDomain.ListingStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&marketDomain.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "state_updated_at": nowUTC()})
	return res.RowsAffected == 1, res.Error
}

func (r *ListingRepository) ListActiveWithContract(ctx context.Context, f marketDomain.ListingFilter) ([]marketDomain.ActiveListingRow, error) {
	q := r.db.WithContext(ctx).Table("listings").
		Select("listings.listing_id, listings.contract_id, listings.seller_id, listings.face_value, listings.asking_price, listings.discount_percent, contracts.tenant_score, contracts.city").
		Joins("JOIN contracts ON contracts.contract_id = listings.contract_id AND contracts.deleted_at IS NULL").
		Where("listings.status = ? AND listings.deleted_at IS NULL", marketDomain.ListingActive)

	if f.MinDiscount != nil {
		q = q.Where("listings.discount_percent >= ?", *f.MinDiscount)
	}
	if f.MaxDiscount != nil {
		q = q.Where("listings.discount_percent <= ?", *f.MaxDiscount)
	}
	if f.MinTenantScore > 0 {
		q = q.Where("contracts.tenant_score >= ?", f.MinTenantScore)
	}
	if f.City != "" {
		q = q.Where("contracts.city = ?", f.City)
	}

	var rows []marketDomain.ActiveListingRow
	res := q.Order("listings.discount_percent DESC, listings.id ASC").Scan(&rows)
	return rows, res.Error
}

func (r *ListingRepository) ListAll(ctx context.Context) ([]marketDomain.Listing, error) {
	var out []marketDomain.Listing
	res := r.db.WithContext(ctx).Order("id ASC").Find(&out)
	return out, res.Error
}
