package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/internal/pkg/entitlements"
)

// UsageRepository implements the quota consumption contract. Every
// consume is one conditional UPDATE ("increment only while still below
// cap"), never a read followed by a write, so two concurrent requests
// cannot both claim the last slot.
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a usage repository over the given DB.
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) bumpUsage(ctx context.Context, userID uint, column string, cap int) (bool, error) {
	if _, err := models.GetOrCreateAccountUsage(r.db.WithContext(ctx), userID); err != nil {
		return false, err
	}

	tx := r.db.WithContext(ctx).Model(&models.AccountUsage{})
	if cap == entitlements.Unlimited {
		tx = tx.Where("user_id = ?", userID)
	} else {
		tx = tx.Where("user_id = ? AND "+column+" < ?", userID, cap)
	}
	res := tx.UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *UsageRepository) dropUsage(ctx context.Context, userID uint, column string) error {
	return r.db.WithContext(ctx).Model(&models.AccountUsage{}).
		Where("user_id = ? AND "+column+" > 0", userID).
		UpdateColumn(column, gorm.Expr(column+" - 1")).Error
}

// ConsumeListingSlot claims one active-listing slot while below cap.
func (r *UsageRepository) ConsumeListingSlot(ctx context.Context, userID uint, cap int) (bool, error) {
	return r.bumpUsage(ctx, userID, "active_listing_count", cap)
}

// ReleaseListingSlot frees a slot when a listing leaves the active state.
func (r *UsageRepository) ReleaseListingSlot(ctx context.Context, userID uint) error {
	return r.dropUsage(ctx, userID, "active_listing_count")
}

// ConsumeFeaturedSlot claims one featured slot while below cap.
func (r *UsageRepository) ConsumeFeaturedSlot(ctx context.Context, userID uint, cap int) (bool, error) {
	return r.bumpUsage(ctx, userID, "featured_slots_used", cap)
}

// ReleaseFeaturedSlot frees a featured slot after the period expires.
func (r *UsageRepository) ReleaseFeaturedSlot(ctx context.Context, userID uint) error {
	return r.dropUsage(ctx, userID, "featured_slots_used")
}

// ConsumeFreeBoost spends one free boost of the current cycle while below cap.
func (r *UsageRepository) ConsumeFreeBoost(ctx context.Context, userID uint, cap int) (bool, error) {
	return r.bumpUsage(ctx, userID, "boosts_used_this_cycle", cap)
}

// ResetBoostsUsed starts a fresh boost cycle. The billing flow calls this
// when a subscription period renews.
func (r *UsageRepository) ResetBoostsUsed(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.AccountUsage{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"boosts_used_this_cycle": 0,
			"cycle_started_at":       gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// ConsumeTeamSeat claims one team seat while below cap.
func (r *UsageRepository) ConsumeTeamSeat(ctx context.Context, userID uint, cap int) (bool, error) {
	return r.bumpUsage(ctx, userID, "team_member_count", cap)
}

// ReleaseTeamSeat frees a seat when a team member is removed.
func (r *UsageRepository) ReleaseTeamSeat(ctx context.Context, userID uint) error {
	return r.dropUsage(ctx, userID, "team_member_count")
}

// ConsumePhotoSlot claims one photo slot on a listing while below cap.
func (r *UsageRepository) ConsumePhotoSlot(ctx context.Context, listingID uint, cap int) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Listing{})
	if cap == entitlements.Unlimited {
		tx = tx.Where("id = ?", listingID)
	} else {
		tx = tx.Where("id = ? AND photo_count < ?", listingID, cap)
	}
	res := tx.UpdateColumn("photo_count", gorm.Expr("photo_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConsumeModification spends one free modification on a listing while below cap.
func (r *UsageRepository) ConsumeModification(ctx context.Context, listingID uint, cap int) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Listing{})
	if cap == entitlements.Unlimited {
		tx = tx.Where("id = ?", listingID)
	} else {
		tx = tx.Where("id = ? AND modifications_used < ?", listingID, cap)
	}
	res := tx.UpdateColumn("modifications_used", gorm.Expr("modifications_used + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetUsage returns the account's current counters, creating them if absent.
func (r *UsageRepository) GetUsage(ctx context.Context, userID uint) (*models.AccountUsage, error) {
	return models.GetOrCreateAccountUsage(r.db.WithContext(ctx), userID)
}
