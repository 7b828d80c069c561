package jobqueue

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/app/repository"
	"github.com/soukly/soukly/internal/pkg/database"
)

const boostCycleLength = 30 * 24 * time.Hour

// processExpireFeaturedJob clears featured placement on listings whose
// paid-for window has passed and hands the featured slot back to the
// owner's quota. The clear is conditional so a concurrent re-feature of
// the same listing is never undone.
func (q *Queue) processExpireFeaturedJob(ctx context.Context, job *Job) error {
	db := database.GetDB()
	now := time.Now()

	var expired []models.Listing
	if err := db.Where("featured_until IS NOT NULL AND featured_until < ?", now).
		Limit(500).Find(&expired).Error; err != nil {
		return err
	}

	usage := repository.GetGlobalFactory().GetUsageRepository()
	for _, listing := range expired {
		result := db.Model(&models.Listing{}).
			Where("id = ? AND featured_until IS NOT NULL AND featured_until < ?", listing.ID, now).
			Update("featured_until", nil)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}
		if err := usage.ReleaseFeaturedSlot(ctx, listing.UserID); err != nil {
			log.Errorf("[JobQueue] Failed to release featured slot for user %d: %v", listing.UserID, err)
		}
	}
	return nil
}

// processResetBoostCyclesJob zeroes the free-boost counter for accounts
// whose 30 day cycle has lapsed.
func (q *Queue) processResetBoostCyclesJob(ctx context.Context, job *Job) error {
	db := database.GetDB()
	cutoff := time.Now().Add(-boostCycleLength)

	var stale []models.AccountUsage
	if err := db.Where("cycle_started_at < ? AND boosts_used_this_cycle > 0", cutoff).
		Limit(500).Find(&stale).Error; err != nil {
		return err
	}

	usage := repository.GetGlobalFactory().GetUsageRepository()
	for _, row := range stale {
		if err := usage.ResetBoostsUsed(ctx, row.UserID); err != nil {
			log.Errorf("[JobQueue] Failed to reset boost cycle for user %d: %v", row.UserID, err)
		}
	}
	return nil
}
