package models

import (
	"time"

	"gorm.io/gorm"
)

// AccountUsage tracks one account's consumption against its tier limits.
// Counters are only ever changed through conditional updates in the
// repository layer; services never read-modify-write them.
type AccountUsage struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	ActiveListingCount  int       `gorm:"not null;default:0" json:"active_listing_count"`
	FeaturedSlotsUsed   int       `gorm:"not null;default:0" json:"featured_slots_used"`
	BoostsUsedThisCycle int       `gorm:"not null;default:0" json:"boosts_used_this_cycle"`
	TeamMemberCount     int       `gorm:"not null;default:0" json:"team_member_count"`
	CycleStartedAt      time.Time `gorm:"autoCreateTime" json:"cycle_started_at"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetOrCreateAccountUsage returns existing usage counters or creates zeroed ones
func GetOrCreateAccountUsage(db *gorm.DB, userID uint) (*AccountUsage, error) {
	var usage AccountUsage
	if err := db.Where("user_id = ?", userID).First(&usage).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			usage = AccountUsage{UserID: userID}
			if err := db.Create(&usage).Error; err != nil {
				return nil, err
			}
			return &usage, nil
		}
		return nil, err
	}
	return &usage, nil
}
