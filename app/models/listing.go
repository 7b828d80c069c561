package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ListingStatusDraft    = "draft"
	ListingStatusActive   = "active"
	ListingStatusReserved = "reserved"
	ListingStatusSold     = "sold"
	ListingStatusArchived = "archived"
)

// Listing is a classified ad published by a seller. Image bytes live in
// external storage; we only keep URLs on ListingImage rows.
type Listing struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	User              User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title             string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=3,max=200"`
	Description       string         `gorm:"type:text" json:"description" validate:"max=5000"`
	Price             int64          `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	Currency          string         `gorm:"type:varchar(10);default:'XOF'" json:"currency"`
	Category          string         `gorm:"type:varchar(100);index" json:"category" validate:"max=100"`
	City              string         `gorm:"type:varchar(100);index" json:"city" validate:"max=100"`
	Status            string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	PhotoCount        int            `gorm:"not null;default:0" json:"photo_count"`
	ModificationsUsed int            `gorm:"not null;default:0" json:"modifications_used"`
	FeaturedUntil     *time.Time     `gorm:"type:timestamp;default:null;index" json:"featured_until,omitempty"`
	BoostedAt         *time.Time     `gorm:"type:timestamp;default:null" json:"boosted_at,omitempty"`
	ViewCount         int64          `gorm:"not null;default:0" json:"view_count"`
	ContactCount      int64          `gorm:"not null;default:0" json:"contact_count"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Images []ListingImage `gorm:"foreignKey:ListingID" json:"images,omitempty"`
}

// ListingImage references an externally stored photo of a listing.
type ListingImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	URL       string    `gorm:"type:varchar(500);not null" json:"url" validate:"required,max=500"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *Listing) Validate() error {
	v := validator.New()

	return v.Struct(l)
}

// IsActive reports whether the listing is visible and reservable.
func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive || l.Status == ListingStatusReserved
}

// IsSold reports whether the listing has been sold.
func (l *Listing) IsSold() bool {
	return l.Status == ListingStatusSold
}

// IsFeatured reports whether the listing occupies a featured slot at the given time.
func (l *Listing) IsFeatured(now time.Time) bool {
	return l.FeaturedUntil != nil && l.FeaturedUntil.After(now)
}
