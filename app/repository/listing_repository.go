package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
)

// listingRepository implements the ListingRepository interface
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository instance
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create creates a new listing in the database
func (r *listingRepository) Create(listing *models.Listing) error {
	return r.db.Create(listing).Error
}

// GetByID retrieves a listing by its ID including its images
func (r *listingRepository) GetByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.Preload("Images").First(&listing, id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetByUserID retrieves a seller's listings with pagination
func (r *listingRepository) GetByUserID(userID uint, offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&listings).Error
	return listings, err
}

// GetPublic retrieves browsable listings, boosted and newest first
func (r *listingRepository) GetPublic(offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Where("status = ?", models.ListingStatusActive).
		Order("boosted_at DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&listings).Error
	return listings, err
}

// GetFeatured retrieves listings currently occupying a featured slot
func (r *listingRepository) GetFeatured(now time.Time, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Where("status = ? AND featured_until > ?", models.ListingStatusActive, now).
		Order("featured_until DESC").
		Limit(limit).
		Find(&listings).Error
	return listings, err
}

// Search finds active listings whose title or description match the query
func (r *listingRepository) Search(query string, offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	pattern := "%" + query + "%"
	err := r.db.Where("status = ? AND (title LIKE ? OR description LIKE ?)",
		models.ListingStatusActive, pattern, pattern).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&listings).Error
	return listings, err
}

// Update saves changes to an existing listing
func (r *listingRepository) Update(listing *models.Listing) error {
	return r.db.Save(listing).Error
}

// Archive takes a listing off the marketplace without deleting it
func (r *listingRepository) Archive(id uint) error {
	return r.db.Model(&models.Listing{}).
		Where("id = ?", id).
		Update("status", models.ListingStatusArchived).Error
}

// Count returns the total number of listings
func (r *listingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).Count(&count).Error
	return count, err
}

// CountActiveByUserID counts a seller's listings that occupy a quota slot
func (r *listingRepository) CountActiveByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).
		Where("user_id = ? AND status IN ?", userID,
			[]string{models.ListingStatusActive, models.ListingStatusReserved}).
		Count(&count).Error
	return count, err
}

// AddImage stores an external image reference for a listing
func (r *listingRepository) AddImage(image *models.ListingImage) error {
	return r.db.Create(image).Error
}

// GetImages retrieves a listing's image references in display order
func (r *listingRepository) GetImages(listingID uint) ([]models.ListingImage, error) {
	var images []models.ListingImage
	err := r.db.Where("listing_id = ?", listingID).Order("position ASC").Find(&images).Error
	return images, err
}

// SetFeaturedUntil stamps the end of the listing's featured period
func (r *listingRepository) SetFeaturedUntil(id uint, until time.Time) error {
	return r.db.Model(&models.Listing{}).
		Where("id = ?", id).
		Update("featured_until", until).Error
}

// StampBoost records a boost so public listing order reflects it
func (r *listingRepository) StampBoost(id uint) error {
	return r.db.Model(&models.Listing{}).
		Where("id = ?", id).
		Update("boosted_at", time.Now()).Error
}

// AddViews applies a batched view-count increment
func (r *listingRepository) AddViews(id uint, delta int64) error {
	return r.db.Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", delta)).Error
}

// ListingDirectory answers the reservation state machine's questions about
// listings and applies the listing-side effects of transitions. Status
// flips are conditional so a lost race never overwrites a sold listing.
type ListingDirectory struct {
	db *gorm.DB
}

// NewListingDirectory creates a listing directory over the given DB.
func NewListingDirectory(db *gorm.DB) *ListingDirectory {
	return &ListingDirectory{db: db}
}

func (d *ListingDirectory) getStatus(ctx context.Context, listingID uint) (string, error) {
	var listing models.Listing
	err := d.db.WithContext(ctx).Select("status").First(&listing, listingID).Error
	if err != nil {
		return "", err
	}
	return listing.Status, nil
}

// IsActive reports whether the listing is visible and reservable.
func (d *ListingDirectory) IsActive(ctx context.Context, listingID uint) (bool, error) {
	status, err := d.getStatus(ctx, listingID)
	if err != nil {
		return false, err
	}
	return status == models.ListingStatusActive || status == models.ListingStatusReserved, nil
}

// IsSold reports whether the listing has been sold.
func (d *ListingDirectory) IsSold(ctx context.Context, listingID uint) (bool, error) {
	status, err := d.getStatus(ctx, listingID)
	if err != nil {
		return false, err
	}
	return status == models.ListingStatusSold, nil
}

// OwnerOf returns the seller account that owns the listing.
func (d *ListingDirectory) OwnerOf(ctx context.Context, listingID uint) (uint, error) {
	var listing models.Listing
	err := d.db.WithContext(ctx).Select("user_id").First(&listing, listingID).Error
	if err != nil {
		return 0, err
	}
	return listing.UserID, nil
}

// PriceOf returns the listing price in the smallest currency unit.
func (d *ListingDirectory) PriceOf(ctx context.Context, listingID uint) (int64, error) {
	var listing models.Listing
	err := d.db.WithContext(ctx).Select("price").First(&listing, listingID).Error
	if err != nil {
		return 0, err
	}
	return listing.Price, nil
}

// MarkAvailable returns a reserved listing to the open market.
func (d *ListingDirectory) MarkAvailable(ctx context.Context, listingID uint) error {
	return d.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ? AND status = ?", listingID, models.ListingStatusReserved).
		Update("status", models.ListingStatusActive).Error
}

// MarkSold closes the listing after a completed deal.
func (d *ListingDirectory) MarkSold(ctx context.Context, listingID uint) error {
	return d.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ? AND status IN ?", listingID,
			[]string{models.ListingStatusActive, models.ListingStatusReserved}).
		Update("status", models.ListingStatusSold).Error
}
