package repository

import (
	"time"

	"github.com/soukly/soukly/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	UpdateTier(userID uint, tier string) error
	TouchAPIKeyUsage(userID uint, at time.Time) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// ListingRepository defines the interface for listing-related database operations
type ListingRepository interface {
	Create(listing *models.Listing) error
	GetByID(id uint) (*models.Listing, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Listing, error)
	GetPublic(offset, limit int) ([]models.Listing, error)
	GetFeatured(now time.Time, limit int) ([]models.Listing, error)
	Search(query string, offset, limit int) ([]models.Listing, error)
	Update(listing *models.Listing) error
	Archive(id uint) error
	Count() (int64, error)
	CountActiveByUserID(userID uint) (int64, error)
	AddImage(image *models.ListingImage) error
	GetImages(listingID uint) ([]models.ListingImage, error)
	SetFeaturedUntil(id uint, until time.Time) error
	StampBoost(id uint) error
	AddViews(id uint, delta int64) error
}

// MessageRepository defines the interface for the append-only conversation log
type MessageRepository interface {
	Append(message *models.Message) error
	GetConversation(listingID, userA, userB uint, offset, limit int) ([]models.Message, error)
	GetInbox(userID uint, offset, limit int) ([]models.Message, error)
	MarkRead(recipientID, listingID, senderID uint) error
	CountUnread(userID uint) (int64, error)
}

// NotificationRepository defines the interface for the notification inbox
type NotificationRepository interface {
	GetByUserID(userID uint, offset, limit int) ([]models.Notification, error)
	MarkRead(id, userID uint) error
	CountUnread(userID uint) (int64, error)
}

// Repositories bundles all repository instances
type Repositories struct {
	User         UserRepository
	Listing      ListingRepository
	Message      MessageRepository
	Notification NotificationRepository
	Reservation  *ReservationRepository
	Usage        *UsageRepository
}
