package repository

import (
	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
)

// messageRepository implements the MessageRepository interface
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Append adds a message to the conversation log. Messages are immutable
// once written.
func (r *messageRepository) Append(message *models.Message) error {
	return r.db.Create(message).Error
}

// GetConversation retrieves the message log between two users about a
// listing, oldest first so the thread reads top to bottom.
func (r *messageRepository) GetConversation(listingID, userA, userB uint, offset, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where(
		"listing_id = ? AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))",
		listingID, userA, userB, userB, userA).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&messages).Error
	return messages, err
}

// GetInbox retrieves messages addressed to a user, newest first
func (r *messageRepository) GetInbox(userID uint, offset, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error
	return messages, err
}

// MarkRead marks all messages from one sender about a listing as read
func (r *messageRepository) MarkRead(recipientID, listingID, senderID uint) error {
	return r.db.Model(&models.Message{}).
		Where("recipient_id = ? AND listing_id = ? AND sender_id = ? AND is_read = ?",
			recipientID, listingID, senderID, false).
		Update("is_read", true).Error
}

// CountUnread counts a user's unread messages
func (r *messageRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// notificationRepository implements the NotificationRepository interface
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository instance
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// GetByUserID retrieves a user's notifications, newest first
func (r *notificationRepository) GetByUserID(userID uint, offset, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// MarkRead marks one notification as read, scoped to its owner
func (r *notificationRepository) MarkRead(id, userID uint) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUnread counts a user's unread notifications
func (r *notificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
