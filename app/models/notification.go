package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationReservationCreated   = "reservation_created"
	NotificationReservationAccepted  = "reservation_accepted"
	NotificationReservationRejected  = "reservation_rejected"
	NotificationReservationCancelled = "reservation_cancelled"
	NotificationDeliveryMarked       = "delivery_marked"
	NotificationDeliveryConfirmed    = "delivery_confirmed"
	NotificationPaymentRecorded      = "payment_recorded"
	NotificationMessageReceived      = "message_received"
	NotificationSystem               = "system"
)

// Notification is the persisted inbox copy of an emitted event.
type Notification struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        string         `gorm:"type:varchar(50)" json:"type"`
	Content     string         `gorm:"type:text" json:"content"`
	IsRead      bool           `gorm:"default:false" json:"is_read"`
	ReferenceID uint           `json:"reference_id"` // id of the reservation/listing the event refers to
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkAsRead marks a notification as read
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	n.IsRead = true
	return db.Model(n).Update("is_read", true).Error
}

// CreateNotification stores a new notification for a user
func CreateNotification(db *gorm.DB, userID uint, notificationType string, content string, referenceID uint) error {
	notification := Notification{
		UserID:      userID,
		Type:        notificationType,
		Content:     content,
		ReferenceID: referenceID,
		IsRead:      false,
	}

	return db.Create(&notification).Error
}
