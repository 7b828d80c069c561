package models

import (
	"time"
)

// Message is one entry in the append-only conversation log between a buyer
// and a seller about a listing. Messages are never edited or deleted.
type Message struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ListingID     uint      `gorm:"not null;index:idx_messages_listing_pair,priority:1" json:"listing_id"`
	SenderID      uint      `gorm:"not null;index:idx_messages_listing_pair,priority:2" json:"sender_id"`
	RecipientID   uint      `gorm:"not null;index:idx_messages_listing_pair,priority:3" json:"recipient_id"`
	ReservationID *uint     `gorm:"index" json:"reservation_id,omitempty"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	IsRead        bool      `gorm:"default:false" json:"is_read"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
