package models

import (
	"time"
)

const (
	ReservationStatusPending           = "pending"
	ReservationStatusAccepted          = "accepted"
	ReservationStatusDelivered         = "delivered"
	ReservationStatusDeliveryConfirmed = "delivery_confirmed"
	ReservationStatusPaid              = "paid"
	ReservationStatusCompleted         = "completed"
	ReservationStatusRejected          = "rejected"
	ReservationStatusCancelled         = "cancelled"
)

const (
	PaymentMethodWallet      = "wallet"
	PaymentMethodCash        = "cash"
	PaymentMethodBank        = "bank_transfer"
	PaymentMethodMobileMoney = "mobile_money"
)

// Reservation records one buyer's intent to acquire one listing. Rows are
// never deleted; finished reservations stay around in a terminal status for
// audit purposes.
type Reservation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ListingID     uint       `gorm:"not null;index" json:"listing_id"`
	Listing       Listing    `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	BuyerID       uint       `gorm:"not null;index" json:"buyer_id"`
	SellerID      uint       `gorm:"not null;index" json:"seller_id"`
	Status        string     `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	BuyerMessage  string     `gorm:"type:text" json:"buyer_message,omitempty"`
	PaymentMethod string     `gorm:"type:varchar(30);default:''" json:"payment_method,omitempty"`
	PaymentRef    string     `gorm:"type:varchar(100);default:''" json:"payment_ref,omitempty"`
	AcceptedAt    *time.Time `gorm:"type:timestamp;default:null" json:"accepted_at,omitempty"`
	DeliveredAt   *time.Time `gorm:"type:timestamp;default:null" json:"delivered_at,omitempty"`
	ConfirmedAt   *time.Time `gorm:"type:timestamp;default:null" json:"confirmed_at,omitempty"`
	PaidAt        *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	ClosedAt      *time.Time `gorm:"type:timestamp;default:null" json:"closed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ReservationTerminalStatuses are the statuses no transition may leave.
var ReservationTerminalStatuses = []string{
	ReservationStatusCompleted,
	ReservationStatusRejected,
	ReservationStatusCancelled,
}

// IsTerminal reports whether the reservation reached a final status.
func (r *Reservation) IsTerminal() bool {
	return IsTerminalReservationStatus(r.Status)
}

// IsTerminalReservationStatus reports whether the given status is final.
func IsTerminalReservationStatus(status string) bool {
	for _, s := range ReservationTerminalStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// BlocksNewReservations reports whether a reservation in this status
// occupies the listing. Pending reservations from several buyers may
// coexist; anything from accepted onward excludes new ones.
func BlocksNewReservations(status string) bool {
	switch status {
	case ReservationStatusAccepted,
		ReservationStatusDelivered,
		ReservationStatusDeliveryConfirmed,
		ReservationStatusPaid:
		return true
	}
	return false
}

// IsValidPaymentMethod reports whether the method is one we accept on pay.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodWallet, PaymentMethodCash, PaymentMethodBank, PaymentMethodMobileMoney:
		return true
	}
	return false
}
