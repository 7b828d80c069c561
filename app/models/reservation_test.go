package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminalReservationStatus(t *testing.T) {
	for _, status := range []string{
		ReservationStatusCompleted,
		ReservationStatusRejected,
		ReservationStatusCancelled,
	} {
		assert.True(t, IsTerminalReservationStatus(status), "status %s should be terminal", status)
	}

	for _, status := range []string{
		ReservationStatusPending,
		ReservationStatusAccepted,
		ReservationStatusDelivered,
		ReservationStatusDeliveryConfirmed,
		ReservationStatusPaid,
	} {
		assert.False(t, IsTerminalReservationStatus(status), "status %s should not be terminal", status)
	}
}

func TestBlocksNewReservations(t *testing.T) {
	assert.False(t, BlocksNewReservations(ReservationStatusPending))
	assert.False(t, BlocksNewReservations(ReservationStatusRejected))
	assert.False(t, BlocksNewReservations(ReservationStatusCancelled))
	assert.False(t, BlocksNewReservations(ReservationStatusCompleted))

	assert.True(t, BlocksNewReservations(ReservationStatusAccepted))
	assert.True(t, BlocksNewReservations(ReservationStatusDelivered))
	assert.True(t, BlocksNewReservations(ReservationStatusDeliveryConfirmed))
	assert.True(t, BlocksNewReservations(ReservationStatusPaid))
}

func TestWalletTransactionSignedAmount(t *testing.T) {
	tests := []struct {
		txType string
		amount int64
		want   int64
	}{
		{TransactionTypeDeposit, 100, 100},
		{TransactionTypeRefund, 50, 50},
		{TransactionTypeWithdrawal, 100, -100},
		{TransactionTypePayment, 150, -150},
	}

	for _, tt := range tests {
		tx := &WalletTransaction{Type: tt.txType, Amount: tt.amount}
		assert.Equal(t, tt.want, tx.SignedAmount(), "type %s", tt.txType)
	}
}
