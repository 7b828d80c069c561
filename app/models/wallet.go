package models

import (
	"time"
)

const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypePayment    = "payment"
	TransactionTypeRefund     = "refund"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

// Wallet holds one account's balance in the smallest currency unit.
// Created lazily on first use; the balance never goes negative.
type Wallet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	Currency  string    `gorm:"type:varchar(10);default:'XOF'" json:"currency"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// WalletTransaction is an immutable append-only ledger record. The signed
// sum of all completed transactions for a wallet equals its balance.
type WalletTransaction struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	WalletID         uint      `gorm:"not null;index" json:"wallet_id"`
	Type             string    `gorm:"type:varchar(20);not null" json:"type"`
	Amount           int64     `gorm:"not null" json:"amount"`
	ResultingBalance int64     `gorm:"not null" json:"resulting_balance"`
	Status           string    `gorm:"type:varchar(20);not null;default:'completed';index" json:"status"`
	Reference        string    `gorm:"type:varchar(100);default:''" json:"reference,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// SignedAmount returns the amount with the sign its type contributes to
// the balance: deposits and refunds add, withdrawals and payments subtract.
func (t *WalletTransaction) SignedAmount() int64 {
	switch t.Type {
	case TransactionTypeWithdrawal, TransactionTypePayment:
		return -t.Amount
	default:
		return t.Amount
	}
}
