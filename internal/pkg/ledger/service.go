package ledger

import (
	"context"

	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/pkg/apperrors"
)

const defaultHistoryLimit = 50

// Service keeps per-account wallet balances and their append-only
// transaction history. Amounts are in the smallest currency unit.
type Service struct {
	repo Repository
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// GetOrCreate returns the account's wallet, creating a zero-balance one
// on first use. Calling it twice never creates a second wallet.
func (s *Service) GetOrCreate(ctx context.Context, userID uint) (*models.Wallet, error) {
	if userID == 0 {
		return nil, apperrors.Validation("user id is required")
	}
	wallet, err := s.repo.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return wallet, nil
}

// Credit deposits funds into the wallet.
func (s *Service) Credit(ctx context.Context, userID uint, amount int64, reference string) (*models.WalletTransaction, error) {
	return s.credit(ctx, userID, amount, models.TransactionTypeDeposit, reference)
}

// Refund returns previously paid funds to the wallet.
func (s *Service) Refund(ctx context.Context, userID uint, amount int64, reference string) (*models.WalletTransaction, error) {
	return s.credit(ctx, userID, amount, models.TransactionTypeRefund, reference)
}

func (s *Service) credit(ctx context.Context, userID uint, amount int64, txType, reference string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidAmount("amount must be positive")
	}
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	txn, err := s.repo.CreditWallet(ctx, userID, amount, txType, reference)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return txn, nil
}

// Withdraw removes funds the account cashes out.
func (s *Service) Withdraw(ctx context.Context, userID uint, amount int64, reference string) (*models.WalletTransaction, error) {
	return s.debit(ctx, userID, amount, models.TransactionTypeWithdrawal, reference)
}

// DebitPayment pays for a reservation from the wallet. On insufficient
// balance nothing is recorded and the caller gets InsufficientFunds.
func (s *Service) DebitPayment(ctx context.Context, userID uint, amount int64, reference string) (*models.WalletTransaction, error) {
	return s.debit(ctx, userID, amount, models.TransactionTypePayment, reference)
}

// DebitPaymentTx runs the payment debit on the caller's transaction
// handle, so it commits or rolls back together with the caller's own
// writes. The reservation pay transition uses this to couple the wallet
// movement to the status flip.
func (s *Service) DebitPaymentTx(ctx context.Context, tx *gorm.DB, userID uint, amount int64, reference string) (*models.WalletTransaction, error) {
	return NewServiceFromDB(tx).DebitPayment(ctx, userID, amount, reference)
}

func (s *Service) debit(ctx context.Context, userID uint, amount int64, txType, reference string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidAmount("amount must be positive")
	}
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	txn, ok, err := s.repo.DebitIfSufficient(ctx, userID, amount, txType, reference)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, apperrors.InsufficientFunds("wallet balance does not cover the requested amount")
	}
	return txn, nil
}

// History lists the wallet's transactions newest first. A non-positive
// limit falls back to the default page size.
func (s *Service) History(ctx context.Context, userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	txns, err := s.repo.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return txns, nil
}
