package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soukly/soukly/app/models"
)

// Repository provides DB operations used by the ledger service. The
// conditional debit is the only place a balance is ever decremented;
// it must check and write in one atomic storage operation.
type Repository interface {
	GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	// CreditWallet increases the balance and appends a completed
	// transaction in one storage transaction.
	CreditWallet(ctx context.Context, userID uint, amount int64, txType, reference string) (*models.WalletTransaction, error)
	// DebitIfSufficient decrements the balance only while it covers the
	// amount and appends a completed transaction. The bool result reports
	// whether the conditional write applied; false means insufficient
	// funds and nothing was recorded.
	DebitIfSufficient(ctx context.Context, userID uint, amount int64, txType, reference string) (*models.WalletTransaction, bool, error)
	ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.WalletTransaction, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

var errInsufficient = errors.New("ledger: balance below requested amount")

func (r *gormRepository) GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet := &models.Wallet{UserID: userID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(wallet).Error; err != nil {
		return nil, err
	}

	// Re-read so concurrent creators all observe the same row.
	var stored models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *gormRepository) CreditWallet(ctx context.Context, userID uint, amount int64, txType, reference string) (*models.WalletTransaction, error) {
	var txn *models.WalletTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wallet{}).
			Where("user_id = ?", userID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var wallet models.Wallet
		if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			return err
		}

		txn = &models.WalletTransaction{
			WalletID:         wallet.ID,
			Type:             txType,
			Amount:           amount,
			ResultingBalance: wallet.Balance,
			Status:           models.TransactionStatusCompleted,
			Reference:        reference,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *gormRepository) DebitIfSufficient(ctx context.Context, userID uint, amount int64, txType, reference string) (*models.WalletTransaction, bool, error) {
	var txn *models.WalletTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Single conditional write: two concurrent debits cannot both
		// pass the balance check.
		res := tx.Model(&models.Wallet{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errInsufficient
		}

		var wallet models.Wallet
		if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			return err
		}

		txn = &models.WalletTransaction{
			WalletID:         wallet.ID,
			Type:             txType,
			Amount:           amount,
			ResultingBalance: wallet.Balance,
			Status:           models.TransactionStatusCompleted,
			Reference:        reference,
		}
		return tx.Create(txn).Error
	})
	if errors.Is(err, errInsufficient) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return txn, true, nil
}

func (r *gormRepository) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.WalletTransaction{}, nil
		}
		return nil, err
	}

	var txns []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", wallet.ID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	return txns, err
}
