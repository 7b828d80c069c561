package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/pkg/apperrors"
)

// fakeRepository mirrors the GORM repository's semantics in memory: the
// debit checks and writes under one lock, exactly like the conditional
// UPDATE does in SQL.
type fakeRepository struct {
	mu      sync.Mutex
	nextID  uint
	wallets map[uint]*models.Wallet
	txns    map[uint][]models.WalletTransaction
	created int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		wallets: map[uint]*models.Wallet{},
		txns:    map[uint][]models.WalletTransaction{},
	}
}

func (f *fakeRepository) GetOrCreateWallet(_ context.Context, userID uint) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.wallets[userID]; ok {
		cp := *w
		return &cp, nil
	}
	f.nextID++
	f.created++
	w := &models.Wallet{ID: f.nextID, UserID: userID}
	f.wallets[userID] = w
	cp := *w
	return &cp, nil
}

func (f *fakeRepository) append(w *models.Wallet, amount int64, txType, reference string) *models.WalletTransaction {
	txn := models.WalletTransaction{
		ID:               uint(len(f.txns[w.ID]) + 1),
		WalletID:         w.ID,
		Type:             txType,
		Amount:           amount,
		ResultingBalance: w.Balance,
		Status:           models.TransactionStatusCompleted,
		Reference:        reference,
	}
	f.txns[w.ID] = append(f.txns[w.ID], txn)
	return &txn
}

func (f *fakeRepository) CreditWallet(_ context.Context, userID uint, amount int64, txType, reference string) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.wallets[userID]
	w.Balance += amount
	return f.append(w, amount, txType, reference), nil
}

func (f *fakeRepository) DebitIfSufficient(_ context.Context, userID uint, amount int64, txType, reference string) (*models.WalletTransaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[userID]
	if !ok || w.Balance < amount {
		return nil, false, nil
	}
	w.Balance -= amount
	return f.append(w, amount, txType, reference), true, nil
}

func (f *fakeRepository) ListTransactions(_ context.Context, userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[userID]
	if !ok {
		return []models.WalletTransaction{}, nil
	}
	all := f.txns[w.ID]
	// newest first
	out := make([]models.WalletTransaction, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	if offset >= len(out) {
		return []models.WalletTransaction{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepository) balance(userID uint) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.wallets[userID]; ok {
		return w.Balance
	}
	return 0
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	w1, err := svc.GetOrCreate(ctx, 5)
	require.NoError(t, err)
	w2, err := svc.GetOrCreate(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, int64(0), w1.Balance)
	assert.Equal(t, w1.ID, w2.ID)
	assert.Equal(t, 1, repo.created)
}

func TestCreditRejectsNonPositiveAmounts(t *testing.T) {
	svc := NewService(newFakeRepository())
	ctx := context.Background()

	for _, amount := range []int64{0, -1, -500} {
		_, err := svc.Credit(ctx, 1, amount, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidAmount), "amount %d", amount)
	}
}

func TestDebitInsufficientFundsRecordsNothing(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Credit(ctx, 1, 100, "")
	require.NoError(t, err)

	_, err = svc.DebitPayment(ctx, 1, 150, "booking-7")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInsufficientFunds))

	assert.Equal(t, int64(100), repo.balance(1))
	history, err := svc.History(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1) // only the deposit
	assert.Equal(t, models.TransactionTypeDeposit, history[0].Type)
}

func TestDebitSucceedsWithSufficientBalance(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Credit(ctx, 1, 200, "")
	require.NoError(t, err)

	txn, err := svc.DebitPayment(ctx, 1, 150, "booking-7")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypePayment, txn.Type)
	assert.Equal(t, int64(150), txn.Amount)
	assert.Equal(t, int64(50), txn.ResultingBalance)
	assert.Equal(t, int64(50), repo.balance(1))
}

func TestBalanceEqualsSignedSumOfCompletedTransactions(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	ops := []func() error{
		func() error { _, err := svc.Credit(ctx, 1, 1000, ""); return err },
		func() error { _, err := svc.DebitPayment(ctx, 1, 300, ""); return err },
		func() error { _, err := svc.Withdraw(ctx, 1, 200, ""); return err },
		func() error { _, err := svc.Refund(ctx, 1, 300, ""); return err },
		func() error { _, err := svc.DebitPayment(ctx, 1, 5000, ""); return err }, // fails, must not count
		func() error { _, err := svc.Credit(ctx, 1, 50, ""); return err },
	}
	for _, op := range ops {
		_ = op()
	}

	history, err := svc.History(ctx, 1, 100, 0)
	require.NoError(t, err)

	var sum int64
	for i := range history {
		if history[i].Status == models.TransactionStatusCompleted {
			sum += history[i].SignedAmount()
		}
	}
	assert.Equal(t, repo.balance(1), sum)
	assert.Equal(t, int64(850), sum)
}

func TestHistoryPagination(t *testing.T) {
	svc := NewService(newFakeRepository())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Credit(ctx, 1, int64(10*(i+1)), "")
		require.NoError(t, err)
	}

	page1, err := svc.History(ctx, 1, 2, 0)
	require.NoError(t, err)
	page2, err := svc.History(ctx, 1, 2, 2)
	require.NoError(t, err)

	require.Len(t, page1, 2)
	require.Len(t, page2, 2)
	// newest first: last credit of 50 comes first
	assert.Equal(t, int64(50), page1[0].Amount)
	assert.Equal(t, int64(40), page1[1].Amount)
	assert.Equal(t, int64(30), page2[0].Amount)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Credit(ctx, 1, 500, "")
	require.NoError(t, err)

	// 10 concurrent debits of 100 against a balance of 500: exactly 5 win.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.DebitPayment(ctx, 1, 100, ""); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, int64(0), repo.balance(1))
}
