package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/internal/pkg/notifications"
	"github.com/soukly/soukly/pkg/apperrors"
)

// fakeRepo keeps reservations in memory. Status flips happen under one
// lock with the same "only if status still equals X" condition the GORM
// repository expresses in SQL, so the race-related tests are meaningful.
// The accept cascade also flips the listing like the SQL transaction does.
type fakeRepo struct {
	mu       sync.Mutex
	nextID   uint
	rows     map[uint]*models.Reservation
	listings *fakeListings
}

func newFakeRepo(listings *fakeListings) *fakeRepo {
	return &fakeRepo{rows: map[uint]*models.Reservation{}, listings: listings}
}

func (f *fakeRepo) Create(_ context.Context, r *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	r.CreatedAt = time.Now()
	cp := *r
	f.rows[r.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uint) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) applyStamps(r *models.Reservation, stamps map[string]any) {
	for col, val := range stamps {
		switch col {
		case "payment_method":
			r.PaymentMethod = val.(string)
		case "payment_ref":
			r.PaymentRef = val.(string)
		case "accepted_at":
			r.AcceptedAt = val.(*time.Time)
		case "delivered_at":
			r.DeliveredAt = val.(*time.Time)
		case "confirmed_at":
			r.ConfirmedAt = val.(*time.Time)
		case "paid_at":
			r.PaidAt = val.(*time.Time)
		case "closed_at":
			r.ClosedAt = val.(*time.Time)
		}
	}
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uint, from, to string, stamps map[string]any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	f.applyStamps(r, stamps)
	return true, nil
}

func (f *fakeRepo) AcceptCascade(_ context.Context, id, listingID uint) (bool, []models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Status != models.ReservationStatusPending {
		return false, nil, nil
	}
	// Conditional listing flip, the same guard the SQL cascade applies.
	if !f.listings.compareAndSetStatus(listingID, models.ListingStatusActive, models.ListingStatusReserved) {
		return false, nil, nil
	}
	now := time.Now()
	r.Status = models.ReservationStatusAccepted
	r.AcceptedAt = &now

	var rejected []models.Reservation
	for _, sibling := range f.rows {
		if sibling.ID != id && sibling.ListingID == listingID && sibling.Status == models.ReservationStatusPending {
			sibling.Status = models.ReservationStatusRejected
			sibling.ClosedAt = &now
			rejected = append(rejected, *sibling)
		}
	}
	return true, rejected, nil
}

func (f *fakeRepo) PayTransition(_ context.Context, id uint, stamps map[string]any, debit func(tx *gorm.DB) error) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Status != models.ReservationStatusDeliveryConfirmed {
		return false, nil
	}
	// A failed debit leaves the row untouched, like the SQL rollback.
	if debit != nil {
		if err := debit(nil); err != nil {
			return false, err
		}
	}
	r.Status = models.ReservationStatusPaid
	f.applyStamps(r, stamps)
	return true, nil
}

func (f *fakeRepo) HasBlockingReservation(_ context.Context, listingID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ListingID == listingID && models.BlocksNewReservations(r.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListByListing(_ context.Context, listingID uint) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.rows {
		if r.ListingID == listingID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListForBuyer(_ context.Context, buyerID uint, _, _ int) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.rows {
		if r.BuyerID == buyerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListForSeller(_ context.Context, sellerID uint, _, _ int) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.rows {
		if r.SellerID == sellerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

var errNotFound = apperrors.NotFound("reservation not found")

type fakeListing struct {
	owner  uint
	price  int64
	status string
}

type fakeListings struct {
	mu   sync.Mutex
	rows map[uint]*fakeListing
}

func newFakeListings() *fakeListings {
	return &fakeListings{rows: map[uint]*fakeListing{}}
}

func (f *fakeListings) add(id, owner uint, price int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[id] = &fakeListing{owner: owner, price: price, status: models.ListingStatusActive}
}

func (f *fakeListings) get(id uint) (*fakeListing, error) {
	l, ok := f.rows[id]
	if !ok {
		return nil, apperrors.NotFound("listing not found")
	}
	return l, nil
}

func (f *fakeListings) IsActive(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.get(id)
	if err != nil {
		return false, err
	}
	return l.status == models.ListingStatusActive || l.status == models.ListingStatusReserved, nil
}

func (f *fakeListings) IsSold(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.get(id)
	if err != nil {
		return false, err
	}
	return l.status == models.ListingStatusSold, nil
}

func (f *fakeListings) OwnerOf(_ context.Context, id uint) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.get(id)
	if err != nil {
		return 0, err
	}
	return l.owner, nil
}

func (f *fakeListings) PriceOf(_ context.Context, id uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.get(id)
	if err != nil {
		return 0, err
	}
	return l.price, nil
}

func (f *fakeListings) setStatus(id uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.get(id)
	if err != nil {
		return err
	}
	l.status = status
	return nil
}

func (f *fakeListings) compareAndSetStatus(id uint, from, to string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.get(id)
	if err != nil || l.status != from {
		return false
	}
	l.status = to
	return true
}

func (f *fakeListings) MarkAvailable(_ context.Context, id uint) error {
	return f.setStatus(id, models.ListingStatusActive)
}

func (f *fakeListings) MarkSold(_ context.Context, id uint) error {
	return f.setStatus(id, models.ListingStatusSold)
}

// fakeLedger applies the conditional-debit discipline in memory.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[uint]int64
	payments []int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[uint]int64{}}
}

func (f *fakeLedger) DebitPaymentTx(_ context.Context, _ *gorm.DB, userID uint, amount int64, _ string) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if amount <= 0 {
		return nil, apperrors.InvalidAmount("amount must be positive")
	}
	if f.balances[userID] < amount {
		return nil, apperrors.InsufficientFunds("wallet balance does not cover the requested amount")
	}
	f.balances[userID] -= amount
	f.payments = append(f.payments, amount)
	return &models.WalletTransaction{Type: models.TransactionTypePayment, Amount: amount, ResultingBalance: f.balances[userID]}, nil
}

const (
	sellerID   = uint(1)
	buyerID    = uint(2)
	otherBuyer = uint(3)
	thirdBuyer = uint(4)
	listingID  = uint(10)
)

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeListings, *fakeLedger, *notifications.RecordingEmitter) {
	t.Helper()
	listings := newFakeListings()
	listings.add(listingID, sellerID, 150)
	repo := newFakeRepo(listings)
	ledger := newFakeLedger()
	emitter := &notifications.RecordingEmitter{}
	return NewService(repo, listings, ledger, emitter), repo, listings, ledger, emitter
}

func mustCreate(t *testing.T, svc *Service, buyer uint) *models.Reservation {
	t.Helper()
	r, err := svc.Create(context.Background(), buyer, listingID, "still available?")
	require.NoError(t, err)
	return r
}

func advanceToDeliveryConfirmed(t *testing.T, svc *Service, r *models.Reservation) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Accept(ctx, sellerID, r.ID)
	require.NoError(t, err)
	_, err = svc.Deliver(ctx, sellerID, r.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmDelivery(ctx, r.BuyerID, r.ID)
	require.NoError(t, err)
}

func TestCreatePreconditions(t *testing.T) {
	svc, _, listings, _, _ := newTestService(t)
	ctx := context.Background()

	// Owner cannot reserve their own listing.
	_, err := svc.Create(ctx, sellerID, listingID, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Unknown listing.
	_, err = svc.Create(ctx, buyerID, 999, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// Sold listing.
	require.NoError(t, listings.MarkSold(ctx, listingID))
	_, err = svc.Create(ctx, buyerID, listingID, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestMultiplePendingReservationsMayCoexist(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	r1 := mustCreate(t, svc, buyerID)
	r2 := mustCreate(t, svc, otherBuyer)

	assert.Equal(t, models.ReservationStatusPending, r1.Status)
	assert.Equal(t, models.ReservationStatusPending, r2.Status)
}

func TestAcceptCascadeRejectsSiblings(t *testing.T) {
	svc, repo, listings, _, emitter := newTestService(t)
	ctx := context.Background()

	r1 := mustCreate(t, svc, buyerID)
	r2 := mustCreate(t, svc, otherBuyer)
	r3 := mustCreate(t, svc, thirdBuyer)

	accepted, err := svc.Accept(ctx, sellerID, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusAccepted, accepted.Status)

	got2, err := repo.GetByID(ctx, r2.ID)
	require.NoError(t, err)
	got3, err := repo.GetByID(ctx, r3.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusRejected, got2.Status)
	assert.Equal(t, models.ReservationStatusRejected, got3.Status)

	// Listing is now occupied; new reservations are refused.
	_, err = svc.Create(ctx, thirdBuyer, listingID, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	// Both losing buyers were notified.
	rejectedEvents := 0
	for _, e := range emitter.Events {
		if e.Type == models.NotificationReservationRejected {
			rejectedEvents++
		}
	}
	assert.Equal(t, 2, rejectedEvents)

	active, err := listings.IsActive(ctx, listingID)
	require.NoError(t, err)
	assert.True(t, active) // reserved listings remain visible
}

func TestConcurrentAcceptAndReject(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)

	var wg sync.WaitGroup
	var acceptErr, rejectErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, acceptErr = svc.Accept(ctx, sellerID, r.ID)
	}()
	go func() {
		defer wg.Done()
		_, rejectErr = svc.Reject(ctx, sellerID, r.ID)
	}()
	wg.Wait()

	// Exactly one of the two transitions may win.
	if acceptErr == nil {
		require.Error(t, rejectErr)
		assert.True(t, apperrors.IsKind(rejectErr, apperrors.KindInvalidTransition))
	} else {
		require.NoError(t, rejectErr)
		assert.True(t, apperrors.IsKind(acceptErr, apperrors.KindInvalidTransition))
	}

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Contains(t, []string{models.ReservationStatusAccepted, models.ReservationStatusRejected}, got.Status)
}

func TestRoleGating(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)

	// Buyer cannot accept, seller cannot cancel.
	_, err := svc.Accept(ctx, buyerID, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	_, err = svc.Cancel(ctx, sellerID, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	// A stranger is not a party at all.
	_, err = svc.Accept(ctx, uint(99), r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
}

func TestCancelFromPendingAndAccepted(t *testing.T) {
	svc, _, listings, _, _ := newTestService(t)
	ctx := context.Background()

	r1 := mustCreate(t, svc, buyerID)
	cancelled, err := svc.Cancel(ctx, buyerID, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, cancelled.Status)

	r2 := mustCreate(t, svc, otherBuyer)
	_, err = svc.Accept(ctx, sellerID, r2.ID)
	require.NoError(t, err)
	cancelled, err = svc.Cancel(ctx, otherBuyer, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, cancelled.Status)

	// Cancelling an accepted reservation frees the listing again.
	active, err := listings.IsActive(ctx, listingID)
	require.NoError(t, err)
	assert.True(t, active)
	_, err = svc.Create(ctx, thirdBuyer, listingID, "")
	require.NoError(t, err)
}

func TestCancelOnTerminalStateFails(t *testing.T) {
	svc, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()

	// Rejected reservation.
	r1 := mustCreate(t, svc, buyerID)
	_, err := svc.Reject(ctx, sellerID, r1.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, buyerID, r1.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	// Completed reservation.
	r2 := mustCreate(t, svc, otherBuyer)
	advanceToDeliveryConfirmed(t, svc, r2)
	ledger.balances[otherBuyer] = 200
	_, err = svc.Pay(ctx, otherBuyer, r2.ID, models.PaymentMethodWallet, "")
	require.NoError(t, err)
	_, err = svc.Complete(ctx, sellerID, r2.ID, false)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, otherBuyer, r2.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestDeliverRequiresAccepted(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)
	_, err := svc.Deliver(ctx, sellerID, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

func TestPayWalletInsufficientFunds(t *testing.T) {
	svc, repo, _, ledger, _ := newTestService(t)
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)
	advanceToDeliveryConfirmed(t, svc, r)
	ledger.balances[buyerID] = 100 // price is 150

	_, err := svc.Pay(ctx, buyerID, r.ID, models.PaymentMethodWallet, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInsufficientFunds))

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusDeliveryConfirmed, got.Status)
	assert.Equal(t, int64(100), ledger.balances[buyerID])
	assert.Empty(t, ledger.payments)
}

func TestPayWalletSuccess(t *testing.T) {
	svc, repo, _, ledger, emitter := newTestService(t)
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)
	advanceToDeliveryConfirmed(t, svc, r)
	ledger.balances[buyerID] = 200

	paid, err := svc.Pay(ctx, buyerID, r.ID, models.PaymentMethodWallet, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPaid, paid.Status)
	assert.Equal(t, models.PaymentMethodWallet, paid.PaymentMethod)
	assert.NotEmpty(t, paid.PaymentRef)

	assert.Equal(t, int64(50), ledger.balances[buyerID])
	require.Len(t, ledger.payments, 1)
	assert.Equal(t, int64(150), ledger.payments[0])

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.PaidAt)

	var paymentEvents int
	for _, e := range emitter.Events {
		if e.Type == models.NotificationPaymentRecorded {
			paymentEvents++
		}
	}
	assert.Equal(t, 1, paymentEvents)
}

func TestPayOutOfBandMethodSkipsLedger(t *testing.T) {
	svc, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)
	advanceToDeliveryConfirmed(t, svc, r)

	paid, err := svc.Pay(ctx, buyerID, r.ID, models.PaymentMethodMobileMoney, "MM-12345")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPaid, paid.Status)
	assert.Equal(t, models.PaymentMethodMobileMoney, paid.PaymentMethod)
	assert.Equal(t, "MM-12345", paid.PaymentRef)
	assert.Empty(t, ledger.payments)
}

func TestPayRejectsUnknownMethod(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)
	advanceToDeliveryConfirmed(t, svc, r)

	_, err := svc.Pay(ctx, buyerID, r.ID, "crypto", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestPayBeforeDeliveryConfirmationFails(t *testing.T) {
	svc, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)
	_, err := svc.Accept(ctx, sellerID, r.ID)
	require.NoError(t, err)
	ledger.balances[buyerID] = 1000

	_, err = svc.Pay(ctx, buyerID, r.ID, models.PaymentMethodWallet, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
	assert.Equal(t, int64(1000), ledger.balances[buyerID]) // nothing debited
}

// stallingRepo delays one insert so a concurrent accept can commit in
// between the occupancy check and the write.
type stallingRepo struct {
	*fakeRepo
	stallNext bool
	entered   chan struct{}
	release   chan struct{}
}

func (s *stallingRepo) Create(ctx context.Context, r *models.Reservation) error {
	if s.stallNext {
		s.stallNext = false
		close(s.entered)
		<-s.release
	}
	return s.fakeRepo.Create(ctx, r)
}

func TestStalePendingCannotDoubleBookListing(t *testing.T) {
	listings := newFakeListings()
	listings.add(listingID, sellerID, 150)
	repo := &stallingRepo{
		fakeRepo: newFakeRepo(listings),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	svc := NewService(repo, listings, newFakeLedger(), &notifications.RecordingEmitter{})
	ctx := context.Background()

	r1 := mustCreate(t, svc, buyerID)

	// A second buyer's create passes the occupancy check, then stalls
	// before its insert while the seller accepts the first reservation.
	repo.stallNext = true
	var (
		r2        *models.Reservation
		createErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r2, createErr = svc.Create(ctx, otherBuyer, listingID, "")
	}()
	<-repo.entered

	_, err := svc.Accept(ctx, sellerID, r1.ID)
	require.NoError(t, err)

	close(repo.release)
	<-done
	require.NoError(t, createErr) // the stale pending row exists

	// The stale pending can never be accepted while the listing is taken.
	_, err = svc.Accept(ctx, sellerID, r2.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	repo.mu.Lock()
	accepted := 0
	for _, row := range repo.rows {
		if row.Status == models.ReservationStatusAccepted {
			accepted++
		}
	}
	repo.mu.Unlock()
	assert.Equal(t, 1, accepted)
}

// payStallRepo parks the pay transition so a competing status flip can
// commit first.
type payStallRepo struct {
	*fakeRepo
	entered chan struct{}
	release chan struct{}
}

func (p *payStallRepo) PayTransition(ctx context.Context, id uint, stamps map[string]any, debit func(tx *gorm.DB) error) (bool, error) {
	close(p.entered)
	<-p.release
	return p.fakeRepo.PayTransition(ctx, id, stamps, debit)
}

func TestPayLostRaceNeverTouchesWallet(t *testing.T) {
	listings := newFakeListings()
	listings.add(listingID, sellerID, 150)
	base := newFakeRepo(listings)
	repo := &payStallRepo{fakeRepo: base, entered: make(chan struct{}), release: make(chan struct{})}
	ledger := newFakeLedger()
	svc := NewService(repo, listings, ledger, &notifications.RecordingEmitter{})
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)
	advanceToDeliveryConfirmed(t, svc, r)
	ledger.balances[buyerID] = 500

	var payErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, payErr = svc.Pay(ctx, buyerID, r.ID, models.PaymentMethodWallet, "")
	}()
	<-repo.entered

	// A competing transition wins the row before the pay flip applies.
	okFlip, err := base.UpdateStatus(ctx, r.ID, models.ReservationStatusDeliveryConfirmed,
		models.ReservationStatusCancelled, map[string]any{})
	require.NoError(t, err)
	require.True(t, okFlip)

	close(repo.release)
	<-done
	require.Error(t, payErr)
	assert.True(t, apperrors.IsKind(payErr, apperrors.KindInvalidTransition))

	// The debit shares the flip's transaction; a lost flip means the
	// wallet was never touched and nothing needs refunding.
	assert.Equal(t, int64(500), ledger.balances[buyerID])
	assert.Empty(t, ledger.payments)
}

func TestCompleteMarksListingSold(t *testing.T) {
	svc, _, listings, ledger, _ := newTestService(t)
	ctx := context.Background()

	r := mustCreate(t, svc, buyerID)
	advanceToDeliveryConfirmed(t, svc, r)
	ledger.balances[buyerID] = 200
	_, err := svc.Pay(ctx, buyerID, r.ID, models.PaymentMethodWallet, "")
	require.NoError(t, err)

	// Buyer may not close the deal.
	_, err = svc.Complete(ctx, buyerID, r.ID, false)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	done, err := svc.Complete(ctx, sellerID, r.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCompleted, done.Status)

	sold, err := listings.IsSold(ctx, listingID)
	require.NoError(t, err)
	assert.True(t, sold)
}
